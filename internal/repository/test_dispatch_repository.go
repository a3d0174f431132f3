package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/callforge/dialer-backend/internal/apperrors"
)

// TestDispatchRepositoryInterface is the read/append surface the
// test-call rate limiter needs: a rolling count and the record behind
// the retry hint.
type TestDispatchRepositoryInterface interface {
    Record(ctx context.Context, ownerID int, at time.Time) error
    CountSince(ctx context.Context, ownerID int, since time.Time) (int, error)
    OldestSince(ctx context.Context, ownerID int, since time.Time) (*time.Time, error)
}

type TestDispatchRepository struct {
    DB *sql.DB
}

func (r *TestDispatchRepository) Record(ctx context.Context, ownerID int, at time.Time) error {
    query := `INSERT INTO test_dispatches (owner_id, is_test, created_at) VALUES ($1, TRUE, $2)`
    if _, err := r.DB.ExecContext(ctx, query, ownerID, at); err != nil {
        return apperrors.NewTransientStore("record test dispatch", err)
    }
    return nil
}

func (r *TestDispatchRepository) CountSince(ctx context.Context, ownerID int, since time.Time) (int, error) {
    var count int
    err := r.DB.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM test_dispatches WHERE owner_id=$1 AND is_test AND created_at >= $2`,
        ownerID, since,
    ).Scan(&count)
    if err != nil {
        return 0, apperrors.NewTransientStore("count test dispatches", err)
    }
    return count, nil
}

func (r *TestDispatchRepository) OldestSince(ctx context.Context, ownerID int, since time.Time) (*time.Time, error) {
    var oldest sql.NullTime
    err := r.DB.QueryRowContext(ctx,
        `SELECT MIN(created_at) FROM test_dispatches WHERE owner_id=$1 AND is_test AND created_at >= $2`,
        ownerID, since,
    ).Scan(&oldest)
    if err != nil {
        return nil, apperrors.NewTransientStore("oldest test dispatch", err)
    }
    if !oldest.Valid {
        return nil, nil
    }
    return &oldest.Time, nil
}

var _ TestDispatchRepositoryInterface = (*TestDispatchRepository)(nil)
