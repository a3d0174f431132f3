package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/callforge/dialer-backend/internal/apperrors"
    "github.com/callforge/dialer-backend/internal/model"
)

type TargetRepositoryInterface interface {
    CreateBatch(ctx context.Context, campaignID int, targets []model.Target) error
    GetByID(ctx context.Context, id int) (*model.Target, error)
    ListPending(ctx context.Context, campaignID, limit int) ([]*model.Target, error)
    Claim(ctx context.Context, targetID int, at time.Time) (bool, error)
    SetOutcome(ctx context.Context, targetID int, status string) (bool, error)
    CountPending(ctx context.Context, campaignID int) (int, error)
    CountByStatus(ctx context.Context, campaignID int) (map[string]int, error)
}

type TargetRepository struct {
    DB *sql.DB
}

func (r *TargetRepository) CreateBatch(ctx context.Context, campaignID int, targets []model.Target) error {
    query := `
        INSERT INTO targets (campaign_id, phone_number, contact_name, status, attempt_count, created_at)
        VALUES ($1, $2, $3, $4, 0, $5)
        RETURNING id
    `
    now := time.Now()
    for i := range targets {
        t := &targets[i]
        t.CampaignID = campaignID
        if t.Status == "" {
            t.Status = model.TargetStatusPending
        }
        t.CreatedAt = now
        if err := r.DB.QueryRowContext(ctx, query, campaignID, t.PhoneNumber, t.ContactName, t.Status, t.CreatedAt).Scan(&t.ID); err != nil {
            return apperrors.NewTransientStore("create target", err)
        }
    }
    return nil
}

func (r *TargetRepository) GetByID(ctx context.Context, id int) (*model.Target, error) {
    query := `
        SELECT id, campaign_id, phone_number, contact_name, status, attempt_count, last_attempt_at, created_at
        FROM targets WHERE id=$1
    `
    var t model.Target
    err := r.DB.QueryRowContext(ctx, query, id).Scan(
        &t.ID, &t.CampaignID, &t.PhoneNumber, &t.ContactName,
        &t.Status, &t.AttemptCount, &t.LastAttemptAt, &t.CreatedAt,
    )
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, apperrors.NewTargetNotFound(id)
        }
        return nil, apperrors.NewTransientStore("get target", err)
    }
    return &t, nil
}

// ListPending returns pending targets oldest-first, ties broken by id.
func (r *TargetRepository) ListPending(ctx context.Context, campaignID, limit int) ([]*model.Target, error) {
    query := `
        SELECT id, campaign_id, phone_number, contact_name, status, attempt_count, last_attempt_at, created_at
        FROM targets
        WHERE campaign_id=$1 AND status=$2
        ORDER BY created_at ASC, id ASC
        LIMIT $3
    `
    rows, err := r.DB.QueryContext(ctx, query, campaignID, model.TargetStatusPending, limit)
    if err != nil {
        return nil, apperrors.NewTransientStore("list pending targets", err)
    }
    defer rows.Close()

    targets := []*model.Target{}
    for rows.Next() {
        t := &model.Target{}
        if err := rows.Scan(
            &t.ID, &t.CampaignID, &t.PhoneNumber, &t.ContactName,
            &t.Status, &t.AttemptCount, &t.LastAttemptAt, &t.CreatedAt,
        ); err != nil {
            return nil, apperrors.NewTransientStore("scan target", err)
        }
        targets = append(targets, t)
    }
    return targets, nil
}

// Claim is the compare-and-swap that moves a single target pending ->
// calling, bumping attempt_count and stamping last_attempt_at. A false
// return means another tick won the race; the caller skips the target.
func (r *TargetRepository) Claim(ctx context.Context, targetID int, at time.Time) (bool, error) {
    query := `
        UPDATE targets
        SET status=$1, attempt_count=attempt_count+1, last_attempt_at=$2
        WHERE id=$3 AND status=$4
    `
    res, err := r.DB.ExecContext(ctx, query, model.TargetStatusCalling, at, targetID, model.TargetStatusPending)
    if err != nil {
        return false, apperrors.NewTransientStore("claim target", err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, apperrors.NewTransientStore("claim target", err)
    }
    return n == 1, nil
}

// SetOutcome records the terminal status written back by the call
// worker. It only advances targets that are currently calling.
func (r *TargetRepository) SetOutcome(ctx context.Context, targetID int, status string) (bool, error) {
    query := `UPDATE targets SET status=$1 WHERE id=$2 AND status=$3`
    res, err := r.DB.ExecContext(ctx, query, status, targetID, model.TargetStatusCalling)
    if err != nil {
        return false, apperrors.NewTransientStore("set target outcome", err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, apperrors.NewTransientStore("set target outcome", err)
    }
    return n == 1, nil
}

func (r *TargetRepository) CountPending(ctx context.Context, campaignID int) (int, error) {
    var count int
    err := r.DB.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM targets WHERE campaign_id=$1 AND status=$2`,
        campaignID, model.TargetStatusPending,
    ).Scan(&count)
    if err != nil {
        return 0, apperrors.NewTransientStore("count pending targets", err)
    }
    return count, nil
}

func (r *TargetRepository) CountByStatus(ctx context.Context, campaignID int) (map[string]int, error) {
    rows, err := r.DB.QueryContext(ctx,
        `SELECT status, COUNT(*) FROM targets WHERE campaign_id=$1 GROUP BY status`,
        campaignID,
    )
    if err != nil {
        return nil, apperrors.NewTransientStore("count targets", err)
    }
    defer rows.Close()

    stats := map[string]int{
        model.TargetStatusPending:   0,
        model.TargetStatusCalling:   0,
        model.TargetStatusCompleted: 0,
        model.TargetStatusFailed:    0,
    }
    for rows.Next() {
        var status string
        var count int
        if err := rows.Scan(&status, &count); err != nil {
            return nil, apperrors.NewTransientStore("scan target counts", err)
        }
        stats[status] = count
    }
    return stats, nil
}

var _ TargetRepositoryInterface = (*TargetRepository)(nil)
