package repository

import (
    "context"
    "database/sql"
    "sync"

    "github.com/callforge/dialer-backend/internal/apperrors"
)

// CampaignLocker grants a short-lived per-campaign mutual-exclusion
// lease. A tick holds the lease for its claim-and-maybe-complete
// sequence only, so two overlapping ticks can neither double-claim past
// the rate limit nor both complete the campaign.
type CampaignLocker interface {
    TryAcquire(ctx context.Context, campaignID int) (release func(), acquired bool, err error)
}

// advisory lock namespace for campaign ticks, so our keys cannot
// collide with other advisory-lock users of the same database
const lockNamespace = 7341

// AdvisoryLocker implements CampaignLocker on postgres advisory locks.
// The lock is session-scoped, so it pins a dedicated connection until
// release.
type AdvisoryLocker struct {
    DB *sql.DB
}

func (l *AdvisoryLocker) TryAcquire(ctx context.Context, campaignID int) (func(), bool, error) {
    conn, err := l.DB.Conn(ctx)
    if err != nil {
        return nil, false, apperrors.NewTransientStore("acquire lease", err)
    }

    var got bool
    err = conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1, $2)`, lockNamespace, campaignID).Scan(&got)
    if err != nil {
        conn.Close()
        return nil, false, apperrors.NewTransientStore("acquire lease", err)
    }
    if !got {
        conn.Close()
        return nil, false, nil
    }

    release := func() {
        // best effort: closing the connection releases the lock anyway
        _, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1, $2)`, lockNamespace, campaignID)
        conn.Close()
    }
    return release, true, nil
}

// MemoryLocker is an in-process CampaignLocker for tests and
// single-node deployments.
type MemoryLocker struct {
    mu   sync.Mutex
    held map[int]bool
}

func NewMemoryLocker() *MemoryLocker {
    return &MemoryLocker{held: make(map[int]bool)}
}

func (l *MemoryLocker) TryAcquire(_ context.Context, campaignID int) (func(), bool, error) {
    l.mu.Lock()
    defer l.mu.Unlock()

    if l.held[campaignID] {
        return nil, false, nil
    }
    l.held[campaignID] = true

    release := func() {
        l.mu.Lock()
        delete(l.held, campaignID)
        l.mu.Unlock()
    }
    return release, true, nil
}

var _ CampaignLocker = (*AdvisoryLocker)(nil)
var _ CampaignLocker = (*MemoryLocker)(nil)
