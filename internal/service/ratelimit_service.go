// internal/service/ratelimit_service.go
package service

import (
    "context"
    "time"

    "github.com/callforge/dialer-backend/internal/clock"
    "github.com/callforge/dialer-backend/internal/repository"
)

// TestCallLimiter bounds how many test dispatches an owner may fire per
// sliding window. It counts actual timestamped records rather than
// fixed buckets, so a burst straddling a bucket boundary cannot exceed
// the limit. This counter is independent of any campaign's
// rate_limit_per_minute.
type TestCallLimiter struct {
    Repo   repository.TestDispatchRepositoryInterface
    Clock  clock.Clock
    Limit  int
    Window time.Duration
}

type Decision struct {
    Allowed    bool
    RetryAfter time.Duration
}

// Check consults the rolling count. On deny, RetryAfter hints when the
// oldest record ages out of the window. Callers record the dispatch
// themselves, after the downstream action succeeds.
func (l *TestCallLimiter) Check(ctx context.Context, ownerID int) (Decision, error) {
    now := l.Clock.Now()
    since := now.Add(-l.Window)

    count, err := l.Repo.CountSince(ctx, ownerID, since)
    if err != nil {
        return Decision{}, err
    }
    if count < l.Limit {
        return Decision{Allowed: true}, nil
    }

    oldest, err := l.Repo.OldestSince(ctx, ownerID, since)
    if err != nil {
        return Decision{}, err
    }

    retry := l.Window
    if oldest != nil {
        retry = oldest.Add(l.Window).Sub(now)
        if retry < 0 {
            retry = 0
        }
    }
    return Decision{RetryAfter: retry}, nil
}

// Record appends a test-dispatch fact for the owner.
func (l *TestCallLimiter) Record(ctx context.Context, ownerID int) error {
    return l.Repo.Record(ctx, ownerID, l.Clock.Now())
}
