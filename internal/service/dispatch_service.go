// internal/service/dispatch_service.go
package service

import (
    "context"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/callforge/dialer-backend/internal/clock"
    "github.com/callforge/dialer-backend/internal/model"
    "github.com/callforge/dialer-backend/internal/repository"
    "github.com/callforge/dialer-backend/internal/script"
)

// DispatchService claims a bounded batch of pending targets for one
// tick. Callers guarantee the campaign is running and inside its window.
type DispatchService struct {
    Targets repository.TargetRepositoryInterface
    Scripts script.Generator
    Clock   clock.Clock
    Logger  *zap.Logger
}

// ClaimBatch selects at most rate_limit_per_minute pending targets,
// oldest first, and claims each with a conditional pending -> calling
// update. A target whose claim loses a race is skipped, not retried; it
// becomes eligible again on the next tick. An empty batch is the
// completion signal, never an error.
func (s *DispatchService) ClaimBatch(ctx context.Context, campaign *model.Campaign) (*model.DispatchBatch, error) {
    batch := &model.DispatchBatch{
        ID:         uuid.New(),
        CampaignID: campaign.ID,
        ClaimedAt:  s.Clock.Now(),
    }

    candidates, err := s.Targets.ListPending(ctx, campaign.ID, campaign.RateLimitPerMinute)
    if err != nil {
        return nil, err
    }

    for _, t := range candidates {
        claimed, err := s.Targets.Claim(ctx, t.ID, batch.ClaimedAt)
        if err != nil {
            // abort the tick; claims already committed stand and the
            // next tick re-observes whatever is still pending
            return nil, err
        }
        if !claimed {
            s.Logger.Debug("target claim lost race, skipping",
                zap.Int("campaign_id", campaign.ID),
                zap.Int("target_id", t.ID))
            continue
        }

        t.Status = model.TargetStatusCalling
        t.AttemptCount++
        at := batch.ClaimedAt
        t.LastAttemptAt = &at
        batch.Targets = append(batch.Targets, *t)
    }

    if batch.Empty() {
        return batch, nil
    }

    // One generation per batch: the script depends on campaign purpose,
    // not per-target data. Failure degrades the batch to scriptless;
    // the claims stand.
    text, err := s.Scripts.Generate(ctx, script.RequestFor(campaign))
    if err != nil {
        s.Logger.Warn("script generation failed, dispatching without script",
            zap.Int("campaign_id", campaign.ID),
            zap.Error(err))
        batch.ScriptWarning = err.Error()
    } else {
        batch.Script = text
    }

    return batch, nil
}
