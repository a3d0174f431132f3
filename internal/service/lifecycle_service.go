// internal/service/lifecycle_service.go
package service

import (
    "context"

    "go.uber.org/zap"

    "github.com/callforge/dialer-backend/internal/apperrors"
    "github.com/callforge/dialer-backend/internal/clock"
    "github.com/callforge/dialer-backend/internal/model"
    "github.com/callforge/dialer-backend/internal/queue"
    "github.com/callforge/dialer-backend/internal/repository"
    "github.com/callforge/dialer-backend/internal/window"
)

// Tick reasons
const (
    ReasonNotRunning    = "not_running"
    ReasonOutsideWindow = "outside_window"
    ReasonCompleted     = "completed"
    ReasonQueued        = "queued"
)

type TargetCall struct {
    ID          int    `json:"id"`
    PhoneNumber string `json:"phone_number"`
    ContactName string `json:"contact_name"`
}

type TickResult struct {
    Dispatched      bool           `json:"dispatched"`
    Reason          string         `json:"reason"`
    Status          string         `json:"status"`
    Window          *window.Result `json:"window,omitempty"`
    TargetsToCall   []TargetCall   `json:"targets_to_call,omitempty"`
    GeneratedScript *string        `json:"generated_script"`
    ShouldContinue  bool           `json:"should_continue"`
}

// LifecycleService is the engine entry point, invoked once per tick per
// campaign by an external scheduler. It sequences window evaluation,
// batch claiming, and the automatic running -> completed transition.
type LifecycleService struct {
    Campaigns  repository.CampaignRepositoryInterface
    Targets    repository.TargetRepositoryInterface
    Locker     repository.CampaignLocker
    Dispatcher *DispatchService
    Publisher  queue.Publisher
    Clock      clock.Clock
    Logger     *zap.Logger
}

// Tick runs one dispatch cycle for the campaign. Outside the window or
// in a non-running status it is a pure no-op. The claim-and-complete
// sequence runs under a per-campaign lease so overlapping ticks cannot
// double-claim past the rate limit or double-complete the campaign.
func (s *LifecycleService) Tick(ctx context.Context, ownerID, campaignID int) (*TickResult, error) {
    campaign, err := s.Campaigns.GetByID(ctx, campaignID)
    if err != nil {
        return nil, err
    }
    if campaign.OwnerID != ownerID {
        return nil, apperrors.NewAuthorization(campaignID, ownerID)
    }

    if campaign.Status != model.CampaignStatusRunning {
        return &TickResult{
            Reason: ReasonNotRunning,
            Status: campaign.Status,
        }, nil
    }

    win, err := window.Evaluate(window.Config{
        Timezone:  campaign.Timezone,
        StartTime: campaign.StartTime,
        EndTime:   campaign.EndTime,
        Days:      campaign.DaysOfWeek,
    }, s.Clock.Now())
    if err != nil {
        return nil, err
    }
    if !win.Within {
        // not an error and not a transition: the campaign stays running
        // and the scheduler tries again later
        return &TickResult{
            Reason: ReasonOutsideWindow,
            Status: campaign.Status,
            Window: &win,
        }, nil
    }

    release, acquired, err := s.Locker.TryAcquire(ctx, campaignID)
    if err != nil {
        return nil, err
    }
    if !acquired {
        return nil, apperrors.ErrTickInProgress
    }
    defer release()

    batch, err := s.Dispatcher.ClaimBatch(ctx, campaign)
    if err != nil {
        return nil, err
    }

    if batch.Empty() {
        pending, err := s.Targets.CountPending(ctx, campaignID)
        if err != nil {
            return nil, err
        }
        if pending == 0 {
            completed, err := s.Campaigns.MarkCompleted(ctx, campaignID, s.Clock.Now())
            if err != nil {
                return nil, err
            }
            if completed {
                s.Logger.Info("campaign completed",
                    zap.Int("campaign_id", campaignID))
            }
            return &TickResult{
                Reason: ReasonCompleted,
                Status: model.CampaignStatusCompleted,
                Window: &win,
            }, nil
        }
        // nothing claimed but work remains; the next tick re-observes
        return &TickResult{
            Reason:         ReasonQueued,
            Status:         campaign.Status,
            Window:         &win,
            ShouldContinue: true,
        }, nil
    }

    if err := s.Publisher.PublishBatch(batch); err != nil {
        // claims stand; the telephony side re-observes nothing, so this
        // is surfaced for the scheduler rather than silently retried
        return nil, err
    }

    result := &TickResult{
        Dispatched:     true,
        Reason:         ReasonQueued,
        Status:         campaign.Status,
        Window:         &win,
        ShouldContinue: true,
    }
    for _, t := range batch.Targets {
        result.TargetsToCall = append(result.TargetsToCall, TargetCall{
            ID:          t.ID,
            PhoneNumber: t.PhoneNumber,
            ContactName: t.ContactName,
        })
    }
    if batch.Script != "" {
        script := batch.Script
        result.GeneratedScript = &script
    }

    s.Logger.Info("dispatch batch queued",
        zap.Int("campaign_id", campaignID),
        zap.Int("targets", len(batch.Targets)),
        zap.String("batch_id", batch.ID.String()))

    return result, nil
}
