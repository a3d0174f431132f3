// internal/service/campaign_service.go
package service

import (
    "context"
    "strings"

    "go.uber.org/zap"

    "github.com/callforge/dialer-backend/internal/apperrors"
    "github.com/callforge/dialer-backend/internal/clock"
    "github.com/callforge/dialer-backend/internal/model"
    "github.com/callforge/dialer-backend/internal/queue"
    "github.com/callforge/dialer-backend/internal/repository"
    "github.com/callforge/dialer-backend/internal/window"
)

type CampaignService struct {
    Campaigns repository.CampaignRepositoryInterface
    Targets   repository.TargetRepositoryInterface
    Progress  *ProgressService
    Limiter   *TestCallLimiter
    Publisher queue.Publisher
    Clock     clock.Clock
    Logger    *zap.Logger
}

type CampaignDetails struct {
    *model.Campaign
    Progress *Progress      `json:"progress"`
    Window   *window.Result `json:"window"`
}

type TargetInput struct {
    PhoneNumber string `json:"phone_number"`
    ContactName string `json:"contact_name"`
}

// CreateCampaign validates window and rate config before persisting.
// Campaigns always start as drafts.
func (s *CampaignService) CreateCampaign(ctx context.Context, c *model.Campaign) (*model.Campaign, error) {
    if strings.TrimSpace(c.Name) == "" {
        return nil, apperrors.NewValidation("name", "name is required")
    }
    if c.RateLimitPerMinute < 1 {
        return nil, apperrors.NewValidation("rate_limit_per_minute", "must be a positive integer")
    }
    if err := window.Validate(window.Config{
        Timezone:  c.Timezone,
        StartTime: c.StartTime,
        EndTime:   c.EndTime,
        Days:      c.DaysOfWeek,
    }); err != nil {
        return nil, err
    }

    c.Status = model.CampaignStatusDraft
    if err := s.Campaigns.Create(ctx, c); err != nil {
        return nil, err
    }
    return c, nil
}

// AddTargets attaches phone targets to a draft or running campaign.
func (s *CampaignService) AddTargets(ctx context.Context, ownerID, campaignID int, inputs []TargetInput) ([]model.Target, error) {
    campaign, err := s.loadOwned(ctx, ownerID, campaignID)
    if err != nil {
        return nil, err
    }
    if campaign.Status == model.CampaignStatusCompleted {
        return nil, apperrors.NewValidation("status", "cannot add targets to a completed campaign")
    }

    targets := make([]model.Target, 0, len(inputs))
    for _, in := range inputs {
        if strings.TrimSpace(in.PhoneNumber) == "" {
            return nil, apperrors.NewValidation("phone_number", "phone number is required")
        }
        targets = append(targets, model.Target{
            PhoneNumber: in.PhoneNumber,
            ContactName: in.ContactName,
        })
    }

    if err := s.Targets.CreateBatch(ctx, campaignID, targets); err != nil {
        return nil, err
    }
    return targets, nil
}

// ListCampaigns fetches the owner's campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, ownerID, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }
    if pageSize > 100 {
        pageSize = 100
    }
    offset := (page - 1) * pageSize

    ptrs, total, err := s.Campaigns.ListByOwner(ctx, ownerID, offset, pageSize, status)
    if err != nil {
        return nil, nil, err
    }

    campaigns := make([]model.Campaign, len(ptrs))
    for i, c := range ptrs {
        campaigns[i] = *c
    }

    totalPages := (total + pageSize - 1) / pageSize
    pagination := map[string]int{
        "page":        page,
        "page_size":   pageSize,
        "total_count": total,
        "total_pages": totalPages,
    }

    return campaigns, pagination, nil
}

// GetCampaignDetails returns the campaign with progress counts and the
// current window diagnostic for display.
func (s *CampaignService) GetCampaignDetails(ctx context.Context, ownerID, campaignID int) (*CampaignDetails, error) {
    campaign, err := s.loadOwned(ctx, ownerID, campaignID)
    if err != nil {
        return nil, err
    }

    progress, err := s.Progress.Summarize(ctx, campaignID)
    if err != nil {
        return nil, err
    }

    details := &CampaignDetails{Campaign: campaign, Progress: progress}
    win, err := window.Evaluate(window.Config{
        Timezone:  campaign.Timezone,
        StartTime: campaign.StartTime,
        EndTime:   campaign.EndTime,
        Days:      campaign.DaysOfWeek,
    }, s.Clock.Now())
    if err == nil {
        details.Window = &win
    }
    return details, nil
}

// StartCampaign moves a draft or paused campaign to running.
func (s *CampaignService) StartCampaign(ctx context.Context, ownerID, campaignID int) error {
    campaign, err := s.loadOwned(ctx, ownerID, campaignID)
    if err != nil {
        return err
    }
    if campaign.Status != model.CampaignStatusDraft && campaign.Status != model.CampaignStatusPaused {
        return apperrors.NewValidation("status", "campaign cannot be started from status: "+campaign.Status)
    }
    return s.Campaigns.UpdateStatus(ctx, campaignID, model.CampaignStatusRunning)
}

// PauseCampaign moves a running campaign to paused.
func (s *CampaignService) PauseCampaign(ctx context.Context, ownerID, campaignID int) error {
    campaign, err := s.loadOwned(ctx, ownerID, campaignID)
    if err != nil {
        return err
    }
    if campaign.Status != model.CampaignStatusRunning {
        return apperrors.NewValidation("status", "campaign cannot be paused from status: "+campaign.Status)
    }
    return s.Campaigns.UpdateStatus(ctx, campaignID, model.CampaignStatusPaused)
}

// TestCall fires a single rate-limited test dial for the owner. The
// dispatch record is written only after the dial is queued, per the
// limiter's contract.
func (s *CampaignService) TestCall(ctx context.Context, ownerID, campaignID int, phoneNumber string) error {
    if strings.TrimSpace(phoneNumber) == "" {
        return apperrors.NewValidation("phone_number", "phone number is required")
    }

    campaign, err := s.loadOwned(ctx, ownerID, campaignID)
    if err != nil {
        return err
    }

    decision, err := s.Limiter.Check(ctx, ownerID)
    if err != nil {
        return err
    }
    if !decision.Allowed {
        return &apperrors.RateLimitError{RetryAfter: decision.RetryAfter}
    }

    job := queue.DialJob{
        CampaignID:  campaign.ID,
        PhoneNumber: phoneNumber,
        Attempt:     1,
        IsTest:      true,
        EnqueuedAt:  s.Clock.Now(),
    }
    if err := s.Publisher.PublishTestDial(job); err != nil {
        return err
    }

    if err := s.Limiter.Record(ctx, ownerID); err != nil {
        s.Logger.Warn("failed to record test dispatch",
            zap.Int("owner_id", ownerID),
            zap.Error(err))
    }
    return nil
}

func (s *CampaignService) loadOwned(ctx context.Context, ownerID, campaignID int) (*model.Campaign, error) {
    campaign, err := s.Campaigns.GetByID(ctx, campaignID)
    if err != nil {
        return nil, err
    }
    if campaign.OwnerID != ownerID {
        return nil, apperrors.NewAuthorization(campaignID, ownerID)
    }
    return campaign, nil
}
