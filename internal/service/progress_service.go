// internal/service/progress_service.go
package service

import (
    "context"
    "math"

    "github.com/callforge/dialer-backend/internal/model"
    "github.com/callforge/dialer-backend/internal/repository"
)

type Progress struct {
    Total      int `json:"total"`
    Pending    int `json:"pending"`
    Calling    int `json:"calling"`
    Completed  int `json:"completed"`
    Failed     int `json:"failed"`
    Percentage int `json:"percentage"`
}

// ProgressService computes per-campaign display counts. Read-only; it
// knows nothing about windows or dispatch.
type ProgressService struct {
    Targets repository.TargetRepositoryInterface
}

func (s *ProgressService) Summarize(ctx context.Context, campaignID int) (*Progress, error) {
    stats, err := s.Targets.CountByStatus(ctx, campaignID)
    if err != nil {
        return nil, err
    }

    p := &Progress{
        Pending:   stats[model.TargetStatusPending],
        Calling:   stats[model.TargetStatusCalling],
        Completed: stats[model.TargetStatusCompleted],
        Failed:    stats[model.TargetStatusFailed],
    }
    p.Total = p.Pending + p.Calling + p.Completed + p.Failed

    // 0 when there are no targets, never a division by zero
    if p.Total > 0 {
        p.Percentage = int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
    }
    return p, nil
}
