package service

import (
    "context"

    "go.uber.org/zap"

    "github.com/callforge/dialer-backend/internal/model"
    "github.com/callforge/dialer-backend/internal/queue"
)

// TargetOutcomeRepository defines the methods the call worker needs
type TargetOutcomeRepository interface {
    GetByID(ctx context.Context, id int) (*model.Target, error)
    SetOutcome(ctx context.Context, targetID int, status string) (bool, error)
}

// CallWorker processes dial jobs from the telephony queue. It stands in
// for the real telephony collaborator: it places the (mock) call and
// writes back the terminal target status.
type CallWorker struct {
    Targets  TargetOutcomeRepository
    Jobs     <-chan queue.DialJob
    DialFunc func(job queue.DialJob) bool
    Logger   *zap.Logger
}

func NewCallWorker(repo TargetOutcomeRepository, jobs <-chan queue.DialJob, dialFunc func(queue.DialJob) bool, logger *zap.Logger) *CallWorker {
    return &CallWorker{
        Targets:  repo,
        Jobs:     jobs,
        DialFunc: dialFunc,
        Logger:   logger,
    }
}

// Start processes jobs until the channel closes.
func (w *CallWorker) Start(ctx context.Context) {
    for job := range w.Jobs {
        if err := w.Process(ctx, job); err != nil {
            w.Logger.Warn("dial job failed",
                zap.Int("target_id", job.TargetID),
                zap.Error(err))
        }
    }
}

// Process places one call and records the outcome. Test dials have no
// persisted target, so nothing is written back for them.
func (w *CallWorker) Process(ctx context.Context, job queue.DialJob) error {
    success := w.DialFunc(job)

    if job.IsTest {
        w.Logger.Info("test dial placed",
            zap.String("phone_number", job.PhoneNumber),
            zap.Bool("success", success))
        return nil
    }

    status := model.TargetStatusCompleted
    if !success {
        status = model.TargetStatusFailed
    }

    updated, err := w.Targets.SetOutcome(ctx, job.TargetID, status)
    if err != nil {
        return err
    }
    if !updated {
        // the target was no longer in calling state; leave the audit
        // trail as it is
        w.Logger.Warn("outcome write skipped, target not in calling state",
            zap.Int("target_id", job.TargetID))
    }
    return nil
}
