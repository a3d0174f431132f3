package service_test

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/callforge/dialer-backend/internal/apperrors"
    "github.com/callforge/dialer-backend/internal/clock"
    "github.com/callforge/dialer-backend/internal/model"
    "github.com/callforge/dialer-backend/internal/repository"
    "github.com/callforge/dialer-backend/internal/service"
)

type lifecycleFixture struct {
    campaigns *fakeCampaignRepo
    targets   *fakeTargetRepo
    publisher *fakePublisher
    generator *fakeGenerator
    locker    *repository.MemoryLocker
    clock     *clock.Fixed
    svc       *service.LifecycleService
}

func newLifecycleFixture(campaign *model.Campaign) *lifecycleFixture {
    f := &lifecycleFixture{
        campaigns: newFakeCampaignRepo(campaign),
        targets:   newFakeTargetRepo(),
        publisher: &fakePublisher{},
        generator: &fakeGenerator{script: "hello"},
        locker:    repository.NewMemoryLocker(),
        clock:     &clock.Fixed{Instant: time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)}, // a Wednesday
    }
    f.svc = &service.LifecycleService{
        Campaigns: f.campaigns,
        Targets:   f.targets,
        Locker:    f.locker,
        Dispatcher: &service.DispatchService{
            Targets: f.targets,
            Scripts: f.generator,
            Clock:   f.clock,
            Logger:  zap.NewNop(),
        },
        Publisher: f.publisher,
        Clock:     f.clock,
        Logger:    zap.NewNop(),
    }
    return f
}

func (f *lifecycleFixture) addTargets(campaignID, n int) {
    base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
    for i := 0; i < n; i++ {
        f.targets.add(campaignID, base.Add(time.Duration(i)*time.Second))
    }
}

func TestTickNotRunningIsNoop(t *testing.T) {
    campaign := testCampaign(1, 5)
    campaign.Status = model.CampaignStatusDraft
    f := newLifecycleFixture(campaign)
    f.addTargets(1, 3)

    res, err := f.svc.Tick(context.Background(), 1, 1)
    require.NoError(t, err)
    assert.False(t, res.Dispatched)
    assert.Equal(t, service.ReasonNotRunning, res.Reason)
    assert.Equal(t, model.CampaignStatusDraft, res.Status)
    assert.False(t, res.ShouldContinue)

    // no mutation anywhere
    assert.Equal(t, 3, f.targets.statusCount(model.TargetStatusPending))
    assert.Empty(t, f.publisher.batches)
}

func TestTickOutsideWindowIsNoop(t *testing.T) {
    campaign := testCampaign(1, 5)
    campaign.DaysOfWeek = []string{"saturday"}
    f := newLifecycleFixture(campaign)
    f.addTargets(1, 3)

    res, err := f.svc.Tick(context.Background(), 1, 1)
    require.NoError(t, err)
    assert.False(t, res.Dispatched)
    assert.Equal(t, service.ReasonOutsideWindow, res.Reason)
    require.NotNil(t, res.Window)
    assert.False(t, res.Window.Within)

    // campaign stays running and nothing was claimed
    stored, _ := f.campaigns.GetByID(context.Background(), 1)
    assert.Equal(t, model.CampaignStatusRunning, stored.Status)
    assert.Equal(t, 3, f.targets.statusCount(model.TargetStatusPending))
}

func TestTickRejectsWrongOwner(t *testing.T) {
    f := newLifecycleFixture(testCampaign(1, 5))

    _, err := f.svc.Tick(context.Background(), 42, 1)
    var authz *apperrors.AuthorizationError
    assert.ErrorAs(t, err, &authz)
}

func TestTickUnknownCampaign(t *testing.T) {
    f := newLifecycleFixture(testCampaign(1, 5))

    _, err := f.svc.Tick(context.Background(), 1, 99)
    assert.True(t, apperrors.IsNotFound(err))
}

func TestTickDispatchesBatch(t *testing.T) {
    f := newLifecycleFixture(testCampaign(1, 5))
    f.addTargets(1, 12)

    res, err := f.svc.Tick(context.Background(), 1, 1)
    require.NoError(t, err)
    assert.True(t, res.Dispatched)
    assert.Equal(t, service.ReasonQueued, res.Reason)
    assert.True(t, res.ShouldContinue)
    require.Len(t, res.TargetsToCall, 5)
    require.NotNil(t, res.GeneratedScript)
    assert.Equal(t, "hello", *res.GeneratedScript)

    require.Len(t, f.publisher.batches, 1)
    assert.Len(t, f.publisher.batches[0].Targets, 5)
}

func TestTickDrainsCampaignThenCompletes(t *testing.T) {
    f := newLifecycleFixture(testCampaign(1, 5))
    f.addTargets(1, 12)

    // ticks 1 and 2 claim 5 each, tick 3 the remaining 2
    for _, want := range []int{5, 5, 2} {
        res, err := f.svc.Tick(context.Background(), 1, 1)
        require.NoError(t, err)
        assert.True(t, res.Dispatched)
        assert.Len(t, res.TargetsToCall, want)
    }

    // pending exhausted: the next tick completes the campaign
    res, err := f.svc.Tick(context.Background(), 1, 1)
    require.NoError(t, err)
    assert.False(t, res.Dispatched)
    assert.Equal(t, service.ReasonCompleted, res.Reason)
    assert.False(t, res.ShouldContinue)

    stored, _ := f.campaigns.GetByID(context.Background(), 1)
    assert.Equal(t, model.CampaignStatusCompleted, stored.Status)
    require.NotNil(t, stored.CompletedAt)
    firstStamp := *stored.CompletedAt

    // a further tick is an idempotent no-op
    f.clock.Advance(time.Minute)
    res, err = f.svc.Tick(context.Background(), 1, 1)
    require.NoError(t, err)
    assert.Equal(t, service.ReasonNotRunning, res.Reason)

    stored, _ = f.campaigns.GetByID(context.Background(), 1)
    assert.Equal(t, firstStamp, *stored.CompletedAt, "completed_at is stamped exactly once")
    assert.Equal(t, 1, f.campaigns.completedCalls)
}

func TestOverlappingTickIsRejected(t *testing.T) {
    f := newLifecycleFixture(testCampaign(1, 5))
    f.addTargets(1, 8)

    // an in-flight tick holds the campaign lease
    release, acquired, err := f.locker.TryAcquire(context.Background(), 1)
    require.NoError(t, err)
    require.True(t, acquired)

    _, err = f.svc.Tick(context.Background(), 1, 1)
    assert.ErrorIs(t, err, apperrors.ErrTickInProgress)
    assert.Equal(t, 0, f.targets.statusCount(model.TargetStatusCalling),
        "a rejected tick claims nothing")

    release()

    res, err := f.svc.Tick(context.Background(), 1, 1)
    require.NoError(t, err)
    assert.True(t, res.Dispatched)
    assert.Equal(t, 5, f.targets.statusCount(model.TargetStatusCalling),
        "one tick never claims past the rate limit")
}

func TestConcurrentCompletionHappensOnce(t *testing.T) {
    f := newLifecycleFixture(testCampaign(1, 5))
    // no targets: first serialized tick completes, the other observes
    // not_running or loses the lease

    var wg sync.WaitGroup
    for i := 0; i < 4; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            _, _ = f.svc.Tick(context.Background(), 1, 1)
        }()
    }
    wg.Wait()

    assert.Equal(t, 1, f.campaigns.completedCalls)
}

func TestTickPublishFailureSurfacesError(t *testing.T) {
    f := newLifecycleFixture(testCampaign(1, 5))
    f.addTargets(1, 3)
    f.publisher.err = assert.AnError

    _, err := f.svc.Tick(context.Background(), 1, 1)
    require.Error(t, err)

    // already-committed claims stand; they are not rolled back
    assert.Equal(t, 3, f.targets.statusCount(model.TargetStatusCalling))
}
