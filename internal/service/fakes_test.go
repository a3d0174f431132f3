package service_test

import (
    "context"
    "errors"
    "fmt"
    "sort"
    "sync"
    "time"

    "github.com/callforge/dialer-backend/internal/apperrors"
    "github.com/callforge/dialer-backend/internal/model"
    "github.com/callforge/dialer-backend/internal/queue"
    "github.com/callforge/dialer-backend/internal/script"
)

// In-memory fakes shared by the service tests.

type fakeTargetRepo struct {
    mu      sync.Mutex
    nextID  int
    targets map[int]*model.Target

    // claim calls for these IDs report a lost race
    loseRace map[int]bool

    failWith error
}

func newFakeTargetRepo() *fakeTargetRepo {
    return &fakeTargetRepo{
        targets:  make(map[int]*model.Target),
        loseRace: make(map[int]bool),
    }
}

func (f *fakeTargetRepo) add(campaignID int, createdAt time.Time) *model.Target {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.nextID++
    t := &model.Target{
        ID:          f.nextID,
        CampaignID:  campaignID,
        PhoneNumber: fmt.Sprintf("+1212555%04d", f.nextID),
        ContactName: "Contact",
        Status:      model.TargetStatusPending,
        CreatedAt:   createdAt,
    }
    f.targets[t.ID] = t
    return t
}

func (f *fakeTargetRepo) CreateBatch(_ context.Context, campaignID int, targets []model.Target) error {
    for range targets {
        f.add(campaignID, time.Now())
    }
    return nil
}

func (f *fakeTargetRepo) GetByID(_ context.Context, id int) (*model.Target, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    t, ok := f.targets[id]
    if !ok {
        return nil, errors.New("target not found")
    }
    copied := *t
    return &copied, nil
}

func (f *fakeTargetRepo) ListPending(_ context.Context, campaignID, limit int) ([]*model.Target, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.failWith != nil {
        return nil, f.failWith
    }

    pending := []*model.Target{}
    for _, t := range f.targets {
        if t.CampaignID == campaignID && t.Status == model.TargetStatusPending {
            copied := *t
            pending = append(pending, &copied)
        }
    }
    sort.Slice(pending, func(i, j int) bool {
        if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
            return pending[i].CreatedAt.Before(pending[j].CreatedAt)
        }
        return pending[i].ID < pending[j].ID
    })
    if len(pending) > limit {
        pending = pending[:limit]
    }
    return pending, nil
}

func (f *fakeTargetRepo) Claim(_ context.Context, targetID int, at time.Time) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.failWith != nil {
        return false, f.failWith
    }
    if f.loseRace[targetID] {
        return false, nil
    }
    t, ok := f.targets[targetID]
    if !ok || t.Status != model.TargetStatusPending {
        return false, nil
    }
    t.Status = model.TargetStatusCalling
    t.AttemptCount++
    stamp := at
    t.LastAttemptAt = &stamp
    return true, nil
}

func (f *fakeTargetRepo) SetOutcome(_ context.Context, targetID int, status string) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    t, ok := f.targets[targetID]
    if !ok || t.Status != model.TargetStatusCalling {
        return false, nil
    }
    t.Status = status
    return true, nil
}

func (f *fakeTargetRepo) CountPending(_ context.Context, campaignID int) (int, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    count := 0
    for _, t := range f.targets {
        if t.CampaignID == campaignID && t.Status == model.TargetStatusPending {
            count++
        }
    }
    return count, nil
}

func (f *fakeTargetRepo) CountByStatus(_ context.Context, campaignID int) (map[string]int, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    stats := map[string]int{
        model.TargetStatusPending:   0,
        model.TargetStatusCalling:   0,
        model.TargetStatusCompleted: 0,
        model.TargetStatusFailed:    0,
    }
    for _, t := range f.targets {
        if t.CampaignID == campaignID {
            stats[t.Status]++
        }
    }
    return stats, nil
}

func (f *fakeTargetRepo) statusCount(status string) int {
    f.mu.Lock()
    defer f.mu.Unlock()
    count := 0
    for _, t := range f.targets {
        if t.Status == status {
            count++
        }
    }
    return count
}

type fakeCampaignRepo struct {
    mu        sync.Mutex
    campaigns map[int]*model.Campaign

    completedCalls int
}

func newFakeCampaignRepo(campaigns ...*model.Campaign) *fakeCampaignRepo {
    repo := &fakeCampaignRepo{campaigns: make(map[int]*model.Campaign)}
    for _, c := range campaigns {
        repo.campaigns[c.ID] = c
    }
    return repo
}

func (f *fakeCampaignRepo) Create(_ context.Context, c *model.Campaign) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    c.ID = len(f.campaigns) + 1
    c.CreatedAt = time.Now()
    f.campaigns[c.ID] = c
    return nil
}

func (f *fakeCampaignRepo) GetByID(_ context.Context, id int) (*model.Campaign, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    c, ok := f.campaigns[id]
    if !ok {
        return nil, apperrors.NewCampaignNotFound(id)
    }
    copied := *c
    return &copied, nil
}

func (f *fakeCampaignRepo) ListByOwner(_ context.Context, ownerID, offset, limit int, status string) ([]*model.Campaign, int, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    all := []*model.Campaign{}
    for _, c := range f.campaigns {
        if c.OwnerID != ownerID {
            continue
        }
        if status != "" && c.Status != status {
            continue
        }
        copied := *c
        all = append(all, &copied)
    }
    sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

    total := len(all)
    if offset >= total {
        return []*model.Campaign{}, total, nil
    }
    end := offset + limit
    if end > total {
        end = total
    }
    return all[offset:end], total, nil
}

func (f *fakeCampaignRepo) UpdateStatus(_ context.Context, campaignID int, status string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    c, ok := f.campaigns[campaignID]
    if !ok {
        return apperrors.NewCampaignNotFound(campaignID)
    }
    c.Status = status
    return nil
}

func (f *fakeCampaignRepo) MarkCompleted(_ context.Context, campaignID int, at time.Time) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    c, ok := f.campaigns[campaignID]
    if !ok {
        return false, apperrors.NewCampaignNotFound(campaignID)
    }
    if c.Status != model.CampaignStatusRunning || c.CompletedAt != nil {
        return false, nil
    }
    c.Status = model.CampaignStatusCompleted
    stamp := at
    c.CompletedAt = &stamp
    f.completedCalls++
    return true, nil
}

type fakePublisher struct {
    mu       sync.Mutex
    batches  []*model.DispatchBatch
    testJobs []queue.DialJob
    err      error
}

func (f *fakePublisher) PublishBatch(batch *model.DispatchBatch) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.err != nil {
        return f.err
    }
    f.batches = append(f.batches, batch)
    return nil
}

func (f *fakePublisher) PublishTestDial(job queue.DialJob) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.err != nil {
        return f.err
    }
    f.testJobs = append(f.testJobs, job)
    return nil
}

type fakeGenerator struct {
    script string
    err    error
    calls  int
}

func (f *fakeGenerator) Generate(_ context.Context, _ script.Request) (string, error) {
    f.calls++
    if f.err != nil {
        return "", f.err
    }
    return f.script, nil
}

type fakeTestDispatchRepo struct {
    mu      sync.Mutex
    records []struct {
        ownerID int
        at      time.Time
    }
}

func (f *fakeTestDispatchRepo) Record(_ context.Context, ownerID int, at time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.records = append(f.records, struct {
        ownerID int
        at      time.Time
    }{ownerID, at})
    return nil
}

func (f *fakeTestDispatchRepo) CountSince(_ context.Context, ownerID int, since time.Time) (int, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    count := 0
    for _, r := range f.records {
        if r.ownerID == ownerID && !r.at.Before(since) {
            count++
        }
    }
    return count, nil
}

func (f *fakeTestDispatchRepo) OldestSince(_ context.Context, ownerID int, since time.Time) (*time.Time, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var oldest *time.Time
    for _, r := range f.records {
        if r.ownerID != ownerID || r.at.Before(since) {
            continue
        }
        at := r.at
        if oldest == nil || at.Before(*oldest) {
            oldest = &at
        }
    }
    return oldest, nil
}
