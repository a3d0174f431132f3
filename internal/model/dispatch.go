// internal/model/dispatch.go
package model

import (
    "time"

    "github.com/google/uuid"
)

// DispatchBatch is the set of targets claimed in one tick. It is handed
// to the telephony queue and never persisted by the engine.
type DispatchBatch struct {
    ID            uuid.UUID `json:"batch_id"`
    CampaignID    int       `json:"campaign_id"`
    Targets       []Target  `json:"targets"`
    Script        string    `json:"script,omitempty"`
    ScriptWarning string    `json:"script_warning,omitempty"`
    ClaimedAt     time.Time `json:"claimed_at"`
}

func (b *DispatchBatch) Empty() bool { return len(b.Targets) == 0 }

// TestDispatch is a lightweight fact used only by the test-call rate
// limiter's rolling count.
type TestDispatch struct {
    ID        int       `db:"id" json:"id"`
    OwnerID   int       `db:"owner_id" json:"owner_id"`
    IsTest    bool      `db:"is_test" json:"is_test"`
    CreatedAt time.Time `db:"created_at" json:"created_at"`
}
