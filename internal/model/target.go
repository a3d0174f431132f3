// internal/model/target.go
package model

import "time"

// Target statuses. The engine only ever moves pending -> calling;
// the call-outcome path moves calling -> completed or failed.
const (
    TargetStatusPending   = "pending"
    TargetStatusCalling   = "calling"
    TargetStatusCompleted = "completed"
    TargetStatusFailed    = "failed"
)

type Target struct {
    ID            int        `db:"id" json:"id"`
    CampaignID    int        `db:"campaign_id" json:"campaign_id"`
    PhoneNumber   string     `db:"phone_number" json:"phone_number"`
    ContactName   string     `db:"contact_name" json:"contact_name"`
    Status        string     `db:"status" json:"status"`
    AttemptCount  int        `db:"attempt_count" json:"attempt_count"`
    LastAttemptAt *time.Time `db:"last_attempt_at" json:"last_attempt_at,omitempty"`
    CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
