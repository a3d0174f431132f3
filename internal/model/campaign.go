// internal/model/campaign.go
package model

import "time"

// Campaign statuses
const (
    CampaignStatusDraft     = "draft"
    CampaignStatusRunning   = "running"
    CampaignStatusPaused    = "paused"
    CampaignStatusCompleted = "completed"
)

type Campaign struct {
    ID                 int        `db:"id" json:"id"`
    OwnerID            int        `db:"owner_id" json:"owner_id"`
    Name               string     `db:"name" json:"name"`
    Type               string     `db:"type" json:"type"`
    Purpose            string     `db:"purpose" json:"purpose"`
    PurposeDetails     string     `db:"purpose_details" json:"purpose_details,omitempty"`
    ScriptStyle        string     `db:"script_style" json:"script_style,omitempty"`
    ExtraInstructions  string     `db:"extra_instructions" json:"extra_instructions,omitempty"`
    Timezone           string     `db:"timezone" json:"timezone"`
    StartTime          string     `db:"start_time" json:"start_time"` // local HH:MM
    EndTime            string     `db:"end_time" json:"end_time"`     // local HH:MM
    DaysOfWeek         []string   `db:"days_of_week" json:"days_of_week"`
    RateLimitPerMinute int        `db:"rate_limit_per_minute" json:"rate_limit_per_minute"`
    Status             string     `db:"status" json:"status"`
    CompletedAt        *time.Time `db:"completed_at" json:"completed_at,omitempty"`
    CreatedAt          time.Time  `db:"created_at" json:"created_at"`
    UpdatedAt          *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
