package repository

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/lib/pq"

    "github.com/callforge/dialer-backend/internal/apperrors"
    "github.com/callforge/dialer-backend/internal/model"
)

type CampaignRepositoryInterface interface {
    Create(ctx context.Context, c *model.Campaign) error
    GetByID(ctx context.Context, id int) (*model.Campaign, error)
    ListByOwner(ctx context.Context, ownerID, offset, limit int, status string) ([]*model.Campaign, int, error)
    UpdateStatus(ctx context.Context, campaignID int, status string) error
    MarkCompleted(ctx context.Context, campaignID int, at time.Time) (bool, error)
}

type CampaignRepository struct {
    DB *sql.DB
}

const campaignColumns = `id, owner_id, name, type, purpose, purpose_details, script_style,
    extra_instructions, timezone, start_time, end_time, days_of_week,
    rate_limit_per_minute, status, completed_at, created_at, updated_at`

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
    c.CreatedAt = time.Now()
    if c.Status == "" {
        c.Status = model.CampaignStatusDraft
    }
    query := `
        INSERT INTO campaigns (owner_id, name, type, purpose, purpose_details, script_style,
            extra_instructions, timezone, start_time, end_time, days_of_week,
            rate_limit_per_minute, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING id
    `
    err := r.DB.QueryRowContext(ctx, query,
        c.OwnerID, c.Name, c.Type, c.Purpose, c.PurposeDetails, c.ScriptStyle,
        c.ExtraInstructions, c.Timezone, c.StartTime, c.EndTime, pq.Array(c.DaysOfWeek),
        c.RateLimitPerMinute, c.Status, c.CreatedAt,
    ).Scan(&c.ID)
    if err != nil {
        return apperrors.NewTransientStore("create campaign", err)
    }
    return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
    query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE id=$1`, campaignColumns)

    var c model.Campaign
    err := r.DB.QueryRowContext(ctx, query, id).Scan(
        &c.ID, &c.OwnerID, &c.Name, &c.Type, &c.Purpose, &c.PurposeDetails, &c.ScriptStyle,
        &c.ExtraInstructions, &c.Timezone, &c.StartTime, &c.EndTime, pq.Array(&c.DaysOfWeek),
        &c.RateLimitPerMinute, &c.Status, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
    )
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, apperrors.NewCampaignNotFound(id)
        }
        return nil, apperrors.NewTransientStore("get campaign", err)
    }
    return &c, nil
}

func (r *CampaignRepository) ListByOwner(ctx context.Context, ownerID, offset, limit int, status string) ([]*model.Campaign, int, error) {
    campaigns := []*model.Campaign{}
    query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE owner_id=$1`, campaignColumns)
    args := []interface{}{ownerID}
    argPos := 2

    if status != "" {
        query += fmt.Sprintf(" AND status=$%d", argPos)
        args = append(args, status)
        argPos++
    }

    query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
    args = append(args, limit, offset)

    rows, err := r.DB.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, 0, apperrors.NewTransientStore("list campaigns", err)
    }
    defer rows.Close()

    for rows.Next() {
        c := &model.Campaign{}
        if err := rows.Scan(
            &c.ID, &c.OwnerID, &c.Name, &c.Type, &c.Purpose, &c.PurposeDetails, &c.ScriptStyle,
            &c.ExtraInstructions, &c.Timezone, &c.StartTime, &c.EndTime, pq.Array(&c.DaysOfWeek),
            &c.RateLimitPerMinute, &c.Status, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
        ); err != nil {
            return nil, 0, apperrors.NewTransientStore("scan campaign", err)
        }
        campaigns = append(campaigns, c)
    }

    countQuery := `SELECT COUNT(*) FROM campaigns WHERE owner_id=$1`
    countArgs := []interface{}{ownerID}
    if status != "" {
        countQuery += " AND status=$2"
        countArgs = append(countArgs, status)
    }

    var total int
    if err := r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
        return nil, 0, apperrors.NewTransientStore("count campaigns", err)
    }

    return campaigns, total, nil
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, campaignID int, status string) error {
    query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
    res, err := r.DB.ExecContext(ctx, query, status, time.Now(), campaignID)
    if err != nil {
        return apperrors.NewTransientStore("update campaign status", err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return apperrors.NewCampaignNotFound(campaignID)
    }
    return nil
}

// MarkCompleted transitions running -> completed and stamps completed_at.
// The status predicate makes it idempotent: completed_at is written once
// and never cleared, and a second caller simply gets false back.
func (r *CampaignRepository) MarkCompleted(ctx context.Context, campaignID int, at time.Time) (bool, error) {
    query := `
        UPDATE campaigns
        SET status=$1, completed_at=$2, updated_at=$2
        WHERE id=$3 AND status=$4 AND completed_at IS NULL
    `
    res, err := r.DB.ExecContext(ctx, query, model.CampaignStatusCompleted, at, campaignID, model.CampaignStatusRunning)
    if err != nil {
        return false, apperrors.NewTransientStore("complete campaign", err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, apperrors.NewTransientStore("complete campaign", err)
    }
    return n == 1, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
