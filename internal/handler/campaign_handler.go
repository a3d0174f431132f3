// internal/handler/campaign_handler.go
package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "strconv"

    "github.com/go-chi/chi/v5"

    "github.com/callforge/dialer-backend/internal/apperrors"
    "github.com/callforge/dialer-backend/internal/model"
    "github.com/callforge/dialer-backend/internal/service"
)

// CampaignHandler holds the dependencies for campaign CRUD and progress
type CampaignHandler struct {
    Service *service.CampaignService
}

func NewCampaignHandler(svc *service.CampaignService) *CampaignHandler {
    return &CampaignHandler{Service: svc}
}

// CreateCampaignHandler handles creating a new campaign
func (h *CampaignHandler) CreateCampaignHandler(w http.ResponseWriter, r *http.Request) {
    ownerID, ok := ownerID(w, r)
    if !ok {
        return
    }

    var payload struct {
        Name               string   `json:"name"`
        Type               string   `json:"type"`
        Purpose            string   `json:"purpose"`
        PurposeDetails     string   `json:"purpose_details"`
        ScriptStyle        string   `json:"script_style"`
        ExtraInstructions  string   `json:"extra_instructions"`
        Timezone           string   `json:"timezone"`
        StartTime          string   `json:"start_time"`
        EndTime            string   `json:"end_time"`
        DaysOfWeek         []string `json:"days_of_week"`
        RateLimitPerMinute int      `json:"rate_limit_per_minute"`
    }
    if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
        http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
        return
    }

    campaign := &model.Campaign{
        OwnerID:            ownerID,
        Name:               payload.Name,
        Type:               payload.Type,
        Purpose:            payload.Purpose,
        PurposeDetails:     payload.PurposeDetails,
        ScriptStyle:        payload.ScriptStyle,
        ExtraInstructions:  payload.ExtraInstructions,
        Timezone:           payload.Timezone,
        StartTime:          payload.StartTime,
        EndTime:            payload.EndTime,
        DaysOfWeek:         payload.DaysOfWeek,
        RateLimitPerMinute: payload.RateLimitPerMinute,
    }

    created, err := h.Service.CreateCampaign(r.Context(), campaign)
    if err != nil {
        writeError(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusCreated)
    json.NewEncoder(w).Encode(created)
}

// ListCampaignsHandler returns a paginated list of the owner's campaigns
func (h *CampaignHandler) ListCampaignsHandler(w http.ResponseWriter, r *http.Request) {
    ownerID, ok := ownerID(w, r)
    if !ok {
        return
    }

    page := 1
    pageSize := 10
    if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
        page = p
    }
    if ps, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && ps > 0 {
        pageSize = ps
    }
    status := r.URL.Query().Get("status")

    campaigns, pagination, err := h.Service.ListCampaigns(r.Context(), ownerID, page, pageSize, status)
    if err != nil {
        writeError(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "data":       campaigns,
        "pagination": pagination,
    })
}

// GetCampaignHandler returns a campaign with progress counts and the
// current window diagnostic
func (h *CampaignHandler) GetCampaignHandler(w http.ResponseWriter, r *http.Request) {
    ownerID, ok := ownerID(w, r)
    if !ok {
        return
    }
    id, ok := campaignID(w, r)
    if !ok {
        return
    }

    details, err := h.Service.GetCampaignDetails(r.Context(), ownerID, id)
    if err != nil {
        writeError(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(details)
}

// AddTargetsHandler bulk-attaches targets to a campaign
func (h *CampaignHandler) AddTargetsHandler(w http.ResponseWriter, r *http.Request) {
    ownerID, ok := ownerID(w, r)
    if !ok {
        return
    }
    id, ok := campaignID(w, r)
    if !ok {
        return
    }

    var body struct {
        Targets []service.TargetInput `json:"targets"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
        return
    }

    targets, err := h.Service.AddTargets(r.Context(), ownerID, id, body.Targets)
    if err != nil {
        writeError(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusCreated)
    json.NewEncoder(w).Encode(map[string]interface{}{
        "added": len(targets),
    })
}

// StartCampaignHandler moves a campaign to running
func (h *CampaignHandler) StartCampaignHandler(w http.ResponseWriter, r *http.Request) {
    h.transition(w, r, h.Service.StartCampaign, model.CampaignStatusRunning)
}

// PauseCampaignHandler moves a campaign to paused
func (h *CampaignHandler) PauseCampaignHandler(w http.ResponseWriter, r *http.Request) {
    h.transition(w, r, h.Service.PauseCampaign, model.CampaignStatusPaused)
}

func (h *CampaignHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, ownerID, campaignID int) error, newStatus string) {
    owner, ok := ownerID(w, r)
    if !ok {
        return
    }
    id, ok := campaignID(w, r)
    if !ok {
        return
    }

    if err := fn(r.Context(), owner, id); err != nil {
        writeError(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "id":     id,
        "status": newStatus,
    })
}

func writeError(w http.ResponseWriter, err error) {
    http.Error(w, err.Error(), apperrors.HTTPStatus(err))
}

func ownerID(w http.ResponseWriter, r *http.Request) (int, bool) {
    id, err := strconv.Atoi(r.Header.Get("X-Owner-ID"))
    if err != nil {
        http.Error(w, "missing or invalid X-Owner-ID header", http.StatusUnauthorized)
        return 0, false
    }
    return id, true
}

func campaignID(w http.ResponseWriter, r *http.Request) (int, bool) {
    id, err := strconv.Atoi(chi.URLParam(r, "id"))
    if err != nil {
        http.Error(w, "invalid campaign id", http.StatusBadRequest)
        return 0, false
    }
    return id, true
}
