// internal/controller/campaign_controller.go
package controller

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"

    "github.com/go-chi/chi/v5"
    "go.uber.org/zap"

    "github.com/callforge/dialer-backend/internal/apperrors"
    "github.com/callforge/dialer-backend/internal/service"
)

// CampaignController exposes the engine operations: the per-campaign
// tick and the rate-limited test call. The caller identity arrives on
// X-Owner-ID; the auth exchange itself is an external collaborator.
type CampaignController struct {
    Lifecycle       *service.LifecycleService
    CampaignService *service.CampaignService
    Logger          *zap.Logger
}

func (c *CampaignController) Tick(w http.ResponseWriter, r *http.Request) {
    campaignID, ok := campaignIDParam(w, r)
    if !ok {
        return
    }
    ownerID, ok := ownerIDHeader(w, r)
    if !ok {
        return
    }

    result, err := c.Lifecycle.Tick(r.Context(), ownerID, campaignID)
    if err != nil {
        c.writeError(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(result)
}

func (c *CampaignController) TestCall(w http.ResponseWriter, r *http.Request) {
    campaignID, ok := campaignIDParam(w, r)
    if !ok {
        return
    }
    ownerID, ok := ownerIDHeader(w, r)
    if !ok {
        return
    }

    var body struct {
        PhoneNumber string `json:"phone_number"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    err := c.CampaignService.TestCall(r.Context(), ownerID, campaignID, body.PhoneNumber)
    if err != nil {
        var rl *apperrors.RateLimitError
        if errors.As(err, &rl) {
            w.Header().Set("Retry-After", strconv.Itoa(int(rl.RetryAfter.Seconds())))
            w.Header().Set("Content-Type", "application/json")
            w.WriteHeader(http.StatusTooManyRequests)
            json.NewEncoder(w).Encode(map[string]interface{}{
                "error":               "test call limit reached",
                "retry_after_seconds": int(rl.RetryAfter.Seconds()),
            })
            return
        }
        c.writeError(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "queued":       true,
        "phone_number": body.PhoneNumber,
    })
}

func (c *CampaignController) writeError(w http.ResponseWriter, err error) {
    status := apperrors.HTTPStatus(err)
    if status >= http.StatusInternalServerError {
        c.Logger.Error("request failed", zap.Error(err))
    }
    http.Error(w, err.Error(), status)
}

func campaignIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
    id, err := strconv.Atoi(chi.URLParam(r, "id"))
    if err != nil {
        http.Error(w, "invalid campaign id", http.StatusBadRequest)
        return 0, false
    }
    return id, true
}

func ownerIDHeader(w http.ResponseWriter, r *http.Request) (int, bool) {
    ownerID, err := strconv.Atoi(r.Header.Get("X-Owner-ID"))
    if err != nil {
        http.Error(w, "missing or invalid X-Owner-ID header", http.StatusUnauthorized)
        return 0, false
    }
    return ownerID, true
}
