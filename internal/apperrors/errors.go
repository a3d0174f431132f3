// internal/apperrors/errors.go
package apperrors

import (
    "errors"
    "fmt"
    "time"
)

// ValidationError signals malformed input (window config, campaign
// fields). Nothing is mutated when it is returned.
type ValidationError struct {
    Field string
    Msg   string
}

func (e *ValidationError) Error() string {
    if e.Field == "" {
        return e.Msg
    }
    return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func NewValidation(field, msg string) error {
    return &ValidationError{Field: field, Msg: msg}
}

// AuthorizationError signals the caller does not own the campaign.
type AuthorizationError struct {
    CampaignID int
    OwnerID    int
}

func (e *AuthorizationError) Error() string {
    return fmt.Sprintf("campaign %d is not owned by caller %d", e.CampaignID, e.OwnerID)
}

func NewAuthorization(campaignID, ownerID int) error {
    return &AuthorizationError{CampaignID: campaignID, OwnerID: ownerID}
}

// NotFoundError is a sentinel error for a missing campaign or target.
type NotFoundError struct {
    Kind string
    ID   int
}

func (e *NotFoundError) Error() string {
    return fmt.Sprintf("%s with ID %d not found", e.Kind, e.ID)
}

func NewCampaignNotFound(id int) error {
    return &NotFoundError{Kind: "campaign", ID: id}
}

func NewTargetNotFound(id int) error {
    return &NotFoundError{Kind: "target", ID: id}
}

// TransientStoreError wraps store I/O failures (timeouts,
// unavailability). The current tick aborts; claims that already
// committed stand, and the next scheduled tick is the retry.
type TransientStoreError struct {
    Op  string
    Err error
}

func (e *TransientStoreError) Error() string {
    return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error { return e.Err }

func NewTransientStore(op string, err error) error {
    return &TransientStoreError{Op: op, Err: err}
}

// ScriptGenerationError never fails a tick; the dispatcher logs it and
// proceeds without a script.
type ScriptGenerationError struct {
    Err error
}

func (e *ScriptGenerationError) Error() string {
    return fmt.Sprintf("script generation failed: %v", e.Err)
}

func (e *ScriptGenerationError) Unwrap() error { return e.Err }

// RateLimitError is returned by the test-call limiter when an owner has
// exhausted their hourly allowance.
type RateLimitError struct {
    RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
    return fmt.Sprintf("test call limit reached, retry after %s", e.RetryAfter.Round(time.Second))
}

// ErrTickInProgress is returned when another tick holds the campaign
// lease. The scheduler simply fires again later.
var ErrTickInProgress = errors.New("another tick is in progress for this campaign")

func IsNotFound(err error) bool {
    var nf *NotFoundError
    return errors.As(err, &nf)
}

func IsTransient(err error) bool {
    var ts *TransientStoreError
    return errors.As(err, &ts)
}
