// internal/apperrors/http.go
package apperrors

import (
    "errors"
    "net/http"
)

// HTTPStatus maps the error taxonomy onto response codes.
func HTTPStatus(err error) int {
    var (
        validation *ValidationError
        authz      *AuthorizationError
        notFound   *NotFoundError
        rateLimit  *RateLimitError
        transient  *TransientStoreError
    )
    switch {
    case errors.As(err, &validation):
        return http.StatusBadRequest
    case errors.As(err, &authz):
        return http.StatusForbidden
    case errors.As(err, &notFound):
        return http.StatusNotFound
    case errors.Is(err, ErrTickInProgress):
        return http.StatusConflict
    case errors.As(err, &rateLimit):
        return http.StatusTooManyRequests
    case errors.As(err, &transient):
        return http.StatusServiceUnavailable
    default:
        return http.StatusInternalServerError
    }
}
