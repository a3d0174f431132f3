// internal/script/gateway.go
package script

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "time"

    "github.com/hashicorp/go-retryablehttp"
    "github.com/pkg/errors"

    "github.com/callforge/dialer-backend/internal/apperrors"
)

const userAgent = "CallForge/DialerBackend-1.0"

// GatewayGenerator calls an external prompt-generation service over
// HTTP. Transport-level retries live in the retryable client; a final
// failure surfaces as a ScriptGenerationError, which the dispatcher
// treats as a degradation, not a tick failure.
type GatewayGenerator struct {
    url    string
    client *retryablehttp.Client
}

func NewGatewayGenerator(url string, timeout time.Duration) *GatewayGenerator {
    client := retryablehttp.NewClient()
    client.RetryMax = 2
    client.HTTPClient.Timeout = timeout
    client.Logger = nil

    return &GatewayGenerator{url: url, client: client}
}

type gatewayRequest struct {
    Purpose           string `json:"purpose"`
    PurposeDetails    string `json:"purpose_details,omitempty"`
    ExtraInstructions string `json:"extra_instructions,omitempty"`
    Style             string `json:"style,omitempty"`
}

type gatewayResponse struct {
    Script string `json:"script"`
}

func (g *GatewayGenerator) Generate(ctx context.Context, req Request) (string, error) {
    body, err := json.Marshal(gatewayRequest{
        Purpose:           req.Purpose,
        PurposeDetails:    req.PurposeDetails,
        ExtraInstructions: req.ExtraInstructions,
        Style:             req.Style,
    })
    if err != nil {
        return "", &apperrors.ScriptGenerationError{Err: err}
    }

    httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
    if err != nil {
        return "", &apperrors.ScriptGenerationError{Err: err}
    }
    httpReq.Header.Set("Content-Type", "application/json")
    httpReq.Header.Set("User-Agent", userAgent)

    resp, err := g.client.Do(httpReq)
    if err != nil {
        return "", &apperrors.ScriptGenerationError{Err: err}
    }
    defer resp.Body.Close()

    if resp.StatusCode != http.StatusOK {
        return "", &apperrors.ScriptGenerationError{
            Err: errors.Errorf("script gateway returned status %d", resp.StatusCode),
        }
    }

    var out gatewayResponse
    if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
        return "", &apperrors.ScriptGenerationError{Err: errors.Wrap(err, "decode gateway response")}
    }
    if out.Script == "" {
        return "", &apperrors.ScriptGenerationError{Err: fmt.Errorf("script gateway returned an empty script")}
    }
    return out.Script, nil
}

var _ Generator = (*GatewayGenerator)(nil)
