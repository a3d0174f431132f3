// internal/script/generator.go
package script

import (
    "context"
    "strings"

    "github.com/callforge/dialer-backend/internal/model"
)

// Request carries the campaign fields that shape a call script. The
// script depends on campaign purpose, not per-target data, so one
// generation serves a whole dispatch batch.
type Request struct {
    Purpose           string
    PurposeDetails    string
    ExtraInstructions string
    Style             string
}

// Generator produces the system prompt handed to the voice agent.
// Implementations may fail; the dispatcher degrades to a scriptless
// batch when they do.
type Generator interface {
    Generate(ctx context.Context, req Request) (string, error)
}

func RequestFor(c *model.Campaign) Request {
    return Request{
        Purpose:           c.Purpose,
        PurposeDetails:    c.PurposeDetails,
        ExtraInstructions: c.ExtraInstructions,
        Style:             c.ScriptStyle,
    }
}

// styleTemplates maps script styles to prompt templates. Resolved once
// at startup; unknown styles fall back to "neutral".
var styleTemplates = map[string]string{
    "neutral":      "You are a polite phone agent. Purpose of this call: {purpose}. {details} {extra}",
    "friendly":     "You are a warm, upbeat phone agent. Purpose of this call: {purpose}. {details} Keep it conversational. {extra}",
    "professional": "You are a concise, professional phone agent. Purpose of this call: {purpose}. {details} Stay on topic. {extra}",
}

// TemplateGenerator renders a static style template. It is the default
// generator and the offline fallback when no gateway is configured.
type TemplateGenerator struct{}

func (TemplateGenerator) Generate(_ context.Context, req Request) (string, error) {
    tmpl, ok := styleTemplates[req.Style]
    if !ok {
        tmpl = styleTemplates["neutral"]
    }

    out := tmpl
    out = strings.ReplaceAll(out, "{purpose}", orUnknown(req.Purpose))
    out = strings.ReplaceAll(out, "{details}", req.PurposeDetails)
    out = strings.ReplaceAll(out, "{extra}", req.ExtraInstructions)
    return strings.TrimSpace(strings.Join(strings.Fields(out), " ")), nil
}

func orUnknown(s string) string {
    if strings.TrimSpace(s) == "" {
        return "<unknown>"
    }
    return s
}

var _ Generator = TemplateGenerator{}
