// Package narrative calls an external text-generation service to produce a
// preliminary forensic analysis from a structured prompt. The gateway never
// fails the caller: every error is converted to a placeholder the document
// renders instead, and an unconfigured service is simply reported as absent.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"forensia/internal/config"
	"forensia/pkg/logger"
)

// Placeholders rendered when the service was invoked but produced no usable
// text. They are deliberately distinct from the compiler's unconfigured
// notice so readers can tell a failed attempt from a disabled feature.
const (
	PlaceholderUnreachable = "The automated analysis service could not be reached."
	PlaceholderBlocked     = "The analysis could not be generated due to content safety policies."
)

// PlaceholderError formats the service-reported failure for inline display.
func PlaceholderError(msg string) string {
	return fmt.Sprintf("Analysis could not be generated: %s", msg)
}

type Gateway struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// New builds a gateway from configuration. The HTTP client carries a bounded
// timeout so a stalled upstream cannot hold report generation indefinitely.
func New(cfg config.Narrative) *Gateway {
	return &Gateway{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether a service credential is configured.
func (g *Gateway) Enabled() bool {
	return g.apiKey != ""
}

type generateRequest struct {
	Contents       []content       `json:"contents"`
	SafetySettings []safetySetting `json:"safetySettings"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate performs a single attempt against the service and returns the
// narrative text. ok is false only when no service is configured; every
// failure after an attempt yields ok=true with placeholder text, so the
// document renders a clearly labeled failure instead of silently omitting
// the section.
func (g *Gateway) Generate(ctx context.Context, prompt string) (text string, ok bool) {
	if !g.Enabled() {
		logger.Debug("Narrative service not configured, skipping")
		return "", false
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		SafetySettings: []safetySetting{
			{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_ONLY_HIGH"},
			{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_ONLY_HIGH"},
			{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_ONLY_HIGH"},
			{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_ONLY_HIGH"},
		},
	})
	if err != nil {
		logger.Error("Failed to encode narrative request", "err", err)
		return PlaceholderUnreachable, true
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		logger.Error("Failed to build narrative request", "err", err)
		return PlaceholderUnreachable, true
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		logger.Error("Narrative service unreachable", "err", err)
		return PlaceholderUnreachable, true
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("Failed to read narrative response", "err", err)
		return PlaceholderUnreachable, true
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		logger.Error("Malformed narrative response", "err", err)
		return PlaceholderUnreachable, true
	}

	if resp.StatusCode != http.StatusOK {
		msg := "no response from the analysis service"
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		logger.Error("Narrative service returned an error", "status", resp.StatusCode, "msg", msg)
		return PlaceholderError(msg), true
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		// The usual cause is a safety block on the generated content.
		logger.Warn("Narrative service returned no candidates")
		return PlaceholderBlocked, true
	}

	return parsed.Candidates[0].Content.Parts[0].Text, true
}
