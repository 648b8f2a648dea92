// Package llm implements the text generation providers behind the
// gateway.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"parish_server/core/port/out"
	"parish_server/pkg/apperr"
	"parish_server/pkg/logger"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiAdapter calls the Gemini REST API directly.
type GeminiAdapter struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

var _ out.TextGenerator = (*GeminiAdapter)(nil)

func NewGemini(apiKey, model string) *GeminiAdapter {
	return &GeminiAdapter{
		apiKey:  apiKey,
		model:   model,
		baseURL: geminiBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
		log:     logger.WithField("component", "gemini"),
	}
}

func (a *GeminiAdapter) Name() string { return "gemini" }

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateContent posts the prompt and returns the first candidate text.
// A well-formed response without usable candidates yields ("", nil).
func (a *GeminiAdapter) GenerateContent(ctx context.Context, prompt string, opts out.GenerationOptions) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxOutputTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", apperr.ProviderError("gemini", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", a.baseURL, a.model, a.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", apperr.ProviderError("gemini", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", apperr.ProviderError("gemini", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.ProviderError("gemini", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperr.ProviderError("gemini",
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), 200))).
			WithDetail("status_code", resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		a.log.WithError(err).Warn("unparseable response body")
		return "", nil
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		a.log.Warn("response without candidates")
		return "", nil
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
