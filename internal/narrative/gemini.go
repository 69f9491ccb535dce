// Package narrative generates the executive summary for a set of campaign
// stats. The hosted model is an optional collaborator: every failure mode
// collapses into ErrUnavailable so callers can degrade to numeric-only output.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/manojkp08/adpulse/internal/models"
	"github.com/manojkp08/adpulse/internal/report"
)

// ErrUnavailable signals that no narrative could be produced. It wraps the
// underlying cause (missing key, timeout, non-2xx, empty response).
var ErrUnavailable = errors.New("narrative service unavailable")

// Generator produces a short executive narrative for one analysis run.
type Generator interface {
	Generate(ctx context.Context, stats *models.AggregateStats) (string, error)
}

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash"
	temperature    = 0.5
	maxAttempts    = 3
	retryBase      = 200 * time.Millisecond
)

const promptTemplate = `You are a Senior Data Analyst at a top AdTech firm.
Write a concise, 3-paragraph executive summary for the Marketing Director based on the following weekly performance data.

KEY METRICS:
%s

CONTEXT:
The highest performing platform is %s.

INSTRUCTIONS:
1. Start with an overall performance assessment.
2. Highlight the 'Top Campaign' and why it succeeded.
3. Provide one actionable recommendation for next week to lower the CPA.

Keep the tone professional, objective, and action-oriented.`

// GeminiConfig configures the hosted-model client. The API key is supplied
// explicitly by the caller; the client never reads ambient state.
type GeminiConfig struct {
	APIKey  string
	BaseURL string // override for tests; defaults to the Google endpoint
	Model   string
	Timeout time.Duration
}

// GeminiClient talks to the generateContent endpoint over plain HTTP.
type GeminiClient struct {
	apiKey  string
	baseURL string
	model   string
	httpc   *http.Client
}

// NewGemini builds a client. An empty API key is allowed and makes every
// Generate call report unavailability without touching the network.
func NewGemini(cfg GeminiConfig) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &GeminiClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		httpc:   &http.Client{Timeout: cfg.Timeout},
	}
}

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
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate renders the analyst prompt from the formatted metrics and asks
// the model for the three-paragraph summary. Transient HTTP failures are
// retried with exponential backoff before the call is declared unavailable.
func (c *GeminiClient) Generate(ctx context.Context, stats *models.AggregateStats) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: missing API key", ErrUnavailable)
	}

	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: c.prompt(stats)}}}},
		GenerationConfig: geminiGenConfig{Temperature: temperature},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	var text string
	err = retry(ctx, maxAttempts, retryBase, func() error {
		t, callErr := c.call(ctx, url, body)
		if callErr != nil {
			return callErr
		}
		text = t
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return text, nil
}

func (c *GeminiClient) call(ctx context.Context, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("non-2xx: %d body=%s", resp.StatusCode, string(b))
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("decode response: %v", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty response: no candidates")
	}

	var sb strings.Builder
	for _, part := range gr.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("empty response: no text parts")
	}
	return text, nil
}

// prompt feeds the model display-formatted metrics, not raw floats, so the
// summary quotes the same figures the report table shows.
func (c *GeminiClient) prompt(stats *models.AggregateStats) string {
	var sb strings.Builder
	for _, f := range report.Fields(stats, language.English) {
		fmt.Fprintf(&sb, "- %s: %s\n", f.Label, f.Value)
	}
	return fmt.Sprintf(promptTemplate, strings.TrimRight(sb.String(), "\n"), stats.BestPlatform)
}

// retry runs fn up to attempts times with exponential backoff, honoring
// context cancellation between attempts.
func retry(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(1<<i) * base):
		}
	}
	return err
}
