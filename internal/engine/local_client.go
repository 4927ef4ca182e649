package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"inklore/server/internal/config"
	"inklore/server/internal/interfaces"
)

const (
	maxRetries = 3
	retryDelay = 1 * time.Second
)

// localGenerator talks to a self-hosted inference server over plain HTTP.
// Unlike the chat API, the request carries the full sampling parameter set
// verbatim, including top_k and repetition_penalty.
type localGenerator struct {
	baseURL    string
	model      string
	httpClient *http.Client
	log        zerolog.Logger
}

type generateRequest struct {
	Prompt            string  `json:"prompt"`
	Model             string  `json:"model,omitempty"`
	MaxLength         int     `json:"max_length"`
	BeamSearches      int     `json:"beam_searches"`
	Temperature       float64 `json:"temperature"`
	TopK              int     `json:"top_k"`
	TopP              float64 `json:"top_p"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
}

type generateResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

func newLocalGenerator(cfg config.AIConfig, log zerolog.Logger) *localGenerator {
	return &localGenerator{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		// The orchestrator bounds each request through ctx; no client
		// timeout on top of that.
		httpClient: &http.Client{},
		log:        log,
	}
}

func (g *localGenerator) Generate(ctx context.Context, prompt string, params interfaces.Params) (string, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryDelay * time.Duration(attempt)):
			}
		}

		text, err := g.doGenerate(ctx, prompt, params)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
		g.log.Warn().Err(err).Int("attempt", attempt+1).Msg("generation attempt failed, retrying")
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

func (g *localGenerator) doGenerate(ctx context.Context, prompt string, params interfaces.Params) (string, error) {
	reqBody, err := json.Marshal(generateRequest{
		Prompt:            prompt,
		Model:             g.model,
		MaxLength:         params.MaxLength,
		BeamSearches:      params.BeamSearches,
		Temperature:       params.Temperature,
		TopK:              params.TopK,
		TopP:              params.TopP,
		RepetitionPenalty: params.RepetitionPenalty,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/generate", g.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if genResp.Error != "" {
		return "", fmt.Errorf("generator error: %s", genResp.Error)
	}
	return genResp.Text, nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "HTTP 503")
}
