// Package analyst attaches qualitative commentary to newly created trades.
package analyst

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"strategy-scanner/internal/store"
	"strategy-scanner/internal/trace"
)

// OpenAIAnalyst asks an OpenAI-compatible chat endpoint for a short
// qualitative read on a formatted signal message.
type OpenAIAnalyst struct {
	cfg *store.Config
}

func NewOpenAI(cfg *store.Config) *OpenAIAnalyst {
	return &OpenAIAnalyst{cfg: cfg}
}

func (a *OpenAIAnalyst) Analyze(ctx context.Context, message string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", errors.New("OPENAI_API_KEY missing")
	}

	body := map[string]any{
		"model": a.cfg.Analyst.Model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are a trading assistant. Given a trade signal summary, reply with a short qualitative assessment of the setup in plain text."},
			{"role": "user", "content": message},
		},
		"temperature": a.cfg.Analyst.Temperature,
		"max_tokens":  a.cfg.Analyst.MaxTokens,
	}
	bb, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bb))
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}
