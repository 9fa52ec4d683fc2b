package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/temaptz/trade-agent/internal/llm"
	"github.com/temaptz/trade-agent/internal/store"
	"github.com/temaptz/trade-agent/internal/trace"
	"github.com/temaptz/trade-agent/internal/types"
)

type Judger struct {
	cfg *store.Config
	hc  *http.Client
}

func NewJudger(cfg *store.Config) *Judger {
	return &Judger{
		cfg: cfg,
		hc:  &http.Client{Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second},
	}
}

func (j *Judger) Judge(ctx context.Context, m types.MarketSnapshot, headlines []string) (types.Signal, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return types.Signal{}, errors.New("OPENAI_API_KEY missing")
	}

	body := map[string]any{
		"model": j.cfg.LLM.Model,
		"messages": []map[string]string{
			{"role": "system", "content": llm.SystemPrompt},
			{"role": "user", "content": llm.BuildPrompt(m, headlines)},
		},
		"temperature": j.cfg.LLM.Temperature,
		"max_tokens":  j.cfg.LLM.MaxTokens,
	}
	bb, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bb))
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.hc.Do(req)
	if err != nil {
		return types.Signal{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return types.Signal{}, fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return types.Signal{}, err
	}

	if len(r.Choices) == 0 {
		return types.Signal{}, errors.New("no choices")
	}

	return llm.ParseReply(strings.TrimSpace(r.Choices[0].Message.Content)), nil
}
