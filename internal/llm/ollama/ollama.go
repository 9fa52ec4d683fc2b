package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/temaptz/trade-agent/internal/llm"
	"github.com/temaptz/trade-agent/internal/store"
	"github.com/temaptz/trade-agent/internal/trace"
	"github.com/temaptz/trade-agent/internal/types"
)

// Judger talks to a local Ollama server. It is the default provider:
// no API key, no per-token cost, and the judgment stays on the box.
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
	ctx, span := trace.StartSpan(ctx, "ollama-api-call")
	defer span.End()

	// Ollama's generate endpoint takes a single flat prompt, so the
	// system framing is folded in chat-transcript style.
	prompt := fmt.Sprintf("System: %s\n\nUser: %s\n\nAssistant:",
		llm.SystemPrompt, llm.BuildPrompt(m, headlines))

	body := map[string]any{
		"model":  j.cfg.LLM.Model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": j.cfg.LLM.Temperature,
			"num_predict": j.cfg.LLM.MaxTokens,
			"top_p":       0.9,
			"top_k":       40,
		},
	}
	bb, _ := json.Marshal(body)

	url := strings.TrimRight(j.cfg.LLM.BaseURL, "/") + "/api/generate"
	req, _ := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bb))
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.hc.Do(req)
	if err != nil {
		return types.Signal{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return types.Signal{}, fmt.Errorf("ollama http %d", resp.StatusCode)
	}

	var r struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return types.Signal{}, err
	}

	return llm.ParseReply(r.Response), nil
}
