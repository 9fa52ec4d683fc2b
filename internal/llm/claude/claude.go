package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/temaptz/trade-agent/internal/llm"
	"github.com/temaptz/trade-agent/internal/store"
	"github.com/temaptz/trade-agent/internal/trace"
	"github.com/temaptz/trade-agent/internal/types"
)

// Judger implements the judge against the Anthropic messages API.
type Judger struct {
	cfg      *store.Config
	endpoint string
	hc       *http.Client
}

func NewJudger(cfg *store.Config) *Judger {
	// Default public endpoint; proxies can override via env.
	endpoint := "https://api.anthropic.com/v1/messages"
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &Judger{
		cfg:      cfg,
		endpoint: endpoint,
		hc:       &http.Client{Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second},
	}
}

func (j *Judger) Judge(ctx context.Context, m types.MarketSnapshot, headlines []string) (types.Signal, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	apiKey := os.Getenv("CLAUDE_API_KEY")
	if apiKey == "" {
		return types.Signal{}, errors.New("CLAUDE_API_KEY missing")
	}

	body := map[string]any{
		"model":       j.cfg.LLM.Model,
		"max_tokens":  j.cfg.LLM.MaxTokens,
		"temperature": j.cfg.LLM.Temperature,
		"system":      llm.SystemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": llm.BuildPrompt(m, headlines)},
		},
	}
	bb, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, "POST", j.endpoint, bytes.NewReader(bb))
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.hc.Do(req)
	if err != nil {
		return types.Signal{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return types.Signal{}, fmt.Errorf("claude http %d: %s", resp.StatusCode, string(msg))
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.Signal{}, err
	}

	var r struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBytes, &r); err != nil || len(r.Content) == 0 {
		// Proxy endpoints return assorted shapes; the brace scan in
		// ParseReply copes with raw bodies too.
		return llm.ParseReply(string(respBytes)), nil
	}

	var text strings.Builder
	for _, c := range r.Content {
		text.WriteString(c.Text)
	}
	return llm.ParseReply(text.String()), nil
}
