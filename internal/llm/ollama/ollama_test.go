package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temaptz/trade-agent/internal/store"
	"github.com/temaptz/trade-agent/internal/types"
)

func testConfig(baseURL string) *store.Config {
	cfg := &store.Config{}
	cfg.LLM.Model = "llama3.1:8b"
	cfg.LLM.BaseURL = baseURL
	cfg.LLM.TimeoutSeconds = 5
	cfg.LLM.MaxTokens = 500
	cfg.LLM.Temperature = 0.3
	return cfg
}

func TestJudgeParsesModelReply(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]string{
			"response": `{"direction":"BUY","strength":0.7,"confidence":0.8,"reasoning":"breakout with volume"}`,
		})
	}))
	defer srv.Close()

	j := NewJudger(testConfig(srv.URL))
	m := types.MarketSnapshot{Pair: "BTCUSDT", Price: 64000}
	sig, err := j.Judge(context.Background(), m, []string{"ETF approved"})
	require.NoError(t, err)

	assert.Equal(t, types.SourceSentiment, sig.Source)
	assert.Equal(t, types.Buy, sig.Direction)
	assert.Equal(t, 0.7, sig.Strength)
	assert.Equal(t, 0.8, sig.Confidence)

	assert.Equal(t, "llama3.1:8b", got["model"])
	assert.Equal(t, false, got["stream"])
	opts, ok := got["options"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 40.0, opts["top_k"])
	assert.Equal(t, 0.9, opts["top_p"])

	prompt, _ := got["prompt"].(string)
	assert.Contains(t, prompt, "BTCUSDT")
	assert.Contains(t, prompt, "ETF approved")
	assert.Contains(t, prompt, "Assistant:")
}

func TestJudgeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	j := NewJudger(testConfig(srv.URL))
	_, err := j.Judge(context.Background(), types.MarketSnapshot{Pair: "BTCUSDT"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama http 404")
}

func TestJudgeRamblingReplyDegradesToHold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"response": "I cannot provide financial advice."})
	}))
	defer srv.Close()

	j := NewJudger(testConfig(srv.URL))
	sig, err := j.Judge(context.Background(), types.MarketSnapshot{Pair: "BTCUSDT"}, nil)
	require.NoError(t, err)

	assert.Equal(t, types.Hold, sig.Direction)
	assert.Zero(t, sig.Confidence)
}
