package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temaptz/trade-agent/internal/types"
)

func TestParseReplyCleanJSON(t *testing.T) {
	sig := ParseReply(`{"direction":"BUY","strength":0.7,"confidence":0.85,"reasoning":"momentum building"}`)

	assert.Equal(t, types.SourceSentiment, sig.Source)
	assert.Equal(t, types.Buy, sig.Direction)
	assert.Equal(t, 0.7, sig.Strength)
	assert.Equal(t, 0.85, sig.Confidence)
	assert.Equal(t, "momentum building", sig.Evidence)
}

func TestParseReplyJSONWrappedInProse(t *testing.T) {
	out := "Sure! Here is my assessment:\n```json\n" +
		`{"direction":"sell","strength":0.4,"confidence":0.6,"reasoning":"weak volume"}` +
		"\n```\nLet me know if you need anything else."
	sig := ParseReply(out)

	assert.Equal(t, types.Sell, sig.Direction)
	assert.Equal(t, 0.4, sig.Strength)
	assert.Equal(t, 0.6, sig.Confidence)
}

func TestParseReplyGarbageDegradesToHold(t *testing.T) {
	sig := ParseReply("the market feels bullish today")

	assert.Equal(t, types.Hold, sig.Direction)
	assert.Zero(t, sig.Strength)
	assert.Zero(t, sig.Confidence)
	assert.Equal(t, "unparseable model output", sig.Evidence)
}

func TestParseReplyInvalidDirection(t *testing.T) {
	sig := ParseReply(`{"direction":"MOON","strength":0.9,"confidence":0.9}`)

	assert.Equal(t, types.Hold, sig.Direction)
	assert.Zero(t, sig.Confidence)
}

func TestParseReplyOutOfRangeZeroed(t *testing.T) {
	sig := ParseReply(`{"direction":"BUY","strength":1.4,"confidence":97}`)

	assert.Equal(t, types.Buy, sig.Direction)
	assert.Zero(t, sig.Strength)
	assert.Zero(t, sig.Confidence)
}

func TestBuildPromptContents(t *testing.T) {
	m := types.MarketSnapshot{Pair: "BTCUSDT", Price: 64250.5, RSI: 61.2}
	p := BuildPrompt(m, []string{"ETF inflows hit record"})

	require.Contains(t, p, "BTCUSDT")
	require.Contains(t, p, "- ETF inflows hit record")
	require.Contains(t, p, Schema)
}

func TestBuildPromptNoHeadlines(t *testing.T) {
	p := BuildPrompt(types.MarketSnapshot{Pair: "BTCUSDT"}, nil)

	assert.NotContains(t, p, "Recent headlines")
}
