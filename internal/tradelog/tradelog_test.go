package tradelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temaptz/trade-agent/internal/types"
)

func readEvents(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		events = append(events, m)
	}
	require.NoError(t, sc.Err())
	return events
}

func TestJournalWritesOneLinePerEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j, err := New(Options{Path: path, MaxSizeMB: 10})
	require.NoError(t, err)

	d := types.Decision{
		Direction:           types.Buy,
		AggregateStrength:   0.5,
		AggregateConfidence: 0.72,
		Signals: []types.Signal{
			{Source: types.SourceTechnical, Direction: types.Buy, Strength: 0.8, Confidence: 0.9},
		},
	}
	j.Decision("BTCUSDT", 50000, d)
	j.Outcome("BTCUSDT", d, types.Outcome{
		Verdict:         types.VerdictApproved,
		Size:            0.02,
		StopLossPrice:   48500,
		TakeProfitPrice: 53000,
	})
	j.Trade("BTCUSDT", "Buy", 0.02, 50000, "ord-1", "ENTRY")
	j.PositionClosed("BTCUSDT", -40, "STOP_LOSS")
	j.Halt("BTCUSDT", "daily loss limit")
	j.DaySummary("2026-08-22", 3, -15, "logs/eod/2026-08-22.csv")
	require.NoError(t, j.Sync())

	events := readEvents(t, path)
	require.Len(t, events, 6)

	assert.Equal(t, "decision", events[0]["event"])
	assert.Equal(t, "BTCUSDT", events[0]["pair"])
	assert.Equal(t, "BUY", events[0]["direction"])
	assert.Equal(t, 0.72, events[0]["aggregate_confidence"])
	sigs, ok := events[0]["signals"].([]any)
	require.True(t, ok)
	require.Len(t, sigs, 1)

	assert.Equal(t, "outcome", events[1]["event"])
	assert.Equal(t, "APPROVED", events[1]["verdict"])
	assert.Equal(t, 0.02, events[1]["size"])
	assert.Equal(t, 48500.0, events[1]["stop_loss_price"])

	assert.Equal(t, "trade", events[2]["event"])
	assert.Equal(t, "Buy", events[2]["side"])
	assert.Equal(t, "ord-1", events[2]["order_id"])
	assert.Equal(t, "ENTRY", events[2]["reason"])

	assert.Equal(t, "position_closed", events[3]["event"])
	assert.Equal(t, -40.0, events[3]["realized_pnl"])
	assert.Equal(t, "STOP_LOSS", events[3]["reason"])

	assert.Equal(t, "halt", events[4]["event"])
	assert.Equal(t, "daily loss limit", events[4]["reason"])

	assert.Equal(t, "day_summary", events[5]["event"])
	assert.Equal(t, "2026-08-22", events[5]["day"])
	assert.Equal(t, 3.0, events[5]["trades"])
	assert.Equal(t, "logs/eod/2026-08-22.csv", events[5]["csv_path"])

	// Every line carries a UTC timestamp; levels stay out of the stream.
	for _, ev := range events {
		assert.Contains(t, ev, "time")
		assert.NotContains(t, ev, "level")
	}
}

func TestOutcomeOmitsSizingWhenRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j, err := New(Options{Path: path, MaxSizeMB: 10})
	require.NoError(t, err)

	j.Outcome("BTCUSDT", types.Decision{Direction: types.Hold}, types.Outcome{
		Verdict: types.VerdictRejected,
		Reason:  "no actionable signal",
	})
	require.NoError(t, j.Sync())

	events := readEvents(t, path)
	require.Len(t, events, 1)
	assert.Equal(t, "REJECTED", events[0]["verdict"])
	assert.Equal(t, "no actionable signal", events[0]["reason"])
	assert.NotContains(t, events[0], "size")
	assert.NotContains(t, events[0], "stop_loss_price")
}

func TestNewCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "journal.jsonl")
	j, err := New(Options{Path: path})
	require.NoError(t, err)

	j.Halt("BTCUSDT", "emergency stop")
	require.NoError(t, j.Sync())

	_, err = os.Stat(path)
	require.NoError(t, err)
}
