package llm

import (
	"encoding/json"
	"strings"

	"github.com/temaptz/trade-agent/internal/types"
)

// reply is the JSON object the model is asked to produce.
type reply struct {
	Direction  string  `json:"direction"`
	Strength   float64 `json:"strength"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ParseReply turns raw model output into a sentiment signal. Unparseable
// or out-of-range output degrades to HOLD with zero confidence instead
// of an error, so a rambling model never stalls a trading cycle.
func ParseReply(text string) types.Signal {
	t := strings.TrimSpace(text)

	var r reply
	ok := json.Unmarshal([]byte(t), &r) == nil
	if !ok {
		// Models often wrap the object in prose or a code fence.
		start := strings.Index(t, "{")
		end := strings.LastIndex(t, "}")
		if start >= 0 && end > start {
			ok = json.Unmarshal([]byte(t[start:end+1]), &r) == nil
		}
	}
	if !ok {
		return holdSignal("unparseable model output")
	}

	dir := types.Direction(strings.ToUpper(strings.TrimSpace(r.Direction)))
	if !dir.Valid() {
		return holdSignal("invalid direction in model output")
	}

	s := types.Signal{
		Source:     types.SourceSentiment,
		Direction:  dir,
		Strength:   r.Strength,
		Confidence: r.Confidence,
		Evidence:   strings.TrimSpace(r.Reasoning),
	}
	if s.Strength < 0 || s.Strength > 1 {
		s.Strength = 0
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		s.Confidence = 0
	}
	return s
}

func holdSignal(evidence string) types.Signal {
	return types.Signal{
		Source:     types.SourceSentiment,
		Direction:  types.Hold,
		Strength:   0,
		Confidence: 0,
		Evidence:   evidence,
	}
}
