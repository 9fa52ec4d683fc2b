// Package llm holds the prompt and reply handling shared by the
// provider-specific judges (ollama, openai, claude). Providers differ
// only in transport; what the model is asked and how its answer is
// read back into a signal is identical across them.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/temaptz/trade-agent/internal/types"
)

// SystemPrompt frames the model as an analyst and pins the output contract.
const SystemPrompt = "You are an expert cryptocurrency trading analyst. " +
	"Judge the market from the snapshot and headlines provided. " +
	"Respond ONLY with compact JSON matching the schema."

// Schema is the reply shape the model is instructed to produce.
const Schema = `{"direction":"BUY|SELL|HOLD","strength":0.0,"confidence":0.0,"reasoning":"one short sentence"}`

// BuildPrompt renders the user prompt from the condensed market state
// and recent headlines. The snapshot goes in as JSON so the model sees
// exact figures rather than prose approximations.
func BuildPrompt(m types.MarketSnapshot, headlines []string) string {
	state, _ := json.Marshal(m)

	var b strings.Builder
	fmt.Fprintf(&b, "Market snapshot:\n%s\n", state)
	if len(headlines) > 0 {
		b.WriteString("\nRecent headlines:\n")
		for _, h := range headlines {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	fmt.Fprintf(&b, "\nSchema:%s", Schema)
	return b.String()
}
