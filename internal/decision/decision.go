package decision

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/temaptz/trade-agent/internal/types"
)

// Decide fuses at most one signal per source into a single decision.
//
// Each signal votes with +strength*weight for BUY, -strength*weight for
// SELL and 0 for HOLD. The sign of the summed vote picks the direction,
// its magnitude is the aggregate strength, and aggregate confidence is
// the weighted average of per-signal confidence under the same weights.
// Missing sources get their weight redistributed proportionally across
// the sources present: weights are renormalized over present sources
// only, so two strong sources are never diluted by an absent third.
//
// Pure function: no I/O, no clock, deterministic for identical inputs.
// Sources are folded in the fixed order Sources() returns, so the
// returned Decision is bit-identical across calls and across input
// permutations.
func Decide(signals []types.Signal, weights types.Weights, minConfidence float64) (types.Decision, error) {
	if minConfidence < 0 || minConfidence > 1 {
		return types.Decision{}, fmt.Errorf("min_confidence must be in [0,1], got %v", minConfidence)
	}
	if err := ValidateWeights(weights); err != nil {
		return types.Decision{}, err
	}

	bySource := make(map[types.Source]types.Signal, len(signals))
	for _, s := range signals {
		if err := s.Validate(); err != nil {
			return types.Decision{}, err
		}
		if _, dup := bySource[s.Source]; dup {
			return types.Decision{}, fmt.Errorf("duplicate signal for source %s", s.Source)
		}
		bySource[s.Source] = s
	}
	if len(bySource) == 0 {
		return types.Decision{}, errors.New("no signals provided")
	}

	total := 0.0
	for _, src := range types.Sources() {
		if _, ok := bySource[src]; ok {
			total += weights[src]
		}
	}
	if total <= 0 {
		return types.Decision{}, errors.New("weights of present sources sum to zero")
	}

	var scalar, confidence float64
	ordered := make([]types.Signal, 0, len(bySource))
	for _, src := range types.Sources() {
		s, ok := bySource[src]
		if !ok {
			continue
		}
		w := weights[src] / total
		switch s.Direction {
		case types.Buy:
			scalar += w * s.Strength
		case types.Sell:
			scalar -= w * s.Strength
		}
		confidence += w * s.Confidence
		ordered = append(ordered, s)
	}

	dir := types.Hold
	switch {
	case scalar > 0:
		dir = types.Buy
	case scalar < 0:
		dir = types.Sell
	}

	dec := types.Decision{
		Direction:           dir,
		AggregateStrength:   math.Abs(scalar),
		AggregateConfidence: confidence,
		Signals:             ordered,
	}

	// Low-trust decisions never act. The override is recorded in Gated
	// so it stays distinguishable from a natural HOLD vote.
	if dec.AggregateConfidence < minConfidence {
		dec.Direction = types.Hold
		dec.Gated = true
	}

	return dec, nil
}

// ValidateWeights rejects unknown sources, negative weights and an
// all-zero weight set. Called at config load; failures are fatal there.
func ValidateWeights(w types.Weights) error {
	if len(w) == 0 {
		return errors.New("signal weights cannot be empty")
	}
	for src, wt := range w {
		if !src.Valid() {
			return fmt.Errorf("weight configured for unknown source %q", src)
		}
		if wt < 0 {
			return fmt.Errorf("weight for %s must be >= 0, got %v", src, wt)
		}
	}
	sum := 0.0
	for _, src := range types.Sources() {
		sum += w[src]
	}
	if sum <= 0 {
		return errors.New("signal weights must sum to > 0")
	}
	return nil
}

// Decider binds weights and the confidence gate once at startup and
// stamps each decision with the cycle time.
type Decider struct {
	weights       types.Weights
	minConfidence float64
	now           func() time.Time
}

func New(weights types.Weights, minConfidence float64) (*Decider, error) {
	if minConfidence < 0 || minConfidence > 1 {
		return nil, fmt.Errorf("min_confidence must be in [0,1], got %v", minConfidence)
	}
	if err := ValidateWeights(weights); err != nil {
		return nil, err
	}
	return &Decider{weights: weights, minConfidence: minConfidence, now: time.Now}, nil
}

func (d *Decider) Decide(signals []types.Signal) (types.Decision, error) {
	dec, err := Decide(signals, d.weights, d.minConfidence)
	if err != nil {
		return types.Decision{}, err
	}
	dec.Timestamp = d.now()
	return dec, nil
}
