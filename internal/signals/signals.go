// Package signals maps raw indicator values and external metrics onto
// bullish/bearish/neutral states and bounded 0-100 sub-scores.
package signals

import (
	"math"

	"github.com/irfndi/coinlens-go/internal/models"
)

// Category identifies the sub-score a signal contributes to.
// The declaration order is the tie-break order for reasons.
type Category int

const (
	CategoryTechnical Category = iota
	CategorySentiment
	CategoryOnChain
	CategoryMacro
)

func (c Category) String() string {
	switch c {
	case CategoryTechnical:
		return "technical"
	case CategorySentiment:
		return "sentiment"
	case CategoryOnChain:
		return "on-chain"
	case CategoryMacro:
		return "macro"
	}
	return "unknown"
}

// Signal is one contribution to a sub-score.
type Signal struct {
	Category  Category           `json:"category"`
	Name      string             `json:"name"`
	State     models.SignalState `json:"state"`
	Points    float64            `json:"points"`
	Magnitude float64            `json:"magnitude"`
	Reason    string             `json:"reason"`
}

// Assessment is a sub-score with the signals that produced it.
type Assessment struct {
	Score   int      `json:"score"`
	Signals []Signal `json:"signals"`
}

// NeutralScore is substituted when an input is missing.
const NeutralScore = 50

// Neutral returns an empty assessment at the neutral score.
func Neutral() Assessment {
	return Assessment{Score: NeutralScore}
}

// Clamp bounds v to [0,100] and rounds it.
func Clamp(v float64) int {
	if math.IsNaN(v) {
		return NeutralScore
	}
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

func clampRange(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func stateOf(points float64) models.SignalState {
	switch {
	case points > 0:
		return models.StateBullish
	case points < 0:
		return models.StateBearish
	default:
		return models.StateNeutral
	}
}

type builder struct {
	category Category
	signals  []Signal
	total    float64
}

func (b *builder) add(name string, points float64, reason string) {
	b.total += points
	b.signals = append(b.signals, Signal{
		Category:  b.category,
		Name:      name,
		State:     stateOf(points),
		Points:    points,
		Magnitude: math.Abs(points),
		Reason:    reason,
	})
}

func (b *builder) info(name string, magnitude float64, reason string) {
	b.signals = append(b.signals, Signal{
		Category:  b.category,
		Name:      name,
		State:     models.StateNeutral,
		Magnitude: magnitude,
		Reason:    reason,
	})
}

func (b *builder) assessment(base float64) Assessment {
	return Assessment{Score: Clamp(base + b.total), Signals: b.signals}
}
