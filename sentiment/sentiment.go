package sentiment

import (
	"context"
	"strings"
)

type Label string

const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
)

var scores = map[Label]float64{
	Positive: 1.0,
	Neutral:  0.0,
	Negative: -1.0,
}

// Score maps a label to its numeric weight. Unknown labels score 0.
func Score(l Label) float64 {
	return scores[l]
}

// ParseLabel normalizes free-form classifier output to a Label. Only the first
// word is considered; anything unrecognized is returned lowercased as-is.
func ParseLabel(s string) Label {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return ""
	}
	w := strings.Trim(fields[0], ".,;:!\"'`*")
	switch w {
	case "positive", "pos", "bullish":
		return Positive
	case "neutral", "neu":
		return Neutral
	case "negative", "neg", "bearish":
		return Negative
	}
	return Label(w)
}

func (l Label) Known() bool {
	_, ok := scores[l]
	return ok
}

// Classifier labels a piece of text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Label, error)
}
