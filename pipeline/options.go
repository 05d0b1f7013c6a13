package pipeline

import (
	"fmt"
	"math"
	"strings"
)

const (
	GeneratorScript = "script"
	GeneratorLLM    = "llm"
)

type Options struct {
	Role              string
	MarketState       string
	UseEmotion        bool
	SentimentData     string
	SentimentEncoding string
	Alpha             float64
	OutputDir         string
	NProcs            int // <= 0 means one per physical core
	Generator         string
}

func (o Options) Validate() error {
	var missing []string
	if strings.TrimSpace(o.Role) == "" {
		missing = append(missing, "--role")
	}
	if strings.TrimSpace(o.MarketState) == "" {
		missing = append(missing, "--market-state")
	}
	if strings.TrimSpace(o.OutputDir) == "" {
		missing = append(missing, "--output-dir")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrUsage, strings.Join(missing, ", "))
	}
	if o.UseEmotion && strings.TrimSpace(o.SentimentData) == "" {
		return fmt.Errorf("%w: --sentiment-data is required with --use-emotion", ErrUsage)
	}
	if math.IsNaN(o.Alpha) || math.IsInf(o.Alpha, 0) {
		return fmt.Errorf("%w: --alpha must be finite", ErrUsage)
	}
	switch o.Generator {
	case "", GeneratorScript, GeneratorLLM:
	default:
		return fmt.Errorf("%w: --generator must be %s or %s", ErrUsage, GeneratorScript, GeneratorLLM)
	}
	return nil
}
