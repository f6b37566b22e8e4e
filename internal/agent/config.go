package agent

import (
	"time"

	"github.com/citypal/citypal/internal/prompts"
)

// PromptSet holds the system prompts the machine's nodes use.
type PromptSet struct {
	Analyze string
	Gather  string
	Compose string
}

// Config holds the orchestration knobs. Zero values are replaced by
// defaults in New.
type Config struct {
	MaxRetries  int           // Repair-loop cap (default 2)
	StepBudget  int           // Hard cap on node executions per turn (default 25)
	CallTimeout time.Duration // Per gateway/tool call (default 20s)
	Prompts     PromptSet
}

// DefaultConfig returns the standard configuration with the registered
// prompt versions.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  DefaultMaxRetries,
		StepBudget:  DefaultStepBudget,
		CallTimeout: 20 * time.Second,
		Prompts: PromptSet{
			Analyze: prompts.MustLatest(prompts.AnalyzeID).Content,
			Gather:  prompts.MustLatest(prompts.GatherID).Content,
			Compose: prompts.MustLatest(prompts.ComposeID).Content,
		},
	}
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.StepBudget == 0 {
		c.StepBudget = DefaultStepBudget
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = 20 * time.Second
	}
	def := func(s, fallback string) string {
		if s == "" {
			return fallback
		}
		return s
	}
	c.Prompts.Analyze = def(c.Prompts.Analyze, prompts.MustLatest(prompts.AnalyzeID).Content)
	c.Prompts.Gather = def(c.Prompts.Gather, prompts.MustLatest(prompts.GatherID).Content)
	c.Prompts.Compose = def(c.Prompts.Compose, prompts.MustLatest(prompts.ComposeID).Content)
	return c
}
