package agent

import (
	"strings"
	"sync"
)

// ErrorKind indicates whether a tool failure is worth a repair attempt.
type ErrorKind string

const (
	ErrorKindRetryable    ErrorKind = "retryable"     // Input can plausibly be reformatted and retried
	ErrorKindNonRetryable ErrorKind = "non_retryable" // Never retry
)

// ToolOutcome is the classified result of one tool execution.
// Created once, appended to TurnState.ToolResults, never mutated.
type ToolOutcome struct {
	ToolName     string    `json:"tool_name"`
	Success      bool      `json:"success"`
	Data         string    `json:"data,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ErrorKind    ErrorKind `json:"error_kind,omitempty"`
}

// ClassifierConfig holds the error-indicator substrings as configuration
// rather than literals scattered through the code. Matching is
// case-insensitive. The defaults include the Japanese equivalents the
// upstream tools emit.
type ClassifierConfig struct {
	// ErrorIndicators mark a raw output as a failure.
	ErrorIndicators []string `json:"error_indicators"`
	// RetryableIndicators sub-classify a failure as plausibly fixable by
	// reformatting the input (e.g. an unrecognized city name).
	RetryableIndicators []string `json:"retryable_indicators"`
	// NonRetryableIndicators sub-classify a failure as terminal
	// (auth/validation/malformed-request problems).
	NonRetryableIndicators []string `json:"non_retryable_indicators"`
}

// DefaultClassifierConfig returns the built-in indicator lists.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		ErrorIndicators: []string{
			"error", "not found", "failed", "timed out", "unauthorized",
			"forbidden", "invalid", "エラー", "失敗", "見つかりません",
		},
		RetryableIndicators: []string{
			"not found", "unknown city", "unrecognized", "timed out",
			"timeout", "500", "502", "503", "504", "見つかりません",
		},
		NonRetryableIndicators: []string{
			"unauthorized", "forbidden", "invalid api key", "401", "403",
			"400", "bad request", "validation failed", "malformed",
			"payment required", "quota",
		},
	}
}

// Classifier inspects raw tool output and classifies it as success-with-data,
// retryable failure, or non-retryable failure. Classification is a pure
// function of the input for a given config; the config itself can be swapped
// at runtime (hot reload).
type Classifier struct {
	mu  sync.RWMutex
	cfg ClassifierConfig
}

// Normalized fills empty indicator lists from the defaults.
func (cfg ClassifierConfig) Normalized() ClassifierConfig {
	def := DefaultClassifierConfig()
	if len(cfg.ErrorIndicators) == 0 {
		cfg.ErrorIndicators = def.ErrorIndicators
	}
	if len(cfg.RetryableIndicators) == 0 {
		cfg.RetryableIndicators = def.RetryableIndicators
	}
	if len(cfg.NonRetryableIndicators) == 0 {
		cfg.NonRetryableIndicators = def.NonRetryableIndicators
	}
	return cfg
}

// NewClassifier creates a classifier with the given indicator config.
// Empty lists fall back to the defaults.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg.Normalized()}
}

// SetConfig replaces the indicator lists, filling empty ones from the
// defaults. Safe for concurrent use.
func (c *Classifier) SetConfig(cfg ClassifierConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg.Normalized()
}

// Classify turns one raw tool output into a ToolOutcome.
//
// Policy: presence of any error indicator marks the output as a failure.
// Failures matching a non-retryable indicator are terminal; failures matching
// a retryable indicator drive the repair loop; unmatched failures default to
// non-retryable. Clean output is returned verbatim as data; interpretation
// is the compose step's job, not the classifier's.
func (c *Classifier) Classify(toolName, raw string) ToolOutcome {
	c.mu.RLock()
	cfg := c.cfg
	c.mu.RUnlock()

	lowered := strings.ToLower(raw)

	if !containsAny(lowered, cfg.ErrorIndicators) {
		return ToolOutcome{
			ToolName: toolName,
			Success:  true,
			Data:     raw,
		}
	}

	kind := ErrorKindNonRetryable
	if containsAny(lowered, cfg.NonRetryableIndicators) {
		kind = ErrorKindNonRetryable
	} else if containsAny(lowered, cfg.RetryableIndicators) {
		kind = ErrorKindRetryable
	}

	return ToolOutcome{
		ToolName:     toolName,
		Success:      false,
		ErrorMessage: raw,
		ErrorKind:    kind,
	}
}

func containsAny(lowered string, indicators []string) bool {
	for _, ind := range indicators {
		if ind == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(ind)) {
			return true
		}
	}
	return false
}
