// Package shared holds types passed between the LLM clients and their callers.
package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// Empty reports whether no token was counted.
func (u TokenUsage) Empty() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0
}

// CallMeta describes one timed LLM-backed operation.
type CallMeta struct {
	Operation string
	Usage     TokenUsage
	Latency   time.Duration
}
