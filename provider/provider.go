// Package provider defines the LLM provider interface used by evaluation runs.
package provider

import "context"

// CompletionRequest is the unified request for LLM completion.
type CompletionRequest struct {
	Prompt      string
	System      string
	Model       string
	Temperature float64
	MaxTokens   int
	StopTokens  []string
	Metadata    map[string]interface{}
}

// CompletionResponse is the unified completion response.
type CompletionResponse struct {
	Content      string
	Model        string
	Usage        TokenUsage
	FinishReason string
	Metadata     map[string]interface{}
}

// TokenUsage reports token counts.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Provider is the unified interface for LLM providers.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
