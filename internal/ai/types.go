package ai

import (
	"time"

	"github.com/strrl/llm-code/internal/chat"
)

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type ChatRequest struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Messages    []chat.Message
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

type ChatResponse struct {
	Message chat.Message
	Usage   Usage
}
