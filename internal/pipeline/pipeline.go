package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/strrl/llm-code/internal/ai"
	"github.com/strrl/llm-code/internal/cache"
	"github.com/strrl/llm-code/internal/chat"
)

// Chatter is the completion endpoint. *ai.Client satisfies it.
type Chatter interface {
	Chat(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error)
}

type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

type Pipeline struct {
	chatter Chatter
	cache   *cache.Cache
	logger  *zap.Logger
}

// Result is the final assistant message and where it came from.
type Result struct {
	Message chat.Message
	Cached  bool
	Usage   ai.Usage
}

// New wires the pipeline. A nil cache disables caching regardless of what
// Execute is asked to do.
func New(chatter Chatter, c *cache.Cache, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		chatter: chatter,
		cache:   c,
		logger:  logger,
	}
}

// Execute runs one request: at most one cache lookup, one completion call
// and one cache write, in that order.
func (p *Pipeline) Execute(ctx context.Context, messages []chat.Message, settings Settings, useCache bool) (*Result, error) {
	if len(messages) == 0 {
		return nil, errors.New("no messages to send")
	}

	key := cacheRequest(messages, settings)
	useCache = useCache && p.cache != nil

	if useCache {
		msg, ok, err := p.cache.Lookup(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			p.logger.Info("using cached response", zap.String("model", settings.Model))
			return &Result{Message: msg, Cached: true}, nil
		}
	}

	p.logger.Info("requesting completion",
		zap.String("model", settings.Model),
		zap.Float64("temperature", settings.Temperature),
		zap.Int("max_tokens", settings.MaxTokens),
		zap.Int("messages", len(messages)),
	)

	resp, err := p.chatter.Chat(ctx, ai.ChatRequest{
		Model:       settings.Model,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
		Messages:    messages,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	p.logger.Debug("completion received",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	if p.cache != nil {
		if err := p.cache.Record(ctx, key, resp.Message, resp.Usage.PromptTokens, resp.Usage.CompletionTokens); err != nil {
			p.logger.Warn("failed to record response", zap.Error(err))
		}
	}

	return &Result{Message: resp.Message, Usage: resp.Usage}, nil
}

func cacheRequest(messages []chat.Message, settings Settings) cache.Request {
	var system, user []string
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleSystem:
			system = append(system, msg.Content)
		case chat.RoleUser:
			user = append(user, msg.Content)
		}
	}

	return cache.Request{
		Model:         settings.Model,
		Temperature:   settings.Temperature,
		MaxTokens:     settings.MaxTokens,
		SystemMessage: strings.Join(system, "\n\n"),
		UserMessage:   strings.Join(user, "\n\n"),
	}
}
