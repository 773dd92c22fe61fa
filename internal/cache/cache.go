// Package cache answers a request from the previous exchange when the
// request is an exact repeat of it.
package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/strrl/llm-code/internal/chat"
	"github.com/strrl/llm-code/internal/db"
)

type Store interface {
	InsertRecord(ctx context.Context, rec db.CacheRecord) error
	MostRecentRecord(ctx context.Context) (*db.CacheRecord, error)
}

// Request holds the fields a repeat must match exactly.
type Request struct {
	Model         string
	Temperature   float64
	MaxTokens     int
	SystemMessage string
	UserMessage   string
}

type Cache struct {
	store  Store
	logger *zap.Logger
}

func New(store Store, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{store: store, logger: logger}
}

// Lookup only ever compares against the most recent record.
func (c *Cache) Lookup(ctx context.Context, req Request) (chat.Message, bool, error) {
	rec, err := c.store.MostRecentRecord(ctx)
	if err != nil {
		return chat.Message{}, false, fmt.Errorf("cache lookup: %w", err)
	}

	if rec == nil {
		c.logger.Debug("cache miss", zap.String("reason", "empty"))
		return chat.Message{}, false, nil
	}

	if !req.matches(rec) {
		c.logger.Debug("cache miss", zap.String("reason", "parameters differ"), zap.Int64("last_record", rec.ID))
		return chat.Message{}, false, nil
	}

	c.logger.Debug("cache hit", zap.Int64("record", rec.ID), zap.Time("created_at", rec.CreatedAt))
	return chat.AssistantMessage(rec.AssistantMessage), true, nil
}

func (c *Cache) Record(ctx context.Context, req Request, response chat.Message, inputTokens, outputTokens int) error {
	err := c.store.InsertRecord(ctx, db.CacheRecord{
		Model:            req.Model,
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
		SystemMessage:    req.SystemMessage,
		UserMessage:      req.UserMessage,
		AssistantMessage: response.Content,
		InputTokens:      inputTokens,
		OutputTokens:     outputTokens,
	})
	if err != nil {
		return fmt.Errorf("cache record: %w", err)
	}

	c.logger.Debug("cache record written",
		zap.String("model", req.Model),
		zap.Int("input_tokens", inputTokens),
		zap.Int("output_tokens", outputTokens),
	)
	return nil
}

func (r Request) matches(rec *db.CacheRecord) bool {
	return rec.Model == r.Model &&
		rec.Temperature == r.Temperature &&
		rec.MaxTokens == r.MaxTokens &&
		rec.SystemMessage == r.SystemMessage &&
		rec.UserMessage == r.UserMessage
}
