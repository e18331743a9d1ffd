package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/quantarena/quantarena/internal/config"
	"github.com/quantarena/quantarena/internal/models"
)

// Generator is the text-generation contract every role step depends on.
// Implementations must treat timeouts and empty output as failures, never
// as silent empty text.
type Generator interface {
	Generate(ctx context.Context, role string, messages []*schema.Message) (string, error)
}

// Client wraps an eino chat model with a per-call timeout and bounded
// exponential-backoff retries. Once the retry budget is spent it reports
// a GenerationError carrying the last underlying cause.
type Client struct {
	chatModel model.BaseChatModel
	timeout   time.Duration
	retries   int
	baseWait  time.Duration
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	var (
		chatModel model.BaseChatModel
		err       error
	)

	switch cfg.LLMProvider {
	case "deepseek":
		chatModel, err = deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.DeepSeekAPIKey,
			Model:     cfg.DeepThinkLLM,
			BaseURL:   cfg.BackendURL,
			MaxTokens: 8192,
		})
	case "openai":
		maxTokens := 8192
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:    cfg.OpenAIAPIKey,
			Model:     cfg.DeepThinkLLM,
			BaseURL:   cfg.BackendURL,
			MaxTokens: &maxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", cfg.LLMProvider, err)
	}

	return NewClientWithModel(chatModel, cfg), nil
}

// NewClientWithModel lets tests and callers inject any eino chat model.
func NewClientWithModel(chatModel model.BaseChatModel, cfg *config.Config) *Client {
	timeout := cfg.GenerationTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	baseWait := cfg.GenerationBaseWait
	if baseWait <= 0 {
		baseWait = time.Second
	}
	return &Client{
		chatModel: chatModel,
		timeout:   timeout,
		retries:   cfg.GenerationRetries,
		baseWait:  baseWait,
	}
}

func (c *Client) Generate(ctx context.Context, role string, messages []*schema.Message) (string, error) {
	var lastErr error

	attempts := 0
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := c.baseWait << (attempt - 1)
			if wait > 30*time.Second {
				wait = 30 * time.Second
			}
			select {
			case <-ctx.Done():
				return "", &models.GenerationError{Role: role, Attempts: attempts, Err: ctx.Err()}
			case <-time.After(wait):
			}
		}
		attempts++

		text, err := c.generateOnce(ctx, messages)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) {
			break
		}
	}

	return "", &models.GenerationError{Role: role, Attempts: attempts, Err: lastErr}
}

func (c *Client) generateOnce(ctx context.Context, messages []*schema.Message) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.chatModel.Generate(callCtx, messages)
	if err != nil {
		return "", err
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", errors.New("model returned empty content")
	}
	return out.Content, nil
}
