package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ErrEmptyAnswer - модель вернула ответ без вариантов или с пустым текстом.
var ErrEmptyAnswer = errors.New("пустой ответ ассистента")

// Client - ассистент поверх OpenAI chat completions со скриншотом во вложении.
type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	rateLimiter *RateLimiter
}

func NewClient(apiKey, model string, maxTokens int, rateLimit time.Duration) *Client {
	return NewClientWithConfig(openai.DefaultConfig(apiKey), model, maxTokens, rateLimit)
}

// NewClientWithConfig позволяет указать свой BaseURL (прокси, совместимый API, тесты).
func NewClientWithConfig(cfg openai.ClientConfig, model string, maxTokens int, rateLimit time.Duration) *Client {
	if model == "" {
		model = openai.GPT4o
	}
	return &Client{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   maxTokens,
		rateLimiter: NewRateLimiter(rateLimit),
	}
}

func (c *Client) Name() string { return "openai" }

func (c *Client) Ask(ctx context.Context, req Request) (Answer, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return Answer{}, err
	}

	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
	}
	if len(req.Image) > 0 {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    dataURI(req.Image),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	})
	if err != nil {
		return Answer{}, fmt.Errorf("ошибка запроса к OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Answer{}, ErrEmptyAnswer
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return Answer{}, ErrEmptyAnswer
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return Answer{
		Text:       text,
		Backend:    c.Name(),
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

func dataURI(img []byte) string {
	return "data:" + http.DetectContentType(img) + ";base64," + base64.StdEncoding.EncodeToString(img)
}
