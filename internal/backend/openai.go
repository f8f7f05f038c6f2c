package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator implements Generator against an OpenAI-compatible API.
type OpenAIGenerator struct {
	client *openai.Client
}

// NewOpenAIGenerator constructs an OpenAIGenerator. baseURL may be empty for
// the default endpoint, or point at any OpenAI-compatible server.
func NewOpenAIGenerator(apiKey, baseURL string) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimSpace(baseURL)
	}
	return &OpenAIGenerator{client: openai.NewClientWithConfig(cfg)}
}

// Generate executes a chat completion and maps API failures onto the
// backend failure taxonomy.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (Result, error) {
	if g == nil || g.client == nil {
		return Result{}, &Error{Kind: FailurePermanent, Message: "generator not initialized"}
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, errCreate := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if errCreate != nil {
		return Result{}, classifyError(errCreate)
	}
	if len(resp.Choices) == 0 {
		return Result{}, &Error{Kind: FailureTransient, Message: "empty response"}
	}

	return Result{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// classifyError maps an API error to a failure kind, preserving the
// underlying message.
func classifyError(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == "context_length_exceeded" {
			return &Error{Kind: FailureBudgetExceeded, Message: apiErr.Message}
		}
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests,
			apiErr.HTTPStatusCode >= http.StatusInternalServerError:
			return &Error{Kind: FailureTransient, Message: apiErr.Message}
		default:
			return &Error{Kind: FailurePermanent, Message: apiErr.Message}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: FailureTransient, Message: err.Error()}
	}
	return &Error{Kind: FailureTransient, Message: err.Error()}
}
