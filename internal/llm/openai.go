package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

const DefaultModel = openai.GPT3Dot5Turbo

// OpenAIClient is a Completer backed by an OpenAI-compatible chat
// completions API. It is safe for concurrent use once built.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds a client. An empty baseURL keeps the library
// default; an empty model falls back to DefaultModel. The key is not
// checked here, a bad key surfaces on the first call.
func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	if model == "" {
		model = DefaultModel
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete issues exactly one chat completion request. There is no retry.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", &Error{Kind: KindProviderCall, Model: c.model, StatusCode: statusCode(err), Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Kind: KindMissingField, Model: c.model, StatusCode: http.StatusOK, Err: ErrNoChoices}
	}

	// go-openai decodes a null content and "" to the same empty string, so
	// both are reported as a missing field.
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", &Error{Kind: KindMissingField, Model: c.model, StatusCode: http.StatusOK, Err: ErrEmptyContent}
	}

	return content, nil
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
