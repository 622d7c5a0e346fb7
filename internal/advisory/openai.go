package advisory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
// Pointing the base URL at Ollama's /v1 or another local gateway keeps
// inference on-premise while reusing the standard client.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// Ensure OpenAIClient implements Chatter.
var _ Chatter = (*OpenAIClient)(nil)

// NewOpenAIClient creates a chat client for an OpenAI-compatible endpoint.
// An empty baseURL targets the public API; an empty apiKey is accepted for
// local endpoints that ignore authentication.
func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration) *OpenAIClient {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	opts := []option.RequestOption{option.WithRequestTimeout(timeout)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Chat sends one system+user exchange and returns the trimmed reply.
func (c *OpenAIClient) Chat(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
