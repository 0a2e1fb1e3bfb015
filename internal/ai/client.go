package ai

import (
	"context"
	"github.com/myrjola/briefly/internal/errors"
	"github.com/sashabaranov/go-openai"
)

// Completer is the narrow capability the engine needs from a text-generation
// vendor: given chat messages, return text. Implementations may fail or report
// temporary overload.
type Completer interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

type Client struct {
	client *openai.Client
}

func NewClient(apiKey string) Client {
	return Client{
		client: openai.NewClient(apiKey),
	}
}

const MaxTokens = 4096

func (c Client) Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	completion, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
			Model:     openai.GPT3Dot5Turbo1106,
			MaxTokens: MaxTokens,
			Messages:  messages,
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "create chat completion")
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("completion has no choices")
	}
	return completion.Choices[0].Message.Content, nil
}
