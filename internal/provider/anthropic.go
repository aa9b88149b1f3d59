package provider

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 4096

// AnthropicGateway adapts the Anthropic Messages API. The response carries a
// content-block array; the first text block is the completion.
type AnthropicGateway struct {
	client anthropic.Client
}

// NewAnthropicGateway creates a gateway backed by the official SDK.
func NewAnthropicGateway(apiKey string) *AnthropicGateway {
	return &AnthropicGateway{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

// Name implements Gateway.
func (g *AnthropicGateway) Name() string { return "anthropic" }

// Complete implements Gateway.
func (g *AnthropicGateway) Complete(ctx context.Context, prompt, model string) (string, error) {
	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		status := 0
		var apierr *anthropic.Error
		if errors.As(err, &apierr) {
			status = apierr.StatusCode
		}
		return "", &CallError{Vendor: g.Name(), Status: status, Message: err.Error()}
	}

	for _, block := range message.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	// No text block is "no content", not a failure.
	return "", nil
}
