package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiGateway adapts the Gemini generate-content API. The response carries a
// candidate tree; text is collected from the first candidate's content parts.
type GeminiGateway struct {
	client *genai.Client
}

// NewGeminiGateway creates a gateway backed by the Gemini API.
func NewGeminiGateway(ctx context.Context, apiKey string) (*GeminiGateway, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiGateway{client: client}, nil
}

// Name implements Gateway.
func (g *GeminiGateway) Name() string { return "gemini" }

// Complete implements Gateway.
func (g *GeminiGateway) Complete(ctx context.Context, prompt, model string) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		status := 0
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			status = apiErr.Code
		}
		return "", &CallError{Vendor: g.Name(), Status: status, Message: err.Error()}
	}

	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
		if sb.Len() > 0 {
			return sb.String(), nil
		}
	}
	// A candidate tree without text parts is "no content", not a failure.
	return "", nil
}
