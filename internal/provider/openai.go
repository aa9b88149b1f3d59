package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// OpenAIGateway adapts the OpenAI chat-completions API. The response carries a
// choices array; the first choice's message content is the completion.
type OpenAIGateway struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIGateway creates a gateway against the public OpenAI endpoint.
func NewOpenAIGateway(apiKey string, timeout time.Duration) *OpenAIGateway {
	return &OpenAIGateway{
		apiKey:     apiKey,
		baseURL:    openAIDefaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewOpenAIGatewayWithBaseURL creates a gateway against a custom endpoint.
// Used by tests and OpenAI-compatible backends.
func NewOpenAIGatewayWithBaseURL(apiKey, baseURL string, timeout time.Duration) *OpenAIGateway {
	g := NewOpenAIGateway(apiKey, timeout)
	g.baseURL = baseURL
	return g
}

// Name implements Gateway.
func (g *OpenAIGateway) Name() string { return "openai" }

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Gateway.
func (g *OpenAIGateway) Complete(ctx context.Context, prompt, model string) (string, error) {
	body, err := json.Marshal(openAIRequest{
		Model: model,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", &CallError{Vendor: g.Name(), Message: fmt.Sprintf("marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &CallError{Vendor: g.Name(), Message: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &CallError{Vendor: g.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &CallError{Vendor: g.Name(), Status: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &CallError{Vendor: g.Name(), Status: resp.StatusCode, Message: string(respBody)}
	}

	var decoded openAIResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", &CallError{Vendor: g.Name(), Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	if decoded.Error != nil {
		return "", &CallError{Vendor: g.Name(), Status: resp.StatusCode, Message: decoded.Error.Message}
	}

	if len(decoded.Choices) == 0 {
		return "", nil
	}
	return decoded.Choices[0].Message.Content, nil
}
