package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CompatClient calls an OpenAI-compatible chat completions API over plain HTTP.
type CompatClient struct {
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

type compatChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type compatChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewCompatClient создает HTTP-клиент OpenAI-совместимого API.
// A nil httpClient means a client without a timeout: generation waits for the provider.
func NewCompatClient(baseURL, model string, temperature float64, maxTokens int, httpClient *http.Client) *CompatClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &CompatClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  httpClient,
	}
}

// Complete отправляет сообщения и возвращает текст первого варианта ответа.
func (c *CompatClient) Complete(ctx context.Context, credential string, messages []Message) (string, error) {
	if strings.TrimSpace(credential) == "" {
		return "", ErrMissingCredential
	}

	payload, err := json.Marshal(compatChatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/chat/completions", c.baseURL)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	request.Header.Set("Authorization", "Bearer "+credential)
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", &TransportError{Err: err}
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		var apiErr compatChatResponse
		message := ""
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != nil {
			message = strings.TrimSpace(apiErr.Error.Message)
		}
		return "", &ProviderError{StatusCode: response.StatusCode, Message: providerMessage(message)}
	}

	var parsed compatChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &ProviderError{StatusCode: response.StatusCode, Message: "invalid provider response"}
	}

	if len(parsed.Choices) == 0 {
		return "", nil
	}

	return parsed.Choices[0].Message.Content, nil
}
