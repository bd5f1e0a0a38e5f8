package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient calls the chat completions API through the go-openai SDK.
type OpenAIClient struct {
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// NewOpenAIClient создает клиент OpenAI на базе SDK.
func NewOpenAIClient(baseURL, model string, temperature float64, maxTokens int, httpClient *http.Client) *OpenAIClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &OpenAIClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  httpClient,
	}
}

// Complete отправляет сообщения и возвращает текст первого варианта ответа.
func (c *OpenAIClient) Complete(ctx context.Context, credential string, messages []Message) (string, error) {
	if strings.TrimSpace(credential) == "" {
		return "", ErrMissingCredential
	}

	// The credential belongs to the caller, so the SDK client is built per request.
	clientConfig := openai.DefaultConfig(credential)
	clientConfig.BaseURL = c.baseURL
	clientConfig.HTTPClient = c.httpClient
	client := openai.NewClientWithConfig(clientConfig)

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, message := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    message.Role,
			Content: message.Content,
		})
	}

	response, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMessages,
		Temperature: float32(c.temperature),
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(response.Choices) == 0 {
		return "", nil
	}

	return response.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{StatusCode: apiErr.HTTPStatusCode, Message: providerMessage(strings.TrimSpace(apiErr.Message))}
	}

	var requestErr *openai.RequestError
	if errors.As(err, &requestErr) {
		return &ProviderError{StatusCode: requestErr.HTTPStatusCode, Message: genericProviderMessage}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &ProviderError{Message: "invalid provider response"}
	}

	return &TransportError{Err: err}
}
