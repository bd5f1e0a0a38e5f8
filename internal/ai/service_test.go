package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/uxwriter/internal/config"
	"example.com/uxwriter/internal/models"
)

type capturedRequest struct {
	Authorization string
	Path          string
	Body          struct {
		Model       string    `json:"model"`
		Messages    []Message `json:"messages"`
		Temperature float64   `json:"temperature"`
		MaxTokens   int       `json:"max_tokens"`
	}
}

func newProvider(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.Authorization = r.Header.Get("Authorization")
			captured.Path = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&captured.Body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

type clientFactory struct {
	name string
	new  func(baseURL string) Client
}

var factories = []clientFactory{
	{name: "compat", new: func(baseURL string) Client {
		return NewCompatClient(baseURL, "gpt-4o-mini", 0.7, 500, nil)
	}},
	{name: "openai", new: func(baseURL string) Client {
		return NewOpenAIClient(baseURL, "gpt-4o-mini", 0.7, 500, nil)
	}},
}

const completionBody = `{"id":"chatcmpl-1","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"Complete Purchase"},"finish_reason":"stop"},{"index":1,"message":{"role":"assistant","content":"Second"},"finish_reason":"stop"}]}`

// TestClientSuccess проверяет запрос к провайдеру и выбор первого варианта.
func TestClientSuccess(t *testing.T) {
	for _, factory := range factories {
		t.Run(factory.name, func(t *testing.T) {
			var captured capturedRequest
			server := newProvider(t, http.StatusOK, completionBody, &captured)

			generator := NewGenerator(factory.new(server.URL + "/v1"))
			content, err := generator.Generate(context.Background(), models.CategoryMicrocopy, "Checkout button", "sk-test")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if content != "Complete Purchase" {
				t.Fatalf("expected first completion, got %q", content)
			}
			if captured.Authorization != "Bearer sk-test" {
				t.Fatalf("unexpected authorization %q", captured.Authorization)
			}
			if captured.Path != "/v1/chat/completions" {
				t.Fatalf("unexpected path %q", captured.Path)
			}
			if captured.Body.Model != "gpt-4o-mini" || captured.Body.MaxTokens != 500 {
				t.Fatalf("unexpected request body %+v", captured.Body)
			}
			if len(captured.Body.Messages) != 2 {
				t.Fatalf("expected 2 messages, got %d", len(captured.Body.Messages))
			}
			if captured.Body.Messages[0].Role != "system" || captured.Body.Messages[0].Content != models.CategoryMicrocopy.Instruction() {
				t.Fatalf("unexpected system message %+v", captured.Body.Messages[0])
			}
			if captured.Body.Messages[1].Role != "user" || captured.Body.Messages[1].Content != "Checkout button" {
				t.Fatalf("unexpected user message %+v", captured.Body.Messages[1])
			}
		})
	}
}

// TestClientEmptyChoices проверяет, что пустой список вариантов дает пустую строку.
func TestClientEmptyChoices(t *testing.T) {
	for _, factory := range factories {
		t.Run(factory.name, func(t *testing.T) {
			server := newProvider(t, http.StatusOK, `{"id":"chatcmpl-2","object":"chat.completion","choices":[]}`, nil)

			content, err := factory.new(server.URL).Complete(context.Background(), "sk-test", BuildMessages(models.CategoryTooltips, "Filter"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if content != "" {
				t.Fatalf("expected empty content, got %q", content)
			}
		})
	}
}

// TestClientProviderError проверяет передачу сообщения провайдера.
func TestClientProviderError(t *testing.T) {
	for _, factory := range factories {
		t.Run(factory.name, func(t *testing.T) {
			server := newProvider(t, http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`, nil)

			_, err := factory.new(server.URL).Complete(context.Background(), "sk-bad", BuildMessages(models.CategoryErrors, "Payment"))

			var providerErr *ProviderError
			if !errors.As(err, &providerErr) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if providerErr.Message != "Incorrect API key provided" {
				t.Fatalf("unexpected message %q", providerErr.Message)
			}
			if providerErr.StatusCode != http.StatusUnauthorized {
				t.Fatalf("unexpected status %d", providerErr.StatusCode)
			}
		})
	}
}

// TestClientProviderErrorWithoutMessage проверяет общее сообщение при ответе без текста ошибки.
func TestClientProviderErrorWithoutMessage(t *testing.T) {
	for _, factory := range factories {
		t.Run(factory.name, func(t *testing.T) {
			server := newProvider(t, http.StatusBadGateway, `upstream unavailable`, nil)

			_, err := factory.new(server.URL).Complete(context.Background(), "sk-test", BuildMessages(models.CategoryOnboarding, "Welcome"))

			var providerErr *ProviderError
			if !errors.As(err, &providerErr) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if providerErr.Message != genericProviderMessage {
				t.Fatalf("expected generic message, got %q", providerErr.Message)
			}
		})
	}
}

// TestClientTransportError проверяет ошибку сети при недоступном провайдере.
func TestClientTransportError(t *testing.T) {
	for _, factory := range factories {
		t.Run(factory.name, func(t *testing.T) {
			server := httptest.NewServer(http.NotFoundHandler())
			baseURL := server.URL
			server.Close()

			_, err := factory.new(baseURL).Complete(context.Background(), "sk-test", BuildMessages(models.CategoryMicrocopy, "Save"))

			var transportErr *TransportError
			if !errors.As(err, &transportErr) {
				t.Fatalf("expected TransportError, got %v", err)
			}
		})
	}
}

type countingClient struct {
	calls int
}

func (c *countingClient) Complete(context.Context, string, []Message) (string, error) {
	c.calls++
	return "ok", nil
}

// TestGenerateMissingCredential проверяет отказ без сетевого вызова.
func TestGenerateMissingCredential(t *testing.T) {
	client := &countingClient{}
	generator := NewGenerator(client)

	for _, credential := range []string{"", "   "} {
		_, err := generator.Generate(context.Background(), models.CategoryMicrocopy, "Checkout button", credential)
		if !errors.Is(err, ErrMissingCredential) {
			t.Fatalf("expected ErrMissingCredential, got %v", err)
		}
	}

	if client.calls != 0 {
		t.Fatalf("expected no provider calls, got %d", client.calls)
	}
}

// TestGenerateUnknownCategory проверяет отказ для неизвестной категории.
func TestGenerateUnknownCategory(t *testing.T) {
	client := &countingClient{}
	generator := NewGenerator(client)

	if _, err := generator.Generate(context.Background(), models.Category("headlines"), "Hero", "sk-test"); !errors.Is(err, models.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("expected no provider calls, got %d", client.calls)
	}
}

// TestNewClient проверяет выбор клиента по конфигурации.
func TestNewClient(t *testing.T) {
	client, err := NewClient(config.AIConfig{Provider: "OpenAI", BaseURL: "http://localhost/v1", Model: "m"})
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := client.(*OpenAIClient); !ok {
		t.Fatalf("expected *OpenAIClient, got %T", client)
	}

	client, err = NewClient(config.AIConfig{Provider: config.ProviderCompat, BaseURL: "http://localhost/v1", Model: "m"})
	if err != nil {
		t.Fatalf("compat: %v", err)
	}
	if _, ok := client.(*CompatClient); !ok {
		t.Fatalf("expected *CompatClient, got %T", client)
	}

	if _, err := NewClient(config.AIConfig{Provider: "gemini"}); err == nil {
		t.Fatal("expected unknown provider error")
	}
}
