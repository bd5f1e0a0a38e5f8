package ai

import (
	"context"
	"strings"

	"example.com/uxwriter/internal/models"
)

// Generator builds the category prompt and issues exactly one completion request.
type Generator struct {
	client Client
}

// NewGenerator создает сервис генерации UX-текстов.
func NewGenerator(client Client) *Generator {
	return &Generator{client: client}
}

// Generate возвращает текст первого варианта ответа провайдера для категории и описания.
// Prompt emptiness is the caller's concern; an empty credential fails before any network call.
func (g *Generator) Generate(ctx context.Context, category models.Category, prompt, credential string) (string, error) {
	if strings.TrimSpace(credential) == "" {
		return "", ErrMissingCredential
	}

	if !category.Valid() {
		return "", models.ErrUnknownCategory
	}

	return g.client.Complete(ctx, credential, BuildMessages(category, prompt))
}

// BuildMessages собирает системную инструкцию категории и пользовательский запрос.
func BuildMessages(category models.Category, prompt string) []Message {
	return []Message{
		{Role: roleSystem, Content: category.Instruction()},
		{Role: roleUser, Content: prompt},
	}
}
