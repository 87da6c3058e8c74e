package completion

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiGenerator — Generator поверх Google GenAI SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator создаёт клиент Gemini API.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("создание клиента gemini: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// dataSchema — схема ответа для GenerateData.
var dataSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"label": {Type: genai.TypeString},
			"value": {Type: genai.TypeNumber},
		},
		Required: []string{"label", "value"},
	},
}

// Generate отправляет промпт и возвращает текст ответа.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, structured bool) (string, error) {
	var config *genai.GenerateContentConfig
	if structured {
		config = &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   dataSchema,
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini api: %w", err)
	}
	return responseText(resp), nil
}

// responseText извлекает текст первого кандидата без служебных thought-частей.
// Ответ без кандидатов даёт пустую строку.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	return resp.Text()
}
