package explain

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"transfer-tax-lab/internal/domain"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Gemini is an Explainer backed by the Gemini API.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

var _ Explainer = (*Gemini)(nil)

// NewGemini builds a Gemini explainer. Model defaults to a flash model and
// timeout to 15s when zero values are passed.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini explainer needs an api key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Gemini{client: client, model: model, timeout: timeout}, nil
}

func (g *Gemini) Explain(ctx context.Context, s *domain.Strategy) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(s)), nil)
	if err != nil {
		return "", fmt.Errorf("generate explanation: %w", err)
	}
	return resp.Text(), nil
}
