package annotate

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/lumina-journal/lumina/internal/model"
)

const analyzePrompt = "Analyze the following journal entry. Provide a brief summary (max 20 words), " +
	"a sentiment analysis (positive, neutral, or negative), and up to 3 relevant tags.\n\nEntry: %q"

// resultSchema constrains the model to the exact JSON shape parseResult expects.
var resultSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"sentiment": {
			Type: genai.TypeString,
			Enum: []string{"positive", "neutral", "negative"},
		},
		"tags": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"summary": {Type: genai.TypeString},
	},
	Required: []string{"sentiment", "tags", "summary"},
}

// Gemini analyzes entries with the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates an Analyzer backed by the Gemini API.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("annotate: create client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Analyze sends the entry text to Gemini and parses the structured response.
func (g *Gemini) Analyze(ctx context.Context, text string) (model.AnalysisResult, error) {
	if err := checkLength(text); err != nil {
		return model.AnalysisResult{}, err
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   resultSchema,
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(fmt.Sprintf(analyzePrompt, text)), cfg)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("annotate: generate: %w", err)
	}
	return parseResult(resp.Text())
}
