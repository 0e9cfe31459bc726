// Package annotate produces AI annotations (sentiment, tags, summary)
// for journal entry text.
package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lumina-journal/lumina/internal/model"
)

// ErrTooShort is returned when the text is below the minimum length for
// a meaningful analysis. No remote call is made in that case.
var ErrTooShort = errors.New("annotate: text too short")

// MinTextLen is the minimum rune count eligible for analysis.
const MinTextLen = 10

// Analyzer derives sentiment, tags and a short summary from entry text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (model.AnalysisResult, error)
}

const maxTags = 3

// checkLength enforces the minimum length gate shared by all analyzers.
func checkLength(text string) error {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinTextLen {
		return ErrTooShort
	}
	return nil
}

type resultPayload struct {
	Sentiment string   `json:"sentiment"`
	Tags      []string `json:"tags"`
	Summary   string   `json:"summary"`
}

// parseResult validates the model's JSON response and normalizes it into
// the domain result. Tag lists are clamped to maxTags.
func parseResult(raw string) (model.AnalysisResult, error) {
	var p resultPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("annotate: decode response: %w", err)
	}

	sent := model.Sentiment(strings.ToLower(strings.TrimSpace(p.Sentiment)))
	if !sent.Valid() {
		return model.AnalysisResult{}, fmt.Errorf("annotate: unknown sentiment %q", p.Sentiment)
	}
	summary := strings.TrimSpace(p.Summary)
	if summary == "" {
		return model.AnalysisResult{}, errors.New("annotate: empty summary")
	}

	tags := make([]string, 0, maxTags)
	for _, t := range p.Tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		tags = append(tags, t)
		if len(tags) == maxTags {
			break
		}
	}

	return model.AnalysisResult{Sentiment: sent, Tags: tags, Summary: summary}, nil
}
