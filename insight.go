package stravastats

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const (
	// DefaultModel is the model used for insight generation
	DefaultModel = "gemini-2.5-flash-lite"

	// SystemInstruction frames the model as the athlete's coach
	SystemInstruction = "You are a cycling coach analysing the training data and race results shared by your athlete."

	// InsightsFailure replaces the report when insight generation fails
	InsightsFailure = "Error generating insights. Please check your API key and connection."
)

// Generator produces free text from a prompt
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GeminiGenerator generates text with the Gemini api
type GeminiGenerator struct {
	apiKey string
	model  string
}

func NewGeminiGenerator(apiKey, model string) *GeminiGenerator {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiGenerator{apiKey: apiKey, model: strings.TrimPrefix(model, "models/")}
}

func (g *GeminiGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", errors.New("missing gemini api key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  g.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create genai client: %w", err)
	}
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	temperature := float32(0.4)
	config := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
	}
	log.Debug().Str("model", g.model).Int("prompt", len(prompt)).Msg("generate")
	resp, err := client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("empty response from Gemini API")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no content in Gemini response")
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", errors.New("empty text in Gemini response")
	}
	return sb.String(), nil
}

var prompt = template.Must(
	template.New("prompt.tmpl").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(Content, "templates/prompt.tmpl"))

// Filter returns the records whose type is one of types; all records if types is empty
func Filter(records []*Record, types []string) []*Record {
	if len(types) == 0 {
		return records
	}
	keep := make(map[string]bool, len(types))
	for _, typ := range types {
		keep[typ] = true
	}
	var res []*Record
	for _, rec := range records {
		if keep[typeOf(rec)] {
			res = append(res, rec)
		}
	}
	return res
}

// Prompt renders the insight prompt for the profile and the records of the requested types.
// Activity names are not sent to the model.
func Prompt(profile Profile, types []string, records []*Record) (string, error) {
	records = Filter(records, types)
	anonymous := make([]Record, len(records))
	for i, rec := range records {
		anonymous[i] = *rec
		anonymous[i].Name = nil
	}
	acts, err := json.Marshal(anonymous)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = prompt.Execute(&buf, map[string]interface{}{
		"Profile":    profile,
		"Summary":    Summarize(records),
		"Activities": string(acts),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Insights asks the generator for a training summary and writes it to path.
// A failed generation is reported in the file instead of failing the run.
func Insights(ctx context.Context, gen Generator, profile Profile, types []string, records []*Record, path string) (string, error) {
	text, err := Prompt(profile, types, records)
	if err != nil {
		return "", err
	}
	report, err := gen.Generate(ctx, SystemInstruction, text)
	if err != nil {
		log.Error().Err(err).Msg("generating insights")
		report = InsightsFailure
	}
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	log.Info().Str("file", path).Msg("insights")
	return report, nil
}
