// Package gemini reads free-text trip requests with Google's Gemini models.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	genai "google.golang.org/genai"

	"trip_planner/internal/adapters/observability"
)

const DefaultModel = "gemini-2.5-flash"

var ErrInvalidJSON = errors.New("gemini: reply is not a JSON object")

const instructions = `Extract the trip request below into a JSON object with exactly these keys:
- departure_location (string)
- arrival_location (string)
- adult_guests (integer)
- departure_date_leaving (string, as the user wrote it)
- length_of_stay (integer number of days)
- holiday_type (string)
- arrival_date_coming_back (string)

If a value is not mentioned, use "" for strings and 0 for integers. Never omit a key.
Do not invent dates or convert them; copy the user's wording.

Example: "I want to go on holiday from Birmingham to Paris on July 10th for 7 days" gives
{"departure_location":"Birmingham","arrival_location":"Paris","adult_guests":0,"departure_date_leaving":"July 10th","length_of_stay":7,"holiday_type":"","arrival_date_coming_back":""}

Trip request:
`

// generateFunc sends one prompt and returns the model's text reply.
type generateFunc func(ctx context.Context, prompt string) (string, error)

type Extractor struct {
	model    string
	generate generateFunc
}

func New(ctx context.Context, apiKey, model string) (*Extractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	gen := func(ctx context.Context, prompt string) (string, error) {
		resp, err := cli.Models.GenerateContent(ctx, model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
			&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
		)
		if err != nil {
			return "", err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return "", ErrInvalidJSON
		}
		return resp.Candidates[0].Content.Parts[0].Text, nil
	}
	return &Extractor{model: model, generate: gen}, nil
}

func (e *Extractor) Name() string { return "gemini:" + e.model }

// ExtractGuess returns the model's JSON object for text.
func (e *Extractor) ExtractGuess(ctx context.Context, text string) (map[string]any, error) {
	start := time.Now()
	reply, err := e.generate(ctx, instructions+strings.TrimSpace(text))
	if err != nil {
		observability.ObserveExternal("gemini", "generate", 500, time.Since(start))
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	observability.ObserveExternal("gemini", "generate", 200, time.Since(start))

	var m map[string]any
	if err := json.Unmarshal([]byte(stripFences(reply)), &m); err != nil || m == nil {
		log.Warn().Str("provider", "gemini").Str("reply", truncate(reply, 200)).Msg("unreadable model reply")
		return nil, ErrInvalidJSON
	}
	return m, nil
}

// stripFences drops a ```json ... ``` wrapper some models add anyway.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
