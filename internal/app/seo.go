package app

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

const (
	seoTitleMax = 60
	seoDescMax  = 155
)

// SEOService produces SEO title/description copy for a safari. The
// inference call is best-effort: any failure (or a missing API key) falls
// back to a local heuristic, so the admin flow never blocks on it.
type SEOService struct {
	client *openai.Client
	model  string
}

func NewSEOService(apiKey, model string) *SEOService {
	s := &SEOService{model: model}
	if s.model == "" {
		s.model = openai.GPT4oMini
	}
	if apiKey != "" {
		s.client = openai.NewClient(apiKey)
	}
	return s
}

type SEOCopy struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *SEOService) Generate(ctx context.Context, title, overview, location string) SEOCopy {
	if s.client == nil {
		return heuristicSEO(title, overview, location)
	}
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You write SEO copy for a safari tour operator. " +
					"Reply with JSON {\"title\":...,\"description\":...}; title under 60 chars, description under 155 chars.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "Tour: " + title + "\nLocation: " + location + "\nOverview: " + overview,
			},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		log.Warn().Err(err).Msg("seo generation fell back to heuristic")
		return heuristicSEO(title, overview, location)
	}
	var out SEOCopy
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.Trim(raw, "` \n")
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out.Title == "" {
		return heuristicSEO(title, overview, location)
	}
	out.Title = truncateWords(out.Title, seoTitleMax)
	out.Description = truncateWords(out.Description, seoDescMax)
	return out
}

func heuristicSEO(title, overview, location string) SEOCopy {
	t := title
	if location != "" && !strings.Contains(strings.ToLower(t), strings.ToLower(location)) {
		t = t + " | " + location
	}
	return SEOCopy{
		Title:       truncateWords(t, seoTitleMax),
		Description: truncateWords(overview, seoDescMax),
	}
}

// truncateWords caps s at max characters, cutting on a word boundary.
func truncateWords(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:-")
}
