package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-rooms/internal/question"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	systemPrompt   = "You are a JSON-only question generator."
)

// Config holds connection details for an OpenAI-compatible chat completions API.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Generator implements question.Source over chat completions.
type Generator struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
	url        string
}

var _ question.Source = (*Generator)(nil)

func NewGenerator(cfg Config, logger zerolog.Logger) *Generator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	return &Generator{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
		logger:     logger.With().Str("component", "ai_generator").Logger(),
		url:        strings.TrimSuffix(cfg.BaseURL, "/") + "/chat/completions",
	}
}

func (g *Generator) Name() string { return question.SourceAI }

// Generate asks the model for count questions and normalizes whatever array it returns.
func (g *Generator) Generate(ctx context.Context, topic string, count int) ([]question.Question, error) {
	if g.config.APIKey == "" {
		return nil, fmt.Errorf("%w: ai api key not configured", question.ErrSourceUnavailable)
	}

	body, err := json.Marshal(chatRequest{
		Model: g.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(topic, count)},
		},
		Temperature: 0.7,
		MaxTokens:   1200,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", question.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: chat completions returned status %d", question.ErrSourceUnavailable, resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("%w: decode chat payload: %v", question.ErrSourceUnavailable, err)
	}
	if len(chat.Choices) == 0 || strings.TrimSpace(chat.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("%w: empty completion", question.ErrSourceUnavailable)
	}

	raw, err := parseQuestions(chat.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", question.ErrSourceUnavailable, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: generator returned empty question set", question.ErrSourceUnavailable)
	}
	if len(raw) > count {
		raw = raw[:count]
	}

	questions := make([]question.Question, 0, len(raw))
	for _, q := range raw {
		questions = append(questions, q.normalize())
	}
	g.logger.Debug().Int("count", len(questions)).Str("topic", topic).Msg("ai questions generated")
	return questions, nil
}

func buildPrompt(topic string, count int) string {
	return fmt.Sprintf(`Create exactly %d multiple-choice questions (4 choices each) about %q targeted at middle/high-school players.
Return valid JSON array ONLY, each object: { "question": "...", "choices": ["..","..","..",".."], "correctIndex": 0-3, "fact": "one or two sentence fact" }`, count, topic)
}

// parseQuestions accepts a bare JSON array or free text wrapping one.
func parseQuestions(content string) ([]aiQuestion, error) {
	var out []aiQuestion
	if err := json.Unmarshal([]byte(content), &out); err == nil {
		return out, nil
	}
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no json array in completion")
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("parse json array: %w", err)
	}
	return out, nil
}

type aiQuestion struct {
	Question     string          `json:"question"`
	Choices      []string        `json:"choices"`
	CorrectIndex json.RawMessage `json:"correctIndex"`
	Fact         string          `json:"fact"`
}

// normalize coerces correctIndex from a number or numeric string; anything else becomes 0.
func (q aiQuestion) normalize() question.Question {
	idx := 0
	if len(q.CorrectIndex) > 0 {
		var n float64
		if err := json.Unmarshal(q.CorrectIndex, &n); err == nil {
			idx = int(n)
		} else {
			var s string
			if err := json.Unmarshal(q.CorrectIndex, &s); err == nil {
				fmt.Sscanf(strings.TrimSpace(s), "%d", &idx)
			}
		}
	}
	return question.Question{
		Prompt:       strings.TrimSpace(q.Question),
		Choices:      q.Choices,
		CorrectIndex: idx,
		Fact:         strings.TrimSpace(q.Fact),
		Source:       question.SourceAI,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
