package question

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ChoiceCount is the number of choices every question carries.
const ChoiceCount = 4

// Source names recorded on generated questions.
const (
	SourceAI        = "ai"
	SourceOpenTDB   = "opentdb"
	SourceTriviaAPI = "triviaapi"
	SourceFallback  = "fallback"
	SourceCache     = "cache"
)

// ErrSourceUnavailable wraps every provider failure (network, status, malformed payload).
var ErrSourceUnavailable = errors.New("question source unavailable")

// Question is one multiple-choice round. CorrectIndex never leaves the server before reveal.
type Question struct {
	Prompt       string   `json:"prompt"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correct_index"`
	Fact         string   `json:"fact,omitempty"`
	Source       string   `json:"source,omitempty"`
}

// Validate checks the shape a round needs: a prompt, four non-empty choices and an
// in-range correct index.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("empty prompt")
	}
	if len(q.Choices) != ChoiceCount {
		return fmt.Errorf("want %d choices, got %d", ChoiceCount, len(q.Choices))
	}
	for i, c := range q.Choices {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("choice %d is empty", i)
		}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Choices) {
		return fmt.Errorf("correct index %d out of range", q.CorrectIndex)
	}
	return nil
}

// Clone returns a copy that shares no slices with q.
func (q Question) Clone() Question {
	out := q
	out.Choices = append([]string(nil), q.Choices...)
	return out
}

// Source produces up to count questions about topic.
type Source interface {
	Name() string
	Generate(ctx context.Context, topic string, count int) ([]Question, error)
}

// Generator is what the room coordinator depends on. Generate never fails: it
// always returns exactly the (clamped) requested number of questions.
type Generator interface {
	Generate(ctx context.Context, topic string, count int) []Question
}
