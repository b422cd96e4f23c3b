package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gokatarajesh/trivia-rooms/internal/question"
)

// TriviaAPIClient integrates with The Trivia API (optional key in TRIVIA_API_KEY).
type TriviaAPIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	intn       func(int) int
}

var _ question.Source = (*TriviaAPIClient)(nil)

func NewTriviaAPIClient(baseURL, apiKey string, httpClient *http.Client) *TriviaAPIClient {
	if baseURL == "" {
		baseURL = "https://the-trivia-api.com/v2"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &TriviaAPIClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type TriviaAPIQuestion struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Question struct {
		Text string `json:"text"`
	} `json:"question"`
	Difficulty string   `json:"difficulty"`
	Correct    string   `json:"correctAnswer"`
	Incorrect  []string `json:"incorrectAnswers"`
}

func (c *TriviaAPIClient) Name() string { return question.SourceTriviaAPI }

// Generate uses topic as a free-text tag filter.
func (c *TriviaAPIClient) Generate(ctx context.Context, topic string, count int) ([]question.Question, error) {
	raw, err := c.Fetch(ctx, count, topic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", question.ErrSourceUnavailable, err)
	}
	out := make([]question.Question, 0, len(raw))
	for _, q := range raw {
		if mapped, ok := toQuestion(q.Question.Text, q.Correct, q.Incorrect, question.SourceTriviaAPI, c.intn); ok {
			out = append(out, mapped)
		}
	}
	return out, nil
}

func (c *TriviaAPIClient) Fetch(ctx context.Context, amount int, topic string) ([]TriviaAPIQuestion, error) {
	values := url.Values{}
	values.Set("limit", fmt.Sprint(amount))
	if tag := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(topic)), " ", "_"); tag != "" {
		values.Set("tags", tag)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/questions?%s", c.baseURL, values.Encode()), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("triviaapi non-200: %d", resp.StatusCode)
	}

	var payload []TriviaAPIQuestion
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}
