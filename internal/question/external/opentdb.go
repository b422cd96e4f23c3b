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

// OpenTDBClient fetches questions from the Open Trivia DB (no API key).
type OpenTDBClient struct {
	baseURL    string
	httpClient *http.Client
	intn       func(int) int
}

var _ question.Source = (*OpenTDBClient)(nil)

func NewOpenTDBClient(baseURL string, httpClient *http.Client) *OpenTDBClient {
	if baseURL == "" {
		baseURL = "https://opentdb.com"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &OpenTDBClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

type OpenTDBQuestion struct {
	Category        string   `json:"category"`
	Type            string   `json:"type"`
	Difficulty      string   `json:"difficulty"`
	Question        string   `json:"question"`
	CorrectAnswer   string   `json:"correct_answer"`
	IncorrectAnswer []string `json:"incorrect_answers"`
}

type openTDBResponse struct {
	ResponseCode int               `json:"response_code"`
	Results      []OpenTDBQuestion `json:"results"`
}

func (c *OpenTDBClient) Name() string { return question.SourceOpenTDB }

// openTDBCategories maps topic keywords to OpenTDB category IDs. First match wins.
var openTDBCategories = []struct {
	keywords []string
	id       int
}{
	{[]string{"general", "mixed", "anything"}, 9},
	{[]string{"ocean", "sea", "marine", "pollution", "climate", "environment", "nature", "earth", "space", "science", "biology", "chemistry", "physics"}, 17},
	{[]string{"computer", "programming", "software"}, 18},
	{[]string{"math"}, 19},
	{[]string{"myth"}, 20},
	{[]string{"sport", "football", "soccer"}, 21},
	{[]string{"geography", "country", "countries", "capital"}, 22},
	{[]string{"history", "war"}, 23},
	{[]string{"politic"}, 24},
	{[]string{"art", "painting"}, 25},
	{[]string{"animal", "wildlife"}, 27},
	{[]string{"film", "movie", "cinema"}, 11},
	{[]string{"music", "song"}, 12},
	{[]string{"video game", "gaming"}, 15},
}

// CategoryFor returns the OpenTDB category for topic, or false when none fits.
func CategoryFor(topic string) (int, bool) {
	topic = strings.ToLower(topic)
	for _, c := range openTDBCategories {
		for _, kw := range c.keywords {
			if strings.Contains(topic, kw) {
				return c.id, true
			}
		}
	}
	return 0, false
}

// Generate maps topic to an OpenTDB category. Topics with no category are reported as
// unavailable so the caller moves on instead of serving off-topic trivia.
func (c *OpenTDBClient) Generate(ctx context.Context, topic string, count int) ([]question.Question, error) {
	category, ok := CategoryFor(topic)
	if !ok {
		return nil, fmt.Errorf("%w: no opentdb category for topic %q", question.ErrSourceUnavailable, topic)
	}
	raw, err := c.Fetch(ctx, count, category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", question.ErrSourceUnavailable, err)
	}
	out := make([]question.Question, 0, len(raw))
	for _, q := range raw {
		if mapped, ok := toQuestion(q.Question, q.CorrectAnswer, q.IncorrectAnswer, question.SourceOpenTDB, c.intn); ok {
			out = append(out, mapped)
		}
	}
	return out, nil
}

// Fetch requests amount multiple-choice questions; category 0 means any category.
func (c *OpenTDBClient) Fetch(ctx context.Context, amount, category int) ([]OpenTDBQuestion, error) {
	values := url.Values{}
	values.Set("amount", fmt.Sprint(amount))
	values.Set("type", "multiple")
	if category > 0 {
		values.Set("category", fmt.Sprint(category))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api.php?%s", c.baseURL, values.Encode()), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("opentdb non-200: %d", resp.StatusCode)
	}

	var payload openTDBResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.ResponseCode != 0 {
		return nil, fmt.Errorf("opentdb response code %d", payload.ResponseCode)
	}
	return payload.Results, nil
}
