package question

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu    sync.Mutex
	store map[string][]Question
}

func newMemoryCache() *memoryCache {
	return &memoryCache{store: map[string][]Question{}}
}

func (c *memoryCache) Get(_ context.Context, topic string, count int) ([]Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[cacheKey(topic, count)], nil
}

func (c *memoryCache) Set(_ context.Context, topic string, count int, qs []Question) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[cacheKey(topic, count)] = qs
	return nil
}

func (c *memoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

type stubSource struct {
	name  string
	qs    []Question
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Generate(_ context.Context, _ string, count int) ([]Question, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.qs[:min(count, len(s.qs))], nil
}

type countingRecorder struct {
	mu   sync.Mutex
	seen map[string]int
}

func (r *countingRecorder) QuestionSourceResult(source, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = map[string]int{}
	}
	r.seen[source+":"+outcome]++
}

func generated(n int, source string) []Question {
	out := make([]Question, n)
	for i := range out {
		out[i] = Question{
			Prompt:       fmt.Sprintf("%s question %d", source, i),
			Choices:      []string{"A", "B", "C", "D"},
			CorrectIndex: i % ChoiceCount,
			Source:       source,
		}
	}
	return out
}

func newTestService(cache PackCache, rec ResultRecorder, sources ...Source) *Service {
	return NewService(cache, sources, zerolog.New(io.Discard), ServiceOptions{FetchTimeout: time.Second, Metrics: rec})
}

func TestGenerateFallsBackWhenSourceUnavailable(t *testing.T) {
	rec := &countingRecorder{}
	svc := newTestService(nil, rec, &stubSource{name: SourceAI, err: errors.New("dial tcp: refused")})

	qs := svc.Generate(context.Background(), "", 3)

	require.Len(t, qs, 3)
	for i, q := range qs {
		assert.Equal(t, fallbackQuestions[i].Prompt, q.Prompt)
		assert.Equal(t, SourceFallback, q.Source)
	}
	assert.Equal(t, 1, rec.seen[SourceAI+":"+OutcomeError])
	assert.Equal(t, 1, rec.seen[SourceFallback+":"+OutcomeUsed])
}

func TestGenerateNoSourcesUsesFallbackForEveryCount(t *testing.T) {
	svc := newTestService(nil, nil)
	for count := 1; count <= MaxQuestionCount; count++ {
		qs := svc.Generate(context.Background(), DefaultTopic, count)
		assert.Len(t, qs, count)
		for _, q := range qs {
			assert.NoError(t, q.Validate())
		}
	}
}

func TestGenerateClampsCount(t *testing.T) {
	svc := newTestService(nil, nil)
	assert.Len(t, svc.Generate(context.Background(), DefaultTopic, 0), DefaultCount)
	assert.Len(t, svc.Generate(context.Background(), DefaultTopic, -4), DefaultCount)
	assert.Len(t, svc.Generate(context.Background(), DefaultTopic, 500), MaxQuestionCount)
}

func TestGenerateDropsMalformedAndTopsUp(t *testing.T) {
	good := generated(2, SourceAI)
	bad := []Question{
		{Prompt: "", Choices: []string{"A", "B", "C", "D"}},
		{Prompt: "three choices", Choices: []string{"A", "B", "C"}},
		{Prompt: "index out of range", Choices: []string{"A", "B", "C", "D"}, CorrectIndex: 4},
	}
	src := &stubSource{name: SourceAI, qs: append(bad, good...)}
	cache := newMemoryCache()
	svc := newTestService(cache, nil, src)

	qs := svc.Generate(context.Background(), DefaultTopic, 5)

	require.Len(t, qs, 5)
	// only the first five raw items are requested, so two valid generated plus three fallback
	assert.Equal(t, good[0].Prompt, qs[0].Prompt)
	assert.Equal(t, good[1].Prompt, qs[1].Prompt)
	assert.Equal(t, SourceFallback, qs[2].Source)
	assert.Zero(t, cache.Len(), "packs that needed the fallback are not cached")
}

func TestGenerateChainsSourcesAndCaches(t *testing.T) {
	first := &stubSource{name: SourceAI, qs: generated(2, SourceAI)}
	second := &stubSource{name: SourceOpenTDB, qs: generated(4, SourceOpenTDB)}
	cache := newMemoryCache()
	svc := newTestService(cache, nil, first, second)

	qs := svc.Generate(context.Background(), "Ocean Pollution", 4)
	require.Len(t, qs, 4)
	assert.Equal(t, SourceAI, qs[0].Source)
	assert.Equal(t, SourceOpenTDB, qs[3].Source)
	assert.Equal(t, 1, cache.Len())

	again := svc.Generate(context.Background(), "ocean pollution", 4)
	assert.Equal(t, qs, again)
	assert.Equal(t, 1, first.calls, "second call served from cache")
}

func TestGenerateReturnsCopies(t *testing.T) {
	svc := newTestService(nil, nil)
	qs := svc.Generate(context.Background(), DefaultTopic, 1)
	qs[0].Choices[0] = "mutated"

	again := svc.Generate(context.Background(), DefaultTopic, 1)
	assert.NotEqual(t, "mutated", again[0].Choices[0])
}

func TestFetcherWorkerWarmsCache(t *testing.T) {
	cache := newMemoryCache()
	svc := newTestService(cache, nil, &stubSource{name: SourceAI, qs: generated(6, SourceAI)})
	worker := NewFetcherWorker(svc, DefaultTopic, 6, 5*time.Millisecond, time.Second, zerolog.New(io.Discard))

	go worker.Run()
	defer worker.Stop()

	assert.Eventually(t, func() bool { return cache.Len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestValidate(t *testing.T) {
	q := Question{Prompt: "p", Choices: []string{"a", "b", "c", "d"}, CorrectIndex: 3}
	assert.NoError(t, q.Validate())

	q.CorrectIndex = -1
	assert.Error(t, q.Validate())

	q.CorrectIndex = 0
	q.Choices[2] = "  "
	assert.Error(t, q.Validate())
}
