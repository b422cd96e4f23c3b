package question

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultTopic        = "ocean pollution"
	DefaultCount        = 6
	defaultFetchTimeout = 8 * time.Second
)

// Outcomes reported to the metrics recorder per source attempt.
const (
	OutcomeOK      = "ok"
	OutcomePartial = "partial"
	OutcomeError   = "error"
	OutcomeHit     = "hit"
	OutcomeUsed    = "used"
)

// PackCache stores generated packs. Get returns (nil, nil) on a miss.
type PackCache interface {
	Get(ctx context.Context, topic string, count int) ([]Question, error)
	Set(ctx context.Context, topic string, count int, questions []Question) error
}

// ResultRecorder receives one observation per source attempt.
type ResultRecorder interface {
	QuestionSourceResult(source, outcome string)
}

// Service tries the cache, then each source in order, then tops up from the built-in list.
type Service struct {
	cache   PackCache
	sources []Source
	metrics ResultRecorder
	logger  zerolog.Logger
	timeout time.Duration
}

type ServiceOptions struct {
	FetchTimeout time.Duration
	Metrics      ResultRecorder
}

var _ Generator = (*Service)(nil)

func NewService(cache PackCache, sources []Source, logger zerolog.Logger, opts ServiceOptions) *Service {
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Service{
		cache:   cache,
		sources: sources,
		metrics: opts.Metrics,
		logger:  logger.With().Str("component", "question_service").Logger(),
		timeout: timeout,
	}
}

// ClampCount bounds a requested pack size to [1, MaxQuestionCount]; zero or less means DefaultCount.
func ClampCount(count int) int {
	if count <= 0 {
		count = DefaultCount
	}
	if count > MaxQuestionCount {
		count = MaxQuestionCount
	}
	return count
}

// Generate always returns exactly ClampCount(count) valid questions. Provider failures
// are logged and recovered, never returned.
func (s *Service) Generate(ctx context.Context, topic string, count int) []Question {
	count = ClampCount(count)
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = DefaultTopic
	}

	if cached := s.fromCache(ctx, topic, count); cached != nil {
		return cached
	}

	collected := make([]Question, 0, count)
	for _, src := range s.sources {
		if len(collected) >= count {
			break
		}
		if ctx.Err() != nil {
			break
		}
		got, err := s.fetch(ctx, src, topic, count-len(collected))
		if err != nil {
			s.logger.Warn().Err(err).Str("source", src.Name()).Str("topic", topic).Msg("question source failed")
			s.record(src.Name(), OutcomeError)
			continue
		}
		valid := keepValid(got, s.logger.With().Str("source", src.Name()).Logger())
		if len(valid) < count-len(collected) {
			s.record(src.Name(), OutcomePartial)
		} else {
			s.record(src.Name(), OutcomeOK)
		}
		collected = appendDistinct(collected, valid, count)
	}

	if len(collected) == count {
		if s.cache != nil {
			if err := s.cache.Set(ctx, topic, count, collected); err != nil {
				s.logger.Warn().Err(err).Msg("question cache write failed")
			}
		}
		return collected
	}

	s.record(SourceFallback, OutcomeUsed)
	s.logger.Info().Int("generated", len(collected)).Int("requested", count).Msg("topping up from built-in questions")
	return appendDistinct(collected, Fallback(MaxQuestionCount), count)
}

func (s *Service) fromCache(ctx context.Context, topic string, count int) []Question {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.Get(ctx, topic, count)
	if err != nil {
		s.logger.Warn().Err(err).Msg("question cache read failed")
		return nil
	}
	valid := keepValid(cached, s.logger)
	if len(valid) < count {
		return nil
	}
	s.record(SourceCache, OutcomeHit)
	return valid[:count]
}

func (s *Service) fetch(ctx context.Context, src Source, topic string, count int) ([]Question, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	qs, err := src.Generate(ctx, topic, count)
	if err != nil {
		if !errors.Is(err, ErrSourceUnavailable) {
			err = errors.Join(ErrSourceUnavailable, err)
		}
		return nil, err
	}
	return qs, nil
}

func (s *Service) record(source, outcome string) {
	if s.metrics != nil {
		s.metrics.QuestionSourceResult(source, outcome)
	}
}

func keepValid(qs []Question, logger zerolog.Logger) []Question {
	out := make([]Question, 0, len(qs))
	for i, q := range qs {
		if err := q.Validate(); err != nil {
			logger.Debug().Err(err).Int("index", i).Msg("dropping malformed question")
			continue
		}
		out = append(out, q.Clone())
	}
	return out
}

// appendDistinct appends questions whose prompt is not already present, up to limit.
func appendDistinct(dst, src []Question, limit int) []Question {
	seen := make(map[string]struct{}, len(dst))
	for _, q := range dst {
		seen[strings.ToLower(q.Prompt)] = struct{}{}
	}
	for _, q := range src {
		if len(dst) >= limit {
			break
		}
		key := strings.ToLower(q.Prompt)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		dst = append(dst, q)
	}
	return dst
}
