package question

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// FetcherWorker keeps the default pack warm in the cache so game starts skip provider latency.
type FetcherWorker struct {
	service   *Service
	topic     string
	count     int
	interval  time.Duration
	timeout   time.Duration
	logger    zerolog.Logger
	shutdownC chan struct{}
}

func NewFetcherWorker(service *Service, topic string, count int, interval, timeout time.Duration, logger zerolog.Logger) *FetcherWorker {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &FetcherWorker{
		service:   service,
		topic:     topic,
		count:     ClampCount(count),
		interval:  interval,
		timeout:   timeout,
		logger:    logger.With().Str("component", "question_fetcher").Logger(),
		shutdownC: make(chan struct{}),
	}
}

func (w *FetcherWorker) Run() {
	if w.interval <= 0 {
		return
	}
	w.warm()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.shutdownC:
			w.logger.Info().Msg("question fetcher stopping")
			return
		case <-ticker.C:
			w.warm()
		}
	}
}

func (w *FetcherWorker) warm() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	qs := w.service.Generate(ctx, w.topic, w.count)
	w.logger.Debug().Int("count", len(qs)).Str("topic", w.topic).Msg("question pack warmed")
}

func (w *FetcherWorker) Stop() {
	close(w.shutdownC)
}
