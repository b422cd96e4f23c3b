package match

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-rooms/internal/match/scoring"
	"github.com/gokatarajesh/trivia-rooms/internal/question"
	ws "github.com/gokatarajesh/trivia-rooms/pkg/http/ws"
)

const recordTimeout = 10 * time.Second

// Notifier delivers messages to individual participants; ws.Hub satisfies it.
type Notifier interface {
	SendToParticipant(participantID uuid.UUID, msg ws.Message) error
}

// Timings are the fixed dwell and window durations of a round.
type Timings struct {
	Intro         time.Duration
	Tick          time.Duration
	WindowSeconds int
	Reveal        time.Duration
}

// DefaultTimings: 7s question-only intro, ten one-second ticks, 5s reveal.
func DefaultTimings() Timings {
	return Timings{
		Intro:         7 * time.Second,
		Tick:          time.Second,
		WindowSeconds: 10,
		Reveal:        5 * time.Second,
	}
}

// SleepFunc waits for d or until ctx ends; it reports whether the full wait elapsed.
type SleepFunc func(ctx context.Context, d time.Duration) bool

// CoordinatorOptions wires the optional collaborators of a Coordinator.
type CoordinatorOptions struct {
	Timings      Timings
	Topic        string
	DefaultCount int
	Scorer       *scoring.Engine
	Recorders    []ResultRecorder
	Observer     Observer
	Sleep        SleepFunc
}

// Coordinator drives rooms from lobby through the round loop to finished.
type Coordinator struct {
	registry  *Registry
	questions question.Generator
	notifier  Notifier
	timings   Timings
	topic     string
	count     int
	scorer    *scoring.Engine
	recorders []ResultRecorder
	observer  Observer
	sleep     SleepFunc
	logger    zerolog.Logger
	wg        sync.WaitGroup
}

// NewCoordinator builds a coordinator over registry.
func NewCoordinator(registry *Registry, questions question.Generator, notifier Notifier, logger zerolog.Logger, opts CoordinatorOptions) *Coordinator {
	if opts.Timings.WindowSeconds <= 0 {
		opts.Timings = DefaultTimings()
	}
	if opts.Topic == "" {
		opts.Topic = question.DefaultTopic
	}
	if opts.Scorer == nil {
		opts.Scorer = scoring.NewEngine(scoring.DefaultIncrement)
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &Coordinator{
		registry:  registry,
		questions: questions,
		notifier:  notifier,
		timings:   opts.Timings,
		topic:     opts.Topic,
		count:     opts.DefaultCount,
		scorer:    opts.Scorer,
		recorders: opts.Recorders,
		observer:  opts.Observer,
		sleep:     opts.Sleep,
		logger:    logger.With().Str("component", "room_coordinator").Logger(),
	}
}

// Registry exposes the underlying room registry.
func (c *Coordinator) Registry() *Registry { return c.registry }

// Leave removes participantID from code and tells the remaining players.
func (c *Coordinator) Leave(code string, participantID uuid.UUID) error {
	dep, err := c.registry.Leave(code, participantID)
	if err != nil {
		return err
	}
	c.afterDeparture(dep)
	return nil
}

// Disconnect removes participantID from every room it was in.
func (c *Coordinator) Disconnect(participantID uuid.UUID) {
	for _, dep := range c.registry.LeaveAll(participantID) {
		c.afterDeparture(dep)
	}
}

func (c *Coordinator) afterDeparture(dep Departure) {
	if dep.Deleted {
		return
	}
	c.AnnouncePlayers(dep.Room)
}

// StartGame moves a lobby room into the round loop. Only the current host may start;
// the question fetch happens outside the room lock and never fails.
func (c *Coordinator) StartGame(ctx context.Context, code string, requester uuid.UUID, count int) error {
	room := c.registry.Get(code)
	if room == nil {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	switch {
	case room.closed:
		room.mu.Unlock()
		return ErrRoomNotFound
	case room.hostID != requester:
		room.mu.Unlock()
		return ErrNotHost
	case room.state != StateLobby || room.starting:
		room.mu.Unlock()
		return ErrAlreadyStarted
	}
	room.starting = true
	room.mu.Unlock()

	if count <= 0 {
		count = c.count
	}
	qs := c.questions.Generate(ctx, c.topic, count)

	room.mu.Lock()
	room.starting = false
	if room.closed {
		room.mu.Unlock()
		return ErrRoomNotFound
	}
	if len(qs) == 0 {
		room.mu.Unlock()
		return errors.New("question source returned no questions")
	}
	room.questions = qs
	room.index = 0
	room.accepting = false
	room.answers = make(map[uuid.UUID]int)
	room.state = StateInProgress
	room.startedAt = time.Now().UTC()
	room.gameID = uuid.New()
	for _, m := range room.players {
		m.score = 0
		m.correct = 0
	}
	total := len(qs)
	room.mu.Unlock()

	c.observer.GameStarted()
	c.logger.Info().
		Str("room_code", room.code).
		Str("host_id", requester.String()).
		Int("rounds", total).
		Msg("game started")

	c.broadcast(room, ws.TypeGameStarted, ws.GameStartedPayload{Code: room.code, TotalRounds: total})
	c.AnnouncePlayers(room)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(room)
	}()
	return nil
}

// SubmitAnswer records choice for participantID if the room's answer window is open.
// The last answer inside the window wins. Callers drop every error silently.
func (c *Coordinator) SubmitAnswer(code string, participantID uuid.UUID, choice int) error {
	room := c.registry.Get(code)
	if room == nil {
		c.observer.AnswerDropped()
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	var err error
	switch {
	case room.closed:
		err = ErrRoomNotFound
	case room.players[participantID] == nil:
		err = ErrNotAPlayer
	case !room.accepting:
		err = ErrWindowClosed
	case choice < 0 || choice >= len(room.questions[room.index].Choices):
		err = ErrInvalidChoice
	}
	if err != nil {
		c.observer.AnswerDropped()
		return err
	}
	room.answers[participantID] = choice
	c.observer.AnswerRecorded()
	return nil
}

// Shutdown deletes every room and waits for running round loops to exit.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.registry.Close()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the per-room round loop. Every step re-checks that the room still exists.
func (c *Coordinator) run(room *Room) {
	ctx := room.Context()
	log := c.logger.With().Str("room_code", room.code).Logger()

	for i := 0; ; i++ {
		room.mu.Lock()
		if room.closed {
			room.mu.Unlock()
			return
		}
		if i >= len(room.questions) {
			room.mu.Unlock()
			break
		}
		room.index = i
		room.accepting = false
		room.answers = make(map[uuid.UUID]int)
		q := room.questions[i]
		total := len(room.questions)
		room.mu.Unlock()

		if !c.broadcast(room, ws.TypeRoundAnnounced, ws.RoundAnnouncedPayload{Prompt: q.Prompt, Round: i + 1, TotalRounds: total}) {
			return
		}
		if !c.sleep(ctx, c.timings.Intro) {
			return
		}

		if !c.openWindow(room, q) {
			return
		}
		for remaining := c.timings.WindowSeconds; remaining > 0; remaining-- {
			if !c.broadcast(room, ws.TypeCountdownTick, ws.CountdownTickPayload{SecondsRemaining: remaining}) {
				return
			}
			if !c.sleep(ctx, c.timings.Tick) {
				return
			}
		}

		if !c.closeAndReveal(room, q, log) {
			return
		}
		if !c.sleep(ctx, c.timings.Reveal) {
			return
		}
	}

	c.finish(room, log)
}

func (c *Coordinator) openWindow(room *Room, q question.Question) bool {
	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return false
	}
	room.accepting = true
	room.mu.Unlock()

	return c.broadcast(room, ws.TypeChoicesOpened, ws.ChoicesOpenedPayload{
		Prompt:        q.Prompt,
		Choices:       q.Choices,
		WindowSeconds: c.timings.WindowSeconds,
	})
}

type reveal struct {
	to     uuid.UUID
	answer *int
}

// closeAndReveal closes the window, scores every current player and sends each one a
// reveal carrying their own answer.
func (c *Coordinator) closeAndReveal(room *Room, q question.Question, log zerolog.Logger) bool {
	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return false
	}
	room.accepting = false

	reveals := make([]reveal, 0, len(room.order))
	for _, id := range room.order {
		m := room.players[id]
		choice, answered := room.answers[id]
		award := c.scorer.Award(choice, answered, q.CorrectIndex)
		m.score += award
		if award > 0 {
			m.correct++
		}

		rv := reveal{to: id}
		if answered {
			v := choice
			rv.answer = &v
		}
		reveals = append(reveals, rv)
	}
	scores := scoreEntries(room.playersLocked())
	round := room.index + 1
	room.mu.Unlock()

	log.Debug().Int("round", round).Int("players", len(reveals)).Msg("round scored")

	if !c.broadcast(room, ws.TypeCountdownTick, ws.CountdownTickPayload{SecondsRemaining: 0}) {
		return false
	}
	for _, rv := range reveals {
		msg, err := ws.NewMessage(ws.TypeRoundRevealed, ws.RoundRevealedPayload{
			Prompt:       q.Prompt,
			Choices:      q.Choices,
			CorrectIndex: q.CorrectIndex,
			Fact:         q.Fact,
			Scores:       scores,
			YourAnswer:   rv.answer,
		})
		if err != nil {
			log.Error().Err(err).Msg("encode reveal")
			continue
		}
		c.send(rv.to, msg)
	}
	return true
}

func (c *Coordinator) finish(room *Room, log zerolog.Logger) {
	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return
	}
	room.state = StateFinished
	room.accepting = false
	room.index = len(room.questions)

	standings := make([]scoring.Standing, 0, len(room.order))
	for _, id := range room.order {
		m := room.players[id]
		standings = append(standings, scoring.Standing{ID: id, Name: m.name, Score: m.score, Correct: m.correct})
	}
	result := GameResult{
		GameID:     room.gameID,
		Code:       room.code,
		Topic:      c.topic,
		Rounds:     len(room.questions),
		StartedAt:  room.startedAt,
		FinishedAt: time.Now().UTC(),
		Standings:  scoring.Rank(standings),
	}
	room.mu.Unlock()

	final := make([]ws.ScoreEntry, 0, len(result.Standings))
	for _, s := range result.Standings {
		final = append(final, ws.ScoreEntry{ID: s.ID.String(), Name: s.Name, Score: s.Score})
	}
	c.broadcast(room, ws.TypeGameFinished, ws.GameFinishedPayload{FinalScores: final})

	c.observer.GameFinished()
	log.Info().Int("rounds", result.Rounds).Int("players", len(result.Standings)).Msg("game finished")

	c.record(result, log)
}

func (c *Coordinator) record(result GameResult, log zerolog.Logger) {
	if len(c.recorders) == 0 || len(result.Standings) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	for _, rec := range c.recorders {
		if err := rec.RecordGame(ctx, result); err != nil {
			log.Warn().Err(err).Str("game_id", result.GameID.String()).Msg("record game failed")
		}
	}
}

// AnnouncePlayers sends the current player list to every member of room.
func (c *Coordinator) AnnouncePlayers(room *Room) {
	room.mu.Lock()
	players := room.playersLocked()
	room.mu.Unlock()

	out := make([]ws.Player, 0, len(players))
	for _, p := range players {
		out = append(out, ws.Player{ID: p.ID.String(), Name: p.Name, Score: p.Score, IsHost: p.IsHost})
	}
	c.broadcast(room, ws.TypePlayerList, ws.PlayerListPayload{Code: room.code, Players: out})
}

// broadcast sends one message to every current member. It returns false if the room
// no longer exists, which callers treat as a stop signal.
func (c *Coordinator) broadcast(room *Room, msgType string, payload any) bool {
	room.mu.Lock()
	recipients, ok := room.recipientsLocked()
	room.mu.Unlock()
	if !ok {
		return false
	}

	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("type", msgType).Msg("encode broadcast")
		return true
	}
	for _, id := range recipients {
		c.send(id, msg)
	}
	return true
}

func (c *Coordinator) send(to uuid.UUID, msg ws.Message) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.SendToParticipant(to, msg); err != nil {
		c.logger.Debug().Err(err).
			Str("participant_id", to.String()).
			Str("type", msg.Type).
			Msg("notify failed")
	}
}

func scoreEntries(players []Player) []ws.ScoreEntry {
	out := make([]ws.ScoreEntry, 0, len(players))
	for _, p := range players {
		out = append(out, ws.ScoreEntry{ID: p.ID.String(), Name: p.Name, Score: p.Score})
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
