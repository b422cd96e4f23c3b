package match

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	mrand "math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-rooms/internal/question"
)

const (
	DefaultCodeLength   = 4
	DefaultCodeAlphabet = "0123456789"

	randomCodeAttempts = 32
	maxScannableSpace  = 1 << 20
)

// Room is one isolated game session. All fields are guarded by mu; closed is set once
// the registry drops the room and every suspended round loop checks it before acting.
type Room struct {
	mu sync.Mutex

	code      string
	createdAt time.Time
	hostID    uuid.UUID
	players   map[uuid.UUID]*member
	order     []uuid.UUID

	state     State
	starting  bool
	questions []question.Question
	index     int
	accepting bool
	answers   map[uuid.UUID]int
	startedAt time.Time
	gameID    uuid.UUID

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

type member struct {
	id      uuid.UUID
	name    string
	score   int
	correct int
}

func (r *Room) Code() string { return r.code }

// Context is cancelled when the room is deleted.
func (r *Room) Context() context.Context { return r.ctx }

// Snapshot copies the room's observable state.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	round := 0
	if r.state != StateLobby {
		round = min(r.index+1, len(r.questions))
	}
	return Snapshot{
		Code:             r.code,
		State:            r.state,
		HostID:           r.hostID,
		Players:          r.playersLocked(),
		Round:            round,
		TotalRounds:      len(r.questions),
		AcceptingAnswers: r.accepting,
		CreatedAt:        r.createdAt,
	}
}

// PlayerList returns members in join order.
func (r *Room) PlayerList() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playersLocked()
}

func (r *Room) playersLocked() []Player {
	out := make([]Player, 0, len(r.order))
	for _, id := range r.order {
		m := r.players[id]
		out = append(out, Player{ID: id, Name: m.name, Score: m.score, IsHost: id == r.hostID})
	}
	return out
}

// recipientsLocked returns current member IDs, or ok=false once the room is gone.
func (r *Room) recipientsLocked() ([]uuid.UUID, bool) {
	if r.closed {
		return nil, false
	}
	return append([]uuid.UUID(nil), r.order...), true
}

func (r *Room) removeLocked(id uuid.UUID) {
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Room) closeLocked() {
	r.closed = true
	r.accepting = false
	r.cancel()
}

// RegistryConfig controls room code generation and capacity.
type RegistryConfig struct {
	CodeLength int
	Alphabet   string
	// MaxPlayers caps room size; zero means unlimited.
	MaxPlayers int
	// Rand overrides the code entropy source (crypto/rand by default).
	Rand io.Reader
}

// Registry owns the code -> Room mapping. Lock order is Registry.mu then Room.mu.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	cfg      RegistryConfig
	alphabet []rune
	space    int
	ctx      context.Context
	cancel   context.CancelFunc
	observer Observer
	logger   zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig, observer Observer, logger zerolog.Logger) *Registry {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = DefaultCodeLength
	}
	if cfg.Alphabet == "" {
		cfg.Alphabet = DefaultCodeAlphabet
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Reader
	}
	if observer == nil {
		observer = nopObserver{}
	}
	alphabet := dedupeRunes(strings.ToUpper(cfg.Alphabet))
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		rooms:    make(map[string]*Room),
		cfg:      cfg,
		alphabet: alphabet,
		space:    codeSpace(len(alphabet), cfg.CodeLength),
		ctx:      ctx,
		cancel:   cancel,
		observer: observer,
		logger:   logger.With().Str("component", "room_registry").Logger(),
	}
}

// NormalizeCode trims and upper-cases a human-typed code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateRoom inserts a lobby room with hostID as its only player and host.
func (r *Registry) CreateRoom(hostID uuid.UUID, hostName string) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.nextCodeLocked()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(r.ctx)
	room := &Room{
		code:      code,
		createdAt: time.Now().UTC(),
		hostID:    hostID,
		players: map[uuid.UUID]*member{
			hostID: {id: hostID, name: cleanName(hostName, DefaultHostName)},
		},
		order:   []uuid.UUID{hostID},
		state:   StateLobby,
		answers: make(map[uuid.UUID]int),
		ctx:     ctx,
		cancel:  cancel,
	}
	r.rooms[code] = room
	r.observer.RoomCount(len(r.rooms))

	r.logger.Info().
		Str("room_code", code).
		Str("host_id", hostID.String()).
		Msg("room created")
	return room, nil
}

// JoinRoom adds a player to a lobby room. Re-joining the same room only updates the name.
func (r *Registry) JoinRoom(code string, participantID uuid.UUID, name string) (*Room, error) {
	room := r.Get(code)
	if room == nil {
		return nil, ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return nil, ErrRoomNotFound
	}
	if room.state != StateLobby || room.starting {
		return nil, ErrAlreadyStarted
	}
	if m, exists := room.players[participantID]; exists {
		if name != "" {
			m.name = cleanName(name, m.name)
		}
		return room, nil
	}
	if r.cfg.MaxPlayers > 0 && len(room.players) >= r.cfg.MaxPlayers {
		return nil, ErrRoomFull
	}

	room.players[participantID] = &member{id: participantID, name: cleanName(name, randomPlayerName())}
	room.order = append(room.order, participantID)

	r.logger.Info().
		Str("room_code", room.code).
		Str("participant_id", participantID.String()).
		Int("player_count", len(room.order)).
		Msg("player joined room")
	return room, nil
}

// Leave removes a player. The room is deleted when it empties; a departing host is
// replaced by the earliest-joined remaining player.
func (r *Registry) Leave(code string, participantID uuid.UUID) (Departure, error) {
	code = NormalizeCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		return Departure{}, ErrRoomNotFound
	}
	return r.leaveLocked(room, participantID)
}

// LeaveAll removes a disconnected participant from every room it belongs to.
func (r *Registry) LeaveAll(participantID uuid.UUID) []Departure {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Departure
	for _, room := range r.rooms {
		room.mu.Lock()
		_, isMember := room.players[participantID]
		room.mu.Unlock()
		if !isMember {
			continue
		}
		if dep, err := r.leaveLocked(room, participantID); err == nil {
			out = append(out, dep)
		}
	}
	return out
}

func (r *Registry) leaveLocked(room *Room, participantID uuid.UUID) (Departure, error) {
	room.mu.Lock()
	defer room.mu.Unlock()

	if _, ok := room.players[participantID]; !ok {
		return Departure{}, ErrNotAPlayer
	}
	room.removeLocked(participantID)
	dep := Departure{Code: room.code, Room: room}

	log := r.logger.Info().
		Str("room_code", room.code).
		Str("participant_id", participantID.String())

	if len(room.order) == 0 {
		room.closeLocked()
		delete(r.rooms, room.code)
		r.observer.RoomCount(len(r.rooms))
		dep.Deleted = true
		log.Msg("room deleted")
		return dep, nil
	}

	if room.hostID == participantID {
		room.hostID = room.order[0]
		dep.HostChanged = true
		dep.NewHostID = room.hostID
		log = log.Str("new_host_id", room.hostID.String())
	}
	log.Int("player_count", len(room.order)).Msg("player left room")
	return dep, nil
}

// Get returns the live room for code, or nil.
func (r *Registry) Get(code string) *Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[NormalizeCode(code)]
}

// Count returns the number of live rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Close deletes every room and cancels their round loops.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for code, room := range r.rooms {
		room.mu.Lock()
		room.closeLocked()
		room.mu.Unlock()
		delete(r.rooms, code)
	}
	r.cancel()
	r.observer.RoomCount(0)
}

func (r *Registry) nextCodeLocked() (string, error) {
	if r.space > 0 && len(r.rooms) >= r.space {
		return "", ErrNoCodeAvailable
	}
	for i := 0; i < randomCodeAttempts; i++ {
		code, err := r.randomCode()
		if err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		if _, taken := r.rooms[code]; !taken {
			return code, nil
		}
	}
	if r.space > 0 && r.space <= maxScannableSpace {
		for n := 0; n < r.space; n++ {
			code := r.codeAt(n)
			if _, taken := r.rooms[code]; !taken {
				return code, nil
			}
		}
	}
	return "", ErrNoCodeAvailable
}

func (r *Registry) randomCode() (string, error) {
	limit := big.NewInt(int64(len(r.alphabet)))
	var b strings.Builder
	for i := 0; i < r.cfg.CodeLength; i++ {
		n, err := rand.Int(r.cfg.Rand, limit)
		if err != nil {
			return "", err
		}
		b.WriteRune(r.alphabet[n.Int64()])
	}
	return b.String(), nil
}

// codeAt renders n in base len(alphabet), zero-padded to the code length.
func (r *Registry) codeAt(n int) string {
	base := len(r.alphabet)
	out := make([]rune, r.cfg.CodeLength)
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = r.alphabet[n%base]
		n /= base
	}
	return string(out)
}

// codeSpace returns base^length, or 0 when it would overflow a comfortable int.
func codeSpace(base, length int) int {
	space := 1
	for i := 0; i < length; i++ {
		if space > (1<<40)/base {
			return 0
		}
		space *= base
	}
	return space
}

func dedupeRunes(s string) []rune {
	seen := make(map[rune]struct{}, len(s))
	var out []rune
	for _, c := range s {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func cleanName(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if r := []rune(name); len(r) > maxNameLength {
		name = string(r[:maxNameLength])
	}
	return name
}

func randomPlayerName() string {
	return fmt.Sprintf("%s%d", defaultPlayer, mrand.IntN(1000))
}
