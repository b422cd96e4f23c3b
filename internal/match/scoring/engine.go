package scoring

import (
	"sort"

	"github.com/google/uuid"
)

// DefaultIncrement is awarded per correct answer when no override is configured.
const DefaultIncrement = 1

// Engine applies flat per-round scoring: a correct answer earns the increment, anything
// else earns nothing. Time remaining never affects the award.
type Engine struct {
	increment int
}

// NewEngine creates a scoring engine; non-positive increments fall back to DefaultIncrement.
func NewEngine(increment int) *Engine {
	if increment <= 0 {
		increment = DefaultIncrement
	}
	return &Engine{increment: increment}
}

func (e *Engine) Increment() int { return e.increment }

// Award returns the points for one round. answered=false means no answer was recorded.
func (e *Engine) Award(choice int, answered bool, correctIndex int) int {
	if answered && choice == correctIndex {
		return e.increment
	}
	return 0
}

// Standing is one player's final position.
type Standing struct {
	ID      uuid.UUID
	Name    string
	Score   int
	Correct int
}

// Rank sorts a copy of standings by descending score. Equal scores keep their input
// order (join order in practice); callers must not rely on any particular tie order.
func Rank(standings []Standing) []Standing {
	out := append([]Standing(nil), standings...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Placements assigns competition ranks to already ranked standings: equal scores share a
// place and the next distinct score skips ahead (1, 1, 3).
func Placements(ranked []Standing) []int {
	out := make([]int, len(ranked))
	for i, s := range ranked {
		if i > 0 && s.Score == ranked[i-1].Score {
			out[i] = out[i-1]
			continue
		}
		out[i] = i + 1
	}
	return out
}

// Winners returns the IDs sharing the top score. No one wins a game where nobody scored.
func Winners(ranked []Standing) []uuid.UUID {
	if len(ranked) == 0 || ranked[0].Score == 0 {
		return nil
	}
	var ids []uuid.UUID
	for _, s := range ranked {
		if s.Score != ranked[0].Score {
			break
		}
		ids = append(ids, s.ID)
	}
	return ids
}

// Accuracy is correct answers over rounds played, 0 when no rounds ran.
func Accuracy(correct, rounds int) float64 {
	if rounds <= 0 {
		return 0
	}
	return float64(correct) / float64(rounds)
}
