package scoring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAwardIsFlat(t *testing.T) {
	e := NewEngine(100)
	assert.Equal(t, 100, e.Award(2, true, 2))
	assert.Equal(t, 0, e.Award(1, true, 2))
	assert.Equal(t, 0, e.Award(0, false, 0), "no answer never scores even if zero value matches")

	assert.Equal(t, DefaultIncrement, NewEngine(0).Increment())
}

func TestRankDescendingStable(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	ranked := Rank([]Standing{
		{ID: a, Score: 1},
		{ID: b, Score: 3},
		{ID: c, Score: 1},
		{ID: d, Score: 2},
	})

	var ids []uuid.UUID
	for _, s := range ranked {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []uuid.UUID{b, d, a, c}, ids)
	assert.Equal(t, []uuid.UUID{b}, Winners(ranked))
}

func TestWinnersTiesAndZero(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.Equal(t, []uuid.UUID{a, b}, Winners([]Standing{{ID: a, Score: 2}, {ID: b, Score: 2}}))
	assert.Nil(t, Winners([]Standing{{ID: a}, {ID: b}}))
}

func TestPlacementsShareTies(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	ranked := Rank([]Standing{
		{ID: a, Score: 3},
		{ID: b, Score: 3},
		{ID: c, Score: 1},
		{ID: d, Score: 0},
	})
	assert.Equal(t, []int{1, 1, 3, 4}, Placements(ranked))
	assert.Equal(t, []int{1, 1}, Placements([]Standing{{ID: a}, {ID: b}}))
	assert.Empty(t, Placements(nil))
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 0.5, Accuracy(2, 4))
	assert.Equal(t, 0.0, Accuracy(2, 0))
}
