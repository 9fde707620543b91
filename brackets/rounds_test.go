package brackets

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTotalRounds(t *testing.T) {
	tests := []struct {
		entrants int
		want     int
	}{
		{0, 0}, {1, 0}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {8, 3}, {9, 4}, {16, 4}, {17, 5}, {64, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalRounds(tt.entrants), "entrants=%d", tt.entrants)
	}
}

func TestMatchesInRound(t *testing.T) {
	assert.Equal(t, 3, MatchesInRound(5, 1))
	assert.Equal(t, 2, MatchesInRound(5, 2))
	assert.Equal(t, 1, MatchesInRound(5, 3))
	assert.Equal(t, 4, MatchesInRound(8, 1))
	assert.Equal(t, 0, MatchesInRound(8, 0))
}

func TestRoundName(t *testing.T) {
	tests := []struct {
		name  string
		round int
		total int
		want  string
	}{
		{"final", 5, 5, "Final"},
		{"semifinal", 4, 5, "Semifinal"},
		{"quarterfinal", 3, 5, "Quarterfinal"},
		{"generic", 2, 5, "Round 2"},
		{"first of two", 1, 2, "Semifinal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoundName(tt.round, tt.total))
		})
	}
}

func TestAdvancementSlots(t *testing.T) {
	tests := []struct {
		source   int
		wantNext int
		wantSlot Slot
	}{
		{1, 1, Slot1},
		{2, 1, Slot2},
		{3, 2, Slot1},
		{4, 2, Slot2},
		{7, 4, Slot1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wantNext, NextMatchNumber(tt.source), "source=%d", tt.source)
		assert.Equal(t, tt.wantSlot, SlotFor(tt.source), "source=%d", tt.source)
	}
	assert.Equal(t, "player1_id", Slot1.Column())
	assert.Equal(t, "player2_id", Slot2.Column())
}

func TestHasSecondSource(t *testing.T) {
	// 5 entrants: round 1 has 3 matches, so round-2 match 2 is fed only by match 3.
	assert.True(t, HasSecondSource(1, 3))
	assert.False(t, HasSecondSource(2, 3))
	assert.True(t, HasSecondSource(2, 4))
}

func TestWinner(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	w, ok := Winner(a, b, 3, 1)
	assert.True(t, ok)
	assert.Equal(t, a, w)

	w, ok = Winner(a, b, 0, 2)
	assert.True(t, ok)
	assert.Equal(t, b, w)

	_, ok = Winner(a, b, 2, 2)
	assert.False(t, ok)
}
