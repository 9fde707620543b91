package brackets

import "github.com/google/uuid"

type Slot int

const (
	Slot1 Slot = 1
	Slot2 Slot = 2
)

func (s Slot) Column() string {
	if s == Slot2 {
		return "player2_id"
	}
	return "player1_id"
}

// NextMatchNumber is the match in the following round fed by matchNumber.
func NextMatchNumber(matchNumber int) int {
	return (matchNumber + 1) / 2
}

// SlotFor keys the destination slot off the source match: matches 2k-1 and 2k
// feed match k, the odd one into slot 1 and the even one into slot 2.
func SlotFor(sourceMatchNumber int) Slot {
	if sourceMatchNumber%2 == 1 {
		return Slot1
	}
	return Slot2
}

// HasSecondSource reports whether match k of a round has a feeder for slot 2
// in a previous round holding prevRoundMatches matches. Without one the match
// is a structural bye.
func HasSecondSource(matchNumber, prevRoundMatches int) bool {
	return 2*matchNumber <= prevRoundMatches
}

// Winner picks the higher scoring occupant. ok is false on a tie.
func Winner(player1, player2 uuid.UUID, score1, score2 int) (winner uuid.UUID, ok bool) {
	switch {
	case score1 > score2:
		return player1, true
	case score2 > score1:
		return player2, true
	default:
		return uuid.Nil, false
	}
}
