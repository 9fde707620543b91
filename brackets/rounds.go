package brackets

import (
	"fmt"
	"math/bits"
)

// TotalRounds returns ceil(log2(n)); a lone entrant needs no rounds.
func TotalRounds(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// MatchesInRound returns ceil(n / 2^round).
func MatchesInRound(n, round int) int {
	if n <= 0 || round <= 0 {
		return 0
	}
	size := 1 << round
	return (n + size - 1) / size
}

// RoundName names a round by its distance from the final.
func RoundName(roundNumber, totalRounds int) string {
	switch totalRounds - roundNumber {
	case 0:
		return "Final"
	case 1:
		return "Semifinal"
	case 2:
		return "Quarterfinal"
	default:
		return fmt.Sprintf("Round %d", roundNumber)
	}
}
