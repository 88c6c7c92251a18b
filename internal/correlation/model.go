package correlation

import (
	"math"

	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
)

// Relationship classifies a pairwise correlation.
type Relationship string

const (
	Positive Relationship = "positive"
	Negative Relationship = "negative"
	Neutral  Relationship = "neutral"
)

// Classification cutoffs
const (
	PositiveCutoff = 0.3
	NegativeCutoff = -0.3
)

const (
	sameTeamBoost       = 1.2
	opponentDamping     = 0.5
	unrelatedDamping    = 0.2
	defenseVsOpposition = -0.35
)

// PairCorrelation returns the teammate correlation for two positions. The
// switch covers every unordered pair so there is no silent fallback.
func PairCorrelation(a, b types.Position) float64 {
	if !a.Valid() || !b.Valid() {
		return 0
	}
	if rank(b) < rank(a) {
		a, b = b, a
	}

	switch a {
	case types.QB:
		switch b {
		case types.QB:
			return 0
		case types.RB:
			return 0.10
		case types.WR:
			return 0.75
		case types.TE:
			return 0.60
		case types.DST:
			return -0.20
		}
	case types.RB:
		switch b {
		case types.RB:
			return -0.30
		case types.WR:
			return -0.15
		case types.TE:
			return -0.10
		case types.DST:
			return 0.45
		}
	case types.WR:
		switch b {
		case types.WR:
			return 0.35
		case types.TE:
			return 0.15
		case types.DST:
			return -0.10
		}
	case types.TE:
		switch b {
		case types.TE:
			return 0
		case types.DST:
			return -0.05
		}
	case types.DST:
		return 0
	}
	return 0
}

// StackCorrelation averages PairCorrelation over every pair in the group.
func StackCorrelation(players []types.Player) float64 {
	if len(players) < 2 {
		return 0
	}
	total := 0.0
	pairs := 0
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			total += PairCorrelation(players[i].Position, players[j].Position)
			pairs++
		}
	}
	return total / float64(pairs)
}

// PlayerCorrelation scores a concrete player pair using their team
// relationship: teammates are boosted, opponents damped (DST against the
// opposing offense turns negative) and unrelated players pushed toward zero.
func PlayerCorrelation(a, b types.Player) float64 {
	base := PairCorrelation(a.Position, b.Position)

	var corr float64
	switch {
	case a.Team != "" && a.Team == b.Team:
		corr = base * sameTeamBoost
	case areOpponents(a, b):
		if (a.Position == types.DST) != (b.Position == types.DST) {
			corr = defenseVsOpposition
		} else {
			corr = base * opponentDamping
		}
	default:
		corr = base * unrelatedDamping
	}

	return math.Max(-1.0, math.Min(1.0, corr))
}

// Classify buckets a correlation value.
func Classify(corr float64) Relationship {
	switch {
	case corr > PositiveCutoff:
		return Positive
	case corr < NegativeCutoff:
		return Negative
	default:
		return Neutral
	}
}

func areOpponents(a, b types.Player) bool {
	return (a.Opponent != "" && a.Opponent == b.Team) || (b.Opponent != "" && b.Opponent == a.Team)
}

func rank(p types.Position) int {
	for i, pos := range types.AllPositions {
		if pos == p {
			return i
		}
	}
	return len(types.AllPositions)
}
