package rules

import (
	"strings"

	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
)

// Contest types with dedicated profiles
const (
	Cash       = "cash"
	SmallField = "small-field"
	MidSize    = "mid-size"
	LargeField = "large-field"

	// DefaultContestType is used for unknown or empty contest types.
	DefaultContestType = MidSize
)

// Range is an inclusive integer band.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether v falls within the band.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// StackRules controls which stacks a contest favors.
type StackRules struct {
	QBStackSize      Range   `json:"qb_stack_size"`
	RequireBringback bool    `json:"require_bringback"`
	MinGameTotal     float64 `json:"min_game_total"`
}

// PositionPair is an unordered pair of positions.
type PositionPair struct {
	A types.Position `json:"a"`
	B types.Position `json:"b"`
}

// Pair builds a PositionPair in canonical order so lookups are symmetric.
func Pair(a, b types.Position) PositionPair {
	if positionRank(b) < positionRank(a) {
		a, b = b, a
	}
	return PositionPair{A: a, B: b}
}

func (p PositionPair) String() string {
	return string(p.A) + "-" + string(p.B)
}

// MarshalText lets pairs key JSON objects.
func (p PositionPair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func positionRank(p types.Position) int {
	for i, pos := range types.AllPositions {
		if pos == p {
			return i
		}
	}
	return len(types.AllPositions)
}

// Profile holds the numeric limits for one contest type.
type Profile struct {
	ContestType string `json:"contest_type"`
	// MaxOwnership caps the ownership of any single rostered player.
	MaxOwnership float64 `json:"max_ownership"`
	// MinOwnership is a lineup-average floor; it is advisory only.
	MinOwnership float64 `json:"min_ownership"`
	// MaxExposure is the share of a batch (percent) a player may appear in.
	MaxExposure           float64                  `json:"max_exposure"`
	SalaryRemaining       Range                    `json:"salary_remaining"`
	Stack                 StackRules               `json:"stack"`
	CorrelationThresholds map[PositionPair]float64 `json:"correlation_thresholds"`
}

// Threshold returns the minimum correlation for a position pair.
func (p Profile) Threshold(a, b types.Position) float64 {
	return p.CorrelationThresholds[Pair(a, b)]
}

// IsTournament reports whether the profile belongs to a GPP-style contest.
func (p Profile) IsTournament() bool {
	return IsTournament(p.ContestType)
}

// Resolve maps a contest type onto its rule profile. Unknown types get the
// mid-size profile.
func Resolve(contestType string) Profile {
	switch normalize(contestType) {
	case Cash:
		return Profile{
			ContestType:     Cash,
			MaxOwnership:    100,
			MinOwnership:    15,
			MaxExposure:     100,
			SalaryRemaining: Range{Min: 0, Max: 500},
			Stack: StackRules{
				QBStackSize: Range{Min: 1, Max: 2},
			},
			CorrelationThresholds: thresholds(0.50, 0.40, 0.30, 0.25),
		}
	case SmallField:
		return Profile{
			ContestType:     SmallField,
			MaxOwnership:    60,
			MinOwnership:    10,
			MaxExposure:     60,
			SalaryRemaining: Range{Min: 0, Max: 1000},
			Stack: StackRules{
				QBStackSize:  Range{Min: 2, Max: 3},
				MinGameTotal: 42,
			},
			CorrelationThresholds: thresholds(0.45, 0.35, 0.25, 0.20),
		}
	case LargeField:
		return Profile{
			ContestType:     LargeField,
			MaxOwnership:    35,
			MinOwnership:    5,
			MaxExposure:     40,
			SalaryRemaining: Range{Min: 200, Max: 2500},
			Stack: StackRules{
				QBStackSize:      Range{Min: 2, Max: 4},
				RequireBringback: true,
				MinGameTotal:     47,
			},
			CorrelationThresholds: thresholds(0.35, 0.25, 0.15, 0.10),
		}
	default:
		return Profile{
			ContestType:     MidSize,
			MaxOwnership:    45,
			MinOwnership:    8,
			MaxExposure:     50,
			SalaryRemaining: Range{Min: 0, Max: 1500},
			Stack: StackRules{
				QBStackSize:      Range{Min: 2, Max: 3},
				RequireBringback: true,
				MinGameTotal:     45,
			},
			CorrelationThresholds: thresholds(0.40, 0.30, 0.20, 0.15),
		}
	}
}

func thresholds(qbWR, qbTE, rbDST, wrWR float64) map[PositionPair]float64 {
	return map[PositionPair]float64{
		Pair(types.QB, types.WR):  qbWR,
		Pair(types.QB, types.TE):  qbTE,
		Pair(types.RB, types.DST): rbDST,
		Pair(types.WR, types.WR):  wrWR,
	}
}

// IsTournament reports whether a contest type is GPP-style. Only cash games
// and their head-to-head/double-up aliases are not.
func IsTournament(contestType string) bool {
	switch normalize(contestType) {
	case Cash, "h2h", "50-50", "double-up":
		return false
	}
	return true
}

func normalize(contestType string) string {
	s := strings.ToLower(strings.TrimSpace(contestType))
	s = strings.ReplaceAll(s, "_", "-")
	return strings.ReplaceAll(s, " ", "-")
}
