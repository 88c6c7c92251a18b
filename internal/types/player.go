package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Position is a roster position label for classic NFL contests.
type Position string

const (
	QB  Position = "QB"
	RB  Position = "RB"
	WR  Position = "WR"
	TE  Position = "TE"
	DST Position = "DST"
)

// AllPositions lists every position in roster processing order.
var AllPositions = []Position{QB, RB, WR, TE, DST}

// ParsePosition maps a provider label onto a Position.
func ParsePosition(label string) (Position, error) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "QB":
		return QB, nil
	case "RB":
		return RB, nil
	case "WR":
		return WR, nil
	case "TE":
		return TE, nil
	case "DST", "D/ST", "DEF", "D":
		return DST, nil
	default:
		return "", fmt.Errorf("unknown position %q", label)
	}
}

// Valid reports whether p is one of the enumerated positions.
func (p Position) Valid() bool {
	switch p {
	case QB, RB, WR, TE, DST:
		return true
	}
	return false
}

// IsFlexEligible reports whether p may occupy the FLEX slot.
func (p Position) IsFlexEligible() bool {
	return p == RB || p == WR || p == TE
}

// IsPassCatcher reports whether p is a QB stacking partner.
func (p Position) IsPassCatcher() bool {
	return p == WR || p == TE
}

// UnmarshalJSON accepts provider aliases such as "D/ST". Unknown labels are
// kept as-is so Validate can drop the player instead of failing the decode.
func (p *Position) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParsePosition(label)
	if err != nil {
		*p = Position(strings.ToUpper(strings.TrimSpace(label)))
		return nil
	}
	*p = parsed
	return nil
}

// Player is an enriched, immutable entry in the player pool.
type Player struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Position        Position `json:"position"`
	Team            string   `json:"team"`
	Opponent        string   `json:"opponent"`
	Salary          int      `json:"salary"`
	ProjectedPoints float64  `json:"projected_points"`
	Ownership       float64  `json:"ownership"`
	// GameTotal is the implied Vegas total for the player's game; 0 when unknown.
	GameTotal float64 `json:"game_total,omitempty"`
}

// Value returns projected points per $1000 of salary.
func (p Player) Value() float64 {
	if p.Salary <= 0 {
		return 0
	}
	return p.ProjectedPoints / (float64(p.Salary) / 1000)
}

// Validate checks the fields the engine depends on.
func (p Player) Validate() error {
	var problems []string
	if strings.TrimSpace(p.ID) == "" {
		problems = append(problems, "missing id")
	}
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "missing name")
	}
	if !p.Position.Valid() {
		problems = append(problems, fmt.Sprintf("invalid position %q", p.Position))
	}
	if strings.TrimSpace(p.Team) == "" {
		problems = append(problems, "missing team")
	}
	if p.Salary <= 0 {
		problems = append(problems, fmt.Sprintf("salary must be positive, got %d", p.Salary))
	}
	if p.ProjectedPoints < 0 {
		problems = append(problems, fmt.Sprintf("projected points must be non-negative, got %.2f", p.ProjectedPoints))
	}
	if p.Ownership < 0 || p.Ownership > 100 {
		problems = append(problems, fmt.Sprintf("ownership must be within 0-100, got %.2f", p.Ownership))
	}
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{PlayerID: p.ID, PlayerName: p.Name, Problems: problems}
}

// Less orders players best-first: projection desc, salary asc, id asc.
func Less(a, b Player) bool {
	if a.ProjectedPoints != b.ProjectedPoints {
		return a.ProjectedPoints > b.ProjectedPoints
	}
	if a.Salary != b.Salary {
		return a.Salary < b.Salary
	}
	return a.ID < b.ID
}

// MeanOwnership averages ownership across players; 0 for an empty slice.
func MeanOwnership(players []Player) float64 {
	if len(players) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range players {
		total += p.Ownership
	}
	return total / float64(len(players))
}
