package types

// StackType labels a stack template.
type StackType string

const (
	StackQBWR     StackType = "QB+WR"
	StackQBWRWR   StackType = "QB+WR+WR"
	StackQBTE     StackType = "QB+TE"
	StackQBWRTE   StackType = "QB+WR+TE"
	StackQBWRWRTE StackType = "QB+WR+WR+TE"
	StackRBDST    StackType = "RB+DST"
)

// Stack is a scored grouping of same-team players.
type Stack struct {
	ID              string     `json:"id"`
	Type            StackType  `json:"type"`
	Team            string     `json:"team"`
	Players         []Player   `json:"players"`
	Positions       []Position `json:"positions"`
	Correlation     float64    `json:"correlation"`
	TotalSalary     int        `json:"total_salary"`
	ProjectedPoints float64    `json:"projected_points"`
	MeanOwnership   float64    `json:"mean_ownership"`
	LeverageScore   float64    `json:"leverage_score"`
}

// SlotAssignment records which roster slot a player fills.
type SlotAssignment struct {
	Slot     string `json:"slot"`
	PlayerID string `json:"player_id"`
}

// Lineup is a complete, legal roster.
type Lineup struct {
	ID              string           `json:"id"`
	Players         []Player         `json:"players"`
	Slots           []SlotAssignment `json:"slots"`
	TotalSalary     int              `json:"total_salary"`
	ProjectedPoints float64          `json:"projected_points"`
	// TotalOwnership is the mean ownership of the rostered players.
	TotalOwnership float64 `json:"total_ownership"`
	StackID        string  `json:"stack_id,omitempty"`
}

// PlayerIDs returns the ids of the rostered players in slot order.
func (l Lineup) PlayerIDs() []string {
	ids := make([]string, len(l.Players))
	for i, p := range l.Players {
		ids[i] = p.ID
	}
	return ids
}

// Contains reports whether the lineup rosters playerID.
func (l Lineup) Contains(playerID string) bool {
	for _, p := range l.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}
