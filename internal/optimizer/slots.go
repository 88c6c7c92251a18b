package optimizer

import (
	"errors"
	"fmt"

	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
)

// DefaultSalaryCap is the DraftKings classic NFL cap.
const DefaultSalaryCap = 50000

// FlexSlot is the name of the RB/WR/TE slot.
const FlexSlot = "FLEX"

// ErrInvalidLineup marks a roster that failed post-construction validation.
var ErrInvalidLineup = errors.New("invalid lineup")

func errInvalidLineup(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidLineup, fmt.Sprintf(format, args...))
}

// PositionSlot represents a position slot in a lineup
type PositionSlot struct {
	SlotName         string           // e.g., "QB", "FLEX"
	AllowedPositions []types.Position // e.g., [QB] or [RB, WR, TE]
	Priority         int              // Fill order (1 = first)
}

// Accepts reports whether a player at pos can fill the slot.
func (s PositionSlot) Accepts(pos types.Position) bool {
	for _, allowed := range s.AllowedPositions {
		if allowed == pos {
			return true
		}
	}
	return false
}

// IsFlex reports whether the slot admits more than one position.
func (s PositionSlot) IsFlex() bool {
	return len(s.AllowedPositions) > 1
}

// ClassicNFLSlots returns the 9-man roster template in processing order.
func ClassicNFLSlots() []PositionSlot {
	return []PositionSlot{
		{SlotName: "QB", AllowedPositions: []types.Position{types.QB}, Priority: 1},
		{SlotName: "RB", AllowedPositions: []types.Position{types.RB}, Priority: 2},
		{SlotName: "RB", AllowedPositions: []types.Position{types.RB}, Priority: 3},
		{SlotName: "WR", AllowedPositions: []types.Position{types.WR}, Priority: 4},
		{SlotName: "WR", AllowedPositions: []types.Position{types.WR}, Priority: 5},
		{SlotName: "WR", AllowedPositions: []types.Position{types.WR}, Priority: 6},
		{SlotName: "TE", AllowedPositions: []types.Position{types.TE}, Priority: 7},
		{SlotName: FlexSlot, AllowedPositions: []types.Position{types.RB, types.WR, types.TE}, Priority: 8},
		{SlotName: "DST", AllowedPositions: []types.Position{types.DST}, Priority: 9},
	}
}

// CheckPool verifies the pool can cover every dedicated slot plus the flex
// slots. All shortfalls are reported together.
func CheckPool(byPosition map[types.Position][]types.Player, slots []PositionSlot) error {
	dedicated := make(map[types.Position]int)
	flexSlots := 0
	flexPositions := make(map[types.Position]bool)
	for _, slot := range slots {
		if slot.IsFlex() {
			flexSlots++
			for _, pos := range slot.AllowedPositions {
				flexPositions[pos] = true
			}
			continue
		}
		dedicated[slot.AllowedPositions[0]]++
	}

	var shortfalls []types.Shortfall
	for _, pos := range types.AllPositions {
		required, ok := dedicated[pos]
		if !ok {
			continue
		}
		if available := len(byPosition[pos]); available < required {
			shortfalls = append(shortfalls, types.Shortfall{
				Position:  string(pos),
				Required:  required,
				Available: available,
			})
		}
	}

	if flexSlots > 0 {
		required, available := flexSlots, 0
		for _, pos := range types.AllPositions {
			if !flexPositions[pos] {
				continue
			}
			required += dedicated[pos]
			available += len(byPosition[pos])
		}
		if available < required {
			shortfalls = append(shortfalls, types.Shortfall{
				Position:  FlexSlot,
				Required:  required,
				Available: available,
			})
		}
	}

	if len(shortfalls) > 0 {
		return &types.InsufficientPoolError{Shortfalls: shortfalls}
	}
	return nil
}

// ValidateLineup checks a finished roster against the template and cap.
func ValidateLineup(lineup types.Lineup, slots []PositionSlot, salaryCap int) error {
	if len(lineup.Players) != len(slots) || len(lineup.Slots) != len(slots) {
		return errInvalidLineup("roster has %d players, template needs %d", len(lineup.Players), len(slots))
	}

	salary := 0
	seen := make(map[string]bool, len(lineup.Players))
	for i, p := range lineup.Players {
		if seen[p.ID] {
			return errInvalidLineup("player %s rostered twice", p.ID)
		}
		seen[p.ID] = true

		if lineup.Slots[i].PlayerID != p.ID || lineup.Slots[i].Slot != slots[i].SlotName {
			return errInvalidLineup("slot %d assignment does not match template", i)
		}
		if !slots[i].Accepts(p.Position) {
			return errInvalidLineup("%s cannot fill %s slot", p.Position, slots[i].SlotName)
		}
		salary += p.Salary
	}

	if salary > salaryCap {
		return errInvalidLineup("salary %d exceeds cap %d", salary, salaryCap)
	}
	if salary != lineup.TotalSalary {
		return errInvalidLineup("salary total %d does not match players %d", lineup.TotalSalary, salary)
	}
	return nil
}
