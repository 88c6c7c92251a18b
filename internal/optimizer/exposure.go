package optimizer

import (
	"sort"
	"sync"

	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
)

// ExposureTracker is the authoritative running count of player appearances
// across accepted lineups. Counts only move when a lineup is accepted, so a
// candidate is always judged against the batch as it stands.
type ExposureTracker struct {
	mu          sync.Mutex
	maxExposure float64
	counts      map[string]int
	total       int
}

// PlayerExposure represents exposure for a single player
type PlayerExposure struct {
	PlayerID   string  `json:"player_id"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// NewExposureTracker creates a tracker; a maxExposure of 100 or more disables the limit.
func NewExposureTracker(maxExposure float64) *ExposureTracker {
	return &ExposureTracker{
		maxExposure: maxExposure,
		counts:      make(map[string]int),
	}
}

// Allowed reports whether playerID is still below the exposure limit.
func (t *ExposureTracker) Allowed(playerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.maxExposure >= 100 || t.total == 0 {
		return true
	}
	return t.exposureLocked(playerID) < t.maxExposure
}

// Record adds an accepted lineup to the running counts.
func (t *ExposureTracker) Record(lineup types.Lineup) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range lineup.Players {
		t.counts[p.ID]++
	}
	t.total++
}

// Exposure returns a player's current exposure percentage.
func (t *ExposureTracker) Exposure(playerID string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exposureLocked(playerID)
}

// Total returns the number of accepted lineups.
func (t *ExposureTracker) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Report lists every rostered player, most exposed first.
func (t *ExposureTracker) Report() []PlayerExposure {
	t.mu.Lock()
	defer t.mu.Unlock()

	report := make([]PlayerExposure, 0, len(t.counts))
	for id, count := range t.counts {
		report = append(report, PlayerExposure{
			PlayerID:   id,
			Count:      count,
			Percentage: t.exposureLocked(id),
		})
	}
	sort.Slice(report, func(i, j int) bool {
		if report[i].Count != report[j].Count {
			return report[i].Count > report[j].Count
		}
		return report[i].PlayerID < report[j].PlayerID
	})
	return report
}

func (t *ExposureTracker) exposureLocked(playerID string) float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.counts[playerID]) / float64(t.total) * 100
}
