package analysis

import (
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
)

// Unstacked labels lineups without a primary QB stack.
const Unstacked = "none"

// PlayerExposure is a player's share of the analyzed batch.
type PlayerExposure struct {
	PlayerID   string         `json:"player_id"`
	Name       string         `json:"name"`
	Position   types.Position `json:"position"`
	Count      int            `json:"count"`
	Percentage float64        `json:"percentage"`
}

// OwnershipBucket counts rostered player slots whose ownership falls in
// [Min, Max).
type OwnershipBucket struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// StackBreakdown counts primary stack shapes across the batch.
type StackBreakdown struct {
	ByType        map[types.StackType]int `json:"by_type"`
	WithBringBack int                     `json:"with_bring_back"`
	WithUnique    int                     `json:"with_unique"`
}

// Summary holds distribution statistics for one metric.
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// PortfolioReport is the batch-level diagnostic.
type PortfolioReport struct {
	ContestType           string            `json:"contest_type"`
	LineupCount           int               `json:"lineup_count"`
	Lineups               []LineupReport    `json:"lineups"`
	Exposure              []PlayerExposure  `json:"exposure"`
	OwnershipDistribution []OwnershipBucket `json:"ownership_distribution"`
	Stacks                StackBreakdown    `json:"stacks"`
	Projection            Summary           `json:"projection"`
	Ownership             Summary           `json:"ownership"`
	// MeanOverlap is the average number of players shared by two lineups.
	MeanOverlap float64 `json:"mean_overlap"`
	// GameTheoryScore is the mean of uniqueness × leverage.
	GameTheoryScore float64 `json:"game_theory_score"`
}

var ownershipBuckets = []OwnershipBucket{
	{Label: "0-5%", Min: 0, Max: 5},
	{Label: "5-10%", Min: 5, Max: 10},
	{Label: "10-20%", Min: 10, Max: 20},
	{Label: "20-30%", Min: 20, Max: 30},
	{Label: "30%+", Min: 30, Max: 101},
}

// Analyze reports on a batch of already-generated lineups. It does not
// modify the lineups.
func (a *Analyzer) Analyze(lineups []types.Lineup) PortfolioReport {
	report := PortfolioReport{
		ContestType:           a.Profile.ContestType,
		LineupCount:           len(lineups),
		Lineups:               make([]LineupReport, len(lineups)),
		Exposure:              make([]PlayerExposure, 0),
		OwnershipDistribution: append([]OwnershipBucket(nil), ownershipBuckets...),
		Stacks:                StackBreakdown{ByType: make(map[types.StackType]int)},
	}
	if len(lineups) == 0 {
		return report
	}

	projections := make([]float64, len(lineups))
	ownerships := make([]float64, len(lineups))
	scores := make([]float64, len(lineups))

	for i, lineup := range lineups {
		lr := a.AnalyzeLineup(lineup)
		report.Lineups[i] = lr

		for _, p := range lineup.Players {
			projections[i] += p.ProjectedPoints
		}
		ownerships[i] = lr.Ownership.Average
		scores[i] = lr.GameTheory.Uniqueness * lr.GameTheory.LeverageScore

		if lr.Stacks.Primary != nil {
			report.Stacks.ByType[lr.Stacks.Primary.Type]++
		} else {
			report.Stacks.ByType[Unstacked]++
		}
		if lr.Stacks.BringBack != nil {
			report.Stacks.WithBringBack++
		}
		if len(lr.Stacks.Unique) > 0 {
			report.Stacks.WithUnique++
		}
	}

	report.Exposure = exposure(lineups)
	bucketOwnership(report.OwnershipDistribution, lineups)
	report.Projection = summarize(projections)
	report.Ownership = summarize(ownerships)
	report.MeanOverlap = meanOverlap(lineups)
	report.GameTheoryScore = stat.Mean(scores, nil)

	a.logger.WithFields(logrus.Fields{
		"contest_type":      report.ContestType,
		"lineups":           report.LineupCount,
		"unique_players":    len(report.Exposure),
		"mean_overlap":      report.MeanOverlap,
		"game_theory_score": report.GameTheoryScore,
	}).Debug("Analyzed lineup portfolio")

	return report
}

func exposure(lineups []types.Lineup) []PlayerExposure {
	byID := make(map[string]*PlayerExposure)
	for _, lineup := range lineups {
		for _, p := range lineup.Players {
			e, ok := byID[p.ID]
			if !ok {
				e = &PlayerExposure{PlayerID: p.ID, Name: p.Name, Position: p.Position}
				byID[p.ID] = e
			}
			e.Count++
		}
	}

	out := make([]PlayerExposure, 0, len(byID))
	for _, e := range byID {
		e.Percentage = float64(e.Count) / float64(len(lineups)) * 100
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

func bucketOwnership(buckets []OwnershipBucket, lineups []types.Lineup) {
	for _, lineup := range lineups {
		for _, p := range lineup.Players {
			for i := range buckets {
				if p.Ownership >= buckets[i].Min && p.Ownership < buckets[i].Max {
					buckets[i].Count++
					break
				}
			}
		}
	}
}

func summarize(data []float64) Summary {
	if len(data) == 0 {
		return Summary{}
	}
	s := Summary{
		Mean: stat.Mean(data, nil),
		Min:  floats.Min(data),
		Max:  floats.Max(data),
	}
	if len(data) > 1 {
		s.StdDev = stat.StdDev(data, nil)
	}
	return s
}

// meanOverlap averages the shared-player count over every lineup pair.
func meanOverlap(lineups []types.Lineup) float64 {
	if len(lineups) < 2 {
		return 0
	}

	sets := make([]map[string]bool, len(lineups))
	for i, lineup := range lineups {
		sets[i] = make(map[string]bool, len(lineup.Players))
		for _, p := range lineup.Players {
			sets[i][p.ID] = true
		}
	}

	overlaps := make([]float64, 0, len(lineups)*(len(lineups)-1)/2)
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			shared := 0
			for id := range sets[i] {
				if sets[j][id] {
					shared++
				}
			}
			overlaps = append(overlaps, float64(shared))
		}
	}
	return stat.Mean(overlaps, nil)
}
