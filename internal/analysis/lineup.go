package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/dfs-lineup-engine/internal/correlation"
	"github.com/stitts-dev/dfs-lineup-engine/internal/rules"
	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
	"github.com/stitts-dev/dfs-lineup-engine/pkg/logger"
)

const (
	defaultSalaryCap = 50000

	// leverage spots: low owned and cheap for their projection
	leverageOwnership = 10.0
	leverageValue     = 2.0

	// pivotOwnership is the lineup-average ownership that triggers a pivot.
	pivotOwnership = 20.0

	highRisk   = 0.7
	mediumRisk = 0.4

	topN = 3
)

// Risk levels
const (
	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"
)

// PlayerValue is a player with its points-per-$1K value.
type PlayerValue struct {
	PlayerID        string         `json:"player_id"`
	Name            string         `json:"name"`
	Position        types.Position `json:"position"`
	Team            string         `json:"team"`
	Salary          int            `json:"salary"`
	ProjectedPoints float64        `json:"projected_points"`
	Ownership       float64        `json:"ownership"`
	Value           float64        `json:"value"`
}

// OwnershipFactors summarizes ownership for one lineup.
type OwnershipFactors struct {
	Total         float64       `json:"total"`
	Average       float64       `json:"average"`
	Highest       []PlayerValue `json:"highest"`
	Lowest        []PlayerValue `json:"lowest"`
	LeverageSpots []PlayerValue `json:"leverage_spots"`
}

// DetectedStack is a correlated group found inside a lineup.
type DetectedStack struct {
	Type        types.StackType  `json:"type"`
	Team        string           `json:"team"`
	PlayerIDs   []string         `json:"player_ids"`
	Positions   []types.Position `json:"positions"`
	Correlation float64          `json:"correlation"`
}

// StackFactors lists the stacks detected in one lineup.
type StackFactors struct {
	Primary   *DetectedStack  `json:"primary,omitempty"`
	BringBack *DetectedStack  `json:"bring_back,omitempty"`
	Unique    []DetectedStack `json:"unique"`
}

// PairCorrelation is one classified player pair.
type PairCorrelation struct {
	PlayerA      string                   `json:"player_a"`
	PlayerB      string                   `json:"player_b"`
	Correlation  float64                  `json:"correlation"`
	Relationship correlation.Relationship `json:"relationship"`
}

// CorrelationFactors classifies every player pair in a lineup.
type CorrelationFactors struct {
	Positive     []PairCorrelation `json:"positive"`
	Negative     []PairCorrelation `json:"negative"`
	NeutralCount int               `json:"neutral_count"`
	Average      float64           `json:"average"`
}

// ValueFactors summarizes salary usage.
type ValueFactors struct {
	TotalSalary      int                    `json:"total_salary"`
	SalaryRemaining  int                    `json:"salary_remaining"`
	SalaryInBand     bool                   `json:"salary_in_band"`
	AverageValue     float64                `json:"average_value"`
	Best             []PlayerValue          `json:"best"`
	Worst            []PlayerValue          `json:"worst"`
	SalaryByPosition map[types.Position]int `json:"salary_by_position"`
}

// GameTheoryFactors scores field differentiation.
type GameTheoryFactors struct {
	Uniqueness      float64  `json:"uniqueness"`
	ContestEdge     float64  `json:"contest_edge"`
	LeverageScore   float64  `json:"leverage_score"`
	RiskLevel       string   `json:"risk_level"`
	Recommendations []string `json:"recommendations"`
}

// LineupReport is the diagnostic view of a single lineup.
type LineupReport struct {
	LineupID     string             `json:"lineup_id"`
	Ownership    OwnershipFactors   `json:"ownership"`
	Stacks       StackFactors       `json:"stacks"`
	Correlations CorrelationFactors `json:"correlations"`
	Value        ValueFactors       `json:"value"`
	GameTheory   GameTheoryFactors  `json:"game_theory"`
}

// Analyzer produces lineup diagnostics against a contest profile. It holds
// no state between calls.
type Analyzer struct {
	Profile   rules.Profile
	SalaryCap int
	logger    *logrus.Entry
}

// NewAnalyzer resolves contestType and returns an analyzer for it. A
// non-positive salaryCap selects the classic 50,000 cap.
func NewAnalyzer(contestType string, salaryCap int) *Analyzer {
	if salaryCap <= 0 {
		salaryCap = defaultSalaryCap
	}
	return &Analyzer{
		Profile:   rules.Resolve(contestType),
		SalaryCap: salaryCap,
		logger:    logger.WithComponent("portfolio_analyzer"),
	}
}

// AnalyzeLineup computes every factor group for one lineup.
func (a *Analyzer) AnalyzeLineup(lineup types.Lineup) LineupReport {
	report := LineupReport{
		LineupID:     lineup.ID,
		Ownership:    ownershipFactors(lineup.Players),
		Stacks:       detectStacks(lineup.Players),
		Correlations: correlationFactors(lineup.Players),
		Value:        a.valueFactors(lineup.Players),
	}
	report.GameTheory = a.gameTheory(lineup.Players, report)
	return report
}

func valuesOf(players []types.Player) []PlayerValue {
	values := make([]PlayerValue, len(players))
	for i, p := range players {
		values[i] = PlayerValue{
			PlayerID:        p.ID,
			Name:            p.Name,
			Position:        p.Position,
			Team:            p.Team,
			Salary:          p.Salary,
			ProjectedPoints: p.ProjectedPoints,
			Ownership:       p.Ownership,
			Value:           p.Value(),
		}
	}
	return values
}

// ranked returns the first n entries of values sorted by less; ties keep
// roster order.
func ranked(values []PlayerValue, n int, less func(a, b PlayerValue) bool) []PlayerValue {
	sorted := append([]PlayerValue(nil), values...)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func ownershipFactors(players []types.Player) OwnershipFactors {
	values := valuesOf(players)
	factors := OwnershipFactors{
		Average: types.MeanOwnership(players),
		Highest: ranked(values, topN, func(a, b PlayerValue) bool { return a.Ownership > b.Ownership }),
		Lowest:  ranked(values, topN, func(a, b PlayerValue) bool { return a.Ownership < b.Ownership }),
	}
	factors.LeverageSpots = make([]PlayerValue, 0)
	for _, v := range values {
		factors.Total += v.Ownership
		if v.Ownership < leverageOwnership && v.Value > leverageValue {
			factors.LeverageSpots = append(factors.LeverageSpots, v)
		}
	}
	return factors
}

// detectStacks finds the QB's same-team pass catchers, the bring-back from
// the QB's opponent, and RB+WR pairings on other teams.
func detectStacks(players []types.Player) StackFactors {
	factors := StackFactors{Unique: make([]DetectedStack, 0)}

	var qb *types.Player
	for i := range players {
		if players[i].Position == types.QB {
			qb = &players[i]
			break
		}
	}

	if qb != nil {
		group := []types.Player{*qb}
		for _, p := range players {
			if p.Team == qb.Team && p.Position.IsPassCatcher() {
				group = append(group, p)
			}
		}
		if len(group) > 1 {
			factors.Primary = detected(qb.Team, group)
		}

		if qb.Opponent != "" {
			var bringBack []types.Player
			for _, p := range players {
				if p.Team == qb.Opponent && p.Position != types.DST {
					bringBack = append(bringBack, p)
				}
			}
			if len(bringBack) > 0 {
				factors.BringBack = detected(qb.Opponent, bringBack)
			}
		}
	}

	byTeam := make(map[string][]types.Player)
	for _, p := range players {
		if qb != nil && p.Team == qb.Team {
			continue
		}
		if p.Position == types.RB || p.Position == types.WR {
			byTeam[p.Team] = append(byTeam[p.Team], p)
		}
	}
	teams := make([]string, 0, len(byTeam))
	for team := range byTeam {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	for _, team := range teams {
		group := byTeam[team]
		hasRB, hasWR := false, false
		for _, p := range group {
			hasRB = hasRB || p.Position == types.RB
			hasWR = hasWR || p.Position == types.WR
		}
		if hasRB && hasWR {
			factors.Unique = append(factors.Unique, *detected(team, group))
		}
	}

	return factors
}

func detected(team string, players []types.Player) *DetectedStack {
	sorted := append([]types.Player(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return positionOrder(sorted[i].Position) < positionOrder(sorted[j].Position)
	})

	s := &DetectedStack{
		Team:        team,
		PlayerIDs:   make([]string, len(sorted)),
		Positions:   make([]types.Position, len(sorted)),
		Correlation: correlation.StackCorrelation(sorted),
	}
	labels := make([]string, len(sorted))
	for i, p := range sorted {
		s.PlayerIDs[i] = p.ID
		s.Positions[i] = p.Position
		labels[i] = string(p.Position)
	}
	s.Type = types.StackType(strings.Join(labels, "+"))
	return s
}

func positionOrder(p types.Position) int {
	for i, pos := range types.AllPositions {
		if pos == p {
			return i
		}
	}
	return len(types.AllPositions)
}

func correlationFactors(players []types.Player) CorrelationFactors {
	factors := CorrelationFactors{
		Positive: make([]PairCorrelation, 0),
		Negative: make([]PairCorrelation, 0),
	}

	sum, pairs := 0.0, 0
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			corr := correlation.PlayerCorrelation(players[i], players[j])
			pair := PairCorrelation{
				PlayerA:      players[i].ID,
				PlayerB:      players[j].ID,
				Correlation:  corr,
				Relationship: correlation.Classify(corr),
			}
			switch pair.Relationship {
			case correlation.Positive:
				factors.Positive = append(factors.Positive, pair)
			case correlation.Negative:
				factors.Negative = append(factors.Negative, pair)
			default:
				factors.NeutralCount++
			}
			sum += corr
			pairs++
		}
	}
	if pairs > 0 {
		factors.Average = sum / float64(pairs)
	}
	return factors
}

func (a *Analyzer) valueFactors(players []types.Player) ValueFactors {
	values := valuesOf(players)
	factors := ValueFactors{
		Best:             ranked(values, topN, func(x, y PlayerValue) bool { return x.Value > y.Value }),
		Worst:            ranked(values, topN, func(x, y PlayerValue) bool { return x.Value < y.Value }),
		SalaryByPosition: make(map[types.Position]int),
	}

	totalValue := 0.0
	for _, v := range values {
		factors.TotalSalary += v.Salary
		factors.SalaryByPosition[v.Position] += v.Salary
		totalValue += v.Value
	}
	if len(values) > 0 {
		factors.AverageValue = totalValue / float64(len(values))
	}
	factors.SalaryRemaining = a.SalaryCap - factors.TotalSalary
	factors.SalaryInBand = a.Profile.SalaryRemaining.Contains(factors.SalaryRemaining)
	return factors
}

func (a *Analyzer) gameTheory(players []types.Player, report LineupReport) GameTheoryFactors {
	totalPoints := 0.0
	for _, p := range players {
		totalPoints += p.ProjectedPoints
	}

	avgOwnership := report.Ownership.Average
	uniqueness := 1 - avgOwnership/100
	leverage := uniqueness * totalPoints / 100

	factors := GameTheoryFactors{
		Uniqueness:      uniqueness,
		ContestEdge:     leverage,
		LeverageScore:   leverage,
		RiskLevel:       riskLevel(uniqueness * leverage),
		Recommendations: make([]string, 0),
	}

	if avgOwnership > pivotOwnership {
		factors.Recommendations = append(factors.Recommendations,
			fmt.Sprintf("pivot to lower-owned players (average ownership %.1f%%)", avgOwnership))
	}
	if report.Stacks.Primary == nil {
		factors.Recommendations = append(factors.Recommendations, "add correlated stacks")
	}
	if avgOwnership > a.Profile.MaxOwnership {
		factors.Recommendations = append(factors.Recommendations,
			fmt.Sprintf("average ownership %.1f%% exceeds the %.0f%% ceiling for %s contests", avgOwnership, a.Profile.MaxOwnership, a.Profile.ContestType))
	} else if len(players) > 0 && avgOwnership < a.Profile.MinOwnership {
		factors.Recommendations = append(factors.Recommendations,
			fmt.Sprintf("average ownership %.1f%% is below the %.0f%% floor for %s contests", avgOwnership, a.Profile.MinOwnership, a.Profile.ContestType))
	}
	if a.Profile.Stack.RequireBringback && report.Stacks.Primary != nil && report.Stacks.BringBack == nil {
		factors.Recommendations = append(factors.Recommendations,
			fmt.Sprintf("add a bring-back from %s's opponent", report.Stacks.Primary.Team))
	}
	if !report.Value.SalaryInBand {
		band := a.Profile.SalaryRemaining
		factors.Recommendations = append(factors.Recommendations,
			fmt.Sprintf("leave between %d and %d salary unspent (currently %d)", band.Min, band.Max, report.Value.SalaryRemaining))
	}

	return factors
}

func riskLevel(score float64) string {
	switch {
	case score > highRisk:
		return RiskHigh
	case score > mediumRisk:
		return RiskMedium
	default:
		return RiskLow
	}
}
