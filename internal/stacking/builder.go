package stacking

import (
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/dfs-lineup-engine/internal/correlation"
	"github.com/stitts-dev/dfs-lineup-engine/internal/rules"
	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
	"github.com/stitts-dev/dfs-lineup-engine/pkg/logger"
)

// MaxStacks caps the ranked list returned by BuildTopStacks.
const MaxStacks = 20

// stackNamespace seeds deterministic stack ids.
var stackNamespace = uuid.MustParse("6f1f3c8e-2a51-4c8e-9a0b-51d1f1a7c2d4")

// StackBuilder enumerates and ranks the canonical stack templates for a pool.
type StackBuilder struct {
	players []types.Player
	profile rules.Profile
	logger  *logrus.Entry
}

// NewStackBuilder creates a stack builder for one request.
func NewStackBuilder(players []types.Player, profile rules.Profile) *StackBuilder {
	return &StackBuilder{
		players: players,
		profile: profile,
		logger:  logger.WithComponent("stack_builder").WithField("contest_type", profile.ContestType),
	}
}

// BuildTopStacks validates the pool and returns at most MaxStacks ranked stacks.
func BuildTopStacks(players []types.Player, contestType string) ([]types.Stack, error) {
	profile := rules.Resolve(contestType)
	// Keep the caller's label so "gpp" still ranks as a tournament.
	profile.ContestType = contestType
	return NewStackBuilder(players, profile).Build()
}

// Build runs validation, construction and ranking.
func (sb *StackBuilder) Build() ([]types.Stack, error) {
	if err := sb.validate(); err != nil {
		return nil, err
	}

	byTeam := groupByTeam(sb.players)
	teams := make([]string, 0, len(byTeam))
	for team := range byTeam {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	stacks := make([]types.Stack, 0)
	lowTotal := make([]types.Stack, 0)
	skipped := 0
	for _, team := range teams {
		group := byTeam[team]
		built := append(sb.buildQBStacks(team, group), sb.buildRBDefenseStacks(team, group)...)
		if sb.belowGameTotal(group) {
			skipped++
			lowTotal = append(lowTotal, built...)
			continue
		}
		stacks = append(stacks, built...)
	}

	// The game-total filter only prefers shootouts; it never empties a pool
	// that has buildable stacks.
	if len(stacks) == 0 && len(lowTotal) > 0 {
		sb.logger.WithFields(logrus.Fields{
			"teams":          len(teams),
			"skipped_teams":  skipped,
			"min_game_total": sb.profile.Stack.MinGameTotal,
		}).Warn("Every team is below the minimum game total, using low-total stacks")
		stacks = lowTotal
		skipped = 0
	}

	if len(stacks) == 0 {
		sb.logger.WithFields(logrus.Fields{
			"teams":         len(teams),
			"skipped_teams": skipped,
		}).Warn("No team supports any stack template")
		return nil, &types.NoValidStacksError{Teams: len(teams)}
	}

	sb.rank(stacks)
	built := len(stacks)
	if len(stacks) > MaxStacks {
		stacks = stacks[:MaxStacks]
	}

	sb.logger.WithFields(logrus.Fields{
		"teams":         len(teams),
		"skipped_teams": skipped,
		"built":         built,
		"returned":      len(stacks),
	}).Debug("Built top stacks")

	return stacks, nil
}

func (sb *StackBuilder) validate() error {
	if len(sb.players) == 0 {
		return &types.ValidationError{Problems: []string{"player pool is empty"}}
	}
	for _, p := range sb.players {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// belowGameTotal flags low-total games in tournaments when totals are known.
func (sb *StackBuilder) belowGameTotal(group teamGroup) bool {
	minTotal := sb.profile.Stack.MinGameTotal
	if minTotal <= 0 || !sb.profile.IsTournament() {
		return false
	}
	total := 0.0
	for _, players := range group {
		for _, p := range players {
			total = math.Max(total, p.GameTotal)
		}
	}
	return total > 0 && total < minTotal
}

func (sb *StackBuilder) buildQBStacks(team string, group teamGroup) []types.Stack {
	qb, ok := group.top(types.QB, 0)
	if !ok {
		return nil
	}
	wr1, hasWR1 := group.top(types.WR, 0)
	wr2, hasWR2 := group.top(types.WR, 1)
	te1, hasTE := group.top(types.TE, 0)

	stacks := make([]types.Stack, 0, 5)
	if hasWR1 {
		stacks = append(stacks, newStack(types.StackQBWR, team, qb, wr1))
	}
	if hasWR2 {
		stacks = append(stacks, newStack(types.StackQBWRWR, team, qb, wr1, wr2))
	}
	if hasTE {
		stacks = append(stacks, newStack(types.StackQBTE, team, qb, te1))
	}
	if hasWR1 && hasTE {
		stacks = append(stacks, newStack(types.StackQBWRTE, team, qb, wr1, te1))
	}
	if hasWR2 && hasTE && sb.profile.Stack.QBStackSize.Max >= 4 {
		stacks = append(stacks, newStack(types.StackQBWRWRTE, team, qb, wr1, wr2, te1))
	}
	return stacks
}

func (sb *StackBuilder) buildRBDefenseStacks(team string, group teamGroup) []types.Stack {
	rb, hasRB := group.top(types.RB, 0)
	dst, hasDST := group.top(types.DST, 0)
	if !hasRB || !hasDST {
		return nil
	}
	return []types.Stack{newStack(types.StackRBDST, team, rb, dst)}
}

// rank sorts stacks in place with the contest-aware comparator.
func (sb *StackBuilder) rank(stacks []types.Stack) {
	if sb.profile.IsTournament() {
		sort.SliceStable(stacks, func(i, j int) bool {
			return TournamentScore(stacks[i]) > TournamentScore(stacks[j])
		})
		return
	}
	sort.SliceStable(stacks, func(i, j int) bool {
		return stacks[i].ProjectedPoints > stacks[j].ProjectedPoints
	})
}

// TournamentScore is the GPP ranking key: correlated points per unit of ownership.
func TournamentScore(s types.Stack) float64 {
	return (s.ProjectedPoints * s.Correlation) / math.Max(s.MeanOwnership, 1)
}

// LeverageScore rewards low ownership scaled by projected output.
func LeverageScore(meanOwnership, projectedPoints float64) float64 {
	return math.Max(0.1, 1-meanOwnership/100) * math.Min(1, projectedPoints/100)
}

func newStack(stackType types.StackType, team string, players ...types.Player) types.Stack {
	stack := types.Stack{
		Type:      stackType,
		Team:      team,
		Players:   append([]types.Player(nil), players...),
		Positions: make([]types.Position, len(players)),
	}

	ids := make([]string, len(players))
	for i, p := range players {
		stack.Positions[i] = p.Position
		stack.TotalSalary += p.Salary
		stack.ProjectedPoints += p.ProjectedPoints
		ids[i] = p.ID
	}
	stack.MeanOwnership = types.MeanOwnership(players)
	stack.Correlation = correlation.StackCorrelation(players)
	stack.LeverageScore = LeverageScore(stack.MeanOwnership, stack.ProjectedPoints)
	stack.ID = uuid.NewSHA1(stackNamespace, []byte(string(stackType)+"|"+team+"|"+strings.Join(ids, ","))).String()

	return stack
}

// teamGroup holds one team's players by position, best first.
type teamGroup map[types.Position][]types.Player

func (g teamGroup) top(pos types.Position, n int) (types.Player, bool) {
	players := g[pos]
	if n >= len(players) {
		return types.Player{}, false
	}
	return players[n], true
}

func groupByTeam(players []types.Player) map[string]teamGroup {
	byTeam := make(map[string]teamGroup)
	for _, p := range players {
		group, ok := byTeam[p.Team]
		if !ok {
			group = make(teamGroup)
			byTeam[p.Team] = group
		}
		group[p.Position] = append(group[p.Position], p)
	}
	for _, group := range byTeam {
		for pos := range group {
			sort.Slice(group[pos], func(i, j int) bool {
				return types.Less(group[pos][i], group[pos][j])
			})
		}
	}
	return byTeam
}
