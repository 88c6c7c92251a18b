package optimizer

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/dfs-lineup-engine/internal/stacking"
	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
	"github.com/stitts-dev/dfs-lineup-engine/pkg/logger"
)

func init() {
	logger.Discard()
}

var testTeams = []struct{ team, opp string }{
	{"KC", "BUF"}, {"BUF", "KC"}, {"DAL", "PHI"}, {"PHI", "DAL"},
}

type poolCounts struct {
	qb, rb, wr, te, dst int
}

// buildPool creates a pool where each position's i-th player projects
// `step` points less than the one before. Cheap pools always fit the cap.
func buildPool(counts poolCounts, step float64, priced bool) []types.Player {
	type tier struct {
		pos    types.Position
		n      int
		salary int
		points float64
	}
	tiers := []tier{
		{types.QB, counts.qb, 5000, 20},
		{types.RB, counts.rb, 4000, 14},
		{types.WR, counts.wr, 3800, 13},
		{types.TE, counts.te, 3500, 9},
		{types.DST, counts.dst, 2500, 7},
	}
	if priced {
		tiers[0].salary, tiers[1].salary, tiers[2].salary, tiers[3].salary, tiers[4].salary = 8000, 8500, 8800, 7000, 4000
	}

	pool := make([]types.Player, 0)
	for _, s := range tiers {
		for i := 0; i < s.n; i++ {
			salary := s.salary
			if priced {
				salary -= 400 * i
			}
			ownership := 30.0 - 3*float64(i)
			if ownership < 1 {
				ownership = 1
			}
			team := testTeams[i%len(testTeams)]
			pool = append(pool, types.Player{
				ID:              fmt.Sprintf("%s-%d", strings.ToLower(string(s.pos)), i),
				Name:            fmt.Sprintf("%s %d", s.pos, i),
				Position:        s.pos,
				Team:            team.team,
				Opponent:        team.opp,
				Salary:          salary,
				ProjectedPoints: s.points + 10 - step*float64(i),
				Ownership:       ownership,
			})
		}
	}
	return pool
}

func openSettings(target int) Settings {
	return Settings{
		ContestType:       "mid-size",
		MaxOwnership:      100,
		MaxExposure:       100,
		Uniqueness:        3,
		TargetLineupCount: target,
		SalaryCap:         DefaultSalaryCap,
		Seed:              42,
	}
}

func assertValidRoster(t *testing.T, lineup types.Lineup, salaryCap int) {
	t.Helper()

	require.NoError(t, ValidateLineup(lineup, ClassicNFLSlots(), salaryCap))
	assert.LessOrEqual(t, lineup.TotalSalary, salaryCap)

	counts := make(map[types.Position]int)
	ids := make(map[string]bool)
	for i, p := range lineup.Players {
		counts[p.Position]++
		ids[p.ID] = true
		if lineup.Slots[i].Slot == FlexSlot {
			assert.True(t, p.Position.IsFlexEligible(), "FLEX occupant %s is %s", p.ID, p.Position)
		}
	}
	assert.Len(t, ids, 9, "player ids must be distinct")
	assert.Equal(t, 1, counts[types.QB])
	assert.Equal(t, 1, counts[types.DST])
	assert.Equal(t, 7, counts[types.RB]+counts[types.WR]+counts[types.TE])
	assert.GreaterOrEqual(t, counts[types.RB], 2)
	assert.GreaterOrEqual(t, counts[types.WR], 3)
	assert.GreaterOrEqual(t, counts[types.TE], 1)
}

func TestOptimize_EndToEndScenario(t *testing.T) {
	pool := buildPool(poolCounts{qb: 2, rb: 6, wr: 8, te: 4, dst: 10}, 0, false)
	require.Len(t, pool, 30)

	settings := openSettings(5)
	settings.Uniqueness = 5
	settings.Seed = 7

	result, err := Optimize(pool, settings)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Len(t, result.Lineups, 5)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 5, result.Stats.Accepted)

	keys := make(map[string]bool)
	for _, lineup := range result.Lineups {
		assertValidRoster(t, lineup, DefaultSalaryCap)
		keys[lineupKey(lineup)] = true
		assert.NotEmpty(t, lineup.ID)
	}
	assert.Len(t, keys, 5, "lineups must be distinct")
}

func TestOptimize_SalaryCapAndRosterShape(t *testing.T) {
	pool := buildPool(poolCounts{qb: 6, rb: 10, wr: 14, te: 6, dst: 6}, 1, true)

	result, err := Optimize(pool, openSettings(10))
	require.NoError(t, err)
	require.NotEmpty(t, result.Lineups)

	for _, lineup := range result.Lineups {
		assertValidRoster(t, lineup, DefaultSalaryCap)

		salary, points := 0, 0.0
		for _, p := range lineup.Players {
			salary += p.Salary
			points += p.ProjectedPoints
		}
		assert.Equal(t, salary, lineup.TotalSalary)
		assert.InDelta(t, points, lineup.ProjectedPoints, 1e-9)
		assert.InDelta(t, types.MeanOwnership(lineup.Players), lineup.TotalOwnership, 1e-9)
	}
}

func TestOptimize_ExposureBound(t *testing.T) {
	pool := buildPool(poolCounts{qb: 6, rb: 10, wr: 14, te: 6, dst: 6}, 0.5, false)
	settings := openSettings(10)
	settings.MaxExposure = 40

	result, err := Optimize(pool, settings)
	require.NoError(t, err)
	require.NotEmpty(t, result.Lineups)

	n := float64(len(result.Lineups))
	counts := make(map[string]int)
	for _, lineup := range result.Lineups {
		assertValidRoster(t, lineup, DefaultSalaryCap)
		for _, p := range lineup.Players {
			counts[p.ID]++
		}
	}
	for id, count := range counts {
		exposure := float64(count) / n * 100
		assert.LessOrEqual(t, exposure, settings.MaxExposure+100/n, "player %s", id)
	}

	require.Len(t, result.Exposure, len(counts))
	for _, pe := range result.Exposure {
		assert.Equal(t, counts[pe.PlayerID], pe.Count, "player %s", pe.PlayerID)
	}
}

func TestOptimize_DeterministicWithSeed(t *testing.T) {
	pool := buildPool(poolCounts{qb: 4, rb: 8, wr: 10, te: 4, dst: 4}, 0.5, false)
	settings := openSettings(8)
	settings.MaxExposure = 60
	settings.Seed = 1234

	first, err := Optimize(pool, settings)
	require.NoError(t, err)
	second, err := Optimize(pool, settings)
	require.NoError(t, err)

	assert.Equal(t, first.Lineups, second.Lineups)
	assert.Equal(t, first.Errors, second.Errors)
}

func TestOptimize_UniquenessOnePicksTopProjections(t *testing.T) {
	pool := buildPool(poolCounts{qb: 3, rb: 4, wr: 5, te: 3, dst: 3}, 1.5, false)
	settings := openSettings(1)
	settings.Uniqueness = 1

	result, err := Optimize(pool, settings)
	require.NoError(t, err)
	require.Len(t, result.Lineups, 1)

	ids := result.Lineups[0].PlayerIDs()
	assert.Equal(t, []string{"qb-0", "rb-0", "rb-1", "wr-0", "wr-1", "wr-2", "te-0"}, ids[:7])
	assert.Equal(t, "dst-0", ids[8])
}

func TestOptimize_MaxOwnershipFilter(t *testing.T) {
	pool := buildPool(poolCounts{qb: 6, rb: 10, wr: 14, te: 6, dst: 6}, 0.5, false)
	settings := openSettings(3)
	settings.MaxOwnership = 15

	result, err := Optimize(pool, settings)
	require.NoError(t, err)
	require.NotEmpty(t, result.Lineups)

	for _, lineup := range result.Lineups {
		for _, p := range lineup.Players {
			assert.LessOrEqual(t, p.Ownership, 15.0, "player %s", p.ID)
		}
	}
}

func TestOptimize_InsufficientPoolNamesTE(t *testing.T) {
	pool := buildPool(poolCounts{qb: 2, rb: 6, wr: 8, te: 0, dst: 2}, 0, false)

	result, err := Optimize(pool, openSettings(5))
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInsufficientPool))

	var poolErr *types.InsufficientPoolError
	require.True(t, errors.As(err, &poolErr))
	assert.Equal(t, []string{"TE"}, poolErr.Positions())
	assert.Contains(t, err.Error(), "TE requires 1, have 0")
}

func TestOptimize_InsufficientPoolNamesEveryPosition(t *testing.T) {
	pool := buildPool(poolCounts{qb: 1, rb: 1, wr: 2, te: 1, dst: 0}, 0, false)

	_, err := Optimize(pool, openSettings(1))
	var poolErr *types.InsufficientPoolError
	require.True(t, errors.As(err, &poolErr))
	assert.Equal(t, []string{"RB", "WR", "DST", FlexSlot}, poolErr.Positions())
}

func TestOptimize_DropsInvalidPlayers(t *testing.T) {
	pool := buildPool(poolCounts{qb: 2, rb: 6, wr: 8, te: 4, dst: 4}, 0, false)
	pool = append(pool,
		types.Player{ID: "bad-salary", Name: "Free Agent", Position: types.WR, Team: "KC", Salary: 0, ProjectedPoints: 30},
		types.Player{ID: "bad-name", Position: types.RB, Team: "KC", Salary: 4000, ProjectedPoints: 30},
		pool[0],
	)

	result, err := Optimize(pool, openSettings(3))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Stats.DroppedPlayers)
	require.GreaterOrEqual(t, len(result.Errors), 3)
	assert.Contains(t, result.Errors[0], "bad-salary")
	assert.Contains(t, result.Errors[1], "bad-name")
	assert.Contains(t, result.Errors[2], "duplicate player id qb-0")

	for _, lineup := range result.Lineups {
		assert.False(t, lineup.Contains("bad-salary"))
		assert.False(t, lineup.Contains("bad-name"))
	}
}

func TestOptimize_EmptyPool(t *testing.T) {
	_, err := Optimize(nil, openSettings(1))
	assert.True(t, errors.Is(err, types.ErrValidation))

	_, err = Optimize([]types.Player{{ID: "x"}}, openSettings(1))
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestOptimize_PartialGeneration(t *testing.T) {
	// Exactly one legal player set exists.
	pool := buildPool(poolCounts{qb: 1, rb: 2, wr: 4, te: 1, dst: 1}, 0, false)

	result, err := Optimize(pool, openSettings(3))
	require.NoError(t, err)

	assert.Len(t, result.Lineups, 1)
	assert.Equal(t, 6, result.Stats.Attempts)
	assert.Equal(t, 5, result.Stats.Duplicates)
	assert.Contains(t, result.Errors, "discarded 5 duplicate lineups")
	assert.Contains(t, result.Errors, "generated 1 of 3 requested lineups")
}

func TestOptimize_NoLineups(t *testing.T) {
	pool := buildPool(poolCounts{qb: 2, rb: 6, wr: 8, te: 4, dst: 4}, 0, false)
	settings := openSettings(2)
	settings.MaxOwnership = 0.5

	result, err := Optimize(pool, settings)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNoLineups))

	var noLineups *types.NoLineupsError
	require.True(t, errors.As(err, &noLineups))
	assert.Equal(t, 4, noLineups.Attempts)
	assert.Contains(t, err.Error(), "no eligible QB candidates in 4 of 4 attempts")
}

func TestOptimize_StackBias(t *testing.T) {
	pool := buildPool(poolCounts{qb: 4, rb: 8, wr: 12, te: 4, dst: 4}, 0.5, false)
	settings := openSettings(6)
	settings.ContestType = "gpp"
	settings.UseStacks = true
	settings.CorrelationThreshold = 0.5

	stacks, err := stacking.BuildTopStacks(pool, "gpp")
	require.NoError(t, err)
	byID := make(map[string]types.Stack)
	for _, s := range stacks {
		byID[s.ID] = s
	}

	result, err := Optimize(pool, settings)
	require.NoError(t, err)
	assert.Greater(t, result.Stats.StackSeeded, 0)

	for _, lineup := range result.Lineups {
		assertValidRoster(t, lineup, DefaultSalaryCap)
		if lineup.StackID == "" {
			continue
		}
		stack, ok := byID[lineup.StackID]
		require.True(t, ok, "unknown stack %s", lineup.StackID)
		assert.GreaterOrEqual(t, stack.Correlation, 0.5)
		for _, p := range stack.Players {
			assert.True(t, lineup.Contains(p.ID), "stack player %s missing", p.ID)
		}
	}
}

func TestOptimize_StackBiasDisabledByThreshold(t *testing.T) {
	pool := buildPool(poolCounts{qb: 4, rb: 8, wr: 12, te: 4, dst: 4}, 0.5, false)
	settings := openSettings(2)
	settings.UseStacks = true
	settings.CorrelationThreshold = 0.99

	result, err := Optimize(pool, settings)
	require.NoError(t, err)
	assert.Len(t, result.Lineups, 2)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "stack bias disabled")
	assert.Zero(t, result.Stats.StackSeeded)
}

func TestCheckPool_FlexShortfall(t *testing.T) {
	byPosition := organizeByPosition(buildPool(poolCounts{qb: 1, rb: 2, wr: 3, te: 1, dst: 1}, 0, false))

	err := CheckPool(byPosition, ClassicNFLSlots())
	var poolErr *types.InsufficientPoolError
	require.True(t, errors.As(err, &poolErr))
	require.Len(t, poolErr.Shortfalls, 1)
	assert.Equal(t, types.Shortfall{Position: FlexSlot, Required: 7, Available: 6}, poolErr.Shortfalls[0])
}

func TestValidateLineup(t *testing.T) {
	pool := buildPool(poolCounts{qb: 2, rb: 6, wr: 8, te: 4, dst: 4}, 0, false)
	result, err := Optimize(pool, openSettings(1))
	require.NoError(t, err)
	valid := result.Lineups[0]
	slots := ClassicNFLSlots()

	require.NoError(t, ValidateLineup(valid, slots, DefaultSalaryCap))

	overCap := valid
	assert.ErrorIs(t, ValidateLineup(overCap, slots, valid.TotalSalary-1), ErrInvalidLineup)

	duplicate := cloneLineup(valid)
	duplicate.Players[2] = duplicate.Players[1]
	duplicate.Slots[2].PlayerID = duplicate.Players[1].ID
	assert.ErrorIs(t, ValidateLineup(duplicate, slots, DefaultSalaryCap), ErrInvalidLineup)

	wrongSlot := cloneLineup(valid)
	wrongSlot.Players[7], wrongSlot.Players[0] = wrongSlot.Players[0], wrongSlot.Players[7]
	wrongSlot.Slots[7].PlayerID, wrongSlot.Slots[0].PlayerID = wrongSlot.Players[7].ID, wrongSlot.Players[0].ID
	err = ValidateLineup(wrongSlot, slots, DefaultSalaryCap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot fill")

	short := cloneLineup(valid)
	short.Players = short.Players[:8]
	assert.ErrorIs(t, ValidateLineup(short, slots, DefaultSalaryCap), ErrInvalidLineup)
}

func TestSettings_Normalized(t *testing.T) {
	s := Settings{ContestType: "large-field", Uniqueness: 9}.normalized()
	assert.Equal(t, 35.0, s.MaxOwnership)
	assert.Equal(t, 40.0, s.MaxExposure)
	assert.Equal(t, MaxUniqueness, s.Uniqueness)
	assert.Equal(t, 1, s.TargetLineupCount)
	assert.Equal(t, DefaultSalaryCap, s.SalaryCap)

	s = Settings{Uniqueness: -2}.normalized()
	assert.Equal(t, "mid-size", s.ContestType)
	assert.Equal(t, MinUniqueness, s.Uniqueness)
}

func cloneLineup(l types.Lineup) types.Lineup {
	l.Players = append([]types.Player(nil), l.Players...)
	l.Slots = append([]types.SlotAssignment(nil), l.Slots...)
	return l
}
