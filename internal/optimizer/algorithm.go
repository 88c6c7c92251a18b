package optimizer

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/dfs-lineup-engine/internal/stacking"
	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
	"github.com/stitts-dev/dfs-lineup-engine/pkg/logger"
)

// lineupNamespace seeds deterministic lineup ids.
var lineupNamespace = uuid.MustParse("b3c5a0e2-7d4f-4f7e-8d6a-2c9e1f0b4a7d")

// Result is the outcome of one optimization call. Errors holds non-fatal
// warnings; callers should block only when Lineups is empty.
type Result struct {
	Lineups  []types.Lineup   `json:"lineups"`
	Errors   []string         `json:"errors"`
	Exposure []PlayerExposure `json:"exposure"`
	Stats    Stats            `json:"stats"`
}

// Stats summarizes the attempt loop.
type Stats struct {
	OptimizationID string `json:"optimization_id"`
	Attempts       int    `json:"attempts"`
	Accepted       int    `json:"accepted"`
	Duplicates     int    `json:"duplicates"`
	Invalid        int    `json:"invalid"`
	StackSeeded    int    `json:"stack_seeded"`
	DroppedPlayers int    `json:"dropped_players"`
	DurationMs     int64  `json:"duration_ms"`
}

type engine struct {
	settings  Settings
	slots     []PositionSlot
	slotPools [][]types.Player
	minSalary []int
	exposure  *ExposureTracker
	rng       *rand.Rand
	logger    *logrus.Entry
}

type candidate struct {
	players []types.Player
	filled  []bool
	used    map[string]bool
	salary  int
}

// Optimize builds up to settings.TargetLineupCount distinct legal lineups.
// It fails before any work when the pool is empty or cannot fill the roster
// template, and after the attempt budget when nothing could be produced.
func Optimize(players []types.Player, settings Settings) (*Result, error) {
	settings = settings.normalized()
	optimizationID := uuid.New().String()
	start := time.Now()

	log := logger.WithOptimizationContext(optimizationID, settings.ContestType)
	log.WithFields(logrus.Fields{
		"total_players":  len(players),
		"salary_cap":     settings.SalaryCap,
		"target_lineups": settings.TargetLineupCount,
		"uniqueness":     settings.Uniqueness,
		"max_exposure":   settings.MaxExposure,
		"use_stacks":     settings.UseStacks,
	}).Info("Starting optimization")

	result := &Result{
		Lineups: make([]types.Lineup, 0, settings.TargetLineupCount),
		Errors:  make([]string, 0),
		Stats:   Stats{OptimizationID: optimizationID},
	}

	pool, dropped := filterPlayers(players, log)
	result.Errors = append(result.Errors, dropped...)
	result.Stats.DroppedPlayers = len(dropped)
	if len(pool) == 0 {
		return nil, &types.ValidationError{Problems: []string{"no valid players in pool"}}
	}

	slots := ClassicNFLSlots()
	byPosition := organizeByPosition(pool)
	if err := CheckPool(byPosition, slots); err != nil {
		log.WithError(err).Warn("Player pool cannot fill roster template")
		return nil, err
	}

	e := newEngine(settings, slots, byPosition, log)

	stacks, warning := e.loadStacks(pool)
	if warning != "" {
		result.Errors = append(result.Errors, warning)
	}

	seen := make(map[string]bool)
	starved := make(map[string]int)
	maxAttempts := 2 * settings.TargetLineupCount

	for attempt := 0; attempt < maxAttempts && len(result.Lineups) < settings.TargetLineupCount; attempt++ {
		result.Stats.Attempts++

		var stack *types.Stack
		if len(stacks) > 0 {
			stack = &stacks[attempt%len(stacks)]
		}

		lineup, failedSlot := e.buildLineup(stack)
		if failedSlot != "" {
			starved[failedSlot]++
			log.WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"slot":    failedSlot,
			}).Debug("Abandoned lineup attempt")
			continue
		}

		if err := ValidateLineup(lineup, slots, settings.SalaryCap); err != nil {
			result.Stats.Invalid++
			log.WithError(err).WithField("attempt", attempt+1).Debug("Discarded invalid lineup")
			continue
		}

		key := lineupKey(lineup)
		if seen[key] {
			result.Stats.Duplicates++
			log.WithField("attempt", attempt+1).Debug("Discarded duplicate lineup")
			continue
		}
		seen[key] = true

		lineup.ID = uuid.NewSHA1(lineupNamespace, []byte(key)).String()
		e.exposure.Record(lineup)
		result.Lineups = append(result.Lineups, lineup)
		if lineup.StackID != "" {
			result.Stats.StackSeeded++
		}
	}

	result.Stats.Accepted = e.exposure.Total()
	result.Exposure = e.exposure.Report()
	result.Stats.DurationMs = time.Since(start).Milliseconds()
	if len(result.Lineups) < settings.TargetLineupCount {
		result.Errors = append(result.Errors, shortfallWarnings(slots, starved, result.Stats, settings.TargetLineupCount)...)
	}

	fields := logrus.Fields{
		"attempts":    result.Stats.Attempts,
		"accepted":    result.Stats.Accepted,
		"duplicates":  result.Stats.Duplicates,
		"invalid":     result.Stats.Invalid,
		"duration_ms": result.Stats.DurationMs,
	}
	if len(result.Lineups) == 0 {
		log.WithFields(fields).Warn("Optimization produced no lineups")
		return nil, &types.NoLineupsError{Attempts: result.Stats.Attempts, Reasons: result.Errors}
	}
	if len(result.Lineups) < settings.TargetLineupCount {
		log.WithFields(fields).Warn("Optimization completed with fewer lineups than requested")
	} else {
		log.WithFields(fields).Info("Optimization completed")
	}

	return result, nil
}

func newEngine(settings Settings, slots []PositionSlot, byPosition map[types.Position][]types.Player, log *logrus.Entry) *engine {
	e := &engine{
		settings:  settings,
		slots:     slots,
		slotPools: make([][]types.Player, len(slots)),
		minSalary: make([]int, len(slots)),
		exposure:  NewExposureTracker(settings.MaxExposure),
		rng:       rand.New(rand.NewSource(settings.Seed)),
		logger:    log,
	}

	for i, slot := range slots {
		pool := make([]types.Player, 0)
		for _, pos := range slot.AllowedPositions {
			for _, p := range byPosition[pos] {
				if p.Ownership <= settings.MaxOwnership {
					pool = append(pool, p)
				}
			}
		}
		e.slotPools[i] = pool

		cheapest := 0
		for j, p := range pool {
			if j == 0 || p.Salary < cheapest {
				cheapest = p.Salary
			}
		}
		e.minSalary[i] = cheapest
	}

	return e
}

// loadStacks returns the stacks used to seed attempts, or a warning when
// stack bias had to be disabled.
func (e *engine) loadStacks(pool []types.Player) ([]types.Stack, string) {
	if !e.settings.UseStacks {
		return nil, ""
	}

	stacks, err := stacking.BuildTopStacks(pool, e.settings.ContestType)
	if err != nil {
		e.logger.WithError(err).Warn("Stack bias disabled")
		return nil, fmt.Sprintf("stack bias disabled: %v", err)
	}

	eligible := make([]types.Stack, 0, len(stacks))
	for _, s := range stacks {
		if s.Correlation >= e.settings.CorrelationThreshold {
			eligible = append(eligible, s)
		}
	}
	if len(eligible) == 0 {
		return nil, fmt.Sprintf("stack bias disabled: no stack reaches correlation threshold %.2f", e.settings.CorrelationThreshold)
	}

	e.logger.WithFields(logrus.Fields{
		"stacks":    len(stacks),
		"eligible":  len(eligible),
		"threshold": e.settings.CorrelationThreshold,
	}).Debug("Loaded stacks for lineup seeding")

	return eligible, ""
}

// buildLineup runs one greedy attempt. It returns the failing slot name when
// some slot had no eligible candidate.
func (e *engine) buildLineup(stack *types.Stack) (types.Lineup, string) {
	c := e.newCandidate()

	stackID := ""
	if stack != nil {
		if e.seatStack(c, *stack) {
			stackID = stack.ID
		} else {
			c = e.newCandidate()
		}
	}

	for i, slot := range e.slots {
		if c.filled[i] {
			continue
		}
		player, ok := e.pick(c, i)
		if !ok {
			return types.Lineup{}, slot.SlotName
		}
		c.seat(i, player)
	}

	lineup := c.lineup(e.slots)
	lineup.StackID = stackID
	return lineup, ""
}

// seatStack places every stack player in the first open slot that accepts
// them, dedicated slots before FLEX.
func (e *engine) seatStack(c *candidate, stack types.Stack) bool {
	for _, p := range stack.Players {
		idx := -1
		for i, slot := range e.slots {
			if !c.filled[i] && slot.Accepts(p.Position) {
				idx = i
				break
			}
		}
		if idx < 0 || !e.eligible(c, idx, p) {
			return false
		}
		c.seat(idx, p)
	}
	return true
}

// pick ranks eligible candidates on projection plus U·r.
func (e *engine) pick(c *candidate, slotIdx int) (types.Player, bool) {
	var chosen types.Player
	found := false
	bestScore := math.Inf(-1)
	uniqueness := float64(e.settings.Uniqueness)

	for _, p := range e.slotPools[slotIdx] {
		if !e.eligible(c, slotIdx, p) {
			continue
		}
		score := p.ProjectedPoints + uniqueness*e.rng.Float64()
		if score > bestScore {
			bestScore = score
			chosen = p
			found = true
		}
	}
	return chosen, found
}

func (e *engine) eligible(c *candidate, slotIdx int, p types.Player) bool {
	if !e.slots[slotIdx].Accepts(p.Position) || c.used[p.ID] {
		return false
	}
	if p.Ownership > e.settings.MaxOwnership {
		return false
	}
	if p.Salary > e.budget(c, slotIdx) {
		return false
	}
	return e.exposure.Allowed(p.ID)
}

// budget is the salary left for slotIdx after reserving the cheapest possible
// fill of every other open slot.
func (e *engine) budget(c *candidate, slotIdx int) int {
	reserve := 0
	for i := range e.slots {
		if i != slotIdx && !c.filled[i] {
			reserve += e.minSalary[i]
		}
	}
	return e.settings.SalaryCap - c.salary - reserve
}

func (e *engine) newCandidate() *candidate {
	return &candidate{
		players: make([]types.Player, len(e.slots)),
		filled:  make([]bool, len(e.slots)),
		used:    make(map[string]bool, len(e.slots)),
	}
}

func (c *candidate) seat(slotIdx int, p types.Player) {
	c.players[slotIdx] = p
	c.filled[slotIdx] = true
	c.used[p.ID] = true
	c.salary += p.Salary
}

func (c *candidate) lineup(slots []PositionSlot) types.Lineup {
	lineup := types.Lineup{
		Players: append([]types.Player(nil), c.players...),
		Slots:   make([]types.SlotAssignment, len(slots)),
	}
	for i, p := range c.players {
		lineup.Slots[i] = types.SlotAssignment{Slot: slots[i].SlotName, PlayerID: p.ID}
		lineup.TotalSalary += p.Salary
		lineup.ProjectedPoints += p.ProjectedPoints
	}
	lineup.TotalOwnership = types.MeanOwnership(c.players)
	return lineup
}

func filterPlayers(players []types.Player, log *logrus.Entry) ([]types.Player, []string) {
	filtered := make([]types.Player, 0, len(players))
	warnings := make([]string, 0)
	seen := make(map[string]bool, len(players))

	for _, p := range players {
		if err := p.Validate(); err != nil {
			warnings = append(warnings, fmt.Sprintf("dropped %v", err))
			continue
		}
		if seen[p.ID] {
			warnings = append(warnings, fmt.Sprintf("dropped duplicate player id %s", p.ID))
			continue
		}
		seen[p.ID] = true
		filtered = append(filtered, p)
	}

	if len(warnings) > 0 {
		log.WithFields(logrus.Fields{
			"total_players":   len(players),
			"dropped_count":   len(warnings),
			"available_count": len(filtered),
		}).Warn("Dropped invalid players from pool")
	}

	return filtered, warnings
}

func organizeByPosition(players []types.Player) map[types.Position][]types.Player {
	byPosition := make(map[types.Position][]types.Player)
	for _, p := range players {
		byPosition[p.Position] = append(byPosition[p.Position], p)
	}
	for pos := range byPosition {
		sort.Slice(byPosition[pos], func(i, j int) bool {
			return types.Less(byPosition[pos][i], byPosition[pos][j])
		})
	}
	return byPosition
}

func shortfallWarnings(slots []PositionSlot, starved map[string]int, stats Stats, target int) []string {
	warnings := make([]string, 0)
	reported := make(map[string]bool)
	for _, slot := range slots {
		if n := starved[slot.SlotName]; n > 0 && !reported[slot.SlotName] {
			reported[slot.SlotName] = true
			warnings = append(warnings, fmt.Sprintf("no eligible %s candidates in %d of %d attempts", slot.SlotName, n, stats.Attempts))
		}
	}
	if stats.Duplicates > 0 {
		warnings = append(warnings, fmt.Sprintf("discarded %d duplicate lineups", stats.Duplicates))
	}
	warnings = append(warnings, fmt.Sprintf("generated %d of %d requested lineups", stats.Accepted, target))
	return warnings
}

func lineupKey(lineup types.Lineup) string {
	ids := lineup.PlayerIDs()
	sort.Strings(ids)
	return strings.Join(ids, ",")
}
