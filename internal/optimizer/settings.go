package optimizer

import (
	"github.com/stitts-dev/dfs-lineup-engine/internal/rules"
	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
)

// Uniqueness dial bounds
const (
	MinUniqueness = 1
	MaxUniqueness = 5
)

// Settings is the per-call optimization request.
type Settings struct {
	ContestType  string  `json:"contest_type"`
	MaxOwnership float64 `json:"max_ownership"`
	// MinOwnership is carried for reporting; the engine does not enforce it.
	MinOwnership float64 `json:"min_ownership"`
	MaxExposure  float64 `json:"max_exposure"`
	// Uniqueness (1-5) scales the random term added to each candidate's
	// projection. It widens the search per attempt; batch-level diversity
	// comes from exposure limits and duplicate rejection.
	Uniqueness           int     `json:"uniqueness"`
	CorrelationThreshold float64 `json:"correlation_threshold"`
	TargetLineupCount    int     `json:"target_lineup_count"`
	SalaryCap            int     `json:"salary_cap"`
	UseStacks            bool    `json:"use_stacks"`
	Seed                 int64   `json:"seed"`
}

// SettingsFor derives settings from a contest profile.
func SettingsFor(profile rules.Profile, target int) Settings {
	return Settings{
		ContestType:          profile.ContestType,
		MaxOwnership:         profile.MaxOwnership,
		MinOwnership:         profile.MinOwnership,
		MaxExposure:          profile.MaxExposure,
		Uniqueness:           3,
		CorrelationThreshold: profile.Threshold(types.QB, types.WR),
		TargetLineupCount:    target,
		SalaryCap:            DefaultSalaryCap,
		UseStacks:            profile.IsTournament(),
	}
}

// normalized fills unset limits from the contest profile and clamps the dial.
func (s Settings) normalized() Settings {
	profile := rules.Resolve(s.ContestType)
	if s.ContestType == "" {
		s.ContestType = profile.ContestType
	}
	if s.MaxOwnership <= 0 {
		s.MaxOwnership = profile.MaxOwnership
	}
	if s.MinOwnership <= 0 {
		s.MinOwnership = profile.MinOwnership
	}
	if s.MaxExposure <= 0 {
		s.MaxExposure = profile.MaxExposure
	}
	if s.Uniqueness < MinUniqueness {
		s.Uniqueness = MinUniqueness
	}
	if s.Uniqueness > MaxUniqueness {
		s.Uniqueness = MaxUniqueness
	}
	if s.TargetLineupCount <= 0 {
		s.TargetLineupCount = 1
	}
	if s.SalaryCap <= 0 {
		s.SalaryCap = DefaultSalaryCap
	}
	return s
}
