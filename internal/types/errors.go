package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrInsufficientPool = errors.New("insufficient player pool")
	ErrNoValidStacks    = errors.New("no valid stacks")
	ErrNoLineups        = errors.New("no lineups generated")
)

// Error codes surfaced to API callers
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeInsufficientPool = "INSUFFICIENT_POOL"
	ErrCodeNoValidStacks    = "NO_VALID_STACKS"
	ErrCodeOptimization     = "OPTIMIZATION_ERROR"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeCache            = "CACHE_ERROR"
)

// ValidationError describes a malformed player record or request.
type ValidationError struct {
	PlayerID   string
	PlayerName string
	Problems   []string
}

func (e *ValidationError) Error() string {
	subject := "request"
	switch {
	case e.PlayerName != "" && e.PlayerID != "":
		subject = fmt.Sprintf("player %s (%s)", e.PlayerName, e.PlayerID)
	case e.PlayerName != "":
		subject = fmt.Sprintf("player %s", e.PlayerName)
	case e.PlayerID != "":
		subject = fmt.Sprintf("player %s", e.PlayerID)
	}
	return fmt.Sprintf("%s: %s", subject, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Shortfall is one unmet positional requirement.
type Shortfall struct {
	Position  string `json:"position"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

// InsufficientPoolError names every position the pool cannot cover.
type InsufficientPoolError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientPoolError) Error() string {
	parts := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		parts[i] = fmt.Sprintf("%s requires %d, have %d", s.Position, s.Required, s.Available)
	}
	return fmt.Sprintf("insufficient player pool: %s", strings.Join(parts, ", "))
}

func (e *InsufficientPoolError) Unwrap() error { return ErrInsufficientPool }

// Positions returns the labels of the short positions.
func (e *InsufficientPoolError) Positions() []string {
	labels := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		labels[i] = s.Position
	}
	return labels
}

// NoValidStacksError is returned when no team supports any stack template.
type NoValidStacksError struct {
	Teams int
}

func (e *NoValidStacksError) Error() string {
	return fmt.Sprintf("no valid stacks: none of %d teams has a QB with a pass catcher or an RB with a DST", e.Teams)
}

func (e *NoValidStacksError) Unwrap() error { return ErrNoValidStacks }

// NoLineupsError is returned when every attempt failed.
type NoLineupsError struct {
	Attempts int
	Reasons  []string
}

func (e *NoLineupsError) Error() string {
	msg := fmt.Sprintf("no lineups generated after %d attempts", e.Attempts)
	if len(e.Reasons) > 0 {
		msg += ": " + strings.Join(e.Reasons, "; ")
	}
	return msg
}

func (e *NoLineupsError) Unwrap() error { return ErrNoLineups }
