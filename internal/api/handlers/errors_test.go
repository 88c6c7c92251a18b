package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &types.ValidationError{Problems: []string{"no valid players in pool"}}, http.StatusBadRequest, types.ErrCodeValidation},
		{"insufficient pool", &types.InsufficientPoolError{Shortfalls: []types.Shortfall{{Position: "TE", Required: 1}}}, http.StatusBadRequest, types.ErrCodeInsufficientPool},
		{"no stacks", &types.NoValidStacksError{Teams: 3}, http.StatusUnprocessableEntity, types.ErrCodeNoValidStacks},
		{"no lineups", &types.NoLineupsError{Attempts: 4}, http.StatusUnprocessableEntity, types.ErrCodeOptimization},
		{"wrapped timeout", fmt.Errorf("batch: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, types.ErrCodeTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, types.ErrCodeOptimization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorResponse(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}
