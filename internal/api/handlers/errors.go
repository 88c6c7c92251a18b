package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
)

// ErrorResponse is the error body for every endpoint.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// errorResponse maps an engine error onto a status code and body.
func errorResponse(err error) (int, ErrorResponse) {
	var (
		validation *types.ValidationError
		pool       *types.InsufficientPoolError
		stacks     *types.NoValidStacksError
		noLineups  *types.NoLineupsError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, ErrorResponse{
			Error: "Invalid player pool",
			Code:  types.ErrCodeValidation,
			Details: map[string]string{
				"validation_error": err.Error(),
			},
		}
	case errors.As(err, &pool):
		return http.StatusBadRequest, ErrorResponse{
			Error: "Player pool cannot fill the roster",
			Code:  types.ErrCodeInsufficientPool,
			Details: map[string]string{
				"positions": strings.Join(pool.Positions(), ","),
				"error":     err.Error(),
			},
		}
	case errors.As(err, &stacks):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: "No valid stacks in player pool",
			Code:  types.ErrCodeNoValidStacks,
			Details: map[string]string{
				"teams": strconv.Itoa(stacks.Teams),
			},
		}
	case errors.As(err, &noLineups):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: "Optimization produced no lineups",
			Code:  types.ErrCodeOptimization,
			Details: map[string]string{
				"attempts": strconv.Itoa(noLineups.Attempts),
				"error":    err.Error(),
			},
		}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{
			Error: "Optimization timed out",
			Code:  types.ErrCodeTimeout,
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "Optimization failed",
			Code:  types.ErrCodeOptimization,
			Details: map[string]string{
				"error": err.Error(),
			},
		}
	}
}

func respondError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	_ = c.Error(err)
	c.JSON(status, body)
}

func invalidRequest(c *gin.Context, message string, err error) {
	body := ErrorResponse{Error: message, Code: types.ErrCodeInvalidRequest}
	if err != nil {
		body.Details = map[string]string{"validation_error": err.Error()}
	}
	c.JSON(http.StatusBadRequest, body)
}
