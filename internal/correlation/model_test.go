package correlation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
)

func TestPairCorrelation_Table(t *testing.T) {
	tests := []struct {
		a, b     types.Position
		expected float64
	}{
		{types.QB, types.WR, 0.75},
		{types.QB, types.TE, 0.60},
		{types.RB, types.DST, 0.45},
		{types.WR, types.WR, 0.35},
		{types.RB, types.WR, -0.15},
		{types.DST, types.DST, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.a)+"-"+string(tt.b), func(t *testing.T) {
			assert.Equal(t, tt.expected, PairCorrelation(tt.a, tt.b))
		})
	}
}

func TestPairCorrelation_SymmetricAndBounded(t *testing.T) {
	for _, a := range types.AllPositions {
		for _, b := range types.AllPositions {
			ab := PairCorrelation(a, b)
			assert.Equal(t, ab, PairCorrelation(b, a), "%s-%s", a, b)
			assert.GreaterOrEqual(t, ab, -1.0)
			assert.LessOrEqual(t, ab, 1.0)
		}
	}
}

func TestPairCorrelation_InvalidPosition(t *testing.T) {
	assert.Zero(t, PairCorrelation("K", types.QB))
	assert.Zero(t, PairCorrelation(types.WR, ""))
}

func TestStackCorrelation(t *testing.T) {
	qb := types.Player{ID: "qb", Position: types.QB}
	wr1 := types.Player{ID: "wr1", Position: types.WR}
	wr2 := types.Player{ID: "wr2", Position: types.WR}

	assert.Zero(t, StackCorrelation(nil))
	assert.Zero(t, StackCorrelation([]types.Player{qb}))
	assert.InDelta(t, 0.75, StackCorrelation([]types.Player{qb, wr1}), 1e-9)
	// (0.75 + 0.75 + 0.35) / 3
	assert.InDelta(t, 0.6166666, StackCorrelation([]types.Player{qb, wr1, wr2}), 1e-6)
}

func TestPlayerCorrelation_Relationships(t *testing.T) {
	qb := types.Player{ID: "qb", Position: types.QB, Team: "KC", Opponent: "BUF"}
	wr := types.Player{ID: "wr", Position: types.WR, Team: "KC", Opponent: "BUF"}
	oppWR := types.Player{ID: "owr", Position: types.WR, Team: "BUF", Opponent: "KC"}
	oppDST := types.Player{ID: "odst", Position: types.DST, Team: "BUF", Opponent: "KC"}
	farWR := types.Player{ID: "fwr", Position: types.WR, Team: "DAL", Opponent: "NYG"}

	same := PlayerCorrelation(qb, wr)
	bringBack := PlayerCorrelation(qb, oppWR)
	unrelated := PlayerCorrelation(qb, farWR)

	assert.InDelta(t, 0.90, same, 1e-9)
	assert.Greater(t, same, bringBack)
	assert.Greater(t, bringBack, unrelated)
	assert.Greater(t, unrelated, 0.0, "sign follows the position table")
	assert.Equal(t, same, PlayerCorrelation(wr, qb))

	assert.Equal(t, -0.35, PlayerCorrelation(qb, oppDST))
	assert.Equal(t, Negative, Classify(PlayerCorrelation(oppDST, wr)))
}

func TestPlayerCorrelation_Clamped(t *testing.T) {
	a := types.Player{Position: types.QB, Team: "KC"}
	b := types.Player{Position: types.WR, Team: "KC"}
	assert.LessOrEqual(t, PlayerCorrelation(a, b), 1.0)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Positive, Classify(0.31))
	assert.Equal(t, Neutral, Classify(0.3))
	assert.Equal(t, Neutral, Classify(-0.3))
	assert.Equal(t, Negative, Classify(-0.31))
}
