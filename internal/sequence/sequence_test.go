package sequence

import (
	"math"
	"testing"

	"tanteplot/internal/simlog"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

// amount 构造核算字段；NaN 表示缺失。
func amount(v float64) decimal.NullDecimal {
	if math.IsNaN(v) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

func executed(id int64, pos int, typ simlog.OpType, fraction float64, dt string) simlog.Operation {
	return simlog.Operation{
		SeqID: id, PositionI: pos, Type: typ, Fraction: fraction, DT: dt,
		PosValue: amount(100), PosTotalGain: amount(0), PosTotalCost: amount(100),
	}
}

func skip(id int64, pos int, dt string) simlog.Operation {
	return simlog.Operation{
		SeqID: id, PositionI: pos, Type: simlog.OpSkip, Skipped: true, DT: dt,
		Fraction: nan,
	}
}

func countRecords(seqs []Sequence) int {
	n := 0
	for _, s := range seqs {
		n += len(s)
	}
	return n
}

func TestReconstructTwoRowScenario(t *testing.T) {
	ops := []simlog.Operation{
		executed(1, 0, simlog.OpBuyFraction, 0.4, "2020-01-01"),
		executed(1, 0, simlog.OpSellAll, nan, "2020-01-02"),
	}
	seqs, err := Reconstruct(ops)
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	assert.Len(t, seqs[0], 2)
	assert.False(t, seqs[0].Skipped())
	assert.EqualValues(t, 1, seqs[0].SeqID())
}

func TestReconstructGroupsNonContiguousRows(t *testing.T) {
	ops := []simlog.Operation{
		executed(7, 1, simlog.OpBuyAll, nan, "d1"),
		skip(8, 0, "d1"),
		executed(9, 0, simlog.OpBuyAll, nan, "d2"),
		executed(7, 1, simlog.OpSellFraction, 0.5, "d3"),
		executed(9, 0, simlog.OpSellAll, nan, "d4"),
		executed(7, 1, simlog.OpSellAll, nan, "d5"),
		skip(10, 1, "d5"),
	}
	seqs, err := Reconstruct(ops)
	require.NoError(t, err)

	assert.Equal(t, len(ops), countRecords(seqs))
	require.Len(t, seqs, 4)
	assert.EqualValues(t, []int64{7, 8, 9, 10}, []int64{seqs[0].SeqID(), seqs[1].SeqID(), seqs[2].SeqID(), seqs[3].SeqID()})
	assert.Equal(t, []string{"d1", "d3", "d5"}, []string{seqs[0][0].DT, seqs[0][1].DT, seqs[0][2].DT})

	for _, seq := range seqs {
		for _, op := range seq {
			assert.Equal(t, seq.SeqID(), op.SeqID)
			assert.Equal(t, seq.PositionI(), op.PositionI)
		}
		if seq.Skipped() {
			assert.Len(t, seq, 1)
		}
		if len(seq) > 1 {
			for _, op := range seq {
				assert.False(t, op.Skipped)
			}
		}
	}

	skipped, exec := Partition(seqs)
	assert.Len(t, skipped, 2)
	assert.Len(t, exec, 2)
}

func TestReconstructEmpty(t *testing.T) {
	seqs, err := Reconstruct(nil)
	require.NoError(t, err)
	assert.Empty(t, seqs)
}

func TestReconstructConsistencyViolations(t *testing.T) {
	cases := map[string][]simlog.Operation{
		"duplicate skip id": {
			skip(1, 0, "d1"),
			skip(1, 0, "d2"),
		},
		"skip after executed id": {
			executed(1, 0, simlog.OpBuyAll, nan, "d1"),
			skip(1, 0, "d2"),
		},
		"executed after skip id": {
			skip(1, 0, "d1"),
			executed(1, 0, simlog.OpBuyAll, nan, "d2"),
		},
		"position mismatch": {
			executed(1, 0, simlog.OpBuyAll, nan, "d1"),
			executed(1, 1, simlog.OpSellAll, nan, "d2"),
		},
		"OP_SKIP without skip marker": {
			{SeqID: 1, Type: simlog.OpSkip, DT: "d1"},
		},
		"skip carries accounting": {
			{SeqID: 1, Type: simlog.OpSkip, Skipped: true, DT: "d1", Fraction: nan, PosValue: amount(1)},
		},
	}
	for name, ops := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Reconstruct(ops)
			assert.ErrorIs(t, err, simlog.ErrConsistency)
		})
	}
}

func TestVerifyRowCount(t *testing.T) {
	seqs := []Sequence{{executed(1, 0, simlog.OpBuyAll, nan, "d1")}}
	assert.NoError(t, Verify(seqs, 1))
	assert.ErrorIs(t, Verify(seqs, 2), simlog.ErrConsistency)
	assert.ErrorIs(t, Verify([]Sequence{{}}, 0), simlog.ErrConsistency)
}
