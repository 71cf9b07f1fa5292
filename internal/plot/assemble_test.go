package plot

import (
	"math"
	"testing"

	"tanteplot/internal/figure"
	"tanteplot/internal/simlog"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func sampleInputs(t *testing.T) AccountInputs {
	t.Helper()
	nan := math.NaN()
	prices, err := simlog.NewPriceSeries(
		[]string{"2020-01-01", "2020-01-02", "2020-01-03", "2020-01-04"},
		[]float64{10, 12, 11, 13},
	)
	require.NoError(t, err)
	return AccountInputs{
		Operations: &simlog.OperationsLog{
			Path: "operations_7.csv",
			Meta: simlog.OperationsMeta{State: 7, MaxOpenPositions: 2, NAssets: 1},
			Ops: []simlog.Operation{
				{SeqID: 1, PositionI: 0, Type: simlog.OpBuyFraction, Fraction: 0.4, DT: "2020-01-01", PosValue: amount(100), PosTotalGain: amount(0), PosTotalCost: amount(100)},
				{SeqID: 2, PositionI: 1, Type: simlog.OpSkip, Skipped: true, DT: "2020-01-02", Fraction: nan},
				{SeqID: 1, PositionI: 0, Type: simlog.OpSellAll, Fraction: nan, DT: "2020-01-02", PosValue: amount(0), PosTotalGain: amount(120), PosTotalCost: amount(100)},
			},
		},
		Account: &simlog.AccountLog{
			Path: "account_data_7.csv",
			Meta: simlog.AccountMeta{StateI: 7, NStates: 20, Energy: -0.5},
			Rows: []simlog.AccountRow{
				{Date: "2020-01-01", TotalValue: 1000, Cash: 1000},
				{Date: "2020-01-04", TotalValue: 1020, TotalFees: 2, Cash: 1020},
			},
		},
		Prices: prices,
		Energy: []simlog.EnergyPoint{{StateI: 0, Temperature: 10, Energy: 3}, {StateI: 7, Temperature: 8, Energy: 1}},
		Style:  Style{FontSize: 10, Width: 1920, Height: 1080, Scale: 1},
	}
}

func TestAssembleAccountLayout(t *testing.T) {
	in := sampleInputs(t)
	in.SecurityName = "SPY"
	fig, err := AssembleAccount(in)
	require.NoError(t, err)
	require.NoError(t, fig.Validate())

	assert.Equal(t, "gen: 7/20, fitness: -0.5", fig.Title)
	assert.Equal(t, []float64{0.9, 0.1}, fig.ColRatios)
	require.Len(t, fig.RowRatios, 5)
	assert.InDeltaSlice(t, []float64{0.2, 0.2, 0.3, 0.3, 0.3}, fig.RowRatios, 1e-12)

	require.Len(t, fig.Panels, 6)
	assert.Equal(t, "operations position 0", fig.Panels[0].Subtitle)
	assert.Equal(t, "operations position 1", fig.Panels[1].Subtitle)
	assert.Equal(t, "(value+profit)/cost", fig.Panels[2].Subtitle)
	assert.Equal(t, "trades", fig.Panels[3].Subtitle)
	assert.Equal(t, "total", fig.Panels[4].Subtitle)
	for _, p := range fig.Panels[:5] {
		assert.Equal(t, "2020-01-01", p.XMin)
		assert.Equal(t, "2020-01-04", p.XMax)
	}

	assert.Equal(t, []float64{0.4, -1}, fig.Panels[0].Traces[0].Ys())
	assert.Equal(t, figure.ColorLightGrey, fig.Panels[1].Traces[0].Color)

	trades := fig.Panels[3].Traces
	require.Len(t, trades, 2)
	assert.Equal(t, "SPY", trades[0].Name)
	assert.Equal(t, figure.ModeStep, trades[0].Mode)
	assert.Equal(t, figure.ColorGreen, trades[1].Color)

	energy := fig.Panels[5]
	assert.Equal(t, 2, energy.Col)
	assert.Equal(t, 1, energy.Row)
	assert.Equal(t, 5, energy.LastRow())
	require.Len(t, energy.VLines, 1)
	assert.Equal(t, int64(7), energy.VLines[0].X)
}

func TestAssembleAccountSMAOverlay(t *testing.T) {
	in := sampleInputs(t)
	in.SMAPeriod = 2
	fig, err := AssembleAccount(in)
	require.NoError(t, err)
	trades := fig.Panels[3].Traces
	require.Len(t, trades, 3)
	assert.Equal(t, "SMA 2", trades[1].Name)
	assert.InDeltaSlice(t, []float64{11, 11.5, 12}, trades[1].Ys(), 1e-9)
}

func TestAssembleAccountStateMismatch(t *testing.T) {
	in := sampleInputs(t)
	in.Account.Meta.StateI = 8
	_, err := AssembleAccount(in)
	assert.ErrorIs(t, err, simlog.ErrConsistency)
}

func TestAssembleAccountDuplicatedPriceDate(t *testing.T) {
	in := sampleInputs(t)
	prices, err := simlog.NewPriceSeries([]string{"2020-01-01", "2020-01-01", "2020-01-02"}, []float64{10, 10, 12})
	require.NoError(t, err)
	in.Prices = prices
	_, err = AssembleAccount(in)
	assert.ErrorIs(t, err, simlog.ErrConsistency)
}

func TestAssembleEnergy(t *testing.T) {
	fig := AssembleEnergy([]simlog.EnergyPoint{{StateI: 0, Temperature: 5, Energy: 2}, {StateI: 3, Temperature: 4, Energy: 1}},
		Style{Width: 800, Height: 600})
	require.NoError(t, fig.Validate())
	require.Len(t, fig.Panels, 1)
	p := fig.Panels[0]
	assert.Equal(t, figure.AxisValue, p.XAxis)
	assert.Equal(t, int64(0), p.XMin)
	assert.Equal(t, int64(3), p.XMax)
	require.Len(t, p.Traces, 2)
	assert.Equal(t, "temperature", p.Traces[0].Name)
	assert.Equal(t, []float64{2, 1}, p.Traces[1].Ys())
}
