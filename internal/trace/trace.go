// Package trace 把操作序列映射为可绘制的曲线：操作幅度、成交价格与持仓收益率。
package trace

import (
	"math"

	"github.com/shopspring/decimal"

	"tanteplot/internal/figure"
	"tanteplot/internal/sequence"
	"tanteplot/internal/simlog"
)

const (
	stage      = "trace"
	markerSize = 3
)

// Magnitude 将操作类型映射为 [-1, 1] 内的有符号幅度。
func Magnitude(op simlog.Operation) (float64, error) {
	switch op.Type {
	case simlog.OpSkip:
		return 0, nil
	case simlog.OpBuyAll:
		return 1, nil
	case simlog.OpSellAll:
		return -1, nil
	case simlog.OpBuyFraction, simlog.OpSellFraction:
		f := op.Fraction
		if math.IsNaN(f) || f < 0 || f > 1 {
			return 0, simlog.Inconsistent(stage, "sequence %d: %s fraction %v outside [0, 1]", op.SeqID, op.Type, f)
		}
		if op.Type == simlog.OpSellFraction {
			return -f, nil
		}
		return f, nil
	default:
		return 0, simlog.Inconsistent(stage, "sequence %d: unknown operation type %q", op.SeqID, op.Type)
	}
}

// Operation 生成操作幅度曲线；跳过序列用浅灰，执行序列用蓝色。
func Operation(seq sequence.Sequence) (int, figure.Trace, error) {
	color := figure.ColorBlue
	if seq.Skipped() {
		if len(seq) != 1 {
			return 0, figure.Trace{}, simlog.Inconsistent(stage, "skipped sequence %d has %d records", seq.SeqID(), len(seq))
		}
		color = figure.ColorLightGrey
	}
	points := make([]figure.Point, 0, len(seq))
	for _, op := range seq {
		y, err := Magnitude(op)
		if err != nil {
			return 0, figure.Trace{}, err
		}
		points = append(points, figure.Point{X: op.DT, Y: y})
	}
	return seq.PositionI(), scatter(color, points), nil
}

// Price 按日期查收盘价生成成交价格曲线，仅适用于执行序列。
func Price(seq sequence.Sequence, prices *simlog.PriceSeries) (int, figure.Trace, error) {
	if seq.Skipped() {
		return 0, figure.Trace{}, simlog.Inconsistent(stage, "price trace requested for skipped sequence %d", seq.SeqID())
	}
	points := make([]figure.Point, 0, len(seq))
	for _, op := range seq {
		if op.Type == simlog.OpSkip {
			return 0, figure.Trace{}, simlog.Inconsistent(stage, "sequence %d: %s in executed sequence", seq.SeqID(), op.Type)
		}
		px, err := prices.Close(op.DT)
		if err != nil {
			return 0, figure.Trace{}, err
		}
		points = append(points, figure.Point{X: op.DT, Y: px})
	}
	return seq.PositionI(), trended(points), nil
}

// Profit 生成 (value + gain - cost) / cost 曲线，仅适用于执行序列。
func Profit(seq sequence.Sequence) (int, figure.Trace, error) {
	if seq.Skipped() {
		return 0, figure.Trace{}, simlog.Inconsistent(stage, "profit trace requested for skipped sequence %d", seq.SeqID())
	}
	points := make([]figure.Point, 0, len(seq))
	for _, op := range seq {
		points = append(points, figure.Point{X: op.DT, Y: ProfitRatio(op)})
	}
	return seq.PositionI(), trended(points), nil
}

// ProfitRatio 计算持仓收益率；成本为 0 或字段缺失时结果未定义，返回 NaN。
// 运算全程使用日志原文的十进制值，只在落到坐标点时转为 float64。
func ProfitRatio(op simlog.Operation) float64 {
	ratio, ok := profitRatio(op)
	if !ok {
		return math.NaN()
	}
	f, _ := ratio.Float64()
	return f
}

func profitRatio(op simlog.Operation) (decimal.Decimal, bool) {
	value, gain, cost := op.PosValue, op.PosTotalGain, op.PosTotalCost
	if !value.Valid || !gain.Valid || !cost.Valid || cost.Decimal.IsZero() {
		return decimal.Decimal{}, false
	}
	return value.Decimal.Add(gain.Decimal).Sub(cost.Decimal).Div(cost.Decimal), true
}

// TrendColor 末值高于首值为绿色，否则为红色；首末取第一个/最后一个有定义的值。
func TrendColor(ys []float64) figure.Color {
	first, last := -1, -1
	for i, y := range ys {
		if !finite(y) {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 || first == last {
		return figure.ColorRed
	}
	if ys[first] < ys[last] {
		return figure.ColorGreen
	}
	return figure.ColorRed
}

// PositionTraces 按 position_i 归集操作曲线：先放跳过序列，再放执行序列，
// 使跳过操作绘制在同一面板的底层。
func PositionTraces(seqs []sequence.Sequence, maxOpen int) ([][]figure.Trace, error) {
	out := make([][]figure.Trace, maxOpen)
	skipped, executed := sequence.Partition(seqs)
	for _, pass := range [][]sequence.Sequence{skipped, executed} {
		for _, seq := range pass {
			pos, tr, err := Operation(seq)
			if err != nil {
				return nil, err
			}
			if pos < 0 || pos >= maxOpen {
				return nil, simlog.Inconsistent(stage, "sequence %d: position_i %d outside [0, %d)", seq.SeqID(), pos, maxOpen)
			}
			out[pos] = append(out[pos], tr)
		}
	}
	return out, nil
}

// PriceTraces 为全部执行序列生成价格曲线。
func PriceTraces(seqs []sequence.Sequence, prices *simlog.PriceSeries) ([]figure.Trace, error) {
	_, executed := sequence.Partition(seqs)
	out := make([]figure.Trace, 0, len(executed))
	for _, seq := range executed {
		_, tr, err := Price(seq, prices)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

// ProfitTraces 为全部执行序列生成收益率曲线。
func ProfitTraces(seqs []sequence.Sequence) ([]figure.Trace, error) {
	_, executed := sequence.Partition(seqs)
	out := make([]figure.Trace, 0, len(executed))
	for _, seq := range executed {
		_, tr, err := Profit(seq)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

func scatter(color figure.Color, points []figure.Point) figure.Trace {
	return figure.Trace{
		Color:      color,
		Mode:       figure.ModeLinesMarkers,
		MarkerSize: markerSize,
		Points:     points,
	}
}

// trended 按首末值涨跌着色。
func trended(points []figure.Point) figure.Trace {
	tr := scatter(figure.ColorRed, points)
	tr.Color = TrendColor(tr.Ys())
	return tr
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
