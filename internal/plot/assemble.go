// Package plot 组装账户数据图与能量图，并逐个目标驱动渲染。
package plot

import (
	"fmt"

	talib "github.com/markcheno/go-talib"

	"tanteplot/internal/figure"
	"tanteplot/internal/sequence"
	"tanteplot/internal/simlog"
	"tanteplot/internal/trace"
)

// 固定布局参数：操作面板合计占 0.4，其余主面板各 0.3；主列/侧列 0.9/0.1。
const (
	positionRowsShare = 0.4
	mainRowRatio      = 0.3
	mainColRatio      = 0.9
	sideColRatio      = 0.1
)

// Style 是图表整体尺寸选项。
type Style struct {
	FontSize int
	Width    int
	Height   int
	Scale    float64
}

// AccountInputs 是账户图的全部只读输入，彼此仅通过日期/状态号关联。
type AccountInputs struct {
	Operations *simlog.OperationsLog
	Account    *simlog.AccountLog
	Prices     *simlog.PriceSeries
	// Energy 应为已压缩的能量表。
	Energy       []simlog.EnergyPoint
	SecurityName string
	SMAPeriod    int
	Style        Style
}

// AssembleAccount 重建操作序列并生成多面板账户图。
func AssembleAccount(in AccountInputs) (figure.Figure, error) {
	if in.Operations == nil || in.Account == nil || in.Prices == nil {
		return figure.Figure{}, fmt.Errorf("account figure requires operations, account and price inputs")
	}
	state := in.Operations.Meta.State
	if in.Account.Meta.StateI != state {
		return figure.Figure{}, simlog.Inconsistent("account figure", "%s state_i %d != %s state %d",
			in.Account.Path, in.Account.Meta.StateI, in.Operations.Path, state)
	}
	if len(in.Account.Rows) == 0 {
		return figure.Figure{}, simlog.Inconsistent("account figure", "%s has no rows", in.Account.Path)
	}
	maxOpen := in.Operations.Meta.MaxOpenPositions

	seqs, err := sequence.Reconstruct(in.Operations.Ops)
	if err != nil {
		return figure.Figure{}, err
	}
	positionTraces, err := trace.PositionTraces(seqs, maxOpen)
	if err != nil {
		return figure.Figure{}, err
	}
	profitTraces, err := trace.ProfitTraces(seqs)
	if err != nil {
		return figure.Figure{}, err
	}
	tradeTraces, err := trace.PriceTraces(seqs, in.Prices)
	if err != nil {
		return figure.Figure{}, err
	}
	priceTraces := []figure.Trace{securityTrace(in.Prices, in.SecurityName)}
	if sma, ok := smaTrace(in.Prices, in.SMAPeriod); ok {
		priceTraces = append(priceTraces, sma)
	}
	priceTraces = append(priceTraces, tradeTraces...)

	xMin := in.Account.Rows[0].Date
	xMax := in.Account.Rows[len(in.Account.Rows)-1].Date

	var (
		panels    []figure.Panel
		rowRatios []float64
		row       = 1
	)
	for i := 0; i < maxOpen; i++ {
		rowRatios = append(rowRatios, positionRowsShare/float64(maxOpen))
		panels = append(panels, figure.Panel{
			Row: row, Col: 1,
			Subtitle: fmt.Sprintf("operations position %d", i),
			XAxis:    figure.AxisTime, XMin: xMin, XMax: xMax,
			Traces: positionTraces[i],
		})
		row++
	}
	mainPanels := []figure.Panel{
		{Subtitle: "(value+profit)/cost", LegendGroup: "profit", Traces: profitTraces},
		{Subtitle: "trades", LegendGroup: "trades", Traces: priceTraces},
		{Subtitle: "total", LegendGroup: "total", Traces: totalTraces(in.Account.Rows)},
	}
	for _, p := range mainPanels {
		p.Row, p.Col = row, 1
		p.XAxis, p.XMin, p.XMax = figure.AxisTime, xMin, xMax
		rowRatios = append(rowRatios, mainRowRatio)
		panels = append(panels, p)
		row++
	}
	lastRow := row - 1
	energy := energyPanel(in.Energy)
	energy.Row, energy.RowSpan, energy.Col = 1, lastRow, 2
	energy.Subtitle = "energy"
	energy.VLines = []figure.VLine{{X: int64(state), Color: figure.ColorRed}}
	panels = append(panels, energy)

	return figure.Figure{
		Title:     fmt.Sprintf("gen: %d/%d, fitness: %v", state, in.Account.Meta.NStates, in.Account.Meta.Energy),
		FontSize:  in.Style.FontSize,
		Width:     in.Style.Width,
		Height:    in.Style.Height,
		Scale:     in.Style.Scale,
		RowRatios: rowRatios,
		ColRatios: []float64{mainColRatio, sideColRatio},
		Panels:    panels,
	}, nil
}

// AssembleEnergy 生成单面板的温度/能量阶梯图。
func AssembleEnergy(points []simlog.EnergyPoint, style Style) figure.Figure {
	p := energyPanel(points)
	p.Row, p.Col = 1, 1
	if len(points) > 0 {
		p.XMin, p.XMax = points[0].StateI, points[len(points)-1].StateI
	}
	return figure.Figure{
		FontSize:  style.FontSize,
		Width:     style.Width,
		Height:    style.Height,
		Scale:     style.Scale,
		RowRatios: []float64{1},
		ColRatios: []float64{1},
		Panels:    []figure.Panel{p},
	}
}

func energyPanel(points []simlog.EnergyPoint) figure.Panel {
	temperature := make([]figure.Point, len(points))
	energy := make([]figure.Point, len(points))
	for i, p := range points {
		temperature[i] = figure.Point{X: p.StateI, Y: p.Temperature}
		energy[i] = figure.Point{X: p.StateI, Y: p.Energy}
	}
	return figure.Panel{
		XAxis: figure.AxisValue,
		Traces: []figure.Trace{
			step("temperature", figure.ColorRed, temperature),
			step("energy", figure.ColorBlue, energy),
		},
	}
}

func totalTraces(rows []simlog.AccountRow) []figure.Trace {
	value := make([]figure.Point, len(rows))
	fees := make([]figure.Point, len(rows))
	cash := make([]figure.Point, len(rows))
	for i, r := range rows {
		value[i] = figure.Point{X: r.Date, Y: r.TotalValue}
		fees[i] = figure.Point{X: r.Date, Y: r.TotalFees}
		cash[i] = figure.Point{X: r.Date, Y: r.Cash}
	}
	return []figure.Trace{
		step("value", figure.ColorLightGrey, value),
		step("fees", figure.ColorRed, fees),
		step("cash", figure.ColorGreen, cash),
	}
}

func securityTrace(prices *simlog.PriceSeries, name string) figure.Trace {
	points := make([]figure.Point, prices.Len())
	for i := range points {
		points[i] = figure.Point{X: prices.Dates[i], Y: prices.Closes[i]}
	}
	return step(name, figure.ColorLightGrey, points)
}

// smaTrace 在价格面板叠加收盘价简单均线，前 period-1 个未定义值不绘制。
func smaTrace(prices *simlog.PriceSeries, period int) (figure.Trace, bool) {
	if period <= 1 || prices.Len() < period {
		return figure.Trace{}, false
	}
	sma := talib.Sma(prices.Closes, period)
	points := make([]figure.Point, 0, len(sma)-period+1)
	for i := period - 1; i < len(sma); i++ {
		points = append(points, figure.Point{X: prices.Dates[i], Y: sma[i]})
	}
	return figure.Trace{
		Name:       fmt.Sprintf("SMA %d", period),
		ShowLegend: true,
		Color:      figure.ColorBlue,
		Mode:       figure.ModeLines,
		Points:     points,
	}, true
}

func step(name string, color figure.Color, points []figure.Point) figure.Trace {
	return figure.Trace{
		Name:       name,
		ShowLegend: true,
		Color:      color,
		Mode:       figure.ModeStep,
		Points:     points,
	}
}
