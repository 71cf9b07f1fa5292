package render

import (
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"

	"tanteplot/internal/figure"
)

// 网格外边距（百分比），面板之间留出 gap。
const (
	marginLeft   = 5.0
	marginRight  = 2.0
	marginTop    = 8.0
	marginBottom = 4.0
	rowGap       = 3.0
	colGap       = 3.0
)

type gridBox struct {
	left, top, width, height float64
}

func (b gridBox) opts() opts.Grid {
	return opts.Grid{
		Left:   pct(b.left),
		Top:    pct(b.top),
		Width:  pct(b.width),
		Height: pct(b.height),
	}
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// layout 按行/列比例切分画布，每个面板对应一个 echarts grid。
func layout(fig figure.Figure) []gridBox {
	rowTotal := floats.Sum(fig.RowRatios)
	colTotal := floats.Sum(fig.ColRatios)
	usableH := 100 - marginTop - marginBottom
	usableW := 100 - marginLeft - marginRight

	rowStart := make([]float64, len(fig.RowRatios)+1)
	for i, r := range fig.RowRatios {
		rowStart[i+1] = rowStart[i] + r/rowTotal*usableH
	}
	colStart := make([]float64, len(fig.ColRatios)+1)
	for i, c := range fig.ColRatios {
		colStart[i+1] = colStart[i] + c/colTotal*usableW
	}

	boxes := make([]gridBox, len(fig.Panels))
	for i, p := range fig.Panels {
		top := rowStart[p.Row-1]
		bottom := rowStart[p.LastRow()]
		left := colStart[p.Col-1]
		right := colStart[p.Col]
		boxes[i] = gridBox{
			left:   marginLeft + left,
			top:    marginTop + top,
			width:  math.Max(right-left-colGap, 1),
			height: math.Max(bottom-top-rowGap, 1),
		}
	}
	return boxes
}

// buildChart 把整张图折叠进一个多 grid 的折线图，面板 i 使用第 i 组坐标轴。
func buildChart(fig figure.Figure) (*charts.Line, error) {
	if len(fig.Panels) == 0 {
		return nil, fmt.Errorf("figure has no panels")
	}
	boxes := layout(fig)
	grids := make([]opts.Grid, len(boxes))
	for i, b := range boxes {
		grids[i] = b.opts()
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fig.Title,
			Width:     fmt.Sprintf("%dpx", fig.Width),
			Height:    fmt.Sprintf("%dpx", fig.Height),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      fig.Title,
			Left:       "center",
			TitleStyle: &opts.TextStyle{FontSize: titleFontSize(fig.FontSize)},
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:      opts.Bool(true),
			Top:       "3%",
			Data:      legendNames(fig),
			TextStyle: &opts.TextStyle{FontSize: fig.FontSize},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithGridOpts(grids...),
		charts.WithXAxisOpts(xAxis(fig.Panels[0], 0), 0),
		charts.WithYAxisOpts(yAxis(fig.Panels[0], 0), 0),
	)
	for i, p := range fig.Panels[1:] {
		idx := i + 1
		line.ExtendXAxis(xAxis(p, idx))
		line.ExtendYAxis(yAxis(p, idx))
	}

	for i, p := range fig.Panels {
		for _, tr := range p.Traces {
			addTrace(line, i, tr)
		}
		for _, v := range p.VLines {
			addVLine(line, i, p, v)
		}
	}
	return line, nil
}

func titleFontSize(base int) int {
	if base <= 0 {
		return 14
	}
	return base + 4
}

func legendNames(fig figure.Figure) []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range fig.Panels {
		for _, tr := range p.Traces {
			if !tr.ShowLegend || tr.Name == "" || seen[tr.Name] {
				continue
			}
			seen[tr.Name] = true
			names = append(names, tr.Name)
		}
	}
	return names
}

func xAxis(p figure.Panel, idx int) opts.XAxis {
	ax := opts.XAxis{
		Type:      string(p.XAxis),
		GridIndex: idx,
	}
	if p.XAxis == "" {
		ax.Type = string(figure.AxisValue)
	}
	if p.XMin != nil {
		ax.Min = p.XMin
	}
	if p.XMax != nil {
		ax.Max = p.XMax
	}
	return ax
}

func yAxis(p figure.Panel, idx int) opts.YAxis {
	return opts.YAxis{
		Name:      p.Subtitle,
		GridIndex: idx,
		Scale:     opts.Bool(true),
	}
}

func addTrace(line *charts.Line, panel int, tr figure.Trace) {
	data := make([]opts.LineData, len(tr.Points))
	for i, p := range tr.Points {
		data[i] = opts.LineData{Value: []interface{}{p.X, yValue(p.Y)}}
	}
	lc := opts.LineChart{
		XAxisIndex: panel,
		YAxisIndex: panel,
		ShowSymbol: opts.Bool(tr.Mode == figure.ModeMarkers || tr.Mode == figure.ModeLinesMarkers),
	}
	if tr.Mode == figure.ModeStep {
		lc.Step = "end"
	}
	style := opts.LineStyle{Color: string(tr.Color), Width: 1}
	if tr.Mode == figure.ModeMarkers {
		style.Width = 0
	}
	line.AddSeries(tr.Name, data,
		charts.WithLineChartOpts(lc),
		charts.WithLineStyleOpts(style),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: string(tr.Color)}),
	)
}

// addVLine 以两点折线表示竖线，纵向覆盖面板内全部有定义的 y 值。
func addVLine(line *charts.Line, panel int, p figure.Panel, v figure.VLine) {
	var ys []float64
	for _, tr := range p.Traces {
		for _, pt := range tr.Points {
			if !math.IsNaN(pt.Y) && !math.IsInf(pt.Y, 0) {
				ys = append(ys, pt.Y)
			}
		}
	}
	lo, hi := 0.0, 1.0
	if len(ys) > 0 {
		lo, hi = floats.Min(ys), floats.Max(ys)
	}
	data := []opts.LineData{
		{Value: []interface{}{v.X, lo}},
		{Value: []interface{}{v.X, hi}},
	}
	line.AddSeries("", data,
		charts.WithLineChartOpts(opts.LineChart{XAxisIndex: panel, YAxisIndex: panel, ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: string(v.Color), Width: 1}),
	)
}

// yValue 把未定义值映射为 echarts 的空值占位，使曲线断开。
func yValue(y float64) interface{} {
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return "-"
	}
	return y
}
