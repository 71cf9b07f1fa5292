// Package figure 定义交给渲染器的声明式图表布局：面板、曲线与整体尺寸。
package figure

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
)

type Color string

// 与 analysis 图表保持一致的配色。
const (
	ColorBlue      Color = "#3b82f6"
	ColorGreen     Color = "#34d399"
	ColorRed       Color = "#f87171"
	ColorLightGrey Color = "#c8cdd5"
)

// Mode 决定曲线的绘制方式。
type Mode string

const (
	ModeLines        Mode = "lines"
	ModeMarkers      Mode = "markers"
	ModeLinesMarkers Mode = "lines+markers"
	ModeStep         Mode = "step"
)

// AxisKind 是面板 x 轴的类型。
type AxisKind string

const (
	AxisTime  AxisKind = "time"
	AxisValue AxisKind = "value"
)

// Point 是一个 (x, y) 点；Y 为 NaN 时渲染为断点。
type Point struct {
	X any     `json:"x"`
	Y float64 `json:"y"`
}

// MarshalJSON 把未定义的 y 写为 null。
func (p Point) MarshalJSON() ([]byte, error) {
	var y any = p.Y
	if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
		y = nil
	}
	return json.Marshal(struct {
		X any `json:"x"`
		Y any `json:"y"`
	}{p.X, y})
}

// Trace 是创建后不再修改的曲线描述。
type Trace struct {
	Name       string  `json:"name,omitempty"`
	ShowLegend bool    `json:"show_legend,omitempty"`
	Color      Color   `json:"color"`
	Mode       Mode    `json:"mode"`
	MarkerSize int     `json:"marker_size,omitempty"`
	Points     []Point `json:"points"`
}

// Ys 返回全部 y 值（含 NaN）。
func (t Trace) Ys() []float64 {
	ys := make([]float64, len(t.Points))
	for i, p := range t.Points {
		ys[i] = p.Y
	}
	return ys
}

// VLine 是面板内的竖直标记线。
type VLine struct {
	X     any   `json:"x"`
	Color Color `json:"color"`
}

// Panel 占据网格中的一个或多个行位（行号从 1 开始）。
type Panel struct {
	Row         int      `json:"row"`
	RowSpan     int      `json:"row_span,omitempty"`
	Col         int      `json:"col"`
	Subtitle    string   `json:"subtitle,omitempty"`
	LegendGroup string   `json:"legend_group,omitempty"`
	XAxis       AxisKind `json:"x_axis"`
	XMin        any      `json:"x_min,omitempty"`
	XMax        any      `json:"x_max,omitempty"`
	Traces      []Trace  `json:"traces"`
	VLines      []VLine  `json:"vlines,omitempty"`
}

// LastRow 返回面板覆盖的最后一行。
func (p Panel) LastRow() int {
	if p.RowSpan <= 1 {
		return p.Row
	}
	return p.Row + p.RowSpan - 1
}

// Figure 是完整的多面板布局。
type Figure struct {
	Title     string    `json:"title,omitempty"`
	FontSize  int       `json:"font_size,omitempty"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Scale     float64   `json:"scale,omitempty"`
	RowRatios []float64 `json:"row_ratios"`
	ColRatios []float64 `json:"col_ratios"`
	Panels    []Panel   `json:"panels"`
}

// Validate 校验面板位置落在行/列比例定义的网格内。
func (f Figure) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("figure size must be positive, got %dx%d", f.Width, f.Height)
	}
	if len(f.RowRatios) == 0 || len(f.ColRatios) == 0 {
		return fmt.Errorf("figure requires row and column ratios")
	}
	for _, r := range append(append([]float64{}, f.RowRatios...), f.ColRatios...) {
		if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			return fmt.Errorf("figure ratios must be positive, got %v", r)
		}
	}
	for i, p := range f.Panels {
		if p.Row < 1 || p.LastRow() > len(f.RowRatios) {
			return fmt.Errorf("panel %d rows %d..%d outside 1..%d", i, p.Row, p.LastRow(), len(f.RowRatios))
		}
		if p.Col < 1 || p.Col > len(f.ColRatios) {
			return fmt.Errorf("panel %d column %d outside 1..%d", i, p.Col, len(f.ColRatios))
		}
	}
	return nil
}

// Renderer 将布局写为图片/文档文件，格式由扩展名决定。
type Renderer interface {
	Render(ctx context.Context, fig Figure, path string) error
}
