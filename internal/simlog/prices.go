package simlog

import "fmt"

// PriceSeries 是单个标的的日期→收盘价序列，保持文件顺序。
type PriceSeries struct {
	Dates  []string
	Closes []float64

	byDate map[string][]int
}

// NewPriceSeries 以并行切片构建价格序列，长度不一致时返回错误。
func NewPriceSeries(dates []string, closes []float64) (*PriceSeries, error) {
	if len(dates) != len(closes) {
		return nil, fmt.Errorf("price series length mismatch: %d dates, %d closes", len(dates), len(closes))
	}
	ps := &PriceSeries{
		Dates:  dates,
		Closes: closes,
		byDate: make(map[string][]int, len(dates)),
	}
	for i, d := range dates {
		ps.byDate[d] = append(ps.byDate[d], i)
	}
	return ps, nil
}

func (p *PriceSeries) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Dates)
}

// Close 按精确日期查询收盘价，匹配数必须恰好为 1。
func (p *PriceSeries) Close(date string) (float64, error) {
	if p == nil {
		return 0, Inconsistent("price lookup", "no price series loaded")
	}
	idx := p.byDate[date]
	if len(idx) != 1 {
		return 0, Inconsistent("price lookup", "date %q matched %d rows, want exactly 1", date, len(idx))
	}
	return p.Closes[idx[0]], nil
}
