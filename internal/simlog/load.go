package simlog

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/shopspring/decimal"

	"tanteplot/internal/tablog"
)

// 列名与元信息 key，与模拟器输出保持一致。
const (
	colSeqID        = "sim_seq_id"
	colPositionI    = "position_i"
	colType         = "type"
	colFraction     = "fraction"
	colSkipped      = "sim_skipped"
	colDT           = "dt"
	colPosValue     = "sim_pos_value"
	colPosTotalGain = "sim_pos_total_gain"
	colPosTotalCost = "sim_pos_total_cost"

	colStateI      = "state_i"
	colTemperature = "temperature"
	colEnergy      = "energy"

	colDate       = "date"
	colTotalValue = "total_value"
	colTotalFees  = "total_fees"
	colCash       = "cash"

	colPriceDate  = "Date"
	colPriceClose = "Close"

	metaState            = "state"
	metaMaxOpenPositions = "max_open_positions"
	metaNAssets          = "n_assets"
	metaStateI           = "state_i"
	metaNStates          = "n_states"
	metaEnergy           = "energy"
)

var commentOpts = tablog.Options{Comment: '#'}

// LoadOperations 读取操作日志（元信息 state / max_open_positions / n_assets + 数据行）。
func LoadOperations(path string) (*OperationsLog, error) {
	const stage = "operations log"
	tbl, err := tablog.Read(path, commentOpts)
	if err != nil {
		return nil, classify(stage, err)
	}
	if err := tbl.Require(colSeqID, colPositionI, colType, colFraction, colSkipped, colDT,
		colPosValue, colPosTotalGain, colPosTotalCost); err != nil {
		return nil, classify(stage, err)
	}
	state, err := requireMetaInt(tbl, stage, metaState)
	if err != nil {
		return nil, err
	}
	maxOpen, err := requireMetaInt(tbl, stage, metaMaxOpenPositions)
	if err != nil {
		return nil, err
	}
	if maxOpen <= 0 {
		return nil, Inconsistent(stage, "%s: %s must be > 0, got %d", path, metaMaxOpenPositions, maxOpen)
	}
	nAssets, _, err := tbl.MetaInt(metaNAssets)
	if err != nil {
		return nil, classify(stage, err)
	}

	ops := make([]Operation, 0, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		op, err := parseOperation(tbl, i)
		if err != nil {
			return nil, classify(stage, err)
		}
		ops = append(ops, op)
	}
	return &OperationsLog{
		Path: path,
		Meta: OperationsMeta{State: int(state), MaxOpenPositions: int(maxOpen), NAssets: int(nAssets)},
		Ops:  ops,
	}, nil
}

func parseOperation(tbl *tablog.Table, i int) (Operation, error) {
	var (
		op  Operation
		err error
	)
	if op.SeqID, err = tbl.Int(i, colSeqID); err != nil {
		return op, err
	}
	pos, err := tbl.Int(i, colPositionI)
	if err != nil {
		return op, err
	}
	op.PositionI = int(pos)
	op.Type = OpType(tbl.String(i, colType))
	op.DT = tbl.String(i, colDT)
	switch marker := tbl.String(i, colSkipped); {
	case marker == SkippedMarker:
		op.Skipped = true
	case tablog.IsBlank(marker):
	default:
		return op, Inconsistent("operations log", "%s row %d: unexpected %s value %q", tbl.Path, i, colSkipped, marker)
	}
	if op.Fraction, err = tbl.Float(i, colFraction); err != nil {
		return op, err
	}
	for col, dst := range map[string]*decimal.NullDecimal{
		colPosValue:     &op.PosValue,
		colPosTotalGain: &op.PosTotalGain,
		colPosTotalCost: &op.PosTotalCost,
	} {
		if *dst, err = tbl.Decimal(i, col); err != nil {
			return op, err
		}
	}
	return op, nil
}

// LoadEnergy 读取能量日志（state_i, temperature, energy）。
func LoadEnergy(path string) ([]EnergyPoint, error) {
	const stage = "energy log"
	tbl, err := tablog.Read(path, commentOpts)
	if err != nil {
		return nil, classify(stage, err)
	}
	if err := tbl.Require(colStateI, colTemperature, colEnergy); err != nil {
		return nil, classify(stage, err)
	}
	points := make([]EnergyPoint, 0, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		var p EnergyPoint
		if p.StateI, err = tbl.Int(i, colStateI); err != nil {
			return nil, classify(stage, err)
		}
		if p.Temperature, err = tbl.Float(i, colTemperature); err != nil {
			return nil, classify(stage, err)
		}
		if p.Energy, err = tbl.Float(i, colEnergy); err != nil {
			return nil, classify(stage, err)
		}
		points = append(points, p)
	}
	return points, nil
}

// LoadAccount 读取账户数据日志（元信息 state_i / n_states / energy）。
func LoadAccount(path string) (*AccountLog, error) {
	const stage = "account log"
	tbl, err := tablog.Read(path, commentOpts)
	if err != nil {
		return nil, classify(stage, err)
	}
	if err := tbl.Require(colDate, colTotalValue, colTotalFees, colCash); err != nil {
		return nil, classify(stage, err)
	}
	stateI, err := requireMetaInt(tbl, stage, metaStateI)
	if err != nil {
		return nil, err
	}
	nStates, err := requireMetaInt(tbl, stage, metaNStates)
	if err != nil {
		return nil, err
	}
	energy, ok, err := tbl.MetaFloat(metaEnergy)
	if err != nil {
		return nil, classify(stage, err)
	}
	if !ok {
		return nil, Inconsistent(stage, "%s: missing meta %q", path, metaEnergy)
	}
	rows := make([]AccountRow, 0, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		row := AccountRow{Date: tbl.String(i, colDate)}
		if row.TotalValue, err = tbl.Float(i, colTotalValue); err != nil {
			return nil, classify(stage, err)
		}
		if row.TotalFees, err = tbl.Float(i, colTotalFees); err != nil {
			return nil, classify(stage, err)
		}
		if row.Cash, err = tbl.Float(i, colCash); err != nil {
			return nil, classify(stage, err)
		}
		rows = append(rows, row)
	}
	return &AccountLog{
		Path: path,
		Meta: AccountMeta{StateI: int(stateI), NStates: int(nStates), Energy: energy},
		Rows: rows,
	}, nil
}

// LoadPrices 读取标的价格序列（Date, Close）。
func LoadPrices(path string) (*PriceSeries, error) {
	const stage = "price series"
	tbl, err := tablog.Read(path, tablog.Options{})
	if err != nil {
		return nil, classify(stage, err)
	}
	if err := tbl.Require(colPriceDate, colPriceClose); err != nil {
		return nil, classify(stage, err)
	}
	dates := make([]string, tbl.Len())
	closes := make([]float64, tbl.Len())
	for i := range dates {
		dates[i] = tbl.String(i, colPriceDate)
		if closes[i], err = tbl.Float(i, colPriceClose); err != nil {
			return nil, classify(stage, err)
		}
	}
	return NewPriceSeries(dates, closes)
}

// CompressEnergy 以固定步长抽样，点数不超过约 budget；短日志原样返回。
func CompressEnergy(points []EnergyPoint, budget int) []EnergyPoint {
	step := 1
	if budget > 0 && len(points) > budget {
		step = len(points) / budget
	}
	if step <= 1 {
		return points
	}
	out := make([]EnergyPoint, 0, len(points)/step+1)
	for i := 0; i < len(points); i += step {
		out = append(out, points[i])
	}
	return out
}

func requireMetaInt(tbl *tablog.Table, stage, key string) (int64, error) {
	v, ok, err := tbl.MetaInt(key)
	if err != nil {
		return 0, classify(stage, err)
	}
	if !ok {
		return 0, Inconsistent(stage, "%s: missing meta %q", tbl.Path, key)
	}
	return v, nil
}

// classify 保留文件缺失错误以便调用方跳过，其余解析问题一律视为一致性错误。
func classify(stage string, err error) error {
	if err == nil || errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrConsistency) {
		return err
	}
	return Inconsistent(stage, "%s", strings.TrimSpace(err.Error()))
}
