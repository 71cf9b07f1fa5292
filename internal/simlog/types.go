// Package simlog 将模拟器的各类 CSV 日志解析为强类型记录。
package simlog

import "github.com/shopspring/decimal"

// OpType 是操作日志中的 type 列。
type OpType string

const (
	OpSkip         OpType = "OP_SKIP"
	OpBuyAll       OpType = "OP_BUY_ALL"
	OpBuyFraction  OpType = "OP_BUY_FRACTION"
	OpSellAll      OpType = "OP_SELL_ALL"
	OpSellFraction OpType = "OP_SELL_FRACTION"
)

// SkippedMarker 是 sim_skipped 列中标记跳过序列的取值。
const SkippedMarker = "SIM_SKIPPED"

// Operation 是一条模拟操作记录。Fraction 缺失时为 NaN；
// 持仓核算字段按十进制原文保存，缺失时 Valid=false。
type Operation struct {
	SeqID     int64
	PositionI int
	Type      OpType
	Fraction  float64
	Skipped   bool
	// DT 保留日志原文，用于与价格序列做精确日期匹配。
	DT           string
	PosValue     decimal.NullDecimal
	PosTotalGain decimal.NullDecimal
	PosTotalCost decimal.NullDecimal
}

// HasAccounting 报告持仓核算字段是否存在任一取值。
func (o Operation) HasAccounting() bool {
	return o.PosValue.Valid || o.PosTotalGain.Valid || o.PosTotalCost.Valid
}

// OperationsMeta 来自操作日志的注释行。
type OperationsMeta struct {
	State            int
	MaxOpenPositions int
	NAssets          int
}

type OperationsLog struct {
	Path string
	Meta OperationsMeta
	Ops  []Operation
}

// EnergyPoint 是能量日志的一行。
type EnergyPoint struct {
	StateI      int64
	Temperature float64
	Energy      float64
}

type AccountMeta struct {
	StateI  int
	NStates int
	Energy  float64
}

type AccountRow struct {
	Date       string
	TotalValue float64
	TotalFees  float64
	Cash       float64
}

type AccountLog struct {
	Path string
	Meta AccountMeta
	Rows []AccountRow
}
