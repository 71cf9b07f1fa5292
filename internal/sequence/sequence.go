// Package sequence 将扁平的操作日志按 sim_seq_id 还原为逐实体的操作序列。
package sequence

import (
	"tanteplot/internal/simlog"
)

const stage = "sequence reconstruction"

// Sequence 是同一 sim_seq_id 下按文件顺序排列的非空操作列表，构建后只读。
type Sequence []simlog.Operation

// Skipped 报告该序列是否为跳过事件（恒为单元素）。
func (s Sequence) Skipped() bool {
	return len(s) > 0 && s[0].Skipped
}

func (s Sequence) SeqID() int64 {
	if len(s) == 0 {
		return 0
	}
	return s[0].SeqID
}

func (s Sequence) PositionI() int {
	if len(s) == 0 {
		return 0
	}
	return s[0].PositionI
}

// Reconstruct 单遍扫描，按首次出现顺序输出序列。
// 跳过事件立即成为长度为 1 的序列；其余记录并入同 id 的序列（不要求连续）。
func Reconstruct(ops []simlog.Operation) ([]Sequence, error) {
	slot := make(map[int64]int, len(ops))
	out := make([]Sequence, 0)
	for i, op := range ops {
		idx, seen := slot[op.SeqID]
		if op.Skipped {
			if seen {
				return nil, simlog.Inconsistent(stage, "row %d: skipped sequence id %d already processed", i, op.SeqID)
			}
			slot[op.SeqID] = len(out)
			out = append(out, Sequence{op})
			continue
		}
		if op.Type == simlog.OpSkip {
			return nil, simlog.Inconsistent(stage, "row %d: %s in executed sequence %d", i, simlog.OpSkip, op.SeqID)
		}
		if !seen {
			slot[op.SeqID] = len(out)
			out = append(out, Sequence{op})
			continue
		}
		if out[idx].Skipped() {
			return nil, simlog.Inconsistent(stage, "row %d: sequence id %d already closed by a skip", i, op.SeqID)
		}
		out[idx] = append(out[idx], op)
	}
	if err := Verify(out, len(ops)); err != nil {
		return nil, err
	}
	return out, nil
}

// Verify 校验重建结果：记录总数守恒、序列内 id/position 一致、跳过标记只出现在单元素序列。
func Verify(seqs []Sequence, rows int) error {
	total := 0
	for si, seq := range seqs {
		if len(seq) == 0 {
			return simlog.Inconsistent(stage, "sequence %d is empty", si)
		}
		head := seq[0]
		for _, op := range seq {
			total++
			if op.SeqID != head.SeqID {
				return simlog.Inconsistent(stage, "sequence %d mixes ids %d and %d", si, head.SeqID, op.SeqID)
			}
			if op.PositionI != head.PositionI {
				return simlog.Inconsistent(stage, "sequence %d (id %d) spans positions %d and %d", si, head.SeqID, head.PositionI, op.PositionI)
			}
			if len(seq) > 1 && op.Skipped {
				return simlog.Inconsistent(stage, "sequence id %d has %d records but carries the skip marker", head.SeqID, len(seq))
			}
			if op.Skipped && op.HasAccounting() {
				return simlog.Inconsistent(stage, "skipped sequence id %d carries position accounting fields", head.SeqID)
			}
		}
	}
	if total != rows {
		return simlog.Inconsistent(stage, "reconstructed %d records from %d rows", total, rows)
	}
	return nil
}

// Partition 按跳过/执行拆分，保持原有顺序。
func Partition(seqs []Sequence) (skipped, executed []Sequence) {
	for _, seq := range seqs {
		if seq.Skipped() {
			skipped = append(skipped, seq)
		} else {
			executed = append(executed, seq)
		}
	}
	return skipped, executed
}
