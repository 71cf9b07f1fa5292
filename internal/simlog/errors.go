package simlog

import (
	"errors"
	"fmt"
)

// ErrConsistency 表示输入数据违反了已知的日志结构约束，属于致命错误，不做恢复。
var ErrConsistency = errors.New("data consistency violation")

// ConsistencyError 描述一次具体的一致性违例。
type ConsistencyError struct {
	Stage  string
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConsistency, e.Stage, e.Detail)
}

func (e *ConsistencyError) Is(target error) bool {
	return target == ErrConsistency
}

// Inconsistent 构造 ConsistencyError。
func Inconsistent(stage, format string, args ...any) error {
	return &ConsistencyError{Stage: stage, Detail: fmt.Sprintf(format, args...)}
}
