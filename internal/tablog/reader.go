// Package tablog 读取模拟器输出的 CSV 日志：可选的 "# key: value" 元信息行 + 带表头的数据。
package tablog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrMissingColumn 表示表头中缺少调用方要求的列。
	ErrMissingColumn = errors.New("missing column")
	// ErrBadValue 表示单元格或元信息无法按期望类型解析。
	ErrBadValue = errors.New("bad value")
)

// Options 控制读取行为。
type Options struct {
	// Comment 非零时跳过以该字符开头的行，并从中解析 "key: value" 元信息。
	Comment rune
}

// Table 是按行索引的表格数据。
type Table struct {
	Path   string
	Header []string
	Rows   [][]string
	Meta   map[string]string

	index map[string]int
}

// Read 读取整个文件。文件不存在时返回的错误满足 errors.Is(err, fs.ErrNotExist)。
func Read(path string, opts Options) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	t := &Table{Path: path, Meta: map[string]string{}}
	if opts.Comment != 0 {
		t.Meta = parseMeta(raw, opts.Comment)
	}
	r := csv.NewReader(bytes.NewReader(raw))
	r.Comment = opts.Comment
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w: empty table, no header", path, ErrBadValue)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Header = make([]string, len(header))
	t.index = make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		t.Header[i] = h
		t.index[h] = i
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Rows = rows
	return t, nil
}

// parseMeta 只解析注释行中带冒号的部分，首个冒号之前为 key。
func parseMeta(raw []byte, comment rune) map[string]string {
	meta := make(map[string]string)
	prefix := string(comment)
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		k, v, ok := strings.Cut(line[len(prefix):], ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		meta[k] = strings.TrimSpace(v)
	}
	return meta
}

// Len 返回数据行数（不含表头与注释）。
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Require 校验所需列全部存在。
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: %w: %s", t.Path, ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// String 返回单元格原文（已去除首尾空白）；缺列或短行返回空串。
func (t *Table) String(row int, col string) string {
	i, ok := t.index[col]
	if !ok || row < 0 || row >= len(t.Rows) || i >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][i])
}

// Float 解析浮点数；空单元格与 "nan" 视为 NaN。
func (t *Table) Float(row int, col string) (float64, error) {
	s := t.String(row, col)
	if IsBlank(s) {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s row %d column %s: %w: %q", t.Path, row, col, ErrBadValue, s)
	}
	return v, nil
}

// Decimal 按十进制原文解析金额列；空单元格与 "nan" 返回 Valid=false。
func (t *Table) Decimal(row int, col string) (decimal.NullDecimal, error) {
	s := t.String(row, col)
	if IsBlank(s) {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%s row %d column %s: %w: %q", t.Path, row, col, ErrBadValue, s)
	}
	return decimal.NewNullDecimal(d), nil
}

// Int 解析整数，同时接受 "3.0" 这类整值浮点写法。
func (t *Table) Int(row int, col string) (int64, error) {
	s := t.String(row, col)
	v, err := parseInt(s)
	if err != nil {
		return 0, fmt.Errorf("%s row %d column %s: %w: %q", t.Path, row, col, ErrBadValue, s)
	}
	return v, nil
}

// MetaInt 读取整数元信息，ok=false 表示 key 不存在。
func (t *Table) MetaInt(key string) (v int64, ok bool, err error) {
	s, ok := t.Meta[key]
	if !ok {
		return 0, false, nil
	}
	v, err = parseInt(s)
	if err != nil {
		return 0, true, fmt.Errorf("%s meta %s: %w: %q", t.Path, key, ErrBadValue, s)
	}
	return v, true, nil
}

// MetaFloat 读取浮点元信息，ok=false 表示 key 不存在。
func (t *Table) MetaFloat(key string) (v float64, ok bool, err error) {
	s, ok := t.Meta[key]
	if !ok {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%s meta %s: %w: %q", t.Path, key, ErrBadValue, s)
	}
	return v, true, nil
}

// IsBlank 判断单元格是否表示缺失值。
func IsBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "nan")
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int64(f), nil
}
