package plot

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/facette/natsort"
)

// Target 是一个账户数据图的输入/输出三元组。
// OperationsMissing 表示发现时尚未找到对应的操作日志（模拟仍在运行）。
type Target struct {
	AccountPath       string
	OperationsPath    string
	OutputPath        string
	OperationsMissing bool
}

// Discover 遍历 root，按整路径匹配两个正则（与 find -regex 语义一致），
// 以自然序返回账户数据目标。
func Discover(root, accountPattern, operationsPattern, outputExt string) ([]Target, error) {
	accountRe, err := fullMatch(accountPattern)
	if err != nil {
		return nil, fmt.Errorf("account data regex: %w", err)
	}
	opsRe, err := fullMatch(operationsPattern)
	if err != nil {
		return nil, fmt.Errorf("operations regex: %w", err)
	}
	var accounts []string
	operations := make(map[string]bool)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		p, err := findPath(root, path)
		if err != nil {
			return err
		}
		if accountRe.MatchString(p) {
			accounts = append(accounts, p)
		}
		if opsRe.MatchString(p) {
			operations[p] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}
	natsort.Sort(accounts)

	targets := make([]Target, 0, len(accounts))
	for _, acc := range accounts {
		ops := OperationsPathFor(acc)
		targets = append(targets, Target{
			AccountPath:       acc,
			OperationsPath:    ops,
			OutputPath:        OutputPathFor(acc, outputExt),
			OperationsMissing: !operations[ops],
		})
	}
	return targets, nil
}

// OperationsPathFor 由账户数据路径推导对应的操作日志路径。
func OperationsPathFor(accountPath string) string {
	return strings.ReplaceAll(accountPath, "account_data", "operations")
}

// OutputPathFor 把末尾的 csv 替换为输出扩展名。
func OutputPathFor(accountPath, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if strings.HasSuffix(accountPath, "csv") {
		return strings.TrimSuffix(accountPath, "csv") + ext
	}
	return accountPath + "." + ext
}

// Matcher 以与 Discover 相同的路径形式判断文件是否命中任一正则。
type Matcher struct {
	root string
	res  []*regexp.Regexp
}

func NewMatcher(root string, patterns ...string) (*Matcher, error) {
	m := &Matcher{root: root}
	for _, p := range patterns {
		re, err := fullMatch(p)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", p, err)
		}
		m.res = append(m.res, re)
	}
	return m, nil
}

func (m *Matcher) Match(path string) bool {
	p, err := findPath(m.root, path)
	if err != nil {
		return false
	}
	for _, re := range m.res {
		if re.MatchString(p) {
			return true
		}
	}
	return false
}

func fullMatch(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + pattern + ")$")
}

// findPath 复现 find 的输出形式：保留 root 原文（如 "./runs"），再拼接相对路径。
func findPath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.ToSlash(root), "/")
	if rel == "." {
		return base, nil
	}
	return base + "/" + filepath.ToSlash(rel), nil
}
