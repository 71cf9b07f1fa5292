package app

import (
	"fmt"
	"io"
	"strings"

	"tanteplot/internal/config"
	"tanteplot/internal/plot"
)

type StartupSummary struct {
	Energy  EnergySummary
	Account AccountSummary
	Watch   bool
	HTTP    string
}

type EnergySummary struct {
	InputPath  string
	OutputPath string
}

type AccountSummary struct {
	SearchDir         string
	AccountPattern    string
	OperationsPattern string
	OutputExtension   string
	Size              string
}

func newStartupSummary(cfg *config.Config) *StartupSummary {
	gc := cfg.AccountDataGraph
	return &StartupSummary{
		Energy: EnergySummary{InputPath: cfg.EnergyGraph.InputPath, OutputPath: cfg.EnergyGraph.OutputPath},
		Account: AccountSummary{
			SearchDir:         gc.SearchDir,
			AccountPattern:    gc.AccountDataPathRegex,
			OperationsPattern: gc.OperationsPathRegex,
			OutputExtension:   gc.OutputExtension,
			Size:              fmt.Sprintf("%dx%d @%gx, font %d", gc.Width, gc.Height, gc.Scale, gc.FontSize),
		},
		Watch: cfg.Watching(),
		HTTP:  cfg.App.HTTPAddr,
	}
}

func (s *StartupSummary) Print(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "%*s\n", 40+len("启动配置摘要 (STARTUP SUMMARY)")/2, "启动配置摘要 (STARTUP SUMMARY)")
	fmt.Fprintln(w, strings.Repeat("=", 80))

	fmt.Fprintln(w, "[能量图 (ENERGY GRAPH)]")
	if s.Energy.OutputPath == "" {
		fmt.Fprintln(w, "  (未启用)")
	} else {
		fmt.Fprintf(w, "  输入: %s\n", orDash(s.Energy.InputPath))
		fmt.Fprintf(w, "  输出: %s\n", s.Energy.OutputPath)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[账户数据图 (ACCOUNT DATA GRAPH)]")
	fmt.Fprintf(w, "  搜索目录: %s\n", orDash(s.Account.SearchDir))
	fmt.Fprintf(w, "  账户日志: %s\n", orDash(s.Account.AccountPattern))
	fmt.Fprintf(w, "  操作日志: %s\n", orDash(s.Account.OperationsPattern))
	fmt.Fprintf(w, "  输出格式: %s (%s)\n", orDash(s.Account.OutputExtension), s.Account.Size)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[运行模式 (MODE)]")
	fmt.Fprintf(w, "  监听目录: %t\n", s.Watch)
	fmt.Fprintf(w, "  状态服务: %s\n", orDash(s.HTTP))
	fmt.Fprintln(w, strings.Repeat("=", 80))
}

// PrintReport 输出单次运行的逐目标结果。
func PrintReport(w io.Writer, r *plot.Report) {
	counts := make(map[plot.Status]int)
	fmt.Fprintf(w, "run %s\n", r.RunID)
	if r.Energy != nil {
		fmt.Fprintf(w, "  %-14s %s\n", r.Energy.Status, r.Energy.OutputPath)
	}
	for _, t := range r.Targets {
		counts[t.Status]++
		line := fmt.Sprintf("  %-14s %s", t.Status, t.OutputPath)
		if t.Missing != "" {
			line += fmt.Sprintf(" (missing %s)", t.Missing)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "  rendered=%d exists=%d missing=%d\n",
		counts[plot.StatusRendered], counts[plot.StatusExists], counts[plot.StatusMissingInput])
	if r.Err != "" {
		fmt.Fprintf(w, "  error: %s\n", r.Err)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
