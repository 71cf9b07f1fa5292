package plot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"tanteplot/internal/config"
	"tanteplot/internal/figure"
	"tanteplot/internal/logger"
	"tanteplot/internal/simlog"
)

// Status 是单个输出目标的处理结果。
type Status string

const (
	StatusRendered     Status = "rendered"
	StatusExists       Status = "exists"
	StatusMissingInput Status = "missing_input"
)

const (
	plotEnergy  = "energy_graph"
	plotAccount = "account_data_graph"
)

// Result 记录一个目标的输入、输出与状态；Missing 为缺失的输入文件。
type Result struct {
	Plot           string `json:"plot"`
	AccountPath    string `json:"account_path,omitempty"`
	OperationsPath string `json:"operations_path,omitempty"`
	OutputPath     string `json:"output_path"`
	Status         Status `json:"status"`
	Missing        string `json:"missing,omitempty"`
}

// Report 汇总一次完整运行。
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Energy     *Result   `json:"energy,omitempty"`
	Targets    []Result  `json:"targets"`
	Err        string    `json:"error,omitempty"`
}

// Pipeline 顺序处理能量图与全部账户数据图。Run 不可并发调用。
type Pipeline struct {
	cfg      config.Config
	renderer figure.Renderer

	mu   sync.RWMutex
	last *Report
}

func NewPipeline(cfg *config.Config, renderer figure.Renderer) *Pipeline {
	p := &Pipeline{renderer: renderer}
	if cfg != nil {
		p.cfg = *cfg
	}
	return p
}

// Latest 返回最近一次运行的报告。
func (p *Pipeline) Latest() (Report, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return Report{}, false
	}
	return *p.last, true
}

// Run 先生成能量图，再逐个生成账户数据图。缺失输入只跳过对应目标；
// 一致性错误与渲染失败会中止本次运行。
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := logger.With("run_id", report.RunID)

	energy, err := p.RunEnergy(ctx, log)
	report.Energy = energy
	if err == nil {
		report.Targets, err = p.RunAccount(ctx, log)
	}
	report.FinishedAt = time.Now()
	if err != nil {
		report.Err = err.Error()
	}
	p.mu.Lock()
	p.last = report
	p.mu.Unlock()
	if err != nil {
		return report, err
	}
	log.Infof("run finished: %d targets in %s", len(report.Targets), report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	return report, nil
}

// RunEnergy 生成独立的能量图；未配置 output_path 时返回 nil。
// 能量日志持续增长，因此每次都会覆盖旧图。
func (p *Pipeline) RunEnergy(ctx context.Context, log logger.Scoped) (*Result, error) {
	gc := p.cfg.EnergyGraph
	if gc.OutputPath == "" {
		return nil, nil
	}
	res := &Result{Plot: plotEnergy, OutputPath: gc.OutputPath}
	points, err := simlog.LoadEnergy(gc.InputPath)
	if err != nil {
		if missing, ok := missingPath(err, gc.InputPath); ok {
			log.Infof("%s skipped: %s not found", plotEnergy, missing)
			res.Status, res.Missing = StatusMissingInput, missing
			return res, nil
		}
		return res, err
	}
	fig := AssembleEnergy(points, p.style())
	if err := p.renderer.Render(ctx, fig, gc.OutputPath); err != nil {
		return res, fmt.Errorf("render %s: %w", gc.OutputPath, err)
	}
	res.Status = StatusRendered
	return res, nil
}

// RunAccount 发现全部账户数据目标并逐个生成。已存在的输出不会重写。
func (p *Pipeline) RunAccount(ctx context.Context, log logger.Scoped) ([]Result, error) {
	gc := p.cfg.AccountDataGraph
	targets, err := Discover(gc.SearchDir, gc.AccountDataPathRegex, gc.OperationsPathRegex, gc.OutputExtension)
	if err != nil {
		if missing, ok := missingPath(err, gc.SearchDir); ok {
			log.Infof("%s skipped: %s not found", plotAccount, missing)
			return nil, nil
		}
		return nil, err
	}
	if len(targets) == 0 {
		log.Infof("%s: no account data under %s", plotAccount, gc.SearchDir)
		return nil, nil
	}

	// 能量日志为所有目标共享，只读一次。
	energy, energyErr := simlog.LoadEnergy(gc.LogPath)
	if energyErr != nil && !errors.Is(energyErr, fs.ErrNotExist) {
		return nil, energyErr
	}
	energy = simlog.CompressEnergy(energy, gc.CompressedSize)

	results := make([]Result, 0, len(targets))
	for i, t := range targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		log.Debugf("generating %d/%d: %s", i+1, len(targets), t.AccountPath)
		res := Result{
			Plot:           plotAccount,
			AccountPath:    t.AccountPath,
			OperationsPath: t.OperationsPath,
			OutputPath:     t.OutputPath,
		}
		if _, err := os.Stat(t.OutputPath); err == nil {
			log.Infof("skipping: file already exists %s", t.OutputPath)
			res.Status = StatusExists
			results = append(results, res)
			continue
		}
		if t.OperationsMissing {
			res.Status, res.Missing = StatusMissingInput, t.OperationsPath
			log.Infof("%s skipped: %s not found", plotAccount, t.OperationsPath)
			results = append(results, res)
			continue
		}
		if energyErr != nil {
			res.Status, res.Missing = StatusMissingInput, gc.LogPath
			log.Infof("%s skipped: %s not found", plotAccount, gc.LogPath)
			results = append(results, res)
			continue
		}
		missing, err := p.renderAccount(ctx, t, energy)
		if err != nil {
			return results, err
		}
		if missing != "" {
			log.Infof("%s skipped: %s not found", plotAccount, missing)
			res.Status, res.Missing = StatusMissingInput, missing
		} else {
			res.Status = StatusRendered
		}
		results = append(results, res)
	}
	return results, nil
}

// renderAccount 加载单个目标的输入并渲染；返回非空 missing 表示该目标因缺少输入被跳过。
func (p *Pipeline) renderAccount(ctx context.Context, t Target, energy []simlog.EnergyPoint) (string, error) {
	gc := p.cfg.AccountDataGraph
	ops, err := simlog.LoadOperations(t.OperationsPath)
	if err != nil {
		return skipOrFail(err, t.OperationsPath)
	}
	prices, err := simlog.LoadPrices(gc.SecurityDataPath)
	if err != nil {
		return skipOrFail(err, gc.SecurityDataPath)
	}
	account, err := simlog.LoadAccount(t.AccountPath)
	if err != nil {
		return skipOrFail(err, t.AccountPath)
	}
	fig, err := AssembleAccount(AccountInputs{
		Operations:   ops,
		Account:      account,
		Prices:       prices,
		Energy:       energy,
		SecurityName: gc.SecurityName,
		SMAPeriod:    gc.PriceSMAPeriod,
		Style:        p.style(),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", t.AccountPath, err)
	}
	if err := p.renderer.Render(ctx, fig, t.OutputPath); err != nil {
		return "", fmt.Errorf("render %s: %w", t.OutputPath, err)
	}
	return "", nil
}

func (p *Pipeline) style() Style {
	gc := p.cfg.AccountDataGraph
	return Style{FontSize: gc.FontSize, Width: gc.Width, Height: gc.Height, Scale: gc.Scale}
}

func skipOrFail(err error, path string) (string, error) {
	if missing, ok := missingPath(err, path); ok {
		return missing, nil
	}
	return "", err
}

// missingPath 判断 err 是否为文件缺失，并尽量取出真正缺失的路径。
func missingPath(err error, fallback string) (string, bool) {
	if !errors.Is(err, fs.ErrNotExist) {
		return "", false
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Path != "" {
		return pathErr.Path, true
	}
	return fallback, true
}
