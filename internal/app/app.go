package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"tanteplot/internal/config"
	"tanteplot/internal/logger"
	"tanteplot/internal/plot"
	statushttp "tanteplot/internal/transport/http/status"
	"tanteplot/internal/watch"

	"golang.org/x/sync/errgroup"
)

// App 负责应用级编排：首轮生成→（可选）监听目录与状态服务。
type App struct {
	cfg        *config.Config
	pipeline   *plot.Pipeline
	watcher    *watch.Watcher
	statusHTTP *statushttp.Server
	out        io.Writer
	Summary    *StartupSummary
}

// NewApp 根据配置构建应用对象（不启动）
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run 先完成一轮生成；一致性错误直接返回。开启 watch 或状态服务时继续运行直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil || a.pipeline == nil {
		return fmt.Errorf("app not initialized")
	}
	out := a.out
	if out == nil {
		out = os.Stdout
	}
	if a.Summary != nil {
		a.Summary.Print(out)
	}

	report, err := a.pipeline.Run(ctx)
	if report != nil {
		PrintReport(out, report)
	}
	if err != nil {
		return err
	}
	if a.watcher == nil && a.statusHTTP == nil {
		return nil
	}

	group, ctx := errgroup.WithContext(ctx)
	if a.statusHTTP != nil {
		group.Go(func() error {
			if err := a.statusHTTP.Start(ctx); err != nil {
				return fmt.Errorf("status http server error: %w", err)
			}
			return nil
		})
	}
	if a.watcher != nil {
		group.Go(func() error {
			return a.watcher.Run(ctx)
		})
	}
	return group.Wait()
}

// Pipeline exposes the underlying pipeline (for tests and status queries).
func (a *App) Pipeline() *plot.Pipeline {
	if a == nil {
		return nil
	}
	return a.pipeline
}
