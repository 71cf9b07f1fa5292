package app

import (
	"context"
	"fmt"
	"io"

	"tanteplot/internal/config"
	"tanteplot/internal/figure"
	"tanteplot/internal/plot"
	"tanteplot/internal/render"
	statushttp "tanteplot/internal/transport/http/status"
	"tanteplot/internal/watch"
)

type AppBuilder struct {
	cfg *config.Config
	out io.Writer

	rendererFn   func() figure.Renderer
	watcherFn    func(*config.Config, watch.Runner) (*watch.Watcher, error)
	statusHTTPFn func(config.AppConfig, statushttp.ReportSource, string) (*statushttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

// WithRenderer 替换默认的 echarts/chromedp 渲染器。
func WithRenderer(r figure.Renderer) AppBuilderOption {
	return func(b *AppBuilder) {
		b.rendererFn = func() figure.Renderer { return r }
	}
}

// WithOutput 指定摘要与运行报告的输出位置。
func WithOutput(w io.Writer) AppBuilderOption {
	return func(b *AppBuilder) {
		b.out = w
	}
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:          cfg,
		rendererFn:   func() figure.Renderer { return render.New() },
		watcherFn:    watch.New,
		statusHTTPFn: buildStatusHTTPServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	pipeline := plot.NewPipeline(b.cfg, b.rendererFn())
	app := &App{
		cfg:      b.cfg,
		pipeline: pipeline,
		out:      b.out,
		Summary:  newStartupSummary(b.cfg),
	}
	if b.cfg.Watching() {
		w, err := b.watcherFn(b.cfg, pipeline)
		if err != nil {
			return nil, err
		}
		app.watcher = w
	}
	if b.cfg.App.HTTPAddr != "" {
		srv, err := b.statusHTTPFn(b.cfg.App, pipeline, b.cfg.AccountDataGraph.SearchDir)
		if err != nil {
			return nil, err
		}
		app.statusHTTP = srv
	}
	return app, nil
}

func buildStatusHTTPServer(cfg config.AppConfig, reports statushttp.ReportSource, plotsDir string) (*statushttp.Server, error) {
	return statushttp.NewServer(statushttp.ServerConfig{
		Addr:     cfg.HTTPAddr,
		Reports:  reports,
		PlotsDir: plotsDir,
	})
}

type appBuilderDeps interface {
	Build(context.Context) (*App, error)
}

func provideAppFromBuilder(b appBuilderDeps, ctx context.Context) (*App, error) {
	return b.Build(ctx)
}

func provideAppBuilder(cfg *config.Config) *AppBuilder {
	return NewAppBuilder(cfg)
}
