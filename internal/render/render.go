// Package render 把 figure 布局输出为文件：echarts HTML、无头 Chrome 截图或 JSON 布局文档。
package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-echarts/go-echarts/v2/components"

	"tanteplot/internal/figure"
)

const (
	defaultTimeout = 30 * time.Second
	defaultSettle  = 1500 * time.Millisecond

	pngQuality  = 100
	jpegQuality = 90
)

// Renderer 实现 figure.Renderer。
type Renderer struct {
	Timeout time.Duration
	// Settle 是截图前等待 echarts 完成绘制的时间。
	Settle time.Duration
}

func New() *Renderer {
	return &Renderer{Timeout: defaultTimeout, Settle: defaultSettle}
}

var _ figure.Renderer = (*Renderer)(nil)

// Render 按扩展名选择输出格式，先写临时文件再原子替换。
func (r *Renderer) Render(ctx context.Context, fig figure.Figure, path string) error {
	if err := fig.Validate(); err != nil {
		return err
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	var (
		data []byte
		err  error
	)
	switch ext {
	case "json":
		data, err = json.MarshalIndent(fig, "", "  ")
	case "html":
		data, err = renderHTML(fig)
	case "png":
		data, err = r.screenshot(ctx, fig, pngQuality)
	case "jpg", "jpeg":
		data, err = r.screenshot(ctx, fig, jpegQuality)
	default:
		return fmt.Errorf("unsupported output extension %q for %s", ext, path)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", ext, err)
	}
	return writeFile(path, data)
}

func renderHTML(fig figure.Figure) ([]byte, error) {
	line, err := buildChart(fig)
	if err != nil {
		return nil, err
	}
	page := components.NewPage()
	page.AddCharts(line)
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) screenshot(ctx context.Context, fig figure.Figure, quality int) ([]byte, error) {
	if err := EnsureHeadlessAvailable(ctx); err != nil {
		return nil, fmt.Errorf("headless chrome unavailable: %w", err)
	}
	html, err := renderHTML(fig)
	if err != nil {
		return nil, err
	}
	scale := fig.Scale
	if scale <= 0 {
		scale = 1
	}
	return r.renderHTMLToImage(ctx, html, fig.Width, fig.Height, scale, quality)
}

var (
	headlessOnce sync.Once
	headlessErr  error
)

// EnsureHeadlessAvailable 只探测一次本机 Chrome 是否可用。
func EnsureHeadlessAvailable(ctx context.Context) error {
	headlessOnce.Do(func() {
		targetCtx := ctx
		if targetCtx == nil {
			targetCtx = context.Background()
		}
		parent, cancel := chromedp.NewContext(targetCtx)
		defer cancel()
		headlessErr = chromedp.Run(parent)
	})
	return headlessErr
}

func (r *Renderer) renderHTMLToImage(ctx context.Context, html []byte, width, height int, scale float64, quality int) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	parent, cancel := chromedp.NewContext(ctx)
	defer cancel()

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	timeoutCtx, cancelTimeout := context.WithTimeout(parent, timeout)
	defer cancelTimeout()

	dataURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html)
	var shot []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(width), int64(height), chromedp.EmulateScale(scale)),
		chromedp.Navigate(dataURI),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(r.Settle),
		chromedp.FullScreenshot(&shot, quality),
	}
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return nil, err
	}
	return shot, nil
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tanteplot-*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish %s: %w", path, err)
	}
	return nil
}
