// Package watch 在模拟仍在运行时监听 search_dir，日志文件变化后去抖并重新生成图表。
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"tanteplot/internal/config"
	"tanteplot/internal/logger"
	"tanteplot/internal/plot"
)

const defaultDebounce = 2 * time.Second

// Runner 执行一次完整的生成流程。
type Runner interface {
	Run(ctx context.Context) (*plot.Report, error)
}

// Watcher 在单个 goroutine 内串行触发 Runner，运行之间不会重叠。
type Watcher struct {
	dir      string
	matcher  *plot.Matcher
	debounce time.Duration
	runner   Runner
}

func New(cfg *config.Config, runner Runner) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("watch: config is nil")
	}
	gc := cfg.AccountDataGraph
	matcher, err := plot.NewMatcher(gc.SearchDir, gc.AccountDataPathRegex, gc.OperationsPathRegex)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	debounce := time.Duration(cfg.App.DebounceMS) * time.Millisecond
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{dir: gc.SearchDir, matcher: matcher, debounce: debounce, runner: runner}, nil
}

// Run 阻塞直到 ctx 取消。单次生成失败只记录日志，等待下一次文件变化。
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()
	if err := addTree(fw, w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Infof("watching %s (debounce %s)", w.dir, w.debounce)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(fw, ev.Name); err != nil {
						logger.Warnf("watch %s: %v", ev.Name, err)
					}
					continue
				}
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !w.matcher.Match(ev.Name) {
				continue
			}
			logger.Debugf("change detected: %s", ev.Name)
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("watcher error: %v", err)
		case <-timer.C:
			if _, err := w.runner.Run(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Errorf("regenerate failed: %v", err)
			}
		}
	}
}

// addTree 递归注册目录；fsnotify 本身不递归。
func addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path != root {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return fw.Add(path)
	})
}
