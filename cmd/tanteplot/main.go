package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"tanteplot/internal/app"
	"tanteplot/internal/config"
	"tanteplot/internal/logger"

	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	var (
		cfgPath    string
		section    string
		watchFlag  bool
		defaultCfg = os.Getenv("TANTEPLOT_CONFIG")
	)
	if defaultCfg == "" {
		defaultCfg = "configs/config.json"
	}
	flag.StringVar(&cfgPath, "config", defaultCfg, "配置文件路径（JSON 或 YAML）")
	flag.StringVar(&section, "config-section", config.DefaultSection, "使用的配置 section")
	flag.BoolVar(&watchFlag, "watch", false, "首轮生成后持续监听 search_dir")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath, section)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	if watchFlag {
		cfg.App.Watch = true
	}
	logFile := setupLogOutput(cfg.App.LogPath)
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("✓ 配置加载成功（%s，section=%s）", cfgPath, section)

	a, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}
	if err := a.Run(ctx); err != nil {
		log.Fatalf("运行失败: %v", err)
	}
}

// setupLogOutput 把日志同时写到 stdout 与按大小滚动的文件。
func setupLogOutput(path string) *lumberjack.Logger {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	file := &lumberjack.Logger{
		Filename:   filepath.Clean(trimmed),
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     14,
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file
}
