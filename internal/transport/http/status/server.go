package statushttp

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"tanteplot/internal/logger"
	"tanteplot/internal/plot"

	"github.com/gin-gonic/gin"
)

// ReportSource 提供最近一次生成的报告。
type ReportSource interface {
	Latest() (plot.Report, bool)
}

// Server 提供只读的运行状态与已生成图表。
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig 描述状态服务依赖。
type ServerConfig struct {
	Addr     string
	Reports  ReportSource
	PlotsDir string
}

var servableExt = map[string]bool{
	".html": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".json": true,
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Reports == nil {
		return nil, errors.New("status http server requires a report source")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9992"
	}
	if cfg.PlotsDir == "" {
		cfg.PlotsDir = "."
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/api/runs/latest", func(c *gin.Context) {
		report, ok := cfg.Reports.Latest()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no run yet"})
			return
		}
		c.JSON(http.StatusOK, report)
	})
	plots := http.Dir(cfg.PlotsDir)
	router.GET("/plots/*path", func(c *gin.Context) {
		rel := path.Clean("/" + c.Param("path"))
		if !servableExt[strings.ToLower(path.Ext(rel))] {
			c.JSON(http.StatusNotFound, gin.H{"error": "not a chart"})
			return
		}
		c.FileFromFS(rel, plots)
	})

	return &Server{addr: cfg.Addr, router: router}, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		p := c.Request.URL.Path
		client := c.ClientIP()
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, p, c.Writer.Status(), client, time.Since(start))
	}
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("status server listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
