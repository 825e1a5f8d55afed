package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"finch/internal/broker"
	"finch/internal/engine"
	"finch/internal/logger"
	"finch/internal/market"
	"finch/internal/series"
	"finch/internal/store/signallog"
	"finch/internal/strategy"
)

// 运维/监控 API：状态、策略参数、信号流水、K 线与指标报告。

// Deps 描述服务依赖。除 Registry 外均可为空，对应接口返回 503。
type Deps struct {
	Symbol   string
	Interval string

	Registry *strategy.Registry
	Store    *series.Store
	Engine   *engine.Engine
	Source   market.Source
	Journal  *signallog.Store
	Account  *broker.PaperAccount
}

// Server 提供 gin HTTP 服务。
type Server struct {
	addr   string
	router *gin.Engine
}

// NewServer 构建服务。addr 为空时监听 :8080。
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Registry == nil {
		return nil, errors.New("http server requires a strategy registry")
	}
	if addr == "" {
		addr = ":8080"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	registerRoutes(router.Group("/api"), deps)

	return &Server{addr: addr, router: router}, nil
}

// Handler 暴露底层路由，便于测试。
func (s *Server) Handler() http.Handler {
	return s.router
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

// requestLogger 记录接口调用，便于追踪人工操作。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, fullPath, status, client, dur)
	}
}
