// Package http 提供HTTP服务器功能
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// maxRequestBody 表单与JSON请求体上限
const maxRequestBody = 64 << 10

// Server HTTP服务器
type Server struct {
	server  *http.Server
	handler http.Handler
	live    *LiveScorer
	config  ServerConfig
	logger  *zap.Logger
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8501,
		Timeout:        30 * time.Second,
		AllowedOrigins: []string{"*"},
		RateLimitRPS:   20,
		RateLimitBurst: 40,
	}
}

// MetricsExporter 请求指标采集与/metrics导出
type MetricsExporter interface {
	RequestObserver
	Handler() http.Handler
}

// NewServer 创建HTTP服务器；metrics为nil时不暴露/metrics
func NewServer(config ServerConfig, h *Handlers, metrics MetricsExporter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	// 注册所有处理器
	RegisterHandlers(mux, h)
	live := NewLiveScorer(h, config.AllowedOrigins)
	mux.HandleFunc("GET /ws/predict", live.HandleWebSocket)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	// 创建中间件链
	middlewares := []Middleware{
		RecoveryMiddleware(logger), // 1. 恢复中间件（最先执行，捕获panic）
		RequestIDMiddleware,        // 2. 请求ID
		LoggerMiddleware(logger),   // 3. 日志中间件
		SecurityHeadersMiddleware,  // 4. 安全头中间件
		CORSMiddleware(config.AllowedOrigins),
		RateLimitMiddleware(config.RateLimitRPS, config.RateLimitBurst),
	}
	if metrics != nil {
		middlewares = append(middlewares, MetricsMiddleware(metrics, mux))
	}
	middlewares = append(middlewares, RequestSizeMiddleware(maxRequestBody))

	handler := Chain(middlewares...)(mux)

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.Port),
			Handler:           handler,
			ReadHeaderTimeout: config.Timeout,
			ReadTimeout:       config.Timeout,
			WriteTimeout:      config.Timeout,
			IdleTimeout:       120 * time.Second,
		},
		handler: handler,
		live:    live,
		config:  config,
		logger:  logger,
	}
}

// Start 启动服务器，阻塞直到服务器关闭
func (s *Server) Start() error {
	s.logger.Info("starting http server",
		zap.String("addr", s.server.Addr),
		zap.String("form", fmt.Sprintf("http://localhost%s/", s.server.Addr)),
		zap.String("websocket", fmt.Sprintf("ws://localhost%s/ws/predict", s.server.Addr)),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器，先断开WebSocket连接
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down http server")
	s.live.Close()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr 返回服务器地址
func (s *Server) Addr() string {
	return s.server.Addr
}

// Handler 返回带中间件的根处理器
func (s *Server) Handler() http.Handler {
	return s.handler
}
