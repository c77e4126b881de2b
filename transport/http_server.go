// Package transport 提供认证服务的 HTTP 入口
// 支持 mTLS、中间件链、优雅关闭
package transport

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync"
	"time"

	"github.com/houzhh15/certauth/logging"
)

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// HTTPServer HTTP/REST API 服务器
type HTTPServer interface {
	// Start 启动 HTTP 服务器
	Start(addr string, handler http.Handler) error
	// Stop 停止服务器
	Stop() error
	// RegisterMiddleware 注册中间件
	RegisterMiddleware(mw func(http.Handler) http.Handler)
}

// httpServer HTTP/REST API 服务器实现
type httpServer struct {
	server      *http.Server
	tlsConfig   *tls.Config
	config      ServerConfig
	middlewares []func(http.Handler) http.Handler
	mu          sync.RWMutex
}

// NewHTTPServer 创建 HTTP 服务器
// tlsConfig 为 nil 则使用普通 HTTP（不推荐生产环境，且无法提取客户端证书）
func NewHTTPServer(tlsConfig *tls.Config, config *ServerConfig) HTTPServer {
	cfg := ServerConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}

	return &httpServer{
		tlsConfig:   tlsConfig,
		config:      cfg,
		middlewares: make([]func(http.Handler) http.Handler, 0),
	}
}

// RegisterMiddleware 注册中间件（后进先出顺序执行）
func (s *httpServer) RegisterMiddleware(mw func(http.Handler) http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middlewares = append(s.middlewares, mw)
}

// Start 启动 HTTP 服务器
func (s *httpServer) Start(addr string, handler http.Handler) error {
	s.mu.Lock()

	// 应用中间件链（反向顺序）
	finalHandler := handler
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		finalHandler = s.middlewares[i](finalHandler)
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      finalHandler,
		TLSConfig:    s.tlsConfig,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.mu.Unlock()

	var err error
	if s.tlsConfig != nil {
		// HTTPS with mTLS，证书已在 tlsConfig 中配置
		err = s.server.ListenAndServeTLS("", "")
	} else {
		err = s.server.ListenAndServe()
	}

	// ErrServerClosed 不是错误（正常关闭）
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop 优雅关闭服务器（等待现有连接完成）
func (s *httpServer) Stop() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.server == nil {
		return nil
	}

	// 5 秒超时
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// StopImmediately 立即关闭服务器（强制断开所有连接）
func (s *httpServer) StopImmediately() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.server == nil {
		return nil
	}

	return s.server.Close()
}

// LoggingMiddleware 记录每个请求的方法、路径和耗时
func LoggingMiddleware(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"duration", time.Since(start).String(),
			)
		})
	}
}
