// Copyright (c) 2024 TigerDB Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// 		http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server 提供HTTP服务器基础设施：路由、中间件、健康检查与指标端点
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lscgzwd/trialsearch/api/http/common"
	"github.com/lscgzwd/trialsearch/logger"
)

// HealthFunc 返回依赖的状态描述，出错表示不健康
type HealthFunc func(ctx context.Context) (string, error)

// Server HTTP服务器
type Server struct {
	config     *ServerConfig
	router     *Router
	httpServer *http.Server
	middleware Middleware
	version    string

	mu       sync.RWMutex
	started  bool
	listener net.Listener
}

// NewServer 创建新的HTTP服务器
func NewServer(config *ServerConfig, version string) (*Server, error) {
	if config == nil {
		config = DefaultServerConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}

	middleware, err := DefaultMiddlewareStack(config)
	if err != nil {
		return nil, fmt.Errorf("invalid middleware config: %w", err)
	}

	return &Server{
		config:     config,
		router:     NewRouter(config.EnableMetrics),
		middleware: middleware,
		version:    version,
	}, nil
}

// GetRouter 获取路由管理器
func (s *Server) GetRouter() *Router {
	return s.router
}

// AddRoute 添加路由
func (s *Server) AddRoute(method, path string, handler http.HandlerFunc, middlewares ...Middleware) {
	s.router.AddRoute(method, path, handler, middlewares...)
}

// Handler 返回带中间件的根处理器
func (s *Server) Handler() http.Handler {
	return s.middleware(s.router.Build().ServeHTTP)
}

// listen 创建 http.Server 并绑定端口
func (s *Server) listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("server already started")
	}

	httpServer := &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.Handler(),
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		MaxHeaderBytes:    s.config.MaxHeaderBytes,
	}

	if s.config.TLSEnable {
		cert, err := tls.LoadX509KeyPair(s.config.TLSCertFile, s.config.TLSKeyFile)
		if err != nil {
			return fmt.Errorf("failed to load TLS cert: %w", err)
		}
		httpServer.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Address(), err)
	}
	s.httpServer = httpServer
	s.listener = ln
	s.started = true
	return nil
}

func (s *Server) serve() error {
	s.mu.RLock()
	httpServer, ln := s.httpServer, s.listener
	s.mu.RUnlock()

	logger.Info("Starting trialsearch HTTP server on %s", ln.Addr())
	if s.config.TLSEnable {
		return httpServer.ServeTLS(ln, "", "")
	}
	return httpServer.Serve(ln)
}

// Run 启动服务器，ctx 取消后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	if err := s.listen(); err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.serve()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("Server exited")
	return nil
}

// Stop 停止服务器
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.httpServer == nil {
		return nil
	}
	s.started = false
	return s.httpServer.Shutdown(ctx)
}

// IsRunning 检查服务器是否正在运行
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Addr 返回实际监听地址，未启动时为空
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// AddHealthCheck 添加健康检查端点，check 为空时只报告进程存活
func (s *Server) AddHealthCheck(check HealthFunc) {
	s.AddRoute(http.MethodGet, s.config.HealthPath, func(w http.ResponseWriter, r *http.Request) {
		status := common.HealthStatus{
			Status:    "ok",
			Timestamp: time.Now().Unix(),
			Version:   s.version,
		}
		if check != nil {
			dep, err := check(r.Context())
			status.Elasticsearch = dep
			if err != nil {
				status.Status = "unavailable"
				logger.WithField("error", err.Error()).Warn("health check failed")
				if writeErr := common.WriteJSON(w, http.StatusServiceUnavailable, status); writeErr != nil {
					logger.Error("failed to write health response: %v", writeErr)
				}
				return
			}
		}
		common.HandleSuccess(w, status)
	})
}

// AddMetrics 添加 Prometheus 指标端点
func (s *Server) AddMetrics() {
	if s.config.EnableMetrics {
		s.AddRoute(http.MethodGet, s.config.MetricsPath, promhttp.Handler().ServeHTTP)
	}
}
