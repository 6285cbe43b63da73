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

package server

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/lscgzwd/trialsearch/api/http/common"
	"github.com/lscgzwd/trialsearch/logger"
)

// Middleware 中间件函数类型
type Middleware func(http.HandlerFunc) http.HandlerFunc

// HeaderRequestID 请求ID头
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// RequestIDFrom 取出请求ID，没有时返回空串
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDMiddleware 为每个请求分配ID，沿用客户端传入的值
func RequestIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	}
}

// LoggingMiddleware 请求日志中间件
func LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := wrapWriter(w)

		next(rw, r)

		// 仅错误或慢请求按 warn 输出，其余为 debug
		duration := time.Since(start)
		entry := logger.WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": duration.Milliseconds(),
			"remote":      r.RemoteAddr,
			"request_id":  RequestIDFrom(r.Context()),
		})
		if rw.statusCode >= 400 || duration > time.Second {
			entry.Warn("request")
			return
		}
		entry.Debug("request")
	}
}

// CORSMiddleware CORS跨域中间件
func CORSMiddleware(allowedOrigins []string) Middleware {
	allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := allowAll
			if !allowed {
				for _, o := range allowedOrigins {
					if origin == o {
						allowed = true
						break
					}
				}
			}

			if allowed {
				if allowAll {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Encoding, X-Request-ID")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			// 预检请求
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next(w, r)
		}
	}
}

// RateLimitMiddleware 按客户端IP限流，rate 格式如 "1000-M"
func RateLimitMiddleware(rate string, trustForwardHeader bool) (Middleware, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	lim := limiter.New(memory.NewStore(), parsed, limiter.WithTrustForwardHeader(trustForwardHeader))

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			lctx, err := lim.Get(r.Context(), lim.GetIPKey(r))
			if err != nil {
				// 限流存储异常时放行
				logger.Warn("rate limiter unavailable: %v", err)
				next(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				rateLimitedTotal.Inc()
				common.HandleError(w, common.NewTooManyRequestsError())
				return
			}
			next(w, r)
		}
	}, nil
}

// RecoveryMiddleware 错误恢复中间件
func RecoveryMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithField("request_id", RequestIDFrom(r.Context())).Error("panic recovered: %v", err)
				common.HandleError(w, common.NewInternalServerError())
			}
		}()

		next(w, r)
	}
}

// RequestSizeLimitMiddleware 请求大小限制中间件
func RequestSizeLimitMiddleware(maxSize int64) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxSize {
				common.HandleError(w, common.NewBadRequestError(common.MsgBodyTooLarge))
				return
			}
			// chunked 编码时 ContentLength 为 -1，依赖 MaxBytesReader
			r.Body = http.MaxBytesReader(w, r.Body, maxSize)
			next(w, r)
		}
	}
}

// TimeoutMiddleware 超时中间件
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if timeout <= 0 {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next(w, r.WithContext(ctx))
		}
	}
}

// SecurityHeadersMiddleware 安全头中间件
func SecurityHeadersMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")

		next(w, r)
	}
}

// GzipDecompressMiddleware 自动解压缩Content-Encoding为gzip的请求体
func GzipDecompressMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			gz, err := gzip.NewReader(r.Body)
			if err != nil {
				common.HandleError(w, common.NewBadRequestError(common.MsgInvalidQuery))
				return
			}
			defer gz.Close()

			r.Body = io.NopCloser(gz)
			r.Header.Del("Content-Encoding")
			r.ContentLength = -1
		}

		next(w, r)
	}
}

// responseWriter 包装ResponseWriter以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func wrapWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// ChainMiddleware 链式组合多个中间件
func ChainMiddleware(middlewares ...Middleware) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		// 反向应用中间件 (洋葱模型)
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// DefaultMiddlewareStack 返回默认中间件栈
func DefaultMiddlewareStack(config *ServerConfig) (Middleware, error) {
	middlewares := []Middleware{
		RequestIDMiddleware,
		LoggingMiddleware,
		RecoveryMiddleware,
		SecurityHeadersMiddleware,
	}

	if config.EnableCORS {
		middlewares = append(middlewares, CORSMiddleware(config.CORSOrigins))
	}

	if config.EnableRateLimit {
		rl, err := RateLimitMiddleware(config.RateLimit, config.TrustForwardHeader)
		if err != nil {
			return nil, err
		}
		middlewares = append(middlewares, rl)
	}

	middlewares = append(middlewares,
		// gzip解压缩应该在请求大小限制之前
		GzipDecompressMiddleware,
		RequestSizeLimitMiddleware(config.MaxRequestSize),
		TimeoutMiddleware(config.HandlerTimeout),
	)

	return ChainMiddleware(middlewares...), nil
}
