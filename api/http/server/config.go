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
	"fmt"
	"time"

	"github.com/ulule/limiter/v3"
)

// ServerConfig HTTP服务器配置
type ServerConfig struct {
	// 基础配置
	Host string `json:"host" yaml:"host"` // 监听主机，默认"0.0.0.0"
	Port int    `json:"port" yaml:"port"` // 监听端口，默认3000

	// 超时配置
	ReadTimeout       time.Duration `json:"read_timeout" yaml:"read_timeout"`               // 读取超时，默认30s
	WriteTimeout      time.Duration `json:"write_timeout" yaml:"write_timeout"`             // 写入超时，默认60s
	IdleTimeout       time.Duration `json:"idle_timeout" yaml:"idle_timeout"`               // 空闲超时，默认120s
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout"` // 读取头超时，默认10s
	HandlerTimeout    time.Duration `json:"handler_timeout" yaml:"handler_timeout"`         // 单个请求处理超时，0 表示不限制

	MaxHeaderBytes int `json:"max_header_bytes" yaml:"max_header_bytes"` // 最大头字节数，默认1MB

	// TLS配置
	TLSEnable   bool   `json:"tls_enable" yaml:"tls_enable"`
	TLSCertFile string `json:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile  string `json:"tls_key_file" yaml:"tls_key_file"`

	// 中间件配置
	EnableCORS         bool     `json:"enable_cors" yaml:"enable_cors"`                   // 是否启用CORS，默认true
	CORSOrigins        []string `json:"cors_origins" yaml:"cors_origins"`                 // CORS允许的源，默认["*"]
	EnableRateLimit    bool     `json:"enable_rate_limit" yaml:"enable_rate_limit"`       // 是否启用限流，默认false
	RateLimit          string   `json:"rate_limit" yaml:"rate_limit"`                     // 限流速率，格式如 "1000-M"
	TrustForwardHeader bool     `json:"trust_forward_header" yaml:"trust_forward_header"` // 限流时是否信任 X-Forwarded-For

	// 监控配置
	EnableMetrics bool   `json:"enable_metrics" yaml:"enable_metrics"` // 是否启用指标收集，默认true
	MetricsPath   string `json:"metrics_path" yaml:"metrics_path"`     // 指标端点路径，默认"/_metrics"
	HealthPath    string `json:"health_path" yaml:"health_path"`       // 健康检查路径，默认"/_health"

	MaxRequestSize int64 `json:"max_request_size" yaml:"max_request_size"` // 最大请求大小，默认1MB

	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"` // 关闭超时，默认30s
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host: "0.0.0.0",
		Port: 3000,

		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,

		MaxHeaderBytes: 1 << 20,

		EnableCORS:      true,
		CORSOrigins:     []string{"*"},
		EnableRateLimit: false,
		RateLimit:       "1000-M",

		EnableMetrics: true,
		MetricsPath:   "/_metrics",
		HealthPath:    "/_health",

		MaxRequestSize: 1 << 20, // 查询参数体很小，1MB 足够

		ShutdownTimeout: 30 * time.Second,
	}
}

// Validate 验证配置
func (c *ServerConfig) Validate() error {
	// 允许端口 0（系统自动分配）用于测试场景
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be between 1 and 65535, or 0 for automatic assignment)", c.Port)
	}

	if c.EnableRateLimit {
		if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
			return fmt.Errorf("invalid rate_limit %q: %w", c.RateLimit, err)
		}
	}

	if c.MaxRequestSize <= 0 {
		return fmt.Errorf("max_request_size must be greater than 0")
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be greater than 0")
	}

	if c.TLSEnable && (c.TLSCertFile == "" || c.TLSKeyFile == "") {
		return fmt.Errorf("TLS cert file and key file must be specified when TLS is enabled")
	}

	return nil
}

// Address 返回服务器监听地址
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Clone 克隆配置
func (c *ServerConfig) Clone() *ServerConfig {
	clone := *c
	if c.CORSOrigins != nil {
		clone.CORSOrigins = make([]string, len(c.CORSOrigins))
		copy(clone.CORSOrigins, c.CORSOrigins)
	}
	return &clone
}
