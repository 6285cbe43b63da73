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

// Package config 定义 trialsearch 的全局 YAML 配置
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cast"

	"github.com/lscgzwd/trialsearch/api/http/server"
	"github.com/lscgzwd/trialsearch/geo"
	"github.com/lscgzwd/trialsearch/logger"
	"github.com/lscgzwd/trialsearch/search/engine"
	"github.com/lscgzwd/trialsearch/store"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "TRIALSEARCH_"

// GlobalConfig 全局配置结构
type GlobalConfig struct {
	// HTTP 服务配置（含指标与健康检查端点）
	Server *server.ServerConfig `yaml:"server,omitempty" json:"server,omitempty"`

	// 文档存储
	Elasticsearch *store.Config `yaml:"elasticsearch,omitempty" json:"elasticsearch,omitempty"`

	// 查询引擎：索引名、词条类型、编码字段族
	Search *engine.Config `yaml:"search,omitempty" json:"search,omitempty"`

	// 字段映射
	Schema *SchemaConfig `yaml:"schema,omitempty" json:"schema,omitempty"`

	// 邮编转坐标
	Geo *geo.Config `yaml:"geo,omitempty" json:"geo,omitempty"`

	// 日志配置（全局）
	Log *LogConfig `yaml:"log,omitempty" json:"log,omitempty"`
}

// SchemaConfig 字段映射配置
type SchemaConfig struct {
	// 映射文件路径，为空时使用内置映射
	Path string `yaml:"path" json:"path"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level           string `yaml:"level" json:"level"`                       // 日志级别：debug, info, warn, error, silent
	Output          string `yaml:"output" json:"output"`                     // 输出目标：stdout, stderr, 或文件路径
	Format          string `yaml:"format" json:"format"`                     // 日志格式：text, json
	EnableCaller    bool   `yaml:"enable_caller" json:"enable_caller"`       // 是否显示调用位置（文件:行号）
	EnableTimestamp bool   `yaml:"enable_timestamp" json:"enable_timestamp"` // 是否显示时间戳
	MaxSize         int    `yaml:"max_size" json:"max_size"`                 // 单个日志文件的最大大小（MB）
	MaxBackups      int    `yaml:"max_backups" json:"max_backups"`           // 保留的旧日志文件数量
	MaxAge          int    `yaml:"max_age" json:"max_age"`                   // 保留旧日志文件的最大天数
	Compress        bool   `yaml:"compress" json:"compress"`                 // 是否压缩旧日志文件
}

// LoggerConfig 转换为 logger 包的配置
func (c *LogConfig) LoggerConfig() *logger.Config {
	return &logger.Config{
		Level:           logger.ParseLevel(c.Level),
		Output:          c.Output,
		Format:          c.Format,
		EnableCaller:    c.EnableCaller,
		EnableTimestamp: c.EnableTimestamp,
		MaxSize:         c.MaxSize,
		MaxBackups:      c.MaxBackups,
		MaxAge:          c.MaxAge,
		Compress:        c.Compress,
	}
}

// DefaultGlobalConfig 返回默认全局配置
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Server:        server.DefaultServerConfig(),
		Elasticsearch: store.DefaultConfig(),
		Search:        engine.DefaultConfig(),
		Schema:        &SchemaConfig{},
		Geo:           geo.DefaultConfig(),
		Log: &LogConfig{
			Level:           "info",
			Output:          "stdout",
			Format:          "text",
			EnableTimestamp: true,
			MaxSize:         100,
			MaxBackups:      3,
			MaxAge:          7,
			Compress:        true,
		},
	}
}

// fillDefaults 配置文件里缺失的段落使用默认值
func (c *GlobalConfig) fillDefaults() {
	def := DefaultGlobalConfig()
	if c.Server == nil {
		c.Server = def.Server
	}
	if c.Elasticsearch == nil {
		c.Elasticsearch = def.Elasticsearch
	}
	if c.Search == nil {
		c.Search = def.Search
	}
	if c.Schema == nil {
		c.Schema = def.Schema
	}
	if c.Geo == nil {
		c.Geo = def.Geo
	}
	if c.Log == nil {
		c.Log = def.Log
	}
}

// Validate 验证配置
func (c *GlobalConfig) Validate() error {
	c.fillDefaults()

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	if err := c.Elasticsearch.Validate(); err != nil {
		return fmt.Errorf("invalid elasticsearch config: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("invalid search config: %w", err)
	}
	if err := c.Geo.Validate(); err != nil {
		return fmt.Errorf("invalid geo config: %w", err)
	}
	if c.Log.Level != "" && !logger.ValidLevel(c.Log.Level) {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}

// ApplyEnvOverrides 应用环境变量覆盖，无法解析的值返回错误
func (c *GlobalConfig) ApplyEnvOverrides() error {
	c.fillDefaults()

	// HTTP 服务
	if host := getenv("HOST"); host != "" {
		c.Server.Host = host
	}
	if v := getenv("PORT"); v != "" {
		port, err := cast.ToIntE(v)
		if err != nil {
			return envError("PORT", v, err)
		}
		c.Server.Port = port
	}

	// Elasticsearch
	if v := getenv("ES_URLS"); v != "" {
		c.Elasticsearch.URLs = splitList(v)
	}
	if v := getenv("ES_USERNAME"); v != "" {
		c.Elasticsearch.Username = v
	}
	if v := getenv("ES_PASSWORD"); v != "" {
		c.Elasticsearch.Password = v
	}
	if v := getenv("ES_TIMEOUT"); v != "" {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return envError("ES_TIMEOUT", v, err)
		}
		c.Elasticsearch.Timeout = d
	}

	// 索引名
	if v := getenv("TRIALS_INDEX"); v != "" {
		c.Search.TrialsIndex = v
	}
	if v := getenv("TERMS_INDEX"); v != "" {
		c.Search.TermsIndex = v
	}

	if v := getenv("SCHEMA_PATH"); v != "" {
		c.Schema.Path = v
	}

	// 邮编转坐标
	if v := getenv("GEO_ENABLED"); v != "" {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return envError("GEO_ENABLED", v, err)
		}
		c.Geo.Enabled = b
	}
	if v := getenv("GEO_DB_PATH"); v != "" {
		c.Geo.DBPath = v
	}

	// 日志
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := getenv("LOG_OUTPUT"); v != "" {
		c.Log.Output = v
	}
	return nil
}

func getenv(name string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + name))
}

func envError(name, value string, err error) error {
	return fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, name, value, err)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
