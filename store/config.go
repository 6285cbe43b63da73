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

package store

import (
	"fmt"
	"time"
)

// Config Elasticsearch 连接配置
type Config struct {
	URLs     []string `json:"urls" yaml:"urls"`         // 集群地址，默认 ["http://127.0.0.1:9200"]
	Username string   `json:"username" yaml:"username"` // Basic Auth 用户名（可选）
	Password string   `json:"password" yaml:"password"` // Basic Auth 密码（可选）

	// 每次查询的超时时间
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		URLs:    []string{"http://127.0.0.1:9200"},
		Timeout: 10 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if len(c.URLs) == 0 {
		return fmt.Errorf("elasticsearch urls cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("elasticsearch timeout must be greater than 0")
	}
	return nil
}
