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

package geo

import "fmt"

// Config 邮编坐标库配置
type Config struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`       // 是否启用邮编转坐标
	DBPath    string `json:"db_path" yaml:"db_path"`       // bbolt 数据文件路径
	CacheSize int    `json:"cache_size" yaml:"cache_size"` // LRU 缓存条目数
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Enabled:   false,
		DBPath:    "./data/postal_codes.db",
		CacheSize: 4096,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.DBPath == "" {
		return fmt.Errorf("geo db_path cannot be empty")
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("geo cache_size must be greater than 0")
	}
	return nil
}
