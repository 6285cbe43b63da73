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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lscgzwd/trialsearch/config"
	"github.com/lscgzwd/trialsearch/logger"
)

// loadConfig 加载配置
// 配置优先级：命令行参数 > 环境变量 > 配置文件 > 默认值
func loadConfig(opts *rootOptions, override func(*config.GlobalConfig)) (*config.GlobalConfig, error) {
	// 1. 加载配置文件（如果存在）
	cfg, err := LoadGlobalConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 2. 应用环境变量覆盖
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}

	// 3. 应用命令行参数覆盖（最高优先级）
	if opts.logLevel != "" {
		if !logger.ValidLevel(opts.logLevel) {
			return nil, fmt.Errorf("invalid --log-level: %s", opts.logLevel)
		}
		cfg.Log.Level = opts.logLevel
	}
	if override != nil {
		override(cfg)
	}

	// 4. 验证配置
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadGlobalConfig 加载全局配置文件
// configPath 为空时自动检测；显式指定但不存在时返回错误
func LoadGlobalConfig(configPath string) (*config.GlobalConfig, error) {
	cfg := config.DefaultGlobalConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("config file not found: %s", configPath)
			}
			return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
		}
		return loadGlobalConfigFromFile(configPath, cfg)
	}

	if detected := autoDetectConfig(); detected != "" {
		return loadGlobalConfigFromFile(detected, cfg)
	}

	// 没有找到配置文件，使用默认配置
	return cfg, nil
}

// loadGlobalConfigFromFile 从文件加载全局配置
func loadGlobalConfigFromFile(configPath string, base *config.GlobalConfig) (*config.GlobalConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	return base, nil
}

// autoDetectConfig 自动检测配置文件
func autoDetectConfig() string {
	paths := []string{
		"config.yaml",
		"config.yml",
		"trialsearch.yaml",
		"trialsearch.yml",
		filepath.Join(".", "config", "trialsearch.yaml"),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".trialsearch", "config.yaml"))
	}
	paths = append(paths, filepath.Join("/etc", "trialsearch", "config.yaml"))

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
