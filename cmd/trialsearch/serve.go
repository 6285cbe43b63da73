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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lscgzwd/trialsearch/api"
	"github.com/lscgzwd/trialsearch/api/http/server"
	"github.com/lscgzwd/trialsearch/config"
	"github.com/lscgzwd/trialsearch/geo"
	"github.com/lscgzwd/trialsearch/logger"
	"github.com/lscgzwd/trialsearch/search/engine"
	"github.com/lscgzwd/trialsearch/search/schema"
	"github.com/lscgzwd/trialsearch/store"
)

type serveOptions struct {
	host string
	port int
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	so := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, func(c *config.GlobalConfig) {
				if c.Server == nil {
					c.Server = server.DefaultServerConfig()
				}
				if cmd.Flags().Changed("host") {
					c.Server.Host = so.host
				}
				if cmd.Flags().Changed("port") {
					c.Server.Port = so.port
				}
			})
			if err != nil {
				return err
			}
			if err := initLogger(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&so.host, "host", "", "Server host address")
	cmd.Flags().IntVarP(&so.port, "port", "p", 0, "Server port")
	return cmd
}

// loadSchema 加载字段映射，未配置路径时使用内置映射
func loadSchema(cfg *config.GlobalConfig) (*schema.Schema, error) {
	if cfg.Schema == nil || cfg.Schema.Path == "" {
		return schema.Default(), nil
	}
	s, err := schema.LoadFile(cfg.Schema.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return s, nil
}

// buildDeps 创建存储、查询引擎和邮编库。返回的 closer 释放邮编库
func buildDeps(cfg *config.GlobalConfig, st store.Store, health func(context.Context) (string, error)) (api.Deps, func(), error) {
	sch, err := loadSchema(cfg)
	if err != nil {
		return api.Deps{}, nil, err
	}

	deps := api.Deps{
		Trials:  engine.NewTrialEngine(st, sch, cfg.Search),
		Terms:   engine.NewTermEngine(st, cfg.Search),
		Mapping: engine.PublicMapping(sch),
		Health:  health,
		Version: versionInfo(),
	}
	closer := func() {}

	// 未启用时保持 Geo 为 nil 接口
	if cfg.Geo != nil && cfg.Geo.Enabled {
		resolver, err := geo.Open(cfg.Geo)
		if err != nil {
			return api.Deps{}, nil, err
		}
		deps.Geo = resolver
		closer = func() {
			if err := resolver.Close(); err != nil {
				logger.Warn("Failed to close geo db: %v", err)
			}
		}
	}
	return deps, closer, nil
}

func runServer(ctx context.Context, cfg *config.GlobalConfig) error {
	es, err := store.NewESStore(cfg.Elasticsearch, logger.GetGlobalLogger().Printer(logger.LevelError))
	if err != nil {
		return fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	deps, closeDeps, err := buildDeps(cfg, es, es.Healthy)
	if err != nil {
		return err
	}
	defer closeDeps()

	srv, err := api.NewServer(cfg.Server, deps)
	if err != nil {
		return err
	}

	logger.Info("trialsearch %s starting on %s (trials=%s, terms=%s)",
		Version, cfg.Server.Address(), cfg.Search.TrialsIndex, cfg.Search.TermsIndex)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("trialsearch stopped")
	return nil
}
