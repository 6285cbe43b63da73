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

// Package api 组装 trialsearch 的 HTTP 服务：/v1 路由、健康检查与指标端点
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/lscgzwd/trialsearch/api/handler"
	"github.com/lscgzwd/trialsearch/api/http/common"
	"github.com/lscgzwd/trialsearch/api/http/server"
)

// Deps 处理器依赖
type Deps struct {
	Trials  handler.TrialSearcher
	Terms   handler.TermSearcher
	Geo     handler.GeoLookup // 可为空，不做邮编转坐标
	Mapping interface{}       // 公开的字段映射
	Health  server.HealthFunc // 可为空
	Version common.VersionInfo
}

// APIServer trialsearch HTTP 服务
type APIServer struct {
	httpServer *server.Server
	trials     *handler.TrialHandler
	terms      *handler.TermHandler
	meta       *handler.MetaHandler
}

// NewServer 创建 API 服务并注册全部路由
func NewServer(cfg *server.ServerConfig, deps Deps) (*APIServer, error) {
	if deps.Trials == nil || deps.Terms == nil {
		return nil, fmt.Errorf("trial and term engines are required")
	}

	httpSrv, err := server.NewServer(cfg, deps.Version.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP server: %w", err)
	}

	s := &APIServer{
		httpServer: httpSrv,
		trials:     handler.NewTrialHandler(deps.Trials, deps.Geo, deps.Mapping),
		terms:      handler.NewTermHandler(deps.Terms, deps.Geo),
		meta:       handler.NewMetaHandler(deps.Version),
	}
	s.registerRoutes(deps.Health)
	return s, nil
}

func (s *APIServer) registerRoutes(health server.HealthFunc) {
	routes := []server.Route{
		{Method: http.MethodGet, Path: "/v1/clinical-trial.json", Handler: s.trials.Mapping},
		{Method: http.MethodGet, Path: "/v1/clinical-trial/{id}", Handler: s.trials.GetTrial},
		{Method: http.MethodGet, Path: "/v1/clinical-trials", Handler: s.trials.SearchTrials},
		{Method: http.MethodPost, Path: "/v1/clinical-trials", Handler: s.trials.SearchTrials},
		{Method: http.MethodGet, Path: "/v1/clinical-trials/aggregate", Handler: s.trials.AggregateTrials},
		{Method: http.MethodPost, Path: "/v1/clinical-trials/aggregate", Handler: s.trials.AggregateTrials},
		{Method: http.MethodGet, Path: "/v1/terms", Handler: s.terms.SearchTerms},
		{Method: http.MethodPost, Path: "/v1/terms", Handler: s.terms.SearchTerms},
		{Method: http.MethodGet, Path: "/v1/term/{key}", Handler: s.terms.GetTerm},
		{Method: http.MethodGet, Path: "/v1/version", Handler: s.meta.Version},
	}
	s.httpServer.GetRouter().AddRoutes(routes)
	s.httpServer.AddHealthCheck(health)
	s.httpServer.AddMetrics()
}

// Handler 返回根处理器
func (s *APIServer) Handler() http.Handler {
	return s.httpServer.Handler()
}

// Run 启动服务，ctx 取消后优雅关闭
func (s *APIServer) Run(ctx context.Context) error {
	return s.httpServer.Run(ctx)
}

// Addr 返回监听地址
func (s *APIServer) Addr() string {
	return s.httpServer.Addr()
}
