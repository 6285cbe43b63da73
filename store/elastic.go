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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/olivere/elastic/v7"
)

// ESStore 基于 Elasticsearch 集群的 Store
type ESStore struct {
	client  *elastic.Client
	timeout time.Duration
}

var (
	_ Store         = (*ESStore)(nil)
	_ HealthChecker = (*ESStore)(nil)
)

// NewESStore 创建客户端
// 关闭嗅探、健康检查和重试，每个请求只对配置的地址尝试一次
func NewESStore(cfg *Config, errorLog elastic.Logger) (*ESStore, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.URLs...),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
		elastic.SetRetrier(elastic.NewStopRetrier()),
	}
	if cfg.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}
	if errorLog != nil {
		opts = append(opts, elastic.SetErrorLog(errorLog))
	}

	client, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ESStore{client: client, timeout: cfg.Timeout}, nil
}

// Search 在配置的超时时间内对索引执行查询
func (s *ESStore) Search(ctx context.Context, index string, source *elastic.SearchSource) (*elastic.SearchResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.client.Search().Index(index).SearchSource(source).Do(ctx)

	outcome := outcomeOK
	switch {
	case err == nil:
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		outcome = outcomeTimeout
	default:
		outcome = outcomeError
	}
	requestDuration.WithLabelValues(index, outcome).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(index, outcome).Inc()

	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	return res, nil
}

// Healthy 返回集群健康状态，如 "green"
func (s *ESStore) Healthy(ctx context.Context) (string, error) {
	res, err := s.client.ClusterHealth().Do(ctx)
	if err != nil {
		return "", fmt.Errorf("cluster health: %w", err)
	}
	return res.Status, nil
}
