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

// Package store 文档存储边界，搜索引擎对 Elasticsearch 的所有请求都经过 Store
package store

import (
	"context"

	"github.com/olivere/elastic/v7"
)

// Store 在索引上执行一次搜索请求
type Store interface {
	Search(ctx context.Context, index string, source *elastic.SearchSource) (*elastic.SearchResult, error)
}

// HealthChecker 能报告集群健康状态的存储
type HealthChecker interface {
	Healthy(ctx context.Context) (string, error)
}
