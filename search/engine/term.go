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

package engine

import (
	"context"
	"strings"

	"github.com/olivere/elastic/v7"

	"github.com/lscgzwd/trialsearch/search/params"
	"github.com/lscgzwd/trialsearch/search/query"
	"github.com/lscgzwd/trialsearch/store"
)

// scoreKey 词条文档的相关度得分
const scoreKey = "score"

// TermEngine 检索自动补全词条索引
type TermEngine struct {
	store store.Store
	cfg   *Config
}

// NewTermEngine 创建词条引擎
func NewTermEngine(st store.Store, cfg *Config) *TermEngine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &TermEngine{store: st, cfg: cfg}
}

// Build 构建词条请求，忽略白名单以外的参数
func (e *TermEngine) Build(p params.Params) (*elastic.SearchSource, error) {
	return query.TermSource(p, e.cfg.TermTypes)
}

// Search 执行词条搜索
func (e *TermEngine) Search(ctx context.Context, p params.Params) (*TermResult, error) {
	src, err := e.Build(p)
	if err != nil {
		return nil, err
	}
	res, err := runSearch(ctx, e.store, "search terms", e.cfg.TermsIndex, src)
	if err != nil {
		return nil, err
	}

	out := &TermResult{Total: res.TotalHits(), Terms: []Document{}}
	if res.Hits == nil {
		return out, nil
	}
	for _, hit := range res.Hits.Hits {
		doc, err := PublicDocument(hit.Source)
		if err != nil {
			return nil, &StoreError{Op: "decode term", Err: err}
		}
		if hit.Score != nil {
			doc[scoreKey] = *hit.Score
		} else {
			doc[scoreKey] = nil
		}
		out.Terms = append(out.Terms, doc)
	}
	return out, nil
}

// Get 按 term_key 获取词条，不存在时返回 (nil, nil)
func (e *TermEngine) Get(ctx context.Context, key string) (Document, error) {
	res, err := runSearch(ctx, e.store, "get term", e.cfg.TermsIndex, query.TermKeySource(strings.TrimSpace(key)))
	if err != nil {
		return nil, err
	}
	if res.Hits == nil || len(res.Hits.Hits) == 0 {
		return nil, nil
	}
	doc, err := PublicDocument(res.Hits.Hits[0].Source)
	if err != nil {
		return nil, &StoreError{Op: "decode term", Err: err}
	}
	return doc, nil
}
