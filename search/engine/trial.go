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

// Package engine 执行试验和词条搜索
//
// 校验请求参数，构建存储请求，并整理存储返回的结果
package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/olivere/elastic/v7"

	"github.com/lscgzwd/trialsearch/logger"
	"github.com/lscgzwd/trialsearch/search/params"
	"github.com/lscgzwd/trialsearch/search/query"
	"github.com/lscgzwd/trialsearch/search/schema"
	"github.com/lscgzwd/trialsearch/store"
)

const (
	// codedTypesKey 保存概念类型的聚合属性
	codedTypesKey = "types"

	nciIDPrefix = "NCI-"
)

// TrialEngine 临床试验的搜索、获取和聚合
type TrialEngine struct {
	store  store.Store
	schema *schema.Schema
	cfg    *Config

	searchValidator    *params.Validator
	aggregateValidator *params.Validator
	filters            *query.FilterComposer
	aggs               *query.AggregationComposer
}

// NewTrialEngine 创建试验引擎，schema 和配置由所有请求只读共享
func NewTrialEngine(st store.Store, s *schema.Schema, cfg *Config) *TrialEngine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &TrialEngine{
		store:              st,
		schema:             s,
		cfg:                cfg,
		searchValidator:    params.NewValidator(s, params.TrialControl...),
		aggregateValidator: params.NewValidator(s, params.AggregateControl...),
		filters:            query.NewFilterComposer(s, cfg.NestedPaths),
		aggs:               query.NewAggregationComposer(s, cfg.CodedFamilies),
	}
}

// Schema 返回校验所用的字段 schema
func (e *TrialEngine) Schema() *schema.Schema {
	return e.schema
}

// Get 按 NCI 或 NCT 编号获取试验，不存在时返回 (nil, nil)
func (e *TrialEngine) Get(ctx context.Context, id string) (Document, error) {
	id = strings.TrimSpace(id)
	field := "nct_id"
	if strings.HasPrefix(id, nciIDPrefix) {
		field = "nci_id"
	}
	src := elastic.NewSearchSource().Query(elastic.NewMatchQuery(field, id)).Size(1)

	res, err := e.search(ctx, "get trial", e.cfg.TrialsIndex, src)
	if err != nil {
		return nil, err
	}
	if res.Hits == nil || len(res.Hits.Hits) == 0 {
		return nil, nil
	}
	doc, err := PublicDocument(res.Hits.Hits[0].Source)
	if err != nil {
		return nil, &StoreError{Op: "decode trial", Err: err}
	}
	return doc, nil
}

// Build 校验参数并构建试验搜索请求
func (e *TrialEngine) Build(p params.Params) (*elastic.SearchSource, error) {
	errs := &params.ValidationError{}
	mergeValidation(errs, e.searchValidator.Validate(p))

	from := query.ParseFrom(p, errs)
	size := query.ParseSize(p, query.TrialSizeLimit, errs)
	bq := e.trialQuery(p, errs)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	src := elastic.NewSearchSource().
		Query(bq).
		From(from).
		Size(size).
		SortBy(query.TrialSort(p)...)
	if fsc := query.SourceFilter(p); fsc != nil {
		src = src.FetchSourceContext(fsc)
	}
	return src, nil
}

// Search 执行试验搜索
func (e *TrialEngine) Search(ctx context.Context, p params.Params) (*TrialResult, error) {
	src, err := e.Build(p)
	if err != nil {
		return nil, err
	}
	res, err := e.search(ctx, "search trials", e.cfg.TrialsIndex, src)
	if err != nil {
		return nil, err
	}

	out := &TrialResult{Total: res.TotalHits(), Trials: []Document{}}
	if res.Hits == nil {
		return out, nil
	}
	for _, hit := range res.Hits.Hits {
		doc, err := PublicDocument(hit.Source)
		if err != nil {
			return nil, &StoreError{Op: "decode trial", Err: err}
		}
		out.Trials = append(out.Trials, doc)
	}
	return out, nil
}

// BuildAggregate 校验参数并构建聚合请求，请求不取命中文档
func (e *TrialEngine) BuildAggregate(p params.Params) (query.AggregationSpec, *elastic.SearchSource, error) {
	errs := &params.ValidationError{}
	mergeValidation(errs, e.aggregateValidator.Validate(p))

	spec, err := e.aggs.Spec(p)
	mergeValidation(errs, err)
	bq := e.trialQuery(p, errs)
	if err := errs.Err(); err != nil {
		return query.AggregationSpec{}, nil, err
	}

	name, agg := e.aggs.Build(spec)
	src := elastic.NewSearchSource().Query(bq).Size(0).Aggregation(name, agg)
	return spec, src, nil
}

// Aggregate 执行聚合
// 指定 agg_ancestor 时先查询祖先概念名称，再去掉重复祖先名称的子类型
func (e *TrialEngine) Aggregate(ctx context.Context, p params.Params) (*AggregateResult, error) {
	spec, src, err := e.BuildAggregate(p)
	if err != nil {
		return nil, err
	}

	var ancestorNames []string
	if name, agg, ok := e.aggs.AncestorNames(spec); ok {
		first := elastic.NewSearchSource().Size(0).Aggregation(name, agg)
		res, err := e.search(ctx, "aggregate ancestors", e.cfg.TrialsIndex, first)
		if err != nil {
			return nil, err
		}
		ancestorNames = e.aggs.ExtractAncestorNames(spec, res.Aggregations)
	}

	res, err := e.search(ctx, "aggregate trials", e.cfg.TrialsIndex, src)
	if err != nil {
		return nil, err
	}
	buckets := e.aggs.Extract(spec, res.Aggregations)
	if len(ancestorNames) > 0 {
		buckets = query.DropAncestorSubtypes(buckets, ancestorNames, e.cfg.DiseaseNameMatch, codedTypesKey, e.cfg.SubtypeValue)
	}
	return &AggregateResult{Total: res.TotalHits(), Terms: buckets}, nil
}

// trialQuery 过滤条件与 _fulltext 相关度查询取 AND
func (e *TrialEngine) trialQuery(p params.Params, errs *params.ValidationError) *elastic.BoolQuery {
	bq := elastic.NewBoolQuery()
	clauses, err := e.filters.Compose(p)
	mergeValidation(errs, err)
	if len(clauses) > 0 {
		bq = bq.Filter(clauses...)
	}
	if q := query.Relevance(p.Get(params.ParamFulltext)); q != nil {
		bq = bq.Must(q)
	}
	return bq
}

func (e *TrialEngine) search(ctx context.Context, op, index string, src *elastic.SearchSource) (*elastic.SearchResult, error) {
	return runSearch(ctx, e.store, op, index, src)
}

func runSearch(ctx context.Context, st store.Store, op, index string, src *elastic.SearchSource) (*elastic.SearchResult, error) {
	res, err := st.Search(ctx, index, src)
	if err != nil {
		logger.WithFields(map[string]interface{}{"op": op, "index": index}).Error("store request failed: %v", err)
		return nil, &StoreError{Op: op, Err: err}
	}
	if res == nil {
		res = &elastic.SearchResult{}
	}
	return res, nil
}

// mergeValidation 把校验错误合并到 errs，校验器不会返回其他错误
func mergeValidation(errs *params.ValidationError, err error) {
	var ve *params.ValidationError
	if errors.As(err, &ve) {
		errs.Merge(ve)
	}
}
