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

// Package query 把校验后的请求参数转换为 Elasticsearch 查询、排序和聚合
package query

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olivere/elastic/v7"
	"github.com/spf13/cast"
	"golang.org/x/text/cases"

	"github.com/lscgzwd/trialsearch/search/params"
	"github.com/lscgzwd/trialsearch/search/schema"
)

const (
	// DateLayout 日期边界统一精确到天
	DateLayout = "2006-01-02"

	nestedScoreMode = "avg"
)

// TrialIDFields 试验的各种编号字段
var TrialIDFields = []string{
	"ccr_id", "ctep_id", "dcp_id", "nci_id", "nct_id", "other_ids.value", "protocol_id",
}

// target 字段参数及其取值
type target struct {
	params.Target
	Values []string
}

// stage 把对应类型的参数转换为查询子句
type stage struct {
	kinds []params.Kind
	build func(targets []target, errs *params.ValidationError) []elastic.Query
}

// stages 固定的处理顺序
var stages = []stage{
	{[]params.Kind{params.KindString, params.KindRaw, params.KindAuto}, buildStringFilters},
	{[]params.Kind{params.KindDate}, buildDateFilters},
	{[]params.Kind{params.KindLong}, buildLongFilters},
	{[]params.Kind{params.KindFloat}, buildFloatFilters},
	{[]params.Kind{params.KindBoolean}, buildBooleanFilters},
	{[]params.Kind{params.KindGeo}, buildGeoFilters},
	{[]params.Kind{params.KindFulltext}, buildFulltextFilters},
}

// FilterComposer 把字段参数转换为过滤子句
type FilterComposer struct {
	schema      *schema.Schema
	nestedPaths []string
}

// NewFilterComposer 创建过滤 composer
// 只有 schema 中也声明为 nested 的路径才会组合成 nested 子句
func NewFilterComposer(s *schema.Schema, nestedPaths []string) *FilterComposer {
	var paths []string
	for _, path := range nestedPaths {
		if s.Is(path, schema.TypeNested) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return &FilterComposer{schema: s, nestedPaths: paths}
}

// NestedPaths 返回可组合 nested 查询的路径
func (c *FilterComposer) NestedPaths() []string {
	return append([]string(nil), c.nestedPaths...)
}

// Compose 返回 p 的过滤子句，由调用方取 AND
// 本次发现的所有非法值都放在同一个 ValidationError 中返回
func (c *FilterComposer) Compose(p params.Params) ([]elastic.Query, error) {
	errs := &params.ValidationError{}

	var candidates []target
	for _, name := range p.Names() {
		t, ok := params.Classify(c.schema, name)
		if !ok {
			continue
		}
		candidates = append(candidates, target{Target: t, Values: p.Values(name)})
	}

	remaining, nested := c.partitionNested(candidates)

	var clauses []elastic.Query
	clauses = append(clauses, runStages(remaining, errs)...)
	if q := TrialIDFilter(p.Values(params.ParamTrialIDs)); q != nil {
		clauses = append(clauses, q)
	}
	for _, group := range nested {
		inner := runStages(group.targets, errs)
		if len(inner) == 0 {
			continue
		}
		clauses = append(clauses, elastic.NewNestedQuery(group.path, elastic.NewBoolQuery().Filter(inner...)).ScoreMode(nestedScoreMode))
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return clauses, nil
}

type nestedGroup struct {
	path    string
	targets []target
}

// partitionNested 取出有两个及以上参数的 nested 路径
// 被取出的参数不再参与顶层处理
func (c *FilterComposer) partitionNested(candidates []target) ([]target, []nestedGroup) {
	var groups []nestedGroup
	consumed := make(map[string]bool)
	for _, path := range c.nestedPaths {
		var members []target
		for _, t := range candidates {
			if !consumed[t.Name] && strings.HasPrefix(t.Name, path+".") {
				members = append(members, t)
			}
		}
		if len(members) < 2 {
			continue
		}
		for _, t := range members {
			consumed[t.Name] = true
		}
		groups = append(groups, nestedGroup{path: path, targets: members})
	}

	var remaining []target
	for _, t := range candidates {
		if !consumed[t.Name] {
			remaining = append(remaining, t)
		}
	}
	return remaining, groups
}

func runStages(targets []target, errs *params.ValidationError) []elastic.Query {
	var clauses []elastic.Query
	for _, st := range stages {
		var matched []target
		for _, t := range targets {
			for _, k := range st.kinds {
				if t.Kind == k {
					matched = append(matched, t)
					break
				}
			}
		}
		if len(matched) > 0 {
			clauses = append(clauses, st.build(matched, errs)...)
		}
	}
	return clauses
}

// anyOf 子句取 OR，只有一个子句时直接返回
func anyOf(clauses []elastic.Query) elastic.Query {
	if len(clauses) == 1 {
		return clauses[0]
	}
	return elastic.NewBoolQuery().Should(clauses...)
}

// Fold 过滤值大小写折叠
func Fold(v string) string {
	return cases.Fold().String(v)
}

func buildStringFilters(targets []target, _ *params.ValidationError) []elastic.Query {
	var out []elastic.Query
	for _, t := range targets {
		var values []elastic.Query
		for _, v := range t.Values {
			switch t.Kind {
			case params.KindRaw:
				values = append(values, elastic.NewTermQuery(t.Field+"."+params.SuffixRaw, v))
			case params.KindAuto:
				values = append(values, elastic.NewMatchPhrasePrefixQuery(t.Field+"."+params.SuffixAuto, v))
			default:
				values = append(values, elastic.NewTermQuery(t.Field, Fold(v)))
			}
		}
		if len(values) > 0 {
			out = append(out, anyOf(values))
		}
	}
	return out
}

func buildFulltextFilters(targets []target, _ *params.ValidationError) []elastic.Query {
	var out []elastic.Query
	for _, t := range targets {
		var values []elastic.Query
		for _, v := range t.Values {
			values = append(values, elastic.NewMatchPhraseQuery(t.Field+"._fulltext", v))
		}
		if len(values) > 0 {
			out = append(out, anyOf(values))
		}
	}
	return out
}

func buildBooleanFilters(targets []target, errs *params.ValidationError) []elastic.Query {
	var out []elastic.Query
	for _, t := range targets {
		var values []elastic.Query
		for _, v := range t.Values {
			b, ok := ParseBool(v)
			if !ok {
				errs.Addf(t.Name, "Invalid boolean supplied for %s. Please use true, false, 1 or 0.", t.Name)
				continue
			}
			values = append(values, elastic.NewTermQuery(t.Field, b))
		}
		if len(values) > 0 {
			out = append(out, anyOf(values))
		}
	}
	return out
}

// ParseBool 只接受 "true"/"1" 和 "false"/"0"
func ParseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// byField 按基础字段分组，字段按名称排序
func byField(targets []target) ([]string, map[string][]target) {
	groups := make(map[string][]target)
	var fields []string
	for _, t := range targets {
		if _, ok := groups[t.Field]; !ok {
			fields = append(fields, t.Field)
		}
		groups[t.Field] = append(groups[t.Field], t)
	}
	sort.Strings(fields)
	return fields, groups
}

type boundParser func(v string) (interface{}, bool)

func buildRangeFilters(targets []target, errs *params.ValidationError, parse boundParser, reason string) []elastic.Query {
	var out []elastic.Query
	fields, groups := byField(targets)
	for _, field := range fields {
		q := elastic.NewRangeQuery(field)
		bounded := false
		for _, t := range groups[field] {
			bound, ok := parseBound(t, parse, errs, reason)
			if !ok {
				continue
			}
			switch t.Suffix {
			case params.SuffixGte:
				q = q.Gte(bound)
			case params.SuffixLte:
				q = q.Lte(bound)
			}
			bounded = true
		}
		if bounded {
			out = append(out, q)
		}
	}
	return out
}

// parseBound 校验范围参数的每个值，范围参数只能有一个值
func parseBound(t target, parse boundParser, errs *params.ValidationError, reason string) (interface{}, bool) {
	values := t.Values
	if len(values) == 0 {
		values = []string{""}
	}
	var bound interface{}
	for _, v := range values {
		b, ok := parse(v)
		if !ok {
			errs.Addf(t.Name, reason, t.Name)
			return nil, false
		}
		bound = b
	}
	if len(values) > 1 {
		addMultipleValues(t, errs)
		return nil, false
	}
	return bound, true
}

// singleValue 返回 t 的唯一值，没有值时返回空串
func singleValue(t target, errs *params.ValidationError) (string, bool) {
	switch len(t.Values) {
	case 0:
		return "", true
	case 1:
		return t.Values[0], true
	}
	addMultipleValues(t, errs)
	return "", false
}

func addMultipleValues(t target, errs *params.ValidationError) {
	errs.Addf(t.Name, "Multiple values supplied for %s. Please supply a single value.", t.Name)
}

func buildDateFilters(targets []target, errs *params.ValidationError) []elastic.Query {
	return buildRangeFilters(targets, errs, func(v string) (interface{}, bool) {
		d, ok := ParseDate(v)
		return d, ok
	}, "Invalid date supplied for %s. Please use format YYYY-MM-DD or ISO8601.")
}

func buildLongFilters(targets []target, errs *params.ValidationError) []elastic.Query {
	return buildRangeFilters(targets, errs, func(v string) (interface{}, bool) {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}, "Invalid number supplied for %s.")
}

func buildFloatFilters(targets []target, errs *params.ValidationError) []elastic.Query {
	return buildRangeFilters(targets, errs, func(v string) (interface{}, bool) {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}, "Invalid number supplied for %s.")
}

// isoDateLayouts cast 不支持的 ISO-8601 简化、基本和序数日期格式
var isoDateLayouts = []string{
	"2006",
	"2006-01",
	"2006-002",
	"20060102",
	"2006-01-02T15",
	"2006-01-02T15:04",
	"2006-01-02T15:04Z07:00",
	"20060102T150405",
	"20060102T150405Z0700",
}

// ParseDate 接受 YYYY-MM-DD 或 ISO-8601，返回 UTC 日期
func ParseDate(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	d, err := cast.StringToDateInDefaultLocation(v, time.UTC)
	if err != nil {
		d, err = parseISODate(v)
	}
	if err != nil || d.Year() == 0 {
		return "", false
	}
	return d.UTC().Format(DateLayout), true
}

func parseISODate(v string) (time.Time, error) {
	var err error
	for _, layout := range isoDateLayouts {
		var d time.Time
		if d, err = time.ParseInLocation(layout, v, time.UTC); err == nil {
			return d, nil
		}
	}
	return time.Time{}, err
}

// TrialIDFilter 每个搜索串在所有编号字段上做短语前缀匹配并取 OR
// 没有搜索串时返回 nil
func TrialIDFilter(searches []string) elastic.Query {
	var perSearch []elastic.Query
	for _, s := range searches {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		fields := make([]elastic.Query, 0, len(TrialIDFields))
		for _, f := range TrialIDFields {
			fields = append(fields, elastic.NewMatchPhrasePrefixQuery(f+"._trialid", s))
		}
		perSearch = append(perSearch, elastic.NewBoolQuery().Should(fields...))
	}
	if len(perSearch) == 0 {
		return nil
	}
	return anyOf(perSearch)
}
