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

package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/olivere/elastic/v7"

	"github.com/lscgzwd/trialsearch/search/params"
)

// 排序方向
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// SizeLimit size 上限，超出时截断而不是报错
type SizeLimit struct {
	Default int
	Max     int
}

var (
	TrialSizeLimit = SizeLimit{Default: 10, Max: 50}
	TermSizeLimit  = SizeLimit{Default: 5, Max: 100}
	AggSizeLimit   = SizeLimit{Default: 5, Max: 100}
)

// ParseSize 读取 size，非数字或负数视为非法
func ParseSize(p params.Params, limit SizeLimit, errs *params.ValidationError) int {
	raw := strings.TrimSpace(p.Get(params.ParamSize))
	if raw == "" {
		return limit.Default
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		errs.Addf(params.ParamSize, "Invalid size supplied: %s.", raw)
		return limit.Default
	}
	if n > limit.Max {
		return limit.Max
	}
	return n
}

// ParseFrom 读取 from，默认 0
func ParseFrom(p params.Params, errs *params.ValidationError) int {
	raw := strings.TrimSpace(p.Get(params.ParamFrom))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		errs.Addf(params.ParamFrom, "Invalid from supplied: %s.", raw)
		return 0
	}
	return n
}

// SortRules 合法排序键及其默认顺序，合法键可以使用任一顺序
type SortRules map[string]string

// ParseSortOrder 按 rules 读取 sort 和 order
func ParseSortOrder(p params.Params, rules SortRules, defaultKey string, errs *params.ValidationError) (string, string) {
	key := strings.TrimSpace(p.Get(params.ParamSort))
	if key == "" {
		key = defaultKey
	}
	defaultOrder, ok := rules[key]
	if !ok {
		keys := make([]string, 0, len(rules))
		for k := range rules {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		errs.Addf(params.ParamSort, "Invalid sort supplied: %s. Please use one of %s.", key, strings.Join(keys, ", "))
		return defaultKey, rules[defaultKey]
	}

	order := strings.ToLower(strings.TrimSpace(p.Get(params.ParamOrder)))
	switch order {
	case "":
		order = defaultOrder
	case OrderAsc, OrderDesc:
	default:
		errs.Addf(params.ParamOrder, "Invalid order supplied: %s. Please use asc or desc.", order)
		order = defaultOrder
	}
	return key, order
}

// SourceFilter 返回 include/exclude 对应的 _source 过滤，没有时返回 nil
func SourceFilter(p params.Params) *elastic.FetchSourceContext {
	include := p.List(params.ParamInclude)
	exclude := p.List(params.ParamExclude)
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}
	fsc := elastic.NewFetchSourceContext(true)
	if len(include) > 0 {
		fsc = fsc.Include(include...)
	}
	if len(exclude) > 0 {
		fsc = fsc.Exclude(exclude...)
	}
	return fsc
}
