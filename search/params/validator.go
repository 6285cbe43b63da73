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

package params

import (
	"github.com/lscgzwd/trialsearch/search/schema"
)

// 试验接口支持的控制参数
const (
	ParamFrom      = "from"
	ParamSize      = "size"
	ParamSort      = "sort"
	ParamOrder     = "order"
	ParamInclude   = "include"
	ParamExclude   = "exclude"
	ParamFulltext  = "_fulltext"
	ParamTrialIDs  = "_trialids"
	ParamAggField  = "agg_field"
	ParamAggTerm   = "agg_term"
	ParamAncestors = "agg_ancestor"
)

// TrialControl 试验搜索的控制参数
var TrialControl = []string{
	ParamFrom, ParamSize, ParamSort, ParamInclude, ParamExclude, ParamFulltext, ParamTrialIDs,
}

// AggregateControl 试验聚合的控制参数
var AggregateControl = []string{
	ParamFrom, ParamSize, ParamSort, ParamOrder, ParamInclude, ParamExclude, ParamFulltext,
	ParamTrialIDs, ParamAggField, ParamAggTerm, ParamAncestors,
}

// Validator 按 schema 和控制参数集合校验参数名
type Validator struct {
	schema  *schema.Schema
	control map[string]bool
}

// NewValidator 创建校验器，control 为允许的控制参数
func NewValidator(s *schema.Schema, control ...string) *Validator {
	v := &Validator{schema: s, control: make(map[string]bool, len(control))}
	for _, name := range control {
		v.control[name] = true
	}
	return v
}

// IsControl 是否控制参数
func (v *Validator) IsControl(name string) bool {
	return v.control[name]
}

// IsValid 是否控制参数或字段参数
func (v *Validator) IsValid(name string) bool {
	if v.control[name] {
		return true
	}
	_, ok := Classify(v.schema, name)
	return ok
}

// Validate 存在未知参数名时返回包含全部未知参数的错误
func (v *Validator) Validate(p Params) error {
	var invalid []string
	for _, name := range p.Names() {
		if !v.IsValid(name) {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) > 0 {
		return Invalid(invalid...)
	}
	return nil
}
