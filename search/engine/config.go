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
	"fmt"

	"github.com/lscgzwd/trialsearch/search/query"
)

// Config 搜索引擎配置
type Config struct {
	TrialsIndex string `json:"trials_index" yaml:"trials_index"` // 试验索引，默认 cancer-clinical-trials
	TermsIndex  string `json:"terms_index" yaml:"terms_index"`   // 词条索引，默认 cancer-terms

	// 需要组合成 nested 查询的路径
	NestedPaths []string `json:"nested_paths" yaml:"nested_paths"`

	// 未指定 term_type 时使用的词条类型
	TermTypes []string `json:"term_types" yaml:"term_types"`

	// 编码聚合字段
	CodedFamilies []query.CodedFamily `json:"coded_families" yaml:"coded_families"`

	// 疾病聚合的祖先过滤：名称比较规则（exact, fold, none）和子类型取值
	DiseaseNameMatch query.NameMatch `json:"disease_name_match" yaml:"disease_name_match"`
	SubtypeValue     string          `json:"subtype_value" yaml:"subtype_value"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		TrialsIndex:      "cancer-clinical-trials",
		TermsIndex:       "cancer-terms",
		NestedPaths:      []string{"sites"},
		TermTypes:        append([]string(nil), query.DefaultTermTypes...),
		CodedFamilies:    append([]query.CodedFamily(nil), query.DefaultCodedFamilies...),
		DiseaseNameMatch: query.NameMatchExact,
		SubtypeValue:     "subtype",
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.TrialsIndex == "" || c.TermsIndex == "" {
		return fmt.Errorf("trials_index and terms_index cannot be empty")
	}
	if !c.DiseaseNameMatch.Valid() {
		return fmt.Errorf("invalid disease_name_match: %q (must be exact, fold or none)", c.DiseaseNameMatch)
	}
	if len(c.TermTypes) == 0 {
		return fmt.Errorf("term_types cannot be empty")
	}
	for i, f := range c.CodedFamilies {
		if f.Path == "" || f.NameField == "" {
			return fmt.Errorf("coded_families[%d]: path and name_field are required", i)
		}
		if len(f.Attributes) == 0 {
			return fmt.Errorf("coded_families[%d] %s: at least one attribute is required", i, f.Path)
		}
	}
	return nil
}
