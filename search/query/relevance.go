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
	"strings"

	"github.com/olivere/elastic/v7"
)

// MatchStyle 相关度字段的匹配方式
type MatchStyle int

const (
	StylePhrase MatchStyle = iota
	StyleCommon
	StyleCommonStrict
	StyleMatch
)

// Weighted 相关度配方中的一个字段，Boost 为 0 表示不加权
type Weighted struct {
	Field string
	Style MatchStyle
	Boost float64
}

const (
	commonCutoffFrequency = 0.001
	commonLowFreqOperator = "and"
	strictShouldMatch     = "100%"
)

// IDFields 相关度查询中 multi_match 的字段列表
var IDFields = []string{"*_id", "other_ids.value"}

// RelevanceFields 排序配方，字段顺序和权重由测试固定
var RelevanceFields = []Weighted{
	{"_diseases.term._fulltext", StylePhrase, 4},
	{"brief_title", StylePhrase, 4},
	{"brief_summary", StylePhrase, 0},
	{"official_title", StylePhrase, 4},
	{"detail_description", StylePhrase, 4},

	{"official_title", StyleCommon, 4},
	{"brief_title", StyleCommon, 0},
	{"brief_summary", StyleCommon, 0},
	{"_diseases.term._fulltext", StyleCommon, 0},
	{"detail_description", StyleCommon, 0},

	{"sites.org_name._fulltext", StyleCommonStrict, 0},
	{"collaborators.name._fulltext", StyleCommonStrict, 0},

	{"principal_investigator._fulltext", StyleMatch, 0},
	{"sites.contact_name._fulltext", StyleMatch, 0},
	{"sites.org_city._fulltext", StyleMatch, 0},
	{"sites.org_state_or_province._fulltext", StyleMatch, 0},
}

// NestedMatch 带 term 条件的 nested 子文档匹配，如必须是药物类型的干预
type NestedMatch struct {
	Path       string
	GateField  string
	GateValue  string
	MatchField string
	WrapMust   bool
}

// RelevanceNested 配方中的 nested 部分
var RelevanceNested = []NestedMatch{
	{"arms.interventions", "arms.interventions.intervention_type", "drug", "arms.interventions.intervention_name", true},
	{"biomarkers", "biomarkers.eligibility_criterion", "inclusion", "biomarkers.name", false},
}

// Relevance 构建全文检索的打分查询，文本为空时返回 nil
// 调用方把它放在 must 子句中
func Relevance(text string) elastic.Query {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	should := []elastic.Query{elastic.NewMultiMatchQuery(text, IDFields...)}
	for _, w := range RelevanceFields {
		should = append(should, weightedQuery(w, text))
	}
	for _, n := range RelevanceNested {
		inner := elastic.NewBoolQuery().Must(
			elastic.NewTermQuery(n.GateField, n.GateValue),
			elastic.NewMatchQuery(n.MatchField, text),
		)
		nested := elastic.NewNestedQuery(n.Path, inner).ScoreMode(nestedScoreMode)
		if n.WrapMust {
			should = append(should, elastic.NewBoolQuery().Must(nested))
			continue
		}
		should = append(should, nested)
	}
	return elastic.NewBoolQuery().Should(should...)
}

func weightedQuery(w Weighted, text string) elastic.Query {
	switch w.Style {
	case StylePhrase:
		q := elastic.NewMatchPhraseQuery(w.Field, text)
		if w.Boost > 0 {
			q = q.Boost(w.Boost)
		}
		return q
	case StyleCommon, StyleCommonStrict:
		q := NewCommonTermsQuery(w.Field, text).
			CutoffFrequency(commonCutoffFrequency).
			LowFreqOperator(commonLowFreqOperator)
		if w.Style == StyleCommonStrict {
			q = q.MinimumShouldMatch(strictShouldMatch)
		}
		if w.Boost > 0 {
			q = q.Boost(w.Boost)
		}
		return q
	default:
		return elastic.NewMatchQuery(w.Field, text)
	}
}
