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

import "github.com/olivere/elastic/v7"

// CommonTermsQuery "common" 词项查询
// 把文本分为高频词和低频词，优先按低频词打分
type CommonTermsQuery struct {
	field              string
	text               string
	cutoffFrequency    *float64
	lowFreqOperator    string
	minimumShouldMatch string
	boost              *float64
}

var _ elastic.Query = (*CommonTermsQuery)(nil)

// NewCommonTermsQuery 创建 common 查询
func NewCommonTermsQuery(field, text string) *CommonTermsQuery {
	return &CommonTermsQuery{field: field, text: text}
}

// CutoffFrequency 文档频率超过该值的词视为高频词
func (q *CommonTermsQuery) CutoffFrequency(f float64) *CommonTermsQuery {
	q.cutoffFrequency = &f
	return q
}

// LowFreqOperator 低频词的组合方式，"and" 或 "or"
func (q *CommonTermsQuery) LowFreqOperator(op string) *CommonTermsQuery {
	q.lowFreqOperator = op
	return q
}

// MinimumShouldMatch 必须匹配的词比例，如 "100%"
func (q *CommonTermsQuery) MinimumShouldMatch(m string) *CommonTermsQuery {
	q.minimumShouldMatch = m
	return q
}

// Boost 设置权重
func (q *CommonTermsQuery) Boost(b float64) *CommonTermsQuery {
	q.boost = &b
	return q
}

// Source 返回可序列化的查询体
func (q *CommonTermsQuery) Source() (interface{}, error) {
	body := map[string]interface{}{"query": q.text}
	if q.cutoffFrequency != nil {
		body["cutoff_frequency"] = *q.cutoffFrequency
	}
	if q.lowFreqOperator != "" {
		body["low_freq_operator"] = q.lowFreqOperator
	}
	if q.minimumShouldMatch != "" {
		body["minimum_should_match"] = q.minimumShouldMatch
	}
	if q.boost != nil {
		body["boost"] = *q.boost
	}
	return map[string]interface{}{
		"common": map[string]interface{}{q.field: body},
	}, nil
}
