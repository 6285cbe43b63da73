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
	"bytes"
	"encoding/json"
	"strings"

	"github.com/lscgzwd/trialsearch/search/query"
	"github.com/lscgzwd/trialsearch/search/schema"
)

// Document 解码后的存储文档
type Document = map[string]interface{}

// TrialResult 试验搜索结果
type TrialResult struct {
	Total  int64      `json:"total"`
	Trials []Document `json:"trials"`
}

// TermResult 词条搜索结果，每个词条带 score
type TermResult struct {
	Total int64      `json:"total"`
	Terms []Document `json:"terms"`
}

// AggregateResult 聚合结果，Total 为匹配的试验数
type AggregateResult struct {
	Total int64          `json:"total"`
	Terms []query.Bucket `json:"terms"`
}

// MappingOmitKeys 公开映射中隐藏的映射属性
var MappingOmitKeys = []string{"analyzer", "index", "format", "include_in_root", "include_in_all"}

// DecodeDocument 解码 _source，数字保留为 json.Number
func DecodeDocument(raw json.RawMessage) (Document, error) {
	doc := Document{}
	if len(raw) == 0 {
		return doc, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// StripPrivate 返回去掉所有层级中以 "_" 开头的键后的副本
func StripPrivate(v interface{}) interface{} {
	return omit(v, func(k string) bool { return strings.HasPrefix(k, "_") })
}

// OmitKeys 返回去掉所有层级中指定键后的副本
func OmitKeys(v interface{}, keys ...string) interface{} {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	return omit(v, func(k string) bool { return drop[k] })
}

func omit(v interface{}, drop func(string) bool) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, child := range t {
			if drop(k) {
				continue
			}
			out[k] = omit(child, drop)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, child := range t {
			out[i] = omit(child, drop)
		}
		return out
	default:
		return v
	}
}

// PublicDocument 解码 raw 并去掉私有键
func PublicDocument(raw json.RawMessage) (Document, error) {
	doc, err := DecodeDocument(raw)
	if err != nil {
		return nil, err
	}
	out, _ := StripPrivate(doc).(map[string]interface{})
	return out, nil
}

// PublicMapping 对外公开的映射
func PublicMapping(s *schema.Schema) interface{} {
	return StripPrivate(OmitKeys(s.Mapping(), MappingOmitKeys...))
}
