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
	"strings"

	"github.com/lscgzwd/trialsearch/search/schema"
)

// Kind 字段参数对应的过滤类型
type Kind int

const (
	KindString Kind = iota
	KindRaw
	KindAuto
	KindDate
	KindLong
	KindFloat
	KindBoolean
	KindGeo
	KindFulltext
)

var kindNames = map[Kind]string{
	KindString:   "string",
	KindRaw:      "raw",
	KindAuto:     "auto",
	KindDate:     "date",
	KindLong:     "long",
	KindFloat:    "float",
	KindBoolean:  "boolean",
	KindGeo:      "geo",
	KindFulltext: "fulltext",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// 字段参数后缀
const (
	SuffixFulltext = "_fulltext"
	SuffixGte      = "_gte"
	SuffixLte      = "_lte"
	SuffixLat      = "_lat"
	SuffixLon      = "_lon"
	SuffixDist     = "_dist"
	SuffixAuto     = "_auto"
	SuffixRaw      = "_raw"
)

type suffixRule struct {
	suffix string
	kinds  map[schema.FieldType]Kind
}

// suffixRules 带后缀参数形式的固定表
var suffixRules = []suffixRule{
	{SuffixFulltext, map[schema.FieldType]Kind{schema.TypeFulltext: KindFulltext}},
	{SuffixGte, map[schema.FieldType]Kind{schema.TypeDate: KindDate, schema.TypeLong: KindLong, schema.TypeFloat: KindFloat}},
	{SuffixLte, map[schema.FieldType]Kind{schema.TypeDate: KindDate, schema.TypeLong: KindLong, schema.TypeFloat: KindFloat}},
	{SuffixLat, map[schema.FieldType]Kind{schema.TypeGeoPoint: KindGeo}},
	{SuffixLon, map[schema.FieldType]Kind{schema.TypeGeoPoint: KindGeo}},
	{SuffixDist, map[schema.FieldType]Kind{schema.TypeGeoPoint: KindGeo}},
	{SuffixAuto, map[schema.FieldType]Kind{schema.TypeString: KindAuto}},
	{SuffixRaw, map[schema.FieldType]Kind{schema.TypeString: KindRaw}},
}

// primaryOrder 字段属于多个类型时的优先级
var primaryOrder = []schema.FieldType{
	schema.TypeString, schema.TypeDate, schema.TypeLong, schema.TypeFloat,
	schema.TypeBoolean, schema.TypeGeoPoint, schema.TypeFulltext,
}

// Target 按 schema 解析后的参数名
type Target struct {
	Name   string
	Field  string
	Suffix string
	Kind   Kind
}

// Classify 解析参数名对应的过滤字段
// 字符串和布尔字段的原名优先于带后缀的形式
func Classify(s *schema.Schema, name string) (Target, bool) {
	switch {
	case s.Is(name, schema.TypeString):
		return Target{Name: name, Field: name, Kind: KindString}, true
	case s.Is(name, schema.TypeBoolean):
		return Target{Name: name, Field: name, Kind: KindBoolean}, true
	}

	for _, rule := range suffixRules {
		if !strings.HasSuffix(name, rule.suffix) {
			continue
		}
		base := strings.TrimSuffix(name, rule.suffix)
		if base == "" {
			continue
		}
		for _, t := range primaryOrder {
			if kind, ok := rule.kinds[t]; ok && s.Is(base, t) {
				return Target{Name: name, Field: base, Suffix: rule.suffix, Kind: kind}, true
			}
		}
	}
	return Target{}, false
}
