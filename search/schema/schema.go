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

// Package schema 对试验索引的可搜索字段分类
//
// Schema 由索引映射构建一次，之后所有请求只读共享
package schema

import (
	"sort"
	"strings"
)

// FieldType 字段路径所属的语义类型
type FieldType string

const (
	TypeString   FieldType = "string"
	TypeFulltext FieldType = "fulltext"
	TypeDate     FieldType = "date"
	TypeLong     FieldType = "long"
	TypeFloat    FieldType = "float"
	TypeBoolean  FieldType = "boolean"
	TypeGeoPoint FieldType = "geo_point"
	TypeNested   FieldType = "nested"
)

// storeTypes 映射中的 "type" 到主类型
var storeTypes = map[string]FieldType{
	"keyword":      TypeString,
	"string":       TypeString,
	"text":         TypeString,
	"date":         TypeDate,
	"long":         TypeLong,
	"integer":      TypeLong,
	"short":        TypeLong,
	"byte":         TypeLong,
	"float":        TypeFloat,
	"double":       TypeFloat,
	"half_float":   TypeFloat,
	"scaled_float": TypeFloat,
	"boolean":      TypeBoolean,
	"geo_point":    TypeGeoPoint,
}

// Schema 不可变的字段路径分类
type Schema struct {
	byType    map[FieldType][]string
	members   map[string]map[FieldType]bool
	subFields map[string]map[string]bool
	mapping   map[string]interface{}
}

func newSchema(mapping map[string]interface{}) *Schema {
	return &Schema{
		byType:    make(map[FieldType][]string),
		members:   make(map[string]map[FieldType]bool),
		subFields: make(map[string]map[string]bool),
		mapping:   mapping,
	}
}

func (s *Schema) add(path string, t FieldType) {
	if s.members[path] == nil {
		s.members[path] = make(map[FieldType]bool)
	}
	if s.members[path][t] {
		return
	}
	s.members[path][t] = true
	s.byType[t] = append(s.byType[t], path)
}

func (s *Schema) seal() {
	for t := range s.byType {
		sort.Strings(s.byType[t])
	}
}

// FieldsByType 返回某类型下排序后的字段路径
func (s *Schema) FieldsByType(t FieldType) []string {
	fields := s.byType[t]
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// Is 字段是否属于类型 t
func (s *Schema) Is(field string, t FieldType) bool {
	return s.members[field][t]
}

// Has 字段是否存在
func (s *Schema) Has(field string) bool {
	return len(s.members[field]) > 0
}

// Types 返回字段的全部类型，主类型在前
func (s *Schema) Types(field string) []FieldType {
	var out []FieldType
	for _, t := range []FieldType{TypeString, TypeDate, TypeLong, TypeFloat, TypeBoolean, TypeGeoPoint, TypeNested, TypeFulltext} {
		if s.members[field][t] {
			out = append(out, t)
		}
	}
	return out
}

// HasSubField 字段是否声明了子字段 sub，如 "_raw"
func (s *Schema) HasSubField(field, sub string) bool {
	return s.subFields[field][sub]
}

// NestedPathOf 返回包含字段的最深 nested 路径
func (s *Schema) NestedPathOf(field string) (string, bool) {
	best := ""
	for _, path := range s.byType[TypeNested] {
		if strings.HasPrefix(field, path+".") && len(path) > len(best) {
			best = path
		}
	}
	return best, best != ""
}

// Mapping 返回构建 schema 所用映射 properties 的深拷贝
func (s *Schema) Mapping() map[string]interface{} {
	copied, _ := deepCopy(s.mapping).(map[string]interface{})
	return copied
}

func deepCopy(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			out[k] = deepCopy(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = deepCopy(child)
		}
		return out
	default:
		return val
	}
}
