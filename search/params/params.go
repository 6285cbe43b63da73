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

// Package params 解码并校验扁平的请求参数
package params

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Params 单个请求的参数集合，值统一保存为列表，单值和多值参数共用一种表示
type Params map[string][]string

// FromValues 复制查询串参数，"key[]" 形式的参数名合并到 "key"
func FromValues(values url.Values) Params {
	p := make(Params, len(values))
	for name, vals := range values {
		name = strings.TrimSuffix(name, "[]")
		for _, v := range vals {
			p.Add(name, v)
		}
	}
	return p
}

// FromJSON 解码 JSON 对象请求体
// 标量转为单值，标量数组转为多值，嵌套数组或对象返回错误
func FromJSON(r io.Reader) (Params, error) {
	var body map[string]interface{}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		if err == io.EOF {
			return Params{}, nil
		}
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	p := make(Params, len(body))
	verr := &ValidationError{}
	for name, raw := range body {
		switch v := raw.(type) {
		case nil:
			continue
		case []interface{}:
			for _, item := range v {
				s, ok := scalar(item)
				if !ok {
					verr.Add(name, fmt.Sprintf("Multi-dimensional values are not supported for %s.", name))
					break
				}
				p.Add(name, s)
			}
		default:
			s, ok := scalar(v)
			if !ok {
				verr.Add(name, fmt.Sprintf("Multi-dimensional values are not supported for %s.", name))
				continue
			}
			p.Add(name, s)
		}
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func scalar(v interface{}) (string, bool) {
	switch v.(type) {
	case []interface{}, map[string]interface{}:
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	return s, true
}

// Add 追加一个值
func (p Params) Add(name, value string) {
	p[name] = append(p[name], value)
}

// Set 替换 name 的全部值
func (p Params) Set(name string, values ...string) {
	p[name] = append([]string(nil), values...)
}

// Get 返回 name 的第一个值，不存在时返回空串
func (p Params) Get(name string) string {
	if vals := p[name]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// Values 返回 name 的全部值
func (p Params) Values(name string) []string {
	return p[name]
}

// Has name 是否至少有一个值
func (p Params) Has(name string) bool {
	return len(p[name]) > 0
}

// Del 删除 name
func (p Params) Del(name string) {
	delete(p, name)
}

// Names 返回排序后的参数名
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone 深拷贝
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for name, vals := range p {
		out[name] = append([]string(nil), vals...)
	}
	return out
}

// Pick 返回只包含指定参数名的副本
func (p Params) Pick(names ...string) Params {
	out := make(Params)
	for _, name := range names {
		if vals, ok := p[name]; ok {
			out[name] = append([]string(nil), vals...)
		}
	}
	return out
}

// List 返回 name 的全部值，逗号分隔的值会被拆开
func (p Params) List(name string) []string {
	var out []string
	for _, v := range p[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
