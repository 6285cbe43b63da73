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
	"fmt"
	"sort"
	"strings"
)

// MsgInvalidParams 未知参数名的错误原因
const MsgInvalidParams = "Invalid query params."

// Problem 一个非法输入
type Problem struct {
	Param  string
	Reason string
}

// ValidationError 收集一次请求校验中发现的全部问题
// 零值可直接使用，每个请求持有自己的实例
type ValidationError struct {
	Problems []Problem
}

// Add 记录一个问题
func (e *ValidationError) Add(param, reason string) {
	e.Problems = append(e.Problems, Problem{Param: param, Reason: reason})
}

// Addf 记录一个问题，原因按格式生成
func (e *ValidationError) Addf(param, format string, args ...interface{}) {
	e.Add(param, fmt.Sprintf(format, args...))
}

// Merge 追加 other 的问题，other 为 nil 时忽略
func (e *ValidationError) Merge(other *ValidationError) {
	if other != nil {
		e.Problems = append(e.Problems, other.Problems...)
	}
}

// Empty 是否没有任何问题
func (e *ValidationError) Empty() bool {
	return len(e.Problems) == 0
}

// Err 有问题时返回 e，否则返回 nil
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

// Params 返回排序去重后的出错参数名
func (e *ValidationError) Params() []string {
	seen := make(map[string]bool, len(e.Problems))
	var out []string
	for _, p := range e.Problems {
		if p.Param == "" || seen[p.Param] {
			continue
		}
		seen[p.Param] = true
		out = append(out, p.Param)
	}
	sort.Strings(out)
	return out
}

// Error 按发现顺序拼接去重后的错误原因
func (e *ValidationError) Error() string {
	seen := make(map[string]bool, len(e.Problems))
	var reasons []string
	for _, p := range e.Problems {
		if seen[p.Reason] {
			continue
		}
		seen[p.Reason] = true
		reasons = append(reasons, p.Reason)
	}
	return strings.Join(reasons, " ")
}

// Invalid 为未知参数名构造 ValidationError
func Invalid(names ...string) *ValidationError {
	e := &ValidationError{}
	for _, name := range names {
		e.Add(name, MsgInvalidParams)
	}
	return e
}
