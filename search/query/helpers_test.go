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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type sourcer interface {
	Source() (interface{}, error)
}

// toJSON 序列化查询、排序或聚合节点
func toJSON(t *testing.T, s sourcer) string {
	t.Helper()
	src, err := s.Source()
	require.NoError(t, err)
	b, err := json.Marshal(src)
	require.NoError(t, err)
	return string(b)
}

// toMap 序列化节点后再解码为通用 JSON
func toMap(t *testing.T, s sourcer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(toJSON(t, s)), &m))
	return m
}

// dig 按键逐层取值
func dig(t *testing.T, m map[string]interface{}, keys ...string) interface{} {
	t.Helper()
	var cur interface{} = m
	for _, k := range keys {
		obj, ok := cur.(map[string]interface{})
		require.True(t, ok, "not an object at %q", k)
		cur, ok = obj[k]
		require.True(t, ok, "missing key %q", k)
	}
	return cur
}

// list bool 子句可能是单个对象或数组，统一为数组
func list(v interface{}) []interface{} {
	if arr, ok := v.([]interface{}); ok {
		return arr
	}
	return []interface{}{v}
}

// toJSONValue 重新序列化解码后的 JSON
func toJSONValue(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
