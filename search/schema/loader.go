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

package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed mapping/trials.json
var defaultMapping []byte

// maxDepth 映射嵌套深度上限
const maxDepth = 10

// Default 返回内置试验映射的 schema
func Default() *Schema {
	s, err := Load(bytes.NewReader(defaultMapping))
	if err != nil {
		panic(fmt.Sprintf("bundled trial mapping is invalid: %v", err))
	}
	return s
}

// LoadFile 从映射文件加载 schema
func LoadFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load 从映射文档构建 schema
// 文档可以是 {"properties": ...}，也可以包在 "mappings" 或旧版映射的单个类型名下
func Load(r io.Reader) (*Schema, error) {
	var doc map[string]interface{}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode mapping: %w", err)
	}

	root, err := findRoot(doc)
	if err != nil {
		return nil, err
	}

	s := newSchema(root)
	if err := s.walk(root, nil, 0); err != nil {
		return nil, err
	}
	s.seal()
	return s, nil
}

func findRoot(doc map[string]interface{}) (map[string]interface{}, error) {
	node := doc
	for i := 0; i < 3; i++ {
		if props, ok := node["properties"].(map[string]interface{}); ok {
			return map[string]interface{}{"properties": props}, nil
		}
		if m, ok := node["mappings"].(map[string]interface{}); ok {
			node = m
			continue
		}
		if len(node) != 1 {
			break
		}
		for _, v := range node {
			child, ok := v.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("mapping has no properties")
			}
			node = child
		}
	}
	return nil, fmt.Errorf("mapping has no properties")
}

// walk 递归遍历映射树，nested 对象记录路径后继续下钻
func (s *Schema) walk(node map[string]interface{}, path []string, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("mapping nesting exceeds %d levels at %s", maxDepth, strings.Join(path, "."))
	}

	if props, ok := node["properties"].(map[string]interface{}); ok {
		if node["type"] == "nested" && len(path) > 0 {
			s.add(strings.Join(path, "."), TypeNested)
		}
		for name, child := range props {
			childNode, ok := child.(map[string]interface{})
			if !ok {
				return fmt.Errorf("property %s is not an object", strings.Join(append(path, name), "."))
			}
			if err := s.walk(childNode, append(append([]string{}, path...), name), depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	storeType, _ := node["type"].(string)
	t, ok := storeTypes[storeType]
	if !ok || len(path) == 0 {
		// 没有 properties 的对象，或无法过滤的类型
		return nil
	}
	field := strings.Join(path, ".")
	s.add(field, t)

	if subFields, ok := node["fields"].(map[string]interface{}); ok {
		s.subFields[field] = make(map[string]bool, len(subFields))
		for sub := range subFields {
			s.subFields[field][sub] = true
		}
		if _, ok := subFields["_fulltext"]; ok {
			s.add(field, TypeFulltext)
		}
	}
	return nil
}
