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
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/require"
)

type storeCall struct {
	Index string
	Body  map[string]interface{}
}

// fakeStore 记录请求，并按顺序返回预置响应
type fakeStore struct {
	mu        sync.Mutex
	calls     []storeCall
	responses []string
	err       error
}

func (f *fakeStore) Search(ctx context.Context, index string, src *elastic.SearchSource) (*elastic.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, err := src.Source()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	f.calls = append(f.calls, storeCall{Index: index, Body: m})

	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return nil, errors.New("no canned response")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]

	var res elastic.SearchResult
	if err := json.Unmarshal([]byte(resp), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (f *fakeStore) call(t *testing.T, i int) storeCall {
	t.Helper()
	require.Greater(t, len(f.calls), i)
	return f.calls[i]
}

func toJSONString(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
