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

package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lscgzwd/trialsearch/api/http/common"
	"github.com/lscgzwd/trialsearch/search/engine"
	"github.com/lscgzwd/trialsearch/search/params"
)

// TermSearcher 词条查询引擎
type TermSearcher interface {
	Search(ctx context.Context, p params.Params) (*engine.TermResult, error)
	Get(ctx context.Context, key string) (engine.Document, error)
}

// TermHandler 词条处理器
type TermHandler struct {
	engine TermSearcher
	geo    GeoLookup
}

// NewTermHandler 创建词条处理器，geo 可为空
func NewTermHandler(e TermSearcher, lookup GeoLookup) *TermHandler {
	return &TermHandler{engine: e, geo: lookup}
}

// SearchTerms 词条联想
// GET|POST /v1/terms
func (h *TermHandler) SearchTerms(w http.ResponseWriter, r *http.Request) {
	p, err := decodeParams(r)
	if err != nil {
		common.HandleError(w, err)
		return
	}
	if p, err = applyPostalCode(r.Context(), h.geo, p, termPostal); err != nil {
		common.HandleError(w, err)
		return
	}
	res, err := h.engine.Search(r.Context(), p)
	if err != nil {
		common.HandleError(w, err)
		return
	}
	common.HandleSuccess(w, res)
}

// GetTerm 按 term_key 取单个词条
// GET /v1/term/{key}
func (h *TermHandler) GetTerm(w http.ResponseWriter, r *http.Request) {
	doc, err := h.engine.Get(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		common.HandleError(w, err)
		return
	}
	if len(doc) == 0 {
		common.HandleError(w, common.NewNotFoundError(common.MsgTermNotFound))
		return
	}
	common.HandleSuccess(w, doc)
}
