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

// TrialSearcher 试验查询引擎
type TrialSearcher interface {
	Get(ctx context.Context, id string) (engine.Document, error)
	Search(ctx context.Context, p params.Params) (*engine.TrialResult, error)
	Aggregate(ctx context.Context, p params.Params) (*engine.AggregateResult, error)
}

// TrialHandler 试验处理器
type TrialHandler struct {
	engine  TrialSearcher
	geo     GeoLookup
	mapping interface{}
}

// NewTrialHandler 创建试验处理器，mapping 为对外发布的字段映射，geo 可为空
func NewTrialHandler(e TrialSearcher, lookup GeoLookup, mapping interface{}) *TrialHandler {
	return &TrialHandler{engine: e, geo: lookup, mapping: mapping}
}

// GetTrial 按 NCI 或 NCT 编号取单个试验
// GET /v1/clinical-trial/{id}
func (h *TrialHandler) GetTrial(w http.ResponseWriter, r *http.Request) {
	doc, err := h.engine.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		common.HandleError(w, err)
		return
	}
	if len(doc) == 0 {
		common.HandleError(w, common.NewNotFoundError(common.MsgTrialNotFound))
		return
	}
	common.HandleSuccess(w, doc)
}

// SearchTrials 检索试验
// GET|POST /v1/clinical-trials
func (h *TrialHandler) SearchTrials(w http.ResponseWriter, r *http.Request) {
	p, err := h.params(r)
	if err != nil {
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

// AggregateTrials 对匹配的试验做分面聚合
// GET|POST /v1/clinical-trials/aggregate
func (h *TrialHandler) AggregateTrials(w http.ResponseWriter, r *http.Request) {
	p, err := h.params(r)
	if err != nil {
		common.HandleError(w, err)
		return
	}
	res, err := h.engine.Aggregate(r.Context(), p)
	if err != nil {
		common.HandleError(w, err)
		return
	}
	common.HandleSuccess(w, res)
}

// Mapping 返回公开的字段映射
// GET /v1/clinical-trial.json
func (h *TrialHandler) Mapping(w http.ResponseWriter, _ *http.Request) {
	common.HandleSuccess(w, h.mapping)
}

func (h *TrialHandler) params(r *http.Request) (params.Params, error) {
	p, err := decodeParams(r)
	if err != nil {
		return nil, err
	}
	return applyPostalCode(r.Context(), h.geo, p, trialPostal)
}
