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
	"net/http"

	"github.com/lscgzwd/trialsearch/api/http/common"
)

// MetaHandler 版本信息处理器
type MetaHandler struct {
	info common.VersionInfo
}

// NewMetaHandler 创建版本信息处理器
func NewMetaHandler(info common.VersionInfo) *MetaHandler {
	return &MetaHandler{info: info}
}

// Version GET /v1/version
func (h *MetaHandler) Version(w http.ResponseWriter, _ *http.Request) {
	common.HandleSuccess(w, h.info)
}
