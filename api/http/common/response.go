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

// Package common 提供HTTP层的响应与错误处理
package common

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse 错误响应体
type ErrorResponse struct {
	Error         string   `json:"Error"`
	InvalidParams []string `json:"Invalid Params,omitempty"`
}

// VersionInfo /v1/version 响应体
type VersionInfo struct {
	Version     string `json:"version"`
	GitHash     string `json:"git-hash"`
	Repository  string `json:"git-repository"`
	Environment string `json:"environment"`
}

// HealthStatus 健康检查响应体
type HealthStatus struct {
	Status        string `json:"status"`
	Elasticsearch string `json:"elasticsearch,omitempty"`
	Timestamp     int64  `json:"timestamp"`
	Version       string `json:"version"`
}

// WriteJSON 将响应写入HTTP响应
func WriteJSON(w http.ResponseWriter, statusCode int, body interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(body)
}
