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

package common

import (
	"errors"
	"net/http"

	"github.com/lscgzwd/trialsearch/logger"
	"github.com/lscgzwd/trialsearch/search/engine"
	"github.com/lscgzwd/trialsearch/search/params"
)

// 对外错误信息，内部细节不透出
const (
	MsgInternal        = "Internal server error."
	MsgTrialNotFound   = "Trial not found."
	MsgTermNotFound    = "Term not found."
	MsgRouteNotFound   = "Not found."
	MsgTooManyRequests = "Too many requests."
	MsgBodyTooLarge    = "Request body too large."
	MsgInvalidQuery    = "Invalid query."
)

// APIError API错误接口
type APIError interface {
	Error() string
	Type() string
	StatusCode() int
	Response() *ErrorResponse
}

// BaseError 基础错误结构体
type BaseError struct {
	ErrType       string
	Message       string
	HTTPStatus    int
	InvalidParams []string
}

// Error 实现error接口
func (e *BaseError) Error() string {
	return e.Message
}

// Type 返回错误类型
func (e *BaseError) Type() string {
	return e.ErrType
}

// StatusCode 返回HTTP状态码
func (e *BaseError) StatusCode() int {
	return e.HTTPStatus
}

// Response 返回错误响应体
func (e *BaseError) Response() *ErrorResponse {
	return &ErrorResponse{Error: e.Message, InvalidParams: e.InvalidParams}
}

// NewValidationError 参数校验错误，列出全部非法参数
func NewValidationError(ve *params.ValidationError) APIError {
	return &BaseError{
		ErrType:       "validation_error",
		Message:       ve.Error(),
		HTTPStatus:    http.StatusBadRequest,
		InvalidParams: ve.Params(),
	}
}

// NewBadRequestError 请求参数错误
func NewBadRequestError(message string) APIError {
	return &BaseError{
		ErrType:    "bad_request",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFoundError 资源不存在
func NewNotFoundError(message string) APIError {
	return &BaseError{
		ErrType:    "not_found",
		Message:    message,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewInternalServerError 服务器内部错误
func NewInternalServerError() APIError {
	return &BaseError{
		ErrType:    "internal_server_error",
		Message:    MsgInternal,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewTooManyRequestsError 限流
func NewTooManyRequestsError() APIError {
	return &BaseError{
		ErrType:    "rate_limit_exceeded",
		Message:    MsgTooManyRequests,
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// ToAPIError 把引擎错误映射为HTTP错误
func ToAPIError(err error) APIError {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var ve *params.ValidationError
	if errors.As(err, &ve) {
		return NewValidationError(ve)
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return NewBadRequestError(MsgBodyTooLarge)
	}
	return NewInternalServerError()
}

// HandleError 处理错误并写入HTTP响应
func HandleError(w http.ResponseWriter, err error) {
	apiErr := ToAPIError(err)
	if apiErr.StatusCode() >= http.StatusInternalServerError {
		var se *engine.StoreError
		fields := map[string]interface{}{"error": err.Error()}
		if errors.As(err, &se) {
			fields["op"] = se.Op
		}
		logger.WithFields(fields).Error("request failed")
	}
	if writeErr := WriteJSON(w, apiErr.StatusCode(), apiErr.Response()); writeErr != nil {
		logger.Error("failed to write error response: %v (original error: %v)", writeErr, err)
	}
}

// HandleSuccess 处理成功响应
func HandleSuccess(w http.ResponseWriter, body interface{}) {
	if err := WriteJSON(w, http.StatusOK, body); err != nil {
		logger.Error("failed to write success response: %v", err)
	}
}
