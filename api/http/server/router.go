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

package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lscgzwd/trialsearch/api/http/common"
)

// Route 路由定义
type Route struct {
	Method      string
	Path        string
	Handler     http.HandlerFunc
	Middlewares []Middleware
}

// Router 路由管理器
type Router struct {
	routes     []Route
	instrument bool
}

// NewRouter 创建新的路由管理器，instrument 为 true 时每条路由记录指标
func NewRouter(instrument bool) *Router {
	return &Router{instrument: instrument}
}

// AddRoute 添加路由
func (r *Router) AddRoute(method, path string, handler http.HandlerFunc, middlewares ...Middleware) {
	r.routes = append(r.routes, Route{
		Method:      method,
		Path:        path,
		Handler:     handler,
		Middlewares: middlewares,
	})
}

// AddRoutes 批量添加路由
func (r *Router) AddRoutes(routes []Route) {
	r.routes = append(r.routes, routes...)
}

// Routes 返回已注册的路由
func (r *Router) Routes() []Route {
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// Build 构建路由器
func (r *Router) Build() *mux.Router {
	m := mux.NewRouter()

	// 先注册的路由优先匹配
	for _, route := range r.routes {
		handler := route.Handler
		for j := len(route.Middlewares) - 1; j >= 0; j-- {
			handler = route.Middlewares[j](handler)
		}
		if r.instrument {
			handler = MetricsMiddleware(route.Path)(handler)
		}
		m.HandleFunc(route.Path, handler).Methods(route.Method)
	}

	m.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		common.HandleError(w, common.NewNotFoundError(common.MsgRouteNotFound))
	})
	m.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		common.HandleError(w, &common.BaseError{
			ErrType:    "method_not_allowed",
			Message:    "Method not allowed.",
			HTTPStatus: http.StatusMethodNotAllowed,
		})
	})

	return m
}
