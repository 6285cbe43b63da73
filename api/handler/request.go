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

// Package handler 实现 /v1 路由的 HTTP 处理器
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/lscgzwd/trialsearch/api/http/common"
	"github.com/lscgzwd/trialsearch/geo"
	"github.com/lscgzwd/trialsearch/logger"
	"github.com/lscgzwd/trialsearch/search/params"
)

// GeoLookup 邮编转坐标
type GeoLookup interface {
	Lookup(ctx context.Context, code string) (geo.Point, bool, error)
}

// postalRule 邮编参数与其坐标字段
type postalRule struct {
	codeParam  string
	coordField string
}

var (
	trialPostal = postalRule{codeParam: "sites.org_postal_code", coordField: "sites.org_coordinates"}
	termPostal  = postalRule{codeParam: "org_postal_code", coordField: "org_coordinates"}
)

// decodeParams 读取 GET 查询串或 POST JSON 请求体
func decodeParams(r *http.Request) (params.Params, error) {
	if r.Method != http.MethodPost {
		return params.FromValues(r.URL.Query()), nil
	}
	p, err := params.FromJSON(r.Body)
	if err == nil {
		return p, nil
	}
	var ve *params.ValidationError
	var maxErr *http.MaxBytesError
	if errors.As(err, &ve) || errors.As(err, &maxErr) {
		return nil, err
	}
	return nil, common.NewBadRequestError(common.MsgInvalidQuery)
}

// applyPostalCode 同时给出邮编和距离时，把邮编换成坐标；邮编未知时参数保持不变
func applyPostalCode(ctx context.Context, lookup GeoLookup, p params.Params, rule postalRule) (params.Params, error) {
	if lookup == nil {
		return p, nil
	}
	code := p.Get(rule.codeParam)
	if code == "" || p.Get(rule.coordField+params.SuffixDist) == "" {
		return p, nil
	}

	pt, found, err := lookup.Lookup(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("postal code lookup: %w", err)
	}
	if !found {
		logger.WithField("postal_code", code).Debug("postal code not found, searching without coordinates")
		return p, nil
	}

	out := p.Clone()
	out.Set(rule.coordField+params.SuffixLat, strconv.FormatFloat(pt.Lat, 'f', -1, 64))
	out.Set(rule.coordField+params.SuffixLon, strconv.FormatFloat(pt.Lon, 'f', -1, 64))
	out.Del(rule.codeParam)
	return out, nil
}
