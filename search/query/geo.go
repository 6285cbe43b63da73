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
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/olivere/elastic/v7"

	"github.com/lscgzwd/trialsearch/search/params"
)

const (
	// GeoEpsilon 距离缺失、为零或非法时使用的最小距离
	GeoEpsilon = "0.000000001mi"

	// DefaultDistanceUnit 纯数字距离的默认单位
	DefaultDistanceUnit = "mi"
)

var distancePattern = regexp.MustCompile(`^\s*([0-9]*\.?[0-9]+)\s*([a-zA-Z]*)\s*$`)

var distanceUnits = map[string]bool{
	"mi": true, "miles": true, "yd": true, "yards": true, "ft": true, "feet": true,
	"in": true, "inch": true, "km": true, "kilometers": true, "m": true, "meters": true,
	"cm": true, "centimeters": true, "mm": true, "millimeters": true,
	"nmi": true, "NM": true, "nauticalmiles": true,
}

// NormalizeDistance 返回存储使用的距离字符串
// v 缺失、为零、为负或无法识别时返回 GeoEpsilon
func NormalizeDistance(v string) string {
	m := distancePattern.FindStringSubmatch(v)
	if m == nil {
		return GeoEpsilon
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil || n <= 0 || math.IsInf(n, 0) {
		return GeoEpsilon
	}
	unit := m[2]
	if unit == "" {
		unit = DefaultDistanceUnit
	}
	if !distanceUnits[unit] {
		return GeoEpsilon
	}
	return m[1] + unit
}

// ParseLatitude 解析 [-90, 90] 内的纬度
func ParseLatitude(v string) (float64, bool) {
	return parseCoordinate(v, 90)
}

// ParseLongitude 解析 [-180, 180] 内的经度
func ParseLongitude(v string) (float64, bool) {
	return parseCoordinate(v, 180)
}

func parseCoordinate(v string, limit float64) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || f < -limit || f > limit {
		return 0, false
	}
	return f, true
}

// GeoDistanceFilter 构建以 (lat, lon) 为中心的距离过滤
// 经纬度问题记录在 <param>_lat 和 <param>_lon 上
func GeoDistanceFilter(field, param, lat, lon, dist string, errs *params.ValidationError) elastic.Query {
	la, latOK := ParseLatitude(lat)
	if !latOK {
		errs.Addf(param+params.SuffixLat, "Geo Distance filter for %s missing or invalid latitude.  Please supply valid %s_lat.", param, param)
	}
	lo, lonOK := ParseLongitude(lon)
	if !lonOK {
		errs.Addf(param+params.SuffixLon, "Geo Distance filter for %s missing or invalid longitude.  Please supply valid %s_lon.", param, param)
	}
	if !latOK || !lonOK {
		return nil
	}
	return elastic.NewGeoDistanceQuery(field).Lat(la).Lon(lo).Distance(NormalizeDistance(dist))
}

func buildGeoFilters(targets []target, errs *params.ValidationError) []elastic.Query {
	var out []elastic.Query
	fields, groups := byField(targets)
	for _, field := range fields {
		var lat, lon, dist string
		valid := true
		for _, t := range groups[field] {
			v, ok := singleValue(t, errs)
			if !ok {
				valid = false
				continue
			}
			switch t.Suffix {
			case params.SuffixLat:
				lat = v
			case params.SuffixLon:
				lon = v
			case params.SuffixDist:
				dist = v
			}
		}
		if !valid {
			continue
		}
		if q := GeoDistanceFilter(field, field, lat, lon, dist, errs); q != nil {
			out = append(out, q)
		}
	}
	return out
}
