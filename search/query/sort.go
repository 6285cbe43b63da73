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
	"github.com/olivere/elastic/v7"

	"github.com/lscgzwd/trialsearch/search/params"
)

// SiteCoordinates 试验按距离排序使用的坐标字段
const SiteCoordinates = "sites.org_coordinates"

// Point 经纬度
type Point struct {
	Lat float64
	Lon float64
}

// SortPoint 经纬度都合法时返回排序原点
func SortPoint(p params.Params) (Point, bool) {
	lat, ok := ParseLatitude(p.Get(SiteCoordinates + params.SuffixLat))
	if !ok {
		return Point{}, false
	}
	lon, ok := ParseLongitude(p.Get(SiteCoordinates + params.SuffixLon))
	if !ok {
		return Point{}, false
	}
	return Point{Lat: lat, Lon: lon}, true
}

// TrialSort 返回固定的试验排序，排名字段在入库时计算
func TrialSort(p params.Params) []elastic.Sorter {
	sorters := []elastic.Sorter{
		elastic.NewFieldSort("_study_protocol_type_sort_order").Asc(),
		elastic.NewFieldSort("primary_purpose._primary_purpose_code_sort_order").Asc(),
		elastic.NewFieldSort("_current_trial_status_sort_order").Asc(),
	}
	if pt, ok := SortPoint(p); ok {
		sorters = append(sorters, NewGeoDistanceSort(SiteCoordinates, pt))
	}
	return append(sorters,
		elastic.NewFieldSort("_active_sites_count").Desc(),
		elastic.NewFieldSort("phase._phase_sort_order").Asc(),
		elastic.NewScoreSort().Desc(),
		elastic.NewFieldSort("nct_id").Desc(),
	)
}

// GeoDistanceSort 按到原点的平面距离（英里）由近到远排序
type GeoDistanceSort struct {
	field string
	point Point
}

var _ elastic.Sorter = (*GeoDistanceSort)(nil)

// NewGeoDistanceSort 创建距离排序
func NewGeoDistanceSort(field string, point Point) *GeoDistanceSort {
	return &GeoDistanceSort{field: field, point: point}
}

// Source 返回可序列化的排序体
func (s *GeoDistanceSort) Source() (interface{}, error) {
	return map[string]interface{}{
		"_geo_distance": map[string]interface{}{
			s.field:         map[string]interface{}{"lat": s.point.Lat, "lon": s.point.Lon},
			"order":         "asc",
			"unit":          "mi",
			"distance_type": "plane",
		},
	}, nil
}
