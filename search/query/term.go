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
	"strings"

	"github.com/olivere/elastic/v7"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lscgzwd/trialsearch/search/params"
)

// 词条文档字段和参数
const (
	TermParam         = "term"
	TermTypeParam     = "term_type"
	TermCodesParam    = "codes"
	TermStatusesParam = "current_trial_statuses"
	TermViewableParam = "viewable"
	TermCoordinates   = "org_coordinates"
	TermPostalCode    = "org_postal_code"
	TermKeyField      = "term_key"

	termSuggestField    = "term_suggest"
	termPopularityField = "count_normalized"
	termPopularityScale = 0.25
)

// 词条排序键
const (
	TermSortScore = "_score"
	TermSortTerm  = "term"
	TermSortCount = "count"
)

// TermSortRules 合法的词条排序及其默认顺序
var TermSortRules = SortRules{TermSortScore: OrderDesc, TermSortTerm: OrderAsc, TermSortCount: OrderDesc}

// TermParams 词条接口的参数白名单，其他参数被丢弃
var TermParams = []string{
	TermParam, TermTypeParam, params.ParamSize, params.ParamFrom, params.ParamSort, params.ParamOrder,
	TermCodesParam, TermStatusesParam, TermViewableParam,
	"org_family", "org_to_family_relationship", "org_country", "org_state_or_province",
	"org_city", TermPostalCode, "org_name",
	TermCoordinates + params.SuffixLat, TermCoordinates + params.SuffixLon, TermCoordinates + params.SuffixDist,
}

// termOrgFields 使用 term 过滤的机构字段
var termOrgFields = []string{
	"org_family", "org_to_family_relationship", "org_country", "org_state_or_province",
	"org_city", TermPostalCode, "org_name",
}

// DefaultTermTypes 未指定 term_type 时检索的类型
var DefaultTermTypes = []string{
	"_diseases",
	"_locations",
	"_org_state_or_provinces",
	"_org_cities",
	"_orgs_by_location",
	"sites.org_postal_code",
	"sites.org_country",
	"sites.org_city",
	"sites.org_state_or_province",
	"sites.org_name",
	"sites.org_family",
	"sites.org_to_family_relationship",
	"_treatments",
	"anatomic_sites",
	"arms.interventions.intervention_type",
	"current_trial_status",
	"phase.phase",
	"study_protocol_type",
	"brief_title",
	"brief_summary",
	"official_title",
	"arms.interventions.synonyms",
	"primary_purpose.primary_purpose_code",
	"arms.interventions.intervention_code",
	"principal_investigator",
	"lead_org",
}

// TermFilters 返回词条请求的过滤子句
func TermFilters(p params.Params, termTypes []string, errs *params.ValidationError) []elastic.Query {
	var filters []elastic.Query

	if codes := p.List(TermCodesParam); len(codes) > 0 {
		// 词条代码以大写存储
		upper := cases.Upper(language.Und)
		values := make([]elastic.Query, 0, len(codes))
		for _, c := range codes {
			values = append(values, elastic.NewTermQuery(TermCodesParam, upper.String(c)))
		}
		filters = append(filters, anyOf(values))
	}
	if q := termsAnyOf(TermStatusesParam, p.List(TermStatusesParam)); q != nil {
		filters = append(filters, q)
	}
	for _, f := range termOrgFields {
		if v := strings.TrimSpace(p.Get(f)); v != "" {
			filters = append(filters, elastic.NewTermQuery(f, v))
		}
	}
	if v := p.Get(TermViewableParam); v != "" {
		if b, ok := ParseBool(v); ok {
			filters = append(filters, elastic.NewTermQuery(TermViewableParam, b))
		} else {
			errs.Addf(TermViewableParam, "Invalid boolean supplied for %s. Please use true, false, 1 or 0.", TermViewableParam)
		}
	}
	lat := p.Get(TermCoordinates + params.SuffixLat)
	lon := p.Get(TermCoordinates + params.SuffixLon)
	if lat != "" || lon != "" {
		dist := p.Get(TermCoordinates + params.SuffixDist)
		if q := GeoDistanceFilter(TermCoordinates, TermCoordinates, lat, lon, dist, errs); q != nil {
			filters = append(filters, q)
		}
	}

	types := p.List(TermTypeParam)
	if len(types) == 0 {
		types = termTypes
	}
	if q := termsAnyOf(TermTypeParam, types); q != nil {
		filters = append(filters, q)
	}
	return filters
}

func termsAnyOf(field string, values []string) elastic.Query {
	var clauses []elastic.Query
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			clauses = append(clauses, elastic.NewTermQuery(field, v))
		}
	}
	if len(clauses) == 0 {
		return nil
	}
	return anyOf(clauses)
}

// TermQuery 词条得分为文本匹配乘以热度
func TermQuery(term string, filters []elastic.Query) elastic.Query {
	bq := elastic.NewBoolQuery()
	if term = strings.TrimSpace(term); term != "" {
		bq = bq.Must(
			elastic.NewMatchQuery(termSuggestField, term),
			elastic.NewMatchPhrasePrefixQuery(termSuggestField, term),
		).Should(elastic.NewMatchQuery(TermParam, term))
	}
	if len(filters) > 0 {
		bq = bq.Filter(filters...)
	}
	return elastic.NewFunctionScoreQuery().
		Query(bq).
		AddScoreFunc(elastic.NewFieldValueFactorFunction().Field(termPopularityField).Factor(termPopularityScale)).
		BoostMode("multiply")
}

// TermSorter 返回词条请求的排序
func TermSorter(key, order string) elastic.Sorter {
	if key == TermSortScore {
		s := elastic.NewScoreSort()
		if order == OrderAsc {
			return s.Asc()
		}
		return s.Desc()
	}
	s := elastic.NewFieldSort(key)
	if order == OrderAsc {
		return s.Asc()
	}
	return s.Desc()
}

// TermSource 构建完整的词条请求，忽略 TermParams 以外的参数
func TermSource(p params.Params, termTypes []string) (*elastic.SearchSource, error) {
	p = p.Pick(TermParams...)
	errs := &params.ValidationError{}
	from := ParseFrom(p, errs)
	size := ParseSize(p, TermSizeLimit, errs)
	key, order := ParseSortOrder(p, TermSortRules, TermSortScore, errs)
	filters := TermFilters(p, termTypes, errs)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return elastic.NewSearchSource().
		Query(TermQuery(p.Get(TermParam), filters)).
		From(from).
		Size(size).
		SortBy(TermSorter(key, order)), nil
}

// TermKeySource 按 term_key 查找词条
func TermKeySource(key string) *elastic.SearchSource {
	return elastic.NewSearchSource().Query(elastic.NewMatchQuery(TermKeyField, key)).Size(1)
}
