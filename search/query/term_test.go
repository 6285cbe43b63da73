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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lscgzwd/trialsearch/search/params"
)

func TestDefaultTermTypes(t *testing.T) {
	assert.Len(t, DefaultTermTypes, 26)
	assert.Equal(t, "_diseases", DefaultTermTypes[0])
	assert.Equal(t, "lead_org", DefaultTermTypes[25])
}

func TestTermFiltersDefaultTypes(t *testing.T) {
	errs := &params.ValidationError{}
	filters := TermFilters(params.Params{}, DefaultTermTypes, errs)
	require.Len(t, filters, 1)
	assert.Len(t, list(dig(t, toMap(t, filters[0]), "bool", "should")), 26)
}

func TestTermFilters(t *testing.T) {
	errs := &params.ValidationError{}
	filters := TermFilters(params.Params{
		"codes":                  {"c3224", "c4872"},
		"current_trial_statuses": {"ACTIVE"},
		"org_city":               {"Dallas"},
		"viewable":               {"true"},
		"org_coordinates_lat":    {"32.7"},
		"org_coordinates_lon":    {"-96.8"},
		"term_type":              {"sites.org_name"},
	}, DefaultTermTypes, errs)
	require.True(t, errs.Empty())
	require.Len(t, filters, 6)

	codes := list(dig(t, toMap(t, filters[0]), "bool", "should"))
	assert.Equal(t, "C3224", dig(t, codes[0].(map[string]interface{}), "term", "codes"))
	assert.JSONEq(t, `{"term":{"current_trial_statuses":"ACTIVE"}}`, toJSON(t, filters[1]))
	assert.JSONEq(t, `{"term":{"org_city":"Dallas"}}`, toJSON(t, filters[2]))
	assert.JSONEq(t, `{"term":{"viewable":true}}`, toJSON(t, filters[3]))
	assert.Equal(t, GeoEpsilon, dig(t, toMap(t, filters[4]), "geo_distance", "distance"))
	assert.JSONEq(t, `{"term":{"term_type":"sites.org_name"}}`, toJSON(t, filters[5]))
}

func TestTermFiltersProblems(t *testing.T) {
	errs := &params.ValidationError{}
	TermFilters(params.Params{"viewable": {"sometimes"}, "org_coordinates_lat": {"32.7"}}, nil, errs)
	assert.Equal(t, []string{"org_coordinates_lon", "viewable"}, errs.Params())
}

func TestTermSource(t *testing.T) {
	src, err := TermSource(params.Params{"term": {"mela"}, "size": {"500"}, "bogus": {"x"}}, DefaultTermTypes)
	require.NoError(t, err)

	m := toMap(t, src)
	assert.EqualValues(t, 100, m["size"])
	assert.EqualValues(t, 0, m["from"])
	assert.Equal(t, []interface{}{map[string]interface{}{"_score": map[string]interface{}{"order": "desc"}}}, m["sort"])

	fs := dig(t, m, "query", "function_score").(map[string]interface{})
	assert.Equal(t, "multiply", fs["boost_mode"])
	out := toJSONValue(t, fs)
	assert.Contains(t, out, `"count_normalized"`)
	assert.Contains(t, out, `"factor":0.25`)
	assert.Contains(t, out, `"match_phrase_prefix":{"term_suggest"`)
	assert.Contains(t, out, `"match":{"term":{"query":"mela"}}`)
	assert.NotContains(t, out, "bogus")
}

func TestTermSourceSort(t *testing.T) {
	cases := []struct {
		p    params.Params
		want string
	}{
		{params.Params{"sort": {"term"}}, `{"term":{"order":"asc"}}`},
		{params.Params{"sort": {"count"}}, `{"count":{"order":"desc"}}`},
		{params.Params{"sort": {"term"}, "order": {"desc"}}, `{"term":{"order":"desc"}}`},
		{params.Params{"order": {"asc"}}, `{"_score":{"order":"asc"}}`},
	}
	for _, tc := range cases {
		src, err := TermSource(tc.p, DefaultTermTypes)
		require.NoError(t, err)
		sorts := toMap(t, src)["sort"].([]interface{})
		require.Len(t, sorts, 1)
		assert.JSONEq(t, tc.want, toJSONValue(t, sorts[0]))
	}
}

func TestTermSourceRejectsBadSort(t *testing.T) {
	_, err := TermSource(params.Params{"sort": {"popularity"}, "from": {"-2"}}, DefaultTermTypes)
	require.Error(t, err)
	var ve *params.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"from", "sort"}, ve.Params())
}

func TestTermKeySource(t *testing.T) {
	m := toMap(t, TermKeySource("melanoma_diseases"))
	assert.EqualValues(t, 1, m["size"])
	assert.Equal(t, "melanoma_diseases", dig(t, m, "query", "match", "term_key", "query"))
}
