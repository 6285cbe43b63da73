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

package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lscgzwd/trialsearch/search/params"
	"github.com/lscgzwd/trialsearch/search/schema"
)

func newTrialEngine(responses ...string) (*TrialEngine, *fakeStore) {
	st := &fakeStore{responses: responses}
	return NewTrialEngine(st, schema.Default(), DefaultConfig()), st
}

const oneTrial = `{"hits":{"total":{"value":1,"relation":"eq"},"hits":[{"_id":"1","_score":2.0,
	"_source":{"nci_id":"NCI-2014-01","nct_id":"NCT01","_diseases":[{"term":"x"}],
	"sites":[{"org_name":"Mayo","_private":1}],"brief_title":"A Trial"}}]}}`

func TestGetByNCIID(t *testing.T) {
	e, st := newTrialEngine(oneTrial)

	doc, err := e.Get(context.Background(), "NCI-2014-01")
	require.NoError(t, err)
	assert.Equal(t, "NCT01", doc["nct_id"])
	assert.NotContains(t, doc, "_diseases")
	assert.JSONEq(t, `[{"org_name":"Mayo"}]`, toJSONString(t, doc["sites"]))

	call := st.call(t, 0)
	assert.Equal(t, "cancer-clinical-trials", call.Index)
	assert.Contains(t, toJSONString(t, call.Body["query"]), `"nci_id"`)
}

func TestGetByNCTID(t *testing.T) {
	e, st := newTrialEngine(oneTrial)
	_, err := e.Get(context.Background(), "NCT01")
	require.NoError(t, err)
	assert.Contains(t, toJSONString(t, st.call(t, 0).Body["query"]), `"nct_id"`)
}

func TestGetMissingTrial(t *testing.T) {
	e, _ := newTrialEngine(`{"hits":{"total":{"value":0},"hits":[]}}`)
	doc, err := e.Get(context.Background(), "NCT404")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestSearchRejectsUnknownParams(t *testing.T) {
	e, st := newTrialEngine()
	_, err := e.Search(context.Background(), params.Params{"foo": {"1"}, "bar": {"2"}, "size": {"x"}})
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"bar", "foo", "size"}, ve.Params())
	assert.Empty(t, st.calls)
}

func TestSearchRejectsAggregateParams(t *testing.T) {
	e, _ := newTrialEngine()
	_, err := e.Search(context.Background(), params.Params{"agg_field": {"phase.phase"}})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"agg_field"}, ve.Params())
}

func TestSearchBuildsRequest(t *testing.T) {
	e, st := newTrialEngine(oneTrial)

	res, err := e.Search(context.Background(), params.Params{
		"current_trial_status": {"Active"},
		"_fulltext":            {"melanoma"},
		"size":                 {"500"},
		"from":                 {"20"},
		"include":              {"nct_id,brief_title"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
	require.Len(t, res.Trials, 1)
	assert.NotContains(t, res.Trials[0], "_diseases")

	body := st.call(t, 0).Body
	assert.EqualValues(t, 50, body["size"])
	assert.EqualValues(t, 20, body["from"])
	assert.Len(t, body["sort"], 7)
	assert.JSONEq(t, `{"includes":["nct_id","brief_title"]}`, toJSONString(t, body["_source"]))

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.Contains(t, boolQuery, "filter")
	assert.Contains(t, boolQuery, "must")
	assert.Contains(t, toJSONString(t, boolQuery["filter"]), `"current_trial_status":"active"`)
}

func TestSearchDefaults(t *testing.T) {
	e, st := newTrialEngine(`{"hits":{"total":{"value":0},"hits":[]}}`)

	res, err := e.Search(context.Background(), params.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Total)
	assert.NotNil(t, res.Trials)
	assert.JSONEq(t, `{"total":0,"trials":[]}`, toJSONString(t, res))

	body := st.call(t, 0).Body
	assert.EqualValues(t, 10, body["size"])
	assert.NotContains(t, body, "_source")
}

func TestSearchStoreError(t *testing.T) {
	cause := context.DeadlineExceeded
	st := &fakeStore{err: cause}
	e := NewTrialEngine(st, schema.Default(), nil)

	_, err := e.Search(context.Background(), params.Params{})
	require.Error(t, err)

	var se *StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "search trials", se.Op)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBuildIsDeterministic(t *testing.T) {
	e, _ := newTrialEngine()
	p := params.Params{"sites.org_city": {"Dallas"}, "sites.org_country": {"US"}, "_fulltext": {"lung"}}

	a, err := e.Build(p)
	require.NoError(t, err)
	b, err := e.Build(p.Clone())
	require.NoError(t, err)

	as, err := a.Source()
	require.NoError(t, err)
	bs, err := b.Source()
	require.NoError(t, err)
	assert.JSONEq(t, toJSONString(t, as), toJSONString(t, bs))
}

func TestAggregate(t *testing.T) {
	e, st := newTrialEngine(`{"hits":{"total":{"value":42},"hits":[]},"aggregations":{
		"phase.phase":{"buckets":[{"key":"II","doc_count":30},{"key":"I","doc_count":12}]}}}`)

	res, err := e.Aggregate(context.Background(), params.Params{"agg_field": {"phase.phase"}, "current_trial_status": {"active"}})
	require.NoError(t, err)
	assert.EqualValues(t, 42, res.Total)
	assert.JSONEq(t, `{"total":42,"terms":[{"key":"II","count":30},{"key":"I","count":12}]}`, toJSONString(t, res))

	body := st.call(t, 0).Body
	assert.EqualValues(t, 0, body["size"])
	assert.Contains(t, body["aggregations"], "phase.phase")
	assert.Contains(t, toJSONString(t, body["query"]), "current_trial_status")
}

func TestAggregateValidation(t *testing.T) {
	e, st := newTrialEngine()
	_, err := e.Aggregate(context.Background(), params.Params{"sort": {"name"}, "order": {"sideways"}, "foo": {"1"}})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"agg_field", "foo", "order"}, ve.Params())
	assert.Empty(t, st.calls)
}

func TestAggregateDiseaseAncestors(t *testing.T) {
	ancestors := `{"hits":{"total":{"value":100},"hits":[]},"aggregations":{
		"_diseases_ancestors_nested":{"doc_count":5,"_diseases_ancestors_filtered":{"doc_count":2,
		"_diseases_ancestors":{"buckets":[{"key":"Melanoma","doc_count":2}]}}}}}`
	primary := `{"hits":{"total":{"value":7},"hits":[]},"aggregations":{
		"_diseases_nested":{"doc_count":9,"_diseases_filtered":{"doc_count":8,"_diseases":{"buckets":[
			{"key":"Melanoma","doc_count":7,"types":{"buckets":[{"key":"subtype","doc_count":7}]}},
			{"key":"Ocular Melanoma","doc_count":3,"types":{"buckets":[{"key":"subtype","doc_count":3}]},
			 "codes":{"buckets":[{"key":"C7712","doc_count":3}]}}
		]}}}}}`
	e, st := newTrialEngine(ancestors, primary)

	res, err := e.Aggregate(context.Background(), params.Params{"agg_field": {"_diseases"}, "agg_ancestor": {"C3224"}})
	require.NoError(t, err)
	require.Len(t, res.Terms, 1)
	assert.Equal(t, "Ocular Melanoma", res.Terms[0].Key)
	assert.Equal(t, []string{"C7712"}, res.Terms[0].Attributes["codes"])

	require.Len(t, st.calls, 2)
	assert.Contains(t, toJSONString(t, st.call(t, 0).Body), `"_diseases.codes":["C3224"]`)
	assert.Contains(t, toJSONString(t, st.call(t, 1).Body), `"_diseases.ancestor_ids":["C3224"]`)
}
