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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevanceBlank(t *testing.T) {
	assert.Nil(t, Relevance(""))
	assert.Nil(t, Relevance("   "))
}

func TestRelevanceRecipe(t *testing.T) {
	should := list(dig(t, toMap(t, Relevance("melanoma")), "bool", "should"))
	require.Len(t, should, 1+len(RelevanceFields)+len(RelevanceNested))

	clause := func(i int) map[string]interface{} { return should[i].(map[string]interface{}) }

	assert.Equal(t, []interface{}{"*_id", "other_ids.value"}, dig(t, clause(0), "multi_match", "fields"))

	phrase := dig(t, clause(1), "match_phrase", "_diseases.term._fulltext").(map[string]interface{})
	assert.Equal(t, "melanoma", phrase["query"])
	assert.EqualValues(t, 4, phrase["boost"])

	unboosted := dig(t, clause(3), "match_phrase", "brief_summary").(map[string]interface{})
	assert.NotContains(t, unboosted, "boost")

	assert.Equal(t, map[string]interface{}{"common": map[string]interface{}{
		"official_title": map[string]interface{}{
			"query":             "melanoma",
			"cutoff_frequency":  0.001,
			"low_freq_operator": "and",
			"boost":             float64(4),
		},
	}}, clause(6))

	strict := dig(t, clause(11), "common", "sites.org_name._fulltext").(map[string]interface{})
	assert.Equal(t, "100%", strict["minimum_should_match"])
	assert.NotContains(t, strict, "boost")

	assert.Equal(t, "melanoma", dig(t, clause(13), "match", "principal_investigator._fulltext", "query"))

	drug := list(dig(t, clause(17), "bool", "must"))[0].(map[string]interface{})
	assert.Equal(t, "arms.interventions", dig(t, drug, "nested", "path"))
	assert.Contains(t, toJSONValue(t, drug), `"arms.interventions.intervention_type":"drug"`)

	assert.Equal(t, "biomarkers", dig(t, clause(18), "nested", "path"))
	assert.Contains(t, toJSONValue(t, clause(18)), `"biomarkers.eligibility_criterion":"inclusion"`)
}

func TestCommonTermsQuerySource(t *testing.T) {
	q := NewCommonTermsQuery("body", "the lung").CutoffFrequency(0.01)
	assert.JSONEq(t, `{"common":{"body":{"query":"the lung","cutoff_frequency":0.01}}}`, toJSON(t, q))
}
