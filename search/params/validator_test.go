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

package params

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lscgzwd/trialsearch/search/schema"
)

func TestClassify(t *testing.T) {
	s := schema.Default()

	cases := []struct {
		name  string
		field string
		kind  Kind
	}{
		{"current_trial_status", "current_trial_status", KindString},
		{"accepts_healthy_volunteers_indicator", "accepts_healthy_volunteers_indicator", KindBoolean},
		{"brief_title_fulltext", "brief_title", KindFulltext},
		{"record_verification_date_gte", "record_verification_date", KindDate},
		{"minimum_target_accrual_number_lte", "minimum_target_accrual_number", KindLong},
		{"eligibility.structured.max_age_in_years_gte", "eligibility.structured.max_age_in_years", KindFloat},
		{"sites.org_coordinates_lat", "sites.org_coordinates", KindGeo},
		{"sites.org_coordinates_dist", "sites.org_coordinates", KindGeo},
		{"sites.org_name_auto", "sites.org_name", KindAuto},
		{"lead_org_raw", "lead_org", KindRaw},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target, ok := Classify(s, tc.name)
			require.True(t, ok)
			assert.Equal(t, tc.field, target.Field)
			assert.Equal(t, tc.kind, target.Kind)
		})
	}
}

func TestClassifyRejectsWrongBucket(t *testing.T) {
	s := schema.Default()

	// 类型不符、缺少后缀、未知字段、多重后缀
	for _, name := range []string{
		"nct_id_fulltext",
		"current_trial_status_gte",
		"record_verification_date",
		"sites.org_city_lat",
		"sites.org_coordinates",
		"_active_sites_count_auto",
		"_fulltext_fulltext",
		"brief_title_fulltext_raw",
		"minimum_target_accrual_number",
	} {
		_, ok := Classify(s, name)
		assert.False(t, ok, name)
	}
}

func TestValidatorEnumeratesEveryInvalidName(t *testing.T) {
	v := NewValidator(schema.Default(), TrialControl...)

	err := v.Validate(Params{"foo": {"1"}, "bar": {"2"}, "current_trial_status": {"Active"}})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"bar", "foo"}, verr.Params())
	assert.Equal(t, MsgInvalidParams, verr.Error())
}

func TestValidatorAcceptsControlAndFields(t *testing.T) {
	v := NewValidator(schema.Default(), TrialControl...)

	err := v.Validate(Params{
		"size":                         {"10"},
		"from":                         {"0"},
		"include":                      {"nct_id"},
		"_fulltext":                    {"melanoma"},
		"_trialids":                    {"NCI-2014"},
		"sites.org_city":               {"Boston"},
		"record_verification_date_lte": {"2016-01-01"},
	})
	assert.NoError(t, err)
}

func TestValidatorControlSetIsPerEndpoint(t *testing.T) {
	trials := NewValidator(schema.Default(), TrialControl...)
	aggs := NewValidator(schema.Default(), AggregateControl...)

	assert.False(t, trials.IsValid("agg_field"))
	assert.True(t, aggs.IsValid("agg_field"))
	assert.True(t, aggs.IsControl("agg_term"))
}
