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
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromValues(t *testing.T) {
	values, err := url.ParseQuery("current_trial_status=Active&phase.phase[]=I&phase.phase[]=II&size=5")
	require.NoError(t, err)

	p := FromValues(values)
	assert.Equal(t, []string{"Active"}, p.Values("current_trial_status"))
	assert.Equal(t, []string{"I", "II"}, p.Values("phase.phase"))
	assert.Equal(t, "5", p.Get("size"))
	assert.Equal(t, []string{"current_trial_status", "phase.phase", "size"}, p.Names())
}

func TestFromJSON(t *testing.T) {
	p, err := FromJSON(strings.NewReader(`{
		"current_trial_status": ["Active", "Approved"],
		"size": 20,
		"accepts_healthy_volunteers_indicator": true,
		"sites.org_coordinates_lat": 39.1,
		"skip": null
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Active", "Approved"}, p.Values("current_trial_status"))
	assert.Equal(t, "20", p.Get("size"))
	assert.Equal(t, "true", p.Get("accepts_healthy_volunteers_indicator"))
	assert.Equal(t, "39.1", p.Get("sites.org_coordinates_lat"))
	assert.False(t, p.Has("skip"))
}

func TestFromJSONEmptyBody(t *testing.T) {
	p, err := FromJSON(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, p)
}

func TestFromJSONRejectsMultiDimensional(t *testing.T) {
	_, err := FromJSON(strings.NewReader(`{"a": [["x"]], "b": {"c": 1}, "ok": "1"}`))
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"a", "b"}, verr.Params())
}

func TestFromJSONMalformed(t *testing.T) {
	_, err := FromJSON(strings.NewReader(`{"a":`))
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	p := Params{"a": {"1"}}
	c := p.Clone()
	c.Add("a", "2")
	c.Del("a")

	assert.Equal(t, []string{"1"}, p.Values("a"))
}

func TestPickAndList(t *testing.T) {
	p := Params{"a": {"1"}, "b": {"x, y", "z"}, "c": {"3"}}

	assert.Equal(t, Params{"a": {"1"}}, p.Pick("a", "missing"))
	assert.Equal(t, []string{"x", "y", "z"}, p.List("b"))
}

func TestValidationErrorAccumulates(t *testing.T) {
	e := &ValidationError{}
	assert.NoError(t, e.Err())

	e.Add("b", "bad b.")
	e.Add("a", "bad a.")
	e.Add("a", "bad a.")
	other := &ValidationError{}
	other.Add("c", "bad c.")
	e.Merge(other)
	e.Merge(nil)

	require.Error(t, e.Err())
	assert.Equal(t, []string{"a", "b", "c"}, e.Params())
	assert.Equal(t, "bad b. bad a. bad c.", e.Error())
}
