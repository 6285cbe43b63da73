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

package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lscgzwd/trialsearch/api/http/common"
	"github.com/lscgzwd/trialsearch/geo"
	"github.com/lscgzwd/trialsearch/search/params"
)

type brokenGeo struct{}

func (brokenGeo) Lookup(context.Context, string) (geo.Point, bool, error) {
	return geo.Point{}, false, errors.New("database not open")
}

type staticGeo struct{ pt geo.Point }

func (s staticGeo) Lookup(context.Context, string) (geo.Point, bool, error) {
	return s.pt, true, nil
}

func TestApplyPostalCodeDoesNotMutateInput(t *testing.T) {
	in := params.Params{"org_postal_code": {"20892"}, "org_coordinates_dist": {"10"}}
	out, err := applyPostalCode(context.Background(), staticGeo{geo.Point{Lat: 1.5, Lon: -2}}, in, termPostal)
	require.NoError(t, err)

	assert.Equal(t, "1.5", out.Get("org_coordinates_lat"))
	assert.Equal(t, "-2", out.Get("org_coordinates_lon"))
	assert.False(t, out.Has("org_postal_code"))
	assert.Equal(t, "20892", in.Get("org_postal_code"))
	assert.False(t, in.Has("org_coordinates_lat"))
}

func TestApplyPostalCodeLookupError(t *testing.T) {
	in := params.Params{"sites.org_postal_code": {"20892"}, "sites.org_coordinates_dist": {"10"}}
	_, err := applyPostalCode(context.Background(), brokenGeo{}, in, trialPostal)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, common.ToAPIError(err).StatusCode())
}

func TestApplyPostalCodeWithoutResolver(t *testing.T) {
	in := params.Params{"sites.org_postal_code": {"20892"}, "sites.org_coordinates_dist": {"10"}}
	out, err := applyPostalCode(context.Background(), nil, in, trialPostal)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/terms?term=lung&term_type[]=_diseases&term_type[]=_locations", nil)
	p, err := decodeParams(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"_diseases", "_locations"}, p.Values("term_type"))

	r = httptest.NewRequest(http.MethodPost, "/v1/terms", strings.NewReader(""))
	p, err = decodeParams(r)
	require.NoError(t, err)
	assert.Empty(t, p)

	r = httptest.NewRequest(http.MethodPost, "/v1/terms", strings.NewReader("not json"))
	_, err = decodeParams(r)
	assert.Equal(t, http.StatusBadRequest, common.ToAPIError(err).StatusCode())
}
