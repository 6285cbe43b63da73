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

package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMapping = `{
  "trial": {
    "properties": {
      "nct_id": {"type": "keyword"},
      "brief_title": {"type": "keyword", "fields": {"_fulltext": {"type": "text"}}},
      "record_verification_date": {"type": "date"},
      "_active_sites_count": {"type": "long"},
      "eligibility": {"properties": {"structured": {"properties": {"max_age_in_years": {"type": "float"}}}}},
      "accepts_healthy_volunteers_indicator": {"type": "boolean"},
      "blob": {"type": "binary"},
      "sites": {
        "type": "nested",
        "properties": {
          "org_city": {"type": "keyword"},
          "org_coordinates": {"type": "geo_point"},
          "contacts": {"type": "nested", "properties": {"name": {"type": "keyword"}}}
        }
      }
    }
  }
}`

func TestLoadClassifiesFields(t *testing.T) {
	s, err := Load(strings.NewReader(sampleMapping))
	require.NoError(t, err)

	assert.Equal(t, []string{"brief_title", "nct_id", "sites.contacts.name", "sites.org_city"}, s.FieldsByType(TypeString))
	assert.Equal(t, []string{"brief_title"}, s.FieldsByType(TypeFulltext))
	assert.Equal(t, []string{"record_verification_date"}, s.FieldsByType(TypeDate))
	assert.Equal(t, []string{"_active_sites_count"}, s.FieldsByType(TypeLong))
	assert.Equal(t, []string{"eligibility.structured.max_age_in_years"}, s.FieldsByType(TypeFloat))
	assert.Equal(t, []string{"accepts_healthy_volunteers_indicator"}, s.FieldsByType(TypeBoolean))
	assert.Equal(t, []string{"sites.org_coordinates"}, s.FieldsByType(TypeGeoPoint))
	assert.Equal(t, []string{"sites", "sites.contacts"}, s.FieldsByType(TypeNested))

	assert.False(t, s.Has("blob"))
	assert.False(t, s.Has("eligibility"))
}

func TestDualMembership(t *testing.T) {
	s, err := Load(strings.NewReader(sampleMapping))
	require.NoError(t, err)

	assert.Equal(t, []FieldType{TypeString, TypeFulltext}, s.Types("brief_title"))
	assert.True(t, s.Is("brief_title", TypeFulltext))
	assert.False(t, s.Is("nct_id", TypeFulltext))
}

func TestNestedPathOf(t *testing.T) {
	s, err := Load(strings.NewReader(sampleMapping))
	require.NoError(t, err)

	path, ok := s.NestedPathOf("sites.contacts.name")
	assert.True(t, ok)
	assert.Equal(t, "sites.contacts", path)

	path, ok = s.NestedPathOf("sites.org_city")
	assert.True(t, ok)
	assert.Equal(t, "sites", path)

	_, ok = s.NestedPathOf("sitesx.org_city")
	assert.False(t, ok)
}

func TestLoadWrappedMappings(t *testing.T) {
	for name, doc := range map[string]string{
		"bare":     `{"properties": {"a": {"type": "keyword"}}}`,
		"mappings": `{"mappings": {"properties": {"a": {"type": "keyword"}}}}`,
		"typed":    `{"mappings": {"trial": {"properties": {"a": {"type": "keyword"}}}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			s, err := Load(strings.NewReader(doc))
			require.NoError(t, err)
			assert.True(t, s.Is("a", TypeString))
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(strings.NewReader(`not json`))
	assert.Error(t, err)

	_, err = Load(strings.NewReader(`{"a": 1, "b": 2}`))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleMapping), 0o644))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, s.Is("sites.org_coordinates", TypeGeoPoint))
}

func TestDefaultMapping(t *testing.T) {
	s := Default()

	assert.Contains(t, s.FieldsByType(TypeNested), "sites")
	assert.Contains(t, s.FieldsByType(TypeNested), "arms.interventions")
	assert.Contains(t, s.FieldsByType(TypeNested), "_interventions.drugs")
	assert.True(t, s.Is("sites.org_coordinates", TypeGeoPoint))
	assert.True(t, s.Is("official_title", TypeFulltext))
	assert.True(t, s.Is("_diseases.term", TypeFulltext))
}

func TestMappingIsACopy(t *testing.T) {
	s, err := Load(strings.NewReader(sampleMapping))
	require.NoError(t, err)

	m := s.Mapping()
	delete(m["properties"].(map[string]interface{}), "nct_id")

	again := s.Mapping()
	assert.Contains(t, again["properties"].(map[string]interface{}), "nct_id")
}

func TestHasSubField(t *testing.T) {
	s := Default()

	assert.True(t, s.HasSubField("sites.org_name", "_raw"))
	assert.True(t, s.HasSubField("sites.org_name", "_auto"))
	assert.False(t, s.HasSubField("current_trial_status", "_raw"))
}
