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

package geo

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Resolver {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "geo.db")
	cfg.CacheSize = 16
	r, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

const zipCodes = `{
	"20892": {"lat": 39.0003, "lon": -77.1056},
	"75201": {"lat": "32.7876", "lon": "-96.7994"},
	"10001": {"lat": 40.7506, "lon": -73.9972}
}`

func TestImportAndLookup(t *testing.T) {
	r := openTemp(t)
	ctx := context.Background()

	n, err := r.Import(ctx, strings.NewReader(zipCodes))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	count, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	p, ok, err := r.Lookup(ctx, " 20892 ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Point{Lat: 39.0003, Lon: -77.1056}, p)

	p, ok, err = r.Lookup(ctx, "75201")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 32.7876, p.Lat, 1e-9)
}

func TestLookupMiss(t *testing.T) {
	r := openTemp(t)
	ctx := context.Background()

	_, ok, err := r.Lookup(ctx, "99999")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = r.Lookup(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestImportPurgesCachedMisses(t *testing.T) {
	r := openTemp(t)
	ctx := context.Background()

	_, ok, err := r.Lookup(ctx, "10001")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = r.Import(ctx, strings.NewReader(zipCodes))
	require.NoError(t, err)

	_, ok, err = r.Lookup(ctx, "10001")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLookupCancelled(t *testing.T) {
	r := openTemp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := r.Lookup(ctx, "20892")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImportRejectsBadInput(t *testing.T) {
	r := openTemp(t)
	ctx := context.Background()

	for _, doc := range []string{
		`[1, 2]`,
		`{"20892": {"lat": "north", "lon": 1}}`,
		`{"20892": {"lat": 91, "lon": 1}}`,
		`{"20892": {"lon": 1}}`,
		`{"20892": `,
	} {
		_, err := r.Import(ctx, strings.NewReader(doc))
		assert.Error(t, err, doc)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "geo.db")

	r, err := Open(cfg)
	require.NoError(t, err)
	_, err = r.Import(context.Background(), strings.NewReader(zipCodes))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r, err = Open(cfg)
	require.NoError(t, err)
	defer r.Close()
	_, ok, err := r.Lookup(context.Background(), "10001")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Enabled = true
	cfg.CacheSize = 0
	assert.Error(t, cfg.Validate())
}
