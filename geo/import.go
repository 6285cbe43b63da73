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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"
	bolt "go.etcd.io/bbolt"
)

// importBatch 每个事务写入的邮编数
const importBatch = 1000

type rawPoint struct {
	Lat interface{} `json:"lat"`
	Lon interface{} `json:"lon"`
}

// Import 导入 {"<邮编>": {"lat": .., "lon": ..}, ...} 文档
// 已存在的邮编会被覆盖，返回写入的数量
func (r *Resolver) Import(ctx context.Context, rd io.Reader) (int, error) {
	dec := json.NewDecoder(rd)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return 0, fmt.Errorf("geo import: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return 0, fmt.Errorf("geo import: expected a JSON object of postal codes")
	}

	total := 0
	batch := make(map[string][]byte, importBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := r.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketName)
			for code, v := range batch {
				if err := b.Put([]byte(code), v); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("geo import: %w", err)
		}
		total += len(batch)
		batch = make(map[string][]byte, importBatch)
		return nil
	}

	for dec.More() {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		tok, err := dec.Token()
		if err != nil {
			return total, fmt.Errorf("geo import: %w", err)
		}
		code := strings.TrimSpace(fmt.Sprint(tok))

		var rp rawPoint
		if err := dec.Decode(&rp); err != nil {
			return total, fmt.Errorf("geo import %s: %w", code, err)
		}
		p, err := toPoint(rp)
		if err != nil {
			return total, fmt.Errorf("geo import %s: %w", code, err)
		}
		if code == "" {
			continue
		}
		v, err := json.Marshal(p)
		if err != nil {
			return total, err
		}
		batch[code] = v
		if len(batch) >= importBatch {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}

	r.cache.Purge()
	return total, nil
}

func toPoint(rp rawPoint) (Point, error) {
	if rp.Lat == nil || rp.Lon == nil {
		return Point{}, fmt.Errorf("missing lat or lon")
	}
	lat, err := cast.ToFloat64E(rp.Lat)
	if err != nil {
		return Point{}, fmt.Errorf("invalid lat: %w", err)
	}
	lon, err := cast.ToFloat64E(rp.Lon)
	if err != nil {
		return Point{}, fmt.Errorf("invalid lon: %w", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Point{}, fmt.Errorf("coordinates out of range: %v,%v", lat, lon)
	}
	return Point{Lat: lat, Lon: lon}, nil
}
