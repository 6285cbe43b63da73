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

// Package geo 基于本地 bbolt 文件把邮编解析为坐标
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("postal_codes")

// Point 经纬度
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type entry struct {
	point Point
	found bool
}

// Resolver 邮编查询，命中和未命中都会缓存
type Resolver struct {
	db    *bolt.DB
	cache *lru.Cache[string, entry]
}

// Open 打开邮编库，不存在时创建
func Open(cfg *Config) (*Resolver, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	size := cfg.CacheSize
	if size < 1 {
		size = DefaultConfig().CacheSize
	}

	db, err := bolt.Open(cfg.DBPath, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open geo db %s: %w", cfg.DBPath, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create geo bucket: %w", err)
	}

	cache, err := lru.New[string, entry](size)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Resolver{db: db, cache: cache}, nil
}

// Close 关闭数据库
func (r *Resolver) Close() error {
	return r.db.Close()
}

// Lookup 返回邮编坐标，邮编不存在时 ok 为 false
func (r *Resolver) Lookup(ctx context.Context, code string) (Point, bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Point{}, false, nil
	}
	if e, ok := r.cache.Get(code); ok {
		return e.point, e.found, nil
	}
	if err := ctx.Err(); err != nil {
		return Point{}, false, err
	}

	var raw []byte
	if err := r.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketName).Get([]byte(code)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return Point{}, false, fmt.Errorf("geo lookup %s: %w", code, err)
	}

	e := entry{}
	if raw != nil {
		if err := json.Unmarshal(raw, &e.point); err != nil {
			return Point{}, false, fmt.Errorf("geo lookup %s: corrupt record: %w", code, err)
		}
		e.found = true
	}
	r.cache.Add(code, e)
	return e.point, e.found, nil
}

// Count 返回已存储的邮编数量
func (r *Resolver) Count() (int, error) {
	var n int
	err := r.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketName).Stats().KeyN
		return nil
	})
	return n, err
}
