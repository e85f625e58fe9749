// Copyright 2025 ScentStack
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package enrichment

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultCacheTTL bounds how long a looked-up note string is reused.
const DefaultCacheTTL = 24 * time.Hour

// Cache is an optional Redis-backed lookup cache for note strings. It exists
// to spare the third-party notes API on repeated lookups of the same name;
// like the lookups themselves it is best-effort, and every cache failure is
// logged and ignored.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewCache connects a lookup cache to the Redis instance at addr.
func NewCache(addr string, ttl time.Duration) *Cache {
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	return &Cache{
		client: client,
		ttl:    ttl,
		logger: log.New(os.Stdout, "[ENRICHMENT_CACHE] ", log.LstdFlags),
	}
}

// cacheKey normalizes a perfume name into a cache key.
func cacheKey(name string) string {
	return "topnotes:" + strings.ToLower(strings.TrimSpace(name))
}

// Get returns the cached note string for a name. Safe on a nil Cache.
func (c *Cache) Get(ctx context.Context, name string) (string, bool) {
	if c == nil {
		return "", false
	}

	val, err := c.client.Get(ctx, cacheKey(name)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.logger.Printf("Cache read failed for %q: %v", name, err)
		return "", false
	}

	return val, true
}

// Set stores a note string for a name. Safe on a nil Cache.
func (c *Cache) Set(ctx context.Context, name, notes string) {
	if c == nil {
		return
	}

	if err := c.client.Set(ctx, cacheKey(name), notes, c.ttl).Err(); err != nil {
		c.logger.Printf("Cache write failed for %q: %v", name, err)
	}
}

// Close releases the Redis connection. Safe on a nil Cache.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
