// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache is the fetcher's response cache: a TTL-bounded store
// of raw response bodies keyed by request URL, with lazy expiry.
package cache

import (
	"time"

	"github.com/alphadose/haxmap"
)

// DefaultTTL is how long a cached body stays fresh absent an explicit TTL.
const DefaultTTL = 5 * time.Minute

type entry struct {
	body      []byte
	expiresAt time.Time
}

// Cache is a concurrent, lazily-expiring cache of fetched response bodies.
// Entries are not proactively swept; an expired entry is only reclaimed
// the next time its key is looked up or overwritten.
type Cache struct {
	m   *haxmap.Map[string, entry]
	ttl time.Duration
}

// New builds a Cache using ttl for entries that don't specify their own
// via SetWithTTL. A ttl <= 0 is replaced with DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{m: haxmap.New[string, entry](), ttl: ttl}
}

// Get returns the cached body for key if present and not expired.
func (c *Cache) Get(key string) ([]byte, bool) {
	e, ok := c.m.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.m.Del(key)
		return nil, false
	}
	return e.body, true
}

// Set stores body under key using the cache's default TTL.
func (c *Cache) Set(key string, body []byte) {
	c.SetWithTTL(key, body, c.ttl)
}

// SetWithTTL stores body under key with an entry-specific TTL.
func (c *Cache) SetWithTTL(key string, body []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.m.Set(key, entry{body: body, expiresAt: time.Now().Add(ttl)})
}

// Delete evicts key unconditionally.
func (c *Cache) Delete(key string) {
	c.m.Del(key)
}

// Len reports the number of entries currently stored, expired or not.
func (c *Cache) Len() int {
	return int(c.m.Len())
}
