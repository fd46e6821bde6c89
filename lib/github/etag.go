// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// etagCacheSize bounds the URLs remembered per client. The supervisor
// fetches an ever-growing set of issues, so the least recently used
// entries are evicted once it is reached.
const etagCacheSize = 1024

// etagCache maps GET URLs to the last ETag and body seen. A 304 reply
// to a conditional request is served from here and does not count
// against the rate limit.
type etagCache struct {
	entries *lru.Cache[string, etagEntry]
}

type etagEntry struct {
	etag string
	body []byte
}

func newETagCache(size int) *etagCache {
	entries, err := lru.New[string, etagEntry](size)
	if err != nil {
		panic(fmt.Sprintf("github: etag cache of size %d: %v", size, err))
	}
	return &etagCache{entries: entries}
}

// lookup returns the entry for url and marks it recently used.
func (cache *etagCache) lookup(url string) (etagEntry, bool) {
	return cache.entries.Get(url)
}

func (cache *etagCache) put(url, etag string, body []byte) {
	if etag == "" {
		return
	}
	cache.entries.Add(url, etagEntry{etag: etag, body: body})
}
