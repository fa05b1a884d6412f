// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package readfetch

import (
	"sync"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/unfazed/dnm"
)

const numMateCacheShards = 1024

type mateCacheShard struct {
	mu      sync.Mutex
	entries map[string]*dnm.Read
}

// mateCache is a sharded, thread-safe map from query name to the mate most
// recently resolved under that name, adapted from bamprovider's
// concurrentMap. Fetcher.Mate removes an entry on its first lookup, so a
// repeated Mate call for the same read is served without a second trip to
// the alignment source.
type mateCache struct {
	shards [numMateCacheShards]mateCacheShard
}

func newMateCache() *mateCache {
	c := &mateCache{}
	for i := range c.shards {
		c.shards[i].entries = make(map[string]*dnm.Read)
	}
	return c
}

func (c *mateCache) shardFor(name string) *mateCacheShard {
	h := seahash.Sum64([]byte(name))
	return &c.shards[h%uint64(numMateCacheShards)]
}

// lookupAndDelete returns and removes a previously stored read for name, if
// present.
func (c *mateCache) lookupAndDelete(name string) (*dnm.Read, bool) {
	shard := c.shardFor(name)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	r, ok := shard.entries[name]
	if ok {
		delete(shard.entries, name)
	}
	return r, ok
}

func (c *mateCache) store(name string, r *dnm.Read) {
	shard := c.shardFor(name)
	shard.mu.Lock()
	shard.entries[name] = r
	shard.mu.Unlock()
}
