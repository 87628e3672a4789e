// Package cache keeps recently fetched balances so repeated lookups
// against the same node can skip the network.
package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultStaleness is how long an entry is served before a refetch.
const DefaultStaleness = 5 * time.Minute

// Recorder receives hit and miss counts. *metrics.Metrics implements it.
type Recorder interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// BalanceCache stores balances keyed by endpoint, holder, and token.
type BalanceCache struct {
	mu       sync.RWMutex
	Entries  map[string]Entry `json:"entries"`
	recorder Recorder
}

// Entry is one cached balance. Amounts are decimal strings in the
// token's smallest unit.
type Entry struct {
	Endpoint    string    `json:"endpoint"`
	Address     string    `json:"address"`
	Token       string    `json:"token,omitempty"`
	Symbol      string    `json:"symbol"`
	Decimals    int       `json:"decimals"`
	Balance     string    `json:"balance"`
	Unconfirmed string    `json:"unconfirmed,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewBalanceCache creates an empty cache.
func NewBalanceCache() *BalanceCache {
	return &BalanceCache{Entries: make(map[string]Entry)}
}

// SetRecorder reports Lookup results to r.
func (c *BalanceCache) SetRecorder(r Recorder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recorder = r
}

// Key builds the map key. Addresses compare case-insensitively.
func Key(endpoint, address, token string) string {
	k := endpoint + "|" + strings.ToLower(address)
	if token != "" {
		k += "|" + strings.ToLower(token)
	}
	return k
}

// Get returns the entry and its age.
func (c *BalanceCache) Get(endpoint, address, token string) (*Entry, bool, time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.Entries[Key(endpoint, address, token)]
	if !ok {
		return nil, false, 0
	}
	return &entry, true, time.Since(entry.UpdatedAt)
}

// Lookup returns the entry when it is younger than maxAge, counting the
// result as a hit or miss.
func (c *BalanceCache) Lookup(endpoint, address, token string, maxAge time.Duration) (*Entry, bool) {
	entry, ok, age := c.Get(endpoint, address, token)
	fresh := ok && age <= maxAge

	c.mu.RLock()
	r := c.recorder
	c.mu.RUnlock()
	if r != nil {
		if fresh {
			r.RecordCacheHit()
		} else {
			r.RecordCacheMiss()
		}
	}

	if !fresh {
		return nil, false
	}
	return entry, true
}

// Set stores entry stamped with the current time.
func (c *BalanceCache) Set(entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.UpdatedAt = time.Now()
	c.Entries[Key(entry.Endpoint, entry.Address, entry.Token)] = entry
}

// Delete removes an entry.
func (c *BalanceCache) Delete(endpoint, address, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Entries, Key(endpoint, address, token))
}

// Clear removes all entries.
func (c *BalanceCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Entries = make(map[string]Entry)
}

// Size returns the number of entries.
func (c *BalanceCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Entries)
}

// ForAddress returns every cached balance of address.
func (c *BalanceCache) ForAddress(address string) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Entry
	for _, e := range c.Entries {
		if strings.EqualFold(e.Address, address) {
			out = append(out, e)
		}
	}
	return out
}

// Prune removes entries older than maxAge and returns how many it removed.
func (c *BalanceCache) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for k, e := range c.Entries {
		if e.UpdatedAt.Before(cutoff) {
			delete(c.Entries, k)
			removed++
		}
	}
	return removed
}
