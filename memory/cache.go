package memory

import (
	"log"
)

// Cache is an unbounded write-through lookaside buffer in front of a backing
// store. Once an address is touched it stays cached; nothing is evicted.
type Cache struct {
	Verbose bool   // Set to enable verbose logging.
	Name    string // Name used in statistics and logs.

	Hits   int // Loads served from the cache.
	Misses int // Loads that had to go to the backing store.

	backing Storage
	lines   map[uint32]uint32
}

var _ Storage = (*Cache)(nil)

// NewCache creates an empty cache in front of backing.
func NewCache(name string, backing Storage) (cache *Cache) {
	cache = &Cache{
		Name:    name,
		backing: backing,
		lines:   make(map[uint32]uint32),
	}

	return
}

// Load reads a word, filling the cache from the backing store on a miss.
func (cache *Cache) Load(address uint32) (value uint32, err error) {
	value, ok := cache.lines[address]
	if ok {
		cache.Hits++
		if cache.Verbose {
			log.Printf("%v: hit 0x%04x", cache.Name, address)
		}
		return
	}

	value, err = cache.backing.Load(address)
	if err != nil {
		return
	}

	cache.Misses++
	cache.lines[address] = value
	if cache.Verbose {
		log.Printf("%v: miss 0x%04x", cache.Name, address)
	}

	return
}

// Store writes a word to both the cache and the backing store.
// The counters are not changed.
func (cache *Cache) Store(address uint32, value uint32) (err error) {
	err = cache.backing.Store(address, value)
	if err != nil {
		return
	}

	cache.lines[address] = value
	if cache.Verbose {
		log.Printf("%v: write 0x%04x <- 0x%08x", cache.Name, address, value)
	}

	return
}

// Contains reports whether address is currently cached.
func (cache *Cache) Contains(address uint32) (ok bool) {
	_, ok = cache.lines[address]
	return
}

// Len returns the number of cached addresses.
func (cache *Cache) Len() int {
	return len(cache.lines)
}

// Reset drops all cached lines and zeroes the counters.
func (cache *Cache) Reset() {
	clear(cache.lines)
	cache.Hits = 0
	cache.Misses = 0
}

// Stats returns a summary of the hit and miss counters.
func (cache *Cache) Stats() string {
	return f("%v - Hits: %d, Misses: %d", cache.Name, cache.Hits, cache.Misses)
}
