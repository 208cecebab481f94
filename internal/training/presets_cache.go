package training

import (
	"github.com/coocood/freecache"
)

const (
	presetsCacheSize       = 1024 * 1024
	presetsCacheTTLSeconds = 5 * 60
)

var presetsCacheKey = []byte("exercise-presets")

// presetsCache keeps the marshalled presets catalogue in memory for a
// few minutes. The catalogue is seeded data and changes rarely.
type presetsCache struct {
	cache *freecache.Cache
}

func newPresetsCache() *presetsCache {
	return &presetsCache{
		cache: freecache.NewCache(presetsCacheSize),
	}
}

func (pc *presetsCache) Get() ([]byte, bool) {
	presetsJson, err := pc.cache.Get(presetsCacheKey)
	if err != nil {
		// freecache returns ErrNotFound for both missing and expired
		return nil, false
	}
	return presetsJson, true
}

func (pc *presetsCache) Set(presetsJson []byte) {
	// an entry too large for the cache is simply not cached
	_ = pc.cache.Set(presetsCacheKey, presetsJson, presetsCacheTTLSeconds)
}
