package cache

import (
	"log"
	"time"
)

// Store is the small cache surface consumed by read-mostly services.
// The redis-backed implementation wraps the package client; callers may
// pass nil to disable caching entirely.
type Store interface {
	Get(key string) (string, bool)
	Set(key string, value string, ttl time.Duration)
	Delete(key string)
}

type redisStore struct{}

// NewStore returns a Store backed by the shared Redis client.
func NewStore() Store {
	return redisStore{}
}

func (redisStore) Get(key string) (string, bool) {
	val, err := Get(key)
	if err != nil {
		return "", false
	}
	return val, true
}

func (redisStore) Set(key, value string, ttl time.Duration) {
	if err := Set(key, value, ttl); err != nil {
		log.Printf("cache set %s failed: %v", key, err)
	}
}

func (redisStore) Delete(key string) {
	if err := Delete(key); err != nil {
		log.Printf("cache delete %s failed: %v", key, err)
	}
}
