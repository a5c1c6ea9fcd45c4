// Package cache opens the optional Redis client used as a read-through cache
// for autocomplete suggestions. Redis is never required: a nil client simply
// disables caching.
package cache

import (
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Redis is the shared client, nil when no cache is configured.
var Redis *redis.Client

// Connect initialises the shared client from the environment.
func Connect() {
	Redis = OpenFromEnv()
}

// OpenFromEnv builds a Redis client from REDIS_HOST / REDIS_PORT /
// REDIS_PASS / REDIS_DB. Returns nil when REDIS_HOST is unset.
func OpenFromEnv() *redis.Client {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		return nil
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			db = n
		}
	}
	return redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASS"),
		DB:       db,
	})
}
