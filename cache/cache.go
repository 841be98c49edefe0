// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

// Package cache implements a small get-or-fill cache used to avoid
// repeating expensive lookups (DNS answers, public IP) within a run.
package cache

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	defaultExpire = 10 * time.Minute
	defaultPurge  = time.Minute
)

// Cache provides the in-memory key:value store backing the helpers below.
var Cache = cache.New(defaultExpire, defaultPurge)

// Get returns the value for 'key', calling 'cb' to compute and store it
// (without expiration) on a miss. Errors from 'cb' are never cached.
func Get[T any](key string, cb func() (T, error)) (T, error) {
	return GetWithExpiration[T](key, cb, cache.NoExpiration)
}

// GetWithExpiration returns the value for 'key', calling 'cb' to compute
// and store it with the given expiry on a miss. Errors from 'cb' are
// never cached.
func GetWithExpiration[T any](key string, cb func() (T, error), expire time.Duration) (T, error) {
	if x, found := Cache.Get(key); found {
		return x.(T), nil
	}

	res, err := cb()
	if err == nil {
		Cache.Set(key, res, expire)
	}
	return res, err
}

// Flush drops every cached entry. Used by tests and between scheduled runs.
func Flush() {
	Cache.Flush()
}
