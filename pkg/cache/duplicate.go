// Package cache provides a small TTL-backed duplicate cache. The
// inspector uses it to avoid re-enqueuing the same discovery node for
// dialing on every tick while a previous attempt is still in flight.
package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/sirupsen/logrus"
)

// DuplicateCache remembers keys for a fixed window.
type DuplicateCache[K comparable, V any] struct {
	cache *ttlcache.Cache[K, V]
	log   logrus.FieldLogger
}

// NewDuplicateCache creates a DuplicateCache whose entries expire
// after ttl.
func NewDuplicateCache[K comparable, V any](log logrus.FieldLogger, ttl time.Duration) *DuplicateCache[K, V] {
	return &DuplicateCache[K, V]{
		cache: ttlcache.New(
			ttlcache.WithTTL[K, V](ttl),
		),
		log: log.WithField("component", "cache"),
	}
}

// Start begins the background expiry loop.
func (d *DuplicateCache[K, V]) Start(_ context.Context) error {
	go d.cache.Start()

	d.log.Debug("Cache started")

	return nil
}

// Stop halts the background expiry loop.
func (d *DuplicateCache[K, V]) Stop() error {
	d.cache.Stop()

	d.log.Debug("Cache stopped")

	return nil
}

// Seen reports whether the key is present, inserting it when absent.
func (d *DuplicateCache[K, V]) Seen(key K, value V) bool {
	if d.cache.Get(key, ttlcache.WithDisableTouchOnHit[K, V]()) != nil {
		return true
	}

	d.cache.Set(key, value, ttlcache.DefaultTTL)

	return false
}

// Cache exposes the underlying TTL cache.
func (d *DuplicateCache[K, V]) Cache() *ttlcache.Cache[K, V] {
	return d.cache
}
