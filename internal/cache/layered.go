package cache

import (
	"errors"
	"time"
)

// LayeredCache reads through an ordered list of caches, fastest first
type LayeredCache struct {
	layers []Cache
}

// NewLayeredCache creates a cache over the given layers
func NewLayeredCache(layers ...Cache) *LayeredCache {
	return &LayeredCache{layers: layers}
}

// Get checks each layer in order and promotes a hit into the faster layers
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	for i, layer := range c.layers {
		val, found := layer.Get(key)
		if !found {
			continue
		}
		for _, faster := range c.layers[:i] {
			_ = faster.Set(key, val, 0) // default TTL
		}
		return val, true
	}
	return nil, false
}

// Set stores a value in every layer
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	var errs []error
	for _, layer := range c.layers {
		if err := layer.Set(key, value, ttl); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Delete removes a value from every layer
func (c *LayeredCache) Delete(key string) error {
	var errs []error
	for _, layer := range c.layers {
		if err := layer.Delete(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear empties every layer
func (c *LayeredCache) Clear() error {
	var errs []error
	for _, layer := range c.layers {
		if err := layer.Clear(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
