/**
 * Copyright 2022 Confluent Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package memo is the Cache Layer: thread-safe, grow-only memoization for
// every pure function the rest of the codec computes repeatedly (schema
// inference, reading helpers, the projector). spec.md §4.5 describes
// these as thread-local caches; Go has no first-class thread-local storage,
// so per the codec's own design notes (§9) they are implemented here as
// concurrency-safe maps keyed by a pure function of their input instead —
// suppliers are referentially transparent, so a racing double-populate on a
// cache miss is harmless.
package memo

import "sync"

// Map is a generic grow-only memoizing cache keyed by K. It is never
// invalidated: correctness of callers depends on the same standing
// assumption spec.md §3 states for the rest of the codec, that host type
// identity is stable for the process lifetime.
type Map[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// NewMap returns an empty Map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{entries: make(map[K]V)}
}

// Get returns the cached value for key, if any.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

// Put unconditionally installs value for key.
func (m *Map[K, V]) Put(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

// GetOrCompute returns the cached value for key, computing and caching it
// via supplier on a miss. supplier must be referentially transparent: on a
// concurrent miss from two goroutines, both may run supplier and only one
// result wins the race into the map, which is harmless exactly because
// supplier is pure.
func (m *Map[K, V]) GetOrCompute(key K, supplier func() (V, error)) (V, error) {
	m.mu.RLock()
	v, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		return v, nil
	}
	v, err := supplier()
	if err != nil {
		var zero V
		return zero, err
	}
	m.mu.Lock()
	m.entries[key] = v
	m.mu.Unlock()
	return v, nil
}

// Len reports the number of entries currently cached, chiefly for tests.
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
