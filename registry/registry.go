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

// Package registry is the schema registry collaborator boundary spec.md
// §1 and §9 describe: the codec neither stores nor transmits schemas
// itself; it registers (hostClass, schema, knownPriorSchemas) triples with
// a registry and receives a stable integer id back, and enumerates
// registered (id, schema) pairs. This package trims
// encoding/avro/schema_registry_client.go's SchemaRegistryClient contract
// down to exactly that shape and supplies an in-memory implementation for
// tests and for callers with no remote registry.
package registry

import (
	"fmt"
	"sync"

	"github.com/marwahaha/affinity/wire"
)

// Entry is one registered (id, schema) pair, keyed additionally by the
// host class full name it was registered under.
type Entry struct {
	ID     int
	Class  string
	Schema wire.Schema
}

// Registry registers and enumerates (hostClass, schema) pairs under a
// stable integer id. Implementations are free to back this with an HTTP
// Confluent Schema Registry client, a flat file, or (as InMemory does) a
// process-local map; the codec itself is indifferent to id's provenance.
type Registry interface {
	// Register assigns (or returns the existing) id for schema under
	// hostClass. known lists schemas already known to be compatible
	// predecessors of schema, for registries that enforce a compatibility
	// policy; an in-memory registry ignores it.
	Register(hostClass string, schema wire.Schema, known []wire.Schema) (int, error)

	// Lookup returns the schema registered under id.
	Lookup(id int) (wire.Schema, bool)

	// Pairs enumerates every (id, schema) pair registered for hostClass,
	// ascending by id.
	Pairs(hostClass string) []Entry
}

// InMemory is a process-local Registry: every (hostClass, schema) pair
// seen gets its own id, in registration order, starting at 1. Two
// registrations of the same hostClass with schemas that stringify
// identically return the same id instead of minting a new one.
type InMemory struct {
	mu      sync.RWMutex
	nextID  int
	byID    map[int]Entry
	bySig   map[string]int // hostClass + "|" + schema.String() -> id
	classes map[string][]int
}

// NewInMemory returns an empty in-memory registry.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[int]Entry),
		bySig:   make(map[string]int),
		classes: make(map[string][]int),
	}
}

func (r *InMemory) Register(hostClass string, schema wire.Schema, known []wire.Schema) (int, error) {
	if schema == nil {
		return 0, fmt.Errorf("avro codec: registry: cannot register a nil schema for %s", hostClass)
	}
	sig := hostClass + "|" + schema.String()

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.bySig[sig]; ok {
		return id, nil
	}
	r.nextID++
	id := r.nextID
	r.byID[id] = Entry{ID: id, Class: hostClass, Schema: schema}
	r.bySig[sig] = id
	r.classes[hostClass] = append(r.classes[hostClass], id)
	return id, nil
}

func (r *InMemory) Lookup(id int) (wire.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return e.Schema, true
}

func (r *InMemory) Pairs(hostClass string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.classes[hostClass]
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = r.byID[id]
	}
	return out
}
