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

package memo

import (
	"reflect"

	"github.com/marwahaha/affinity/descriptor"
	"github.com/marwahaha/affinity/wire"
)

// Caches bundles the eight caches spec.md §4.5 names. A handful are kept
// type-erased (interface{} value) because their natural value type
// (UnionReader closures, container coercers, field-accessor tables, cached
// Projectors) lives in a package that itself imports memo — read and
// project — so memo cannot name those types without an import cycle.
// Callers in those packages type-assert on retrieval; suppliers passed to
// GetOrCompute are referentially transparent, so a type mismatch can only
// be a programmer error, never a data race.
type Caches struct {
	// Mirrors is reflect2 type string -> host-reflection handle, populated
	// only for the value-based façade entry point (InferSchema(value)),
	// which derives an fqn from the cached reflect.Type and looks up a
	// descriptor registered under that name.
	Mirrors *Map[string, reflect.Type]

	// Descriptors is fqn -> Type Descriptor. descriptor.Registry already
	// implements this cache's exact contract (lazy population is the
	// caller's responsibility at registration time, not on miss, since a
	// descriptor has no pure supplier function — it is host-authored).
	Descriptors *descriptor.Registry

	// Constructors is fqn -> Constructor, a secondary index over
	// Descriptors kept for components that only need the constructor and
	// not the whole descriptor.
	Constructors *Map[string, descriptor.Constructor]

	// FieldAccessors is (record full name, schema string form) -> an
	// opaque ordered field-accessor table (type-asserted by `read` to
	// []*wire.SchemaField: the schema's own fields, validated against the
	// descriptor's field count).
	FieldAccessors *Map[string, interface{}]

	// Schemas is typeDescriptor (by structural signature) -> inferred
	// Schema, the memoization point for schema inference (spec.md §4.1).
	Schemas *Map[string, wire.Schema]

	// UnionReaders is typeDescriptor -> opaque union-member resolver
	// closure (type-asserted by `read`).
	UnionReaders *Map[string, interface{}]

	// Coercers is container Shape -> opaque container-coercer closure
	// (type-asserted by `read`).
	Coercers *Map[string, interface{}]

	// Projectors is (writerSchema, readerSchema) -> opaque cached
	// Projector (type-asserted by `project`).
	Projectors *Map[string, interface{}]
}

// NewCaches returns an empty Caches bundle with its own private Registry.
// Most callers share one Caches (and therefore one Registry) across the
// lifetime of a process; per-goroutine isolation is unnecessary in Go
// because every map here is already concurrency-safe (see package doc).
func NewCaches() *Caches {
	return &Caches{
		Mirrors:        NewMap[string, reflect.Type](),
		Descriptors:    descriptor.NewRegistry(),
		Constructors:   NewMap[string, descriptor.Constructor](),
		FieldAccessors: NewMap[string, interface{}](),
		Schemas:        NewMap[string, wire.Schema](),
		UnionReaders:   NewMap[string, interface{}](),
		Coercers:       NewMap[string, interface{}](),
		Projectors:     NewMap[string, interface{}](),
	}
}

// SchemaKey builds the identity key for a (writerSchema, readerSchema)
// pair used by the Projectors cache; readerSchema may be nil.
func SchemaKey(writer, reader wire.Schema) string {
	if reader == nil {
		return writer.String() + "|<generic>"
	}
	return writer.String() + "|" + reader.String()
}
