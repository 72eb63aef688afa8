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

// Package read converts a generic Avro in-memory value into a host value,
// driven by a parallel Type Descriptor (spec.md §4.3).
package read

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"

	"github.com/marwahaha/affinity/descriptor"
	"github.com/marwahaha/affinity/memo"
	"github.com/marwahaha/affinity/wire"
)

// Read materializes generic (the decoded Avro form for schema) into a host
// value. d is the Type Descriptor the enclosing context expects back; it
// may be nil when nothing upstream needs it (bare primitives, a fixed
// schema's own logical-type interpretation, enum symbols with no host
// type). For record schemas the target descriptor is always re-resolved
// from the record's own full name via the registry, overriding whatever
// d was passed in, per spec.md §4.3.
func Read(generic interface{}, schema wire.Schema, d descriptor.Descriptor, caches *memo.Caches) (interface{}, error) {
	switch schema.Type() {
	case wire.Null, wire.Boolean, wire.Int, wire.Long, wire.Float, wire.Double, wire.String, wire.Bytes:
		return resolveLogical(schema, generic, caches)
	case wire.Fixed:
		return readFixed(schema, generic)
	case wire.Enum:
		return readEnum(schema, generic, d)
	case wire.Array:
		return readArray(schema, generic, d, caches)
	case wire.Map:
		return readMap(schema, generic, d, caches)
	case wire.Record:
		return readRecord(schema, generic, caches)
	case wire.Union:
		return readUnion(schema, generic, d, caches)
	default:
		return nil, fmt.Errorf("avro codec: illegal top-level Avro type %d", schema.Type())
	}
}

func readRecord(schema wire.Schema, generic interface{}, caches *memo.Caches) (interface{}, error) {
	named, ok := schema.(wire.NamedSchema)
	if !ok {
		return nil, fmt.Errorf("avro codec: record schema has no full name")
	}
	fqn := named.GetName()
	desc, ok := caches.Descriptors.Lookup(fqn)
	if !ok {
		return nil, fmt.Errorf("avro codec: no descriptor registered for record %s", fqn)
	}
	rd, ok := desc.(descriptor.RecordDescriptor)
	if !ok {
		return nil, fmt.Errorf("avro codec: descriptor for %s is not a record descriptor", fqn)
	}
	rec, ok := generic.(wire.GenericRecord)
	if !ok {
		return nil, fmt.Errorf("avro codec: expected a generic record for %s, got %T", fqn, generic)
	}

	accessors, err := fieldAccessors(fqn, schema, rd, caches)
	if err != nil {
		return nil, err
	}

	args := make([]interface{}, len(rd.Fields))
	for i, sf := range accessors {
		rf := rd.Fields[i]
		fieldType := rf.Type
		if rf.Fixed != nil {
			fieldType = descriptor.FixedDescriptor{Fixed: *rf.Fixed}
		}
		val, err := Read(rec.Get(sf.Name), sf.Type, fieldType, caches)
		if err != nil {
			return nil, fmt.Errorf("avro codec: record %s field %s: %w", fqn, sf.Name, err)
		}
		args[rf.Position] = val
	}

	ctor, err := constructorFor(fqn, rd, caches)
	if err != nil {
		return nil, err
	}
	return ctor(args)
}

// fieldAccessors is the memoized (hostClass, schema) -> ordered field table
// spec.md §4.5 names: schema field i corresponds to rd.Fields[i] by the
// RecordDescriptor invariant that its Fields always positionally match its
// own schema's fields, so the cached value is simply that validated,
// ordered wire.SchemaField list, keyed by the record's full name plus the
// specific schema's identity.
func fieldAccessors(fqn string, schema wire.Schema, rd descriptor.RecordDescriptor, caches *memo.Caches) ([]*wire.SchemaField, error) {
	key := fqn + "|" + schema.String()
	cached, err := caches.FieldAccessors.GetOrCompute(key, func() (interface{}, error) {
		fields, _ := wire.RecordFields(schema)
		if len(fields) != len(rd.Fields) {
			return nil, fmt.Errorf("avro codec: record %s has %d descriptor fields but schema has %d", fqn, len(rd.Fields), len(fields))
		}
		return fields, nil
	})
	if err != nil {
		return nil, err
	}
	return cached.([]*wire.SchemaField), nil
}

// constructorFor is the memoized fqn -> Constructor secondary index
// spec.md §4.5 names, so repeat decodes of the same record type look the
// constructor up directly instead of re-deriving it from the full
// RecordDescriptor on every call.
func constructorFor(fqn string, rd descriptor.RecordDescriptor, caches *memo.Caches) (descriptor.Constructor, error) {
	return caches.Constructors.GetOrCompute(fqn, func() (descriptor.Constructor, error) {
		if rd.New == nil {
			return nil, fmt.Errorf("avro codec: record %s has no constructor", fqn)
		}
		return rd.New, nil
	})
}

func readUnion(schema wire.Schema, generic interface{}, d descriptor.Descriptor, caches *memo.Caches) (interface{}, error) {
	members, _ := wire.UnionMembers(schema)

	if opt, ok := optionElem(members, d); ok {
		if generic == nil {
			return nil, nil
		}
		branch, err := resolveMember(caches, d, schema, members, generic)
		if err != nil {
			return nil, err
		}
		return Read(generic, branch, opt, caches)
	}

	branch, err := resolveMember(caches, d, schema, members, generic)
	if err != nil {
		return nil, err
	}
	if generic == nil {
		return nil, nil
	}

	if sd, ok := d.(descriptor.SumDescriptor); ok {
		named, ok := branch.(wire.NamedSchema)
		if !ok {
			return nil, fmt.Errorf("avro codec: sum %s union member has no full name", sd.FQN)
		}
		fqn := named.GetName()
		for i := range sd.Variants {
			if sd.Variants[i].Name() == fqn {
				return Read(generic, branch, sd.Variants[i].Type, caches)
			}
		}
		return nil, fmt.Errorf("avro codec: sum %s has no variant named %s", sd.FQN, fqn)
	}

	// No descriptor supplied: treat the datum as an indexed record and
	// recover the variant's own descriptor by full name, per spec.md
	// §4.3's fallback clause.
	if branch.Type() == wire.Record {
		if named, ok := branch.(wire.NamedSchema); ok {
			if desc, ok := caches.Descriptors.Lookup(named.GetName()); ok {
				return Read(generic, branch, desc, caches)
			}
		}
	}
	return Read(generic, branch, nil, caches)
}

// optionElem reports whether d describes an Option(T) shaped union,
// returning T. A sum whose host descriptor happens to be the
// {None,Some(T)} shape also counts, since spec.md §3 requires it to have
// inferred to the same [null, T] schema shape as a direct Option(T).
func optionElem(members []wire.Schema, d descriptor.Descriptor) (descriptor.Descriptor, bool) {
	if len(members) != 2 {
		return nil, false
	}
	hasNull := false
	for _, m := range members {
		if m.Type() == wire.Null {
			hasNull = true
		}
	}
	if !hasNull {
		return nil, false
	}
	switch t := d.(type) {
	case descriptor.OptionDescriptor:
		return t.Elem, true
	case descriptor.SumDescriptor:
		if elem, ok := t.IsOptionShaped(); ok {
			return elem, true
		}
	}
	return nil, false
}

func resolveMember(caches *memo.Caches, d descriptor.Descriptor, schema wire.Schema, members []wire.Schema, generic interface{}) (wire.Schema, error) {
	key := "unionReader:" + descriptor.Signature(safeDescriptor(d)) + "|" + schema.String()
	v, err := caches.UnionReaders.GetOrCompute(key, func() (interface{}, error) {
		fn := func(g interface{}) (wire.Schema, error) { return matchGenericToMember(members, g) }
		return fn, nil
	})
	if err != nil {
		return nil, err
	}
	resolver := v.(func(interface{}) (wire.Schema, error))
	return resolver(generic)
}

func safeDescriptor(d descriptor.Descriptor) descriptor.Descriptor {
	if d == nil {
		return descriptor.PrimitiveDescriptor{Prim: descriptor.Null}
	}
	return d
}

func matchGenericToMember(members []wire.Schema, generic interface{}) (wire.Schema, error) {
	if generic == nil {
		if m := findByType(members, wire.Null); m != nil {
			return m, nil
		}
		return nil, fmt.Errorf("avro codec: null value has no null union member")
	}
	if rec, ok := generic.(wire.AvroRecord); ok {
		s := rec.Schema()
		if named, ok := s.(wire.NamedSchema); ok {
			if m := findByName(members, named.GetName()); m != nil {
				return m, nil
			}
		}
		if m := findByType(members, s.Type()); m != nil {
			return m, nil
		}
	}
	if m := findByType(members, goKindToAvroType(generic)); m != nil {
		return m, nil
	}
	return nil, fmt.Errorf("avro codec: union has no member matching decoded value of type %T", generic)
}

func goKindToAvroType(v interface{}) int {
	switch v.(type) {
	case bool:
		return wire.Boolean
	case int32:
		return wire.Int
	case int64:
		return wire.Long
	case float32:
		return wire.Float
	case float64:
		return wire.Double
	case string:
		return wire.String
	case []byte:
		return wire.Bytes
	case map[string]interface{}:
		return wire.Map
	case []interface{}:
		return wire.Array
	default:
		return wire.Null
	}
}

func findByType(members []wire.Schema, t int) wire.Schema {
	for _, m := range members {
		if m.Type() == t {
			return m
		}
	}
	return nil
}

func findByName(members []wire.Schema, name string) wire.Schema {
	for _, m := range members {
		if named, ok := m.(wire.NamedSchema); ok && named.GetName() == name {
			return m
		}
	}
	return nil
}

func readEnum(schema wire.Schema, generic interface{}, d descriptor.Descriptor) (interface{}, error) {
	sym, ok := generic.(string)
	if !ok {
		return nil, fmt.Errorf("avro codec: expected an enum symbol string, got %T", generic)
	}
	symbols, defaultSymbol, _ := wire.EnumSymbols(schema)
	known := false
	for _, s := range symbols {
		if s == sym {
			known = true
			break
		}
	}
	if !known {
		if defaultSymbol == "" {
			return nil, fmt.Errorf("avro codec: unknown enum symbol %q and no reader default", sym)
		}
		sym = defaultSymbol
	}
	if ed, ok := d.(descriptor.EnumDescriptor); ok && ed.FromSymbol != nil {
		return ed.FromSymbol(sym)
	}
	return sym, nil
}

func readArray(schema wire.Schema, generic interface{}, d descriptor.Descriptor, caches *memo.Caches) (interface{}, error) {
	items, _ := wire.ArrayItems(schema)
	rv := reflect.ValueOf(generic)
	if generic != nil && rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("avro codec: expected a decoded array, got %T", generic)
	}
	var elemD descriptor.Descriptor
	shape := descriptor.ShapeList
	if cd, ok := d.(descriptor.ContainerDescriptor); ok {
		elemD = cd.Elem
		shape = cd.Shape
	}
	n := 0
	if generic != nil {
		n = rv.Len()
	}
	out := make([]interface{}, n)
	for i := 0; i < n; i++ {
		v, err := Read(rv.Index(i).Interface(), items, elemD, caches)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return coerce(caches, shape, out), nil
}

func coerce(caches *memo.Caches, shape descriptor.Shape, items []interface{}) interface{} {
	key := fmt.Sprintf("coercer:%d", shape)
	v, _ := caches.Coercers.GetOrCompute(key, func() (interface{}, error) {
		fn := func(in []interface{}) interface{} { return coerceShape(shape, in) }
		return fn, nil
	})
	return v.(func([]interface{}) interface{})(items)
}

// coerceShape converts a freshly-decoded array into the container shape
// the descriptor declared (spec.md §4.3). List/Vector/IndexedSeq/Seq all
// present identically as a Go slice; Set deduplicates into a Go map when
// the element type is hashable, falling back to the plain slice otherwise
// (a Set of record-shaped elements has no natural Go map key).
func coerceShape(shape descriptor.Shape, items []interface{}) (result interface{}) {
	if shape != descriptor.ShapeSet {
		return items
	}
	result = items
	defer func() {
		if recover() != nil {
			result = items
		}
	}()
	set := make(map[interface{}]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	result = set
	return
}

func readMap(schema wire.Schema, generic interface{}, d descriptor.Descriptor, caches *memo.Caches) (interface{}, error) {
	values, _ := wire.MapValues(schema)
	var valD descriptor.Descriptor
	if md, ok := d.(descriptor.MapDescriptor); ok {
		valD = md.Value
	}
	rv := reflect.ValueOf(generic)
	out := make(map[string]interface{})
	if generic == nil {
		return out, nil
	}
	if rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("avro codec: expected a decoded map, got %T", generic)
	}
	for _, k := range rv.MapKeys() {
		ks, ok := k.Interface().(string)
		if !ok {
			return nil, fmt.Errorf("avro codec: map key %v is not a string", k.Interface())
		}
		v, err := Read(rv.MapIndex(k).Interface(), values, valD, caches)
		if err != nil {
			return nil, err
		}
		out[ks] = v
	}
	return out, nil
}

func readFixed(schema wire.Schema, generic interface{}) (interface{}, error) {
	b, ok := generic.([]byte)
	if !ok {
		return nil, fmt.Errorf("avro codec: expected fixed bytes, got %T", generic)
	}
	logical, _ := wire.LogicalType(schema)
	switch logical {
	case "uuid":
		if len(b) != 16 {
			return nil, fmt.Errorf("avro codec: fixed uuid must be 16 bytes, got %d", len(b))
		}
		var u uuid.UUID
		copy(u[:], b)
		return u, nil
	case "int":
		if len(b) != 4 {
			return nil, fmt.Errorf("avro codec: fixed int must be 4 bytes, got %d", len(b))
		}
		return int32(binary.BigEndian.Uint32(b)), nil
	case "long":
		if len(b) != 8 {
			return nil, fmt.Errorf("avro codec: fixed long must be 8 bytes, got %d", len(b))
		}
		return int64(binary.BigEndian.Uint64(b)), nil
	case "string":
		return strings.TrimRight(string(b), "\x00"), nil
	default:
		return b, nil
	}
}

// resolveLogical handles Newtype decoding: an unknown logicalType fqn is
// not an error (spec.md §7.4) — the underlying primitive is returned
// unchanged, preserving forward compatibility when a writer-side newtype
// doesn't exist on the reader. A registered newtype with a nil constructor
// also yields the raw value; an error returned by the constructor is
// passed to the caller. NewtypeDescriptor wraps primitives only, so this
// is the only newtype fallback: record schemas go through readRecord,
// which returns an error when no descriptor or constructor is registered.
func resolveLogical(schema wire.Schema, raw interface{}, caches *memo.Caches) (interface{}, error) {
	fqn, ok := wire.LogicalType(schema)
	if !ok || fqn == "" {
		return raw, nil
	}
	switch fqn {
	case "int", "long", "string", "uuid":
		return raw, nil
	}
	desc, ok := caches.Descriptors.Lookup(fqn)
	if !ok {
		return raw, nil
	}
	nt, ok := desc.(descriptor.NewtypeDescriptor)
	if !ok || nt.New == nil {
		return raw, nil
	}
	v, err := nt.New(raw)
	if err != nil {
		return nil, fmt.Errorf("avro codec: newtype %s: %w", fqn, err)
	}
	return v, nil
}
