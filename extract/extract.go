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

// Package extract converts host values into the generic Avro in-memory
// form against a known field schema, including union disambiguation and
// fixed-size encodings (spec.md §4.2).
package extract

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/marwahaha/affinity/codec"
	"github.com/marwahaha/affinity/descriptor"
	"github.com/marwahaha/affinity/wire"
)

// Extract converts value (of Go shape described by d) into the generic
// Avro form against candidates, the member schemas Extract is allowed to
// resolve to — length 1 outside a union, length >=2 inside one. The wire
// library resolves which union branch a returned value belongs to via its
// own Schema.Validate when the caller hands the value to a DatumWriter, so
// Extract's only job for a union is to shape the value correctly for
// exactly one candidate and let the value's own shape make that
// unambiguous.
func Extract(value interface{}, d descriptor.Descriptor, candidates []wire.Schema) (interface{}, error) {
	if len(candidates) == 0 {
		return nil, codec.NewConfigError(codec.ErrUnsupportedDescriptor, "<field>", "no candidate schemas supplied")
	}

	if value == nil {
		if s := findByType(candidates, wire.Null); s != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("avro codec: nil value has no null candidate among %d schemas", len(candidates))
	}

	switch t := d.(type) {
	case descriptor.PrimitiveDescriptor:
		return extractPrimitive(value, t.Prim)

	case descriptor.OptionDescriptor:
		elemSchema := findByElemType(candidates, t.Elem)
		if elemSchema == nil {
			return nil, fmt.Errorf("avro codec: option has no matching candidate for %s", descriptor.Signature(t.Elem))
		}
		return Extract(value, t.Elem, []wire.Schema{elemSchema})

	case descriptor.ContainerDescriptor:
		return extractContainer(value, t, candidates)

	case descriptor.MapDescriptor:
		return extractMap(value, t, candidates)

	case descriptor.EnumDescriptor:
		schema := findByType(candidates, wire.Enum)
		if schema == nil {
			return nil, fmt.Errorf("avro codec: enum %s has no enum candidate", t.FQN)
		}
		symbol, err := enumSymbol(value)
		if err != nil {
			return nil, err
		}
		return symbol, nil

	case descriptor.NewtypeDescriptor:
		inner := value
		if nv, ok := value.(descriptor.NewtypeValue); ok {
			inner = nv.AvroInner()
		}
		return extractPrimitive(inner, t.Inner)

	case descriptor.FixedDescriptor:
		schema := findByType(candidates, wire.Fixed)
		if schema == nil {
			return nil, fmt.Errorf("avro codec: fixed %s has no fixed candidate", descriptor.Signature(t))
		}
		return extractFixed(value, t.Fixed)

	case descriptor.RecordDescriptor:
		return extractRecord(value, t, candidates)

	case descriptor.SumDescriptor:
		return extractSum(value, t, candidates)

	default:
		return nil, codec.NewConfigError(codec.ErrUnsupportedDescriptor, descriptor.FQN(d), "extract: unsupported descriptor %T", d)
	}
}

func extractPrimitive(value interface{}, p descriptor.Primitive) (interface{}, error) {
	switch p {
	case descriptor.Null:
		return nil, nil
	case descriptor.Bool:
		v, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("avro codec: expected bool, got %T", value)
		}
		return v, nil
	case descriptor.Int32:
		v, ok := value.(int32)
		if !ok {
			return nil, fmt.Errorf("avro codec: expected int32, got %T", value)
		}
		return v, nil
	case descriptor.Int64:
		v, ok := value.(int64)
		if !ok {
			return nil, fmt.Errorf("avro codec: expected int64, got %T", value)
		}
		return v, nil
	case descriptor.Float32:
		v, ok := value.(float32)
		if !ok {
			return nil, fmt.Errorf("avro codec: expected float32, got %T", value)
		}
		return v, nil
	case descriptor.Float64:
		v, ok := value.(float64)
		if !ok {
			return nil, fmt.Errorf("avro codec: expected float64, got %T", value)
		}
		return v, nil
	case descriptor.String:
		v, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("avro codec: expected string, got %T", value)
		}
		return v, nil
	case descriptor.Bytes:
		v, ok := value.([]byte)
		if !ok {
			return nil, fmt.Errorf("avro codec: expected []byte, got %T", value)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("avro codec: unknown primitive tag %v", p)
	}
}

func extractContainer(value interface{}, c descriptor.ContainerDescriptor, candidates []wire.Schema) (interface{}, error) {
	schema := findByType(candidates, wire.Array)
	if schema == nil {
		return nil, fmt.Errorf("avro codec: container has no array candidate")
	}
	items, _ := wire.ArrayItems(schema)
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("avro codec: expected a slice/array for container, got %T", value)
	}
	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem, err := Extract(rv.Index(i).Interface(), c.Elem, []wire.Schema{items})
		if err != nil {
			return nil, err
		}
		out[i] = elem
	}
	return out, nil
}

func extractMap(value interface{}, m descriptor.MapDescriptor, candidates []wire.Schema) (interface{}, error) {
	schema := findByType(candidates, wire.Map)
	if schema == nil {
		return nil, fmt.Errorf("avro codec: map has no map candidate")
	}
	values, _ := wire.MapValues(schema)
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("avro codec: expected a map, got %T", value)
	}
	out := make(map[string]interface{}, rv.Len())
	for _, key := range rv.MapKeys() {
		k, ok := key.Interface().(string)
		if !ok {
			return nil, fmt.Errorf("avro codec: map keys must be strings, got %T", key.Interface())
		}
		v, err := Extract(rv.MapIndex(key).Interface(), m.Value, []wire.Schema{values})
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func extractRecord(value interface{}, r descriptor.RecordDescriptor, candidates []wire.Schema) (interface{}, error) {
	schema := findByType(candidates, wire.Record)
	if schema == nil {
		return nil, fmt.Errorf("avro codec: record %s has no record candidate", r.FQN)
	}
	getter, ok := value.(descriptor.FieldGetter)
	if !ok {
		return nil, fmt.Errorf("avro codec: %T does not implement descriptor.FieldGetter, required for record %s", value, r.FQN)
	}
	fields, _ := wire.RecordFields(schema)
	if len(fields) != len(r.Fields) {
		return nil, codec.NewConfigError(codec.ErrArityMismatch, r.FQN, "descriptor has %d fields, schema has %d", len(r.Fields), len(fields))
	}
	rec := wire.NewGenericRecord(schema)
	for _, f := range r.Fields {
		sf := fields[f.Position]
		fieldCandidates, err := fieldCandidates(sf, f)
		if err != nil {
			return nil, err
		}
		fv := getter.AvroField(f.Position)
		fieldType := f.Type
		if f.Fixed != nil {
			fieldType = descriptor.FixedDescriptor{Fixed: *f.Fixed}
		}
		gv, err := Extract(fv, fieldType, fieldCandidates)
		if err != nil {
			return nil, fmt.Errorf("avro codec: record %s field %s: %w", r.FQN, f.Name, err)
		}
		rec.Set(sf.Name, gv)
	}
	return rec, nil
}

// fieldCandidates resolves the candidate schema(s) extraction is allowed
// to produce a value for: a Fixed annotation (spec.md §3) makes no
// difference here since the schema field's declared type already carries
// the fixed (or union-of-fixed) schema inference produced for it.
func fieldCandidates(sf *wire.SchemaField, f descriptor.Field) ([]wire.Schema, error) {
	if members, ok := wire.UnionMembers(sf.Type); ok {
		return members, nil
	}
	return []wire.Schema{sf.Type}, nil
}

func extractSum(value interface{}, s descriptor.SumDescriptor, candidates []wire.Schema) (interface{}, error) {
	if opt, ok := s.IsOptionShaped(); ok {
		return Extract(value, descriptor.OptionDescriptor{Elem: opt}, candidates)
	}
	sv, ok := value.(descriptor.SumValue)
	if !ok {
		return nil, fmt.Errorf("avro codec: %T does not implement descriptor.SumValue, required for sum %s", value, s.FQN)
	}
	fqn, inner := sv.AvroVariant()
	var variant *descriptor.Variant
	for i := range s.Variants {
		if s.Variants[i].Name() == fqn {
			variant = &s.Variants[i]
			break
		}
	}
	if variant == nil {
		return nil, fmt.Errorf("avro codec: sum %s has no variant named %s", s.FQN, fqn)
	}
	schema := findByName(candidates, fqn)
	if schema == nil {
		return nil, fmt.Errorf("avro codec: sum %s union has no member named %s", s.FQN, fqn)
	}
	return Extract(inner, variant.Type, []wire.Schema{schema})
}

func enumSymbol(value interface{}) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	if ev, ok := value.(descriptor.EnumValue); ok {
		return ev.AvroSymbol(), nil
	}
	return "", fmt.Errorf("avro codec: %T is not a valid enum value (need string or descriptor.EnumValue)", value)
}

func extractFixed(value interface{}, fx descriptor.Fixed) ([]byte, error) {
	switch fx.Logical {
	case "uuid":
		switch v := value.(type) {
		case uuid.UUID:
			b := v
			return b[:], nil
		case [16]byte:
			return v[:], nil
		default:
			return nil, fmt.Errorf("avro codec: fixed uuid expects uuid.UUID, got %T", value)
		}
	case "int":
		v, ok := value.(int32)
		if !ok {
			return nil, fmt.Errorf("avro codec: fixed int expects int32, got %T", value)
		}
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(v))
		return buf, nil
	case "long":
		v, ok := value.(int64)
		if !ok {
			return nil, fmt.Errorf("avro codec: fixed long expects int64, got %T", value)
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(v))
		return buf, nil
	case "string":
		v, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("avro codec: fixed string expects string, got %T", value)
		}
		return padString(v, fx.Size)
	default:
		switch v := value.(type) {
		case []byte:
			if len(v) != fx.Size {
				return nil, fmt.Errorf("avro codec: fixed value has %d bytes, schema declares %d", len(v), fx.Size)
			}
			return v, nil
		case string:
			return padString(v, fx.Size)
		default:
			return nil, fmt.Errorf("avro codec: fixed value expects []byte or string, got %T", value)
		}
	}
}

func padString(s string, size int) ([]byte, error) {
	b := []byte(s)
	if len(b) > size {
		return nil, fmt.Errorf("avro codec: string %q exceeds fixed size %d", s, size)
	}
	out := make([]byte, size)
	copy(out, b)
	return out, nil
}

func findByType(candidates []wire.Schema, t int) wire.Schema {
	for _, c := range candidates {
		if c.Type() == t {
			return c
		}
	}
	return nil
}

func findByName(candidates []wire.Schema, name string) wire.Schema {
	for _, c := range candidates {
		if named, ok := c.(wire.NamedSchema); ok && named.GetName() == name {
			return c
		}
	}
	return nil
}

// findByElemType picks, among candidates, the schema whose top-level Avro
// type matches what elem's descriptor would itself infer to — used to
// resolve an Option's non-null member without re-running inference.
func findByElemType(candidates []wire.Schema, elem descriptor.Descriptor) wire.Schema {
	want := topLevelType(elem)
	for _, c := range candidates {
		if c.Type() == want {
			if name := descriptor.FQN(elem); name != "" {
				if named, ok := c.(wire.NamedSchema); ok && named.GetName() != name {
					continue
				}
			}
			return c
		}
	}
	return nil
}

func topLevelType(d descriptor.Descriptor) int {
	switch t := d.(type) {
	case descriptor.PrimitiveDescriptor:
		switch t.Prim {
		case descriptor.Bool:
			return wire.Boolean
		case descriptor.Int32:
			return wire.Int
		case descriptor.Int64:
			return wire.Long
		case descriptor.Float32:
			return wire.Float
		case descriptor.Float64:
			return wire.Double
		case descriptor.String:
			return wire.String
		case descriptor.Bytes:
			return wire.Bytes
		default:
			return wire.Null
		}
	case descriptor.ContainerDescriptor:
		return wire.Array
	case descriptor.MapDescriptor:
		return wire.Map
	case descriptor.EnumDescriptor:
		return wire.Enum
	case descriptor.RecordDescriptor:
		return wire.Record
	case descriptor.SumDescriptor:
		return wire.Union
	case descriptor.FixedDescriptor:
		return wire.Fixed
	case descriptor.NewtypeDescriptor:
		return topLevelType(descriptor.PrimitiveDescriptor{Prim: t.Inner})
	case descriptor.OptionDescriptor:
		return wire.Union
	default:
		return wire.Null
	}
}
