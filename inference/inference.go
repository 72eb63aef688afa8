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

// Package inference translates a Type Descriptor into an Avro Schema
// (spec.md §4.1), memoized on descriptor identity.
package inference

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/marwahaha/affinity/codec"
	"github.com/marwahaha/affinity/descriptor"
	"github.com/marwahaha/affinity/extract"
	"github.com/marwahaha/affinity/memo"
	"github.com/marwahaha/affinity/wire"
)

// Infer returns the Avro Schema for d, memoized by d's structural
// signature in caches.Schemas.
func Infer(d descriptor.Descriptor, caches *memo.Caches) (wire.Schema, error) {
	return caches.Schemas.GetOrCompute(descriptor.Signature(d), func() (wire.Schema, error) {
		return infer(d, caches)
	})
}

func infer(d descriptor.Descriptor, caches *memo.Caches) (wire.Schema, error) {
	switch t := d.(type) {
	case descriptor.PrimitiveDescriptor:
		return inferPrimitive(t.Prim, nil)

	case descriptor.OptionDescriptor:
		inner, err := Infer(t.Elem, caches)
		if err != nil {
			return nil, err
		}
		return wire.NewUnion([]wire.Schema{wire.NewNull(nil), inner}), nil

	case descriptor.MapDescriptor:
		v, err := Infer(t.Value, caches)
		if err != nil {
			return nil, err
		}
		return wire.NewMapSchema(v), nil

	case descriptor.ContainerDescriptor:
		elem, err := Infer(t.Elem, caches)
		if err != nil {
			return nil, err
		}
		return wire.NewArray(elem), nil

	case descriptor.EnumDescriptor:
		return wire.NewEnum(enumName(t.FQN), namespaceOf(t.FQN), t.Symbols, t.Default), nil

	case descriptor.NewtypeDescriptor:
		inner, err := inferPrimitive(t.Inner, wire.Props{"logicalType": t.FQN})
		if err != nil {
			return nil, err
		}
		return inner, nil

	case descriptor.FixedDescriptor:
		return inferFixed(t.Fixed, t.Fixed.Name)

	case descriptor.SumDescriptor:
		return inferSum(t, caches)

	case descriptor.RecordDescriptor:
		return inferRecord(t, caches)

	default:
		return nil, codec.NewConfigError(codec.ErrUnsupportedDescriptor, descriptor.FQN(d), "inference: unsupported descriptor %T", d)
	}
}

func inferPrimitive(p descriptor.Primitive, props wire.Props) (wire.Schema, error) {
	switch p {
	case descriptor.Null:
		return wire.NewNull(props), nil
	case descriptor.Bool:
		return wire.NewBoolean(props), nil
	case descriptor.Int32:
		return wire.NewInt(props), nil
	case descriptor.Int64:
		return wire.NewLong(props), nil
	case descriptor.Float32:
		return wire.NewFloat(props), nil
	case descriptor.Float64:
		return wire.NewDouble(props), nil
	case descriptor.String:
		return wire.NewString(props), nil
	case descriptor.Bytes:
		return wire.NewBytes(props), nil
	default:
		return nil, codec.NewConfigError(codec.ErrUnsupportedDescriptor, "", "inference: unknown primitive tag %v", p)
	}
}

func inferFixed(fx descriptor.Fixed, subject string) (wire.Schema, error) {
	name := fx.Name
	switch fx.Logical {
	case "int":
		if name == "" {
			name = "IntFixed"
		}
		return wire.NewFixed(name, 4, "int"), nil
	case "long":
		if name == "" {
			name = "LongFixed"
		}
		return wire.NewFixed(name, 8, "long"), nil
	case "uuid":
		if name == "" {
			name = "UUID"
		}
		return wire.NewFixed(name, 16, "uuid"), nil
	case "string":
		if fx.Size <= 0 {
			return nil, codec.NewConfigError(codec.ErrMissingFixedSize, subject, "fixed string annotation requires an explicit size")
		}
		if name == "" {
			name = "StringFixed"
		}
		return wire.NewFixed(name, fx.Size, "string"), nil
	default:
		if fx.Size <= 0 {
			return nil, codec.NewConfigError(codec.ErrMissingFixedSize, subject, "fixed byte annotation requires an explicit size")
		}
		if name == "" {
			name = "Fixed"
		}
		return wire.NewFixed(name, fx.Size, ""), nil
	}
}

func inferSum(s descriptor.SumDescriptor, caches *memo.Caches) (wire.Schema, error) {
	if opt, ok := s.IsOptionShaped(); ok {
		return Infer(descriptor.OptionDescriptor{Elem: opt}, caches)
	}
	if err := s.Validate(); err != nil {
		code := codec.ErrDuplicateUnionIndex
		for _, v := range s.Variants {
			if v.UnionIndex < 0 {
				code = codec.ErrInvalidUnionIndex
				break
			}
		}
		return nil, codec.NewConfigError(code, s.FQN, "%s", err.Error())
	}
	variants := append([]descriptor.Variant(nil), s.Variants...)
	sort.Slice(variants, func(i, j int) bool { return variants[i].UnionIndex < variants[j].UnionIndex })
	members := make([]wire.Schema, len(variants))
	for i, v := range variants {
		m, err := Infer(v.Type, caches)
		if err != nil {
			return nil, err
		}
		members[i] = m
	}
	return wire.NewUnion(members), nil
}

func inferRecord(r descriptor.RecordDescriptor, caches *memo.Caches) (wire.Schema, error) {
	fields := make([]*wire.SchemaField, len(r.Fields))
	for i, f := range r.Fields {
		if f.Position != i {
			return nil, codec.NewConfigError(codec.ErrFieldTypeMismatch, r.FQN, "field %s declares position %d at index %d", f.Name, f.Position, i)
		}
		fieldSchema, err := fieldSchema(f, caches)
		if err != nil {
			return nil, err
		}
		hasDefault, def, newSchema, err := adaptDefault(f, fieldSchema)
		if err != nil {
			return nil, err
		}
		fields[i] = wire.NewField(f.Name, newSchema, f.Doc, f.Aliases, hasDefault, def)
	}
	return wire.NewRecord(simpleName(r.FQN), namespaceOf(r.FQN), "", fields), nil
}

func fieldSchema(f descriptor.Field, caches *memo.Caches) (wire.Schema, error) {
	if f.Fixed != nil {
		return inferFixed(*f.Fixed, f.Name)
	}
	return Infer(f.Type, caches)
}

// adaptDefault implements spec.md §4.1's default-value adaptation: when a
// field carries a default producer and its field schema is a union, the
// Avro spec requires the default literal's schema to be the union's first
// member, so the union is reordered to put the matching member first.
// Empty map/list defaults select the map/array branch; other defaults are
// matched against the union members by the default value's own Go shape.
func adaptDefault(f descriptor.Field, fieldSchema wire.Schema) (hasDefault bool, def interface{}, schema wire.Schema, err error) {
	if f.Default == nil {
		return false, nil, fieldSchema, nil
	}
	dv := f.Default()
	members, isUnion := wire.UnionMembers(fieldSchema)
	finalSchema := fieldSchema
	if isUnion {
		idx := matchMember(members, dv)
		if idx < 0 {
			return false, nil, nil, fmt.Errorf("avro codec: record field %s: default value %v matches no union member", f.Name, dv)
		}
		if idx != 0 {
			reordered := make([]wire.Schema, 0, len(members))
			reordered = append(reordered, members[idx])
			reordered = append(reordered, members[:idx]...)
			reordered = append(reordered, members[idx+1:]...)
			finalSchema = wire.NewUnion(reordered)
		}
	}
	candidates := []wire.Schema{finalSchema}
	if members, ok := wire.UnionMembers(finalSchema); ok {
		candidates = members
	}
	fieldType := f.Type
	if f.Fixed != nil {
		fieldType = descriptor.FixedDescriptor{Fixed: *f.Fixed}
	}
	gv, err := extract.Extract(dv, fieldType, candidates)
	if err != nil {
		return false, nil, nil, fmt.Errorf("avro codec: record field %s default: %w", f.Name, err)
	}
	return true, gv, finalSchema, nil
}

// matchMember finds the union member index that dv's Go shape resolves
// to. []byte resolves to the bytes member (not array), ahead of the
// general slice/array -> array-member rule.
func matchMember(members []wire.Schema, dv interface{}) int {
	if dv == nil {
		return indexOfType(members, wire.Null)
	}
	if _, ok := dv.([]byte); ok {
		return indexOfType(members, wire.Bytes)
	}
	rv := reflect.ValueOf(dv)
	switch rv.Kind() {
	case reflect.Map:
		return indexOfType(members, wire.Map)
	case reflect.Slice, reflect.Array:
		return indexOfType(members, wire.Array)
	case reflect.String:
		return indexOfType(members, wire.String)
	case reflect.Bool:
		return indexOfType(members, wire.Boolean)
	case reflect.Int32:
		return indexOfType(members, wire.Int)
	case reflect.Int64:
		return indexOfType(members, wire.Long)
	case reflect.Float32:
		return indexOfType(members, wire.Float)
	case reflect.Float64:
		return indexOfType(members, wire.Double)
	case reflect.Struct:
		return indexOfType(members, wire.Record)
	default:
		return -1
	}
}

func indexOfType(members []wire.Schema, t int) int {
	for i, m := range members {
		if m.Type() == t {
			return i
		}
	}
	return -1
}

func namespaceOf(fqn string) string {
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return ""
	}
	return fqn[:idx]
}

func simpleName(fqn string) string {
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return fqn
	}
	return fqn[idx+1:]
}

// enumName strips a trailing "Value" suffix from the host enum's simple
// name, matching spec.md §4.1 (hosts that model enums as sealed traits
// with a companion "FooValue" marker type name the marker, not the enum).
func enumName(fqn string) string {
	name := simpleName(fqn)
	if strings.HasSuffix(name, "Value") && len(name) > len("Value") {
		name = strings.TrimSuffix(name, "Value")
	}
	return name
}
