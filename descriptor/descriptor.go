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

// Package descriptor is the Type Descriptor Layer: a host-side description
// of the data model that schema inference, extraction and reading are all
// driven by. Descriptors are tagged unions built once, per the codec's
// design notes, and are immutable for the process lifetime.
package descriptor

import "fmt"

// Primitive is one of the primitive host scalar tags.
type Primitive int

const (
	Bool Primitive = iota
	Int32
	Int64
	Float32
	Float64
	String
	Bytes
	Null
)

func (p Primitive) String() string {
	switch p {
	case Bool:
		return "bool"
	case Int32:
		return "i32"
	case Int64:
		return "i64"
	case Float32:
		return "f32"
	case Float64:
		return "f64"
	case String:
		return "string"
	case Bytes:
		return "bytes"
	case Null:
		return "null"
	default:
		return "unknown"
	}
}

// Shape distinguishes the host container flavor behind a List/Set/Vector/
// IndexedSeq/Seq descriptor; all five encode to the same Avro array schema,
// but Readers coerce the decoded generic array back to the declared shape.
type Shape int

const (
	ShapeList Shape = iota
	ShapeSet
	ShapeVector
	ShapeIndexedSeq
	ShapeSeq
)

// Descriptor is the sealed set of Type Descriptor variants. Concrete types
// below are the only implementations; dispatch elsewhere in the codec uses
// a type switch on the concrete type, not this marker method.
type Descriptor interface {
	descriptor()
}

// PrimitiveDescriptor describes a bare primitive scalar.
type PrimitiveDescriptor struct {
	Prim Primitive
}

func (PrimitiveDescriptor) descriptor() {}

// OptionDescriptor describes a nullable wrapper around an inner descriptor.
type OptionDescriptor struct {
	Elem Descriptor
}

func (OptionDescriptor) descriptor() {}

// ContainerDescriptor describes one of List/Set/Vector/IndexedSeq/Seq.
type ContainerDescriptor struct {
	Shape Shape
	Elem  Descriptor
}

func (ContainerDescriptor) descriptor() {}

// MapDescriptor describes a Map(string, V); Avro maps always have string
// keys, so only the value descriptor is carried.
type MapDescriptor struct {
	Value Descriptor
}

func (MapDescriptor) descriptor() {}

// EnumDescriptor describes a closed, ordered set of symbol names.
type EnumDescriptor struct {
	FQN     string
	Symbols []string
	// Default is the Avro 1.9+ reader-default symbol (SPEC_FULL.md §4).
	// Infer writes it into the enum schema's "default" property; Readers
	// then check a decoded symbol against the reader schema's symbols and
	// fall back to that schema's default. An enum schema with no default
	// makes an unknown writer symbol a decoding error.
	Default string
	// FromSymbol reconstructs a host enum value from its Avro symbol
	// name. A nil FromSymbol means the host enum has no dedicated type;
	// Readers then return the symbol name itself as a Go string.
	FromSymbol func(symbol string) (interface{}, error)
}

func (EnumDescriptor) descriptor() {}

// EnumValue is implemented by a host enum value whose Go representation is
// not a bare string, so Extractors can recover its Avro symbol name.
type EnumValue interface {
	AvroSymbol() string
}

// SumValue is implemented by a host value that is an instance of a Sum: it
// reports which variant it is by full name, and the value to extract
// against that variant's own descriptor (usually itself, when the host
// variant type is record-shaped and implements FieldGetter directly).
type SumValue interface {
	AvroVariant() (fqn string, value interface{})
}

// NewtypeDescriptor describes a labeled wrapper around a single primitive
// that round-trips as that primitive with a logicalType hint carrying FQN.
type NewtypeDescriptor struct {
	FQN   string
	Inner Primitive
	// New reconstructs the newtype from its inner primitive value. A nil
	// New means the host type isn't available to the reading side; the
	// Reader falls back silently to the inner value (spec.md §3).
	New func(inner interface{}) (interface{}, error)
}

func (NewtypeDescriptor) descriptor() {}

// Fixed describes a fixed-size byte encoding, optionally carrying a
// logical-type tag from {int, long, string, uuid}.
type Fixed struct {
	Size    int
	Logical string // "", "int", "long", "string", "uuid"
	// Name is the Avro fixed schema's name (Avro fixed types, like
	// records and enums, are named). Empty means Infer uses a default
	// name for the logical tag: IntFixed, LongFixed, UUID, StringFixed,
	// or Fixed when there is no tag.
	Name string
}

// FixedDescriptor is a top-level Fixed(size, logicalType?) descriptor.
type FixedDescriptor struct {
	Fixed
}

func (FixedDescriptor) descriptor() {}

// NewtypeValue is implemented by a host newtype instance whose inner
// primitive is not directly a Go primitive value, so Extractors can
// recover the wrapped value without reflection. A host newtype backed
// directly by a Go primitive (e.g. `type Email string`) needs no such
// method: Extract falls back to treating the value itself as the inner
// primitive.
type NewtypeValue interface {
	AvroInner() interface{}
}

// Constructor builds a host record value from its fields' extracted
// values, supplied positionally in field-declaration order. It is the
// function-pointer replacement for host-runtime constructor reflection
// (see the codec's design notes).
type Constructor func(args []interface{}) (interface{}, error)

// FieldGetter is the write-side mirror of Constructor: a host record value
// implements it so Extractors can pull field values out positionally
// without reflection, exactly as Constructor lets Readers build one back
// without reflection. A host type generated or hand-written to back a
// RecordDescriptor is expected to implement this.
type FieldGetter interface {
	AvroField(position int) interface{}
}

// Field is one named, positioned member of a RecordDescriptor.
type Field struct {
	Position int
	Name     string
	Type     Descriptor
	Aliases  []string
	Doc      string
	// Default, when non-nil, produces the field's Avro default value.
	Default func() interface{}
	// Fixed, when non-nil, overrides the inferred schema for this field
	// with a Fixed(size, logicalType?) encoding per spec.md §3.
	Fixed *Fixed
}

// RecordDescriptor describes a host record type: an ordered list of Fields
// plus a Constructor that rebuilds a host value from extracted field
// values, in field order.
type RecordDescriptor struct {
	FQN    string
	Fields []Field
	New    Constructor
}

func (RecordDescriptor) descriptor() {}

// Variant is one member of a Sum, carrying the union member's position
// (its unionIndex) and its own descriptor (expected to be record-shaped,
// since only records carry the full names Readers resolve variants by).
type Variant struct {
	UnionIndex int
	Type       Descriptor
}

// Name returns the variant's Avro full name, which must be resolvable
// for the Readers component to discover which Variant a decoded union
// branch belongs to.
func (v Variant) Name() string {
	if rec, ok := v.Type.(RecordDescriptor); ok {
		return rec.FQN
	}
	return ""
}

// SumDescriptor describes a closed (or open) set of named variants, each
// carrying a unique non-negative unionIndex establishing the ascending
// order the Avro union's member types are emitted in.
type SumDescriptor struct {
	FQN      string
	Variants []Variant
	Sealed   bool
}

func (SumDescriptor) descriptor() {}

// Validate checks the Sum invariant from spec.md §3: every variant must
// carry a unique non-negative unionIndex.
func (s SumDescriptor) Validate() error {
	seen := make(map[int]bool, len(s.Variants))
	for _, v := range s.Variants {
		if v.UnionIndex < 0 {
			return fmt.Errorf("sum %s: variant %s has a negative unionIndex", s.FQN, v.Name())
		}
		if seen[v.UnionIndex] {
			return fmt.Errorf("sum %s: duplicate unionIndex %d", s.FQN, v.UnionIndex)
		}
		seen[v.UnionIndex] = true
	}
	return nil
}

// IsOptionShaped reports whether this Sum is exactly the {None, Some(T)}
// shape, which maps to the Avro union [null, T] with null first rather
// than to a general sealed-sum union (spec.md §3).
func (s SumDescriptor) IsOptionShaped() (Descriptor, bool) {
	if len(s.Variants) != 2 {
		return nil, false
	}
	var none *Variant
	var some *Variant
	for i := range s.Variants {
		v := &s.Variants[i]
		if p, ok := v.Type.(PrimitiveDescriptor); ok && p.Prim == Null {
			none = v
			continue
		}
		some = v
	}
	if none == nil || some == nil {
		return nil, false
	}
	return some.Type, true
}
