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

// Package project implements the Projector (spec.md §4.4): a cached
// (writerSchema, readerSchema) pair that composes Extractors with the wire
// encoder on write, and the wire decoder with Readers on read.
package project

import (
	"bytes"
	"io"

	"github.com/marwahaha/affinity/descriptor"
	"github.com/marwahaha/affinity/extract"
	"github.com/marwahaha/affinity/memo"
	"github.com/marwahaha/affinity/read"
	"github.com/marwahaha/affinity/wire"
)

// Projector writes host values against Writer and, on read, resolves the
// wire bytes (encoded per Writer) into the shape Reader describes. Reader
// may be nil, in which case Read and ReadFrom return the raw generic Avro
// form instead of a host value.
type Projector struct {
	Writer wire.Schema
	Reader wire.Schema
	caches *memo.Caches
}

// For returns the cached Projector for (writer, reader), building one if
// this is the first request for that pair. reader may be nil.
func For(writer, reader wire.Schema, caches *memo.Caches) *Projector {
	key := memo.SchemaKey(writer, reader)
	v, _ := caches.Projectors.GetOrCompute(key, func() (interface{}, error) {
		return &Projector{Writer: writer, Reader: reader, caches: caches}, nil
	})
	return v.(*Projector)
}

// Write extracts value against p's Writer schema and returns its Avro
// binary encoding.
func (p *Projector) Write(value interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.WriteTo(value, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo is Write, streaming to w instead of allocating a buffer.
func (p *Projector) WriteTo(value interface{}, w io.Writer) error {
	d, candidates, err := p.writeDescriptor(value)
	if err != nil {
		return err
	}
	generic, err := extract.Extract(value, d, candidates)
	if err != nil {
		return err
	}
	enc := wire.NewBinaryEncoder(w)
	if err := wire.EncodeGeneric(p.Writer, generic, enc); err != nil {
		return err
	}
	return wire.Flush(enc)
}

// Read decodes one Writer-schema-encoded value from data at offset and, if
// p.Reader is set, materializes it into the host shape Reader describes.
// With no Reader it returns the raw generic Avro form.
func (p *Projector) Read(data []byte, offset int) (interface{}, error) {
	return p.ReadFrom(bytes.NewReader(data[offset:]))
}

// ReadFrom is Read, pulling from an io.Reader instead of a byte slice.
func (p *Projector) ReadFrom(r io.Reader) (interface{}, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	dec := wire.NewBinaryDecoder(data)
	generic, err := wire.DecodeGenericResolved(p.Writer, p.Reader, dec)
	if err != nil {
		return nil, err
	}
	if p.Reader == nil {
		return generic, nil
	}
	d := p.readDescriptor()
	return read.Read(generic, p.Reader, d, p.caches)
}

// writeDescriptor resolves the Type Descriptor to extract value against.
// A named Writer schema (record/enum/fixed) resolves through the
// descriptor registry by its full name, exactly as Readers resolve
// records on decode (spec.md §4.3); any other top-level schema shape
// falls back to a best-effort descriptor derived purely from the schema
// tree, since the façade's Write(value, schema) entry point carries no
// descriptor of its own for bare (non-record) top-level values.
func (p *Projector) writeDescriptor(value interface{}) (descriptor.Descriptor, []wire.Schema, error) {
	candidates := []wire.Schema{p.Writer}
	if members, ok := wire.UnionMembers(p.Writer); ok {
		candidates = members
	}
	if named, ok := p.Writer.(wire.NamedSchema); ok {
		if d, ok := p.caches.Descriptors.Lookup(named.GetName()); ok {
			return d, candidates, nil
		}
	}
	return schemaDescriptor(p.Writer, p.caches), candidates, nil
}

// readDescriptor is writeDescriptor's read-side counterpart, resolving
// against p.Reader instead of p.Writer.
func (p *Projector) readDescriptor() descriptor.Descriptor {
	if named, ok := p.Reader.(wire.NamedSchema); ok {
		if d, ok := p.caches.Descriptors.Lookup(named.GetName()); ok {
			return d
		}
	}
	return schemaDescriptor(p.Reader, p.caches)
}

// schemaDescriptor builds a best-effort Type Descriptor directly from an
// Avro schema tree, for the rare case where no host descriptor was
// registered for a top-level non-record schema. Container shape always
// defaults to List, since Extractors never consult Shape (only Readers do,
// to coerce a decoded array back to a Set/Vector/etc.), and a bare Enum
// descriptor has no FromSymbol, so Readers return its symbol as a string.
func schemaDescriptor(schema wire.Schema, caches *memo.Caches) descriptor.Descriptor {
	if named, ok := schema.(wire.NamedSchema); ok {
		if d, ok := caches.Descriptors.Lookup(named.GetName()); ok {
			return d
		}
	}
	if fqn, ok := wire.LogicalType(schema); ok {
		if d, ok := caches.Descriptors.Lookup(fqn); ok {
			return d
		}
	}
	switch schema.Type() {
	case wire.Null:
		return descriptor.PrimitiveDescriptor{Prim: descriptor.Null}
	case wire.Boolean:
		return descriptor.PrimitiveDescriptor{Prim: descriptor.Bool}
	case wire.Int:
		return descriptor.PrimitiveDescriptor{Prim: descriptor.Int32}
	case wire.Long:
		return descriptor.PrimitiveDescriptor{Prim: descriptor.Int64}
	case wire.Float:
		return descriptor.PrimitiveDescriptor{Prim: descriptor.Float32}
	case wire.Double:
		return descriptor.PrimitiveDescriptor{Prim: descriptor.Float64}
	case wire.String:
		return descriptor.PrimitiveDescriptor{Prim: descriptor.String}
	case wire.Bytes:
		return descriptor.PrimitiveDescriptor{Prim: descriptor.Bytes}
	case wire.Fixed:
		size, _ := wire.FixedSize(schema)
		logical, _ := wire.LogicalType(schema)
		return descriptor.FixedDescriptor{Fixed: descriptor.Fixed{Size: size, Logical: logical}}
	case wire.Enum:
		symbols, def, _ := wire.EnumSymbols(schema)
		return descriptor.EnumDescriptor{Symbols: symbols, Default: def}
	case wire.Array:
		items, _ := wire.ArrayItems(schema)
		return descriptor.ContainerDescriptor{Shape: descriptor.ShapeList, Elem: schemaDescriptor(items, caches)}
	case wire.Map:
		values, _ := wire.MapValues(schema)
		return descriptor.MapDescriptor{Value: schemaDescriptor(values, caches)}
	case wire.Union:
		members, _ := wire.UnionMembers(schema)
		if elem, ok := optionElem(members); ok {
			return descriptor.OptionDescriptor{Elem: schemaDescriptor(elem, caches)}
		}
		variants := make([]descriptor.Variant, 0, len(members))
		for i, m := range members {
			if m.Type() == wire.Null {
				continue
			}
			variants = append(variants, descriptor.Variant{UnionIndex: i, Type: schemaDescriptor(m, caches)})
		}
		return descriptor.SumDescriptor{Variants: variants}
	default:
		return descriptor.PrimitiveDescriptor{Prim: descriptor.Null}
	}
}

// optionElem reports whether members is the [null, T] shape and, if so,
// returns T.
func optionElem(members []wire.Schema) (wire.Schema, bool) {
	if len(members) != 2 {
		return nil, false
	}
	if members[0].Type() == wire.Null {
		return members[1], true
	}
	if members[1].Type() == wire.Null {
		return members[0], true
	}
	return nil, false
}
