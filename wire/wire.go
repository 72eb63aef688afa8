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

// Package wire is the boundary between this codec and the external Avro
// binary encoder/decoder. It re-exports the pieces of github.com/rnpridgeon/avro
// the rest of the codec is allowed to see, and adds the handful of
// constructors needed to build a schema tree without going through a JSON
// round trip for every inference call.
package wire

import (
	"io"

	"github.com/rnpridgeon/avro"
)

// Schema is the Avro schema tree as defined by the Avro specification.
type Schema = avro.Schema

// NamedSchema is implemented by schemas that carry a full name (record,
// enum, fixed).
type NamedSchema interface {
	Schema
	GetName() string
}

// RecordSchema, SchemaField, EnumSchema, ArraySchema, MapSchema, UnionSchema
// and FixedSchema are the concrete schema node types this codec walks
// directly.
type (
	RecordSchema = avro.RecordSchema
	SchemaField  = avro.SchemaField
	EnumSchema   = avro.EnumSchema
	ArraySchema  = avro.ArraySchema
	MapSchema    = avro.MapSchema
	UnionSchema  = avro.UnionSchema
	FixedSchema  = avro.FixedSchema
)

// Type constants mirror the Avro primitive/complex type tags.
const (
	String  = avro.String
	Bytes   = avro.Bytes
	Int     = avro.Int
	Long    = avro.Long
	Float   = avro.Float
	Double  = avro.Double
	Boolean = avro.Boolean
	Null    = avro.Null
	Array   = avro.Array
	Map     = avro.Map
	Record  = avro.Record
	Enum    = avro.Enum
	Union   = avro.Union
	Fixed   = avro.Fixed
)

// AvroRecord is implemented by any value that knows its own schema.
type AvroRecord = avro.AvroRecord

// GenericRecord is the generic Avro in-memory form for a record-shaped
// value: fields are read and written by name, with the schema supplying
// position and type.
type GenericRecord = avro.GenericRecord

// NewGenericRecord allocates a generic record bound to schema.
func NewGenericRecord(schema Schema) GenericRecord {
	return avro.NewGenericRecord(schema)
}

// DatumWriter and DatumReader drive the binary encoder/decoder against a
// schema-bound generic or specific record.
type (
	DatumWriter = avro.DatumWriter
	DatumReader = avro.DatumReader
	Encoder     = avro.Encoder
	Decoder     = avro.Decoder
)

// NewDatumWriter and NewDatumReader return generic datum readers/writers:
// the recursive descent over nested records/arrays/maps/unions/enums/fixed
// is the external library's job, exactly as spec.md §1 scopes it out of
// this codec.
func NewDatumWriter(schema Schema) DatumWriter {
	return avro.NewDatumWriter(schema)
}

func NewDatumReader(schema Schema) DatumReader {
	return avro.NewDatumReader(schema)
}

// NewResolvingDatumReader returns a datum reader bound to readerSchema that,
// when the concrete reader type supports it, also knows writerSchema and
// performs standard Avro schema resolution (field matching by name or
// alias, symbol defaulting, type promotion) while decoding — the external
// library's responsibility per spec.md §1. When the concrete type has no
// such hook this degrades to a plain reader-schema-only read, which is
// correct whenever writerSchema and readerSchema are the same schema.
func NewResolvingDatumReader(writerSchema, readerSchema Schema) DatumReader {
	reader := avro.NewDatumReader(readerSchema)
	if setter, ok := reader.(interface{ SetSchema(avro.Schema) }); ok {
		setter.SetSchema(writerSchema)
	}
	return reader
}

// Flush flushes any buffered output on enc to its underlying writer.
func Flush(enc Encoder) error {
	return enc.Flush()
}

// NewBinaryEncoder and NewBinaryDecoder open the wire format against a
// caller-supplied sink/source.
func NewBinaryEncoder(w io.Writer) Encoder {
	return avro.NewBinaryEncoder(w)
}

func NewBinaryDecoder(data []byte) Decoder {
	return avro.NewBinaryDecoder(data)
}

// Parse parses a standard Avro JSON schema document.
func Parse(jsonSchema string) (Schema, error) {
	return avro.ParseSchema(jsonSchema)
}

// Props is the free-form string-keyed property bag every Avro schema node
// carries (spec.md §3); the one property this codec's inference and
// reading steps interpret themselves is "logicalType".
type Props = map[string]interface{}

// NewNull, NewBoolean, NewInt, NewLong, NewFloat, NewDouble, NewString and
// NewBytes build the eight Avro primitive schemas, optionally carrying
// properties (chiefly logicalType for Newtype and the uuid/int/long/string
// Fixed-adjacent logical tags spec.md §3 describes).
func NewNull(props Props) Schema {
	return &avro.NullSchema{Properties: props}
}

func NewBoolean(props Props) Schema {
	return &avro.BooleanSchema{Properties: props}
}

func NewInt(props Props) Schema {
	return &avro.IntSchema{Properties: props}
}

func NewLong(props Props) Schema {
	return &avro.LongSchema{Properties: props}
}

func NewFloat(props Props) Schema {
	return &avro.FloatSchema{Properties: props}
}

func NewDouble(props Props) Schema {
	return &avro.DoubleSchema{Properties: props}
}

func NewString(props Props) Schema {
	return &avro.StringSchema{Properties: props}
}

func NewBytes(props Props) Schema {
	return &avro.BytesSchema{Properties: props}
}

// NewField builds one Avro record field, optionally carrying a default
// value, aliases and doc (spec.md §4.1 record field inference).
func NewField(name string, typ Schema, doc string, aliases []string, hasDefault bool, def interface{}) *SchemaField {
	f := &avro.SchemaField{
		Name: name,
		Type: typ,
		Doc:  doc,
	}
	if len(aliases) > 0 {
		f.Aliases = aliases
	}
	if hasDefault {
		f.Default = def
		f.HasDefault = true
	}
	return f
}

// NewRecord builds a record schema with namespace and ordered fields.
func NewRecord(name, namespace, doc string, fields []*SchemaField) Schema {
	return &avro.RecordSchema{
		Name:      name,
		Namespace: namespace,
		Doc:       doc,
		Fields:    fields,
	}
}

// NewEnum builds an enum schema; defaultSymbol is the Avro 1.9+ reader
// default used when a writer symbol is unknown (SPEC_FULL.md §4).
func NewEnum(name, namespace string, symbols []string, defaultSymbol string) Schema {
	props := Props{}
	if defaultSymbol != "" {
		props["default"] = defaultSymbol
	}
	return &avro.EnumSchema{
		Name:       name,
		Namespace:  namespace,
		Symbols:    symbols,
		Properties: props,
	}
}

// NewArray builds an array schema over the given item schema.
func NewArray(items Schema) Schema {
	return &avro.ArraySchema{Items: items}
}

// NewMapSchema builds a map schema (Avro maps always have string keys).
func NewMapSchema(values Schema) Schema {
	return &avro.MapSchema{Values: values}
}

// NewUnion builds a union schema from its ordered member types.
func NewUnion(types []Schema) Schema {
	return &avro.UnionSchema{Types: types}
}

// NewFixed builds a fixed-size schema, optionally tagged with a logical
// type (int/long/string/uuid per spec.md §3).
func NewFixed(name string, size int, logicalType string) Schema {
	props := Props{}
	if logicalType != "" {
		props["logicalType"] = logicalType
	}
	return &avro.FixedSchema{
		Name:       name,
		Size:       size,
		Properties: props,
	}
}

// GetProp returns the named string property of schema, if present and a
// string. Avro schema properties are read by value, never by pointer
// equality (spec.md §9 Open Question).
func GetProp(schema Schema, key string) (string, bool) {
	v, ok := schema.Prop(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// LogicalType returns the schema's "logicalType" property, if any.
func LogicalType(schema Schema) (string, bool) {
	return GetProp(schema, "logicalType")
}

// UnionMembers returns the ordered member schemas of a union schema.
func UnionMembers(schema Schema) ([]Schema, bool) {
	u, ok := schema.(*avro.UnionSchema)
	if !ok {
		return nil, false
	}
	return u.Types, true
}

// RecordFields returns the ordered fields of a record schema.
func RecordFields(schema Schema) ([]*SchemaField, bool) {
	r, ok := schema.(*avro.RecordSchema)
	if !ok {
		return nil, false
	}
	return r.Fields, true
}

// EnumSymbols returns the ordered symbols and optional reader-default
// symbol of an enum schema.
func EnumSymbols(schema Schema) (symbols []string, defaultSymbol string, ok bool) {
	e, ok := schema.(*avro.EnumSchema)
	if !ok {
		return nil, "", false
	}
	def, _ := GetProp(schema, "default")
	return e.Symbols, def, true
}

// ArrayItems returns the item schema of an array schema.
func ArrayItems(schema Schema) (Schema, bool) {
	a, ok := schema.(*avro.ArraySchema)
	if !ok {
		return nil, false
	}
	return a.Items, true
}

// MapValues returns the value schema of a map schema.
func MapValues(schema Schema) (Schema, bool) {
	m, ok := schema.(*avro.MapSchema)
	if !ok {
		return nil, false
	}
	return m.Values, true
}

// FixedSize returns the declared byte size of a fixed schema.
func FixedSize(schema Schema) (int, bool) {
	f, ok := schema.(*avro.FixedSchema)
	if !ok {
		return 0, false
	}
	return f.Size, true
}

// DecodeGeneric decodes one value of the given schema from dec into the
// generic Avro in-memory form: primitives pass straight through the
// decoder, everything else (record, array, map, union, enum, fixed) is
// produced by a generic datum reader, which performs the schema-driven
// recursive descent into nested fields.
func DecodeGeneric(schema Schema, dec Decoder) (interface{}, error) {
	switch schema.Type() {
	case String:
		return dec.ReadString()
	case Bytes:
		return dec.ReadBytes()
	case Int:
		return dec.ReadInt()
	case Long:
		return dec.ReadLong()
	case Float:
		return dec.ReadFloat()
	case Double:
		return dec.ReadDouble()
	case Boolean:
		return dec.ReadBoolean()
	case Null:
		return dec.ReadNull()
	default:
		rec := NewGenericRecord(schema)
		reader := NewDatumReader(schema)
		if err := reader.Read(rec, dec); err != nil {
			return nil, err
		}
		return rec, nil
	}
}

// DecodeGenericResolved is DecodeGeneric's writer/reader-schema-pair form:
// when readerSchema is a non-primitive schema that differs from
// writerSchema it decodes through a resolving datum reader so the returned
// generic value is already shaped per readerSchema (spec.md §4.4's "run
// the Avro binary decoder with the writer schema and, if present, the
// reader schema"). A primitive readerSchema is decoded with writerSchema
// alone.
func DecodeGenericResolved(writerSchema, readerSchema Schema, dec Decoder) (interface{}, error) {
	if readerSchema == nil || readerSchema == writerSchema {
		return DecodeGeneric(writerSchema, dec)
	}
	switch readerSchema.Type() {
	case String, Bytes, Int, Long, Float, Double, Boolean, Null:
		return DecodeGeneric(writerSchema, dec)
	default:
		rec := NewGenericRecord(readerSchema)
		reader := NewResolvingDatumReader(writerSchema, readerSchema)
		if err := reader.Read(rec, dec); err != nil {
			return nil, err
		}
		return rec, nil
	}
}

// EncodeGeneric is the write-side mirror of DecodeGeneric.
func EncodeGeneric(schema Schema, value interface{}, enc Encoder) error {
	switch schema.Type() {
	case String:
		enc.WriteString(value.(string))
		return nil
	case Bytes:
		enc.WriteBytes(value.([]byte))
		return nil
	case Int:
		enc.WriteInt(value.(int32))
		return nil
	case Long:
		enc.WriteLong(value.(int64))
		return nil
	case Float:
		enc.WriteFloat(value.(float32))
		return nil
	case Double:
		enc.WriteDouble(value.(float64))
		return nil
	case Boolean:
		enc.WriteBoolean(value.(bool))
		return nil
	case Null:
		enc.WriteNull(value)
		return nil
	default:
		writer := NewDatumWriter(schema)
		return writer.Write(value, enc)
	}
}
