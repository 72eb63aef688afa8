package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marwahaha/affinity/descriptor"
	"github.com/marwahaha/affinity/extract"
	"github.com/marwahaha/affinity/wire"
)

type point struct {
	X, Y int32
}

func (p point) AvroField(position int) interface{} {
	switch position {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return nil
	}
}

func pointDescriptor() descriptor.RecordDescriptor {
	return descriptor.RecordDescriptor{
		FQN: "examples.Point",
		Fields: []descriptor.Field{
			{Position: 0, Name: "x", Type: descriptor.PrimitiveDescriptor{Prim: descriptor.Int32}},
			{Position: 1, Name: "y", Type: descriptor.PrimitiveDescriptor{Prim: descriptor.Int32}},
		},
	}
}

func pointSchema() wire.Schema {
	return wire.NewRecord("Point", "examples", "", []*wire.SchemaField{
		wire.NewField("x", wire.NewInt(nil), "", nil, false, nil),
		wire.NewField("y", wire.NewInt(nil), "", nil, false, nil),
	})
}

func TestExtractPrimitive(t *testing.T) {
	v, err := extract.Extract(int32(7), descriptor.PrimitiveDescriptor{Prim: descriptor.Int32}, []wire.Schema{wire.NewInt(nil)})
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)
}

func TestExtractPrimitiveTypeMismatch(t *testing.T) {
	_, err := extract.Extract("not an int", descriptor.PrimitiveDescriptor{Prim: descriptor.Int32}, []wire.Schema{wire.NewInt(nil)})
	assert.Error(t, err)
}

func TestExtractNilValueNeedsNullCandidate(t *testing.T) {
	v, err := extract.Extract(nil, descriptor.PrimitiveDescriptor{Prim: descriptor.String}, []wire.Schema{wire.NewNull(nil), wire.NewString(nil)})
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = extract.Extract(nil, descriptor.PrimitiveDescriptor{Prim: descriptor.String}, []wire.Schema{wire.NewString(nil)})
	assert.Error(t, err)
}

func TestExtractOption(t *testing.T) {
	d := descriptor.OptionDescriptor{Elem: descriptor.PrimitiveDescriptor{Prim: descriptor.String}}
	candidates := []wire.Schema{wire.NewNull(nil), wire.NewString(nil)}

	v, err := extract.Extract("hi", d, candidates)
	require.NoError(t, err)
	assert.Equal(t, "hi", v)

	v, err = extract.Extract(nil, d, candidates)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestExtractContainer(t *testing.T) {
	d := descriptor.ContainerDescriptor{Shape: descriptor.ShapeSet, Elem: descriptor.PrimitiveDescriptor{Prim: descriptor.Int32}}
	candidates := []wire.Schema{wire.NewArray(wire.NewInt(nil))}

	v, err := extract.Extract([]int32{1, 2, 3}, d, candidates)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int32(1), int32(2), int32(3)}, v)
}

func TestExtractMap(t *testing.T) {
	d := descriptor.MapDescriptor{Value: descriptor.PrimitiveDescriptor{Prim: descriptor.Int32}}
	candidates := []wire.Schema{wire.NewMapSchema(wire.NewInt(nil))}

	v, err := extract.Extract(map[string]int32{"a": 1}, d, candidates)
	require.NoError(t, err)
	out, ok := v.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int32(1), out["a"])
}

func TestExtractRecord(t *testing.T) {
	rd := pointDescriptor()
	schema := pointSchema()

	generic, err := extract.Extract(point{X: 3, Y: 4}, rd, []wire.Schema{schema})
	require.NoError(t, err)

	rec, ok := generic.(wire.GenericRecord)
	require.True(t, ok)
	assert.Equal(t, int32(3), rec.Get("x"))
	assert.Equal(t, int32(4), rec.Get("y"))
}

func TestExtractRecordRequiresFieldGetter(t *testing.T) {
	rd := pointDescriptor()
	schema := pointSchema()

	_, err := extract.Extract(struct{ A int }{1}, rd, []wire.Schema{schema})
	assert.Error(t, err)
}

type circle struct{ Radius float64 }

func (c circle) AvroField(position int) interface{} {
	if position == 0 {
		return c.Radius
	}
	return nil
}

type shape struct {
	kind string
	val  interface{}
}

func (s shape) AvroVariant() (string, interface{}) { return s.kind, s.val }

func TestExtractSum(t *testing.T) {
	circleSchema := wire.NewRecord("Circle", "examples", "", []*wire.SchemaField{
		wire.NewField("radius", wire.NewDouble(nil), "", nil, false, nil),
	})
	squareSchema := wire.NewRecord("Square", "examples", "", []*wire.SchemaField{
		wire.NewField("side", wire.NewDouble(nil), "", nil, false, nil),
	})
	sd := descriptor.SumDescriptor{
		FQN: "examples.Shape",
		Variants: []descriptor.Variant{
			{UnionIndex: 0, Type: descriptor.RecordDescriptor{
				FQN:    "examples.Circle",
				Fields: []descriptor.Field{{Position: 0, Name: "radius", Type: descriptor.PrimitiveDescriptor{Prim: descriptor.Float64}}},
			}},
			{UnionIndex: 1, Type: descriptor.RecordDescriptor{
				FQN:    "examples.Square",
				Fields: []descriptor.Field{{Position: 0, Name: "side", Type: descriptor.PrimitiveDescriptor{Prim: descriptor.Float64}}},
			}},
		},
	}

	v, err := extract.Extract(shape{kind: "examples.Circle", val: circle{Radius: 2.5}}, sd, []wire.Schema{circleSchema, squareSchema})
	require.NoError(t, err)
	rec, ok := v.(wire.GenericRecord)
	require.True(t, ok)
	assert.Equal(t, 2.5, rec.Get("radius"))
}

func TestExtractEnumAcceptsBareString(t *testing.T) {
	ed := descriptor.EnumDescriptor{FQN: "examples.Color", Symbols: []string{"RED", "GREEN", "BLUE"}}
	v, err := extract.Extract("GREEN", ed, []wire.Schema{wire.NewEnum("Color", "examples", ed.Symbols, "")})
	require.NoError(t, err)
	assert.Equal(t, "GREEN", v)
}

func TestExtractFixedUUID(t *testing.T) {
	var raw [16]byte
	for i := range raw {
		raw[i] = byte(i)
	}
	fd := descriptor.FixedDescriptor{Fixed: descriptor.Fixed{Size: 16, Logical: "uuid"}}
	v, err := extract.Extract(raw, fd, []wire.Schema{wire.NewFixed("UUID", 16, "uuid")})
	require.NoError(t, err)
	b, ok := v.([]byte)
	require.True(t, ok)
	assert.Len(t, b, 16)
}
