package read_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marwahaha/affinity/descriptor"
	"github.com/marwahaha/affinity/memo"
	"github.com/marwahaha/affinity/read"
	"github.com/marwahaha/affinity/wire"
)

type point struct{ X, Y int32 }

func pointSchema() wire.Schema {
	return wire.NewRecord("Point", "examples", "", []*wire.SchemaField{
		wire.NewField("x", wire.NewInt(nil), "", nil, false, nil),
		wire.NewField("y", wire.NewInt(nil), "", nil, false, nil),
	})
}

func pointDescriptor() descriptor.RecordDescriptor {
	return descriptor.RecordDescriptor{
		FQN: "examples.Point",
		Fields: []descriptor.Field{
			{Position: 0, Name: "x", Type: descriptor.PrimitiveDescriptor{Prim: descriptor.Int32}},
			{Position: 1, Name: "y", Type: descriptor.PrimitiveDescriptor{Prim: descriptor.Int32}},
		},
		New: func(args []interface{}) (interface{}, error) {
			return point{X: args[0].(int32), Y: args[1].(int32)}, nil
		},
	}
}

func TestReadPrimitivesPassThrough(t *testing.T) {
	caches := memo.NewCaches()
	v, err := read.Read(int32(7), wire.NewInt(nil), nil, caches)
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)
}

func TestReadNullIsNil(t *testing.T) {
	caches := memo.NewCaches()
	v, err := read.Read(nil, wire.NewNull(nil), nil, caches)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestReadRecordResolvesDescriptorByFullName(t *testing.T) {
	caches := memo.NewCaches()
	require.NoError(t, caches.Descriptors.Register("examples.Point", pointDescriptor()))

	schema := pointSchema()
	rec := wire.NewGenericRecord(schema)
	rec.Set("x", int32(3))
	rec.Set("y", int32(4))

	v, err := read.Read(rec, schema, nil, caches)
	require.NoError(t, err)
	assert.Equal(t, point{X: 3, Y: 4}, v)
}

func TestReadOptionUnwrapsNonNullBranch(t *testing.T) {
	caches := memo.NewCaches()
	schema := wire.NewUnion([]wire.Schema{wire.NewNull(nil), wire.NewString(nil)})
	d := descriptor.OptionDescriptor{Elem: descriptor.PrimitiveDescriptor{Prim: descriptor.String}}

	v, err := read.Read("hi", schema, d, caches)
	require.NoError(t, err)
	assert.Equal(t, "hi", v)

	v, err = read.Read(nil, schema, d, caches)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestReadEnumFallsBackToDefaultSymbol(t *testing.T) {
	caches := memo.NewCaches()
	schema := wire.NewEnum("Color", "examples", []string{"RED", "GREEN"}, "RED")

	v, err := read.Read("BLUE", schema, nil, caches)
	require.NoError(t, err)
	assert.Equal(t, "RED", v)
}

func TestReadEnumUnknownSymbolNoDefaultErrors(t *testing.T) {
	caches := memo.NewCaches()
	schema := wire.NewEnum("Color", "examples", []string{"RED", "GREEN"}, "")
	_, err := read.Read("BLUE", schema, nil, caches)
	assert.Error(t, err)
}

func TestReadArrayCoercesToSet(t *testing.T) {
	caches := memo.NewCaches()
	schema := wire.NewArray(wire.NewInt(nil))
	d := descriptor.ContainerDescriptor{Shape: descriptor.ShapeSet, Elem: descriptor.PrimitiveDescriptor{Prim: descriptor.Int32}}

	v, err := read.Read([]interface{}{int32(1), int32(2)}, schema, d, caches)
	require.NoError(t, err)
	set, ok := v.(map[interface{}]struct{})
	require.True(t, ok)
	assert.Len(t, set, 2)
}

func TestReadMap(t *testing.T) {
	caches := memo.NewCaches()
	schema := wire.NewMapSchema(wire.NewInt(nil))
	generic := map[string]interface{}{"a": int32(1)}

	v, err := read.Read(generic, schema, nil, caches)
	require.NoError(t, err)
	out, ok := v.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int32(1), out["a"])
}

func TestReadFixedUUID(t *testing.T) {
	caches := memo.NewCaches()
	schema := wire.NewFixed("UUID", 16, "uuid")
	raw := make([]byte, 16)
	for i := range raw {
		raw[i] = byte(i)
	}
	v, err := read.Read(raw, schema, nil, caches)
	require.NoError(t, err)
	assert.IsType(t, uuid.UUID{}, v)
	got := v.(uuid.UUID)
	assert.Equal(t, raw, got[:])
}

type meters int32

func TestReadNewtypeOverInt32Reconstructs(t *testing.T) {
	caches := memo.NewCaches()
	require.NoError(t, caches.Descriptors.Register("examples.Meters", descriptor.NewtypeDescriptor{
		FQN:   "examples.Meters",
		Inner: descriptor.Int32,
		New: func(inner interface{}) (interface{}, error) {
			return meters(inner.(int32)), nil
		},
	}))
	schema := wire.NewInt(wire.Props{"logicalType": "examples.Meters"})

	v, err := read.Read(int32(42), schema, nil, caches)
	require.NoError(t, err)
	assert.Equal(t, meters(42), v)
}

type flag bool

func TestReadNewtypeOverBoolReconstructs(t *testing.T) {
	caches := memo.NewCaches()
	require.NoError(t, caches.Descriptors.Register("examples.Flag", descriptor.NewtypeDescriptor{
		FQN:   "examples.Flag",
		Inner: descriptor.Bool,
		New: func(inner interface{}) (interface{}, error) {
			return flag(inner.(bool)), nil
		},
	}))
	schema := wire.NewBoolean(wire.Props{"logicalType": "examples.Flag"})

	v, err := read.Read(true, schema, nil, caches)
	require.NoError(t, err)
	assert.Equal(t, flag(true), v)
}

type unit struct{}

func TestReadNewtypeOverNullReconstructs(t *testing.T) {
	caches := memo.NewCaches()
	require.NoError(t, caches.Descriptors.Register("examples.Unit", descriptor.NewtypeDescriptor{
		FQN:   "examples.Unit",
		Inner: descriptor.Null,
		New: func(inner interface{}) (interface{}, error) {
			return unit{}, nil
		},
	}))
	schema := wire.NewNull(wire.Props{"logicalType": "examples.Unit"})

	v, err := read.Read(nil, schema, nil, caches)
	require.NoError(t, err)
	assert.Equal(t, unit{}, v)
}

func TestReadUnknownLogicalTypeIsSoftFailure(t *testing.T) {
	caches := memo.NewCaches()
	schema := wire.NewString(wire.Props{"logicalType": "examples.UnknownTag"})
	v, err := read.Read("raw-value", schema, nil, caches)
	require.NoError(t, err, "an unknown logicalType must not be a hard error")
	assert.Equal(t, "raw-value", v)
}
