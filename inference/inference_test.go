package inference_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marwahaha/affinity/descriptor"
	"github.com/marwahaha/affinity/inference"
	"github.com/marwahaha/affinity/memo"
	"github.com/marwahaha/affinity/wire"
)

func TestInferPrimitive(t *testing.T) {
	caches := memo.NewCaches()
	schema, err := inference.Infer(descriptor.PrimitiveDescriptor{Prim: descriptor.String}, caches)
	require.NoError(t, err)
	assert.Equal(t, wire.String, schema.Type())
}

func TestInferOptionProducesNullFirstUnion(t *testing.T) {
	caches := memo.NewCaches()
	schema, err := inference.Infer(descriptor.OptionDescriptor{Elem: descriptor.PrimitiveDescriptor{Prim: descriptor.String}}, caches)
	require.NoError(t, err)
	members, ok := wire.UnionMembers(schema)
	require.True(t, ok)
	require.Len(t, members, 2)
	assert.Equal(t, wire.Null, members[0].Type())
	assert.Equal(t, wire.String, members[1].Type())
}

func TestInferIsMemoized(t *testing.T) {
	caches := memo.NewCaches()
	d := descriptor.PrimitiveDescriptor{Prim: descriptor.Int64}

	s1, err := inference.Infer(d, caches)
	require.NoError(t, err)
	s2, err := inference.Infer(d, caches)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, caches.Schemas.Len())
}

func TestInferRecord(t *testing.T) {
	caches := memo.NewCaches()
	rd := descriptor.RecordDescriptor{
		FQN: "examples.Point",
		Fields: []descriptor.Field{
			{Position: 0, Name: "x", Type: descriptor.PrimitiveDescriptor{Prim: descriptor.Int32}},
			{Position: 1, Name: "y", Type: descriptor.PrimitiveDescriptor{Prim: descriptor.Int32}},
		},
	}
	schema, err := inference.Infer(rd, caches)
	require.NoError(t, err)
	assert.Equal(t, wire.Record, schema.Type())
	fields, ok := wire.RecordFields(schema)
	require.True(t, ok)
	require.Len(t, fields, 2)
	assert.Equal(t, "x", fields[0].Name)
	assert.Equal(t, "y", fields[1].Name)
}

func TestInferRecordRejectsOutOfOrderFields(t *testing.T) {
	caches := memo.NewCaches()
	rd := descriptor.RecordDescriptor{
		FQN: "examples.Bad",
		Fields: []descriptor.Field{
			{Position: 1, Name: "y", Type: descriptor.PrimitiveDescriptor{Prim: descriptor.Int32}},
		},
	}
	_, err := inference.Infer(rd, caches)
	assert.Error(t, err)
}

func TestInferRecordWithNilDefaultKeepsNullFirst(t *testing.T) {
	caches := memo.NewCaches()
	rd := descriptor.RecordDescriptor{
		FQN: "examples.Named",
		Fields: []descriptor.Field{
			{
				Position: 0,
				Name:     "nickname",
				Type:     descriptor.OptionDescriptor{Elem: descriptor.PrimitiveDescriptor{Prim: descriptor.String}},
				Default:  func() interface{} { return nil },
			},
		},
	}
	schema, err := inference.Infer(rd, caches)
	require.NoError(t, err)
	fields, _ := wire.RecordFields(schema)
	members, ok := wire.UnionMembers(fields[0].Type)
	require.True(t, ok)
	assert.Equal(t, wire.Null, members[0].Type(), "default nil must put the null branch first per the Avro default rule")
}

func TestInferSumProducesUnionOrderedByUnionIndex(t *testing.T) {
	caches := memo.NewCaches()
	sd := descriptor.SumDescriptor{
		FQN: "examples.Shape",
		Variants: []descriptor.Variant{
			{UnionIndex: 1, Type: descriptor.RecordDescriptor{FQN: "examples.Square", Fields: []descriptor.Field{
				{Position: 0, Name: "side", Type: descriptor.PrimitiveDescriptor{Prim: descriptor.Float64}},
			}}},
			{UnionIndex: 0, Type: descriptor.RecordDescriptor{FQN: "examples.Circle", Fields: []descriptor.Field{
				{Position: 0, Name: "radius", Type: descriptor.PrimitiveDescriptor{Prim: descriptor.Float64}},
			}}},
		},
	}
	schema, err := inference.Infer(sd, caches)
	require.NoError(t, err)
	members, ok := wire.UnionMembers(schema)
	require.True(t, ok)
	require.Len(t, members, 2)
	named0 := members[0].(wire.NamedSchema)
	named1 := members[1].(wire.NamedSchema)
	assert.Equal(t, "examples.Circle", named0.GetName())
	assert.Equal(t, "examples.Square", named1.GetName())
}

func TestInferFixedMissingSizeIsConfigError(t *testing.T) {
	caches := memo.NewCaches()
	_, err := inference.Infer(descriptor.FixedDescriptor{Fixed: descriptor.Fixed{Size: 0}}, caches)
	assert.Error(t, err)
}

func TestInferNewtypeCarriesLogicalType(t *testing.T) {
	caches := memo.NewCaches()
	schema, err := inference.Infer(descriptor.NewtypeDescriptor{FQN: "examples.Email", Inner: descriptor.String}, caches)
	require.NoError(t, err)
	logical, ok := wire.LogicalType(schema)
	require.True(t, ok)
	assert.Equal(t, "examples.Email", logical)
}

func TestInferNewtypeCarriesLogicalTypeForEveryPrimitiveKind(t *testing.T) {
	primitives := []descriptor.Primitive{
		descriptor.Null, descriptor.Bool,
		descriptor.Int32, descriptor.Int64,
		descriptor.Float32, descriptor.Float64,
		descriptor.String, descriptor.Bytes,
	}
	for _, prim := range primitives {
		caches := memo.NewCaches()
		schema, err := inference.Infer(descriptor.NewtypeDescriptor{FQN: "examples.Wrapped", Inner: prim}, caches)
		require.NoError(t, err)
		logical, ok := wire.LogicalType(schema)
		require.True(t, ok, "primitive %v lost its logicalType property", prim)
		assert.Equal(t, "examples.Wrapped", logical)
	}
}
