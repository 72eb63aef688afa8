package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marwahaha/affinity/registry"
	"github.com/marwahaha/affinity/wire"
)

func TestInMemoryRegisterAssignsIncrementingIDs(t *testing.T) {
	r := registry.NewInMemory()

	id1, err := r.Register("examples.Point", wire.NewInt(nil), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, id1)

	id2, err := r.Register("examples.Point", wire.NewLong(nil), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, id2)
}

func TestInMemoryRegisterIsIdempotentForTheSameSchema(t *testing.T) {
	r := registry.NewInMemory()

	id1, err := r.Register("examples.Point", wire.NewInt(nil), nil)
	require.NoError(t, err)

	id2, err := r.Register("examples.Point", wire.NewInt(nil), nil)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
}

func TestInMemoryLookup(t *testing.T) {
	r := registry.NewInMemory()
	id, err := r.Register("examples.Point", wire.NewInt(nil), nil)
	require.NoError(t, err)

	schema, ok := r.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, wire.Int, schema.Type())

	_, ok = r.Lookup(9999)
	assert.False(t, ok)
}

func TestInMemoryPairsEnumeratesByHostClass(t *testing.T) {
	r := registry.NewInMemory()
	_, err := r.Register("examples.Point", wire.NewInt(nil), nil)
	require.NoError(t, err)
	_, err = r.Register("examples.Point", wire.NewLong(nil), nil)
	require.NoError(t, err)
	_, err = r.Register("examples.Other", wire.NewString(nil), nil)
	require.NoError(t, err)

	pairs := r.Pairs("examples.Point")
	require.Len(t, pairs, 2)
	assert.Equal(t, wire.Int, pairs[0].Schema.Type())
	assert.Equal(t, wire.Long, pairs[1].Schema.Type())
}

func TestInMemoryRegisterRejectsNilSchema(t *testing.T) {
	r := registry.NewInMemory()
	_, err := r.Register("examples.Point", nil, nil)
	assert.Error(t, err)
}
