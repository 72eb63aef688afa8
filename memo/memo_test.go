package memo_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marwahaha/affinity/memo"
	"github.com/marwahaha/affinity/wire"
)

func TestMapGetPut(t *testing.T) {
	m := memo.NewMap[string, int]()
	_, ok := m.Get("missing")
	assert.False(t, ok)

	m.Put("a", 1)
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, m.Len())
}

func TestMapGetOrComputeCachesResult(t *testing.T) {
	m := memo.NewMap[string, int]()
	calls := 0
	supplier := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := m.GetOrCompute("k", supplier)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = m.GetOrCompute("k", supplier)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls, "supplier must run at most once per key on the happy path")
}

func TestMapGetOrComputePropagatesError(t *testing.T) {
	m := memo.NewMap[string, int]()
	sentinel := assert.AnError

	_, err := m.GetOrCompute("k", func() (int, error) { return 0, sentinel })
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 0, m.Len(), "a failed supplier must not populate the cache")
}

func TestMapConcurrentAccessIsSafe(t *testing.T) {
	m := memo.NewMap[int, int]()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Put(i, i*i)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, m.Len())
}

func TestNewCachesPopulatesAllEightCaches(t *testing.T) {
	c := memo.NewCaches()
	require.NotNil(t, c.Mirrors)
	require.NotNil(t, c.Descriptors)
	require.NotNil(t, c.Constructors)
	require.NotNil(t, c.FieldAccessors)
	require.NotNil(t, c.Schemas)
	require.NotNil(t, c.UnionReaders)
	require.NotNil(t, c.Coercers)
	require.NotNil(t, c.Projectors)
}

func TestSchemaKeyDistinguishesGenericFromProjected(t *testing.T) {
	key1 := memo.SchemaKey(wire.NewInt(nil), nil)
	key2 := memo.SchemaKey(wire.NewInt(nil), wire.NewLong(nil))
	assert.NotEqual(t, key1, key2)
}
