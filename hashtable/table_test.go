package hashtable

import (
	"fmt"
	"math"
	"strconv"
	"testing"
	"unsafe"

	"github.com/hupe1980/framecore/alloc"
	"github.com/hupe1980/framecore/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(t testing.TB, ss []string) []Key {
	t.Helper()
	out := make([]Key, len(ss))
	for i, s := range ss {
		k, err := NewKey(s)
		require.NoError(t, err)
		out[i] = k
	}
	return out
}

// colliding returns n keys whose home slot is home in a table of capacity.
func colliding(n, capacity, home int) []Key {
	var out []Key
	for i := 0; len(out) < n; i++ {
		k := MustKey(fmt.Sprintf("k%d", i))
		if int(k.Hash()%uint32(capacity)) == home {
			out = append(out, k)
		}
	}
	return out
}

func TestTable_AddGet(t *testing.T) {
	tbl, err := New[int](nil, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCapacity, tbl.Cap())

	v, err := tbl.Add(MustKey("diffuse"))
	require.NoError(t, err)
	*v = 3
	require.NoError(t, tbl.AddValue(MustKey("normal"), 7))

	assert.Equal(t, 3, *tbl.GetValue(MustKey("diffuse")))
	got, ok := tbl.Get(MustKey("normal"))
	assert.True(t, ok)
	assert.Equal(t, 7, got)

	assert.Nil(t, tbl.GetValue(MustKey("specular")))
	_, ok = tbl.Get(MustKey("specular"))
	assert.False(t, ok)
	assert.False(t, tbl.Contains(Key{}))
	assert.Equal(t, 2, tbl.Len())
}

func TestTable_DuplicateKeyViolation(t *testing.T) {
	tbl, err := New[int](nil, 0)
	require.NoError(t, err)
	require.NoError(t, tbl.AddValue(MustKey("dup"), 1))

	testutil.RequireViolation(t, func() { _, _ = tbl.Add(MustKey("dup")) })
	testutil.RequireViolation(t, func() { _, _ = tbl.Add(Key{}) })
}

func TestTable_FixedCapacity(t *testing.T) {
	rng := testutil.NewRNG(4711)
	tbl, err := New[uint32](nil, DefaultCapacity, WithFixedCapacity())
	require.NoError(t, err)

	limit := int(math.Ceil(0.7 * DefaultCapacity))
	ks := keys(t, rng.DistinctKeys(limit+1, 12))

	for i, k := range ks[:limit] {
		require.NoError(t, tbl.AddValue(k, uint32(i)), "insert %d of %d", i+1, limit)
	}
	for i, k := range ks[:limit] {
		v := tbl.GetValue(k)
		require.NotNil(t, v)
		assert.Equal(t, uint32(i), *v)
	}

	err = tbl.AddValue(ks[limit], 0)
	assert.ErrorIs(t, err, ErrTableFull)
	assert.Equal(t, limit, tbl.Len())
	assert.Equal(t, DefaultCapacity, tbl.Cap())
}

func TestTable_CapacityBeyondMax(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("int cannot exceed MaxCapacity")
	}

	limit := MaxCapacity
	_, err := New[uint8](nil, int(limit)+1)
	require.ErrorIs(t, err, ErrTableFull)
	assert.Contains(t, err.Error(), "exceeds 4294967295")
}

func TestTable_GrowRehashes(t *testing.T) {
	rng := testutil.NewRNG(42)
	tbl, err := New[int](nil, 0)
	require.NoError(t, err)

	ks := keys(t, rng.DistinctKeys(2000, 16))
	for i, k := range ks {
		require.NoError(t, tbl.AddValue(k, i))
		require.LessOrEqual(t, tbl.Len(), int(math.Ceil(DefaultMaxLoadFactor*float64(tbl.Cap()))))
	}

	assert.Equal(t, len(ks), tbl.Len())
	assert.True(t, isPrime(tbl.Cap()))
	for i, k := range ks {
		v, ok := tbl.Get(k)
		require.True(t, ok, "lost key %q", k.String())
		assert.Equal(t, i, v)
	}
	assert.Nil(t, tbl.GetValue(MustKey("never-inserted-key-with-a-long-name")))
}

func TestTable_GrowOnArena(t *testing.T) {
	a := alloc.NewArenaSize(1 << 20)
	tbl, err := New[uint64](a, 7)
	require.NoError(t, err)

	for i := range 300 {
		require.NoError(t, tbl.AddValue(MustKey(fmt.Sprintf("mesh/%d", i)), uint64(i)))
	}
	for i := range 300 {
		v, ok := tbl.Get(MustKey(fmt.Sprintf("mesh/%d", i)))
		require.True(t, ok)
		assert.Equal(t, uint64(i), v)
	}

	// The slot array grew in place and every scratch copy was released.
	assert.Equal(t, tbl.Cap()*int(unsafe.Sizeof(slot[uint64]{})), a.Used())

	tbl.Free()
	assert.Equal(t, 0, a.Used())
}

func TestTable_GrowFailure(t *testing.T) {
	a := alloc.NewArenaSize(int(unsafe.Sizeof(slot[uint64]{})) * 7)
	tbl, err := New[uint64](a, 7)
	require.NoError(t, err)

	var lastErr error
	for i := 0; lastErr == nil; i++ {
		lastErr = tbl.AddValue(MustKey(fmt.Sprintf("k%d", i)), uint64(i))
	}
	assert.ErrorIs(t, lastErr, alloc.ErrOutOfMemory)
	assert.Equal(t, 7, tbl.Cap())
	for i := range tbl.Len() {
		assert.True(t, tbl.Contains(MustKey(fmt.Sprintf("k%d", i))))
	}
}

func TestTable_PointerValuesNeedHeap(t *testing.T) {
	_, err := New[string](alloc.NewArenaSize(1<<16), 0)
	assert.ErrorIs(t, err, alloc.ErrPointerType)

	tbl, err := New[string](alloc.NewHeap(), 0)
	require.NoError(t, err)
	require.NoError(t, tbl.AddValue(MustKey("shader"), "pbr.glsl"))
	got, _ := tbl.Get(MustKey("shader"))
	assert.Equal(t, "pbr.glsl", got)
}

func TestTable_ProbeWrapsAround(t *testing.T) {
	const capacity = 11
	tbl, err := New[int](nil, capacity, WithFixedCapacity())
	require.NoError(t, err)

	ks := colliding(4, capacity, capacity-1)
	for i, k := range ks {
		require.NoError(t, tbl.AddValue(k, i))
	}
	for i, k := range ks {
		v, ok := tbl.Get(k)
		require.True(t, ok)
		assert.Equal(t, i, v)
	}

	assert.Equal(t, 4, tbl.Len())
	assert.NotNil(t, tbl.GetValue(ks[3]))
	assert.Nil(t, tbl.GetValue(colliding(5, capacity, capacity-1)[4]))
}

func TestTable_RemoveBackwardShift(t *testing.T) {
	const capacity = 11
	tbl, err := New[int](nil, capacity, WithFixedCapacity())
	require.NoError(t, err)

	chain := colliding(3, capacity, capacity-2)
	other := colliding(1, capacity, 0)[0]
	for i, k := range chain {
		require.NoError(t, tbl.AddValue(k, i))
	}
	require.NoError(t, tbl.AddValue(other, 99))

	// Removing the head of a wrapped chain must keep the rest reachable.
	assert.True(t, tbl.Remove(chain[0]))
	assert.False(t, tbl.Remove(chain[0]))
	assert.Nil(t, tbl.GetValue(chain[0]))

	for i, k := range chain[1:] {
		v, ok := tbl.Get(k)
		require.True(t, ok)
		assert.Equal(t, i+1, v)
	}
	v, ok := tbl.Get(other)
	require.True(t, ok)
	assert.Equal(t, 99, v)
	assert.Equal(t, 3, tbl.Len())
}

func TestTable_RemoveMatchesMap(t *testing.T) {
	rng := testutil.NewRNG(7)
	tbl, err := New[int](nil, 13)
	require.NoError(t, err)

	pool := keys(t, rng.DistinctKeys(64, 3))
	model := make(map[Key]int)

	for op := range 5000 {
		k := pool[rng.Intn(len(pool))]
		_, present := model[k]

		switch rng.Intn(3) {
		case 0, 1:
			if present {
				continue
			}
			require.NoError(t, tbl.AddValue(k, op))
			model[k] = op
		case 2:
			assert.Equal(t, present, tbl.Remove(k))
			delete(model, k)
		}

		require.Equal(t, len(model), tbl.Len())
	}

	for _, k := range pool {
		want, present := model[k]
		got, ok := tbl.Get(k)
		assert.Equal(t, present, ok, "key %q", k.String())
		assert.Equal(t, want, got)
	}
}

func TestTable_ClearAndAll(t *testing.T) {
	tbl, err := New[int](nil, 0)
	require.NoError(t, err)

	want := map[string]int{"a": 1, "b": 2, "c": 3}
	for k, v := range want {
		require.NoError(t, tbl.AddValue(MustKey(k), v))
	}

	got := make(map[string]int)
	for k, v := range tbl.All() {
		got[k.String()] = *v
		*v *= 10
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 20, *tbl.GetValue(MustKey("b")))

	n := 0
	for range tbl.All() {
		n++
		break
	}
	assert.Equal(t, 1, n)

	c := tbl.Cap()
	tbl.Clear()
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, c, tbl.Cap())
	assert.Nil(t, tbl.GetValue(MustKey("a")))

	require.NoError(t, tbl.AddValue(MustKey("a"), 5))
	assert.Equal(t, 1, tbl.Len())
}

func BenchmarkTable_GetValue(b *testing.B) {
	rng := testutil.NewRNG(4711)
	tbl, _ := New[int](nil, 0)
	ks := keys(b, rng.DistinctKeys(10000, 24))
	for i, k := range ks {
		_ = tbl.AddValue(k, i)
	}

	for b.Loop() {
		_ = tbl.GetValue(ks[rng.Zipf(len(ks), 1.2)])
	}
}
