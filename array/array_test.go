package array

import (
	"testing"

	"github.com/hupe1980/framecore/alloc"
	"github.com/hupe1980/framecore/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type particle struct {
	X, Y float32
	Life uint16
}

func TestArray_AppendPreservesOrder(t *testing.T) {
	for _, n := range []int{0, 1, 15, 16, 17, 100, 1000} {
		arr, err := New[int](nil, 0)
		require.NoError(t, err)

		for i := range n {
			require.NoError(t, arr.Append(i*3))
			require.GreaterOrEqual(t, arr.Cap(), arr.Len())
		}

		require.Equal(t, n, arr.Len())
		for i := range n {
			assert.Equal(t, i*3, arr.At(i))
		}
	}
}

func TestArray_GrowthDoubles(t *testing.T) {
	arr, err := New[uint32](alloc.NewArenaSize(4096), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, arr.Cap())

	for i := range 5 {
		require.NoError(t, arr.Append(uint32(i)))
	}
	assert.Equal(t, 8, arr.Cap())

	require.NoError(t, arr.AppendSlice(make([]uint32, 40)))
	assert.Equal(t, 45, arr.Len())
	assert.Equal(t, 45, arr.Cap(), "bulk append grows to the needed size")
}

func TestArray_AppendSlot(t *testing.T) {
	arr, err := New[particle](nil, 2)
	require.NoError(t, err)

	i, err := arr.AppendSlot()
	require.NoError(t, err)
	arr.Ref(i).X = 1.5
	arr.Ref(i).Life = 9

	j, err := arr.AppendSlot()
	require.NoError(t, err)
	assert.Equal(t, 1, j)
	assert.Equal(t, particle{}, arr.At(j))

	gen := arr.Generation()
	_, err = arr.AppendSlot()
	require.NoError(t, err)
	assert.NotEqual(t, gen, arr.Generation(), "growth past capacity relocates")
	assert.Equal(t, particle{X: 1.5, Life: 9}, arr.At(i))
}

func TestArray_RemoveLastAndClear(t *testing.T) {
	arr, err := FromSlice(nil, []string{"a", "b", "c"})
	require.NoError(t, err)

	arr.RemoveLast()
	assert.Equal(t, []string{"a", "b"}, arr.Items())

	c := arr.Cap()
	arr.Clear()
	assert.Equal(t, 0, arr.Len())
	assert.Equal(t, c, arr.Cap())

	testutil.RequireViolation(t, func() { arr.RemoveLast() })
}

func TestArray_IndexOf(t *testing.T) {
	arr, err := FromSlice(nil, []int{5, 7, 9, 7})
	require.NoError(t, err)

	assert.Equal(t, 1, IndexOf(arr, 7))
	assert.Equal(t, -1, IndexOf(arr, 8))
	assert.Equal(t, 2, IndexFunc(arr, func(v int) bool { return v > 8 }))
	assert.Equal(t, -1, IndexFunc(arr, func(v int) bool { return v < 0 }))

	// Elements past Len are never matched.
	arr.RemoveLast()
	arr.RemoveLast()
	assert.Equal(t, -1, IndexOf(arr, 9))
}

func TestArray_Slice(t *testing.T) {
	arr, err := FromSlice(nil, []int{0, 1, 2, 3, 4})
	require.NoError(t, err)

	view := arr.Slice(1, 3)
	assert.Equal(t, []int{1, 2}, view)
	assert.Equal(t, 2, cap(view))

	view[0] = 10
	assert.Equal(t, 10, arr.At(1), "views share the buffer")

	assert.Empty(t, arr.Slice(5, 5))
	testutil.RequireViolation(t, func() { arr.Slice(2, 6) })
	testutil.RequireViolation(t, func() { arr.Slice(3, 2) })
}

func TestArray_OutOfRange(t *testing.T) {
	arr, err := New[int](nil, 4)
	require.NoError(t, err)
	require.NoError(t, arr.Append(1))

	testutil.RequireViolation(t, func() { arr.At(1) })
	testutil.RequireViolation(t, func() { arr.Set(-1, 0) })
	testutil.RequireViolation(t, func() { arr.Ref(4) })
}

func TestArray_GrowthFailureLeavesArrayUnchanged(t *testing.T) {
	a := alloc.NewArenaSize(64)
	arr, err := New[uint64](a, 4)
	require.NoError(t, err)
	for i := range 4 {
		require.NoError(t, arr.Append(uint64(i)))
	}
	// Pin the array's buffer so growth has to relocate.
	_, err = a.Allocate(1)
	require.NoError(t, err)

	err = arr.Append(99)
	require.ErrorIs(t, err, alloc.ErrOutOfMemory)
	assert.Equal(t, 4, arr.Len())
	assert.Equal(t, 4, arr.Cap())
	assert.Equal(t, []uint64{0, 1, 2, 3}, arr.Items())
}

func TestArray_PointerTypeOnArena(t *testing.T) {
	_, err := New[string](alloc.NewArenaSize(1024), 4)
	assert.ErrorIs(t, err, alloc.ErrPointerType)
}

func TestArray_FreeReturnsMemory(t *testing.T) {
	a := alloc.NewArenaSize(1024)
	arr, err := New[uint32](a, 8)
	require.NoError(t, err)
	require.NoError(t, arr.AppendSlice([]uint32{1, 2, 3}))

	arr.Free()
	assert.Equal(t, 0, a.Used())
	assert.Equal(t, 0, arr.Len())
	assert.Equal(t, 0, arr.Cap())

	require.NoError(t, arr.Append(4))
	assert.Equal(t, []uint32{4}, arr.Items())
}

func TestArray_HeapAccounting(t *testing.T) {
	h := alloc.NewHeap()
	arr, err := New[uint64](h, 2)
	require.NoError(t, err)
	for i := range 10 {
		require.NoError(t, arr.Append(uint64(i)))
	}
	assert.Equal(t, int64(arr.Cap()*8), h.Stats().BytesInUse)

	arr.Free()
	assert.Equal(t, int64(0), h.Stats().BytesInUse)
}

func BenchmarkArray_Append(b *testing.B) {
	a := alloc.NewArenaSize(1 << 20)

	for b.Loop() {
		a.Clear()
		arr, _ := New[uint64](a, 0)
		for i := range 1024 {
			_ = arr.Append(uint64(i))
		}
	}
}
