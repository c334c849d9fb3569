package hashtable

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/framecore/alloc"
	"github.com/hupe1980/framecore/internal/contract"
	"github.com/hupe1980/framecore/internal/conv"
)

// DefaultCapacity is the slot count used when New is given a non-positive one.
const DefaultCapacity = 89

// MaxCapacity bounds the slot count so slot indices fit the occupancy bitmap.
const MaxCapacity uint64 = math.MaxUint32

// ErrTableFull is returned when a fixed-capacity table reaches its load factor.
var ErrTableFull = errors.New("hashtable: table full")

type slot[V any] struct {
	key   Key
	value V
}

// Table is an open-addressing hash table with linear probing.
//
// Table is not safe for concurrent use.
type Table[V any] struct {
	slots     []slot[V]
	size      int
	allocator alloc.Allocator
	occupied  *roaring.Bitmap
	opts      options
}

// New creates a table with capacity slots. A nil allocator selects a private
// heap.
func New[V any](a alloc.Allocator, capacity int, opts ...Option) (*Table[V], error) {
	o := options{maxLoad: DefaultMaxLoadFactor}
	for _, opt := range opts {
		opt(&o)
	}

	if a == nil {
		a = alloc.NewHeap()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if uint64(capacity) > MaxCapacity {
		return nil, fmt.Errorf("%w: capacity %d exceeds %d", ErrTableFull, capacity, MaxCapacity)
	}

	slots, err := alloc.MakeSlice[slot[V]](a, capacity)
	if err != nil {
		return nil, fmt.Errorf("hashtable: allocate %d slots: %w", capacity, err)
	}

	return &Table[V]{
		slots:     slots,
		allocator: a,
		occupied:  roaring.New(),
		opts:      o,
	}, nil
}

// Len returns the number of entries.
func (t *Table[V]) Len() int { return t.size }

// Cap returns the number of slots.
func (t *Table[V]) Cap() int { return len(t.slots) }

// LoadFactor returns Len divided by Cap.
func (t *Table[V]) LoadFactor() float64 {
	if len(t.slots) == 0 {
		return 0
	}
	return float64(t.size) / float64(len(t.slots))
}

// Add inserts key and returns a pointer to its zeroed value. The pointer is
// valid until the table grows. Adding a key that is already present, or the
// empty key, is a contract violation.
func (t *Table[V]) Add(key Key) (*V, error) {
	contract.Assert(!key.IsEmpty(), "hashtable: adding the empty key")
	if contract.Enabled && t.find(key) >= 0 {
		contract.Fail("hashtable: duplicate key %q", key.String())
	}

	if t.size >= t.limit(len(t.slots)) {
		if t.opts.fixed {
			return nil, fmt.Errorf("%w: %d entries in %d slots", ErrTableFull, t.size, len(t.slots))
		}
		if err := t.grow(); err != nil {
			return nil, err
		}
	}

	i := t.insert(key)
	return &t.slots[i].value, nil
}

// AddValue inserts key with value v.
func (t *Table[V]) AddValue(key Key, v V) error {
	p, err := t.Add(key)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// GetValue returns a pointer to key's value, or nil if key is absent.
func (t *Table[V]) GetValue(key Key) *V {
	i := t.find(key)
	if i < 0 {
		return nil
	}
	return &t.slots[i].value
}

// Get returns key's value and whether it was present.
func (t *Table[V]) Get(key Key) (V, bool) {
	if p := t.GetValue(key); p != nil {
		return *p, true
	}
	var zero V
	return zero, false
}

// Contains reports whether key is present.
func (t *Table[V]) Contains(key Key) bool {
	return t.find(key) >= 0
}

// Remove deletes key. It reports whether the key was present.
func (t *Table[V]) Remove(key Key) bool {
	i := t.find(key)
	if i < 0 {
		return false
	}

	n := len(t.slots)
	j := i
	for {
		j = (j + 1) % n
		if t.slots[j].key.IsEmpty() {
			break
		}
		// An entry stays put when its home slot lies cyclically in (i, j].
		k := t.home(t.slots[j].key)
		if i <= j {
			if i < k && k <= j {
				continue
			}
		} else if i < k || k <= j {
			continue
		}
		t.slots[i] = t.slots[j]
		t.occupied.Add(bit(i))
		i = j
	}

	t.slots[i] = slot[V]{}
	t.occupied.Remove(bit(i))
	t.size--
	return true
}

// Clear removes every entry and keeps the slot array.
func (t *Table[V]) Clear() {
	it := t.occupied.Iterator()
	for it.HasNext() {
		t.slots[it.Next()] = slot[V]{}
	}
	t.occupied.Clear()
	t.size = 0
}

// Free releases the slot array. The table is empty afterwards and allocates
// again on the next insert.
func (t *Table[V]) Free() {
	alloc.FreeSlice(t.allocator, t.slots)
	t.slots = nil
	t.occupied.Clear()
	t.size = 0
}

// All iterates over the entries in slot order. The table must not be
// modified during iteration.
func (t *Table[V]) All() iter.Seq2[Key, *V] {
	return func(yield func(Key, *V) bool) {
		it := t.occupied.Iterator()
		for it.HasNext() {
			s := &t.slots[it.Next()]
			if !yield(s.key, &s.value) {
				return
			}
		}
	}
}

// limit returns how many entries capacity slots may hold. One slot always
// stays empty so probes terminate.
func (t *Table[V]) limit(capacity int) int {
	return min(int(math.Ceil(float64(capacity)*t.opts.maxLoad)), capacity-1)
}

func (t *Table[V]) home(key Key) int {
	return int(key.Hash() % uint32(len(t.slots)))
}

func (t *Table[V]) find(key Key) int {
	n := len(t.slots)
	if n == 0 || key.IsEmpty() {
		return -1
	}

	i := t.home(key)
	for range n {
		s := &t.slots[i]
		if s.key.IsEmpty() {
			return -1
		}
		if s.key == key {
			return i
		}
		if i++; i == n {
			i = 0
		}
	}
	return -1
}

// insert places key in the first empty slot of its probe sequence. The caller
// guarantees an empty slot exists.
func (t *Table[V]) insert(key Key) int {
	n := len(t.slots)
	i := t.home(key)
	for !t.slots[i].key.IsEmpty() {
		if i++; i == n {
			i = 0
		}
	}

	t.slots[i] = slot[V]{key: key}
	t.occupied.Add(bit(i))
	t.size++
	return i
}

// grow moves the table to NextPrime(2*capacity) slots and rehashes. The live
// entries are staged in a scratch slice allocated after the new slot array,
// so on an arena the scratch is always the top allocation when it is freed.
func (t *Table[V]) grow() error {
	newCap := len(t.slots)
	for t.size >= t.limit(newCap) {
		newCap = NextPrime(2 * max(newCap, 1))
	}
	if uint64(newCap) > MaxCapacity {
		return fmt.Errorf("%w: growth to %d slots exceeds %d", ErrTableFull, newCap, MaxCapacity)
	}

	slots, err := alloc.ResizeSlice(t.allocator, t.slots, newCap)
	if err != nil {
		return fmt.Errorf("hashtable: grow to %d slots: %w", newCap, err)
	}

	scratch, err := alloc.MakeSlice[slot[V]](t.allocator, t.size)
	fromAllocator := err == nil
	if !fromAllocator {
		scratch = make([]slot[V], t.size)
	}

	n := 0
	it := t.occupied.Iterator()
	for it.HasNext() {
		scratch[n] = slots[it.Next()]
		n++
	}

	clear(slots)
	t.slots = slots
	t.occupied.Clear()
	t.size = 0

	for _, s := range scratch[:n] {
		i := t.insert(s.key)
		t.slots[i].value = s.value
	}

	if fromAllocator {
		alloc.FreeSlice(t.allocator, scratch)
	}
	return nil
}

func bit(i int) uint32 {
	u, err := conv.IntToUint32(i)
	contract.Assert(err == nil, "hashtable: slot index %d: %v", i, err)
	return u
}
