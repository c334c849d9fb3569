// Package hashtable implements an open-addressing hash table keyed by short
// byte strings, with linear probing and slots drawn from an alloc.Allocator.
//
// Keys are fixed 64-byte buffers so slots hold no pointers and can live in an
// arena. The empty key marks an empty slot and cannot be inserted.
//
// Inserting a key that is already present is a contract violation; the table
// has no upsert. Add returns a pointer to the zeroed value for the caller to
// fill in:
//
//	t, _ := hashtable.New[Material](frame.Permanent, 0)
//	m, err := t.Add(hashtable.MustKey("brick"))
//	m.Roughness = 0.8
//
// When an insert would take the table past its load factor it grows to the
// next prime above twice the capacity and rehashes, unless the table was
// created WithFixedCapacity, in which case the insert fails with
// ErrTableFull. Removal uses backward-shift deletion, so lookups never need
// tombstones.
package hashtable
