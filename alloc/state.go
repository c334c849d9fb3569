package alloc

import (
	"slices"

	"github.com/hupe1980/framecore/internal/contract"
)

// State is a checkpoint of an arena's cursor. It is only meaningful for the
// arena that produced it and can be restored once.
type State struct {
	Used              int
	LastAllocatedSize int

	owner *Arena
	id    uint64
}

// SaveState records the current cursor.
func (a *Arena) SaveState() State {
	a.nextID++
	a.open = append(a.open, a.nextID)
	return State{
		Used:              a.used,
		LastAllocatedSize: a.lastSize,
		owner:             a,
		id:                a.nextID,
	}
}

// LoadState rewinds the cursor to s, releasing everything allocated since s
// was saved. Restoring consumes s together with every checkpoint saved after
// it, so the open checkpoints never outnumber the nesting depth.
func (a *Arena) LoadState(s State) {
	contract.Assert(s.owner == a, "arena: restoring a checkpoint taken from another arena")

	i := slices.Index(a.open, s.id)
	contract.Assert(i >= 0, "arena: restoring a checkpoint that was already restored or superseded")
	contract.Assert(s.Used <= a.used, "arena: restoring checkpoint at %d past the current cursor %d", s.Used, a.used)

	if i >= 0 {
		a.open = a.open[:i]
	}
	a.rewind(min(s.Used, len(a.buf)))
	a.lastSize = s.LastAllocatedSize
}

// Scoped runs fn between a checkpoint and its restore, so every allocation fn
// makes from a is released when it returns.
func Scoped(a *Arena, fn func() error) error {
	s := a.SaveState()
	defer a.LoadState(s)
	return fn()
}
