// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aintsafe

import "code.hybscloud.com/atomix"

// Bag is a fixed-capacity freelist allocator over a caller-supplied slot
// array: N slots, a parallel per-slot occupied flag, and a signed n_free
// counter.
//
// A double Release corrupts the bag — n_free is incremented without a
// slot actually becoming free, which can make a subsequent Acquire's flag
// scan loop forever. Bag does not guard against this; it is the caller's
// responsibility.
type Bag[T any] struct {
	data     []T
	occupied []atomix.Bool
	nFree    atomix.Int32
}

// NewBag creates a Bag over the caller-supplied slot array. data is
// borrowed, never owned. Unlike the original membag.c, there is no
// separate init step: the zero value of every atomix field here is already
// the bag's at-rest state (all flags clear), so construction and
// initialization are one step.
func NewBag[T any](data []T) *Bag[T] {
	if len(data) == 0 {
		panic("aintsafe: Bag requires at least one slot")
	}
	b := &Bag[T]{
		data:     data,
		occupied: make([]atomix.Bool, len(data)),
	}
	b.nFree.StoreRelaxed(int32(len(data)))
	return b
}

// Cap returns N, the number of slots in the bag.
func (b *Bag[T]) Cap() int {
	return len(b.data)
}

// Acquire reserves a free slot. Returns ErrWouldBlock if the bag is
// exhausted. The decrement-then-undo-on-failure step guarantees a clear
// flag exists before the scan starts, so the scan itself never needs to
// give up.
func (b *Bag[T]) Acquire() (*T, error) {
	if b.nFree.AddAcqRel(-1) < 0 {
		b.nFree.AddAcqRel(1)
		return nil, ErrWouldBlock
	}
	for i := 0; ; i = (i + 1) % len(b.data) {
		if b.occupied[i].CompareAndSwapAcqRel(false, true) {
			return &b.data[i], nil
		}
	}
}

// Release returns a slot acquired by Acquire. A nil slot is a no-op.
func (b *Bag[T]) Release(slot *T) {
	if slot == nil {
		return
	}
	idx := slotIndex(b.data, slot)
	b.occupied[idx].StoreRelease(false)
	b.nFree.AddAcqRel(1)
}
