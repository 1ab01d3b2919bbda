// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aintsafe

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Order is a commit/release discipline for a [Queue].
type Order int

const (
	// Nested tolerates out-of-order commits and releases: a committer
	// whose slot is not the oldest outstanding one silently no-ops,
	// leaving the advance to whichever committer currently sits at the
	// edge — it will drain the contiguous run of already-finished inner
	// commits across in one step when it arrives. This is what makes
	// commit/release themselves safe to call from a context that nests
	// inside another in-flight commit.
	Nested Order = iota
	// FCFS requires commits and releases to happen in the same order
	// slots were acquired. One MCAS round trip, no draining walk — but
	// only safe when callers never nest a commit inside another
	// outstanding acquire/commit pair for the same queue.
	FCFS
)

// Word indices into a Queue's 6-word MCAS vector.
const (
	idxWriteAllocated = 0
	idxWriteCommitted = 1
	idxReadAcquired   = 2
	idxReadReleased   = 3
	idxCountWritable  = 4
	idxCountReadable  = 5
	queueWords        = 6
)

// Queue is a bounded nested multi-producer multi-consumer ring buffer of N
// slots whose entire state — two index pairs and their two counters — lives
// in a 6-word [MCAS] vector. Every acquire reads the vector, computes an
// advanced copy, and installs it with one [MCAS.CompareExchange]; a failed
// install just means another context (nested or not) won the race, and the
// caller retries against a fresh read.
//
// WriteAcquire/WriteCommit and ReadAcquire/ReadRelease are deliberately
// separate steps: acquire hands back a pointer directly into the ring so
// the caller fills or reads the slot in place, then commit/release folds
// that slot back into the readable/writable side. This is unlike a
// copy-in/copy-out Enqueue/Dequeue — there is no intermediate copy, and the
// slot remains owned by the caller between acquire and commit/release.
type Queue[T any] struct {
	data       []T
	mcas       *MCAS
	writeOrder Order
	readOrder  Order
}

// NewQueue creates a Queue over the caller-supplied slot array, with the
// given commit and release disciplines. data is borrowed, never owned.
func NewQueue[T any](data []T, writeOrder, readOrder Order) *Queue[T] {
	if len(data) == 0 {
		panic("aintsafe: Queue requires at least one slot")
	}
	words := make([]atomix.Uintptr, queueWords)
	words[idxCountWritable].StoreRelaxed(uintptr(len(data)))
	return &Queue[T]{
		data:       data,
		mcas:       NewMCAS(words),
		writeOrder: writeOrder,
		readOrder:  readOrder,
	}
}

// Cap returns N, the number of slots in the ring.
func (q *Queue[T]) Cap() int {
	return len(q.data)
}

func (q *Queue[T]) readVector() [queueWords]uintptr {
	var v [queueWords]uintptr
	q.mcas.Read(v[:])
	return v
}

// acquire advances idxAdvance by one slot (mod N) and decrements idxCount,
// iff idxCount was nonzero. Shared by WriteAcquire and ReadAcquire.
func (q *Queue[T]) acquire(idxAdvance, idxCount int) (uintptr, bool) {
	n := uintptr(len(q.data))
	sw := spin.Wait{}
	for {
		vec := q.readVector()
		if vec[idxCount] == 0 {
			return 0, false
		}
		cur := vec[idxAdvance]
		next := vec
		next[idxAdvance] = (cur + 1) % n
		next[idxCount] = vec[idxCount] - 1
		if q.mcas.CompareExchange(vec[:], next[:]) {
			return cur, true
		}
		sw.Once()
	}
}

// WriteAcquire reserves the next writable slot. Returns ErrWouldBlock if
// COUNT_WRITABLE is zero (the ring is full).
func (q *Queue[T]) WriteAcquire() (*T, error) {
	idx, ok := q.acquire(idxWriteAllocated, idxCountWritable)
	if !ok {
		return nil, ErrWouldBlock
	}
	return &q.data[idx], nil
}

// ReadAcquire reserves the next readable slot. Returns ErrWouldBlock if
// COUNT_READABLE is zero (the ring is empty).
func (q *Queue[T]) ReadAcquire() (*T, error) {
	idx, ok := q.acquire(idxReadAcquired, idxCountReadable)
	if !ok {
		return nil, ErrWouldBlock
	}
	return &q.data[idx], nil
}

// commit is shared by WriteCommit and ReadRelease: idxEdge is the
// committed/released index the caller's slot must currently sit at;
// idxLimit is the allocated/acquired index bounding how far idxEdge may
// advance; idxCount receives the advance. If slot is not at idxEdge the
// call silently no-ops under both disciplines — under Nested this is the
// documented behavior (the outer committer will carry this slot across);
// under FCFS a caller that commits out of order has violated the
// discipline's precondition and the result is undefined, but this port
// still declines to mutate the vector from a stale read rather than risk
// corrupting the ring.
func (q *Queue[T]) commit(slot *T, idxEdge, idxLimit, idxCount int, order Order) {
	if slot == nil {
		return
	}
	n := uintptr(len(q.data))
	slotIdx := uintptr(slotIndex(q.data, slot))
	sw := spin.Wait{}
	for {
		vec := q.readVector()
		if vec[idxEdge] != slotIdx {
			return
		}
		next := vec
		switch order {
		case FCFS:
			next[idxEdge] = (vec[idxEdge] + 1) % n
			next[idxCount] = vec[idxCount] + 1
		default: // Nested
			limit := vec[idxLimit]
			advance := (limit - vec[idxEdge] + n) % n
			if advance == 0 {
				// The caller's own slot sits at the edge and is still in
				// flight, so a zero distance means all N slots are in
				// flight, not none.
				advance = n
			}
			next[idxEdge] = limit
			next[idxCount] = vec[idxCount] + advance
		}
		if q.mcas.CompareExchange(vec[:], next[:]) {
			return
		}
		sw.Once()
	}
}

// WriteCommit commits a slot acquired by WriteAcquire, making it (and any
// contiguous run of already-committed slots waiting behind it, under
// Nested) visible to readers. A nil slot (from a failed WriteAcquire) is a
// no-op.
func (q *Queue[T]) WriteCommit(slot *T) {
	q.commit(slot, idxWriteCommitted, idxWriteAllocated, idxCountReadable, q.writeOrder)
}

// ReadRelease releases a slot acquired by ReadAcquire, making it (and any
// contiguous run already released behind it, under Nested) available to
// writers again. A nil slot is a no-op.
func (q *Queue[T]) ReadRelease(slot *T) {
	q.commit(slot, idxReadReleased, idxReadAcquired, idxCountWritable, q.readOrder)
}

// Iterator walks a snapshot of a Queue's readable or writable region,
// returning one slot pointer at a time. It does not itself provide mutual
// exclusion: the caller is responsible for ensuring no other agent is
// acquiring, committing, or releasing slots within the same region while
// the iterator is in use.
type Iterator[T any] struct {
	q         *Queue[T]
	idx       uintptr
	remaining uintptr
}

// ReadableIter snapshots the queue's index vector and returns an iterator
// over the slots that are committed but not yet acquired for reading.
func (q *Queue[T]) ReadableIter() *Iterator[T] {
	vec := q.readVector()
	return &Iterator[T]{q: q, idx: vec[idxReadAcquired], remaining: vec[idxCountReadable]}
}

// WritableIter snapshots the queue's index vector and returns an iterator
// over the slots that are released but not yet allocated for writing.
func (q *Queue[T]) WritableIter() *Iterator[T] {
	vec := q.readVector()
	return &Iterator[T]{q: q, idx: vec[idxWriteAllocated], remaining: vec[idxCountWritable]}
}

// Next returns the next slot in the iteration, or (nil, false) once
// exhausted.
func (it *Iterator[T]) Next() (*T, bool) {
	if it.remaining == 0 {
		return nil, false
	}
	slot := &it.q.data[it.idx]
	it.idx = (it.idx + 1) % uintptr(len(it.q.data))
	it.remaining--
	return slot, true
}
