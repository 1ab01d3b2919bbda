// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aintsafe

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// mcasStatus is a journal entry's completion state. It only ever moves
// mcasUndefined -> {mcasSuccess, mcasFailure}; once non-undefined it never
// changes again.
type mcasStatus int32

const (
	mcasUndefined mcasStatus = iota
	mcasSuccess
	mcasFailure
)

// mcasOp tags which union case a journalEntry holds. Immutable once the
// entry is constructed.
type mcasOp int32

const (
	mcasOpRead mcasOp = iota
	mcasOpCAS
)

// journalEntry is one in-flight MCAS operation. It is logically scoped to a
// single [MCAS.Read] or [MCAS.CompareExchange] call — constructed at the top
// of the call, linked into the shared journal chain for the call's duration,
// and unlinked before the call returns. It escapes to the heap because it is
// reachable from the journal while linked, but it is never pooled or reused
// across calls, and no two calls ever share one.
//
// Go has no union type; op is the immutable discriminant and only the
// fields for that case are populated, modeling the READ/CAS union as a
// tagged variant instead.
type journalEntry struct {
	next   atomix.Pointer[journalEntry]
	status atomix.Int32 // mcasStatus
	op     mcasOp

	// mcasOpCAS
	expected []uintptr
	desired  []uintptr
	swapping atomix.Bool

	// mcasOpRead
	dest []uintptr
	once []atomix.Bool
}

// MCAS is an interrupt-safe multi-word compare-and-swap engine over a fixed
// array of K machine words.
//
// Every operation — [MCAS.Read] or [MCAS.CompareExchange] — proceeds in
// three phases: append a journal entry describing the operation to the tail
// of the journal chain, walk the whole chain helping every entry whose
// status is still undefined to completion (including entries appended by
// contexts that interrupted this one), then unlink the caller's own entry.
// This "everyone helps everyone" walk is what makes the engine safe under
// nesting: a context that is interrupted between appending and helping
// leaves its entry reachable, so the interrupting context's own help walk
// drives it to completion on the interrupted context's behalf.
//
// MCAS never blocks. Read always succeeds (from the caller's point of view
// there is no contention sentinel); CompareExchange reports false without
// mutating the words if expected did not match.
type MCAS struct {
	words   []atomix.Uintptr
	journal atomix.Pointer[journalEntry]
}

// NewMCAS creates an MCAS engine over the caller-supplied word array. words
// is borrowed, never owned: its lifetime is the caller's responsibility for
// as long as the MCAS is used.
func NewMCAS(words []atomix.Uintptr) *MCAS {
	if len(words) == 0 {
		panic("aintsafe: MCAS requires at least one word")
	}
	return &MCAS{words: words}
}

// Len returns K, the number of words in the array.
func (m *MCAS) Len() int {
	return len(m.words)
}

// link CAS-appends entry to the tail of the journal chain, walking next
// links past nodes that beat us to a slot. Returns the slot (either
// &m.journal or some entry's &next) that now points to entry so execute can
// null it back out on the way out.
func (m *MCAS) link(entry *journalEntry) *atomix.Pointer[journalEntry] {
	slot := &m.journal
	sw := spin.Wait{}
	for {
		if slot.CompareAndSwapAcqRel(nil, entry) {
			return slot
		}
		next := slot.LoadAcquire()
		slot = &next.next
		sw.Once()
	}
}

// completeCAS drives one CAS journal entry to a terminal status: compare,
// then store. The strong CAS on failure is required so a helper that has
// already observed success elsewhere never overwrites it with a failure.
func (m *MCAS) completeCAS(entry *journalEntry) {
	if mcasStatus(entry.status.LoadAcquire()) != mcasUndefined {
		return
	}
	if !entry.swapping.LoadAcquire() {
		for i := range m.words {
			if m.words[i].LoadAcquire() != entry.expected[i] {
				entry.status.CompareAndSwapAcqRel(int32(mcasUndefined), int32(mcasFailure))
				return
			}
		}
		entry.swapping.StoreRelease(true)
	}
	for i := range m.words {
		m.words[i].StoreRelease(entry.desired[i])
	}
	entry.status.StoreRelease(int32(mcasSuccess))
}

// completeRead drives one read journal entry to a terminal status using a
// per-word one-shot flag: the first helper to claim word i's flag owns the
// write of dest[i]. Every other helper's observation of data[i] is
// discarded.
//
// Linearization proof obligation: the value completeRead assigns to
// dest[i] is whatever words[i] held at some instant before any CAS that has
// not yet completed its phase-2 store advanced past word i. Because every
// CAS's phase-2 unconditionally stores all of desired (never a subset), once
// any helper observes one word of a given CAS's desired values, every
// earlier word of that same CAS must already have completed its own store
// too — so the composed dest[] vector is the state of the array at a single
// instant between two adjacent successful CASes, never a value that mixes
// the before-state of one CAS with the after-state of another.
func (m *MCAS) completeRead(entry *journalEntry) {
	if mcasStatus(entry.status.LoadAcquire()) != mcasUndefined {
		return
	}
	for i := range m.words {
		v := m.words[i].LoadAcquire()
		if entry.once[i].CompareAndSwapAcqRel(false, true) {
			entry.dest[i] = v
		}
	}
	entry.status.StoreRelease(int32(mcasSuccess))
}

func (m *MCAS) complete(entry *journalEntry) {
	switch entry.op {
	case mcasOpRead:
		m.completeRead(entry)
	case mcasOpCAS:
		m.completeCAS(entry)
	}
}

// execute runs the append/help/unlink protocol common to Read and
// CompareExchange.
func (m *MCAS) execute(entry *journalEntry) {
	prevSlot := m.link(entry)
	for j := m.journal.LoadAcquire(); j != nil; j = j.next.LoadAcquire() {
		m.complete(j)
	}
	// entry.next must be nil here: every appending context unlinks its own
	// entry before returning, so by the time we walk back to ourselves
	// nothing downstream of us is still linked.
	prevSlot.StoreRelease(entry.next.LoadAcquire())
}

// Read produces a snapshot of the K words into dest, linearizable against
// any completed or concurrently helping CompareExchange. len(dest) must
// equal [MCAS.Len]. Read always succeeds.
func (m *MCAS) Read(dest []uintptr) {
	if len(dest) != len(m.words) {
		panic("aintsafe: MCAS.Read: dest length must equal Len()")
	}
	entry := &journalEntry{
		op:   mcasOpRead,
		dest: dest,
		once: make([]atomix.Bool, len(m.words)),
	}
	m.execute(entry)
}

// CompareExchange atomically replaces all K words with desired iff every
// word currently equals the corresponding entry of expected. Reports
// whether the swap happened. On failure, the words are left untouched and
// expected is not updated with the observed values.
func (m *MCAS) CompareExchange(expected, desired []uintptr) bool {
	if len(expected) != len(m.words) || len(desired) != len(m.words) {
		panic("aintsafe: MCAS.CompareExchange: expected/desired length must equal Len()")
	}
	entry := &journalEntry{
		op:       mcasOpCAS,
		expected: expected,
		desired:  desired,
	}
	m.execute(entry)
	return mcasStatus(entry.status.LoadAcquire()) == mcasSuccess
}
