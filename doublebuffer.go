// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aintsafe

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// DoubleBuffer delivers the most recently committed value of a two-slot
// array to any number of nested readers, with at most one writer in flight
// at a time.
//
// At rest, selectedRead and nextRead both address the same slot; the other
// slot belongs to whichever writer (if any) currently holds write_lock.
// While n_readers > 0, the slot selectedRead addresses is never written.
type DoubleBuffer[T any] struct {
	slots        *[2]T
	selectedRead atomix.Pointer[T]
	nextRead     atomix.Pointer[T]
	nReaders     atomix.Int32
	writeLock    atomix.Bool
}

// NewDoubleBuffer creates a DoubleBuffer over the caller-supplied two-slot
// array. slots is borrowed, never owned.
func NewDoubleBuffer[T any](slots *[2]T) *DoubleBuffer[T] {
	db := &DoubleBuffer[T]{slots: slots}
	db.selectedRead.StoreRelaxed(&slots[0])
	db.nextRead.StoreRelaxed(&slots[0])
	return db
}

// WriteAcquire acquires the slot not currently visible to readers. Returns
// nil if another writer already holds the lock.
func (db *DoubleBuffer[T]) WriteAcquire() *T {
	if !db.writeLock.CompareAndSwapAcqRel(false, true) {
		return nil
	}
	// Quiesce: bring nextRead to the slot readers currently see, so that a
	// reader arriving after this point cannot be pinning the other slot.
	// Looped because a nested writer context cannot exist here (write_lock
	// excludes it), but a nested reader can change selected_read between
	// our load and our exchange.
	var last *T
	sw := spin.Wait{}
	for {
		last = db.selectedRead.LoadAcquire()
		if old := db.nextRead.SwapAcqRel(last); old == last {
			break
		}
		sw.Once()
	}
	if last == &db.slots[0] {
		return &db.slots[1]
	}
	return &db.slots[0]
}

// WriteCommit publishes the slot acquired by WriteAcquire to future readers
// and releases the write lock. A nil slot (from a failed WriteAcquire) is a
// complete no-op, including leaving the write lock untouched — it was never
// this caller's lock to release.
func (db *DoubleBuffer[T]) WriteCommit(slot *T) {
	if slot == nil {
		return
	}
	db.nextRead.StoreRelease(slot)
	db.writeLock.StoreRelease(false)
}

// ReadAcquire returns the current slot. The first reader to arrive after
// n_readers transitions 0->1 is responsible for adopting the most recently
// committed slot into selected_read; every other concurrent or nested
// reader just observes whatever selected_read ends up holding.
func (db *DoubleBuffer[T]) ReadAcquire() *T {
	if db.nReaders.AddAcqRel(1) == 1 {
		// Looped because a nested writer can change next_read between our
		// load and our exchange; the writer changes it at most once per
		// critical section, so this converges within the interrupt nesting
		// depth.
		sw := spin.Wait{}
		for {
			candidate := db.nextRead.LoadAcquire()
			if old := db.selectedRead.SwapAcqRel(candidate); old == candidate {
				break
			}
			sw.Once()
		}
	}
	return db.selectedRead.LoadAcquire()
}

// ReadRelease releases a slot acquired by ReadAcquire. The slot argument is
// informational only: all active readers share the same selected_read
// slot, so there is nothing per-reader to release beyond the count.
func (db *DoubleBuffer[T]) ReadRelease(slot *T) {
	db.nReaders.AddAcqRel(-1)
}
