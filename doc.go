// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package aintsafe provides async-interrupt-safe, statically-allocated,
// lock-free container primitives for single-CPU embedded systems, where an
// operation may be pre-empted at any point by a higher-priority interrupt
// handler that invokes the same primitive — possibly the same operation,
// possibly nested arbitrarily deep before control ever returns to the
// interrupted context.
//
// The design target is nesting safety, not multi-core (SMP) scaling: at
// every instruction boundary a primitive's state must stay well-formed
// enough that an interrupting context can complete its own call and leave
// the interrupted context able to finish correctly once it resumes. No
// primitive here ever spins waiting for another context to make progress;
// an operation that cannot proceed because some other context currently
// holds what it needs returns immediately, with [ErrWouldBlock] (or, for
// [DoubleBuffer.WriteAcquire], a nil slot).
//
// # Components
//
//   - [MCAS]: multi-word compare-and-swap over a fixed array of machine
//     words, via a cooperative intent-log "journal" — every context about to
//     act first helps finish every other in-flight operation it can see,
//     including ones left behind by a context it interrupted.
//   - [Queue]: a bounded ring layered on an MCAS vector, with separate
//     acquire and commit/release steps and two ordering disciplines,
//     [Nested] and [FCFS].
//   - [DoubleBuffer]: delivers the most recently committed value of a
//     two-slot array to any number of nested readers, one writer at a time.
//   - [Bag]: a fixed-capacity freelist allocator over a caller-supplied slot
//     array.
//   - [Node], [Next], [Append], [DeleteAfter]: an intrusive singly-linked
//     list with a per-node deleting flag standing in for a lock.
//
// All storage — the element slice, the two-slot array, the bag's data
// array — is supplied and owned by the caller. A primitive's own struct
// holds only bookkeeping words and pointers back into that storage, never
// the storage itself.
//
// # Quick Start
//
//	var data [1024]Event
//	q := aintsafe.NewQueue[Event](data[:], aintsafe.Nested, aintsafe.Nested)
//
//	slot, err := q.WriteAcquire()
//	if err == nil {
//	    *slot = someEvent
//	    q.WriteCommit(slot)
//	}
//
//	slot, err = q.ReadAcquire()
//	if err == nil {
//	    process(*slot)
//	    q.ReadRelease(slot)
//	}
//
// # Common Patterns
//
// Interrupt handler feeding a background task (Queue):
//
//	var ringData [256]Sample
//	ring := aintsafe.NewQueue[Sample](ringData[:], aintsafe.Nested, aintsafe.Nested)
//
//	// ISR context — never blocks, drops the sample if the ring is full.
//	func onSampleReady(s Sample) {
//	    slot, err := ring.WriteAcquire()
//	    if err != nil {
//	        return
//	    }
//	    *slot = s
//	    ring.WriteCommit(slot)
//	}
//
//	// Background task
//	for {
//	    slot, err := ring.ReadAcquire()
//	    if err != nil {
//	        continue
//	    }
//	    handle(*slot)
//	    ring.ReadRelease(slot)
//	}
//
// Latest-configuration hand-off (DoubleBuffer):
//
//	var slots [2]Config
//	cfg := aintsafe.NewDoubleBuffer[Config](&slots)
//
//	// Writer, e.g. a config-reload handler
//	if slot := cfg.WriteAcquire(); slot != nil {
//	    *slot = loadConfig()
//	    cfg.WriteCommit(slot)
//	}
//
//	// Any number of nested readers, including from an interrupt handler
//	// that fires mid-read of the outer context's own slot.
//	current := cfg.ReadAcquire()
//	use(*current)
//	cfg.ReadRelease(current)
//
// Fixed-size object pool (Bag):
//
//	var storage [64]Packet
//	pool := aintsafe.NewBag[Packet](storage[:])
//
//	pkt, err := pool.Acquire()
//	if err != nil {
//	    return aintsafe.ErrWouldBlock
//	}
//	defer pool.Release(pkt)
//
// Free list threaded through intrusive nodes (Node):
//
//	type Buffer struct {
//	    node aintsafe.Node
//	    data [4096]byte
//	}
//
//	var head aintsafe.Node
//	aintsafe.Append(&head, &buffers[0].node)
//	next, ok := aintsafe.DeleteAfter(&head, &buffers[0].node)
//
// # Error Handling
//
// An acquire with no free slot ([Queue.WriteAcquire], [Queue.ReadAcquire],
// [Bag.Acquire]) surfaces as [ErrWouldBlock]; a double buffer write acquire
// that loses the write-lock race returns a nil slot instead. Either way this
// is a control-flow signal, not a failure: some other
// context currently holds the resource, and the caller decides whether and
// how to retry.
//
//	backoff := iox.Backoff{}
//	for {
//	    slot, err := q.WriteAcquire()
//	    if err == nil {
//	        break
//	    }
//	    if !aintsafe.IsWouldBlock(err) {
//	        return err
//	    }
//	    backoff.Wait()
//	}
//
// For semantic error classification (delegates to iox):
//
//	aintsafe.IsWouldBlock(err)  // true if a slot/lock was unavailable
//	aintsafe.IsSemantic(err)    // true if a control-flow signal, not a fault
//	aintsafe.IsNonFailure(err)  // true if nil or ErrWouldBlock
//
// A commit or release called with a slot that does not sit at the
// committed/released edge is a different kind of non-failure: under
// [Nested] order on a [Queue] it is the documented behavior — the slot is
// silently folded in once the context currently at the edge commits or
// releases and drains the contiguous run behind it. Under [FCFS] a caller
// that commits out of order has broken that discipline's precondition, and
// this package declines to mutate the ring from a stale read rather than
// risk corrupting it.
//
// # Nesting, Not SMP
//
// These primitives target a single logical CPU whose only source of
// concurrency is interrupt nesting: a handler runs to completion before the
// context it interrupted resumes. They do not claim true multi-core (SMP)
// correctness, do not prevent priority inversion, and do not guarantee
// starvation freedom under an adversarial scheduler — all explicitly out of
// scope. Every retry loop in this package terminates because the
// adversary — a nested handler — always finishes and unwinds before control
// returns to the loop, bounded by the interrupt nesting depth.
//
// # Race Detection
//
// Go's race detector tracks explicit synchronization primitives (mutex,
// channel, WaitGroup) but cannot observe the happens-before relationships
// these primitives build entirely out of acquire-release atomics on
// separate words. The nesting-simulation tests in this package coordinate
// goroutines with real channel synchronization so the race detector can
// follow them; a handful of stress tests that rely purely on atomix's
// explicit orderings are skipped when [RaceEnabled] is true, since the race
// detector would flag correct interleavings it cannot reason about.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit memory
// ordering, and [code.hybscloud.com/spin] for CPU pause instructions in
// retry loops.
package aintsafe
