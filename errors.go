// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aintsafe

import "code.hybscloud.com/iox"

// ErrWouldBlock indicates an acquire operation cannot proceed immediately.
//
// For [Queue.WriteAcquire]: the ring has no writable slot (full).
// For [Queue.ReadAcquire]: the ring has no readable slot (empty).
// For [Bag.Acquire]: the bag has no free slot.
//
// [DoubleBuffer.WriteAcquire] does not use it: it returns a nil slot when
// another writer already holds the write lock.
//
// ErrWouldBlock is a control flow signal, not a failure: some other context
// (an interrupt that nested in ahead of the caller, or a peer that has not
// yet released its slot) currently holds the resource. The caller should
// retry at its own discretion rather than treat this as an error to
// propagate.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
//
// Example:
//
//	backoff := iox.Backoff{}
//	for {
//	    slot, err := q.WriteAcquire()
//	    if err == nil {
//	        break
//	    }
//	    if aintsafe.IsWouldBlock(err) {
//	        backoff.Wait()
//	        continue
//	    }
//	    return err // unexpected error
//	}
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil or ErrWouldBlock.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
