// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aintsafe

import "unsafe"

// slotIndex returns the index of slot within base, assuming slot points into
// base's backing array. Used by [Bag.Release] to recover a slot's index from
// the pointer the caller hands back, mirroring membag.c's
// "(slot - data) / elem_size" pointer arithmetic.
func slotIndex[T any](base []T, slot *T) int {
	var zero T
	stride := unsafe.Sizeof(zero)
	if stride == 0 {
		// Zero-sized T: every slot shares an address: pointer arithmetic
		// alone cannot distinguish slots, the caller must not rely on it.
		return 0
	}
	off := uintptr(unsafe.Pointer(slot)) - uintptr(unsafe.Pointer(unsafe.SliceData(base)))
	return int(off / stride)
}
