// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aintsafe_test

import (
	"fmt"

	"code.hybscloud.com/atomix"
	"github.com/gauravjuvekar/aint-safe"
)

// ExampleNewQueue demonstrates a single write/read round trip through a
// nested queue.
func ExampleNewQueue() {
	var data [4]int
	q := aintsafe.NewQueue[int](data[:], aintsafe.Nested, aintsafe.Nested)

	slot, err := q.WriteAcquire()
	if err != nil {
		fmt.Println("write acquire failed:", err)
		return
	}
	*slot = 42
	q.WriteCommit(slot)

	slot, err = q.ReadAcquire()
	if err != nil {
		fmt.Println("read acquire failed:", err)
		return
	}
	fmt.Println(*slot)
	q.ReadRelease(slot)

	// Output:
	// 42
}

// ExampleNewDoubleBuffer demonstrates publishing successive values to a
// reader through a double buffer.
func ExampleNewDoubleBuffer() {
	var slots [2]string
	db := aintsafe.NewDoubleBuffer[string](&slots)

	for _, msg := range []string{"first", "second"} {
		w := db.WriteAcquire()
		*w = msg
		db.WriteCommit(w)

		r := db.ReadAcquire()
		fmt.Println(*r)
		db.ReadRelease(r)
	}

	// Output:
	// first
	// second
}

// ExampleNewBag demonstrates acquiring and releasing slots from a
// fixed-capacity freelist.
func ExampleNewBag() {
	var storage [2]int
	bag := aintsafe.NewBag[int](storage[:])

	a, _ := bag.Acquire()
	*a = 1
	b, _ := bag.Acquire()
	*b = 2

	if _, err := bag.Acquire(); err != nil {
		fmt.Println("bag exhausted")
	}

	bag.Release(a)
	c, _ := bag.Acquire()
	fmt.Println(*c)

	// Output:
	// bag exhausted
	// 1
}

// ExampleMCAS demonstrates a multi-word compare-and-swap across a fixed
// array of machine words.
func ExampleMCAS() {
	words := make([]atomix.Uintptr, 2)
	m := aintsafe.NewMCAS(words)

	ok := m.CompareExchange([]uintptr{0, 0}, []uintptr{1, 2})
	fmt.Println(ok)

	dest := make([]uintptr, m.Len())
	m.Read(dest)
	fmt.Println(dest)

	// Output:
	// true
	// [1 2]
}

// ExampleAppend demonstrates building and walking an intrusive list.
func ExampleAppend() {
	var head aintsafe.Node
	type entry struct {
		node aintsafe.Node
		id   int
	}
	entries := []*entry{{id: 1}, {id: 2}, {id: 3}}

	prev := &head
	for _, e := range entries {
		aintsafe.Append(prev, &e.node)
		prev = &e.node
	}

	for cur := aintsafe.Next(&head); cur != nil; cur = aintsafe.Next(cur) {
		for _, e := range entries {
			if &e.node == cur {
				fmt.Println(e.id)
			}
		}
	}

	// Output:
	// 1
	// 2
	// 3
}
