// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aintsafe

import "code.hybscloud.com/atomix"

// Node is an intrusive singly-linked list node. Embed it by value in a
// caller-owned struct; the list functions operate on *Node and never
// allocate or free nodes themselves. The caller holds the list head,
// typically as its own *Node sentinel or atomix.Pointer[Node].
//
// deleting doubles as a per-node exclusion lock: no context will Append to,
// or start a DeleteAfter walk from, a node whose deleting flag is set.
type Node struct {
	next     atomix.Pointer[Node]
	deleting atomix.Bool
}

// Next returns the first live node after node, skipping any node currently
// being deleted.
func Next(node *Node) *Node {
	return nextStableUntil(node, nil)
}

// Append inserts newNode immediately after node. Returns newNode on
// success, or nil if node is currently being deleted — a deleting node must
// not be modified, since a concurrent DeleteAfter is using its next field
// as the unlink target.
func Append(node, newNode *Node) *Node {
	if node.deleting.LoadAcquire() {
		return nil
	}
	newNode.deleting.StoreRelease(false)
	next := node.next.LoadAcquire()
	for {
		newNode.next.StoreRelease(next)
		// If node is deleted between here and the CAS, node.next has
		// already been nulled out and this CAS fails; the retry re-reads
		// next (now nil) and appends to the deleted node on the next
		// pass — visibly the same as the delete happening just before
		// this append, which is a legal interleaving either way.
		if node.next.CompareAndSwapAcqRel(next, newNode) {
			return newNode
		}
		next = node.next.LoadAcquire()
	}
}

// DeleteAfter removes victim from the list, searching for its predecessor
// by walking forward from from. Returns the node that now follows where
// victim was (nil if victim was the last node) and whether the delete
// happened. Returns (nil, false) if from is itself being deleted, or if
// victim is unreachable from from.
func DeleteAfter(from, victim *Node) (*Node, bool) {
	if from.deleting.LoadAcquire() {
		return nil, false
	}
	victim.deleting.StoreRelease(true)

	prev := from
	for prev != nil && prev != victim {
		if prev.next.LoadAcquire() == victim {
			after := victim.next.LoadAcquire()
			if !prev.next.CompareAndSwapAcqRel(victim, after) {
				continue // someone inserted between prev and victim, retry
			}
			if !victim.next.CompareAndSwapAcqRel(after, nil) {
				// deleting is supposed to exclude any append to victim.
				panic("aintsafe: concurrent append to a node being deleted")
			}
			victim.deleting.StoreRelease(false)
			return after, true
		}
		prev = nextStableUntil(prev, victim)
	}
	return nil, false
}

// nextStableUntil walks past deleting nodes like Next, but treats limit as
// a boundary node rather than a node to test — needed by DeleteAfter, whose
// victim is itself marked deleting for the call's duration and must not be
// skipped over on that account.
func nextStableUntil(node, limit *Node) *Node {
	next := node.next.LoadAcquire()
	for next != nil && next != limit && next.deleting.LoadAcquire() {
		next = next.next.LoadAcquire()
	}
	return next
}
