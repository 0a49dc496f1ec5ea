// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package taxonomy

import "iter"

// Traverse walks the subtree rooted at from, yielding each node twice:
// once with pre=true on the way down and once with pre=false on the way
// back up. Children are visited in sibling order. An unknown id yields
// nothing.
//
// The walk is iterative, so taxonomies with very deep lineages do not
// risk stack growth.
func Traverse(t Taxonomy, from string) iter.Seq2[Node, bool] {
	return func(yield func(Node, bool) bool) {
		start, ok := t.Get(from)
		if !ok {
			return
		}

		type frame struct {
			node     Node
			children []Node
			next     int
		}
		stack := []frame{{node: start}}
		if !yield(start, true) {
			return
		}
		stack[0].children = t.Children(start.ID)

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(top.children) {
				child := top.children[top.next]
				top.next++
				if !yield(child, true) {
					return
				}
				stack = append(stack, frame{node: child, children: t.Children(child.ID)})
				continue
			}
			if !yield(top.node, false) {
				return
			}
			stack = stack[:len(stack)-1]
		}
	}
}

// PreOrder yields each node of the subtree rooted at from exactly once,
// parents before children.
func PreOrder(t Taxonomy, from string) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for n, pre := range Traverse(t, from) {
			if pre && !yield(n) {
				return
			}
		}
	}
}
