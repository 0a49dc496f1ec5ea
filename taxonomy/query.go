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

// Lineage returns the path from the given node up to and including the
// root, starting with the node itself. Empty when the id is unknown.
func Lineage(t Taxonomy, id string) []Node {
	n, ok := t.Get(id)
	if !ok {
		return nil
	}
	out := []Node{n}
	cur := id
	for {
		p, ok := t.Parent(cur)
		if !ok {
			return out
		}
		out = append(out, p)
		cur = p.ID
	}
}

// Parents returns the node's ancestors from its immediate parent up to and
// including the root. Empty when the id is unknown or names the root.
func Parents(t Taxonomy, id string) []Node {
	lineage := Lineage(t, id)
	if len(lineage) == 0 {
		return nil
	}
	return lineage[1:]
}

// ParentAtRank walks ancestors of the given node, starting at its parent,
// until one whose rank equals the requested rank is found. The second
// result is the summed branch length along the traversed edges; it is NaN
// when any traversed edge lacks a distance.
//
// ok is false when the id is unknown, the requested rank is not part of
// the ordered rank set, or no ancestor carries that rank. An unknown id
// and a missing ancestor are deliberately indistinguishable here; callers
// that need the difference should Get the id first.
func ParentAtRank(t Taxonomy, id string, rank Rank) (Node, float64, bool) {
	if !rank.Ordered() {
		return Node{}, 0, false
	}
	if _, ok := t.Get(id); !ok {
		return Node{}, 0, false
	}

	dist := 0.0
	cur := id
	for {
		child, _ := t.Get(cur)
		p, ok := t.Parent(cur)
		if !ok {
			return Node{}, 0, false
		}
		dist += child.Dist
		if p.Rank == rank {
			return p, dist, true
		}
		cur = p.ID
	}
}

// depth returns the number of edges between the node and the root.
func depth(t Taxonomy, id string) (int, bool) {
	if _, ok := t.Get(id); !ok {
		return 0, false
	}
	d := 0
	cur := id
	for {
		p, ok := t.Parent(cur)
		if !ok {
			return d, true
		}
		d++
		cur = p.ID
	}
}

// LCA returns the lowest common ancestor of two nodes: the deeper node is
// lifted until both sit at the same depth, then both walk upward in
// lockstep until they coincide.
//
// LCA(a, b) == LCA(b, a) for any fixed tree, LCA(a, a) == a, and
// LCA(root, x) == root. ok is false when either id is unknown, or when
// the walks exhaust the tree without meeting (possible only if the
// single-root invariant is broken).
func LCA(t Taxonomy, a, b string) (Node, bool) {
	da, ok := depth(t, a)
	if !ok {
		lcaQueriesTotal.WithLabelValues("node_not_found").Inc()
		return Node{}, false
	}
	db, ok := depth(t, b)
	if !ok {
		lcaQueriesTotal.WithLabelValues("node_not_found").Inc()
		return Node{}, false
	}

	curA, curB := a, b
	for da > db {
		p, ok := t.Parent(curA)
		if !ok {
			return Node{}, false
		}
		curA = p.ID
		da--
	}
	for db > da {
		p, ok := t.Parent(curB)
		if !ok {
			return Node{}, false
		}
		curB = p.ID
		db--
	}

	limit := t.Len() + 1
	for steps := 0; curA != curB; steps++ {
		if steps > limit {
			lcaQueriesTotal.WithLabelValues("disconnected").Inc()
			return Node{}, false
		}
		pa, okA := t.Parent(curA)
		pb, okB := t.Parent(curB)
		if !okA || !okB {
			lcaQueriesTotal.WithLabelValues("disconnected").Inc()
			return Node{}, false
		}
		curA, curB = pa.ID, pb.ID
	}

	lcaQueriesTotal.WithLabelValues("success").Inc()
	return t.Get(curA)
}
