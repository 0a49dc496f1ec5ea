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

import (
	"fmt"
	"math"
)

// NoDist returns the sentinel value for an absent branch length. Absent
// distances are NaN internally so that summing along a lineage naturally
// poisons the total when any edge is missing a length.
func NoDist() float64 {
	return math.NaN()
}

// HasDist reports whether d is a real branch length rather than the
// absent-distance sentinel.
func HasDist(d float64) bool {
	return !math.IsNaN(d)
}

// Node is a read-only view of one taxon.
//
// Dist is the branch length from the node to its parent; it is NaN when
// the source format carried no distance (and for the root). Attributes
// holds format-specific extra fields and is shared with the store; callers
// MUST NOT mutate it.
type Node struct {
	ID         string
	Name       string
	Rank       Rank
	Dist       float64
	Attributes map[string]any
}

// HasDist reports whether the node has a branch length to its parent.
func (n Node) HasDist() bool {
	return HasDist(n.Dist)
}

// Taxonomy is the minimal primitive surface over a classification tree.
//
// Every codec populates a structure satisfying this interface and every
// algorithm in this package consumes it, so formats and algorithms can be
// added independently. Absence (unknown id, root has no parent) is
// reported through the boolean result, never as an error.
type Taxonomy interface {
	// Root returns the root node; ok is false for an empty taxonomy.
	Root() (Node, bool)

	// Get returns the node with the given external id.
	Get(id string) (Node, bool)

	// Parent returns the parent of the given node; ok is false when the
	// id is unknown or names the root.
	Parent(id string) (Node, bool)

	// Children returns the direct children of the given node, in the
	// sibling order the source format specified. Nil when the id is
	// unknown or the node is a leaf.
	Children(id string) []Node

	// Len returns the number of nodes.
	Len() int
}

// Tree is the concrete store: dense parallel arrays addressed by an
// internal index, plus the external-id map and a reverse adjacency index.
//
// Internal indices are stable until a Remove compacts storage. The
// external id is the public identity; internal indices are an
// implementation detail exposed only through IndexOf/IDAt for callers that
// need to avoid repeated string lookups on very large taxonomies.
type Tree struct {
	ids     []string
	names   []string
	ranks   []Rank
	parents []int // -1 exactly for the root
	dists   []float64
	attrs   []map[string]any

	rootIdx int
	idToIdx map[string]int
	// children[i] lists the internal indices of i's children in insertion
	// order. Rebuilt by index(); kept consistent by the mutation methods.
	children [][]int
}

var _ Taxonomy = (*Tree)(nil)

// FromArrays builds a Tree from parallel arrays. ids and parents are
// required and must be the same length; names, ranks, dists and attrs may
// each be nil, in which case they default to empty names, RankNoRank,
// absent distances and no attributes. A parent value of -1 marks the root.
//
// The inputs are validated for matching lengths, unique ids, in-range
// parent indices, exactly one root (for a non-empty tree) and acyclicity;
// any violation fails construction with no Tree returned.
func FromArrays(ids []string, parents []int, names []string, ranks []Rank, dists []float64, attrs []map[string]any) (*Tree, error) {
	n := len(ids)
	if len(parents) != n {
		return nil, fmt.Errorf("%w: %d parents for %d ids", ErrMismatchedArrays, len(parents), n)
	}
	if names == nil {
		names = make([]string, n)
	}
	if ranks == nil {
		ranks = make([]Rank, n)
		for i := range ranks {
			ranks[i] = RankNoRank
		}
	}
	if dists == nil {
		dists = make([]float64, n)
		for i := range dists {
			dists[i] = NoDist()
		}
	}
	if attrs == nil {
		attrs = make([]map[string]any, n)
	}
	if len(names) != n {
		return nil, fmt.Errorf("%w: %d names for %d ids", ErrMismatchedArrays, len(names), n)
	}
	if len(ranks) != n {
		return nil, fmt.Errorf("%w: %d ranks for %d ids", ErrMismatchedArrays, len(ranks), n)
	}
	if len(dists) != n {
		return nil, fmt.Errorf("%w: %d distances for %d ids", ErrMismatchedArrays, len(dists), n)
	}
	if len(attrs) != n {
		return nil, fmt.Errorf("%w: %d attribute maps for %d ids", ErrMismatchedArrays, len(attrs), n)
	}

	t := &Tree{
		ids:     ids,
		names:   names,
		ranks:   ranks,
		parents: parents,
		dists:   dists,
		attrs:   attrs,
		rootIdx: -1,
	}

	for i, p := range parents {
		if p == -1 {
			if t.rootIdx != -1 {
				return nil, fmt.Errorf("%w: multiple roots at indices %d and %d", ErrInvalidTree, t.rootIdx, i)
			}
			t.rootIdx = i
			continue
		}
		if p < 0 || p >= n {
			return nil, fmt.Errorf("%w: node %q has out-of-range parent index %d", ErrInvalidTree, ids[i], p)
		}
	}
	if n > 0 && t.rootIdx == -1 {
		return nil, fmt.Errorf("%w: no root node", ErrInvalidTree)
	}

	if err := t.checkAcyclic(); err != nil {
		return nil, err
	}
	if err := t.index(); err != nil {
		return nil, err
	}
	treeNodes.Observe(float64(n))
	return t, nil
}

// checkAcyclic verifies that following parent pointers from every node
// terminates at the root.
func (t *Tree) checkAcyclic() error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make([]int8, len(t.ids))
	for start := range t.ids {
		if state[start] != unvisited {
			continue
		}
		// Walk up, marking the path, until we hit the root or a node
		// already proven acyclic.
		path := []int{}
		cur := start
		for {
			if state[cur] == visiting {
				return fmt.Errorf("%w: cycle through node %q", ErrInvalidTree, t.ids[cur])
			}
			if state[cur] == done {
				break
			}
			state[cur] = visiting
			path = append(path, cur)
			if t.parents[cur] == -1 {
				break
			}
			cur = t.parents[cur]
		}
		for _, ix := range path {
			state[ix] = done
		}
	}
	return nil
}

// index rebuilds the id lookup and the reverse adjacency index. Mutation
// methods that change storage layout call this instead of patching the
// lookups in place; the cost is O(n) and the invariants stay centralized.
func (t *Tree) index() error {
	t.idToIdx = make(map[string]int, len(t.ids))
	for ix, id := range t.ids {
		if _, exists := t.idToIdx[id]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		t.idToIdx[id] = ix
	}

	t.children = make([][]int, len(t.ids))
	for ix, parent := range t.parents {
		if parent != -1 {
			t.children[parent] = append(t.children[parent], ix)
		}
	}
	return nil
}

// nodeAt builds the read-only view for an internal index.
func (t *Tree) nodeAt(ix int) Node {
	return Node{
		ID:         t.ids[ix],
		Name:       t.names[ix],
		Rank:       t.ranks[ix],
		Dist:       t.dists[ix],
		Attributes: t.attrs[ix],
	}
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.ids)
}

// IsEmpty reports whether the tree has no nodes.
func (t *Tree) IsEmpty() bool {
	return len(t.ids) == 0
}

// Root returns the root node; ok is false for an empty tree.
func (t *Tree) Root() (Node, bool) {
	if len(t.ids) == 0 {
		return Node{}, false
	}
	return t.nodeAt(t.rootIdx), true
}

// Get returns the node with the given external id.
func (t *Tree) Get(id string) (Node, bool) {
	ix, ok := t.idToIdx[id]
	if !ok {
		return Node{}, false
	}
	return t.nodeAt(ix), true
}

// Parent returns the parent of the given node; ok is false when the id is
// unknown or names the root.
func (t *Tree) Parent(id string) (Node, bool) {
	ix, ok := t.idToIdx[id]
	if !ok || t.parents[ix] == -1 {
		return Node{}, false
	}
	return t.nodeAt(t.parents[ix]), true
}

// Children returns the direct children of the given node in decode order.
func (t *Tree) Children(id string) []Node {
	ix, ok := t.idToIdx[id]
	if !ok || len(t.children[ix]) == 0 {
		return nil
	}
	out := make([]Node, len(t.children[ix]))
	for i, cix := range t.children[ix] {
		out[i] = t.nodeAt(cix)
	}
	return out
}

// IndexOf returns the internal index for an external id. Indices are only
// stable until the next Remove; they exist to let hot loops over
// NCBI-scale taxonomies skip the string lookup.
func (t *Tree) IndexOf(id string) (int, bool) {
	ix, ok := t.idToIdx[id]
	return ix, ok
}

// IDAt returns the external id at an internal index.
func (t *Tree) IDAt(ix int) (string, bool) {
	if ix < 0 || ix >= len(t.ids) {
		return "", false
	}
	return t.ids[ix], true
}

// At returns the node at an internal index.
func (t *Tree) At(ix int) (Node, bool) {
	if ix < 0 || ix >= len(t.ids) {
		return Node{}, false
	}
	return t.nodeAt(ix), true
}

// FindByName returns the first node, in internal storage order, whose name
// matches exactly. Matching is case-sensitive and only consults the
// primary name field; synonym tables from source formats are not searched.
func (t *Tree) FindByName(name string) (Node, bool) {
	for ix, n := range t.names {
		if n == name {
			return t.nodeAt(ix), true
		}
	}
	return Node{}, false
}

// FindAllByName returns every node whose name matches exactly, in internal
// storage order.
func (t *Tree) FindAllByName(name string) []Node {
	var out []Node
	for ix, n := range t.names {
		if n == name {
			out = append(out, t.nodeAt(ix))
		}
	}
	return out
}
