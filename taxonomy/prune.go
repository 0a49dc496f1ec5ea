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
	"maps"
)

// Prune returns a filtered copy of the tree. It never mutates its input,
// so it may run concurrently with other read-only operations on the same
// source.
//
// Keep mode retains every id in keep plus all of their ancestors up to the
// root; everything else is dropped. Remove mode drops every id in remove
// together with its entire descendant subtree. When both sets are given,
// keep-filtering is computed first and remove-filtering is applied to that
// intermediate result. An empty keep set means "keep everything".
//
// Unknown ids in either set fail with ErrNodeNotFound before any work is
// done.
func Prune(t *Tree, keep, remove []string) (*Tree, error) {
	keepIdx := make([]int, 0, len(keep))
	for _, id := range keep {
		ix, ok := t.idToIdx[id]
		if !ok {
			return nil, fmt.Errorf("%w: keep id %q", ErrNodeNotFound, id)
		}
		keepIdx = append(keepIdx, ix)
	}
	removeIdx := make([]int, 0, len(remove))
	for _, id := range remove {
		ix, ok := t.idToIdx[id]
		if !ok {
			return nil, fmt.Errorf("%w: remove id %q", ErrNodeNotFound, id)
		}
		removeIdx = append(removeIdx, ix)
	}

	survivors := make([]bool, len(t.ids))
	if len(keepIdx) == 0 {
		for i := range survivors {
			survivors[i] = true
		}
	} else {
		// Each kept node pulls in its whole lineage so the result stays
		// connected to the root.
		for _, ix := range keepIdx {
			for cur := ix; cur != -1 && !survivors[cur]; cur = t.parents[cur] {
				survivors[cur] = true
			}
		}
	}

	for _, ix := range removeIdx {
		t.dropSubtree(ix, survivors)
	}

	return t.filterToNodes(survivors)
}

// dropSubtree clears the survivor flag for ix and all its descendants.
func (t *Tree) dropSubtree(ix int, survivors []bool) {
	stack := []int{ix}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		survivors[cur] = false
		stack = append(stack, t.children[cur]...)
	}
}

// filterToNodes builds an independent tree from the flagged nodes,
// remapping parent indices into the compacted layout. The survivor set is
// closed under "parent of": keep mode pulls in ancestors and remove mode
// drops whole subtrees, so a surviving node's parent either survives or
// the node is the root.
func (t *Tree) filterToNodes(survivors []bool) (*Tree, error) {
	remap := make([]int, len(t.ids))
	count := 0
	for ix, alive := range survivors {
		if alive {
			remap[ix] = count
			count++
		} else {
			remap[ix] = -1
		}
	}

	ids := make([]string, 0, count)
	names := make([]string, 0, count)
	ranks := make([]Rank, 0, count)
	parents := make([]int, 0, count)
	dists := make([]float64, 0, count)
	attrs := make([]map[string]any, 0, count)

	for ix, alive := range survivors {
		if !alive {
			continue
		}
		ids = append(ids, t.ids[ix])
		names = append(names, t.names[ix])
		ranks = append(ranks, t.ranks[ix])
		dists = append(dists, t.dists[ix])
		if t.parents[ix] == -1 {
			parents = append(parents, -1)
		} else {
			parents = append(parents, remap[t.parents[ix]])
		}
		if t.attrs[ix] != nil {
			attrs = append(attrs, maps.Clone(t.attrs[ix]))
		} else {
			attrs = append(attrs, nil)
		}
	}

	return FromArrays(ids, parents, names, ranks, dists, attrs)
}
