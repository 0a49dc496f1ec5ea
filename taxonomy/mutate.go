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

import "fmt"

// EditOption configures a field change for Edit or Add.
type EditOption func(*editChanges)

type editChanges struct {
	name     *string
	rank     *Rank
	parentID *string
	dist     *float64
}

// WithName sets the node's display name.
func WithName(name string) EditOption {
	return func(e *editChanges) { e.name = &name }
}

// WithRank sets the node's rank.
func WithRank(r Rank) EditOption {
	return func(e *editChanges) { e.rank = &r }
}

// WithParent re-parents the node under the node with the given id. The new
// parent must exist and must not be the node itself or one of its
// descendants. Ignored by Add, where the parent argument wins.
func WithParent(id string) EditOption {
	return func(e *editChanges) { e.parentID = &id }
}

// WithDist sets the branch length to the node's parent. Pass NoDist() to
// clear it.
func WithDist(d float64) EditOption {
	return func(e *editChanges) { e.dist = &d }
}

// Add appends a new leaf node under parentID. The new node starts with an
// empty name, RankNoRank and no branch length unless options say
// otherwise. Fails with ErrNodeNotFound when the parent is unknown and
// ErrDuplicateID when the id already exists; on failure the tree is
// unchanged.
func (t *Tree) Add(parentID, id string, opts ...EditOption) error {
	var err error
	defer func() { recordMutation("add", err) }()

	pix, ok := t.idToIdx[parentID]
	if !ok {
		err = fmt.Errorf("%w: parent %q", ErrNodeNotFound, parentID)
		return err
	}
	if _, exists := t.idToIdx[id]; exists {
		err = fmt.Errorf("%w: %q", ErrDuplicateID, id)
		return err
	}

	var e editChanges
	for _, opt := range opts {
		opt(&e)
	}

	name := ""
	if e.name != nil {
		name = *e.name
	}
	rank := RankNoRank
	if e.rank != nil {
		rank = *e.rank
	}
	dist := NoDist()
	if e.dist != nil {
		dist = *e.dist
	}

	newIx := len(t.ids)
	t.ids = append(t.ids, id)
	t.names = append(t.names, name)
	t.ranks = append(t.ranks, rank)
	t.parents = append(t.parents, pix)
	t.dists = append(t.dists, dist)
	t.attrs = append(t.attrs, nil)

	// Appends never invalidate existing indices, so the lookups can be
	// patched in place instead of rebuilt.
	t.idToIdx[id] = newIx
	t.children = append(t.children, nil)
	t.children[pix] = append(t.children[pix], newIx)
	return nil
}

// Remove deletes exactly one node. Every former child is re-parented to
// the removed node's former parent, with the removed edge's branch length
// folded into each child's (absent lengths poison the sum).
//
// The root can only be removed while it has at most one child: with one
// child that child is promoted to root, with none the tree becomes empty.
// Removing a root with several children fails with ErrRootRemoval, since
// there would be no parent to promote the children to.
//
// Removal compacts storage, so previously obtained internal indices are
// invalidated.
func (t *Tree) Remove(id string) error {
	var err error
	defer func() { recordMutation("remove", err) }()

	ix, ok := t.idToIdx[id]
	if !ok {
		err = fmt.Errorf("%w: %q", ErrNodeNotFound, id)
		return err
	}

	if ix == t.rootIdx {
		switch kids := t.children[ix]; len(kids) {
		case 0:
		case 1:
			t.parents[kids[0]] = -1
			t.dists[kids[0]] = NoDist()
		default:
			err = fmt.Errorf("%w: root %q has %d children", ErrRootRemoval, id, len(kids))
			return err
		}
	} else {
		newParent := t.parents[ix]
		removedDist := t.dists[ix]
		for cix, p := range t.parents {
			if p == ix {
				t.parents[cix] = newParent
				t.dists[cix] += removedDist
			}
		}
	}

	t.ids = append(t.ids[:ix], t.ids[ix+1:]...)
	t.names = append(t.names[:ix], t.names[ix+1:]...)
	t.ranks = append(t.ranks[:ix], t.ranks[ix+1:]...)
	t.parents = append(t.parents[:ix], t.parents[ix+1:]...)
	t.dists = append(t.dists[:ix], t.dists[ix+1:]...)
	t.attrs = append(t.attrs[:ix], t.attrs[ix+1:]...)

	// Indices above the removed slot shift down by one.
	t.rootIdx = -1
	for i, p := range t.parents {
		if p > ix {
			t.parents[i] = p - 1
		}
		if t.parents[i] == -1 {
			t.rootIdx = i
		}
	}

	// The id map values and the whole reverse adjacency index changed, so
	// rebuilding is simpler than patching (and cannot drift).
	return t.index()
}

// Edit applies in-place field updates to a node. All options are validated
// before anything is changed, so a failing edit leaves the tree untouched.
// Re-parenting onto the node itself or one of its descendants fails with
// ErrCycle.
func (t *Tree) Edit(id string, opts ...EditOption) error {
	var err error
	defer func() { recordMutation("edit", err) }()

	ix, ok := t.idToIdx[id]
	if !ok {
		err = fmt.Errorf("%w: %q", ErrNodeNotFound, id)
		return err
	}

	var e editChanges
	for _, opt := range opts {
		opt(&e)
	}

	newParent := -1
	if e.parentID != nil {
		pix, ok := t.idToIdx[*e.parentID]
		if !ok {
			err = fmt.Errorf("%w: parent %q", ErrNodeNotFound, *e.parentID)
			return err
		}
		if pix == ix {
			err = fmt.Errorf("%w: %q cannot be its own parent", ErrCycle, id)
			return err
		}
		// Walk from the candidate parent to the root; crossing the edited
		// node means the candidate is inside its subtree.
		for cur := pix; cur != -1; cur = t.parents[cur] {
			if cur == ix {
				err = fmt.Errorf("%w: %q is a descendant of %q", ErrCycle, *e.parentID, id)
				return err
			}
		}
		newParent = pix
	}

	if e.name != nil {
		t.names[ix] = *e.name
	}
	if e.rank != nil {
		t.ranks[ix] = *e.rank
	}
	if e.dist != nil {
		t.dists[ix] = *e.dist
	}
	if e.parentID != nil {
		old := t.parents[ix]
		if old != newParent {
			t.parents[ix] = newParent
			for i, cix := range t.children[old] {
				if cix == ix {
					t.children[old] = append(t.children[old][:i], t.children[old][i+1:]...)
					break
				}
			}
			t.children[newParent] = append(t.children[newParent], ix)
		}
	}
	return nil
}
