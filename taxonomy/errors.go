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

import "errors"

// Sentinel errors for structural-invariant violations. Mutation operations
// raise these before any state is changed; a failed mutation leaves the
// tree exactly as it was.
var (
	// ErrNodeNotFound is returned when a mutation targets an identifier
	// that does not exist in the tree. Pure queries never return this;
	// they report absence through their boolean result instead.
	ErrNodeNotFound = errors.New("node not found in taxonomy")

	// ErrDuplicateID is returned when adding a node whose external
	// identifier already exists.
	ErrDuplicateID = errors.New("duplicate taxonomy ID")

	// ErrCycle is returned when an edit would make a node its own
	// ancestor.
	ErrCycle = errors.New("edit would create a cycle")

	// ErrRootRemoval is returned when removing the root while it has more
	// than one child, which would leave the tree without a single root.
	ErrRootRemoval = errors.New("cannot remove root with multiple children")

	// ErrMismatchedArrays is returned by FromArrays when the parallel
	// input arrays have different lengths.
	ErrMismatchedArrays = errors.New("taxonomy arrays have mismatched lengths")

	// ErrInvalidTree is returned by FromArrays when the inputs do not
	// describe a single-root, acyclic tree (zero or multiple roots, an
	// out-of-range parent index, or a parent cycle).
	ErrInvalidTree = errors.New("inputs do not form a valid taxonomy tree")
)
