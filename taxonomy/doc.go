// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package taxonomy provides an in-memory engine for biological
// classification trees: single-root, acyclic parent-pointer structures over
// uniquely identified, ranked nodes.
//
// The package is split along two lines:
//
//   - The Taxonomy interface is the minimal primitive surface (root, node
//     lookup, parent-of, children-of) that every codec populates and every
//     algorithm consumes. Algorithms such as Lineage, LCA and ParentAtRank
//     are free functions over this interface and never depend on a concrete
//     representation.
//   - Tree is the concrete store: dense parallel arrays indexed by an
//     internal position, a bijective external-id map, and a reverse
//     adjacency index for O(children) enumeration. All mutation goes
//     through Tree methods so the structural invariants are enforced in
//     one place.
//
// # Ownership Model
//
// Node values returned from lookups are copies of the stored record; the
// Attributes map on a Node is shared with the store and MUST NOT be
// mutated by callers.
//
// # Thread Safety
//
// Tree is NOT safe for concurrent mutation. Queries may run concurrently
// against an unchanging Tree; callers must serialize mutations against
// all other access. Prune is read-only on its input and returns a fresh
// Tree, so it may run alongside other readers.
//
// # Lifecycle
//
//  1. Decode bytes with a formats codec (or build with FromArrays).
//  2. Query with Lineage, LCA, ParentAtRank, FindByName, Traverse.
//  3. Mutate with Add, Remove, Edit, or derive a filtered copy with Prune.
//  4. Encode back out with any codec.
package taxonomy
