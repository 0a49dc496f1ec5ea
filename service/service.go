// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package service is the binding layer over the taxonomy core: a
// string-keyed facade that collapses every internal error kind into one
// externally visible *Error, and guarantees no panic escapes the
// boundary. Lookups report absence through booleans; parse and mutation
// failures come back as *Error values whose Op names the failed call.
//
// The service assumes the caller serializes mutations against reads, the
// same single-writer contract the core documents. Prune is the exception:
// it is read-only on its receiver and returns a fresh service.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/AleutianAI/taxonomy/formats"
	"github.com/AleutianAI/taxonomy/taxonomy"
	"github.com/AleutianAI/taxonomy/weights"
)

// ErrInternal marks a recovered internal fault (a panic inside the core).
// Callers can tell "bad input" apart from "internal defect" with
// errors.Is(err, service.ErrInternal).
var ErrInternal = errors.New("internal fault")

// Error is the single error type crossing the service boundary. Op names
// the operation that failed; Err preserves the internal cause for
// errors.Is/As discrimination and logging.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("taxonomy service: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Format names accepted by Load and Save.
const (
	FormatNewick       = formats.FormatNewick
	FormatNCBI         = formats.FormatNCBI
	FormatJSON         = formats.FormatJSON
	FormatJSONNodeLink = "json-node-link"
	FormatPhyloXML     = formats.FormatPhyloXML
	FormatGTDB         = formats.FormatGTDB
)

// Service wraps one taxonomy tree behind the boundary contract.
type Service struct {
	tree *taxonomy.Tree
}

// New returns a service over an empty taxonomy.
func New() *Service {
	tree, _ := taxonomy.FromArrays(nil, nil, nil, nil, nil, nil)
	return &Service{tree: tree}
}

// NewFromTree wraps an already built tree. The service takes ownership;
// the caller must not mutate the tree afterwards.
func NewFromTree(tree *taxonomy.Tree) *Service {
	return &Service{tree: tree}
}

// do runs op body under the boundary contract: any returned error is
// wrapped into *Error and any panic is recovered into *Error(ErrInternal).
func do(op string, body func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered panic at service boundary",
				slog.String("op", op),
				slog.Any("panic", r),
			)
			err = &Error{Op: op, Err: fmt.Errorf("%w: %v", ErrInternal, r)}
		}
	}()
	if berr := body(); berr != nil {
		return &Error{Op: op, Err: berr}
	}
	return nil
}

// guard protects bool-result lookups: a panic inside the core degrades to
// an absence result instead of crossing the boundary, and is logged.
func guard(op string, ok *bool) {
	if r := recover(); r != nil {
		slog.Error("Recovered panic at service boundary",
			slog.String("op", op),
			slog.Any("panic", r),
		)
		*ok = false
	}
}

// Load decodes input in the named format, replacing the wrapped tree on
// success and leaving it untouched on failure. NCBI takes two readers
// (nodes table, names table); every other format takes one. The json
// format auto-detects both shapes.
func (s *Service) Load(ctx context.Context, format string, readers ...io.Reader) error {
	return do("load "+format, func() error {
		var (
			tree *taxonomy.Tree
			err  error
		)
		switch format {
		case FormatNCBI:
			if len(readers) != 2 {
				return fmt.Errorf("format %q needs a nodes reader and a names reader", format)
			}
			tree, err = formats.LoadNCBI(ctx, readers[0], readers[1])
		case FormatNewick, FormatJSON, FormatJSONNodeLink, FormatPhyloXML, FormatGTDB:
			if len(readers) != 1 {
				return fmt.Errorf("format %q needs exactly one reader", format)
			}
			switch format {
			case FormatNewick:
				tree, err = formats.LoadNewick(ctx, readers[0])
			case FormatJSON, FormatJSONNodeLink:
				tree, err = formats.LoadJSON(ctx, readers[0], nil)
			case FormatPhyloXML:
				tree, err = formats.LoadPhyloXML(ctx, readers[0])
			case FormatGTDB:
				tree, err = formats.LoadGTDB(ctx, readers[0])
			}
		default:
			return fmt.Errorf("unknown format %q", format)
		}
		if err != nil {
			return err
		}
		s.tree = tree
		return nil
	})
}

// LoadJSONPath is Load for the json format with a key path selecting a
// sub-document.
func (s *Service) LoadJSONPath(ctx context.Context, r io.Reader, keyPath []string) error {
	return do("load json", func() error {
		tree, err := formats.LoadJSON(ctx, r, keyPath)
		if err != nil {
			return err
		}
		s.tree = tree
		return nil
	})
}

// Save encodes the wrapped tree in the named format. rootID selects a
// subtree ("" for the whole tree). NCBI takes two writers (nodes table,
// names table) and ignores rootID; GTDB has no encoder.
func (s *Service) Save(ctx context.Context, format string, rootID string, writers ...io.Writer) error {
	return do("save "+format, func() error {
		switch format {
		case FormatNCBI:
			if len(writers) != 2 {
				return fmt.Errorf("format %q needs a nodes writer and a names writer", format)
			}
			return formats.SaveNCBI(ctx, writers[0], writers[1], s.tree)
		case FormatNewick, FormatJSON, FormatJSONNodeLink, FormatPhyloXML:
			if len(writers) != 1 {
				return fmt.Errorf("format %q needs exactly one writer", format)
			}
			switch format {
			case FormatNewick:
				return formats.SaveNewick(ctx, writers[0], s.tree, rootID)
			case FormatJSON:
				return formats.SaveJSON(ctx, writers[0], s.tree, rootID, formats.JSONShapeTree)
			case FormatJSONNodeLink:
				return formats.SaveJSON(ctx, writers[0], s.tree, rootID, formats.JSONShapeNodeLink)
			default:
				return formats.SavePhyloXML(ctx, writers[0], s.tree, rootID)
			}
		case FormatGTDB:
			return fmt.Errorf("format %q is decode-only", format)
		default:
			return fmt.Errorf("unknown format %q", format)
		}
	})
}

// Len returns the number of nodes.
func (s *Service) Len() int {
	return s.tree.Len()
}

// Root returns the root node; ok is false for an empty taxonomy.
func (s *Service) Root() (node taxonomy.Node, ok bool) {
	defer guard("root", &ok)
	return s.tree.Root()
}

// Get returns the node with the given id.
func (s *Service) Get(id string) (node taxonomy.Node, ok bool) {
	defer guard("get", &ok)
	return s.tree.Get(id)
}

// Parent returns the parent of the given node.
func (s *Service) Parent(id string) (node taxonomy.Node, ok bool) {
	defer guard("parent", &ok)
	return s.tree.Parent(id)
}

// Children returns the direct children of the given node.
func (s *Service) Children(id string) []taxonomy.Node {
	return s.tree.Children(id)
}

// Lineage returns the path from the node to the root, node first.
func (s *Service) Lineage(id string) []taxonomy.Node {
	return taxonomy.Lineage(s.tree, id)
}

// Parents returns the ancestors of the node, nearest first.
func (s *Service) Parents(id string) []taxonomy.Node {
	return taxonomy.Parents(s.tree, id)
}

// LCA returns the lowest common ancestor of two nodes.
func (s *Service) LCA(a, b string) (node taxonomy.Node, ok bool) {
	defer guard("lca", &ok)
	return taxonomy.LCA(s.tree, a, b)
}

// ParentAtRank returns the nearest ancestor carrying the given rank,
// starting strictly above the node, plus the accumulated branch length.
func (s *Service) ParentAtRank(id string, rank taxonomy.Rank) (node taxonomy.Node, dist float64, ok bool) {
	defer guard("parent_at_rank", &ok)
	return taxonomy.ParentAtRank(s.tree, id, rank)
}

// FindByName returns the first node with an exactly matching name.
func (s *Service) FindByName(name string) (node taxonomy.Node, ok bool) {
	defer guard("find_by_name", &ok)
	return s.tree.FindByName(name)
}

// FindAllByName returns every node with an exactly matching name, in
// storage order.
func (s *Service) FindAllByName(name string) []taxonomy.Node {
	return s.tree.FindAllByName(name)
}

// AddNode appends a leaf under parentID.
func (s *Service) AddNode(parentID, id string, opts ...taxonomy.EditOption) error {
	return do("add_node", func() error {
		return s.tree.Add(parentID, id, opts...)
	})
}

// RemoveNode removes one node, re-parenting its children.
func (s *Service) RemoveNode(id string) error {
	return do("remove_node", func() error {
		return s.tree.Remove(id)
	})
}

// EditNode applies in-place field updates, all-or-nothing.
func (s *Service) EditNode(id string, opts ...taxonomy.EditOption) error {
	return do("edit_node", func() error {
		return s.tree.Edit(id, opts...)
	})
}

// AllWeightedPaths scores every weighted node by its whole-lineage sum,
// dropping nodes whose mass is already counted by a deeper weighted node.
func (s *Service) AllWeightedPaths(nodeWeights map[string]float64) ([]weights.Weighted, error) {
	var out []weights.Weighted
	err := do("all_weighted_paths", func() error {
		var werr error
		out, werr = weights.AllWeightedPaths(s.tree, nodeWeights)
		return werr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MaximumWeightedPath returns the heaviest lineage; ok is false when
// nodeWeights is empty.
func (s *Service) MaximumWeightedPath(nodeWeights map[string]float64, takeFirstInTie bool) (best weights.Weighted, ok bool, err error) {
	err = do("maximum_weighted_path", func() error {
		var werr error
		best, ok, werr = weights.MaximumWeightedPath(s.tree, nodeWeights, takeFirstInTie)
		return werr
	})
	if err != nil {
		return weights.Weighted{}, false, err
	}
	return best, ok, nil
}

// RollupWeights folds each node's weight into every ancestor.
func (s *Service) RollupWeights(nodeWeights map[string]float64) ([]weights.Weighted, error) {
	var out []weights.Weighted
	err := do("rollup_weights", func() error {
		var werr error
		out, werr = weights.RollupWeights(s.tree, nodeWeights)
		return werr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Prune returns a new service over a filtered copy of the tree; the
// receiver is never mutated.
func (s *Service) Prune(keep, remove []string) (*Service, error) {
	var pruned *Service
	err := do("prune", func() error {
		tree, perr := taxonomy.Prune(s.tree, keep, remove)
		if perr != nil {
			return perr
		}
		pruned = NewFromTree(tree)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pruned, nil
}
