// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/taxonomy/taxonomy"
)

// ncbiScenarioPair returns the two-node dump pair used across the
// boundary tests: root "1" and species "2" named "E. coli".
func ncbiScenarioPair() (nodes, names string) {
	pad := "\t|\t\t|\t\t|\t\t|\t\t|\t\t|\t\t|\t\t|\t\t|\t\t|\t\t|"
	nodes = "1\t|\t1\t|\tno rank" + pad + "\n2\t|\t1\t|\tspecies" + pad
	names = "1\t|\troot\t|\t\t|\tscientific name\t|\n2\t|\tE. coli\t|\t\t|\tscientific name\t|"
	return nodes, names
}

func newScenarioService(t *testing.T) *Service {
	t.Helper()
	nodes, names := ncbiScenarioPair()
	svc := New()
	require.NoError(t, svc.Load(context.Background(), FormatNCBI,
		strings.NewReader(nodes), strings.NewReader(names)))
	return svc
}

// TestService_LoadAndQuery verifies the string-keyed facade end to end on
// the dump-pair scenario.
func TestService_LoadAndQuery(t *testing.T) {
	svc := newScenarioService(t)

	assert.Equal(t, 2, svc.Len())
	root, ok := svc.Root()
	require.True(t, ok)
	assert.Equal(t, "1", root.ID)

	p, ok := svc.Parent("2")
	require.True(t, ok)
	assert.Equal(t, "1", p.ID)

	n, ok := svc.Get("2")
	require.True(t, ok)
	assert.Equal(t, "E. coli", n.Name)

	_, ok = svc.Get("999")
	assert.False(t, ok, "lookup absence is a boolean, not an error")

	lca, ok := svc.LCA("1", "2")
	require.True(t, ok)
	assert.Equal(t, "1", lca.ID)
}

// TestService_LoadFailureKeepsTree verifies a failed decode leaves the
// previous tree in place.
func TestService_LoadFailureKeepsTree(t *testing.T) {
	svc := newScenarioService(t)

	err := svc.Load(context.Background(), FormatNewick, strings.NewReader("(A,(B;"))
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "load newick", serr.Op)
	assert.False(t, errors.Is(err, ErrInternal), "bad input is not an internal fault")

	assert.Equal(t, 2, svc.Len(), "failed loads do not clobber the current tree")
}

// TestService_UnknownFormat verifies format dispatch errors.
func TestService_UnknownFormat(t *testing.T) {
	svc := New()

	var serr *Error
	err := svc.Load(context.Background(), "tsv", strings.NewReader(""))
	require.ErrorAs(t, err, &serr)

	err = svc.Save(context.Background(), FormatGTDB, "", &bytes.Buffer{})
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Error(), "decode-only")

	err = svc.Load(context.Background(), FormatNCBI, strings.NewReader(""))
	require.ErrorAs(t, err, &serr, "ncbi needs two readers")
}

// TestService_SaveRoundTrip verifies save output feeds back through load.
func TestService_SaveRoundTrip(t *testing.T) {
	svc := newScenarioService(t)

	var buf bytes.Buffer
	require.NoError(t, svc.Save(context.Background(), FormatJSON, "", &buf))

	back := New()
	require.NoError(t, back.Load(context.Background(), FormatJSON, &buf))
	assert.Equal(t, 2, back.Len())
	n, ok := back.Get("2")
	require.True(t, ok)
	assert.Equal(t, "E. coli", n.Name)
}

// TestService_MutationErrors verifies mutation failures arrive as *Error
// wrapping the structural sentinel.
func TestService_MutationErrors(t *testing.T) {
	svc := newScenarioService(t)

	// Self-parent edit fails structurally and changes nothing.
	err := svc.EditNode("2", taxonomy.WithParent("2"))
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "edit_node", serr.Op)
	assert.ErrorIs(t, err, taxonomy.ErrCycle)
	assert.False(t, errors.Is(err, ErrInternal))

	p, ok := svc.Parent("2")
	require.True(t, ok)
	assert.Equal(t, "1", p.ID)

	assert.ErrorIs(t, svc.AddNode("missing", "3"), taxonomy.ErrNodeNotFound)
	assert.ErrorIs(t, svc.RemoveNode("missing"), taxonomy.ErrNodeNotFound)
}

// TestService_Prune verifies prune returns an independent service. With
// remove={"2"} the scenario tree collapses to its root.
func TestService_Prune(t *testing.T) {
	svc := newScenarioService(t)

	pruned, err := svc.Prune(nil, []string{"2"})
	require.NoError(t, err)

	assert.Equal(t, 1, pruned.Len())
	root, ok := pruned.Root()
	require.True(t, ok)
	assert.Equal(t, "1", root.ID)

	assert.Equal(t, 2, svc.Len(), "prune never mutates its source")

	_, err = svc.Prune([]string{"missing"}, nil)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, taxonomy.ErrNodeNotFound)
}

// TestService_JSONKeyPath verifies sub-document loading crosses the
// boundary.
func TestService_JSONKeyPath(t *testing.T) {
	svc := New()
	doc := `{"wrapper": {"tax": {"id": "1", "children": [{"id": "2"}]}}}`
	require.NoError(t, svc.LoadJSONPath(context.Background(), strings.NewReader(doc), []string{"wrapper", "tax"}))
	assert.Equal(t, 2, svc.Len())
}

// TestService_WeightedPaths verifies the weighted-path wrappers and
// their error shape.
func TestService_WeightedPaths(t *testing.T) {
	svc := newScenarioService(t)

	paths, err := svc.AllWeightedPaths(map[string]float64{"2": 3, "1": 1})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "2", paths[0].ID)
	assert.Equal(t, 4.0, paths[0].Weight)

	best, ok, err := svc.MaximumWeightedPath(map[string]float64{"2": 3}, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", best.ID)

	_, err = svc.RollupWeights(map[string]float64{"missing": 1})
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, taxonomy.ErrNodeNotFound)
}

// TestService_PanicBecomesInternalError verifies the boundary converts
// panics into ErrInternal instead of letting them escape.
func TestService_PanicBecomesInternalError(t *testing.T) {
	err := do("boom", func() error {
		panic("invariant broken")
	})

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "boom", serr.Op)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Contains(t, err.Error(), "invariant broken")
}
