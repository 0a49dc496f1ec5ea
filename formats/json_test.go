// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package formats

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/taxonomy/taxonomy"
)

// TestLoadJSON_NodeLink verifies the flat nodes/links shape, including
// auto-detection.
func TestLoadJSON_NodeLink(t *testing.T) {
	example := `{
		"nodes": [
			{"id": "1", "name": "root"},
			{"id": "2", "name": "Bacteria", "rank": "no rank"},
			{"id": "562", "name": "Escherichia coli", "rank": "species"}
		],
		"links": [
			{"source": 1, "target": 0},
			{"source": 2, "target": 1}
		]
	}`
	tree, err := LoadJSON(context.Background(), strings.NewReader(example), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, tree.Len())
	root, ok := tree.Root()
	require.True(t, ok)
	assert.Equal(t, "1", root.ID)

	kids := tree.Children("1")
	require.Len(t, kids, 1)
	assert.Equal(t, "2", kids[0].ID)

	n, ok := tree.Get("562")
	require.True(t, ok)
	assert.Equal(t, taxonomy.RankSpecies, n.Rank)
}

// TestLoadJSON_NodeLink_Empty verifies the degenerate empty document.
func TestLoadJSON_NodeLink_Empty(t *testing.T) {
	tree, err := LoadJSON(context.Background(), strings.NewReader(`{"nodes": [], "links": []}`), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, tree.Len())
}

// TestLoadJSON_Tree verifies the nested-children shape.
func TestLoadJSON_Tree(t *testing.T) {
	example := `{
		"id": "1",
		"name": "root",
		"rank": "no rank",
		"children": [
			{
				"id": "2",
				"name": "Bacteria",
				"children": [
					{"id": "562", "name": "Escherichia coli", "rank": "species", "children": []}
				]
			}
		]
	}`
	tree, err := LoadJSON(context.Background(), strings.NewReader(example), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, tree.Len())
	root, ok := tree.Root()
	require.True(t, ok)
	assert.Equal(t, "1", root.ID)
	p, ok := tree.Parent("562")
	require.True(t, ok)
	assert.Equal(t, "2", p.ID)

	// A single node with no children key is the minimal tree document.
	tree, err = LoadJSON(context.Background(), strings.NewReader(`{"id": "1"}`), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Len())
}

// TestLoadJSON_NumericIDs verifies numeric ids stringify at the boundary.
func TestLoadJSON_NumericIDs(t *testing.T) {
	example := `{"id": 1, "children": [{"id": 42}]}`
	tree, err := LoadJSON(context.Background(), strings.NewReader(example), nil)
	require.NoError(t, err)

	_, ok := tree.Get("42")
	assert.True(t, ok)
	p, ok := tree.Parent("42")
	require.True(t, ok)
	assert.Equal(t, "1", p.ID)
}

// TestLoadJSON_KeyPath verifies descending into a sub-document.
func TestLoadJSON_KeyPath(t *testing.T) {
	example := `{"test": {"sub": {"nodes": [], "links": []}}}`
	tree, err := LoadJSON(context.Background(), strings.NewReader(example), []string{"test", "sub"})
	require.NoError(t, err)
	assert.Equal(t, 0, tree.Len())

	var derr *DecodeError
	_, err = LoadJSON(context.Background(), strings.NewReader(example), []string{"test", "missing"})
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Msg, "missing")
}

// TestLoadJSON_Malformed verifies the decode error kinds.
func TestLoadJSON_Malformed(t *testing.T) {
	var derr *DecodeError

	_, err := LoadJSON(context.Background(), strings.NewReader(`{"id": `), nil)
	require.ErrorAs(t, err, &derr)
	assert.Greater(t, derr.Pos, int64(0), "syntax errors carry a byte offset")

	_, err = LoadJSON(context.Background(), strings.NewReader(`[1, 2, 3]`), nil)
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Msg, "object")

	_, err = LoadJSON(context.Background(), strings.NewReader(`{"name": "anonymous"}`), nil)
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Msg, "id")

	_, err = LoadJSON(context.Background(),
		strings.NewReader(`{"nodes": [{"id": "1"}], "links": [{"source": 5, "target": 0}]}`), nil)
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Msg, "source")
}

// TestJSON_AttributeRoundTrip verifies unknown node fields survive decode
// and same-shape re-encode.
func TestJSON_AttributeRoundTrip(t *testing.T) {
	example := `{
		"id": "1",
		"name": "root",
		"support": 0.95,
		"children": [
			{"id": "2", "name": "leaf", "colour": "blue"}
		]
	}`
	tree, err := LoadJSON(context.Background(), strings.NewReader(example), nil)
	require.NoError(t, err)

	root, ok := tree.Root()
	require.True(t, ok)
	require.Contains(t, root.Attributes, "support")

	var buf bytes.Buffer
	require.NoError(t, SaveJSON(context.Background(), &buf, tree, "", JSONShapeTree))
	back, err := LoadJSON(context.Background(), &buf, nil)
	require.NoError(t, err)

	n, ok := back.Get("2")
	require.True(t, ok)
	assert.Equal(t, "blue", n.Attributes["colour"])
	root, ok = back.Root()
	require.True(t, ok)
	assert.Contains(t, root.Attributes, "support")
}

// TestJSON_RoundTrip verifies both shapes reproduce the tree structurally.
func TestJSON_RoundTrip(t *testing.T) {
	tree, err := taxonomy.FromArrays(
		[]string{"1", "2", "562", "563"},
		[]int{-1, 0, 1, 1},
		[]string{"root", "Bacteria", "Escherichia coli", "Escherichia alba"},
		[]taxonomy.Rank{taxonomy.RankNoRank, taxonomy.RankNoRank, taxonomy.RankSpecies, taxonomy.RankSpecies},
		nil, nil,
	)
	require.NoError(t, err)

	for _, shape := range []JSONShape{JSONShapeTree, JSONShapeNodeLink} {
		var buf bytes.Buffer
		require.NoError(t, SaveJSON(context.Background(), &buf, tree, "", shape))
		back, err := LoadJSON(context.Background(), &buf, nil)
		require.NoError(t, err, "shape %s", shape)

		require.Equal(t, tree.Len(), back.Len(), "shape %s", shape)
		for ix := 0; ix < tree.Len(); ix++ {
			want, _ := tree.At(ix)
			got, ok := back.Get(want.ID)
			require.True(t, ok)
			assert.Equal(t, want.Name, got.Name)
			assert.Equal(t, want.Rank, got.Rank)
			wantP, wantOK := tree.Parent(want.ID)
			gotP, gotOK := back.Parent(want.ID)
			require.Equal(t, wantOK, gotOK)
			if wantOK {
				assert.Equal(t, wantP.ID, gotP.ID)
			}
		}
	}
}

// TestSaveJSON_Subtree verifies encoding from a non-root node.
func TestSaveJSON_Subtree(t *testing.T) {
	tree, err := taxonomy.FromArrays(
		[]string{"1", "2", "562"},
		[]int{-1, 0, 1},
		nil, nil, nil, nil,
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, SaveJSON(context.Background(), &buf, tree, "2", JSONShapeTree))
	back, err := LoadJSON(context.Background(), &buf, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, back.Len())
	root, ok := back.Root()
	require.True(t, ok)
	assert.Equal(t, "2", root.ID)

	var eerr *EncodeError
	err = SaveJSON(context.Background(), &buf, tree, "no such id", JSONShapeTree)
	require.ErrorAs(t, err, &eerr)
}
