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

// ncbiNodeRow formats one structure-table row with empty trailing columns.
func ncbiNodeRow(id, parent, rank string) string {
	return id + "\t|\t" + parent + "\t|\t" + rank + "\t|\t\t|\t\t|\t\t|\t\t|\t\t|\t\t|\t\t|\t\t|\t\t|\t\t|"
}

func ncbiNameRow(id, name, class string) string {
	return id + "\t|\t" + name + "\t|\t\t|\t" + class + "\t|"
}

// TestLoadNCBI_TwoNode verifies the minimal dump pair: a self-parented
// root row plus one species row.
func TestLoadNCBI_TwoNode(t *testing.T) {
	nodes := strings.Join([]string{
		ncbiNodeRow("1", "1", "no rank"),
		ncbiNodeRow("2", "1", "species"),
	}, "\n")
	names := strings.Join([]string{
		ncbiNameRow("1", "root", "scientific name"),
		ncbiNameRow("2", "E. coli", "scientific name"),
	}, "\n")

	tree, err := LoadNCBI(context.Background(), strings.NewReader(nodes), strings.NewReader(names))
	require.NoError(t, err)

	assert.Equal(t, 2, tree.Len())
	root, ok := tree.Root()
	require.True(t, ok)
	assert.Equal(t, "1", root.ID)

	p, ok := tree.Parent("2")
	require.True(t, ok)
	assert.Equal(t, "1", p.ID)

	n, ok := tree.Get("2")
	require.True(t, ok)
	assert.Equal(t, "E. coli", n.Name)
	assert.Equal(t, taxonomy.RankSpecies, n.Rank)
	assert.False(t, n.HasDist(), "dump tables carry no branch lengths")
}

// TestLoadNCBI_NameClasses verifies only scientific-name rows set the node
// name, regardless of how many synonym rows precede them.
func TestLoadNCBI_NameClasses(t *testing.T) {
	nodes := strings.Join([]string{
		ncbiNodeRow("1", "1", "no rank"),
		ncbiNodeRow("562", "1", "species"),
	}, "\n")
	names := strings.Join([]string{
		ncbiNameRow("1", "all", "synonym"),
		ncbiNameRow("1", "root", "scientific name"),
		ncbiNameRow("562", "Bacillus coli", "synonym"),
		ncbiNameRow("562", "E. coli", "common name"),
		ncbiNameRow("562", "Escherichia coli", "scientific name"),
		ncbiNameRow("562", "Eschericia coli", "misspelling"),
	}, "\n")

	tree, err := LoadNCBI(context.Background(), strings.NewReader(nodes), strings.NewReader(names))
	require.NoError(t, err)

	n, ok := tree.Get("562")
	require.True(t, ok)
	assert.Equal(t, "Escherichia coli", n.Name)
	n, ok = tree.Get("1")
	require.True(t, ok)
	assert.Equal(t, "root", n.Name)
}

// TestLoadNCBI_Hierarchy verifies parent attachment across out-of-order
// rows and the children index.
func TestLoadNCBI_Hierarchy(t *testing.T) {
	nodes := strings.Join([]string{
		ncbiNodeRow("1", "1", "no rank"),
		ncbiNodeRow("561", "543", "genus"),
		ncbiNodeRow("562", "561", "species"),
		ncbiNodeRow("543", "1", "family"),
	}, "\n")
	names := ncbiNameRow("562", "Escherichia coli", "scientific name")

	tree, err := LoadNCBI(context.Background(), strings.NewReader(nodes), strings.NewReader(names))
	require.NoError(t, err)

	kids := tree.Children("561")
	require.Len(t, kids, 1)
	assert.Equal(t, "562", kids[0].ID)

	lineage := taxonomy.Lineage(tree, "562")
	require.Len(t, lineage, 4)
	assert.Equal(t, "1", lineage[3].ID)
}

// TestLoadNCBI_Malformed verifies the decode errors carry line numbers and
// the switched-files hint.
func TestLoadNCBI_Malformed(t *testing.T) {
	var derr *DecodeError

	// A names table fed as the nodes table has too few columns on line 1.
	_, err := LoadNCBI(context.Background(),
		strings.NewReader(ncbiNameRow("1", "root", "scientific name")),
		strings.NewReader(""))
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 1, derr.Line)
	assert.Contains(t, derr.Msg, "switched")

	// Short row deeper in the table is reported as corruption instead.
	nodes := strings.Join([]string{
		ncbiNodeRow("1", "1", "no rank"),
		"2\t|\t1",
	}, "\n")
	_, err = LoadNCBI(context.Background(), strings.NewReader(nodes), strings.NewReader(""))
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 2, derr.Line)
	assert.NotContains(t, derr.Msg, "switched")

	// Unresolvable parent, as in a truncated download.
	nodes = strings.Join([]string{
		ncbiNodeRow("1", "1", "no rank"),
		ncbiNodeRow("2", "99999", "species"),
	}, "\n")
	_, err = LoadNCBI(context.Background(), strings.NewReader(nodes), strings.NewReader(""))
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Msg, "99999")

	// A nodes table fed as the names table trips the field-count ceiling.
	_, err = LoadNCBI(context.Background(),
		strings.NewReader(ncbiNodeRow("1", "1", "no rank")),
		strings.NewReader(ncbiNodeRow("1", "1", "no rank")))
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Msg, "too many")
}

// TestNCBI_RoundTrip verifies decode(encode(T)) preserves ids, names,
// ranks and structure.
func TestNCBI_RoundTrip(t *testing.T) {
	tree, err := taxonomy.FromArrays(
		[]string{"1", "543", "561", "562"},
		[]int{-1, 0, 1, 2},
		[]string{"root", "Enterobacteriaceae", "Escherichia", "Escherichia coli"},
		[]taxonomy.Rank{taxonomy.RankNoRank, taxonomy.RankFamily, taxonomy.RankGenus, taxonomy.RankSpecies},
		nil, nil,
	)
	require.NoError(t, err)

	var nodes, names bytes.Buffer
	require.NoError(t, SaveNCBI(context.Background(), &nodes, &names, tree))

	back, err := LoadNCBI(context.Background(), &nodes, &names)
	require.NoError(t, err)

	require.Equal(t, tree.Len(), back.Len())
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

// TestSaveNCBI_Empty verifies an empty tree cannot be written.
func TestSaveNCBI_Empty(t *testing.T) {
	empty, err := taxonomy.FromArrays(nil, nil, nil, nil, nil, nil)
	require.NoError(t, err)

	var eerr *EncodeError
	err = SaveNCBI(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, empty)
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, FormatNCBI, eerr.Format)
}
