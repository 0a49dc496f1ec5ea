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

// TestLoadPhyloXML_Elements verifies a phylogeny using id, name and
// branch_length child elements.
func TestLoadPhyloXML_Elements(t *testing.T) {
	doc := `
	<phylogeny rooted="true">
	  <name>test taxonomy</name>
	  <clade>
	    <id>E</id>
	    <clade>
	      <id>D</id>
	      <branch_length>0.3</branch_length>
	      <clade>
	        <name>A</name>
	        <id>A</id>
	        <branch_length>0.1</branch_length>
	      </clade>
	      <clade>
	        <name>B</name>
	        <id>B</id>
	        <branch_length>0.2</branch_length>
	      </clade>
	    </clade>
	    <clade>
	      <name>C</name>
	      <id>C</id>
	      <branch_length>0.4</branch_length>
	    </clade>
	  </clade>
	</phylogeny>`

	tree, err := LoadPhyloXML(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 5, tree.Len())
	root, ok := tree.Root()
	require.True(t, ok)
	assert.Equal(t, "E", root.ID)
	assert.False(t, root.HasDist(), "the root clade has no branch_length")

	p, ok := tree.Parent("A")
	require.True(t, ok)
	assert.Equal(t, "D", p.ID)
	n, ok := tree.Get("A")
	require.True(t, ok)
	assert.Equal(t, "A", n.Name)
	assert.Equal(t, 0.1, n.Dist)
	n, ok = tree.Get("D")
	require.True(t, ok)
	assert.Equal(t, 0.3, n.Dist)
}

// TestLoadPhyloXML_AttributesAndAnonymous verifies branch_length
// attributes and synthesized ids for clades without an <id>.
func TestLoadPhyloXML_AttributesAndAnonymous(t *testing.T) {
	doc := `
	<phylogeny rooted="true">
	  <name>test taxonomy</name>
	  <clade>
	    <clade branch_length="0.3">
	      <clade branch_length="0.1"><name>A</name></clade>
	      <clade branch_length="0.2"><name>B</name></clade>
	    </clade>
	    <clade branch_length="0.4"><name>C</name></clade>
	  </clade>
	</phylogeny>`

	tree, err := LoadPhyloXML(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 5, tree.Len())
	a, ok := tree.FindByName("A")
	require.True(t, ok)
	assert.NotEmpty(t, a.ID, "anonymous clades get synthesized ids")
	assert.Equal(t, 0.1, a.Dist)

	b, ok := tree.FindByName("B")
	require.True(t, ok)
	assert.NotEqual(t, a.ID, b.ID)
}

// TestLoadPhyloXML_Malformed verifies the decode error cases.
func TestLoadPhyloXML_Malformed(t *testing.T) {
	var derr *DecodeError

	_, err := LoadPhyloXML(context.Background(), strings.NewReader(`<document></document>`))
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Msg, "no phylogeny")

	_, err = LoadPhyloXML(context.Background(),
		strings.NewReader(`<phylogeny><phylogeny></phylogeny></phylogeny>`))
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Msg, "nested")

	_, err = LoadPhyloXML(context.Background(),
		strings.NewReader(`<phylogeny><clade branch_length="abc"></clade></phylogeny>`))
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Msg, "branch_length")

	// Mismatched element nesting is caught by the XML tokenizer.
	_, err = LoadPhyloXML(context.Background(),
		strings.NewReader(`<phylogeny><clade><id>X</clade></id></phylogeny>`))
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Msg, "malformed XML")
}

// TestPhyloXML_RoundTrip verifies the encoder output is readable by the
// decoder with structure, names, ranks and distances intact.
func TestPhyloXML_RoundTrip(t *testing.T) {
	tree, err := taxonomy.FromArrays(
		[]string{"E", "D", "A", "B", "C"},
		[]int{-1, 0, 1, 1, 0},
		[]string{"", "", "Alpha & Beta", "B", "C"},
		[]taxonomy.Rank{taxonomy.RankNoRank, taxonomy.RankNoRank, taxonomy.RankSpecies, taxonomy.RankSpecies, taxonomy.RankGenus},
		[]float64{taxonomy.NoDist(), 0.3, 0.1, 0.2, 0.4},
		nil,
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, SavePhyloXML(context.Background(), &buf, tree, ""))
	back, err := LoadPhyloXML(context.Background(), &buf)
	require.NoError(t, err)

	require.Equal(t, tree.Len(), back.Len())
	for ix := 0; ix < tree.Len(); ix++ {
		want, _ := tree.At(ix)
		got, ok := back.Get(want.ID)
		require.True(t, ok, "node %q lost in round trip", want.ID)
		assert.Equal(t, want.Name, got.Name, "name survives XML escaping")
		assert.Equal(t, want.Rank, got.Rank)
		if want.HasDist() {
			assert.Equal(t, want.Dist, got.Dist)
		} else {
			assert.False(t, got.HasDist())
		}
		wantP, wantOK := tree.Parent(want.ID)
		gotP, gotOK := back.Parent(want.ID)
		require.Equal(t, wantOK, gotOK)
		if wantOK {
			assert.Equal(t, wantP.ID, gotP.ID)
		}
	}
}

// TestSavePhyloXML_Errors verifies unknown roots and empty trees fail.
func TestSavePhyloXML_Errors(t *testing.T) {
	empty, err := taxonomy.FromArrays(nil, nil, nil, nil, nil, nil)
	require.NoError(t, err)

	var eerr *EncodeError
	err = SavePhyloXML(context.Background(), &bytes.Buffer{}, empty, "")
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, FormatPhyloXML, eerr.Format)
}
