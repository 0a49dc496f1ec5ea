// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package weights implements path analytics over node-weight assignments,
// e.g. read counts from a sequencing classifier keyed by taxon id. The
// algorithms use only the taxonomy primitive surface and the caller's
// weights; branch lengths in the tree are not consulted.
package weights

import (
	"fmt"
	"sort"

	"github.com/AleutianAI/taxonomy/taxonomy"
)

// Weighted pairs a node id with an accumulated weight.
type Weighted struct {
	ID     string
	Weight float64
}

// lineageIDs resolves the id and returns its path to the root.
func lineageIDs(tax taxonomy.Taxonomy, id string) ([]taxonomy.Node, error) {
	lineage := taxonomy.Lineage(tax, id)
	if len(lineage) == 0 {
		return nil, fmt.Errorf("%w: weighted id %q", taxonomy.ErrNodeNotFound, id)
	}
	return lineage, nil
}

// sortedIDs returns the weight keys in a stable order so results do not
// depend on map iteration.
func sortedIDs(weights map[string]float64) []string {
	ids := make([]string, 0, len(weights))
	for id := range weights {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AllWeightedPaths scores every weighted node by the summed weight of its
// whole lineage, then drops nodes that are ancestors of other weighted
// nodes (their mass is already counted in the deeper paths). The result is
// sorted by descending score, ties broken by ascending id.
func AllWeightedPaths(tax taxonomy.Taxonomy, weights map[string]float64) ([]Weighted, error) {
	scores := make(map[string]float64, len(weights))
	stems := make(map[string]bool)
	for _, id := range sortedIDs(weights) {
		lineage, err := lineageIDs(tax, id)
		if err != nil {
			return nil, err
		}
		total := 0.0
		for _, n := range lineage {
			if n.ID != id {
				stems[n.ID] = true
			}
			total += weights[n.ID]
		}
		scores[id] = total
	}

	out := make([]Weighted, 0, len(scores))
	for id, score := range scores {
		if !stems[id] {
			out = append(out, Weighted{ID: id, Weight: score})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// MaximumWeightedPath finds the lineage with the greatest summed weight.
//
// With takeFirstInTie the returned id is the most specific node of one
// winning path (the first in id order when several paths tie); without it,
// tied winners collapse to their lowest common ancestor. ok is false when
// weights is empty.
func MaximumWeightedPath(tax taxonomy.Taxonomy, weights map[string]float64, takeFirstInTie bool) (best Weighted, ok bool, err error) {
	var maxIDs []string
	maxScore := 0.0
	for _, id := range sortedIDs(weights) {
		lineage, err := lineageIDs(tax, id)
		if err != nil {
			return Weighted{}, false, err
		}
		score := 0.0
		for _, n := range lineage {
			score += weights[n.ID]
		}
		if score > maxScore {
			maxScore = score
			maxIDs = maxIDs[:0]
		}
		if score >= maxScore {
			maxIDs = append(maxIDs, id)
		}
	}
	if len(maxIDs) == 0 {
		return Weighted{}, false, nil
	}
	if takeFirstInTie {
		return Weighted{ID: maxIDs[0], Weight: maxScore}, true, nil
	}

	ancestor := maxIDs[0]
	for _, id := range maxIDs[1:] {
		lca, found := taxonomy.LCA(tax, ancestor, id)
		if !found {
			return Weighted{}, false, fmt.Errorf("%w: no common ancestor of %q and %q", taxonomy.ErrNodeNotFound, ancestor, id)
		}
		ancestor = lca.ID
	}
	return Weighted{ID: ancestor, Weight: maxScore}, true, nil
}

// RollupWeights folds each node's weight into every ancestor, turning
// per-node hit counts into cumulative subtree counts. The result covers
// every node on any weighted lineage, sorted by id.
func RollupWeights(tax taxonomy.Taxonomy, weights map[string]float64) ([]Weighted, error) {
	totals := make(map[string]float64)
	for _, id := range sortedIDs(weights) {
		lineage, err := lineageIDs(tax, id)
		if err != nil {
			return nil, err
		}
		for _, n := range lineage {
			totals[n.ID] += weights[id]
		}
	}

	out := make([]Weighted, 0, len(totals))
	for id, total := range totals {
		out = append(out, Weighted{ID: id, Weight: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
