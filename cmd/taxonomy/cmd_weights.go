// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// readWeightsTable parses an id<TAB>weight table, one entry per line.
// Blank lines and lines starting with # are skipped.
func readWeightsTable(r io.Reader) (map[string]float64, error) {
	weights := make(map[string]float64)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		id, raw, found := strings.Cut(text, "\t")
		if !found {
			return nil, fmt.Errorf("weights line %d: expected id<TAB>weight", line)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("weights line %d: bad weight %q: %w", line, raw, err)
		}
		weights[id] += w
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read weights: %w", err)
	}
	return weights, nil
}

// runWeights scores weighted paths and prints the ranked result plus the
// heaviest lineage.
func runWeights(cmd *cobra.Command, args []string) error {
	svc, err := loadTaxonomy(cmd.Context())
	if err != nil {
		return err
	}

	in, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	table, err := readWeightsTable(in)
	if err != nil {
		return err
	}

	paths, err := svc.AllWeightedPaths(table)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%g\n", p.ID, p.Weight)
	}

	best, ok, err := svc.MaximumWeightedPath(table, takeFirstInTie)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(cmd.OutOrStdout(), "best\t%s\t%g\n", best.ID, best.Weight)
	}
	return nil
}
