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
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/taxonomy/taxonomy"
)

// printNode writes one node as a tab-separated line: id, rank, name.
func printNode(cmd *cobra.Command, n taxonomy.Node) {
	rank := string(n.Rank)
	if rank == "" {
		rank = "no rank"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", n.ID, rank, n.Name)
}

func runLineage(cmd *cobra.Command, args []string) error {
	svc, err := loadTaxonomy(cmd.Context())
	if err != nil {
		return err
	}

	lineage := svc.Lineage(args[0])
	if len(lineage) == 0 {
		return fmt.Errorf("node %q not found", args[0])
	}
	for _, n := range lineage {
		printNode(cmd, n)
	}
	return nil
}

func runLCA(cmd *cobra.Command, args []string) error {
	svc, err := loadTaxonomy(cmd.Context())
	if err != nil {
		return err
	}

	lca, ok := svc.LCA(args[0], args[1])
	if !ok {
		return fmt.Errorf("no common ancestor of %q and %q", args[0], args[1])
	}
	printNode(cmd, lca)
	return nil
}

func runAncestor(cmd *cobra.Command, args []string) error {
	svc, err := loadTaxonomy(cmd.Context())
	if err != nil {
		return err
	}

	node, dist, ok := svc.ParentAtRank(args[0], taxonomy.ParseRank(args[1]))
	if !ok {
		return fmt.Errorf("node %q has no ancestor at rank %q", args[0], args[1])
	}
	printNode(cmd, node)
	if !math.IsNaN(dist) {
		fmt.Fprintf(cmd.OutOrStdout(), "distance\t%g\n", dist)
	}
	return nil
}

func runFind(cmd *cobra.Command, args []string) error {
	svc, err := loadTaxonomy(cmd.Context())
	if err != nil {
		return err
	}

	node, ok := svc.FindByName(args[0])
	if !ok {
		return fmt.Errorf("no node named %q", args[0])
	}
	printNode(cmd, node)
	return nil
}
