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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath string
	verbose    bool

	// Input selection, shared by every subcommand.
	inFormat  string
	inputPath string
	nodesPath string // ncbi nodes.dmp
	namesPath string // ncbi names.dmp
	jsonPath  []string

	// Output selection for convert and prune.
	outFormat    string
	outputPath   string
	outNodesPath string
	outNamesPath string
	subtreeRoot  string

	// Prune sets.
	keepIDs   []string
	removeIDs []string

	// Query tuning.
	takeFirstInTie bool

	rootCmd = &cobra.Command{
		Use:   "taxonomy",
		Short: "A cli to convert, query, and edit taxonomic trees",
		Long: `Taxonomy reads trees in newick, NCBI dump, JSON, PhyloXML, and
GTDB formats, answers lineage and ancestor queries over them, and
writes filtered or converted trees back out.`,
	}

	convertCmd = &cobra.Command{
		Use:   "convert",
		Short: "Read a taxonomy in one format and write it in another",
		RunE:  runConvert, // Defined in cmd_convert.go
	}

	// --- Queries ---
	queryCmd = &cobra.Command{
		Use:   "query",
		Short: "Run read-only queries against a taxonomy",
	}
	lineageCmd = &cobra.Command{
		Use:   "lineage [id]",
		Short: "Print the path from a node to the root",
		Args:  cobra.ExactArgs(1),
		RunE:  runLineage, // Defined in cmd_query.go
	}
	lcaCmd = &cobra.Command{
		Use:   "lca [id] [id]",
		Short: "Print the lowest common ancestor of two nodes",
		Args:  cobra.ExactArgs(2),
		RunE:  runLCA, // Defined in cmd_query.go
	}
	ancestorCmd = &cobra.Command{
		Use:   "ancestor [id] [rank]",
		Short: "Print the nearest ancestor at the given rank",
		Args:  cobra.ExactArgs(2),
		RunE:  runAncestor, // Defined in cmd_query.go
	}
	findCmd = &cobra.Command{
		Use:   "find [name]",
		Short: "Print the first node with an exactly matching name",
		Args:  cobra.ExactArgs(1),
		RunE:  runFind, // Defined in cmd_query.go
	}

	// --- Weights ---
	weightsCmd = &cobra.Command{
		Use:   "weights [weights.tsv]",
		Short: "Score weighted paths from an id<TAB>weight table",
		Args:  cobra.ExactArgs(1),
		RunE:  runWeights, // Defined in cmd_weights.go
	}

	pruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Write a filtered copy of a taxonomy",
		RunE:  runPrune, // Defined in cmd_prune.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "Path to the yaml config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.PersistentFlags().StringVar(&inFormat, "from", "json", "Input format (newick, ncbi, json, json-node-link, phyloxml, gtdb)")
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "-", "Input file, or - for stdin")
	rootCmd.PersistentFlags().StringVar(&nodesPath, "nodes", "", "NCBI nodes.dmp path (ncbi input only)")
	rootCmd.PersistentFlags().StringVar(&namesPath, "names", "", "NCBI names.dmp path (ncbi input only)")
	rootCmd.PersistentFlags().StringSliceVar(&jsonPath, "json-path", nil, "Key path to the taxonomy inside a larger JSON document")

	for _, cmd := range []*cobra.Command{convertCmd, pruneCmd} {
		cmd.Flags().StringVar(&outFormat, "to", "json", "Output format (newick, ncbi, json, json-node-link, phyloxml)")
		cmd.Flags().StringVarP(&outputPath, "output", "o", "-", "Output file, or - for stdout")
		cmd.Flags().StringVar(&outNodesPath, "out-nodes", "", "NCBI nodes.dmp output path (ncbi output only)")
		cmd.Flags().StringVar(&outNamesPath, "out-names", "", "NCBI names.dmp output path (ncbi output only)")
		cmd.Flags().StringVar(&subtreeRoot, "root", "", "Write only the subtree below this id")
	}

	pruneCmd.Flags().StringSliceVar(&keepIDs, "keep", nil, "Keep only these nodes, their ancestors, and their descendants")
	pruneCmd.Flags().StringSliceVar(&removeIDs, "remove", nil, "Remove these nodes and their descendants")

	weightsCmd.Flags().BoolVar(&takeFirstInTie, "take-first-in-tie", false, "Report one tied lineage instead of folding ties to their common ancestor")

	queryCmd.AddCommand(lineageCmd, lcaCmd, ancestorCmd, findCmd)
	rootCmd.AddCommand(convertCmd, queryCmd, weightsCmd, pruneCmd)
}
