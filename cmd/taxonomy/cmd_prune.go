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

	"github.com/spf13/cobra"
)

// runPrune loads a taxonomy, applies keep and remove filters, and writes
// the filtered copy.
func runPrune(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if len(keepIDs) == 0 && len(removeIDs) == 0 {
		return fmt.Errorf("prune needs --keep or --remove")
	}

	svc, err := loadTaxonomy(ctx)
	if err != nil {
		return err
	}
	before := svc.Len()

	pruned, err := svc.Prune(keepIDs, removeIDs)
	if err != nil {
		return err
	}

	if err := saveTaxonomy(ctx, pruned); err != nil {
		return err
	}
	logger.Info("taxonomy pruned",
		"nodes_before", before, "nodes_after", pruned.Len())
	return nil
}
