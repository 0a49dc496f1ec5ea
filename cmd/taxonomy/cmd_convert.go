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

// runConvert decodes the input taxonomy and re-encodes it in the output
// format, optionally restricted to a subtree.
func runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := loadTaxonomy(ctx)
	if err != nil {
		return err
	}
	logger.Debug("taxonomy loaded", "format", inFormat, "nodes", svc.Len())

	if err := saveTaxonomy(ctx, svc); err != nil {
		return err
	}
	logger.Info("taxonomy converted",
		"from", inFormat, "to", outFormat, "nodes", svc.Len())
	return nil
}
