// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package formats

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/taxonomy/taxonomy"
)

var gtdbTracer = otel.Tracer("formats.gtdb")

// gtdbRootID anchors the decoded lineages; GTDB tables carry no explicit
// root row and may span several domains.
const gtdbRootID = "root"

// gtdbRankPrefixes maps GTDB lineage level prefixes to ranks.
var gtdbRankPrefixes = map[string]taxonomy.Rank{
	"d__": taxonomy.RankDomain,
	"p__": taxonomy.RankPhylum,
	"c__": taxonomy.RankClass,
	"o__": taxonomy.RankOrder,
	"f__": taxonomy.RankFamily,
	"g__": taxonomy.RankGenus,
	"s__": taxonomy.RankSpecies,
}

// LoadGTDB decodes a GTDB lineage table: one row per accession, the
// accession and a semicolon-separated lineage of prefixed level names
// ("d__Bacteria;p__Proteobacteria;...") separated by a tab. Decode only;
// there is no GTDB encoder.
//
// Level names double as external ids, shared across rows, so lineages
// merge where their levels coincide. Each accession becomes a leaf under
// its last lineage level. A synthetic root anchors the domains.
func LoadGTDB(ctx context.Context, r io.Reader) (tree *taxonomy.Tree, err error) {
	_, span := gtdbTracer.Start(ctx, "formats.LoadGTDB")
	defer span.End()
	start := time.Now()
	defer func() { recordDecode(FormatGTDB, start, err) }()

	ids := []string{gtdbRootID}
	names := []string{""}
	parents := []int{-1}
	ranks := []taxonomy.Rank{taxonomy.RankNoRank}
	idToIdx := map[string]int{gtdbRootID: 0}

	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 64*1024), ncbiScannerBuffer)
	lineNo := 0
	for scan.Scan() {
		lineNo++
		row := scan.Text()
		if row == "" {
			continue
		}
		accession, lineageStr, ok := strings.Cut(row, "\t")
		if !ok {
			return nil, decodeErrf(FormatGTDB, lineNo, -1, nil, "expected accession<TAB>lineage")
		}
		if _, exists := idToIdx[accession]; exists {
			return nil, decodeErrf(FormatGTDB, lineNo, -1, nil, "duplicate accession %q", accession)
		}

		parent := 0
		for _, level := range strings.Split(lineageStr, ";") {
			level = strings.TrimSpace(level)
			if level == "" {
				return nil, decodeErrf(FormatGTDB, lineNo, -1, nil, "empty lineage level")
			}
			if ix, exists := idToIdx[level]; exists {
				parent = ix
				continue
			}
			rank := taxonomy.RankNoRank
			name := level
			if len(level) >= 3 {
				if rk, known := gtdbRankPrefixes[level[:3]]; known {
					rank = rk
					name = level[3:]
				}
			}
			ids = append(ids, level)
			names = append(names, name)
			parents = append(parents, parent)
			ranks = append(ranks, rank)
			idToIdx[level] = len(ids) - 1
			parent = len(ids) - 1
		}

		ids = append(ids, accession)
		names = append(names, accession)
		parents = append(parents, parent)
		ranks = append(ranks, taxonomy.RankNoRank)
		idToIdx[accession] = len(ids) - 1
	}
	if serr := scan.Err(); serr != nil {
		return nil, decodeErrf(FormatGTDB, lineNo, -1, serr, "read failed: %v", serr)
	}

	tree, err = taxonomy.FromArrays(ids, parents, names, ranks, nil, nil)
	if err != nil {
		return nil, decodeErrf(FormatGTDB, 0, -1, err, "invalid tree: %v", err)
	}

	span.SetAttributes(attribute.Int("node_count", tree.Len()))
	return tree, nil
}
