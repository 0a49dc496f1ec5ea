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
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/taxonomy/taxonomy"
)

var ncbiTracer = otel.Tracer("formats.ncbi")

// ncbiDelim separates columns in both dump tables. Rows additionally end
// with a bare "\t|" terminator.
const ncbiDelim = "\t|\t"

// scientificNameClass marks the authoritative name row in names.dmp.
const scientificNameClass = "scientific name"

// ncbiScannerBuffer sizes the line scanner for dump files. NCBI name rows
// stay well under this, but synonym-heavy rows can exceed bufio's default.
const ncbiScannerBuffer = 1 << 20

// LoadNCBI decodes the two-file NCBI taxonomy dump convention.
//
// Description:
//
//	nodes holds one row per taxon ("tax_id\t|\tparent_id\t|\trank\t|\t...");
//	names holds name rows ("tax_id\t|\tname\t|\tunique\t|\tclass\t|") of
//	which only the scientific-name class rows are taken as the node name.
//	Both tables are consumed in a single streaming pass each, with name
//	attachment done through the id map in O(1) per row; this is the
//	codec used for multi-million-node inputs. The row whose parent id
//	equals its own id is the root.
//
// Inputs:
//   - ctx: Context for tracing.
//   - nodes: The structure table (nodes.dmp).
//   - names: The name table (names.dmp).
//
// Outputs:
//   - *taxonomy.Tree: The decoded tree, with parsed ranks and no branch
//     lengths.
//   - error: *DecodeError carrying the 1-based line number on short rows,
//     unresolvable parent ids, or name rows for unknown taxa.
func LoadNCBI(ctx context.Context, nodes, names io.Reader) (tree *taxonomy.Tree, err error) {
	_, span := ncbiTracer.Start(ctx, "formats.LoadNCBI")
	defer span.End()
	start := time.Now()
	defer func() { recordDecode(FormatNCBI, start, err) }()

	var (
		ids       []string
		parentIDs []string
		ranks     []taxonomy.Rank
	)
	idToIdx := make(map[string]int)

	nodeScan := bufio.NewScanner(nodes)
	nodeScan.Buffer(make([]byte, 0, 64*1024), ncbiScannerBuffer)
	lineNo := 0
	for nodeScan.Scan() {
		lineNo++
		fields := strings.Split(nodeScan.Text(), ncbiDelim)
		if len(fields) < 10 {
			msg := "not enough fields; nodes table is malformed"
			if lineNo == 1 {
				msg = "not enough fields; are the nodes and names tables switched?"
			}
			return nil, decodeErrf(FormatNCBI, lineNo, -1, nil, "%s", msg)
		}
		id := fields[0]
		ids = append(ids, id)
		parentIDs = append(parentIDs, fields[1])
		ranks = append(ranks, taxonomy.ParseRank(fields[2]))
		idToIdx[id] = len(ids) - 1
	}
	if serr := nodeScan.Err(); serr != nil {
		return nil, decodeErrf(FormatNCBI, lineNo, -1, serr, "nodes table read failed: %v", serr)
	}

	parents := make([]int, len(ids))
	for ix, pid := range parentIDs {
		if pid == ids[ix] {
			// The dump convention marks the root by pointing it at itself.
			parents[ix] = -1
			continue
		}
		pix, ok := idToIdx[pid]
		if !ok {
			return nil, decodeErrf(FormatNCBI, ix+1, -1, nil, "parent id %q not found; truncated nodes table?", pid)
		}
		parents[ix] = pix
	}

	nodeNames := make([]string, len(ids))
	nameScan := bufio.NewScanner(names)
	nameScan.Buffer(make([]byte, 0, 64*1024), ncbiScannerBuffer)
	lineNo = 0
	for nameScan.Scan() {
		lineNo++
		fields := strings.Split(nameScan.Text(), ncbiDelim)
		if len(fields) > 10 {
			return nil, decodeErrf(FormatNCBI, lineNo, -1, nil, "too many fields; names table is malformed")
		}
		if len(fields) < 4 {
			return nil, decodeErrf(FormatNCBI, lineNo, -1, nil, "not enough fields; names table is malformed")
		}
		// The class column carries the row terminator, so prefix-match it.
		if !strings.HasPrefix(fields[3], scientificNameClass) {
			continue
		}
		ix, ok := idToIdx[fields[0]]
		if !ok {
			return nil, decodeErrf(FormatNCBI, lineNo, -1, nil, "name row for unknown tax id %q", fields[0])
		}
		nodeNames[ix] = fields[1]
	}
	if serr := nameScan.Err(); serr != nil {
		return nil, decodeErrf(FormatNCBI, lineNo, -1, serr, "names table read failed: %v", serr)
	}

	tree, err = taxonomy.FromArrays(ids, parents, nodeNames, ranks, nil, nil)
	if err != nil {
		return nil, decodeErrf(FormatNCBI, 0, -1, err, "invalid tree: %v", err)
	}

	span.SetAttributes(attribute.Int("node_count", tree.Len()))
	slog.Debug("Decoded NCBI taxonomy",
		slog.Int("nodes", tree.Len()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return tree, nil
}

// SaveNCBI writes the tree as an NCBI-convention dump pair: one row per
// node in each table, in preorder. The root row points at itself; columns
// beyond id/parent/rank are left empty.
func SaveNCBI(ctx context.Context, nodes, names io.Writer, tax taxonomy.Taxonomy) (err error) {
	_, span := ncbiTracer.Start(ctx, "formats.SaveNCBI")
	defer span.End()
	defer func() { recordEncode(FormatNCBI, err) }()

	root, ok := tax.Root()
	if !ok {
		return encodeErrf(FormatNCBI, nil, "empty taxonomy")
	}

	nodeW := bufio.NewWriter(nodes)
	nameW := bufio.NewWriter(names)
	count := 0
	for n := range taxonomy.PreOrder(tax, root.ID) {
		parentID := n.ID
		if p, hasParent := tax.Parent(n.ID); hasParent {
			parentID = p.ID
		}
		_, werr := fmt.Fprintf(nodeW, "%s\t|\t%s\t|\t%s\t|\t\t|\t\t|\t\t|\t\t|\t\t|\t\t|\t\t|\t\t|\t\t|\t\t|\n",
			n.ID, parentID, n.Rank)
		if werr != nil {
			err = encodeErrf(FormatNCBI, werr, "nodes table write failed: %v", werr)
			return err
		}
		_, werr = fmt.Fprintf(nameW, "%s\t|\t%s\t|\t\t|\t%s\t|\n", n.ID, n.Name, scientificNameClass)
		if werr != nil {
			err = encodeErrf(FormatNCBI, werr, "names table write failed: %v", werr)
			return err
		}
		count++
	}
	if werr := nodeW.Flush(); werr != nil {
		err = encodeErrf(FormatNCBI, werr, "nodes table write failed: %v", werr)
		return err
	}
	if werr := nameW.Flush(); werr != nil {
		err = encodeErrf(FormatNCBI, werr, "names table write failed: %v", werr)
		return err
	}

	span.SetAttributes(attribute.Int("node_count", count))
	return nil
}
