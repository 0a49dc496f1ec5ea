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
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/taxonomy/taxonomy"
)

var newickTracer = otel.Tracer("formats.newick")

// LoadNewick parses bracketed Newick notation into a tree.
//
// Description:
//
//	Each parenthesized group denotes a subtree; the optional label after a
//	closing parenthesis names the group's ancestor node and an optional
//	":<number>" suffix gives the branch length to its parent. Labels are
//	taken as external ids; unlabeled nodes get synthesized UUID ids. A
//	node without a ":<number>" suffix has no branch length.
//
// Inputs:
//   - ctx: Context for tracing.
//   - r: The full Newick document. Read to EOF before parsing.
//
// Outputs:
//   - *taxonomy.Tree: The decoded tree.
//   - error: *DecodeError on unbalanced parentheses, an unparsable branch
//     length, or duplicate labels.
func LoadNewick(ctx context.Context, r io.Reader) (tree *taxonomy.Tree, err error) {
	_, span := newickTracer.Start(ctx, "formats.LoadNewick")
	defer span.End()
	start := time.Now()
	defer func() { recordDecode(FormatNewick, start, err) }()

	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, decodeErrf(FormatNewick, 0, -1, err, "read failed: %v", err)
	}
	buf = bytes.TrimSpace(buf)

	// The outermost group's ancestor is implicit, so the root node exists
	// before any byte is consumed; a trailing top-level label fills it in.
	ids := []string{""}
	parents := []int{-1}
	dists := []float64{taxonomy.NoDist()}
	var lineage []int

	depth := 0
	pos := 0
	for pos < len(buf) {
		switch buf[pos] {
		case '(':
			depth++
			parent := 0
			if len(lineage) > 0 {
				parent = lineage[len(lineage)-1]
			}
			ids = append(ids, "")
			parents = append(parents, parent)
			dists = append(dists, taxonomy.NoDist())
			lineage = append(lineage, len(ids)-1)
			pos++
		case ',':
			if len(lineage) > 0 {
				lineage = lineage[:len(lineage)-1]
			}
			parent := 0
			if len(lineage) > 0 {
				parent = lineage[len(lineage)-1]
			}
			ids = append(ids, "")
			parents = append(parents, parent)
			dists = append(dists, taxonomy.NoDist())
			lineage = append(lineage, len(ids)-1)
			pos++
		case ')':
			depth--
			if depth < 0 {
				return nil, decodeErrf(FormatNewick, 0, int64(pos), nil, "unbalanced parentheses: unexpected ')'")
			}
			if len(lineage) > 0 {
				lineage = lineage[:len(lineage)-1]
			}
			pos++
		default:
			cur := 0
			if len(lineage) > 0 {
				cur = lineage[len(lineage)-1]
			}
			end := pos
			for end < len(buf) && buf[end] != ',' && buf[end] != ')' {
				end++
			}
			chunk := strings.TrimSuffix(string(buf[pos:end]), ";")
			label, distStr, hasDist := strings.Cut(chunk, ":")
			ids[cur] = strings.TrimSpace(label)
			if hasDist {
				d, perr := strconv.ParseFloat(strings.TrimSpace(distStr), 64)
				if perr != nil {
					return nil, decodeErrf(FormatNewick, 0, int64(pos), perr, "bad branch length %q", distStr)
				}
				dists[cur] = d
			}
			pos = end
		}
	}
	if depth != 0 {
		return nil, decodeErrf(FormatNewick, 0, int64(len(buf)), nil, "unbalanced parentheses: %d unclosed group(s)", depth)
	}

	for i, id := range ids {
		if id == "" {
			ids[i] = uuid.NewString()
		}
	}

	tree, err = taxonomy.FromArrays(ids, parents, nil, nil, dists, nil)
	if err != nil {
		return nil, decodeErrf(FormatNewick, 0, -1, err, "invalid tree: %v", err)
	}

	span.SetAttributes(attribute.Int("node_count", tree.Len()))
	slog.Debug("Decoded Newick taxonomy", slog.Int("nodes", tree.Len()))
	return tree, nil
}

type newickTokenKind int

const (
	newickStart newickTokenKind = iota
	newickEnd
	newickDelim
	newickLabel
)

type newickToken struct {
	kind newickTokenKind
	text string
}

// SaveNewick writes the subtree rooted at rootID in Newick notation. An
// empty rootID selects the whole tree. Branch lengths are emitted only for
// nodes that have one.
func SaveNewick(ctx context.Context, w io.Writer, tax taxonomy.Taxonomy, rootID string) (err error) {
	_, span := newickTracer.Start(ctx, "formats.SaveNewick")
	defer span.End()
	defer func() { recordEncode(FormatNewick, err) }()

	if rootID == "" {
		root, ok := tax.Root()
		if !ok {
			return encodeErrf(FormatNewick, nil, "empty taxonomy")
		}
		rootID = root.ID
	} else if _, ok := tax.Get(rootID); !ok {
		return encodeErrf(FormatNewick, nil, "unknown root %q", rootID)
	}

	// Buffer the token stream for the whole subtree; the cleanup pass below
	// needs one token of lookahead to drop empty groups and trailing commas.
	var toks []newickToken
	for n, pre := range taxonomy.Traverse(tax, rootID) {
		if pre {
			toks = append(toks, newickToken{kind: newickStart})
			continue
		}
		label := n.ID
		if _, hasParent := tax.Parent(n.ID); hasParent && n.HasDist() {
			label += ":" + strconv.FormatFloat(n.Dist, 'g', -1, 64)
		}
		toks = append(toks,
			newickToken{kind: newickEnd},
			newickToken{kind: newickLabel, text: label},
			newickToken{kind: newickDelim},
		)
	}

	var out strings.Builder
	skip := false
	for i, tok := range toks {
		if skip {
			skip = false
			continue
		}
		var next *newickToken
		if i+1 < len(toks) {
			next = &toks[i+1]
		}
		// A Start immediately followed by End is a leaf's empty group.
		if tok.kind == newickStart && next != nil && next.kind == newickEnd {
			skip = true
			continue
		}
		// Commas separate siblings; drop the one after the last sibling.
		if tok.kind == newickDelim && (next == nil || next.kind == newickEnd) {
			continue
		}
		switch tok.kind {
		case newickStart:
			out.WriteByte('(')
		case newickEnd:
			out.WriteByte(')')
		case newickDelim:
			out.WriteByte(',')
		case newickLabel:
			out.WriteString(tok.text)
		}
	}
	out.WriteByte(';')

	if _, werr := io.WriteString(w, out.String()); werr != nil {
		err = encodeErrf(FormatNewick, werr, "write failed: %v", werr)
		return err
	}
	span.SetAttributes(attribute.Int("bytes", out.Len()))
	return nil
}
