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
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/taxonomy/taxonomy"
)

var phyloxmlTracer = otel.Tracer("formats.phyloxml")

// LoadPhyloXML decodes a PhyloXML phylogeny. Experimental: only the clade
// structure and the name, id, rank and branch_length fields are read;
// other schema elements are skipped.
//
// Description:
//
//	The decoder streams XML tokens, locates the first <phylogeny>
//	element, and maps nested <clade> elements to tree structure. A
//	branch length may appear as a branch_length attribute on the clade
//	or as a <branch_length> child element; clades without one have no
//	branch length. Clades without an <id> get synthesized UUID ids.
//
// Outputs:
//   - *taxonomy.Tree: The decoded tree.
//   - error: *DecodeError on malformed XML (with byte offset), a missing
//     or nested <phylogeny>, or an unparsable branch length.
func LoadPhyloXML(ctx context.Context, r io.Reader) (tree *taxonomy.Tree, err error) {
	_, span := phyloxmlTracer.Start(ctx, "formats.LoadPhyloXML")
	defer span.End()
	start := time.Now()
	defer func() { recordDecode(FormatPhyloXML, start, err) }()

	dec := xml.NewDecoder(r)

	// Skip ahead to the phylogeny element.
	for {
		tok, terr := dec.Token()
		if errors.Is(terr, io.EOF) {
			return nil, decodeErrf(FormatPhyloXML, 0, dec.InputOffset(), nil, "no phylogeny element found")
		}
		if terr != nil {
			return nil, decodeErrf(FormatPhyloXML, 0, dec.InputOffset(), terr, "malformed XML: %v", terr)
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "phylogeny" {
			break
		}
	}

	var (
		ids     []string
		names   []string
		parents []int
		ranks   []taxonomy.Rank
		dists   []float64
		lineage []int
	)
	currentTag := ""

	for {
		tok, terr := dec.Token()
		if errors.Is(terr, io.EOF) {
			break
		}
		if terr != nil {
			return nil, decodeErrf(FormatPhyloXML, 0, dec.InputOffset(), terr, "malformed XML: %v", terr)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "phylogeny":
				return nil, decodeErrf(FormatPhyloXML, 0, dec.InputOffset(), nil, "nested phylogeny elements are not permitted")
			case "clade":
				parent := -1
				if len(lineage) > 0 {
					parent = lineage[len(lineage)-1]
				}
				dist := taxonomy.NoDist()
				for _, attr := range el.Attr {
					if attr.Name.Local != "branch_length" {
						continue
					}
					d, perr := strconv.ParseFloat(attr.Value, 64)
					if perr != nil {
						return nil, decodeErrf(FormatPhyloXML, 0, dec.InputOffset(), perr, "bad branch_length %q", attr.Value)
					}
					dist = d
				}
				ids = append(ids, "")
				names = append(names, "")
				parents = append(parents, parent)
				ranks = append(ranks, taxonomy.RankNoRank)
				dists = append(dists, dist)
				lineage = append(lineage, len(ids)-1)
			default:
				currentTag = el.Name.Local
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "phylogeny":
				goto parsed
			case "clade":
				if len(lineage) > 0 {
					lineage = lineage[:len(lineage)-1]
				}
			default:
				currentTag = ""
			}
		case xml.CharData:
			text := strings.TrimSpace(string(el))
			if text == "" || len(lineage) == 0 {
				// Text before the first clade belongs to the phylogeny
				// itself (it may carry its own <name>).
				continue
			}
			cur := lineage[len(lineage)-1]
			switch currentTag {
			case "name":
				names[cur] = text
			case "id":
				ids[cur] = text
			case "rank":
				ranks[cur] = taxonomy.ParseRank(text)
			case "branch_length":
				d, perr := strconv.ParseFloat(text, 64)
				if perr != nil {
					return nil, decodeErrf(FormatPhyloXML, 0, dec.InputOffset(), perr, "bad branch_length %q", text)
				}
				dists[cur] = d
			}
		}
	}
parsed:

	for i, id := range ids {
		if id == "" {
			ids[i] = uuid.NewString()
		}
	}

	tree, err = taxonomy.FromArrays(ids, parents, names, ranks, dists, nil)
	if err != nil {
		return nil, decodeErrf(FormatPhyloXML, 0, -1, err, "invalid tree: %v", err)
	}

	span.SetAttributes(attribute.Int("node_count", tree.Len()))
	return tree, nil
}

// SavePhyloXML writes the subtree rooted at rootID as a PhyloXML
// phylogeny. Experimental: the output covers only the subset of the schema
// LoadPhyloXML reads, which is enough to round-trip this codec's own
// output. An empty rootID selects the whole tree.
func SavePhyloXML(ctx context.Context, w io.Writer, tax taxonomy.Taxonomy, rootID string) (err error) {
	_, span := phyloxmlTracer.Start(ctx, "formats.SavePhyloXML")
	defer span.End()
	defer func() { recordEncode(FormatPhyloXML, err) }()

	if rootID == "" {
		root, ok := tax.Root()
		if !ok {
			return encodeErrf(FormatPhyloXML, nil, "empty taxonomy")
		}
		rootID = root.ID
	} else if _, ok := tax.Get(rootID); !ok {
		return encodeErrf(FormatPhyloXML, nil, "unknown root %q", rootID)
	}

	var buf bytes.Buffer
	buf.WriteString(`<phylogeny rooted="true">`)
	writePhyloXMLClade(&buf, tax, rootID)
	buf.WriteString("</phylogeny>\n")

	if _, werr := w.Write(buf.Bytes()); werr != nil {
		err = encodeErrf(FormatPhyloXML, werr, "write failed: %v", werr)
		return err
	}
	span.SetAttributes(attribute.Int("bytes", buf.Len()))
	return nil
}

func writePhyloXMLClade(buf *bytes.Buffer, tax taxonomy.Taxonomy, id string) {
	n, _ := tax.Get(id)
	buf.WriteString("<clade>")
	buf.WriteString("<id>")
	xmlEscape(buf, n.ID)
	buf.WriteString("</id>")
	if n.Name != "" {
		buf.WriteString("<name>")
		xmlEscape(buf, n.Name)
		buf.WriteString("</name>")
	}
	if n.Rank != taxonomy.RankNoRank {
		buf.WriteString("<rank>")
		xmlEscape(buf, n.Rank.String())
		buf.WriteString("</rank>")
	}
	if n.HasDist() {
		buf.WriteString("<branch_length>")
		buf.WriteString(strconv.FormatFloat(n.Dist, 'g', -1, 64))
		buf.WriteString("</branch_length>")
	}
	for _, child := range tax.Children(id) {
		writePhyloXMLClade(buf, tax, child.ID)
	}
	buf.WriteString("</clade>")
}

func xmlEscape(buf *bytes.Buffer, s string) {
	// xml.EscapeText only fails on writer errors; bytes.Buffer cannot.
	_ = xml.EscapeText(buf, []byte(s))
}
