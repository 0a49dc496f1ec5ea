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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/taxonomy/taxonomy"
)

var jsonTracer = otel.Tracer("formats.json")

// JSONShape identifies which of the two JSON encodings a document uses.
type JSONShape int

const (
	// JSONShapeTree is the nested-children object encoding.
	JSONShapeTree JSONShape = iota

	// JSONShapeNodeLink is the flat nodes-array + links-array encoding.
	JSONShapeNodeLink
)

// String returns the string representation of the JSONShape.
func (s JSONShape) String() string {
	switch s {
	case JSONShapeTree:
		return "tree"
	case JSONShapeNodeLink:
		return "node_link"
	default:
		return "unknown"
	}
}

// classifyJSONShape decides which codec branch handles a decoded document.
// Pure classification on the value's shape; the presence of a "nodes" key
// is what distinguishes node-link documents.
func classifyJSONShape(doc map[string]any) JSONShape {
	if _, ok := doc["nodes"]; ok {
		return JSONShapeNodeLink
	}
	return JSONShapeTree
}

// Reserved node-object keys per shape. Anything else round-trips through
// the node's attributes.
var (
	treeNodeKeys     = map[string]bool{"id": true, "name": true, "rank": true, "children": true}
	nodeLinkNodeKeys = map[string]bool{"id": true, "name": true, "rank": true}
)

// LoadJSON decodes either JSON tree encoding, auto-detecting the shape.
//
// Description:
//
//	The document is decoded generically, an optional key path descends
//	into a sub-object first, and the shape is then classified once: an
//	object with a "nodes" key is node-link (flat node and edge lists with
//	index-valued links), anything else is the nested-children tree shape.
//	Node ids may be JSON strings or numbers; numbers are converted to
//	their string form. Unrecognized fields on a node object are preserved
//	in the node's attributes.
//
// Inputs:
//   - ctx: Context for tracing.
//   - r: The JSON document.
//   - keyPath: Object keys to descend through before interpreting the
//     value as a taxonomy; nil reads the top-level document.
//
// Outputs:
//   - *taxonomy.Tree: The decoded tree.
//   - error: *DecodeError on syntax errors (with byte offset), a missing
//     key-path segment, or a shape violation.
func LoadJSON(ctx context.Context, r io.Reader, keyPath []string) (tree *taxonomy.Tree, err error) {
	_, span := jsonTracer.Start(ctx, "formats.LoadJSON")
	defer span.End()
	start := time.Now()
	defer func() { recordDecode(FormatJSON, start, err) }()

	var doc any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if derr := dec.Decode(&doc); derr != nil {
		pos := int64(-1)
		var syn *json.SyntaxError
		if errors.As(derr, &syn) {
			pos = syn.Offset
		}
		return nil, decodeErrf(FormatJSON, 0, pos, derr, "invalid JSON: %v", derr)
	}

	for _, key := range keyPath {
		obj, ok := doc.(map[string]any)
		if !ok {
			return nil, decodeErrf(FormatJSON, 0, -1, nil, "key path %q does not address an object", key)
		}
		doc, ok = obj[key]
		if !ok {
			return nil, decodeErrf(FormatJSON, 0, -1, nil, "key %q does not exist", key)
		}
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, decodeErrf(FormatJSON, 0, -1, nil, "taxonomy value must be a JSON object")
	}

	shape := classifyJSONShape(obj)
	span.SetAttributes(attribute.String("shape", shape.String()))
	if shape == JSONShapeNodeLink {
		tree, err = loadNodeLinkJSON(obj)
	} else {
		tree, err = loadTreeJSON(obj)
	}
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("node_count", tree.Len()))
	return tree, nil
}

// jsonNodeID accepts string or numeric ids, stringifying numbers.
func jsonNodeID(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, true
	case json.Number:
		return id.String(), true
	default:
		return "", false
	}
}

func loadNodeLinkJSON(doc map[string]any) (*taxonomy.Tree, error) {
	rawNodes, ok := doc["nodes"].([]any)
	if !ok {
		return nil, decodeErrf(FormatJSON, 0, -1, nil, "'nodes' must be an array")
	}
	rawLinks, ok := doc["links"].([]any)
	if !ok {
		return nil, decodeErrf(FormatJSON, 0, -1, nil, "'links' must be an array")
	}

	parents := make([]int, len(rawNodes))
	for i := range parents {
		parents[i] = -1
	}
	for i, rl := range rawLinks {
		link, ok := rl.(map[string]any)
		if !ok {
			return nil, decodeErrf(FormatJSON, 0, -1, nil, "link %d is not an object", i)
		}
		source, err := jsonLinkIndex(link["source"], len(rawNodes))
		if err != nil {
			return nil, decodeErrf(FormatJSON, 0, -1, err, "link %d: bad source: %v", i, err)
		}
		target, err := jsonLinkIndex(link["target"], len(rawNodes))
		if err != nil {
			return nil, decodeErrf(FormatJSON, 0, -1, err, "link %d: bad target: %v", i, err)
		}
		if source == target {
			parents[source] = -1
		} else {
			parents[source] = target
		}
	}

	ids := make([]string, 0, len(rawNodes))
	names := make([]string, 0, len(rawNodes))
	ranks := make([]taxonomy.Rank, 0, len(rawNodes))
	attrs := make([]map[string]any, 0, len(rawNodes))
	for i, rn := range rawNodes {
		node, ok := rn.(map[string]any)
		if !ok {
			return nil, decodeErrf(FormatJSON, 0, -1, nil, "node %d is not an object", i)
		}
		id, name, rank, extra, err := parseJSONNode(node, nodeLinkNodeKeys)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		names = append(names, name)
		ranks = append(ranks, rank)
		attrs = append(attrs, extra)
	}

	tree, err := taxonomy.FromArrays(ids, parents, names, ranks, nil, attrs)
	if err != nil {
		return nil, decodeErrf(FormatJSON, 0, -1, err, "invalid tree: %v", err)
	}
	return tree, nil
}

// jsonLinkIndex converts a link endpoint into a node index.
func jsonLinkIndex(v any, nodeCount int) (int, error) {
	num, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("must be a number")
	}
	ix, err := num.Int64()
	if err != nil {
		return 0, fmt.Errorf("must be an integer: %w", err)
	}
	if ix < 0 || ix >= int64(nodeCount) {
		return 0, fmt.Errorf("index %d out of range for %d nodes", ix, nodeCount)
	}
	return int(ix), nil
}

// parseJSONNode extracts the common node fields plus the attribute leftovers.
func parseJSONNode(node map[string]any, reserved map[string]bool) (id, name string, rank taxonomy.Rank, extra map[string]any, err error) {
	rawID, ok := node["id"]
	if !ok {
		return "", "", "", nil, decodeErrf(FormatJSON, 0, -1, nil, "every node needs an id")
	}
	id, ok = jsonNodeID(rawID)
	if !ok {
		return "", "", "", nil, decodeErrf(FormatJSON, 0, -1, nil, "node ids must be strings or numbers")
	}

	if rawName, present := node["name"]; present && rawName != nil {
		name, ok = rawName.(string)
		if !ok {
			return "", "", "", nil, decodeErrf(FormatJSON, 0, -1, nil, "name for %q is not a string", id)
		}
	}

	rank = taxonomy.RankNoRank
	if rawRank, present := node["rank"]; present && rawRank != nil {
		s, ok := rawRank.(string)
		if !ok {
			return "", "", "", nil, decodeErrf(FormatJSON, 0, -1, nil, "rank for %q is not a string", id)
		}
		rank = taxonomy.ParseRank(s)
	}

	for k, v := range node {
		if reserved[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return id, name, rank, extra, nil
}

func loadTreeJSON(doc map[string]any) (*taxonomy.Tree, error) {
	var (
		ids     []string
		parents []int
		names   []string
		ranks   []taxonomy.Rank
		attrs   []map[string]any
	)

	var addNode func(parentIx int, node map[string]any) error
	addNode = func(parentIx int, node map[string]any) error {
		id, name, rank, extra, err := parseJSONNode(node, treeNodeKeys)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		parents = append(parents, parentIx)
		names = append(names, name)
		ranks = append(ranks, rank)
		attrs = append(attrs, extra)

		ix := len(ids) - 1
		rawChildren, present := node["children"]
		if !present {
			return nil
		}
		children, ok := rawChildren.([]any)
		if !ok {
			return decodeErrf(FormatJSON, 0, -1, nil, "children of %q is not an array", id)
		}
		for i, rc := range children {
			child, ok := rc.(map[string]any)
			if !ok {
				return decodeErrf(FormatJSON, 0, -1, nil, "child %d of %q is not an object", i, id)
			}
			if err := addNode(ix, child); err != nil {
				return err
			}
		}
		return nil
	}

	if err := addNode(-1, doc); err != nil {
		return nil, err
	}

	tree, err := taxonomy.FromArrays(ids, parents, names, ranks, nil, attrs)
	if err != nil {
		return nil, decodeErrf(FormatJSON, 0, -1, err, "invalid tree: %v", err)
	}
	return tree, nil
}

// SaveJSON writes the subtree rooted at rootID in the requested shape. An
// empty rootID selects the whole tree. Node attributes are re-emitted next
// to the reserved fields of the chosen shape; reserved field values always
// come from the store, never from attributes.
func SaveJSON(ctx context.Context, w io.Writer, tax taxonomy.Taxonomy, rootID string, shape JSONShape) (err error) {
	_, span := jsonTracer.Start(ctx, "formats.SaveJSON")
	defer span.End()
	defer func() { recordEncode(FormatJSON, err) }()
	span.SetAttributes(attribute.String("shape", shape.String()))

	if rootID == "" {
		root, ok := tax.Root()
		if !ok {
			return encodeErrf(FormatJSON, nil, "empty taxonomy")
		}
		rootID = root.ID
	} else if _, ok := tax.Get(rootID); !ok {
		return encodeErrf(FormatJSON, nil, "unknown root %q", rootID)
	}

	var doc any
	if shape == JSONShapeNodeLink {
		doc = saveNodeLinkJSON(tax, rootID)
	} else {
		doc = saveTreeJSON(tax, rootID)
	}

	if werr := json.NewEncoder(w).Encode(doc); werr != nil {
		err = encodeErrf(FormatJSON, werr, "write failed: %v", werr)
		return err
	}
	return nil
}

// jsonNodeObject builds the serialized node object for either shape.
func jsonNodeObject(n taxonomy.Node, reserved map[string]bool) map[string]any {
	obj := make(map[string]any, len(n.Attributes)+3)
	for k, v := range n.Attributes {
		if !reserved[k] {
			obj[k] = v
		}
	}
	obj["id"] = n.ID
	obj["name"] = n.Name
	obj["rank"] = n.Rank.String()
	return obj
}

func saveNodeLinkJSON(tax taxonomy.Taxonomy, rootID string) map[string]any {
	nodes := []any{}
	links := []any{}
	idToIx := make(map[string]int)
	for n := range taxonomy.PreOrder(tax, rootID) {
		idToIx[n.ID] = len(nodes)
		nodes = append(nodes, jsonNodeObject(n, nodeLinkNodeKeys))
		if n.ID == rootID {
			continue
		}
		// Parents always precede children in preorder, so the target index
		// is already assigned.
		p, _ := tax.Parent(n.ID)
		links = append(links, map[string]any{
			"source": idToIx[n.ID],
			"target": idToIx[p.ID],
		})
	}
	return map[string]any{
		"nodes":      nodes,
		"links":      links,
		"directed":   true,
		"multigraph": false,
		"graph":      []any{},
	}
}

func saveTreeJSON(tax taxonomy.Taxonomy, rootID string) map[string]any {
	n, _ := tax.Get(rootID)
	obj := jsonNodeObject(n, treeNodeKeys)
	children := []any{}
	for _, child := range tax.Children(rootID) {
		children = append(children, saveTreeJSON(tax, child.ID))
	}
	obj["children"] = children
	return obj
}
