// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package formats holds the codecs that translate between external byte
// representations and the taxonomy store: Newick, the NCBI two-file dump
// convention, JSON (nested tree shape and node-link shape), PhyloXML and
// the GTDB lineage table (decode only).
//
// The codecs share no state with each other. Each one reads from or writes
// to the taxonomy primitive surface, so adding a format never touches the
// algorithms and vice versa.
//
// # Error Reporting
//
// Malformed input fails the whole decode with a *DecodeError carrying the
// format name and, where the input is line- or byte-addressable, a
// position. A decoder never returns a partially populated tree alongside a
// nil error. Encoding failures surface as *EncodeError.
//
// # Synthesized Identifiers
//
// Newick and PhyloXML allow anonymous nodes. Because every node in the
// store needs a unique external id, decoders assign a fresh UUID to each
// unnamed node. Synthesized ids are stable for the lifetime of the decoded
// tree but not across decodes.
package formats
