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

import "fmt"

// Format names used in error reporting and metrics labels.
const (
	FormatNewick   = "newick"
	FormatNCBI     = "ncbi"
	FormatJSON     = "json"
	FormatPhyloXML = "phyloxml"
	FormatGTDB     = "gtdb"
)

// DecodeError describes malformed input for a specific format. Line is
// 1-based and 0 when the format has no line structure; Pos is a byte
// offset into the input and -1 when unknown.
type DecodeError struct {
	Format string
	Line   int
	Pos    int64
	Msg    string
	Err    error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s decode: line %d: %s", e.Format, e.Line, e.Msg)
	case e.Pos >= 0:
		return fmt.Sprintf("%s decode: byte %d: %s", e.Format, e.Pos, e.Msg)
	default:
		return fmt.Sprintf("%s decode: %s", e.Format, e.Msg)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErrf(format string, line int, pos int64, err error, msg string, args ...any) *DecodeError {
	return &DecodeError{
		Format: format,
		Line:   line,
		Pos:    pos,
		Msg:    fmt.Sprintf(msg, args...),
		Err:    err,
	}
}

// EncodeError describes a failure to serialize a tree into a format,
// either because the tree violates an assumption the format requires or
// because the underlying writer failed.
type EncodeError struct {
	Format string
	Msg    string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s encode: %s", e.Format, e.Msg)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

func encodeErrf(format string, err error, msg string, args ...any) *EncodeError {
	return &EncodeError{
		Format: format,
		Msg:    fmt.Sprintf(msg, args...),
		Err:    err,
	}
}
