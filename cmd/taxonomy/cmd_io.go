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
	"context"
	"fmt"
	"io"
	"os"

	"github.com/AleutianAI/taxonomy/service"
)

// openInput opens path for reading, treating "-" as stdin.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// openOutput opens path for writing, treating "-" as stdout.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// loadTaxonomy builds a service from the shared input flags.
func loadTaxonomy(ctx context.Context) (*service.Service, error) {
	svc := service.New()

	if inFormat == service.FormatNCBI {
		if nodesPath == "" || namesPath == "" {
			return nil, fmt.Errorf("ncbi input needs --nodes and --names")
		}
		nodes, err := openInput(nodesPath)
		if err != nil {
			return nil, err
		}
		defer nodes.Close()
		names, err := openInput(namesPath)
		if err != nil {
			return nil, err
		}
		defer names.Close()
		if err := svc.Load(ctx, service.FormatNCBI, nodes, names); err != nil {
			return nil, err
		}
		return svc, nil
	}

	in, err := openInput(inputPath)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	if len(jsonPath) > 0 {
		if inFormat != service.FormatJSON && inFormat != service.FormatJSONNodeLink {
			return nil, fmt.Errorf("--json-path only applies to json input")
		}
		if err := svc.LoadJSONPath(ctx, in, jsonPath); err != nil {
			return nil, err
		}
		return svc, nil
	}

	if err := svc.Load(ctx, inFormat, in); err != nil {
		return nil, err
	}
	return svc, nil
}

// saveTaxonomy writes svc using the shared output flags.
func saveTaxonomy(ctx context.Context, svc *service.Service) error {
	if outFormat == service.FormatNCBI {
		if outNodesPath == "" || outNamesPath == "" {
			return fmt.Errorf("ncbi output needs --out-nodes and --out-names")
		}
		nodes, err := openOutput(outNodesPath)
		if err != nil {
			return err
		}
		defer nodes.Close()
		names, err := openOutput(outNamesPath)
		if err != nil {
			return err
		}
		defer names.Close()
		return svc.Save(ctx, service.FormatNCBI, subtreeRoot, nodes, names)
	}

	out, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return svc.Save(ctx, outFormat, subtreeRoot, out)
}
