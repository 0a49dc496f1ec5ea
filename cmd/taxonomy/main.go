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
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/taxonomy/pkg/logging"
	"github.com/AleutianAI/taxonomy/telemetry"
)

const defaultConfigPath = "taxonomy.yaml"

var (
	config Config
	logger *logging.Logger

	telemetryShutdown func(context.Context) error
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		explicit := cmd.Flags().Changed("config")
		cfg, err := LoadConfig(configPath, explicit)
		if err != nil {
			return err
		}
		config = cfg

		level := logging.ParseLevel(config.Logging.Level)
		if verbose {
			level = logging.LevelDebug
		}
		logger = logging.New(logging.Config{
			Level:   level,
			LogDir:  config.Logging.Dir,
			Service: "taxonomy",
			JSON:    config.Logging.JSON,
			Quiet:   config.Logging.Quiet,
		})
		slog.SetDefault(logger.Slog())

		tcfg := telemetry.DefaultConfig()
		if config.Telemetry.TraceExporter != "" {
			tcfg.TraceExporter = config.Telemetry.TraceExporter
		}
		if config.Telemetry.MetricExporter != "" {
			tcfg.MetricExporter = config.Telemetry.MetricExporter
		}
		if config.Telemetry.OTLPEndpoint != "" {
			tcfg.OTLPEndpoint = config.Telemetry.OTLPEndpoint
		}
		telemetryShutdown, err = telemetry.Init(cmd.Context(), tcfg)
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		return nil
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if telemetryShutdown != nil {
			if err := telemetryShutdown(context.Background()); err != nil {
				logger.Warn("telemetry shutdown failed", "error", err)
			}
		}
		if logger != nil {
			_ = logger.Close()
		}
	}
}
