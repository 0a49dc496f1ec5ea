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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// decodesTotal counts decode calls by format and outcome.
	decodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxonomy_format_decodes_total",
		Help: "Total decode operations by format and outcome",
	}, []string{"format", "outcome"})

	// decodeDuration tracks decode latency by format. NCBI-scale dumps run
	// for seconds, hence the wide buckets.
	decodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taxonomy_format_decode_duration_seconds",
		Help:    "Decode latency by format",
		Buckets: prometheus.ExponentialBuckets(0.0001, 10, 7),
	}, []string{"format"})

	// encodesTotal counts encode calls by format and outcome.
	encodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxonomy_format_encodes_total",
		Help: "Total encode operations by format and outcome",
	}, []string{"format", "outcome"})
)

func recordDecode(format string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	decodesTotal.WithLabelValues(format, outcome).Inc()
	decodeDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
}

func recordEncode(format string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	encodesTotal.WithLabelValues(format, outcome).Inc()
}
