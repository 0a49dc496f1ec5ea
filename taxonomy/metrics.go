// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package taxonomy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lcaQueriesTotal counts LCA queries by result type.
	// Labels: "success", "node_not_found", "disconnected"
	lcaQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxonomy_lca_queries_total",
		Help: "Total LCA queries by result type",
	}, []string{"result"})

	// mutationsTotal counts mutation operations by kind and outcome.
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxonomy_mutations_total",
		Help: "Total mutation operations by kind and outcome",
	}, []string{"op", "outcome"})

	// treeNodes tracks the node count of the most recently built tree.
	treeNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "taxonomy_tree_nodes",
		Help:    "Node counts of constructed trees",
		Buckets: prometheus.ExponentialBuckets(10, 10, 7),
	})
)

func recordMutation(op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	mutationsTotal.WithLabelValues(op, outcome).Inc()
}
