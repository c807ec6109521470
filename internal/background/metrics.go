// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package background

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// PROMETHEUS METRICS
// =============================================================================

var (
	// messagesTotal counts handled messages by type and outcome
	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rigrun_slots_messages_total",
		Help: "Messages handled by the background, by type and outcome",
	}, []string{"type", "outcome"})

	// messageDuration tracks handler latency including storage
	messageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rigrun_slots_message_duration_seconds",
		Help:    "Message handling duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
	}, []string{"type"})

	// slotCount is the size of the stored collection after the last write
	slotCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rigrun_slots_slot_count",
		Help: "Number of slots in the stored collection",
	})
)
