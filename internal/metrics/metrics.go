// Package metrics provides Prometheus metrics for buyboy.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "buyboy"

var (
	// WebhooksTotal counts inbound webhook requests by outcome.
	WebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "webhooks_total",
			Help:      "Total number of webhook requests received",
		},
		[]string{"outcome"},
	)

	// PayloadsTotal counts processed payload items by result.
	PayloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "payloads_total",
			Help:      "Total number of payload items processed, by result",
		},
		[]string{"result"},
	)

	// AlertsTriggeredTotal counts alerts that reached the publisher.
	AlertsTriggeredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "triggered_total",
			Help:      "Total number of alerts published",
		},
	)

	// DeliveryFailuresTotal counts failed external deliveries by surface.
	DeliveryFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "delivery_failures_total",
			Help:      "Total number of failed deliveries to external surfaces",
		},
		[]string{"surface"},
	)

	// DedupSize tracks the current signature set cardinality.
	DedupSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "dedup_size",
			Help:      "Current number of signatures held for deduplication",
		},
	)

	// FeedSubscribers tracks connected overlay feed clients.
	FeedSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "subscribers",
			Help:      "Number of connected live feed subscribers",
		},
	)
)

// Payload item results.
const (
	ResultMalformed = "malformed"
	ResultDuplicate = "duplicate"
	ResultFiltered  = "filtered"
	ResultAccepted  = "accepted"
	ResultTriggered = "triggered"
	ResultCooldown  = "cooldown_rejected"
)
