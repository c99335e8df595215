package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fulfillment_events_consumed_total",
		Help: "Paid-order events fetched from the intake topic.",
	})
	eventsReconciled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fulfillment_events_reconciled_total",
		Help: "Events that completed reconciliation and were committed.",
	})
	eventsDeadLettered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fulfillment_events_dead_lettered_total",
		Help: "Events routed to the DLQ after exhausting retries or failing permanently.",
	})
	handleRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fulfillment_handle_retries_total",
		Help: "In-process redeliveries of an event to the orchestrator.",
	})
)
