package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Bulk upload pipeline
	IngestionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energy_ingestion_transitions_total",
			Help: "Total number of ingestion pipeline transitions by target state",
		},
		[]string{"state"},
	)

	IngestionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energy_ingestion_failures_total",
			Help: "Total number of ingestion pipeline failures by stage",
		},
		[]string{"stage"},
	)

	IngestionRowsUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "energy_ingestion_rows_uploaded_total",
			Help: "Total number of CSV rows handed to server-side processing",
		},
	)

	// Alert subscription
	SubscriptionOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energy_subscription_operations_total",
			Help: "Total number of subscription operations by operation and result",
		},
		[]string{"operation", "result"}, // check|subscribe|unsubscribe, ok|error|rejected
	)

	// Dashboard
	DashboardRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energy_dashboard_refreshes_total",
			Help: "Total number of dashboard refreshes by result",
		},
		[]string{"result"}, // published|stale|error
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "energy_api_request_duration_seconds",
			Help:    "Duration of remote API calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation", "status"},
	)
)

// WriteTextfile grava todas as métricas registradas no formato texto do Prometheus
// (compatível com o textfile collector do node_exporter).
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("error writing metrics file: %w", err)
	}
	return nil
}
