package handlers

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"

	"bursar/pkg/logging"
)

var (
	db      *sql.DB
	logger  logging.Logger
	metrics *BursarMetrics
)

// BursarMetrics holds all Prometheus metrics for Bursar
type BursarMetrics struct {
	InvoiceOperations *prometheus.CounterVec
	PaymentsProcessed *prometheus.CounterVec
	BalanceRecomputes *prometheus.CounterVec
	DBQueries         *prometheus.CounterVec
	DBDuration        *prometheus.HistogramVec
	DBConnections     *prometheus.GaugeVec
}

// Init initializes the handlers with database, logger and metrics
func Init(database *sql.DB, log logging.Logger, bursarMetrics *BursarMetrics) {
	db = database
	logger = log
	metrics = bursarMetrics
}

func countInvoiceOperation(operation, status string) {
	if metrics != nil && metrics.InvoiceOperations != nil {
		metrics.InvoiceOperations.WithLabelValues(operation, status).Inc()
	}
}

func countPayment(status string) {
	if metrics != nil && metrics.PaymentsProcessed != nil {
		metrics.PaymentsProcessed.WithLabelValues(status).Inc()
	}
}

func countBalanceRecompute(status string) {
	if metrics != nil && metrics.BalanceRecomputes != nil {
		metrics.BalanceRecomputes.WithLabelValues(status).Inc()
	}
}
