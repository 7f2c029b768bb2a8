// Package metrics collects prometheus metrics for a single import run. The
// importer is a batch job, so the registry is private and flushed to a
// node_exporter textfile instead of being served over HTTP.
package metrics

import (
	"fmt"
	"time"

	"github.com/jgivc/assetimporter/internal/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "assetimporter"

type Metrics struct {
	registry *prometheus.Registry

	filesTotal            *prometheus.CounterVec
	foldersCreated        prometheus.Counter
	originalsDeleted      prometheus.Counter
	originalsDeleteFailed prometheus.Counter
	runDuration           prometheus.Gauge
	lastRunStatus         prometheus.Gauge
	lastRunTimestamp      prometheus.Gauge
	batchLimitReached     prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,
		filesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_total",
				Help:      "Number of processed source files by outcome",
			},
			[]string{"outcome"},
		),
		foldersCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "folders_created_total",
				Help:      "Number of folders created in the repository",
			},
		),
		originalsDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "originals_deleted_total",
				Help:      "Number of source files removed after import",
			},
		),
		originalsDeleteFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "originals_delete_failures_total",
				Help:      "Number of source files that could not be removed",
			},
		),
		runDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_duration_seconds",
				Help:      "Duration of the last import run",
			},
		),
		lastRunStatus: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_exit_status",
				Help:      "Exit status of the last import run",
			},
		),
		lastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last import run finished",
			},
		),
		batchLimitReached: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_batch_limit_reached",
				Help:      "1 if the last run stopped at the batch size limit",
			},
		),
	}

	// Every outcome is exported even when it did not occur.
	for _, o := range []entity.Outcome{entity.OutcomeCreated, entity.OutcomeUpdated, entity.OutcomeSkipped, entity.OutcomeFailed} {
		m.filesTotal.WithLabelValues(o.String())
	}

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) FileProcessed(outcome entity.Outcome) {
	m.filesTotal.WithLabelValues(outcome.String()).Inc()
}

func (m *Metrics) OriginalDeleted() {
	m.originalsDeleted.Inc()
}

func (m *Metrics) OriginalDeleteFailed() {
	m.originalsDeleteFailed.Inc()
}

// FinishRun records the run level values once the walk is over.
func (m *Metrics) FinishRun(summary entity.Summary, foldersCreated int, started, finished time.Time) {
	m.foldersCreated.Add(float64(foldersCreated))
	m.runDuration.Set(finished.Sub(started).Seconds())
	m.lastRunStatus.Set(float64(summary.Status))
	m.lastRunTimestamp.Set(float64(finished.Unix()))

	if summary.BatchLimitReached {
		m.batchLimitReached.Set(1)
	} else {
		m.batchLimitReached.Set(0)
	}
}

// WriteToTextfile writes the registry atomically in the text exposition format.
func (m *Metrics) WriteToTextfile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, m.registry); err != nil {
		return fmt.Errorf("cannot write metrics to %s: %w", filename, err)
	}

	return nil
}
