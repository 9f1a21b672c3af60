package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runsTotal counts import runs by mode and outcome.
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "import_runs_total",
		Help: "Total number of import runs by mode and outcome",
	}, []string{"mode", "outcome"})

	// runDuration tracks the wall time of a run.
	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "import_run_duration_seconds",
		Help:    "Time taken by an import run by mode",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"mode"})

	// rowsTotal counts report rows produced.
	rowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "Total number of rows reported by mode",
	}, []string{"mode"})

	// eventsTotal counts reconciliation events by kind.
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "import_reconcile_events_total",
		Help: "Total number of reconciliation events by kind",
	}, []string{"kind"})

	// templateDiagnostics counts malformed template calls met while evaluating fields.
	templateDiagnostics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "import_template_diagnostics_total",
		Help: "Total number of malformed template calls",
	})
)
