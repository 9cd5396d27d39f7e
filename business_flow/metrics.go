package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tracking submission results
const (
	submissionSuccess   = "success"
	submissionInvalid   = "invalid"
	submissionForbidden = "forbidden"
	submissionError     = "error"
)

var (
	trackingSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atf_tracking_submissions_total",
			Help: "Tracking submissions partitioned by result",
		},
		[]string{"result"},
	)

	retentionRowsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "atf_retention_rows_deleted_total",
			Help: "Tracking records removed by the retention purge",
		},
	)

	retentionLastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "atf_retention_last_run_timestamp_seconds",
			Help: "Unix time of the last completed retention purge",
		},
	)
)
