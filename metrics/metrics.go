/*
DESCRIPTION
  metrics.go provides the Prometheus metrics of the stream executor, and a
  server to expose them.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package metrics provides the Prometheus metrics of the stream executor.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ausocean/utils/logging"
)

var (
	FramesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamdetect_frames_read_total",
		Help: "Total number of frames read from the stream",
	})

	FramesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamdetect_frames_processed_total",
		Help: "Total number of frames passed to the component",
	})

	SegmentsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamdetect_segments_completed_total",
		Help: "Total number of segments for which a summary report was sent",
	})

	TracksReported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamdetect_tracks_reported_total",
		Help: "Total number of tracks sent in summary reports",
	})

	ActivityAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamdetect_activity_alerts_total",
		Help: "Total number of activity alerts sent",
	})

	StallAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamdetect_stall_alerts_total",
		Help: "Total number of stall alerts sent",
	})

	ReadRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamdetect_read_retries_total",
		Help: "Total number of stream reconnect and read attempts after a failed read",
	})

	SummaryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamdetect_summary_failures_total",
		Help: "Total number of summary reports that could not be sent",
	})

	FrameReadInterval = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "streamdetect_frame_read_interval_seconds",
		Help:    "Time between consecutive frame reads",
		Buckets: []float64{.01, .02, .04, .08, .16, .32, .64, 1.28, 2.56, 5.12},
	})
)

// Handler returns the handler of the metrics endpoints, /metrics and
// /healthz.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Serve serves the metrics at /metrics on addr until the server fails. It is
// intended to be run in its own goroutine.
func Serve(addr string, log logging.Logger) {
	log.Info("metrics server starting", "addr", addr)
	err := http.ListenAndServe(addr, Handler())
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server failed", "error", err.Error())
	}
}
