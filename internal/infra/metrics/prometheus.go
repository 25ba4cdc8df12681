package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "surgicalrecap_jobs_processed_total",
		Help: "Total number of keyframe jobs processed, by status",
	}, []string{"status"})

	JobProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "surgicalrecap_job_processing_duration_seconds",
		Help:    "Duration of the keyframe filtering pipeline",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surgicalrecap_frames_extracted_total",
		Help: "Total number of frames extracted across all jobs",
	})

	FramesKeptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surgicalrecap_frames_kept_total",
		Help: "Total number of frames kept by Stage 1 across all jobs",
	})

	WindowsPlannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surgicalrecap_windows_planned_total",
		Help: "Total number of Stage 2 windows planned across all jobs",
	})

	SelectorWindowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "surgicalrecap_selector_windows_total",
		Help: "Stage 2 window selections by outcome (ok or fallback)",
	}, []string{"outcome"})

	KeyframesSelectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surgicalrecap_keyframes_selected_total",
		Help: "Total number of keyframes in final manifests",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "surgicalrecap_active_workers",
		Help: "Number of currently active workers processing jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "surgicalrecap_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
