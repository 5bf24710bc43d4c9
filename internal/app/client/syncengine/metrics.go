package syncengine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsProcessed исходы синхронизации записей: synced, duplicate, failed
	RecordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldsync_records_processed_total",
		Help: "Total number of inspection records processed by the sync engine",
	}, []string{"outcome"})

	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldsync_media_uploads_total",
		Help: "Total number of media upload attempts",
	}, []string{"status"})

	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fieldsync_batch_duration_seconds",
		Help:    "Duration of a full sync pass in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// BatchesSkipped растет, когда вызов пришелся на уже идущий проход
	BatchesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fieldsync_batches_skipped_total",
		Help: "Total number of sync passes skipped because another pass was running",
	})

	PendingRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fieldsync_pending_records",
		Help: "Number of submitted records waiting for sync at the start of the last pass",
	})
)
