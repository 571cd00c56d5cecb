package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maimang",
		Subsystem: "moderation",
		Name:      "transitions_total",
		Help:      "Status transitions attempted, by entity type and result.",
	}, []string{"entity_type", "result"})

	batchItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maimang",
		Subsystem: "moderation",
		Name:      "batch_items_total",
		Help:      "Batch items processed, by result.",
	}, []string{"result"})

	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maimang",
		Subsystem: "notify",
		Name:      "resolutions_total",
		Help:      "Notification target resolutions, by winning rule.",
	}, []string{"rule"})
)

const (
	ResultSuccess  = "success"
	ResultInvalid  = "invalid"
	ResultConflict = "conflict"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

func RecordTransition(entityType, result string) {
	transitionsTotal.WithLabelValues(entityType, result).Inc()
}

func RecordBatchItem(result string) {
	batchItemsTotal.WithLabelValues(result).Inc()
}

func RecordResolution(rule string) {
	resolutionsTotal.WithLabelValues(rule).Inc()
}
