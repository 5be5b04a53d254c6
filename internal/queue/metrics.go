package queue

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/backend-propostas/internal/obs"
)

var (
	TasksEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_tasks_enqueued_total",
			Help: "Total tasks enqueued grouped by type and outcome",
		},
		[]string{"type", "outcome"},
	)
	TasksProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_processed_total",
			Help: "Total tasks processed grouped by status",
		},
		[]string{"type", "status"},
	)
	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queue_task_duration_ms",
			Help:    "Task processing time in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 5000},
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(TasksEnqueuedTotal, TasksProcessedTotal, TaskDuration)
}

// MetricsMiddleware records the outcome and duration of every processed task.
func MetricsMiddleware(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		err := next.ProcessTask(ctx, t)
		status := "ok"
		if err != nil {
			status = "error"
		}
		TasksProcessedTotal.WithLabelValues(t.Type(), status).Inc()
		TaskDuration.WithLabelValues(t.Type()).Observe(obs.DurationMillis(time.Since(start)))
		return err
	})
}
