// Package metrics описывает prometheus-метрики ежедневного списания и валидации запросов.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Итоги одного прогона задачи.
const (
	RunSuccess = "success"
	RunFailed  = "failed"
	RunSkipped = "skipped"
)

// Итоги обработки одного пользователя.
const (
	UserDecremented = "decremented"
	UserExpired     = "expired"
	UserFailed      = "failed"
	UserSkipped     = "skipped"
)

// Metrics содержит счётчики задачи списания и HTTP-валидации.
type Metrics struct {
	runs               *prometheus.CounterVec
	users              *prometheus.CounterVec
	duration           prometheus.Histogram
	validationFailures *prometheus.CounterVec
}

// New регистрирует метрики в reg. Для процесса используется prometheus.DefaultRegisterer,
// в тестах отдельный prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "decrement_job_runs_total",
			Help: "Number of subscription decrement runs by result.",
		}, []string{"result"}),
		users: f.NewCounterVec(prometheus.CounterOpts{
			Name: "decrement_job_users_total",
			Help: "Number of processed users by outcome.",
		}, []string{"outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "decrement_job_duration_seconds",
			Help:    "Duration of a subscription decrement run.",
			Buckets: prometheus.DefBuckets,
		}),
		validationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "request_validation_failures_total",
			Help: "Number of requests rejected by schema validation.",
		}, []string{"route"}),
	}
}

// ObserveRun фиксирует итог прогона и его длительность.
func (m *Metrics) ObserveRun(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObserveUser фиксирует итог обработки одного пользователя.
func (m *Metrics) ObserveUser(outcome string) {
	if m == nil {
		return
	}
	m.users.WithLabelValues(outcome).Inc()
}

// ValidationFailed увеличивает счётчик отклонённых запросов для маршрута.
func (m *Metrics) ValidationFailed(route string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(route).Inc()
}
