// Package metrics счётчики Prometheus для операций прогресса и доступа к оценке.
// Все методы допускают nil-получатель: без метрик сервисы работают так же.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор метрик сервиса.
type Metrics struct {
	toggles         *prometheus.CounterVec
	unlockChecks    *prometheus.CounterVec
	unlocks         prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fitprogress",
			Name:      "toggles_total",
			Help:      "Daily flag toggles by activity and outcome.",
		}, []string{"activity", "result"}),
		unlockChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fitprogress",
			Name:      "unlock_checks_total",
			Help:      "Evaluation access checks by outcome.",
		}, []string{"result"}),
		unlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fitprogress",
			Name:      "evaluation_unlocks_total",
			Help:      "LOCKED to UNLOCKED transitions.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fitprogress",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
	reg.MustRegister(m.toggles, m.unlockChecks, m.unlocks, m.requestDuration)
	return m
}

// Toggle учитывает переключение отметки.
func (m *Metrics) Toggle(activity string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.toggles.WithLabelValues(activity, result).Inc()
}

// UnlockCheck учитывает проверку доступа: "unlocked", "locked" или "failed".
func (m *Metrics) UnlockCheck(result string) {
	if m == nil {
		return
	}
	m.unlockChecks.WithLabelValues(result).Inc()
}

// Unlocked учитывает переход доступа в открытое состояние.
func (m *Metrics) Unlocked() {
	if m == nil {
		return
	}
	m.unlocks.Inc()
}

// Middleware измеряет длительность HTTP-запросов.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(r.Method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
