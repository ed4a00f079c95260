// Package metrics собирает Prometheus-метрики ядра бронирования
package metrics

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Исходы операций для меток
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder интерфейс, через который сервисы пишут метрики
type Recorder interface {
	RecordReservation(outcome string)
	RecordTransition(from, to model.BookingStatus)
	RecordReview(outcome string)
	RecordSlotsGenerated(count int64)
	RecordMaintenance(job string, affected int64)
	ObserveTx(op string, d time.Duration)
}

// Outcome превращает результат операции в метку: success, категория доменной ошибки или error
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if kind := model.KindOf(err); kind != "" {
		return string(kind)
	}
	return OutcomeError
}

// Collector реализация Recorder поверх Prometheus
type Collector struct {
	reservations   *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	reviews        *prometheus.CounterVec
	slotsGenerated prometheus.Counter
	maintenance    *prometheus.CounterVec
	txDuration     *prometheus.HistogramVec
}

// NewCollector создаёт Collector и регистрирует метрики в reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutor_booking_reservations_total",
			Help: "Reservation attempts by outcome",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutor_booking_status_transitions_total",
			Help: "Committed booking status transitions",
		}, []string{"from", "to"}),
		reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutor_booking_reviews_total",
			Help: "Review submissions by outcome",
		}, []string{"outcome"}),
		slotsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tutor_booking_slots_generated_total",
			Help: "Availability slots inserted by republish",
		}),
		maintenance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutor_booking_maintenance_rows_total",
			Help: "Rows affected by maintenance jobs",
		}, []string{"job"}),
		txDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tutor_booking_tx_duration_seconds",
			Help:    "Duration of core transactions",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(
		c.reservations,
		c.transitions,
		c.reviews,
		c.slotsGenerated,
		c.maintenance,
		c.txDuration,
	)

	return c
}

func (c *Collector) RecordReservation(outcome string) {
	c.reservations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordTransition(from, to model.BookingStatus) {
	c.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (c *Collector) RecordReview(outcome string) {
	c.reviews.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordSlotsGenerated(count int64) {
	c.slotsGenerated.Add(float64(count))
}

func (c *Collector) RecordMaintenance(job string, affected int64) {
	c.maintenance.WithLabelValues(job).Add(float64(affected))
}

func (c *Collector) ObserveTx(op string, d time.Duration) {
	c.txDuration.WithLabelValues(op).Observe(d.Seconds())
}

// Handler возвращает HTTP-обработчик для скрейпа Prometheus
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
