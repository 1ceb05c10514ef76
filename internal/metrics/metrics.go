package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "brewhouse",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	reservationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "brewhouse",
			Name:      "reservations_created_total",
			Help:      "Reservations accepted into the active collection.",
		},
	)

	reservationsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "brewhouse",
			Name:      "reservations_rejected_total",
			Help:      "Reservation attempts rejected, by reason.",
		},
		[]string{"reason"},
	)

	reservationMoves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "brewhouse",
			Name:      "reservation_moves_total",
			Help:      "Reservations moved to history, by final status.",
		},
		[]string{"status"},
	)

	recordsReconciled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "brewhouse",
			Name:      "records_reconciled_total",
			Help:      "Duplicated records removed from the active collection.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			reservationsCreated,
			reservationsRejected,
			reservationMoves,
			recordsReconciled,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncReservationCreated() {
	reservationsCreated.Inc()
}

func IncReservationRejected(reason string) {
	reservationsRejected.WithLabelValues(reason).Inc()
}

func IncReservationMoved(status string) {
	reservationMoves.WithLabelValues(status).Inc()
}

func AddRecordsReconciled(n int) {
	recordsReconciled.Add(float64(n))
}
