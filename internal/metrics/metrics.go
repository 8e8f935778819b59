package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	appointmentCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salao",
			Name:      "appointment_created_total",
			Help:      "Count of appointments created.",
		},
	)

	appointmentCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salao",
			Name:      "appointment_completed_total",
			Help:      "Count of appointments marked completed.",
		},
	)

	appointmentRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salao",
			Name:      "appointment_removed_total",
			Help:      "Count of appointments soft-deleted.",
		},
	)

	slotConflict = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salao",
			Name:      "slot_conflict_total",
			Help:      "Count of create attempts rejected because the slot was taken.",
		},
	)

	saveFailure = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salao",
			Name:      "save_failure_total",
			Help:      "Count of failed writes to the durable store.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salao",
			Name:      "http_requests_total",
			Help:      "Count of API requests by operation.",
		},
		[]string{"op"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			appointmentCreated,
			appointmentCompleted,
			appointmentRemoved,
			slotConflict,
			saveFailure,
			httpRequests,
		)
	})
}

func IncAppointmentCreated() {
	appointmentCreated.Inc()
}

func IncAppointmentCompleted() {
	appointmentCompleted.Inc()
}

func IncAppointmentRemoved() {
	appointmentRemoved.Inc()
}

func IncSlotConflict() {
	slotConflict.Inc()
}

func IncSaveFailure() {
	saveFailure.Inc()
}

func IncHTTP(op string) {
	httpRequests.WithLabelValues(op).Inc()
}
