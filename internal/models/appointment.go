// Package models defines the appointment entity and its status lifecycle.
package models

// Status is the lifecycle state of an appointment. The literal values are
// the wire format of the durable store and must not change.
type Status string

const (
	StatusScheduled Status = "Agendado"
	StatusCompleted Status = "Concluído"
	StatusRemoved   Status = "Removido"
)

// statusTransitions lists the allowed transitions. Completed and Removed are
// terminal: they have no outgoing edges.
var statusTransitions = map[Status][]Status{
	StatusScheduled: {StatusCompleted, StatusRemoved},
	StatusCompleted: {},
	StatusRemoved:   {},
}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRemoved
}

// CanTransition reports whether the transition s -> to is allowed.
func (s Status) CanTransition(to Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Appointment is a single salon booking. Price and DurationMinutes are a
// snapshot of the catalog entry at creation time; later catalog changes do
// not touch existing appointments. JSON field names are the durable store
// contract.
type Appointment struct {
	ID              int     `json:"id"`
	ClientName      string  `json:"clientName"`
	ClientPhone     string  `json:"clientPhone"`
	ServiceName     string  `json:"serviceName"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"durationMinutes"`
	Date            string  `json:"date"`
	TimeSlot        string  `json:"timeSlot"`
	Status          Status  `json:"status"`
}

// IsActive reports whether the appointment counts for availability and
// listings (anything not soft-deleted).
func (a *Appointment) IsActive() bool {
	return a.Status != StatusRemoved
}

// Occupies reports whether the appointment holds the given slot.
func (a *Appointment) Occupies(date, timeSlot string) bool {
	return a.IsActive() && a.Date == date && a.TimeSlot == timeSlot
}

// Transition moves the appointment to the target status if the state machine
// allows it. Returns false and leaves the appointment untouched otherwise.
func (a *Appointment) Transition(to Status) bool {
	if !a.Status.CanTransition(to) {
		return false
	}
	a.Status = to
	return true
}
