// Package store owns the appointment collection: availability checks, status
// transitions and synchronous persistence to a single JSON data file.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"salao/internal/catalog"
	"salao/internal/metrics"
	"salao/internal/models"

	"github.com/rs/zerolog"
)

var (
	// ErrSlotTaken signals that an active appointment already holds the
	// requested (date, time slot) pair. No state is changed.
	ErrSlotTaken = errors.New("time slot already taken")

	// ErrInvalidInput signals that a required field was missing or the
	// placeholder time slot was chosen.
	ErrInvalidInput = errors.New("invalid input")
)

// Store is the single owner of all appointments. Every command runs under
// one lock: validation, in-memory mutation and the synchronous save form a
// single critical section, so two concurrent creates cannot both pass the
// availability check for the same slot.
type Store struct {
	path    string
	catalog *catalog.Catalog
	logger  *zerolog.Logger

	mu           sync.Mutex
	appointments []models.Appointment
}

// New opens the store backed by the JSON file at path. A missing or corrupt
// file is recovered to an empty collection; it never prevents startup.
func New(path string, cat *catalog.Catalog, logger *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		path:    path,
		catalog: cat,
		logger:  logger,
	}
	s.appointments = s.load()

	logger.Info().Str("path", path).Int("appointments", len(s.appointments)).Msg("store initialized")
	return s, nil
}

// IsAvailable reports whether no active appointment holds the slot.
func (s *Store) IsAvailable(date, timeSlot string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAvailableLocked(date, timeSlot)
}

func (s *Store) isAvailableLocked(date, timeSlot string) bool {
	for i := range s.appointments {
		if s.appointments[i].Occupies(date, timeSlot) {
			return false
		}
	}
	return true
}

// Create books a new appointment. The service name is resolved against the
// catalog; unknown services fall back to price 0 and 60 minutes rather than
// failing. On a slot conflict nothing is mutated and ErrSlotTaken is
// returned. On success the whole collection has been persisted before the
// call returns; if that save fails the appointment stays in memory and the
// save error is returned alongside it so the caller can warn that the change
// may not survive a restart.
func (s *Store) Create(clientName, clientPhone, serviceName, date, timeSlot string) (*models.Appointment, error) {
	if clientName == "" {
		return nil, fmt.Errorf("%w: client name is required", ErrInvalidInput)
	}
	if date == "" {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if timeSlot == "" || catalog.IsPlaceholderSlot(timeSlot) {
		return nil, fmt.Errorf("%w: time slot is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isAvailableLocked(date, timeSlot) {
		metrics.IncSlotConflict()
		return nil, ErrSlotTaken
	}

	price := catalog.FallbackPrice
	duration := catalog.FallbackDurationMinutes
	if svc, ok := s.catalog.FindService(serviceName); ok {
		price = svc.Price
		duration = svc.DurationMinutes
	} else {
		s.logger.Warn().Str("service", serviceName).Msg("unknown service, using fallback price and duration")
	}

	appt := models.Appointment{
		// IDs count every appointment ever created, removed ones included,
		// so they are never reused.
		ID:              len(s.appointments) + 1,
		ClientName:      clientName,
		ClientPhone:     clientPhone,
		ServiceName:     serviceName,
		Price:           price,
		DurationMinutes: duration,
		Date:            date,
		TimeSlot:        timeSlot,
		Status:          models.StatusScheduled,
	}
	s.appointments = append(s.appointments, appt)

	metrics.IncAppointmentCreated()
	s.logger.Info().
		Int("id", appt.ID).
		Str("date", date).
		Str("time_slot", timeSlot).
		Str("service", serviceName).
		Msg("appointment created")

	if err := s.saveLocked(); err != nil {
		return &appt, err
	}
	return &appt, nil
}

// MarkCompleted transitions the appointment to Completed. Unknown ids and
// terminal statuses are a signaled no-op: (false, nil), nothing changes.
// True is returned only on an actual transition.
func (s *Store) MarkCompleted(id int) (bool, error) {
	changed, err := s.transition(id, models.StatusCompleted)
	if changed {
		metrics.IncAppointmentCompleted()
	}
	return changed, err
}

// Remove soft-deletes the appointment: the record stays in storage for
// history, it is only excluded from active views and the availability check.
// Same no-op contract as MarkCompleted.
func (s *Store) Remove(id int) (bool, error) {
	changed, err := s.transition(id, models.StatusRemoved)
	if changed {
		metrics.IncAppointmentRemoved()
	}
	return changed, err
}

func (s *Store) transition(id int, to models.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.appointments {
		if s.appointments[i].ID != id {
			continue
		}
		if !s.appointments[i].Transition(to) {
			return false, nil
		}
		s.logger.Info().Int("id", id).Str("status", string(to)).Msg("appointment status changed")
		if err := s.saveLocked(); err != nil {
			return true, err
		}
		return true, nil
	}
	return false, nil
}

// ListActive returns all non-removed appointments in insertion order.
func (s *Store) ListActive() []models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		if a.IsActive() {
			out = append(out, a)
		}
	}
	return out
}

// ListByDay returns the active appointments of one date in insertion order.
func (s *Store) ListByDay(date string) []models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Appointment, 0)
	for _, a := range s.appointments {
		if a.IsActive() && a.Date == date {
			out = append(out, a)
		}
	}
	return out
}

// ListActiveGroupedByDate groups active appointments by date. Dates come back
// in ascending lexicographic order and appointments within a date ascending
// by time slot; callers wanting calendar order must use a lexicographically
// sortable date format.
func (s *Store) ListActiveGroupedByDate() ([]string, map[string][]models.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDate := make(map[string][]models.Appointment)
	for _, a := range s.appointments {
		if a.IsActive() {
			byDate[a.Date] = append(byDate[a.Date], a)
		}
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		day := byDate[date]
		sort.SliceStable(day, func(i, j int) bool {
			return day[i].TimeSlot < day[j].TimeSlot
		})
	}
	return dates, byDate
}

// All returns the full history, removed records included, in insertion order.
func (s *Store) All() []models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Appointment, len(s.appointments))
	copy(out, s.appointments)
	return out
}

// Count returns how many appointments were ever created.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appointments)
}

// Path returns the location of the durable store file.
func (s *Store) Path() string {
	return s.path
}
