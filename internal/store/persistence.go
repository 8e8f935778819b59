package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"salao/internal/metrics"
	"salao/internal/models"
)

// load reads the durable store. Any read or parse failure is logged and
// recovered to an empty collection: a corrupt data file must never prevent
// the application from starting.
func (s *Store) load() []models.Appointment {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to read data file, starting empty")
		}
		return []models.Appointment{}
	}

	var appointments []models.Appointment
	if err := json.Unmarshal(data, &appointments); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("corrupt data file, starting empty")
		return []models.Appointment{}
	}
	if appointments == nil {
		appointments = []models.Appointment{}
	}
	// Hand-edited files sometimes carry statuses the engine does not know.
	// They are kept as-is (and count as active) but worth flagging.
	for i := range appointments {
		if !appointments[i].Status.Valid() {
			s.logger.Warn().
				Int("id", appointments[i].ID).
				Str("status", string(appointments[i].Status)).
				Msg("unknown status in data file")
		}
	}
	return appointments
}

// saveLocked rewrites the whole collection, removed records included.
// The write goes to a temp file in the same directory and is renamed over
// the data file, so a failure mid-write leaves the previous state intact.
// Callers must hold s.mu.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.appointments, "", "  ")
	if err != nil {
		metrics.IncSaveFailure()
		return fmt.Errorf("failed to encode appointments: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".appointments-*.json")
	if err != nil {
		metrics.IncSaveFailure()
		s.logger.Error().Err(err).Msg("failed to create temp data file")
		return fmt.Errorf("failed to create temp data file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		metrics.IncSaveFailure()
		s.logger.Error().Err(err).Msg("failed to write data file")
		return fmt.Errorf("failed to write data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		metrics.IncSaveFailure()
		return fmt.Errorf("failed to close temp data file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		metrics.IncSaveFailure()
		s.logger.Error().Err(err).Str("path", s.path).Msg("failed to replace data file")
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}
