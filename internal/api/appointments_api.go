package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"salao/internal/catalog"
	"salao/internal/metrics"
	"salao/internal/models"
	"salao/internal/notify"
	"salao/internal/report"
	"salao/internal/store"
)

// CreateAppointmentRequest is the request body for POST /api/appointments.
type CreateAppointmentRequest struct {
	ClientName  string `json:"clientName"`
	ClientPhone string `json:"clientPhone"`
	ServiceName string `json:"serviceName"`
	Date        string `json:"date"`
	TimeSlot    string `json:"timeSlot"`
}

// CreateAppointmentResponse is the response for POST /api/appointments.
type CreateAppointmentResponse struct {
	Success     bool                `json:"success"`
	Appointment *models.Appointment `json:"appointment,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// TransitionResponse is the response for the complete and remove endpoints.
type TransitionResponse struct {
	Success bool   `json:"success"`
	Changed bool   `json:"changed"`
	Error   string `json:"error,omitempty"`
}

// DayGroup is one date bucket of the grouped listing.
type DayGroup struct {
	Date         string               `json:"date"`
	Appointments []models.Appointment `json:"appointments"`
}

// handleServices returns the service catalog.
// GET /api/services
func (s *HTTPServer) handleServices(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("services")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": s.catalog.Services()})
}

// handleTimeSlots returns the bookable slot labels. The blank placeholder is
// a UI artifact and is not exposed here.
// GET /api/timeslots
func (s *HTTPServer) handleTimeSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("timeslots")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"time_slots": s.catalog.BookableSlots()})
}

// handleAvailability pre-checks a slot.
// GET /api/availability?date=...&time_slot=...
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date := r.URL.Query().Get("date")
	timeSlot := r.URL.Query().Get("time_slot")
	if date == "" || timeSlot == "" {
		writeError(w, http.StatusBadRequest, "date and time_slot are required")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":      date,
		"time_slot": timeSlot,
		"available": s.store.IsAvailable(date, timeSlot),
	})
}

// handleAppointments lists active appointments or creates a new one.
// GET  /api/appointments[?date=...][&grouped=true]
// POST /api/appointments
func (s *HTTPServer) handleAppointments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listAppointments(w, r)
	case http.MethodPost:
		s.createAppointment(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) listAppointments(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_appointments")

	if date := r.URL.Query().Get("date"); date != "" {
		writeJSON(w, http.StatusOK, map[string]any{"appointments": s.store.ListByDay(date)})
		return
	}

	if r.URL.Query().Get("grouped") == "true" {
		dates, byDate := s.store.ListActiveGroupedByDate()
		groups := make([]DayGroup, 0, len(dates))
		for _, date := range dates {
			groups = append(groups, DayGroup{Date: date, Appointments: byDate[date]})
		}
		writeJSON(w, http.StatusOK, map[string]any{"days": groups})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"appointments": s.store.ListActive()})
}

func (s *HTTPServer) createAppointment(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_appointment")

	var req CreateAppointmentRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, CreateAppointmentResponse{
			Success: false,
			Error:   "invalid JSON body",
		})
		return
	}

	if msg := validateCreateRequest(&req); msg != "" {
		writeJSON(w, http.StatusBadRequest, CreateAppointmentResponse{
			Success: false,
			Error:   msg,
		})
		return
	}

	appt, err := s.store.Create(
		strings.TrimSpace(req.ClientName),
		req.ClientPhone,
		req.ServiceName,
		req.Date,
		req.TimeSlot,
	)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSlotTaken):
			s.notifier.Set(notify.LevelError, "Este horário já está ocupado!")
			writeJSON(w, http.StatusConflict, CreateAppointmentResponse{
				Success: false,
				Error:   "time slot already taken",
			})
		case errors.Is(err, store.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, CreateAppointmentResponse{
				Success: false,
				Error:   err.Error(),
			})
		default:
			// The booking exists in memory but the save failed; warn the
			// caller that it may not survive a restart.
			s.log.Error().Err(err).Msg("appointment created but save failed")
			writeJSON(w, http.StatusInternalServerError, CreateAppointmentResponse{
				Success:     false,
				Appointment: appt,
				Error:       "appointment recorded but could not be saved to disk",
			})
		}
		return
	}

	s.notifier.Set(notify.LevelSuccess, "Agendamento realizado com sucesso!")
	writeJSON(w, http.StatusOK, CreateAppointmentResponse{
		Success:     true,
		Appointment: appt,
	})
}

// validateCreateRequest enforces the caller contract: non-blank name, phone
// of exactly 11 digits, a date and a real (non-placeholder) time slot.
func validateCreateRequest(req *CreateAppointmentRequest) string {
	if strings.TrimSpace(req.ClientName) == "" {
		return "clientName is required"
	}
	if !isValidPhone(req.ClientPhone) {
		return "clientPhone must be exactly 11 numeric digits"
	}
	if req.ServiceName == "" {
		return "serviceName is required"
	}
	if req.Date == "" {
		return "date is required"
	}
	if req.TimeSlot == "" || catalog.IsPlaceholderSlot(req.TimeSlot) {
		return "timeSlot is required"
	}
	return ""
}

func isValidPhone(phone string) bool {
	if len(phone) != 11 {
		return false
	}
	for _, c := range phone {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// handleAppointmentByID dispatches id-addressed operations.
// POST   /api/appointments/{id}/complete
// DELETE /api/appointments/{id}
func (s *HTTPServer) handleAppointmentByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/appointments/")
	if rest == "" || rest == r.URL.Path {
		writeError(w, http.StatusBadRequest, "appointment id is required")
		return
	}

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(rest, "/complete"):
		id, err := strconv.Atoi(strings.TrimSuffix(rest, "/complete"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid appointment id")
			return
		}
		s.completeAppointment(w, id)
	case r.Method == http.MethodDelete:
		id, err := strconv.Atoi(rest)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid appointment id")
			return
		}
		s.removeAppointment(w, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) completeAppointment(w http.ResponseWriter, id int) {
	metrics.IncHTTP("complete_appointment")

	changed, err := s.store.MarkCompleted(id)
	if err != nil {
		s.log.Error().Err(err).Int("id", id).Msg("appointment completed but save failed")
		writeJSON(w, http.StatusInternalServerError, TransitionResponse{
			Success: false,
			Changed: changed,
			Error:   "status changed but could not be saved to disk",
		})
		return
	}
	if !changed {
		writeJSON(w, http.StatusOK, TransitionResponse{
			Success: false,
			Changed: false,
			Error:   "appointment not found or already in a terminal status",
		})
		return
	}

	s.notifier.Set(notify.LevelSuccess, "Agendamento marcado como concluído!")
	writeJSON(w, http.StatusOK, TransitionResponse{Success: true, Changed: true})
}

func (s *HTTPServer) removeAppointment(w http.ResponseWriter, id int) {
	metrics.IncHTTP("remove_appointment")

	changed, err := s.store.Remove(id)
	if err != nil {
		s.log.Error().Err(err).Int("id", id).Msg("appointment removed but save failed")
		writeJSON(w, http.StatusInternalServerError, TransitionResponse{
			Success: false,
			Changed: changed,
			Error:   "status changed but could not be saved to disk",
		})
		return
	}
	if !changed {
		writeJSON(w, http.StatusOK, TransitionResponse{
			Success: false,
			Changed: false,
			Error:   "appointment not found or already in a terminal status",
		})
		return
	}

	s.notifier.Set(notify.LevelInfo, "Agendamento removido!")
	writeJSON(w, http.StatusOK, TransitionResponse{Success: true, Changed: true})
}

// handleReport streams the Excel export of the whole history.
// GET /api/report
func (s *HTTPServer) handleReport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("report")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filename := fmt.Sprintf("agendamentos_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := report.WriteAppointments(s.store.All(), w); err != nil {
		s.log.Error().Err(err).Msg("report export failed")
	}
}

// handleNotice returns the current transient status banner.
// GET /api/notice
func (s *HTTPServer) handleNotice(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("notice")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.notifier.Current())
}
