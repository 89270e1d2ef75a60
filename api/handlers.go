/*
handlers.go - HTTP API handlers for the tuition tracker

PURPOSE:
  Exposes the tracker via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the tracker's operations.

ENDPOINTS:
  Tuitions:
    GET    /api/tuitions                     List tuitions (?date=YYYY-MM-DD adds checked/would_reset)
    POST   /api/tuitions                     Add tuition
    GET    /api/tuitions/{id}                Get tuition
    PUT    /api/tuitions/{id}                Update name/color/icon
    DELETE /api/tuitions/{id}                Remove tuition

  Attendance & billing:
    POST   /api/tuitions/{id}/attendance     Toggle a day
    POST   /api/tuitions/{id}/payment        Toggle paid/unpaid
    PUT    /api/tuitions/{id}/days-per-week  Change weekly schedule

  Calendar:
    POST   /api/tuitions/{id}/focus          Toggle focus
    DELETE /api/focus                        Clear focus
    GET    /api/marks                        Calendar marks

  Reminders & admin:
    GET    /api/reminders                    Planned and queued reminders
    POST   /api/admin/rollover               Clear last month's payments now

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Tracker: the single owner of tuition state
  - Queue: optional reminder queue, for listing pending reminders

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Tuition not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/tuition-engine/calendar"
	"github.com/warp/tuition-engine/reminder"
	"github.com/warp/tuition-engine/tracker"
	"github.com/warp/tuition-engine/tuition"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Tracker *tracker.Tracker
	Queue   reminder.Queue
}

// NewHandler creates a new handler. queue may be nil.
func NewHandler(tr *tracker.Tracker, queue reminder.Queue) *Handler {
	return &Handler{Tracker: tr, Queue: queue}
}

func (h *Handler) dto(t tuition.Tuition, now time.Time) TuitionDTO {
	focusID, focused := h.Tracker.Focus()
	return toTuitionDTO(t, now, focused && focusID == t.ID)
}

// =============================================================================
// TUITION ENDPOINTS
// =============================================================================

// ListTuitions returns every tuition with derived fields.
func (h *Handler) ListTuitions(w http.ResponseWriter, r *http.Request) {
	now := h.Tracker.Now()

	var date *time.Time
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := calendar.ParseDate(s, now.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
			return
		}
		date = &d
	}

	list := h.Tracker.Tuitions()
	out := make([]TuitionDTO, len(list))
	for i, t := range list {
		out[i] = h.dto(t, now)
		if date != nil {
			out[i] = out[i].withDate(t, *date, now)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateTuition adds a tuition.
func (h *Handler) CreateTuition(w http.ResponseWriter, r *http.Request) {
	var req CreateTuitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, err := h.Tracker.AddTuition(req.Name, req.Color, req.Icon)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.dto(created, h.Tracker.Now()))
}

// GetTuition returns one tuition.
func (h *Handler) GetTuition(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tracker.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.dto(t, h.Tracker.Now()))
}

// UpdateTuition changes display fields.
func (h *Handler) UpdateTuition(w http.ResponseWriter, r *http.Request) {
	var req UpdateTuitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	t, err := h.Tracker.UpdateTuition(chi.URLParam(r, "id"), req.Name, req.Color, req.Icon)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.dto(t, h.Tracker.Now()))
}

// DeleteTuition removes a tuition.
func (h *Handler) DeleteTuition(w http.ResponseWriter, r *http.Request) {
	if err := h.Tracker.RemoveTuition(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ATTENDANCE & BILLING ENDPOINTS
// =============================================================================

// ToggleAttendance checks or unchecks a day. An empty date means today.
func (h *Handler) ToggleAttendance(w http.ResponseWriter, r *http.Request) {
	var req ToggleAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	now := h.Tracker.Now()
	date := now
	if req.Date != "" {
		d, err := calendar.ParseDate(req.Date, now.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
			return
		}
		date = d
	}

	t, err := h.Tracker.ToggleAttendance(chi.URLParam(r, "id"), date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	now = h.Tracker.Now()
	writeJSON(w, http.StatusOK, h.dto(t, now).withDate(t, date, now))
}

// TogglePayment flips the paid flag.
func (h *Handler) TogglePayment(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tracker.TogglePayment(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.dto(t, h.Tracker.Now()))
}

// SetDaysPerWeek changes the weekly schedule.
func (h *Handler) SetDaysPerWeek(w http.ResponseWriter, r *http.Request) {
	var req DaysPerWeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	t, err := h.Tracker.SetDaysPerWeek(chi.URLParam(r, "id"), req.DaysPerWeek)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.dto(t, h.Tracker.Now()))
}

// =============================================================================
// CALENDAR ENDPOINTS
// =============================================================================

// ToggleFocus focuses a tuition, or unfocuses it if it already has focus.
func (h *Handler) ToggleFocus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	on, err := h.Tracker.ToggleFocus(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := FocusDTO{Focused: on}
	if on {
		resp.TuitionID = id
	}
	writeJSON(w, http.StatusOK, resp)
}

// ClearFocus shows every tuition on the calendar again.
func (h *Handler) ClearFocus(w http.ResponseWriter, r *http.Request) {
	h.Tracker.ClearFocus()
	writeJSON(w, http.StatusOK, FocusDTO{})
}

// GetMarks returns calendar marks for the current focus.
func (h *Handler) GetMarks(w http.ResponseWriter, r *http.Request) {
	id, focused := h.Tracker.Focus()
	writeJSON(w, http.StatusOK, MarksResponse{
		Focus: FocusDTO{TuitionID: id, Focused: focused},
		Marks: h.Tracker.Marks(),
	})
}

// =============================================================================
// REMINDER & ADMIN ENDPOINTS
// =============================================================================

// ListReminders returns the reminders planned for now and, when a queue is
// configured, the ones still waiting to be delivered.
func (h *Handler) ListReminders(w http.ResponseWriter, r *http.Request) {
	resp := RemindersResponse{
		Planned: toReminderDTOs(reminder.Plan(h.Tracker.Tuitions(), h.Tracker.Now())),
	}
	if h.Queue != nil {
		pending, err := h.Queue.Pending(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list reminders", err)
			return
		}
		resp.Pending = toReminderDTOs(pending)
	}
	writeJSON(w, http.StatusOK, resp)
}

// TriggerRollover clears payments left over from a previous month.
func (h *Handler) TriggerRollover(w http.ResponseWriter, r *http.Request) {
	changed := h.Tracker.CheckRollover(r.Context())

	now := h.Tracker.Now()
	list := h.Tracker.Tuitions()
	out := make([]TuitionDTO, len(list))
	for i, t := range list {
		out[i] = h.dto(t, now)
	}
	writeJSON(w, http.StatusOK, RolloverResponse{Changed: changed, Tuitions: out})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"loaded": h.Tracker.Loaded(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps tracker errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case tuition.IsClientError(err):
		resp := ErrorResponse{Error: err.Error(), Code: "validation"}
		var ve *tuition.ValidationError
		if errors.As(err, &ve) {
			resp.Details = map[string]string{"field": ve.Field, "message": ve.Message}
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case tuition.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Tuition not found", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
