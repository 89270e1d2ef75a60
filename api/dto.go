/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the in-memory tuition model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

DERIVED FIELDS:
  TuitionDTO carries the per-tuition values a screen needs without
  recomputing them client side: monthly limit, this month's count,
  remaining sessions, progress percentage and whether the next check
  would wipe the month.

VALIDATION:
  Validation is done by the tuition package, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - tuition/types.go: Domain model
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/tuition-engine/calendar"
	"github.com/warp/tuition-engine/reminder"
	"github.com/warp/tuition-engine/tuition"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// TuitionDTO represents a tuition in API responses.
type TuitionDTO struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Color          string          `json:"color"`
	Icon           string          `json:"icon"`
	DaysPerWeek    int             `json:"days_per_week"`
	PaymentStatus  bool            `json:"payment_status"`
	LastPaidMonth  string          `json:"last_paid_month"`
	CompletedDates []string        `json:"completed_dates"`
	MonthlyLimit   int             `json:"monthly_limit"`
	MonthCount     int             `json:"current_month_count"`
	Remaining      int             `json:"remaining"`
	Progress       decimal.Decimal `json:"progress"`
	Focused        bool            `json:"focused"`

	// Set only when the request names a date.
	Checked    *bool `json:"checked,omitempty"`
	WouldReset *bool `json:"would_reset,omitempty"`
}

// CreateTuitionRequest is the request to add a tuition.
type CreateTuitionRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// UpdateTuitionRequest changes display fields. Empty color/icon keep the current value.
type UpdateTuitionRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// ToggleAttendanceRequest names the day to toggle, as YYYY-MM-DD.
type ToggleAttendanceRequest struct {
	Date string `json:"date"`
}

// DaysPerWeekRequest sets the weekly schedule.
type DaysPerWeekRequest struct {
	DaysPerWeek int `json:"days_per_week"`
}

// FocusDTO is the calendar focus state.
type FocusDTO struct {
	TuitionID string `json:"tuition_id,omitempty"`
	Focused   bool   `json:"focused"`
}

// MarksResponse holds calendar marks keyed by day key.
type MarksResponse struct {
	Focus FocusDTO                           `json:"focus"`
	Marks map[calendar.DayKey][]tuition.Mark `json:"marks"`
}

// ReminderDTO represents one payment reminder.
type ReminderDTO struct {
	ID        string `json:"id"`
	TuitionID string `json:"tuition_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	FireAt    string `json:"fire_at"`
}

// RemindersResponse lists planned and queued reminders.
type RemindersResponse struct {
	Planned []ReminderDTO `json:"planned"`
	Pending []ReminderDTO `json:"pending,omitempty"`
}

// RolloverResponse reports the outcome of a manual rollover.
type RolloverResponse struct {
	Changed  bool         `json:"changed"`
	Tuitions []TuitionDTO `json:"tuitions"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toTuitionDTO(t tuition.Tuition, now time.Time, focused bool) TuitionDTO {
	keys := t.CompletedDates.Keys()
	dates := make([]string, len(keys))
	for i, k := range keys {
		dates[i] = string(k)
	}
	return TuitionDTO{
		ID:             t.ID,
		Name:           t.Name,
		Color:          t.Color,
		Icon:           t.Icon,
		DaysPerWeek:    t.DaysPerWeek,
		PaymentStatus:  t.PaymentStatus,
		LastPaidMonth:  t.LastPaidMonth,
		CompletedDates: dates,
		MonthlyLimit:   tuition.MonthlyLimit(t),
		MonthCount:     tuition.CurrentMonthCount(t, now),
		Remaining:      tuition.Remaining(t, now),
		Progress:       tuition.Progress(t, now),
		Focused:        focused,
	}
}

// withDate fills the date-dependent fields.
func (d TuitionDTO) withDate(t tuition.Tuition, date, now time.Time) TuitionDTO {
	checked := tuition.IsCheckedOn(t, date)
	reset := tuition.WouldReset(t, date, now)
	d.Checked = &checked
	d.WouldReset = &reset
	return d
}

func toReminderDTOs(rs []reminder.Reminder) []ReminderDTO {
	out := make([]ReminderDTO, len(rs))
	for i, r := range rs {
		out[i] = ReminderDTO{
			ID:        r.ID,
			TuitionID: r.TuitionID,
			Title:     r.Title,
			Body:      r.Body,
			FireAt:    r.FireAt.Format(time.RFC3339),
		}
	}
	return out
}
