/*
Package tuition provides the attendance-and-billing state engine.

PURPOSE:
  A Tuition is one recurring lesson series. The user ticks the days they
  attended, the engine derives how many sessions were taken this month and
  compares that against a monthly limit, and a payment flag tracks whether
  the current month has been paid for.

KEY CONCEPTS:
  - Tuition:        One lesson series (value type, replaced wholesale on change)
  - DateSet:        Set of attended day-keys
  - Monthly limit:  DaysPerWeek * 4, always derived, never stored
  - Auto-reset:     Checking a day that would exceed the limit discards this
                    month's attendance and starts a fresh cycle on that day
  - Rollover:       A payment from a previous month is cleared automatically

IMMUTABILITY:
  None of the functions in this package mutate their inputs. Every operation
  returns a new Tuition whose DateSet is a fresh copy, so a caller holding
  the old value (a rendered list, an in-flight save) never observes a
  half-applied change.

FILES:
  - types.go:      Tuition, DateSet, palettes, seeds
  - attendance.go: Toggle logic and derived counts
  - billing.go:    Payment lifecycle and rollover
  - marks.go:      Calendar mark computation
  - record.go:     Blob codec, legacy migration and Repository
  - errors.go:     Error taxonomy

SEE ALSO:
  - calendar: day-key and month-key encodings
  - tracker:  session service that owns the authoritative list
*/
package tuition

import (
	"sort"
	"strings"

	"github.com/warp/tuition-engine/calendar"
)

// =============================================================================
// TUITION
// =============================================================================

type Tuition struct {
	ID             string
	Name           string
	Color          string
	Icon           string
	CompletedDates DateSet
	DaysPerWeek    int
	PaymentStatus  bool
	LastPaidMonth  string
}

const (
	MinDaysPerWeek     = 1
	MaxDaysPerWeek     = 7
	DefaultDaysPerWeek = 2

	// sessions per week are multiplied by this to get the monthly limit
	WeeksPerMonth = 4
)

// Palettes offered to the user when creating a tuition.
var (
	Colors = []string{"#FFD700", "#FF6B6B", "#4ECDC4", "#95E1D3", "#FF8C42", "#6C63FF", "#FF006E", "#00D9FF"}
	Icons  = []string{"calculator", "book", "flask", "globe", "pencil", "briefcase", "star", "heart"}
)

// New builds a fresh tuition: no attendance, unpaid, default schedule.
func New(id, name, color, icon string) Tuition {
	if color == "" {
		color = Colors[0]
	}
	if icon == "" {
		icon = Icons[0]
	}
	return Tuition{
		ID:             id,
		Name:           name,
		Color:          color,
		Icon:           icon,
		CompletedDates: DateSet{},
		DaysPerWeek:    DefaultDaysPerWeek,
	}
}

// DefaultTuitions returns the seed data used when nothing has been stored yet.
func DefaultTuitions() []Tuition {
	math := New("1", "Math Tuition", Colors[0], "calculator")
	math.DaysPerWeek = 3
	english := New("2", "English Tuition", Colors[1], "book")
	english.DaysPerWeek = 2
	return []Tuition{math, english}
}

// ValidateName trims and checks a display name.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", &ValidationError{Field: "name", Message: "please enter a tuition name"}
	}
	return name, nil
}

// ValidateDaysPerWeek checks n against the selectable range.
func ValidateDaysPerWeek(n int) error {
	if n < MinDaysPerWeek || n > MaxDaysPerWeek {
		return &ValidationError{Field: "days_per_week", Message: "must be between 1 and 7"}
	}
	return nil
}

// WithDaysPerWeek returns t with a new schedule.
func WithDaysPerWeek(t Tuition, n int) (Tuition, error) {
	if err := ValidateDaysPerWeek(n); err != nil {
		return t, err
	}
	t.CompletedDates = t.CompletedDates.Clone()
	t.DaysPerWeek = n
	return t, nil
}

// WithDisplay returns t with new display fields. Empty color/icon keep the
// current value.
func WithDisplay(t Tuition, name, color, icon string) (Tuition, error) {
	name, err := ValidateName(name)
	if err != nil {
		return t, err
	}
	t.CompletedDates = t.CompletedDates.Clone()
	t.Name = name
	if color != "" {
		t.Color = color
	}
	if icon != "" {
		t.Icon = icon
	}
	return t, nil
}

// =============================================================================
// DATE SET
// =============================================================================

// DateSet is a set of attended day-keys. Presence means attended.
type DateSet map[calendar.DayKey]bool

func (s DateSet) Has(k calendar.DayKey) bool { return s[k] }
func (s DateSet) Len() int                   { return len(s) }

// Clone returns an independent copy. A nil set clones to an empty one.
func (s DateSet) Clone() DateSet {
	out := make(DateSet, len(s))
	for k, v := range s {
		if v {
			out[k] = true
		}
	}
	return out
}

// With returns a copy that also contains k.
func (s DateSet) With(k calendar.DayKey) DateSet {
	out := s.Clone()
	out[k] = true
	return out
}

// Without returns a copy that does not contain k.
func (s DateSet) Without(k calendar.DayKey) DateSet {
	out := s.Clone()
	delete(out, k)
	return out
}

// WithoutMonth returns a copy with every key of ym removed.
func (s DateSet) WithoutMonth(ym calendar.YearMonth) DateSet {
	out := make(DateSet, len(s))
	for k, v := range s {
		if v && !ym.Contains(k) {
			out[k] = true
		}
	}
	return out
}

// CountIn returns how many keys fall inside ym.
func (s DateSet) CountIn(ym calendar.YearMonth) int {
	n := 0
	for k, v := range s {
		if v && ym.Contains(k) {
			n++
		}
	}
	return n
}

// Keys returns the keys in chronological order.
func (s DateSet) Keys() []calendar.DayKey {
	keys := make([]calendar.DayKey, 0, len(s))
	for k, v := range s {
		if v {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := calendar.ParseDayKey(keys[i])
		b, errB := calendar.ParseDayKey(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a.String() < b.String()
	})
	return keys
}

// =============================================================================
// LIST HELPERS
// =============================================================================

// Find returns the index of id in list, or -1.
func Find(list []Tuition, id string) int {
	for i, t := range list {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Replace returns a new list with list[i] swapped for t.
func Replace(list []Tuition, i int, t Tuition) []Tuition {
	out := make([]Tuition, len(list))
	copy(out, list)
	out[i] = t
	return out
}

// Remove returns a new list without id. The bool reports whether id was present.
func Remove(list []Tuition, id string) ([]Tuition, bool) {
	out := make([]Tuition, 0, len(list))
	found := false
	for _, t := range list {
		if t.ID == id {
			found = true
			continue
		}
		out = append(out, t)
	}
	return out, found
}

// AnyUnpaid reports whether at least one tuition is unpaid.
func AnyUnpaid(list []Tuition) bool {
	for _, t := range list {
		if !t.PaymentStatus {
			return true
		}
	}
	return false
}
