/*
record.go - Durable blob format and the Repository that reads/writes it

FORMAT:
  One JSON array stored under a fixed key, one object per tuition, in list
  order:

    [{"id":"1","name":"Math Tuition","color":"#FFD700","icon":"calculator",
      "completedDates":{"2024-4-15":true},"paymentStatus":false,
      "lastPaidMonth":"","daysPerWeek":3}]

LEGACY MIGRATION:
  Older blobs lack some fields. On load:
    paymentStatus missing -> false
    lastPaidMonth missing -> ""
    daysPerWeek   missing -> len(weeklySchedule) if present, else 2
  The same defaults apply when a field is present but malformed; the rest
  of the record is kept. daysPerWeek may be a quoted whole number.
  Day-keys that do not parse are dropped.

SEE ALSO:
  - tuition/store/memory.go, store/sqlite: BlobStore implementations
  - tracker: calls Repository from its background writer
*/
package tuition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/warp/tuition-engine/calendar"
)

// DefaultStorageKey is the key the tuition list is stored under.
const DefaultStorageKey = "@tuition_tracker_v2"

// BlobStore is a durable key-value store of opaque blobs.
type BlobStore interface {
	// Get returns the blob under key, or ErrBlobNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the blob under key.
	Put(ctx context.Context, key string, value []byte) error
}

// =============================================================================
// WIRE RECORD
// =============================================================================

type record struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Color          string          `json:"color"`
	Icon           string          `json:"icon"`
	CompletedDates map[string]bool `json:"completedDates"`
	PaymentStatus  bool            `json:"paymentStatus"`
	LastPaidMonth  string          `json:"lastPaidMonth"`
	DaysPerWeek    int             `json:"daysPerWeek"`
}

// storedRecord is the read side of record. Fields that older blobs may lack
// or carry in another shape stay raw and are decoded one by one, so a bad
// value only loses that field.
type storedRecord struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Color          string          `json:"color"`
	Icon           string          `json:"icon"`
	CompletedDates map[string]bool `json:"completedDates"`
	PaymentStatus  json.RawMessage `json:"paymentStatus"`
	LastPaidMonth  json.RawMessage `json:"lastPaidMonth"`
	DaysPerWeek    json.RawMessage `json:"daysPerWeek"`

	// legacy: one entry per scheduled weekday
	WeeklySchedule json.RawMessage `json:"weeklySchedule"`
}

func toRecord(t Tuition) record {
	dates := make(map[string]bool, len(t.CompletedDates))
	for k, v := range t.CompletedDates {
		if v {
			dates[string(k)] = true
		}
	}
	return record{
		ID:             t.ID,
		Name:           t.Name,
		Color:          t.Color,
		Icon:           t.Icon,
		CompletedDates: dates,
		PaymentStatus:  t.PaymentStatus,
		LastPaidMonth:  t.LastPaidMonth,
		DaysPerWeek:    t.DaysPerWeek,
	}
}

func fromRecord(r storedRecord) Tuition {
	t := Tuition{
		ID:             r.ID,
		Name:           r.Name,
		Color:          r.Color,
		Icon:           r.Icon,
		CompletedDates: make(DateSet, len(r.CompletedDates)),
		DaysPerWeek:    DefaultDaysPerWeek,
	}

	for k, v := range r.CompletedDates {
		if !v {
			continue
		}
		key := calendar.DayKey(k)
		if !key.Valid() {
			log.Printf("[Tuition] Dropping malformed day key %q on %s", k, r.ID)
			continue
		}
		t.CompletedDates[key] = true
	}

	if paid, ok := decodeField[bool](r.PaymentStatus, r.ID, "paymentStatus"); ok {
		t.PaymentStatus = paid
	}
	if month, ok := decodeField[string](r.LastPaidMonth, r.ID, "lastPaidMonth"); ok {
		t.LastPaidMonth = month
	}
	if days, ok := decodeDaysPerWeek(r.DaysPerWeek, r.ID); ok {
		t.DaysPerWeek = days
	} else if schedule, ok := decodeField[[]json.RawMessage](r.WeeklySchedule, r.ID, "weeklySchedule"); ok {
		t.DaysPerWeek = len(schedule)
	}
	return t
}

// decodeField reports false for an absent or null field, and for one that
// does not decode as T.
func decodeField[T any](raw json.RawMessage, id, field string) (T, bool) {
	var v T
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Printf("[Tuition] Ignoring malformed %s on %s: %v", field, id, err)
		var zero T
		return zero, false
	}
	return v, true
}

// decodeDaysPerWeek accepts a whole number, bare or quoted.
func decodeDaysPerWeek(raw json.RawMessage, id string) (int, bool) {
	n, ok := decodeField[json.Number](raw, id, "daysPerWeek")
	if !ok {
		return 0, false
	}
	days, err := n.Int64()
	if err != nil {
		log.Printf("[Tuition] Ignoring non-integer daysPerWeek %q on %s", n, id)
		return 0, false
	}
	return int(days), true
}

// Encode serializes the list in blob format.
func Encode(list []Tuition) ([]byte, error) {
	records := make([]record, len(list))
	for i, t := range list {
		records[i] = toRecord(t)
	}
	return json.Marshal(records)
}

// Decode parses a blob, applying legacy migration.
func Decode(data []byte) ([]Tuition, error) {
	var records []storedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	list := make([]Tuition, 0, len(records))
	for _, r := range records {
		list = append(list, fromRecord(r))
	}
	return list, nil
}

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository round-trips the tuition list through a BlobStore.
type Repository struct {
	Blobs BlobStore
	Key   string
}

func NewRepository(blobs BlobStore, key string) *Repository {
	if key == "" {
		key = DefaultStorageKey
	}
	return &Repository{Blobs: blobs, Key: key}
}

// Load reads the stored list. A missing blob is reported as ErrBlobNotFound;
// any other failure, including corrupt JSON, is a StorageError.
func (r *Repository) Load(ctx context.Context) ([]Tuition, error) {
	data, err := r.Blobs.Get(ctx, r.Key)
	if errors.Is(err, ErrBlobNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, &StorageError{Op: "read", Key: r.Key, Err: err}
	}
	list, err := Decode(data)
	if err != nil {
		return nil, &StorageError{Op: "read", Key: r.Key, Err: err}
	}
	return list, nil
}

// Save writes the list.
func (r *Repository) Save(ctx context.Context, list []Tuition) error {
	data, err := Encode(list)
	if err != nil {
		return &StorageError{Op: "write", Key: r.Key, Err: err}
	}
	if err := r.Blobs.Put(ctx, r.Key, data); err != nil {
		return &StorageError{Op: "write", Key: r.Key, Err: err}
	}
	return nil
}
