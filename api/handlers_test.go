/*
handlers_test.go - Tests for API handlers and the billing scheduler

Tests for:
- Tuition CRUD and derived fields
- Attendance toggle through HTTP, including the monthly auto-reset
- Payment toggle and manual rollover
- Focus and calendar marks
- Error mapping (400/404)
- BillingScheduler rollover + reminder delivery
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/tuition-engine/calendar"
	"github.com/warp/tuition-engine/reminder"
	"github.com/warp/tuition-engine/store/sqlite"
	"github.com/warp/tuition-engine/tracker"
)

type testServer struct {
	router http.Handler
	tr     *tracker.Tracker
	store  *sqlite.Store
	clock  *calendar.FixedClock
}

func setupServer(t *testing.T, now time.Time) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)

	clock := calendar.NewFixedClock(now)
	tr := tracker.New(store, tracker.WithClock(clock), tracker.WithNotifier(store))
	tr.Load(context.Background())
	t.Cleanup(func() {
		tr.Close()
		store.Close()
	})

	return &testServer{
		router: NewRouter(NewHandler(tr, store), nil),
		tr:     tr,
		store:  store,
		clock:  clock,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func may(d int) time.Time { return time.Date(2024, time.May, d, 10, 0, 0, 0, time.UTC) }

// =============================================================================
// TUITIONS
// =============================================================================

func TestListTuitions_Seeds(t *testing.T) {
	s := setupServer(t, may(15))

	rec := s.do(t, http.MethodGet, "/api/tuitions", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]TuitionDTO](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "Math Tuition", list[0].Name)
	assert.Equal(t, 12, list[0].MonthlyLimit)
	assert.Equal(t, 12, list[0].Remaining)
	assert.Equal(t, "0", list[0].Progress.String())
	assert.Nil(t, list[0].Checked)
}

func TestCreateTuition(t *testing.T) {
	s := setupServer(t, may(15))

	rec := s.do(t, http.MethodPost, "/api/tuitions", CreateTuitionRequest{Name: "Chess", Icon: "star"})

	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[TuitionDTO](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Chess", created.Name)
	assert.Equal(t, "star", created.Icon)
	assert.Equal(t, 2, created.DaysPerWeek)
	assert.Equal(t, 8, created.MonthlyLimit)
	assert.False(t, created.PaymentStatus)

	rec = s.do(t, http.MethodGet, "/api/tuitions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateTuition_EmptyName(t *testing.T) {
	s := setupServer(t, may(15))

	rec := s.do(t, http.MethodPost, "/api/tuitions", CreateTuitionRequest{Name: "  "})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "validation", resp.Code)
	assert.Len(t, s.tr.Tuitions(), 2)
}

func TestCreateTuition_BadBody(t *testing.T) {
	s := setupServer(t, may(15))

	req := httptest.NewRequest(http.MethodPost, "/api/tuitions", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteTuition(t *testing.T) {
	s := setupServer(t, may(15))

	rec := s.do(t, http.MethodPut, "/api/tuitions/1", UpdateTuitionRequest{Name: "Algebra"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Algebra", decode[TuitionDTO](t, rec).Name)

	rec = s.do(t, http.MethodDelete, "/api/tuitions/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/tuitions/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/tuitions/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// ATTENDANCE & BILLING
// =============================================================================

func TestToggleAttendance_AutoReset(t *testing.T) {
	s := setupServer(t, may(20))

	rec := s.do(t, http.MethodPut, "/api/tuitions/2/days-per-week", DaysPerWeekRequest{DaysPerWeek: 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, decode[TuitionDTO](t, rec).MonthlyLimit)

	for _, d := range []string{"2024-05-01", "2024-05-05", "2024-05-09", "2024-05-13"} {
		rec = s.do(t, http.MethodPost, "/api/tuitions/2/attendance", ToggleAttendanceRequest{Date: d})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	got := decode[TuitionDTO](t, rec)
	assert.Equal(t, 4, got.MonthCount)
	assert.Equal(t, "100", got.Progress.String())

	rec = s.do(t, http.MethodGet, "/api/tuitions?date=2024-05-17", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]TuitionDTO](t, rec)
	require.NotNil(t, list[1].WouldReset)
	assert.True(t, *list[1].WouldReset)

	rec = s.do(t, http.MethodPost, "/api/tuitions/2/attendance", ToggleAttendanceRequest{Date: "2024-05-17"})
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[TuitionDTO](t, rec)
	assert.Equal(t, 1, got.MonthCount)
	require.NotNil(t, got.Checked)
	assert.True(t, *got.Checked)
	assert.Equal(t, []string{"2024-4-17"}, got.CompletedDates)
}

func TestToggleAttendance_Errors(t *testing.T) {
	s := setupServer(t, may(20))

	rec := s.do(t, http.MethodPost, "/api/tuitions/1/attendance", ToggleAttendanceRequest{Date: "2024-02-30"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/tuitions/nope/attendance", ToggleAttendanceRequest{Date: "2024-05-01"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/tuitions?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetDaysPerWeek_OutOfRange(t *testing.T) {
	s := setupServer(t, may(20))

	rec := s.do(t, http.MethodPut, "/api/tuitions/1/days-per-week", DaysPerWeekRequest{DaysPerWeek: 8})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTogglePayment_ThenRollover(t *testing.T) {
	s := setupServer(t, may(15))

	rec := s.do(t, http.MethodPost, "/api/tuitions/1/payment", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	paid := decode[TuitionDTO](t, rec)
	assert.True(t, paid.PaymentStatus)
	assert.Equal(t, "2024-05", paid.LastPaidMonth)

	rec = s.do(t, http.MethodPost, "/api/admin/rollover", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[RolloverResponse](t, rec).Changed)

	s.clock.Set(time.Date(2024, time.June, 2, 8, 0, 0, 0, time.UTC))
	rec = s.do(t, http.MethodPost, "/api/admin/rollover", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[RolloverResponse](t, rec)
	assert.True(t, resp.Changed)
	assert.False(t, resp.Tuitions[0].PaymentStatus)
	assert.Equal(t, "2024-05", resp.Tuitions[0].LastPaidMonth)
}

// =============================================================================
// FOCUS & MARKS
// =============================================================================

func TestFocusAndMarks(t *testing.T) {
	s := setupServer(t, may(15))
	s.do(t, http.MethodPost, "/api/tuitions/1/attendance", ToggleAttendanceRequest{Date: "2024-05-02"})
	s.do(t, http.MethodPost, "/api/tuitions/2/attendance", ToggleAttendanceRequest{Date: "2024-05-02"})

	rec := s.do(t, http.MethodGet, "/api/marks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	marks := decode[MarksResponse](t, rec)
	assert.False(t, marks.Focus.Focused)
	assert.Len(t, marks.Marks["2024-4-2"], 2)

	rec = s.do(t, http.MethodPost, "/api/tuitions/2/focus", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, FocusDTO{TuitionID: "2", Focused: true}, decode[FocusDTO](t, rec))

	marks = decode[MarksResponse](t, s.do(t, http.MethodGet, "/api/marks", nil))
	require.Len(t, marks.Marks["2024-4-2"], 1)
	assert.True(t, marks.Marks["2024-4-2"][0].IsGlowing)

	list := decode[[]TuitionDTO](t, s.do(t, http.MethodGet, "/api/tuitions", nil))
	assert.False(t, list[0].Focused)
	assert.True(t, list[1].Focused)

	rec = s.do(t, http.MethodDelete, "/api/focus", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	marks = decode[MarksResponse](t, s.do(t, http.MethodGet, "/api/marks", nil))
	assert.Len(t, marks.Marks["2024-4-2"], 2)

	rec = s.do(t, http.MethodPost, "/api/tuitions/nope/focus", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// REMINDERS & SCHEDULER
// =============================================================================

func TestListReminders(t *testing.T) {
	s := setupServer(t, time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC))
	s.tr.Flush()

	rec := s.do(t, http.MethodGet, "/api/reminders", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[RemindersResponse](t, rec)
	assert.Len(t, resp.Planned, 4)
	assert.Len(t, resp.Pending, 4)
	assert.Equal(t, "1-2024-06-1", resp.Planned[0].ID)
	assert.Equal(t, reminder.Title, resp.Planned[0].Title)
}

func TestBillingScheduler_RollsOverAndDelivers(t *testing.T) {
	s := setupServer(t, time.Date(2024, time.May, 20, 8, 0, 0, 0, time.UTC))
	_, err := s.tr.MarkPaid("1")
	require.NoError(t, err)
	_, err = s.tr.MarkPaid("2")
	require.NoError(t, err)
	s.tr.Flush()

	bs := NewBillingScheduler(s.tr, &reminder.Dispatcher{Queue: s.store, Sink: s.store})

	rolled, delivered := bs.RunNow()
	assert.False(t, rolled)
	assert.Equal(t, 0, delivered)

	s.clock.Set(time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC))
	rolled, delivered = bs.RunNow()
	assert.True(t, rolled)
	assert.Equal(t, 0, delivered, "day-1 reminders were already past when planned")

	s.clock.Set(time.Date(2024, time.June, 2, 9, 0, 0, 0, time.UTC))
	_, delivered = bs.RunNow()
	assert.Equal(t, 2, delivered)

	deliveries, err := s.store.Deliveries(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, deliveries, 2)
}

func TestBillingScheduler_PlansNewMonthForUnpaidTuitions(t *testing.T) {
	// GIVEN: A server running since 2024-05-31 with both seeds unpaid
	// WHEN: The scheduler ticks on 2024-06-01 08:00, then after 09:00 on days 1 and 2
	// THEN: June's reminders are planned and delivered though no payment rolled over
	s := setupServer(t, time.Date(2024, time.May, 31, 12, 0, 0, 0, time.UTC))
	bs := NewBillingScheduler(s.tr, &reminder.Dispatcher{Queue: s.store, Sink: s.store})

	s.clock.Set(time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC))
	rolled, delivered := bs.RunNow()
	assert.False(t, rolled)
	assert.Equal(t, 0, delivered)
	pending, err := s.store.Pending(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 4)

	s.clock.Set(time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC))
	_, delivered = bs.RunNow()
	assert.Equal(t, 2, delivered)

	s.clock.Set(time.Date(2024, time.June, 2, 10, 0, 0, 0, time.UTC))
	_, delivered = bs.RunNow()
	assert.Equal(t, 2, delivered)

	deliveries, err := s.store.Deliveries(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, deliveries, 4)
}

func TestBillingScheduler_StartStop(t *testing.T) {
	s := setupServer(t, may(15))
	bs := NewBillingScheduler(s.tr, nil)
	bs.CheckInterval = time.Hour

	bs.Start()
	bs.Stop()
	bs.Stop()

	disabled := NewBillingScheduler(s.tr, nil)
	disabled.Enabled = false
	disabled.Start()
	disabled.Stop()
}

func TestHealth(t *testing.T) {
	s := setupServer(t, may(15))

	rec := s.do(t, http.MethodGet, "/healthz", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["loaded"])
}
