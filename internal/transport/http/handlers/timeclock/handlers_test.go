package timeclockhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"solarops/internal/domain/auth"
	"solarops/internal/domain/payperiod"
	"solarops/internal/domain/timeclock"
	"solarops/internal/transport/http/middleware"
)

type fakeStore struct {
	entries []timeclock.Entry
	nextID  int
}

func (f *fakeStore) OpenEntry(_ context.Context, employeeID string) (*timeclock.Entry, error) {
	for i := range f.entries {
		if f.entries[i].EmployeeID == employeeID && f.entries[i].Open() {
			entry := f.entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListOpenEntriesForCustomer(context.Context, string, string) ([]timeclock.Entry, error) {
	return nil, nil
}

func (f *fakeStore) CreateEntry(_ context.Context, entry timeclock.Entry) (timeclock.Entry, error) {
	f.nextID++
	entry.ID = "entry-" + strconv.Itoa(f.nextID)
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeStore) CloseEntry(_ context.Context, entryID string, clockOut time.Time, totalHours decimal.Decimal) error {
	for i := range f.entries {
		if f.entries[i].ID == entryID {
			f.entries[i].ClockOut = &clockOut
			f.entries[i].TotalHours = &totalHours
			return nil
		}
	}
	return timeclock.ErrEntryNotFound
}

func (f *fakeStore) ListEntries(_ context.Context, employeeID string, from, to time.Time) ([]timeclock.Entry, error) {
	var out []timeclock.Entry
	for _, entry := range f.entries {
		if entry.EmployeeID == employeeID && !entry.ClockIn.Before(from) && entry.ClockIn.Before(to) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func newRouter(store *fakeStore) http.Handler {
	cal := payperiod.NewCalendar(time.Date(2024, time.December, 14, 0, 0, 0, 0, time.UTC))
	// Every route needs time_clock.use; grant it and nothing else.
	h := NewHandler(timeclock.NewService(store, nil), permOnly(auth.PermTimeClockUse), cal)
	h.Now = func() time.Time { return time.Date(2025, time.January, 2, 12, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithUser(r.Context(), auth.UserContext{UserID: "tech-1", RoleID: "r1", RoleName: auth.RoleFieldTech})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	h.RegisterRoutes(r)
	return r
}

type permOnly string

func (p permOnly) HasPermission(_ context.Context, _ string, permission string) (bool, error) {
	return permission == string(p), nil
}

func TestClockInAndOut(t *testing.T) {
	store := &fakeStore{}
	router := newRouter(store)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "half location", method: http.MethodPost, path: "/timeclock/clock-in", body: `{"latitude":40.1}`, want: http.StatusBadRequest},
		{name: "bad customer id", method: http.MethodPost, path: "/timeclock/clock-in", body: `{"customerId":"nope"}`, want: http.StatusBadRequest},
		{name: "clock out before in", method: http.MethodPost, path: "/timeclock/clock-out", want: http.StatusConflict},
		{name: "clock in", method: http.MethodPost, path: "/timeclock/clock-in", body: `{"latitude":40.1,"longitude":-111.9}`, want: http.StatusCreated},
		{name: "clock in twice", method: http.MethodPost, path: "/timeclock/clock-in", body: `{}`, want: http.StatusConflict},
		{name: "clock out", method: http.MethodPost, path: "/timeclock/clock-out", want: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}

	if len(store.entries) != 1 || store.entries[0].Open() || store.entries[0].Latitude == nil {
		t.Fatalf("expected one closed entry with a location, got %+v", store.entries)
	}
}

func TestEmployeePeriodIsSelfOnly(t *testing.T) {
	in := time.Date(2025, time.January, 2, 8, 0, 0, 0, time.UTC)
	out := in.Add(8 * time.Hour)
	hours := decimal.NewFromInt(8)
	store := &fakeStore{entries: []timeclock.Entry{
		{ID: "e1", EmployeeID: "tech-1", ClockIn: in, ClockOut: &out, TotalHours: &hours},
	}}
	router := newRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/timeclock/employees/tech-2", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another employee, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/timeclock/employees/tech-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data struct {
			Tally struct {
				TotalHours string `json:"totalHours"`
			} `json:"tally"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Tally.TotalHours != "8" {
		t.Fatalf("expected 8 hours, got %q", env.Data.Tally.TotalHours)
	}
}

func TestBadPeriod(t *testing.T) {
	router := newRouter(&fakeStore{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/timeclock/employees/tech-1?period=01/02/2025", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
