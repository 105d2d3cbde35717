package payrollhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"solarops/internal/domain/auth"
	"solarops/internal/domain/commission"
	"solarops/internal/domain/core"
	"solarops/internal/domain/payperiod"
	"solarops/internal/domain/payroll"
	"solarops/internal/domain/timeclock"
	"solarops/internal/transport/http/middleware"
)

type fakeEmployees struct {
	employees []core.Employee
}

func (f fakeEmployees) GetEmployee(_ context.Context, employeeID string) (*core.Employee, error) {
	for _, e := range f.employees {
		if e.ID == employeeID {
			employee := e
			return &employee, nil
		}
	}
	return nil, core.ErrEmployeeNotFound
}

func (f fakeEmployees) ListEmployees(context.Context, core.ListFilter) ([]core.Employee, error) {
	return f.employees, nil
}

type fixedHours struct{}

func (fixedHours) TallyForPeriod(context.Context, string, payperiod.Period) (timeclock.Tally, []timeclock.Entry, error) {
	return timeclock.TallyHours(nil, time.UTC), nil, nil
}

type noCommissions struct{}

func (noCommissions) EarningsForPeriod(context.Context, string, payperiod.Period) (commission.Earnings, error) {
	return commission.Earnings{}, nil
}

type noInstalls struct{}

func (noInstalls) ListCompletedInstalls(context.Context, string, time.Time, time.Time) ([]payroll.InstallTicket, error) {
	return nil, nil
}

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) {
	return true, nil
}

func newRouter() http.Handler {
	rate := decimal.NewFromInt(20)
	employees := fakeEmployees{employees: []core.Employee{
		{ID: "tech-1", FirstName: "Ana", LastName: "Ruiz", Role: auth.RoleFieldTech, HourlyRate: &rate},
	}}
	svc := payroll.NewService(noInstalls{}, employees, fixedHours{}, noCommissions{}, nil, time.Minute)
	cal := payperiod.NewCalendar(time.Date(2024, time.December, 14, 0, 0, 0, 0, time.UTC))
	h := NewHandler(svc, allowAll{}, nil, cal)
	h.Now = func() time.Time { return time.Date(2025, time.January, 2, 12, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithUser(r.Context(), auth.UserContext{UserID: "admin", RoleID: "r1", RoleName: auth.RoleAdmin})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	h.RegisterRoutes(r)
	return r
}

func TestPeriodDefaultsToToday(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payroll/period", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env struct {
		Data payperiod.Summary `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Start != "2024-12-28" || env.Data.End != "2025-01-10" {
		t.Fatalf("unexpected period %+v", env.Data)
	}
}

func TestDownloads(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		contentType string
		magic       []byte
	}{
		{name: "statement", path: "/payroll/employees/tech-1/statement.pdf", contentType: "application/pdf", magic: []byte("%PDF")},
		{name: "register", path: "/payroll/register.xlsx", contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", magic: []byte("PK")},
	}
	router := newRouter()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != tc.contentType {
				t.Fatalf("expected %s, got %s", tc.contentType, got)
			}
			if !bytes.HasPrefix(rec.Body.Bytes(), tc.magic) {
				t.Fatalf("unexpected body prefix %q", rec.Body.Bytes()[:min(8, rec.Body.Len())])
			}
		})
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{name: "unknown employee", method: http.MethodGet, path: "/payroll/employees/nobody", want: http.StatusNotFound},
		{name: "bad period", method: http.MethodGet, path: "/payroll/summary?period=yesterday", want: http.StatusBadRequest},
		{name: "warm without jobs", method: http.MethodPost, path: "/payroll/warm", want: http.StatusServiceUnavailable},
	}
	router := newRouter()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}
