package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"solarops/internal/domain/auth"
)

type fakePerms struct {
	allowed map[string]bool
	err     error
}

func (f fakePerms) HasPermission(_ context.Context, roleID, permission string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.allowed[roleID+":"+permission], nil
}

func TestRequirePermission(t *testing.T) {
	perms := fakePerms{allowed: map[string]bool{"r-admin:" + auth.PermPayrollManage: true}}
	tests := []struct {
		name  string
		user  *auth.UserContext
		perms PermissionStore
		want  int
	}{
		{name: "anonymous", want: http.StatusUnauthorized, perms: perms},
		{name: "allowed", user: &auth.UserContext{UserID: "u1", RoleID: "r-admin"}, perms: perms, want: http.StatusNoContent},
		{name: "forbidden", user: &auth.UserContext{UserID: "u2", RoleID: "r-tech"}, perms: perms, want: http.StatusForbidden},
		{name: "store error", user: &auth.UserContext{UserID: "u3", RoleID: "r-admin"}, perms: fakePerms{err: errors.New("down")}, want: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequirePermission(auth.PermPayrollManage, tc.perms)(http.HandlerFunc(noContent))
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), *tc.user))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestRequireSelfOr(t *testing.T) {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "e1", RoleID: "r-tech"})))
		})
	})
	r.With(RequireSelfOr(auth.PermPayrollRead, "employeeID", fakePerms{})).Get("/payroll/{employeeID}", noContent)

	own := httptest.NewRecorder()
	r.ServeHTTP(own, httptest.NewRequest(http.MethodGet, "/payroll/e1", nil))
	if own.Code != http.StatusNoContent {
		t.Fatalf("expected own record to pass, got %d", own.Code)
	}

	other := httptest.NewRecorder()
	r.ServeHTTP(other, httptest.NewRequest(http.MethodGet, "/payroll/e2", nil))
	if other.Code != http.StatusForbidden {
		t.Fatalf("expected other record to be forbidden, got %d", other.Code)
	}
}
