package rbac_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rajatverma/kirana/pkg/middleware"
	"github.com/rajatverma/kirana/pkg/rbac"
)

func request(role string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if role != "" {
		ctx := middleware.WithIdentity(req.Context(), "68a1f0d2e4b0aa0012345678", role)
		req = req.WithContext(ctx)
	}
	return req
}

func status(guard func(http.Handler) http.Handler, role string) int {
	h := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(role))
	return rec.Code
}

func TestAdminOnly(t *testing.T) {
	if got := status(rbac.AdminOnly, "admin"); got != http.StatusNoContent {
		t.Errorf("admin: got %d", got)
	}
	if got := status(rbac.AdminOnly, "user"); got != http.StatusForbidden {
		t.Errorf("user: got %d", got)
	}
	if got := status(rbac.AdminOnly, ""); got != http.StatusForbidden {
		t.Errorf("anonymous: got %d", got)
	}
}

func TestUserAndAdmin(t *testing.T) {
	for _, role := range []string{"user", "admin"} {
		if got := status(rbac.UserAndAdmin, role); got != http.StatusNoContent {
			t.Errorf("%s: got %d", role, got)
		}
	}
	if got := status(rbac.UserAndAdmin, "guest"); got != http.StatusForbidden {
		t.Errorf("guest: got %d", got)
	}
}

func TestUserOnly(t *testing.T) {
	if got := status(rbac.UserOnly, "user"); got != http.StatusNoContent {
		t.Errorf("user: got %d", got)
	}
	if got := status(rbac.UserOnly, "admin"); got != http.StatusForbidden {
		t.Errorf("admin: got %d", got)
	}
}
