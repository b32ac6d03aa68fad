package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rajatverma/kirana/pkg/auth"
	"github.com/rajatverma/kirana/pkg/middleware"
)

func protected() (http.Handler, *string, *string) {
	var gotID, gotRole string
	h := middleware.Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = middleware.UserIDFromCtx(r.Context())
		gotRole, _ = middleware.RoleFromCtx(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	return h, &gotID, &gotRole
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	token, err := auth.GenerateToken("68a1f0d2e4b0aa0012345678", "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	h, gotID, gotRole := protected()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: %d", rec.Code)
	}
	if *gotID != "68a1f0d2e4b0aa0012345678" || *gotRole != "user" {
		t.Errorf("identity: id=%q role=%q", *gotID, *gotRole)
	}
}

func TestAuthRejectsMissingOrBadHeader(t *testing.T) {
	cases := []string{
		"",
		"Bearer",
		"Bearer not.a.token",
		"Basic dXNlcjpwYXNz",
	}

	for _, header := range cases {
		h, _, _ := protected()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: got %d, want 401", header, rec.Code)
		}
	}
}
