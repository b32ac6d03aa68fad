package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rajatverma/kirana/pkg/router"
)

func TestNamedRoutesAndGroups(t *testing.T) {
	r := router.New()
	api := r.Group("/api/v1")

	orders := api.Group("/orders")
	orders.Get("/{id}", "orders.get", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(router.Param(req, "id")))
	})

	path, ok := r.Path("orders.get")
	if !ok || path != "/api/v1/orders/{id}" {
		t.Fatalf("named path: %q (ok=%v)", path, ok)
	}

	url, err := r.URL("orders.get", map[string]string{"id": "42"})
	if err != nil || url != "/api/v1/orders/42" {
		t.Fatalf("url: %q err=%v", url, err)
	}

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/42", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "42" {
		t.Fatalf("dispatch: code=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestURLMissingParams(t *testing.T) {
	r := router.New()
	r.Get("/orders/{id}", "orders.get", func(w http.ResponseWriter, req *http.Request) {})

	if _, err := r.URL("orders.get", nil); err == nil {
		t.Error("expected error for missing params")
	}
	if _, err := r.URL("nope", nil); err == nil {
		t.Error("expected error for unknown route name")
	}
}

func TestGroupMiddlewareOrder(t *testing.T) {
	var trail []string
	mw := func(tag string) router.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trail = append(trail, tag)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := router.New()
	g := r.Group("/a", mw("group"))
	g.Get("/b", "ab", func(w http.ResponseWriter, req *http.Request) {
		trail = append(trail, "handler")
	}, mw("route"))

	r.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/a/b", nil))

	want := []string{"group", "route", "handler"}
	if len(trail) != len(want) {
		t.Fatalf("trail: %v", trail)
	}
	for i := range want {
		if trail[i] != want[i] {
			t.Fatalf("trail order: %v", trail)
		}
	}
}

func TestRoutesSnapshot(t *testing.T) {
	r := router.New()
	r.Get("/health", "health", func(w http.ResponseWriter, req *http.Request) {})
	r.Post("/orders", "orders.create", func(w http.ResponseWriter, req *http.Request) {})

	infos := r.Routes()
	if len(infos) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(infos))
	}
}
