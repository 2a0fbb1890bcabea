package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"dealdocs-backend/internal/documents"
	"dealdocs-backend/internal/duplicates"
	"dealdocs-backend/internal/extractions"
	"dealdocs-backend/internal/shared/config"
)

func newTestRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	docSvc := &documents.Service{Repo: documents.NewMemoryRepo()}
	return NewRouter(RouterDeps{
		Config:            cfg,
		DocumentHandler:   documents.NewHandler(docSvc),
		ExtractionHandler: extractions.NewHandler(extractions.NewService(extractions.NewMemoryRepo())),
		DuplicateHandler:  duplicates.NewHandler(duplicates.NewService(docSvc)),
	})
}

func TestRouterServesHealthAndMetrics(t *testing.T) {
	r := newTestRouter(config.Config{Env: "test"})

	health := httptest.NewRecorder()
	r.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("expected health 200, got %d", health.Code)
	}

	m := httptest.NewRecorder()
	r.ServeHTTP(m, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if m.Code != http.StatusOK || !strings.Contains(m.Body.String(), "extraction_created_total") {
		t.Fatalf("expected metrics exposition, got %d: %s", m.Code, m.Body.String())
	}
}

func TestRouterMountsDomainRoutes(t *testing.T) {
	r := newTestRouter(config.Config{Env: "test"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/duplicate-checks", bytes.NewBufferString(`{"fileName":"a.pdf","clientId":"C1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected duplicate check 200, got %d", resp.Code)
	}

	latest := httptest.NewRecorder()
	r.ServeHTTP(latest, httptest.NewRequest(http.MethodGet, "/api/v1/documents/D1/extractions/latest", nil))
	if latest.Code != http.StatusOK {
		t.Fatalf("expected latest 200, got %d", latest.Code)
	}
}

func TestRouterAppliesRateLimit(t *testing.T) {
	r := newTestRouter(config.Config{Env: "test", RateLimit: config.RateLimitConfig{RPS: 0.001, Burst: 1}})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/extractions/x", nil))
	if first.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", first.Code)
	}
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v1/extractions/x", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}

	health := httptest.NewRecorder()
	r.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("health must not be rate limited, got %d", health.Code)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
