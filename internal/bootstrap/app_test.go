package bootstrap

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"

	"dealdocs-backend/internal/shared/config"
)

func TestBuildFallsBackToMemoryInDev(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := Build(config.Config{Env: "dev"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	if app.DB != nil || app.Redis != nil {
		t.Fatalf("expected no external connections")
	}

	body := bytes.NewBufferString(`{"clientId":"C1","originalFileName":"Loan Agreement.pdf"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	check := httptest.NewRequest(http.MethodPost, "/api/v1/duplicate-checks", bytes.NewBufferString(`{"fileName":"loan agreement.PDF","clientId":"C1"}`))
	check.Header.Set("Content-Type", "application/json")
	checkResp := httptest.NewRecorder()
	app.Router.ServeHTTP(checkResp, check)

	var report struct {
		IsDuplicate   bool `json:"isDuplicate"`
		HasExactMatch bool `json:"hasExactMatch"`
	}
	if err := json.NewDecoder(checkResp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !report.IsDuplicate || !report.HasExactMatch {
		t.Fatalf("expected exact duplicate, got %+v", report)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	if _, err := Build(config.Config{Env: "production"}); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestBuildWiresRedisLockAndSchema(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	schemaPath := filepath.Join(t.TempDir(), "schema.json")
	if err := os.WriteFile(schemaPath, []byte(`{"type":"object"}`), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	cfg := config.Config{Env: "dev", RedisURL: "redis://" + mr.Addr()}
	cfg.Extractions.SchemaFile = schemaPath
	app, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	if app.Redis == nil || app.ExtractionService.Locker == nil {
		t.Fatalf("expected redis lock to be wired")
	}
	if app.ExtractionService.Schema == nil {
		t.Fatalf("expected schema validator to be wired")
	}
}

func TestBuildRejectsBadSchemaFile(t *testing.T) {
	cfg := config.Config{Env: "dev"}
	cfg.Extractions.SchemaFile = filepath.Join(t.TempDir(), "missing.json")
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error for missing schema file")
	}
}
