package duplicates

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerAlwaysAnswers200(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		svc  *Service
		body string
		dup  bool
	}{
		{"match", func() *Service { s, _ := seededService(t); return s }(), `{"fileName":"Loan Agreement.pdf","clientId":"C1"}`, true},
		{"store down", NewService(&stubSource{err: errors.New("down")}), `{"fileName":"a.pdf","clientId":"C1"}`, false},
		{"bad body", NewService(&stubSource{}), `{`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			NewHandler(tc.svc).RegisterRoutes(r.Group("/api/v1"))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/duplicate-checks", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			require.Equal(t, http.StatusOK, resp.Code)
			var report Report
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
			assert.Equal(t, tc.dup, report.IsDuplicate)
		})
	}
}
