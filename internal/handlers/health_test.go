package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthHandler(t *testing.T) {
	ok := healthFunc(func(ctx context.Context) error { return nil })
	down := healthFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		checks     map[string]HealthChecker
		wantStatus int
		wantState  string
	}{
		{"no dependencies", map[string]HealthChecker{}, http.StatusOK, "healthy"},
		{"all healthy", map[string]HealthChecker{"mongodb": ok, "valkey": ok}, http.StatusOK, "healthy"},
		{"valkey down", map[string]HealthChecker{"mongodb": ok, "valkey": down}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps()
			d.checks = tt.checks
			helper := setupTestRouter(t, d)

			var resp struct {
				Status     string            `json:"status"`
				Components map[string]string `json:"components"`
			}
			helper.AssertJSONResponse(helper.GetJSON("/health"), tt.wantStatus, &resp)
			assert.Equal(t, tt.wantState, resp.Status)
			for name := range tt.checks {
				assert.Contains(t, resp.Components, name)
			}
			if tt.wantState == "degraded" {
				assert.Equal(t, "connection refused", resp.Components["valkey"])
			}
		})
	}
}
