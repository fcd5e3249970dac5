package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRegisterRoutes_Wiring(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	e := newTestServer(upstream.URL, upstream.URL)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"GET /healthz", http.MethodGet, "/healthz", http.StatusOK},
		{"GET /gateway/status", http.MethodGet, "/gateway/status", http.StatusOK},
		{"GET /api/models", http.MethodGet, "/api/models", http.StatusOK},
		{"GET /api/organizations", http.MethodGet, "/api/organizations", http.StatusOK},
		{"GET /api/charts", http.MethodGet, "/api/charts", http.StatusOK},
		{"GET /api/charts/42", http.MethodGet, "/api/charts/42", http.StatusOK},
		{"PUT /api/charts/42", http.MethodPut, "/api/charts/42", http.StatusOK},
		{"GET /api/queries/run", http.MethodGet, "/api/queries/run?x=1", http.StatusOK},
		{"GET /api/rbac/organizations", http.MethodGet, "/api/rbac/organizations", http.StatusOK},
		{"GET /api/rbac/permissions", http.MethodGet, "/api/rbac/permissions", http.StatusOK},
		{"POST /api/auth/login", http.MethodPost, "/api/auth/login", http.StatusOK},
		{"GET /api/chat/analyze is not routed", http.MethodGet, "/api/chat/analyze", http.StatusMethodNotAllowed},
		{"PATCH /api/queries/run is not routed", http.MethodPatch, "/api/queries/run", http.StatusMethodNotAllowed},
		{"GET /unknown returns 404", http.MethodGet, "/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
