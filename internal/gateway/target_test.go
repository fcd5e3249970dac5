package gateway

import "testing"

func TestBuildTarget(t *testing.T) {
	tests := []struct {
		name     string
		origin   string
		prefix   string
		segments []string
		rawQuery string
		want     string
	}{
		{
			name:   "prefix only",
			origin: "http://chat2chart-server:8000",
			prefix: "models",
			want:   "http://chat2chart-server:8000/models",
		},
		{
			name:     "segments and query",
			origin:   "http://chat2chart-server:8000",
			prefix:   "queries",
			segments: []string{"a", "b"},
			rawQuery: "x=1",
			want:     "http://chat2chart-server:8000/queries/a/b?x=1",
		},
		{
			name:     "trailing slash origin",
			origin:   "http://chat2chart-server:8000/",
			prefix:   "charts",
			segments: []string{"42"},
			want:     "http://chat2chart-server:8000/charts/42",
		},
		{
			name:     "empty segments collapse",
			origin:   "http://chat2chart-server:8000",
			prefix:   "charts",
			segments: []string{"", "", ""},
			want:     "http://chat2chart-server:8000/charts",
		},
		{
			name:     "nil segments",
			origin:   "http://auth-service:5000",
			prefix:   "rbac/permissions",
			segments: nil,
			want:     "http://auth-service:5000/rbac/permissions",
		},
		{
			name:     "query not re-encoded",
			origin:   "http://auth-service:5000",
			prefix:   "auth",
			segments: []string{"callback"},
			rawQuery: "redirect=%2Fdashboard%2Fhome&scheme=https%3A%2F%2Fapp",
			want:     "http://auth-service:5000/auth/callback?redirect=%2Fdashboard%2Fhome&scheme=https%3A%2F%2Fapp",
		},
		{
			name:     "empty prefix and no segments",
			origin:   "http://auth-service:5000",
			prefix:   "",
			segments: nil,
			want:     "http://auth-service:5000",
		},
		{
			name:     "empty prefix with segments",
			origin:   "http://auth-service:5000",
			prefix:   "",
			segments: []string{"auth", "me"},
			want:     "http://auth-service:5000/auth/me",
		},
		{
			name:   "slash-decorated prefix",
			origin: "http://chat2chart-server:8000",
			prefix: "/chat/analyze/",
			want:   "http://chat2chart-server:8000/chat/analyze",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildTarget("chart", tt.origin, tt.prefix, tt.segments, tt.rawQuery)
			if got.URL != tt.want {
				t.Errorf("BuildTarget() = %q, want %q", got.URL, tt.want)
			}
			if got.Backend != "chart" {
				t.Errorf("Backend = %q, want %q", got.Backend, "chart")
			}
		})
	}
}

func TestSplitWildcard(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a/b", []string{"a", "b"}},
		{"/a/b/", []string{"a", "b"}},
		{"a//b", []string{"a", "b"}},
		{"single", []string{"single"}},
	}

	for _, tt := range tests {
		got := SplitWildcard(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("SplitWildcard(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SplitWildcard(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
