package security

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		method     string
		userAgent  string
		suspicious bool
	}{
		{name: "api route", target: "/api/runs", method: "POST"},
		{name: "dashboard route", target: "/runs/abc/dashboard", method: "GET"},
		{name: "download route", target: "/download/runs/abc/corrected.xlsx", method: "GET"},
		{name: "path traversal", target: "/download/../etc/passwd", method: "GET", suspicious: true},
		{name: "wordpress probe", target: "/wp-admin/setup.php", method: "GET", suspicious: true},
		{name: "dotfile probe in query", target: "/api/uploads?file=.env", method: "GET", suspicious: true},
		{name: "scanner user agent", target: "/", method: "GET", userAgent: "sqlmap/1.7", suspicious: true},
		{name: "curl is fine", target: "/api/uploads", method: "GET", userAgent: "curl/8.4.0"},
		{name: "trace method", target: "/", method: "TRACE", suspicious: true},
		{name: "overlong url", target: "/api/runs?pad=" + strings.Repeat("x", 2100), method: "GET", suspicious: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.userAgent != "" {
				r.Header.Set("User-Agent", tt.userAgent)
			}
			if got := d.DetectSuspiciousRequest(r); got != tt.suspicious {
				t.Errorf("DetectSuspiciousRequest = %v, want %v", got, tt.suspicious)
			}
		})
	}
}

func TestDetectSuspiciousRequestCounts(t *testing.T) {
	d := NewDetector()

	d.DetectSuspiciousRequest(httptest.NewRequest("GET", "/wp-admin", nil))
	d.DetectSuspiciousRequest(httptest.NewRequest("GET", "/api/runs", nil))
	d.DetectSuspiciousRequest(httptest.NewRequest("TRACE", "/", nil))

	if got := d.GetMetrics().SuspiciousRequests; got != 2 {
		t.Errorf("SuspiciousRequests = %d, want 2", got)
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.9:44321",
			want:       "203.0.113.9",
		},
		{
			name:       "forwarded via trusted proxy",
			remoteAddr: "10.0.0.5:80",
			xff:        "203.0.113.9, 10.0.0.5",
			want:       "203.0.113.9",
		},
		{
			name:       "x-real-ip via trusted proxy",
			remoteAddr: "127.0.0.1:80",
			xri:        "203.0.113.9",
			want:       "203.0.113.9",
		},
		{
			name:       "forwarded header from untrusted peer is ignored",
			remoteAddr: "198.51.100.7:9000",
			xff:        "203.0.113.9",
			want:       "198.51.100.7",
		},
		{
			name:       "garbage forwarded value falls back to peer",
			remoteAddr: "10.0.0.5:80",
			xff:        "not-an-ip",
			want:       "10.0.0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
