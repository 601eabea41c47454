package http

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP_RemoteAddrOnly(t *testing.T) {
	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.RemoteAddr = "203.0.113.9:51234"

	ip := ExtractClientIP(r, nil)

	assert.Equal(t, "203.0.113.9", ip)
}

func TestExtractClientIP_UntrustedProxyHeaderIgnored(t *testing.T) {
	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.RemoteAddr = "203.0.113.9:51234"
	r.Header.Set("X-Forwarded-For", "198.51.100.77")

	ip := ExtractClientIP(r, &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}})

	assert.Equal(t, "203.0.113.9", ip)
}

func TestExtractClientIP_TrustedProxyForwardedFor(t *testing.T) {
	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.77, 10.1.2.3")

	ip := ExtractClientIP(r, &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}})

	assert.Equal(t, "198.51.100.77", ip)
}

func TestExtractClientIP_TrustedProxyRealIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("X-Real-IP", "198.51.100.88")

	ip := ExtractClientIP(r, &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}})

	assert.Equal(t, "198.51.100.88", ip)
}

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name     string
		ua       string
		device   string
		platform string
		browser  string
	}{
		{
			"windows chrome",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36",
			"desktop", "Windows", "Chrome",
		},
		{
			"android mobile",
			"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 Chrome/120.0 Mobile Safari/537.36",
			"mobile", "Android", "Chrome",
		},
		{
			"iphone safari",
			"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Version/17.0 Mobile/15E148 Safari/604.1",
			"mobile", "iOS", "Safari",
		},
		{
			"empty",
			"",
			"desktop", "Unknown", "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device, platform, browser := ParseUserAgent(tt.ua)
			assert.Equal(t, tt.device, device)
			assert.Equal(t, tt.platform, platform)
			assert.Equal(t, tt.browser, browser)
		})
	}
}
