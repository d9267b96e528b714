package security

import (
	"errors"
	"net"
	"testing"
)

func TestValidateBlockedURLs(t *testing.T) {
	guard := NewGuard()

	tests := []struct {
		name       string
		url        string
		wantReason string
	}{
		{
			name:       "ftp scheme",
			url:        "ftp://example.com/file.pdf",
			wantReason: ReasonScheme,
		},
		{
			name:       "file scheme",
			url:        "file:///etc/passwd",
			wantReason: ReasonScheme,
		},
		{
			name:       "gopher scheme",
			url:        "gopher://example.com/",
			wantReason: ReasonScheme,
		},
		{
			name:       "missing host",
			url:        "http://",
			wantReason: ReasonNoHost,
		},
		{
			name:       "localhost by name",
			url:        "http://localhost/doc.pdf",
			wantReason: ReasonLocalhost,
		},
		{
			name:       "loopback v4 literal",
			url:        "http://127.0.0.1:8080/doc.pdf",
			wantReason: ReasonLocalhost,
		},
		{
			name:       "loopback v6 literal",
			url:        "http://[::1]/doc.pdf",
			wantReason: ReasonLocalhost,
		},
		{
			name:       "unspecified address",
			url:        "http://0.0.0.0/doc.pdf",
			wantReason: ReasonLocalhost,
		},
		{
			name:       "rfc1918 10/8",
			url:        "http://10.0.0.1/doc.pdf",
			wantReason: ReasonPrivateAddress,
		},
		{
			name:       "rfc1918 172.16/12",
			url:        "http://172.16.0.5/doc.pdf",
			wantReason: ReasonPrivateAddress,
		},
		{
			name:       "rfc1918 192.168/16",
			url:        "http://192.168.1.1/doc.pdf",
			wantReason: ReasonPrivateAddress,
		},
		{
			name:       "cloud metadata endpoint",
			url:        "http://169.254.169.254/latest/meta-data/",
			wantReason: ReasonPrivateAddress,
		},
		{
			name:       "loopback range non-canonical",
			url:        "http://127.0.0.53/doc.pdf",
			wantReason: ReasonPrivateAddress,
		},
		{
			name:       "multicast",
			url:        "http://224.0.0.1/doc.pdf",
			wantReason: ReasonPrivateAddress,
		},
		{
			name:       "class E reserved",
			url:        "http://240.0.0.1/doc.pdf",
			wantReason: ReasonPrivateAddress,
		},
		{
			name:       "carrier grade nat",
			url:        "http://100.64.0.1/doc.pdf",
			wantReason: ReasonPrivateAddress,
		},
		{
			name:       "benchmarking range",
			url:        "http://198.18.0.1/doc.pdf",
			wantReason: ReasonPrivateAddress,
		},
		{
			name:       "unresolvable host",
			url:        "http://pdf-mcp-does-not-exist.invalid/doc.pdf",
			wantReason: ReasonUnresolvable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.Validate(tt.url)
			if err == nil {
				t.Fatalf("Validate(%q) = nil, want blocked (%s)", tt.url, tt.wantReason)
			}

			var blocked *BlockedURLError
			if !errors.As(err, &blocked) {
				t.Fatalf("Validate(%q) returned %T, want *BlockedURLError", tt.url, err)
			}
			if blocked.Reason != tt.wantReason {
				t.Errorf("Validate(%q) reason = %s, want %s", tt.url, blocked.Reason, tt.wantReason)
			}
		})
	}
}

func TestValidatePublicAddresses(t *testing.T) {
	guard := NewGuard()

	// Literal public addresses resolve without touching DNS
	for _, url := range []string{
		"http://8.8.8.8/doc.pdf",
		"https://1.1.1.1/doc.pdf",
	} {
		if err := guard.Validate(url); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", url, err)
		}
	}
}

func TestIsBlockedIP(t *testing.T) {
	tests := []struct {
		ip      string
		blocked bool
	}{
		{"127.0.0.1", true},
		{"10.1.2.3", true},
		{"172.31.255.255", true},
		{"192.168.0.1", true},
		{"169.254.169.254", true},
		{"0.0.0.0", true},
		{"224.0.0.251", true},
		{"255.255.255.255", true},
		{"100.127.0.1", true},
		{"::1", true},
		{"fe80::1", true},
		{"fc00::1", true},
		{"8.8.8.8", false},
		{"93.184.216.34", false},
		{"2606:4700::1111", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			ip := net.ParseIP(tt.ip)
			if ip == nil {
				t.Fatalf("bad test address: %s", tt.ip)
			}
			if got := isBlockedIP(ip); got != tt.blocked {
				t.Errorf("isBlockedIP(%s) = %v, want %v", tt.ip, got, tt.blocked)
			}
		})
	}
}

func TestResolutionFailureFailsClosed(t *testing.T) {
	blocked, resolvable := resolvesToBlocked("pdf-mcp-does-not-exist.invalid")
	if !blocked || resolvable {
		t.Errorf("resolvesToBlocked on unresolvable host = (%v, %v), want (true, false)", blocked, resolvable)
	}
}
