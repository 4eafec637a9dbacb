package requestmeta

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHasSameOriginProof(t *testing.T) {
	t.Parallel()

	newRequest := func(headers map[string]string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "http://pepedome.example/admin/newsletters", nil)
		req.Host = "pepedome.example"
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		return req
	}

	tests := []struct {
		name   string
		req    *http.Request
		policy SchemePolicy
		want   bool
	}{
		{name: "origin same host", req: newRequest(map[string]string{"Origin": "http://pepedome.example"}), want: true},
		{name: "referer same host", req: newRequest(map[string]string{"Referer": "http://pepedome.example/admin"}), want: true},
		{name: "explicit default port", req: newRequest(map[string]string{"Origin": "http://pepedome.example:80"}), want: true},
		{name: "other host", req: newRequest(map[string]string{"Origin": "http://evil.example"}), want: false},
		{name: "other scheme", req: newRequest(map[string]string{"Origin": "https://pepedome.example"}), want: false},
		{name: "no proof", req: newRequest(nil), want: false},
		{
			name:   "untrusted forwarded proto is ignored",
			req:    newRequest(map[string]string{"Origin": "https://pepedome.example", "X-Forwarded-Proto": "https"}),
			policy: SchemePolicy{},
			want:   false,
		},
		{
			name:   "trusted forwarded proto is used",
			req:    newRequest(map[string]string{"Origin": "https://pepedome.example", "X-Forwarded-Proto": "https"}),
			policy: SchemePolicy{TrustForwardedProto: true},
			want:   true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.policy.HasSameOriginProof(tc.req); got != tc.want {
				t.Fatalf("HasSameOriginProof() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsHTTPS(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "http://pepedome.example/", nil)
	if (SchemePolicy{}).IsHTTPS(req) {
		t.Fatal("plain request reported as https")
	}
	req.TLS = &tls.ConnectionState{}
	if !(SchemePolicy{}).IsHTTPS(req) {
		t.Fatal("tls request not reported as https")
	}
	forwarded := httptest.NewRequest(http.MethodGet, "http://pepedome.example/", nil)
	forwarded.Header.Set("X-Forwarded-Proto", "https")
	if !(SchemePolicy{TrustForwardedProto: true}).IsHTTPS(forwarded) {
		t.Fatal("trusted forwarded proto ignored")
	}
}
