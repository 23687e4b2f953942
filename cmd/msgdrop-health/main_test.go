package main

import "testing"

func TestProbeURL(t *testing.T) {
	cases := []struct {
		target string
		ready  bool
		want   string
	}{
		{"http://127.0.0.1:8080/healthz", false, "http://127.0.0.1:8080/healthz"},
		{"http://127.0.0.1:8080/healthz", true, "http://127.0.0.1:8080/readyz"},
		{"https://chat.internal:9443/healthz", true, "https://chat.internal:9443/readyz"},
	}
	for _, tc := range cases {
		if got := probeURL(tc.target, tc.ready); got != tc.want {
			t.Fatalf("probeURL(%q, %v) = %q, want %q", tc.target, tc.ready, got, tc.want)
		}
	}
}
