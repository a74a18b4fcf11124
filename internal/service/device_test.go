package service

import "testing"

func TestIsMobileDevice(t *testing.T) {
	cases := []struct {
		ua   string
		want bool
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148", true},
		{"Mozilla/5.0 (Linux; Android 14) Chrome/120.0 Mobile Safari/537.36", true},
		{"mozilla/5.0 MOBILE", true},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0", false},
		{"curl/8.4.0", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsMobileDevice(tc.ua); got != tc.want {
			t.Fatalf("IsMobileDevice(%q) = %v, want %v", tc.ua, got, tc.want)
		}
	}
}
