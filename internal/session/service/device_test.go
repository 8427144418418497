package service

import "testing"

func TestClassifyDevice(t *testing.T) {
	testCases := []struct {
		name      string
		userAgent string
		want      string
	}{
		{"empty", "", "Unknown Device"},
		{"unmatched", "curl/8.4.0", "Unknown Device"},
		{"iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Safari/604.1", "iPhone"},
		{"ipad", "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) Safari/604.1", "iPad"},
		{"android phone", "Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile Safari/537.36", "Android Phone"},
		{"android tablet", "Mozilla/5.0 (Linux; Android 13; SM-X710) Safari/537.36", "Android Tablet"},
		{"windows edge before chrome", "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0 Edge/120.0", "Windows PC (Edge)"},
		{"windows chrome", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0 Safari/537.36", "Windows PC (Chrome)"},
		{"windows firefox", "Mozilla/5.0 (Windows NT 10.0; rv:121.0) Gecko/20100101 Firefox/121.0", "Windows PC (Firefox)"},
		{"bare windows", "SomeAgent (Windows NT 10.0)", "Windows PC"},
		{"mac safari", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) Version/17.0 Safari/605.1.15", "Mac (Safari)"},
		{"mac chrome", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) Chrome/120.0 Safari/537.36", "Mac (Chrome)"},
		{"mac firefox", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Firefox/121.0", "Mac (Firefox)"},
		{"linux chrome", "Mozilla/5.0 (X11; Linux x86_64) Chrome/120.0 Safari/537.36", "Linux PC (Chrome)"},
		{"linux firefox", "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Firefox/121.0", "Linux PC (Firefox)"},
		{"bare linux", "SomeAgent (X11; Linux x86_64)", "Linux PC"},
		{"bare chrome", "Chrome/120.0", "Chrome Browser"},
		{"bare firefox", "Firefox/121.0", "Firefox Browser"},
		{"bare safari", "Safari/605.1.15", "Safari Browser"},
		{"bare edge", "Edge/120.0", "Edge Browser"},
		{"case insensitive", "MOZILLA/5.0 (IPHONE)", "iPhone"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyDevice(tc.userAgent); got != tc.want {
				t.Errorf("ClassifyDevice(%q) = %q, want %q", tc.userAgent, got, tc.want)
			}
		})
	}
}
