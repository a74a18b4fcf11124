package service

import "strings"

// IsMobileDevice classifies a raw User-Agent string. A substring match is
// deliberate; the device class only picks which session survives eviction.
func IsMobileDevice(userAgent string) bool {
	return strings.Contains(strings.ToLower(userAgent), "mobile")
}
