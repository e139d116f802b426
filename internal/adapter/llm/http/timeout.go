package http

import "time"

// ParseTimeout parses the configured timeout, falling back to the provider's
// default. Negative durations are rejected (they would panic inside
// http.Client).
func ParseTimeout(configured string, defaultVal time.Duration) time.Duration {
	if configured != "" {
		if d, err := time.ParseDuration(configured); err == nil && d >= 0 {
			return d
		}
	}
	if defaultVal < 0 {
		return 60 * time.Second
	}
	return defaultVal
}
