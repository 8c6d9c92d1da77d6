package domain

import "time"

// IsExpired reports whether now is strictly past the link's validity window.
func IsExpired(link *ShortLink, now time.Time) bool {
	return now.After(link.ExpiresAt())
}
