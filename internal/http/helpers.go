package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"opsledger/internal/core"
)

// parseOptionalDate accepts "" (meaning unset) or a "YYYY-MM-DD" date.
func parseOptionalDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
	}
	return core.DateOf(t), nil
}

func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// sanitizeInput trims whitespace and strips control characters from
// user-supplied strings before they reach storage or exports.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// clientIP extracts the caller address for rate limiting and request logs.
func clientIP(remoteAddr string, forwardedFor string) string {
	if forwardedFor != "" {
		if i := strings.Index(forwardedFor, ","); i >= 0 {
			return strings.TrimSpace(forwardedFor[:i])
		}
		return strings.TrimSpace(forwardedFor)
	}
	if i := strings.LastIndex(remoteAddr, ":"); i >= 0 {
		return remoteAddr[:i]
	}
	return remoteAddr
}
