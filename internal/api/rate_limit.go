package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Reset values above this are Unix timestamps, below it seconds from now.
const unixTimestampThreshold = 1_000_000_000

// RateLimit is the quota reported by a response's rate limit headers.
// Counts the response did not carry are -1; a missing reset is zero.
type RateLimit struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// ParseRateLimit reads X-RateLimit-* (or the unprefixed draft headers).
// ok is false when the response carries none of them.
func ParseRateLimit(h http.Header, now time.Time) (rl RateLimit, ok bool) {
	rl = RateLimit{Limit: -1, Remaining: -1}
	if v, found := rateLimitHeader(h, "Limit"); found {
		if n, err := strconv.Atoi(v); err == nil {
			rl.Limit, ok = n, true
		}
	}
	if v, found := rateLimitHeader(h, "Remaining"); found {
		if n, err := strconv.Atoi(v); err == nil {
			rl.Remaining, ok = n, true
		}
	}
	if v, found := rateLimitHeader(h, "Reset"); found {
		if t, parsed := parseRateLimitReset(v, now); parsed {
			rl.Reset, ok = t, true
		}
	}
	return rl, ok
}

// Exhausted reports a known remaining count of zero.
func (r RateLimit) Exhausted() bool { return r.Remaining == 0 }

// Map renders the known fields for JSON output.
func (r RateLimit) Map() map[string]any {
	out := map[string]any{}
	if r.Limit >= 0 {
		out["limit"] = r.Limit
	}
	if r.Remaining >= 0 {
		out["remaining"] = r.Remaining
	}
	if !r.Reset.IsZero() {
		out["reset_at"] = r.Reset.UTC().Format(time.RFC3339)
	}
	return out
}

func rateLimitHeader(h http.Header, suffix string) (string, bool) {
	for _, prefix := range []string{"X-RateLimit-", "RateLimit-"} {
		if v := strings.TrimSpace(h.Get(prefix + suffix)); v != "" {
			return v, true
		}
	}
	return "", false
}

func parseRateLimitReset(value string, now time.Time) (time.Time, bool) {
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		switch {
		case secs > unixTimestampThreshold:
			return time.Unix(secs, 0).UTC(), true
		case secs >= 0:
			return now.Add(time.Duration(secs) * time.Second).UTC(), true
		}
		return time.Time{}, false
	}
	if t, err := http.ParseTime(value); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
