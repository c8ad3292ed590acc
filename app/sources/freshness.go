package sources

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var relativeTimeRe = regexp.MustCompile(`(?i)^(\d+)\s*(minute|min|hour|hr|day|week)s?\s*ago$`)

// IsFresh reports whether a publish timestamp falls inside the freshness
// window ending at now. Relative strings like "3 hours ago" are parsed
// directly; absolute timestamps go through dateparse. Unparseable or stale
// timestamps are excluded.
func IsFresh(published string, now time.Time, window time.Duration) bool {
	published = strings.TrimSpace(published)
	if published == "" {
		return false
	}

	if m := relativeTimeRe.FindStringSubmatch(published); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return false
		}
		var age time.Duration
		switch strings.ToLower(m[2]) {
		case "minute", "min":
			age = time.Duration(n) * time.Minute
		case "hour", "hr":
			age = time.Duration(n) * time.Hour
		case "day":
			age = time.Duration(n) * 24 * time.Hour
		case "week":
			age = time.Duration(n) * 7 * 24 * time.Hour
		}
		return age <= window
	}

	parsed, err := dateparse.ParseAny(published)
	if err != nil {
		return false
	}

	// Clocks of upstream providers drift; allow slightly-future stamps.
	if parsed.After(now.Add(time.Hour)) {
		return false
	}

	return now.Sub(parsed) <= window
}
