package format

import (
	"fmt"
	"math"
	"time"
)

// TimeAgo renders the distance between t and now as relative text such as
// "5 minutes ago" or "a day from now".
func TimeAgo(t, now time.Time) string {
	distance := now.Sub(t)
	suffix := "ago"
	if distance < 0 {
		suffix = "from now"
		distance = -distance
	}
	return relativeWords(distance.Seconds()) + " " + suffix
}

func relativeWords(seconds float64) string {
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24
	years := days / 365

	switch {
	case seconds < 90:
		return "a minute"
	case minutes < 45:
		return fmt.Sprintf("%d minutes", roundHalfUp(minutes))
	case minutes < 90:
		return "an hour"
	case hours < 24:
		return fmt.Sprintf("%d hours", roundHalfUp(hours))
	case hours < 42:
		return "a day"
	case days < 30:
		return fmt.Sprintf("%d days", roundHalfUp(days))
	case days < 45:
		return "a month"
	case days < 365:
		return fmt.Sprintf("%d months", roundHalfUp(days/30))
	case years < 1.5:
		return "a year"
	default:
		return fmt.Sprintf("%d years", roundHalfUp(years))
	}
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
