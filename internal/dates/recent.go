package dates

import "time"

// RecentWindow is how old a notice may be and still count as news.
const RecentWindow = 60 * 24 * time.Hour

// IsRecent reports whether a YYYY-MM-DD date lies within RecentWindow before
// now. Unknown or unparseable dates count as recent; dates more than two days
// in the future (timezone skew aside) do not.
func IsRecent(date string, now time.Time) bool {
	if date == "" {
		return true
	}
	t, err := time.Parse(Layout, date)
	if err != nil {
		return true
	}

	diff := now.Sub(t)
	if diff > RecentWindow {
		return false
	}
	if diff < -2*24*time.Hour {
		return false
	}
	return true
}
