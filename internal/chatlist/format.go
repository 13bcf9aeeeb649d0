package chatlist

import "time"

// FormatTimestamp renders a chat-list timestamp the way the UI shows it:
// clock time for today, "Yesterday", the weekday inside the last week, then
// month/day, with the year appended once it differs.
func FormatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t, now = t.Local(), now.Local()

	if sameDay(t, now) {
		return t.Format("3:04 PM")
	}
	if sameDay(t, now.AddDate(0, 0, -1)) {
		return "Yesterday"
	}
	if t.After(now.AddDate(0, 0, -7)) {
		return t.Format("Mon")
	}
	if t.Year() == now.Year() {
		return t.Format("Jan 2")
	}
	return t.Format("Jan 2, 06")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
