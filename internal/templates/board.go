// Package templates renders the departure board as HTML. Components live in
// board.templ; run `templ generate` after editing it.
package templates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Page carries the shell-level values shared by full pages.
type Page struct {
	Title        string
	AssetVersion string
}

// JoinMinutes formats minutes as "2, 7, 15 min".
func JoinMinutes(mins []int) string {
	parts := make([]string, len(mins))
	for i, m := range mins {
		if m < 0 {
			m = 0
		}
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ", ") + " min"
}

// RelativeTime describes t relative to now: "just now", "5 min ago",
// "2 hr ago".
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%d hr ago", int(d.Hours()))
	}
}
