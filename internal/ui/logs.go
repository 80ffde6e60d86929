package ui

import (
	"strings"

	"github.com/five82/trailedit/internal/logtail"
)

// formatEntry renders one session log entry as a single line:
// time, level, component, message and the remaining fields.
func formatEntry(styles Styles, e logtail.Entry) string {
	if e.Level == "" && e.Time == "" {
		return styles.MutedText.Render(e.Message)
	}

	parts := make([]string, 0, 5)
	if t := clockTime(e.Time); t != "" {
		parts = append(parts, styles.FaintText.Render(t))
	}
	parts = append(parts, styles.Level(e.Level).Render(padRight(e.Level, 5)))
	if e.Component != "" {
		parts = append(parts, styles.AccentText.Render("["+e.Component+"]"))
	}
	parts = append(parts, styles.Text.Render(e.Message))
	if e.Fields != "" {
		parts = append(parts, styles.MutedText.Render(e.Fields))
	}
	return strings.Join(parts, " ")
}

// clockTime extracts HH:MM:SS from an ISO8601 timestamp.
func clockTime(ts string) string {
	i := strings.IndexByte(ts, 'T')
	if i < 0 || len(ts) < i+9 {
		return ts
	}
	return ts[i+1 : i+9]
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
