package ticket

import (
	"fmt"
	"strings"
)

// eventLog collects the sentences of a single log entry.
type eventLog struct {
	parts []string
}

func (l *eventLog) add(format string, args ...any) {
	l.parts = append(l.parts, fmt.Sprintf(format, args...))
}

func (l *eventLog) empty() bool {
	return len(l.parts) == 0
}

// String joins the collected sentences, or returns fallback if none.
func (l *eventLog) String(fallback string) string {
	if l.empty() {
		return fallback
	}
	return strings.Join(l.parts, " ")
}
