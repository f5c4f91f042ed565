package render

import (
	"time"
)

// activityLog is a fixed capacity ring of timestamped lines.
type activityLog struct {
	lines []string
	start int
	size  int
}

func newActivityLog(capacity int) *activityLog {
	if capacity < 1 {
		capacity = 1
	}
	return &activityLog{lines: make([]string, capacity)}
}

func (l *activityLog) append(now time.Time, text string) {
	line := now.Format("2006-01-02 15:04:05") + " : " + text
	if l.size < len(l.lines) {
		l.lines[(l.start+l.size)%len(l.lines)] = line
		l.size++
		return
	}
	l.lines[l.start] = line
	l.start = (l.start + 1) % len(l.lines)
}

// snapshot returns the lines oldest first.
func (l *activityLog) snapshot() []string {
	out := make([]string, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.lines[(l.start+i)%len(l.lines)]
	}
	return out
}

func (l *activityLog) len() int { return l.size }
