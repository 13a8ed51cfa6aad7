// Package tui is a Bubble Tea viewer that plays a battle turn by turn and
// shows the narrated log with each side's hit points.
package tui

// History keeps the most recent commands for Up/Down recall. While
// recalling, back counts how far from the newest entry the input is.
type History struct {
	lines []string
	limit int
	back  int // 0 when not recalling
}

// NewHistory keeps at most limit commands.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Push records cmd unless it repeats the newest entry, dropping the
// oldest once the limit is reached.
func (h *History) Push(cmd string) {
	n := len(h.lines)
	if n > 0 && h.lines[n-1] == cmd {
		return
	}
	h.lines = append(h.lines, cmd)
	if over := len(h.lines) - h.limit; over > 0 {
		h.lines = append(h.lines[:0], h.lines[over:]...)
	}
}

// Len is the number of recorded commands.
func (h *History) Len() int { return len(h.lines) }

// Prev recalls one command older, holding at the oldest.
func (h *History) Prev() (string, bool) {
	if len(h.lines) == 0 {
		return "", false
	}
	h.back = min(h.back+1, len(h.lines))
	return h.at(), true
}

// Next recalls one command newer. Stepping past the newest ends recall
// and reports false.
func (h *History) Next() (string, bool) {
	if h.back == 0 {
		return "", false
	}
	h.back--
	if h.back == 0 {
		return "", false
	}
	return h.at(), true
}

// ResetCursor ends recall.
func (h *History) ResetCursor() { h.back = 0 }

func (h *History) at() string { return h.lines[len(h.lines)-h.back] }
