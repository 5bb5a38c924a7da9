package launcher

import (
	"bytes"
	"regexp"
)

// devToolsPattern captures the WebSocket URL from Chrome's readiness line, e.g.
// "DevTools listening on ws://127.0.0.1:9222/devtools/browser/<id>".
var devToolsPattern = regexp.MustCompile(`DevTools listening on (ws://[^\s]+)`)

// maxPartialLine bounds the unterminated tail kept between writes.
// Readiness lines are short, so anything longer is noise.
const maxPartialLine = 64 * 1024

// Matcher scans a byte stream incrementally for the first submatch of a pattern.
//
// Complete lines are scanned and then discarded, which keeps memory bounded
// for long-running noisy streams. The unterminated tail is scanned after
// every write too, but a match there only counts once whitespace follows
// it, so a capture cut off by a chunk boundary is never reported. A tail
// that stops growing is settled by ScanPending.
// A Matcher is not safe for concurrent use.
type Matcher struct {
	pattern     *regexp.Regexp
	partial     []byte
	tailChecked bool
	match       string
	matched     bool
}

// NewMatcher returns a Matcher reporting the first capture group of pattern,
// or the whole match if the pattern has no groups.
func NewMatcher(pattern *regexp.Regexp) *Matcher {
	return &Matcher{pattern: pattern}
}

// DevToolsMatcher returns a Matcher for Chrome's DevTools readiness line.
func DevToolsMatcher() *Matcher {
	return NewMatcher(devToolsPattern)
}

// Write feeds a chunk of output to the matcher. It never fails.
func (m *Matcher) Write(p []byte) (int, error) {
	if m.matched {
		return len(p), nil
	}

	m.partial = append(m.partial, p...)

	end := bytes.LastIndexByte(m.partial, '\n')
	if end >= 0 {
		m.scan(m.partial[:end+1])
		rest := m.partial[end+1:]
		m.partial = append(m.partial[:0], rest...)
	}

	if len(m.partial) > maxPartialLine {
		m.partial = append(m.partial[:0], m.partial[len(m.partial)-maxPartialLine:]...)
	}
	m.tailChecked = false

	if !m.matched && len(m.partial) > 0 {
		m.scanTail(true)
	}
	if m.matched {
		m.partial = nil
	}
	return len(p), nil
}

// Flush scans any unterminated trailing output. Call it when the stream ends.
func (m *Matcher) Flush() {
	if m.matched || len(m.partial) == 0 {
		return
	}
	m.scan(m.partial)
	m.partial = nil
}

// Pending reports whether an unterminated tail has arrived since the last
// ScanPending.
func (m *Matcher) Pending() bool {
	return !m.matched && len(m.partial) > 0 && !m.tailChecked
}

// ScanPending scans the unterminated tail, accepting a match that ends at
// the end of the buffer. Call it once the stream has gone quiet. The tail is
// kept so a line that later continues is still scanned in full.
func (m *Matcher) ScanPending() {
	if m.matched {
		return
	}
	m.tailChecked = true
	m.scanTail(false)
	if m.matched {
		m.partial = nil
	}
}

// scanTail matches the unterminated tail. With delimited set, a match must
// be followed by whitespace.
func (m *Matcher) scanTail(delimited bool) {
	loc := m.pattern.FindSubmatchIndex(m.partial)
	if loc == nil {
		return
	}
	if delimited && (loc[1] >= len(m.partial) || !isSpace(m.partial[loc[1]])) {
		return
	}
	m.scan(m.partial[loc[0]:loc[1]])
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	}
	return false
}

// Match returns the captured value once the pattern has been seen.
func (m *Matcher) Match() (string, bool) {
	return m.match, m.matched
}

func (m *Matcher) scan(data []byte) {
	sub := m.pattern.FindSubmatch(data)
	if sub == nil {
		return
	}
	if len(sub) > 1 {
		m.match = string(sub[1])
	} else {
		m.match = string(sub[0])
	}
	m.matched = true
}
