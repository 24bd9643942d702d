package message

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Message is a single status line attached to a field.
type Message struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Text     string   `json:"text" yaml:"text"`
}

// List is the ordered message sink owned by a field. The zero value is ready
// to use.
type List struct {
	items []Message
}

// Add appends a message with its text stored exactly as given.
func (l *List) Add(severity Severity, text string) {
	if l == nil {
		return
	}
	l.items = append(l.items, Message{Severity: severity, Text: text})
}

// Clear removes every message.
func (l *List) Clear() {
	if l == nil {
		return
	}
	l.items = nil
}

// DeleteBySeverity removes messages whose severity is at or above min.
// Remaining messages keep their relative order.
func (l *List) DeleteBySeverity(min Severity) {
	if l == nil || len(l.items) == 0 {
		return
	}
	kept := l.items[:0]
	for _, msg := range l.items {
		if msg.Severity < min {
			kept = append(kept, msg)
		}
	}
	if len(kept) == 0 {
		l.items = nil
		return
	}
	l.items = kept
}

// Messages returns a copy of the current messages.
func (l *List) Messages() []Message {
	if l == nil || len(l.items) == 0 {
		return nil
	}
	return append([]Message(nil), l.items...)
}

// Len reports the number of messages.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Highest returns the most severe level present. The boolean is false when
// the list is empty.
func (l *List) Highest() (Severity, bool) {
	if l == nil || len(l.items) == 0 {
		return SeverityInfo, false
	}
	highest := l.items[0].Severity
	for _, msg := range l.items[1:] {
		if msg.Severity > highest {
			highest = msg.Severity
		}
	}
	return highest, true
}

// Texts returns the texts of messages at or above min, in order.
func (l *List) Texts(min Severity) []string {
	if l == nil {
		return nil
	}
	var out []string
	for _, msg := range l.items {
		if msg.Severity >= min {
			out = append(out, msg.Text)
		}
	}
	return out
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// Sanitize strips markup from text that did not originate in this process,
// such as server error payloads, and trims it. List.Add never calls it.
func Sanitize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	// The strict policy escapes entities; messages are plain text so undo that.
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(trimmed)))
}
