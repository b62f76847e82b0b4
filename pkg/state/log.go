package state

import (
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

// LogEntryKind distinguishes transcript entries.
type LogEntryKind string

const (
	LogEntryLine   LogEntryKind = "line"
	LogEntryChoice LogEntryKind = "choice"
)

// LogEntry is a rendered line or a recorded choice.
type LogEntry struct {
	Kind     LogEntryKind      `json:"kind"`
	Speaker  string            `json:"speaker,omitempty"`
	Text     string            `json:"text,omitempty"`
	Options  []dialogue.Choice `json:"options,omitempty"` // every option that was offered
	Selected int               `json:"selected"`          // index into Options; choice entries only
}

// Log is the append-only transcript, oldest first.
type Log struct {
	entries []LogEntry
}

func (l *Log) appendLine(speaker, text string) LogEntry {
	e := LogEntry{Kind: LogEntryLine, Speaker: speaker, Text: text}
	l.entries = append(l.entries, e)
	return e
}

func (l *Log) appendChoice(options []dialogue.Choice, selected int) LogEntry {
	e := LogEntry{
		Kind:     LogEntryChoice,
		Options:  append([]dialogue.Choice(nil), options...),
		Selected: selected,
	}
	l.entries = append(l.entries, e)
	return e
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the transcript.
func (l *Log) Entries() []LogEntry {
	return append([]LogEntry(nil), l.entries...)
}

// Since returns the entries appended after the first n.
func (l *Log) Since(n int) []LogEntry {
	if n < 0 {
		n = 0
	}
	if n >= len(l.entries) {
		return nil
	}
	return append([]LogEntry(nil), l.entries[n:]...)
}

// Transcript renders the log as plain text: "Speaker: text" for lines and one row
// per option for choices, the selected one marked with ">".
func (l *Log) Transcript() string {
	return FormatTranscript(l.entries)
}

// FormatTranscript renders entries the way Log.Transcript does.
func FormatTranscript(entries []LogEntry) string {
	var b strings.Builder
	for _, e := range entries {
		switch e.Kind {
		case LogEntryLine:
			b.WriteString(e.Speaker + ": " + e.Text + "\n")
		case LogEntryChoice:
			for i, opt := range e.Options {
				marker := "  "
				if i == e.Selected {
					marker = "> "
				}
				b.WriteString(marker + opt.SpokenText() + "\n")
			}
		}
	}
	return b.String()
}
