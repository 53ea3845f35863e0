package domain

import "time"

// Session is the outcome of a single question: what was asked, what was sent to the
// model and what came back. It replaces any notion of a shared "current answer".
type Session struct {
	ID      string        `json:"id"`
	Query   string        `json:"query"`
	Prompt  string        `json:"prompt,omitempty"`
	Answer  string        `json:"answer"`
	Sources []ScoredChunk `json:"sources"`
	Warning string        `json:"warning,omitempty"`
	AskedAt time.Time     `json:"asked_at"`
}

// HasWarning reports whether a non-fatal problem occurred while answering.
func (s *Session) HasWarning() bool {
	return s.Warning != ""
}

// LogEntry is a single appended row in the question/answer log.
type LogEntry struct {
	Timestamp time.Time
	Query     string
	Answer    string
}

// NewLogEntry builds a log entry from a finished session.
func NewLogEntry(s *Session) LogEntry {
	return LogEntry{
		Timestamp: s.AskedAt,
		Query:     s.Query,
		Answer:    s.Answer,
	}
}
