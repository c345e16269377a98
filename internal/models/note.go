// Package models defines the domain types for notebox.
package models

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultPreviewLength is the number of runes ContentPreview keeps by default.
const DefaultPreviewLength = 50

// Note is a single immutable note. It is persisted as one element of a
// backend's JSON collection.
type Note struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // milliseconds since epoch
}

// NewNote returns a note with a fresh ID and the current timestamp.
func NewNote(title, content string) Note {
	return NoteWithID(uuid.NewString(), title, content)
}

// NoteWithID returns a note that reuses id. Updates are expressed as a
// delete followed by a save of a note built here.
func NoteWithID(id, title, content string) Note {
	return Note{
		ID:        id,
		Title:     title,
		Content:   content,
		Timestamp: now(),
	}
}

// DisplayTitle returns the text shown for the note in lists.
func (n Note) DisplayTitle() string {
	return n.Title
}

// ContentPreview returns the content cut to maxLength runes, with "..."
// appended when it was longer. A non-positive maxLength uses
// DefaultPreviewLength.
func (n Note) ContentPreview(maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultPreviewLength
	}
	runes := []rune(n.Content)
	if len(runes) <= maxLength {
		return n.Content
	}
	return string(runes[:maxLength]) + "..."
}

// CreatedAt returns the timestamp as a time.Time.
func (n Note) CreatedAt() time.Time {
	return time.UnixMilli(n.Timestamp)
}

// clock hands out millisecond timestamps that never go backwards within a
// process, even if the wall clock does.
var clock struct {
	mu   sync.Mutex
	last int64
}

func now() int64 {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	ts := time.Now().UnixMilli()
	if ts < clock.last {
		ts = clock.last
	}
	clock.last = ts
	return ts
}
