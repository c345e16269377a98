package api

import "github.com/starford/notebox/internal/noteservice"

// NoteRequest is the body for creating or updating a note.
type NoteRequest struct {
	Title   string `json:"title" example:"Groceries"`
	Content string `json:"content" example:"milk, eggs"`
}

// NoteItem is a single note in API responses (aliased from the domain layer).
type NoteItem = noteservice.NoteItem

// BackendStatus describes the active backend (aliased from the domain layer).
type BackendStatus = noteservice.BackendStatus

// NoteListResponse wraps the note listing.
type NoteListResponse struct {
	Notes   []NoteItem `json:"notes"`
	Total   int        `json:"total" example:"3"`
	Backend string     `json:"backend" example:"JSON File"`
}
