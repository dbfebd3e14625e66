package model

import "time"

// Document is the descriptor of a stored document.
// This is a pure domain model with no database-specific dependencies or tags.
// StorageKey and Checksum are internal and never serialized to callers.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Format     string    `json:"format"`
	StorageKey string    `json:"-"`
	Checksum   string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// Submission is an inbound document: metadata plus transport-encoded content.
type Submission struct {
	Name    string
	Size    int64
	Format  string
	Content string
}

// Retrieved is a reconstituted document returned by retrieval.
type Retrieved struct {
	Name    string `json:"name"`
	Format  string `json:"format"`
	Content string `json:"content"`
}
