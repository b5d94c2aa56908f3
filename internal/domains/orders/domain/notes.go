package domain

import (
	"fmt"
	"strings"
	"time"
)

// NoteField selects which notes section of an order an entry belongs to.
type NoteField string

const (
	NoteFieldGeneral        NoteField = "general"
	NoteFieldOrderReview    NoteField = "order_review"
	NoteFieldProduction     NoteField = "production"
	NoteFieldSoftwareReview NoteField = "software_review"
)

// NoteEntry is an immutable, append-only record written by workflow transitions.
type NoteEntry struct {
	ID        int64
	Field     NoteField
	Action    string
	ActorID   int64
	ActorName string
	At        time.Time
	Text      string
}

// String renders the entry as "<action> by <actor> on <timestamp>: <text>".
func (n NoteEntry) String() string {
	return fmt.Sprintf("%s by %s on %s: %s", n.Action, n.ActorName, n.At.UTC().Format(time.RFC3339), n.Text)
}

// NotesFor returns the entries recorded for a field, oldest first.
func (o *Order) NotesFor(field NoteField) []NoteEntry {
	var entries []NoteEntry
	for _, entry := range o.NoteLog {
		if entry.Field == field {
			entries = append(entries, entry)
		}
	}
	return entries
}

// RenderNotes joins the rendered entries of a field with newlines.
func (o *Order) RenderNotes(field NoteField) string {
	entries := o.NotesFor(field)
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, entry.String())
	}
	return strings.Join(lines, "\n")
}
