// Package ui provides the Bubble Tea TUI for the post explorer.
package ui

import (
	"github.com/abelbrown/postexplorer/internal/dataset"
	"github.com/abelbrown/postexplorer/internal/preview"
	"github.com/abelbrown/postexplorer/internal/trigger"
	tea "github.com/charmbracelet/bubbletea"
)

// DatasetLoaded is sent when a load or reload finishes.
type DatasetLoaded struct {
	Store  *dataset.Store
	Err    error
	Reload bool
}

// DatasetChanged is sent when the watched source files change on disk.
type DatasetChanged struct{}

// SearchDue is the debounced search firing. Only the latest ticket applies.
type SearchDue struct {
	Ticket trigger.Ticket
}

// PreviewLoaded carries a PDF lookup result for the request Token.
type PreviewLoaded struct {
	Token trigger.Token
	Doc   preview.Document
	Err   error
}

// AssistantDelta is a streamed fragment of the reply for Token.
type AssistantDelta struct {
	Token trigger.Token
	Text  string
	next  <-chan tea.Msg
}

// AssistantDone ends the reply for Token.
type AssistantDone struct {
	Token trigger.Token
	Reply string
	Err   error
}

// ExportDone reports where the current results were written.
type ExportDone struct {
	Path string
	Err  error
}
