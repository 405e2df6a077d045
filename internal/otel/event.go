// Package otel records structured explorer events as JSONL.
//
// Events are typed records written asynchronously by a background drain
// goroutine, so emitting from the UI event loop never blocks on disk.
package otel

import (
	"encoding/json"
	"time"
)

// Level is the event severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind is "<subsystem>.<action>".
type EventKind string

const (
	// Dataset loading
	KindLoadStart    EventKind = "load.start"
	KindLoadComplete EventKind = "load.complete"
	KindLoadDegraded EventKind = "load.degraded"
	KindLoadFatal    EventKind = "load.fatal"
	KindLoadReload   EventKind = "load.reload"

	// View synchronisation
	KindSyncPass    EventKind = "sync.pass"
	KindSyncDropped EventKind = "sync.dropped_facet"

	// Local preferences
	KindPrefsWrite EventKind = "prefs.write"
	KindPrefsError EventKind = "prefs.error"

	// External capabilities
	KindPreviewStart     EventKind = "preview.start"
	KindPreviewComplete  EventKind = "preview.complete"
	KindPreviewError     EventKind = "preview.error"
	KindPreviewStale     EventKind = "preview.stale"
	KindAssistantStart   EventKind = "assistant.start"
	KindAssistantDone    EventKind = "assistant.done"
	KindAssistantError   EventKind = "assistant.error"
	KindAssistantStale   EventKind = "assistant.stale"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
)

// Event is one JSONL line. Only Kind and Time are always set.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Token     uint64         `json:"token,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Count     int            `json:"count,omitempty"`
	Query     string         `json:"query,omitempty"`
	Source    string         `json:"source,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON fills DurMs from Dur.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
