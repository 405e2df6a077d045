package otel

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// queueSize bounds the pending-write channel. Overflow drops events.
const queueSize = 2048

// Logger serialises events to w from a single drain goroutine.
// Emit is safe from any goroutine and never blocks.
type Logger struct {
	sessionID string
	ch        chan []byte
	w         io.Writer
	ring      *RingBuffer
	dropped   atomic.Uint64
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewLogger starts a Logger writing to w. Call Close to flush.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{
		sessionID: uuid.NewString(),
		ch:        make(chan []byte, queueSize),
		w:         w,
		ring:      NewRingBuffer(DefaultRingSize),
		done:      make(chan struct{}),
	}
	go l.drain()
	return l
}

// NewNullLogger discards everything. Still call Close.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

func (l *Logger) drain() {
	defer close(l.done)
	for line := range l.ch {
		if _, err := l.w.Write(line); err != nil {
			l.dropped.Add(1)
		}
	}
}

// SessionID identifies this process run in every event.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// Ring is the recent-event history. Nil for a nil Logger.
func (l *Logger) Ring() *RingBuffer {
	if l == nil {
		return nil
	}
	return l.ring
}

// Emit queues e. A nil Logger is a valid no-op sink.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	defer func() {
		// send on a channel closed by a racing Close
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()
	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.sessionID
	l.ring.Push(e)

	data, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	select {
	case l.ch <- append(data, '\n'):
	default:
		l.dropped.Add(1)
	}
}

// Info emits an info-level event.
func (l *Logger) Info(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Warn emits a warn-level event.
func (l *Logger) Warn(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error-level event. A nil err is logged as "".
func (l *Logger) Error(kind EventKind, comp string, err error) {
	e := Event{Level: LevelError, Kind: kind, Comp: comp}
	if err != nil {
		e.Err = err.Error()
	}
	l.Emit(e)
}

// Dropped counts events lost to overflow, encode or write failures.
func (l *Logger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Close drains pending events and stops the writer.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.ch)
		<-l.done
		if d := l.dropped.Load(); d > 0 {
			fmt.Fprintf(os.Stderr, "explorer: %d events dropped in session %s\n", d, l.sessionID)
		}
	})
}
