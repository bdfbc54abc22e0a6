// Package eventlog records a project's sequenced collaboration events in
// JSON-Lines format, one file per project.
package eventlog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fside/backend/internal/hub"
)

// Header is the first line of an event log file.
type Header struct {
	Version   int    `json:"version"`
	ProjectID string `json:"project_id"`
	Timestamp int64  `json:"timestamp"`
}

// Entry is a single recorded event.
// Format: [time_offset, event_type, event]
type Entry struct {
	TimeOffset float64
	EventType  string
	Event      *hub.Event
}

// MarshalJSON implements custom JSON marshaling for Entry.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.TimeOffset, e.EventType, e.Event})
}

// UnmarshalJSON implements custom JSON unmarshaling for Entry.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 3 {
		return fmt.Errorf("invalid entry format: expected 3 elements, got %d", len(arr))
	}

	if err := json.Unmarshal(arr[0], &e.TimeOffset); err != nil {
		return fmt.Errorf("invalid time offset: %w", err)
	}
	if err := json.Unmarshal(arr[1], &e.EventType); err != nil {
		return fmt.Errorf("invalid event type: %w", err)
	}
	if err := json.Unmarshal(arr[2], &e.Event); err != nil {
		return fmt.Errorf("invalid event payload: %w", err)
	}

	return nil
}

// Logger records one project's event stream to a JSON-Lines file.
type Logger struct {
	writer    io.Writer
	file      *os.File // only set if we own the file
	startTime time.Time
	mu        sync.Mutex
}

// NewLogger creates a Logger that writes to the given file path and writes
// the header line.
func NewLogger(filePath, projectID string) (*Logger, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log file: %w", err)
	}

	l := &Logger{
		writer:    file,
		file:      file,
		startTime: time.Now(),
	}
	if err := l.writeHeader(projectID); err != nil {
		file.Close()
		return nil, err
	}
	return l, nil
}

// NewLoggerWithWriter creates a Logger that writes to the given writer.
// This is useful for testing.
func NewLoggerWithWriter(w io.Writer, projectID string) (*Logger, error) {
	l := &Logger{
		writer:    w,
		startTime: time.Now(),
	}
	if err := l.writeHeader(projectID); err != nil {
		return nil, err
	}
	return l, nil
}

// writeHeader writes the log header line.
func (l *Logger) writeHeader(projectID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := Header{
		Version:   1,
		ProjectID: projectID,
		Timestamp: l.startTime.Unix(),
	}

	data, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	return nil
}

// Record appends one event entry to the log.
func (l *Logger) Record(ev *hub.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		TimeOffset: time.Since(l.startTime).Seconds(),
		EventType:  string(ev.Type),
		Event:      ev,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}

	return nil
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// StartTime returns the time the log was opened.
func (l *Logger) StartTime() time.Time {
	return l.startTime
}
