// Package recorder writes playback frames to sequenced JSONL files and reads
// them back. A Recording is driven by the player's hooks: every synchronized
// switch captures a frame and the finish hook closes the file.
package recorder

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cxd309/mapf-player/internal/engine"
	"github.com/cxd309/mapf-player/internal/monitoring"
)

const defaultScannerMaxBytes = 4 * 1024 * 1024

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("writer is closed")

// Kind tells why an entry was recorded.
type Kind string

const (
	KindFrame  Kind = "frame"  // explicit capture
	KindSwitch Kind = "switch" // synchronized segment switch
	KindFinish Kind = "finish" // playback reached the makespan
)

// Entry is one line of a recording.
type Entry struct {
	RunID  string         `json:"run_id"`
	Seq    int64          `json:"seq"`
	Kind   Kind           `json:"kind"`
	TSUTC  string         `json:"ts_utc"`
	Frame  engine.Frame   `json:"frame"`
	Switch *engine.Switch `json:"switch,omitempty"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// Writer appends entries to w with increasing sequence numbers. It is safe
// for concurrent use.
type Writer struct {
	mu      sync.Mutex
	w       *bufio.Writer
	runID   string
	nextSeq int64
	closed  bool
}

// NewWriter returns a Writer for runID; an empty runID gets a fresh one.
func NewWriter(w io.Writer, runID string) *Writer {
	if runID == "" {
		runID = NewRunID()
	}
	return &Writer{w: bufio.NewWriter(w), runID: runID, nextSeq: 1}
}

// RunID returns the identifier stamped on every entry.
func (w *Writer) RunID() string { return w.runID }

// Len returns the number of entries written so far.
func (w *Writer) Len() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.nextSeq - 1
}

// Append writes e, filling in the run id, sequence number and timestamp.
func (w *Writer) Append(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if e.RunID == "" {
		e.RunID = w.runID
	}
	if e.RunID != w.runID {
		return fmt.Errorf("run_id mismatch: writer=%s entry=%s", w.runID, e.RunID)
	}
	e.Seq = w.nextSeq
	if e.Kind == "" {
		e.Kind = KindFrame
	}
	if e.TSUTC == "" {
		e.TSUTC = time.Now().UTC().Format(time.RFC3339Nano)
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if _, err := w.w.Write(line); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	w.nextSeq++
	return nil
}

// Flush writes buffered entries to the underlying writer.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Flush()
}

// Close flushes and stops accepting entries. Closing twice is a no-op.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.w.Flush()
}

// Reader reads entries back in order.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), defaultScannerMaxBytes)
	return &Reader{scanner: scanner}
}

// Next returns the next entry, or io.EOF.
func (r *Reader) Next() (Entry, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return Entry{}, err
		}
		return Entry{}, io.EOF
	}
	r.line++
	var e Entry
	if err := json.Unmarshal(r.scanner.Bytes(), &e); err != nil {
		return Entry{}, fmt.Errorf("line %d: %w", r.line, err)
	}
	if e.Seq != int64(r.line) {
		return Entry{}, fmt.Errorf("line %d: unexpected seq %d", r.line, e.Seq)
	}
	return e, nil
}

// ReadAll reads every entry from r.
func ReadAll(r io.Reader) ([]Entry, error) {
	reader := NewReader(r)
	var out []Entry
	for {
		e, err := reader.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

// Recording is a Writer backed by a file named after its run id.
type Recording struct {
	*Writer
	Path string

	f         *os.File
	closeOnce sync.Once
	closeErr  error
}

// Create starts a recording at dir/<runID>.jsonl. An empty runID gets a fresh
// one.
func Create(dir, runID string) (*Recording, error) {
	if runID == "" {
		runID = NewRunID()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating recording dir: %w", err)
	}
	path := filepath.Join(dir, runID+".jsonl")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating recording: %w", err)
	}
	monitoring.Logf("[recorder] recording run %s to %s", runID, path)
	return &Recording{Writer: NewWriter(f, runID), Path: path, f: f}, nil
}

// Close flushes the entries and closes the file. Closing twice is a no-op.
func (r *Recording) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.Writer.Close()
		if err := r.f.Close(); r.closeErr == nil {
			r.closeErr = err
		}
	})
	return r.closeErr
}

// Hooks returns player hooks that record every switch and close the
// recording when playback finishes. Write errors are logged; the hooks never
// interrupt playback. Frames are captured through frame, typically
// Player.Frame.
func (r *Recording) Hooks(frame func() engine.Frame) (onSwitch func(engine.Switch), onFinish func(engine.Frame)) {
	onSwitch = func(s engine.Switch) {
		err := r.Append(Entry{Kind: KindSwitch, Frame: frame(), Switch: &s})
		if err != nil && !errors.Is(err, ErrClosed) {
			monitoring.Logf("[recorder] run %s: %v", r.RunID(), err)
		}
	}
	onFinish = func(f engine.Frame) {
		if err := r.Append(Entry{Kind: KindFinish, Frame: f}); err != nil {
			monitoring.Logf("[recorder] run %s: %v", r.RunID(), err)
		}
		if err := r.Close(); err != nil {
			monitoring.Logf("[recorder] run %s: closing: %v", r.RunID(), err)
			return
		}
		monitoring.Logf("[recorder] saved %d entries to %s", r.Len(), r.Path)
	}
	return onSwitch, onFinish
}
