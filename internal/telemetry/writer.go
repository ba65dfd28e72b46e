package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/arlen/sensorctl/internal/errors"
)

// SessionWriter persists a session log as one JSON record per line. Records
// are appended and flushed per write, so an interrupted run loses at most
// the record being written, never the whole file.
type SessionWriter struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	buf     *bufio.Writer
	entries int
}

// NewSessionWriter creates the session file "<sensorType>_<startEpoch>.jsonl"
// under dir, creating the directory when missing.
func NewSessionWriter(dir, sensorType string, startEpoch int64) (*SessionWriter, error) {
	errFactory := errors.New()

	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrSessionFileInit, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%d.jsonl", sensorType, startEpoch))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, defaultFilePerm)
	if err != nil {
		return nil, errFactory.Wrap(ErrSessionFileInit, err)
	}

	return &SessionWriter{
		path: path,
		file: file,
		buf:  bufio.NewWriter(file),
	}, nil
}

func (w *SessionWriter) Path() string { return w.path }

// Write appends one sample record and flushes it to the file.
func (w *SessionWriter) Write(s *Sample) error {
	errFactory := errors.New()

	data, err := json.Marshal(s)
	if err != nil {
		return errFactory.Wrap(ErrSessionFileWrite, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return errFactory.New(ErrSessionFileClosed)
	}
	if _, err := w.buf.Write(data); err != nil {
		return errFactory.Wrap(ErrSessionFileWrite, err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return errFactory.Wrap(ErrSessionFileWrite, err)
	}
	if err := w.buf.Flush(); err != nil {
		return errFactory.Wrap(ErrSessionFileWrite, err)
	}
	w.entries++

	return nil
}

// Entries reports how many records have been written.
func (w *SessionWriter) Entries() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.entries
}

// Size reports the current file size in bytes.
func (w *SessionWriter) Size() int64 {
	w.mu.Lock()
	path := w.path
	w.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func (w *SessionWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	w.file = nil
	if flushErr != nil {
		return errors.New().Wrap(ErrSessionFileWrite, flushErr)
	}
	if closeErr != nil {
		return errors.New().Wrap(ErrSessionFileClose, closeErr)
	}
	return nil
}
