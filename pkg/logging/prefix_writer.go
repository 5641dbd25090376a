package logging

import (
	"bytes"
	"io"
	"sync"
)

// PrefixWriter starts every line written through it with a prefix. Lines
// are forwarded whole, in a single Write each, so that prefixed output from
// several loggers sharing a terminal does not interleave mid-line.
type PrefixWriter struct {
	mu      sync.Mutex
	prefix  []byte
	writer  io.Writer
	pending []byte
}

// NewPrefixWriter creates a PrefixWriter over w
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{prefix: []byte(prefix), writer: w}
}

// Write forwards every complete line of p. A trailing partial line is held
// until its newline arrives or Flush is called.
func (pw *PrefixWriter) Write(p []byte) (int, error) {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	pw.pending = append(pw.pending, p...)
	for {
		end := bytes.IndexByte(pw.pending, '\n')
		if end < 0 {
			break
		}
		if err := pw.emit(pw.pending[:end+1]); err != nil {
			return 0, err
		}
		pw.pending = pw.pending[end+1:]
	}
	if len(pw.pending) == 0 {
		pw.pending = nil
	}
	return len(p), nil
}

// Flush forwards a held partial line, without adding a newline
func (pw *PrefixWriter) Flush() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if len(pw.pending) == 0 {
		return nil
	}
	err := pw.emit(pw.pending)
	pw.pending = nil
	return err
}

func (pw *PrefixWriter) emit(line []byte) error {
	out := make([]byte, 0, len(pw.prefix)+len(line))
	out = append(out, pw.prefix...)
	out = append(out, line...)
	_, err := pw.writer.Write(out)
	return err
}
