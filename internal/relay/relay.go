// Package relay serializes console output from concurrent build jobs and
// prefixes every relayed line with the job label.
package relay

import (
	"bytes"
	"io"
	"sync"
)

// SyncWriter serializes writes to an underlying writer. A single Write is
// never interleaved with another.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSyncWriter wraps w.
func NewSyncWriter(w io.Writer) *SyncWriter {
	return &SyncWriter{w: w}
}

func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// PrefixWriter buffers partial lines and forwards each complete line to the
// sink as one Write, with prefix prepended. Close flushes a trailing
// unterminated line. A PrefixWriter is used by a single producer; the sink
// provides cross-job serialization.
type PrefixWriter struct {
	prefix []byte
	sink   io.Writer
	buf    []byte
}

// NewPrefixWriter returns a writer that prefixes lines written to sink.
func NewPrefixWriter(sink io.Writer, prefix string) *PrefixWriter {
	return &PrefixWriter{prefix: []byte(prefix), sink: sink}
}

func (p *PrefixWriter) Write(b []byte) (int, error) {
	p.buf = append(p.buf, b...)
	for {
		i := bytes.IndexByte(p.buf, '\n')
		if i < 0 {
			break
		}
		if err := p.emit(p.buf[:i+1]); err != nil {
			return len(b), err
		}
		p.buf = p.buf[i+1:]
	}
	if len(p.buf) == 0 {
		p.buf = nil
	}
	return len(b), nil
}

// Close writes any buffered partial line followed by a newline.
func (p *PrefixWriter) Close() error {
	if len(p.buf) == 0 {
		return nil
	}
	line := append(p.buf, '\n')
	p.buf = nil
	return p.emit(line)
}

func (p *PrefixWriter) emit(line []byte) error {
	out := make([]byte, 0, len(p.prefix)+len(line))
	out = append(out, p.prefix...)
	out = append(out, line...)
	_, err := p.sink.Write(out)
	return err
}
