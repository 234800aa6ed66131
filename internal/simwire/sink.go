package simwire

import (
	"io"
	"sync"
)

// Sink serializes output lines from concurrent jobs. Every call results in
// a single Write of one complete, newline-terminated line.
type Sink struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
	n   uint64
}

func NewSink(w io.Writer) *Sink { return &Sink{w: w} }

func (s *Sink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf[:0], line...)
	s.buf = append(s.buf, '\n')
	if _, err := s.w.Write(s.buf); err != nil {
		return err
	}
	s.n++
	return nil
}

// Lines is the number of lines written so far.
func (s *Sink) Lines() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}
