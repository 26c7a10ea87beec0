package logger

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
)

// syncWriter fans each line out to every sink under one lock.
type syncWriter struct {
	mu    sync.Mutex
	sinks []*bufio.Writer
}

func newSyncWriter(writers ...io.Writer) *syncWriter {
	w := &syncWriter{}
	for _, s := range writers {
		if s != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(s, 32*1024))
		}
	}
	return w
}

// Write stores one complete line in every sink and flushes it.
func (w *syncWriter) Write(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, s := range w.sinks {
		if _, err := s.Write(line); err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, s.Flush())
	}
	return errors.Join(errs...)
}

// Flush pushes pending bytes of every sink.
func (w *syncWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, s := range w.sinks {
		errs = append(errs, s.Flush())
	}
	return errors.Join(errs...)
}

// ratioSampler lets num out of every den events through.
type ratioSampler struct {
	mu       sync.Mutex
	num, den int
	n        int
}

func (s *ratioSampler) Set(num, den int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if num <= 0 || den <= 0 {
		num, den = 0, 0
	}
	s.num, s.den, s.n = min(num, den), den, 0
}

func (s *ratioSampler) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.den == 0 {
		return true
	}
	s.n = s.n%s.den + 1
	return s.n <= s.num
}

// parseRatio accepts "n/d" or "d" (meaning 1/d). Empty yields the 1/50 default;
// "0" disables sampling.
func parseRatio(s string) (int, int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1, 50
	}
	if a, b, ok := strings.Cut(s, "/"); ok {
		num, err1 := strconv.Atoi(strings.TrimSpace(a))
		den, err2 := strconv.Atoi(strings.TrimSpace(b))
		if err1 == nil && err2 == nil {
			return num, den
		}
		return 1, 50
	}
	if d, err := strconv.Atoi(s); err == nil {
		if d <= 0 {
			return 0, 0
		}
		return 1, d
	}
	return 1, 50
}
