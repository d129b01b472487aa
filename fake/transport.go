// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake byte sources for testing the receive path.
// Provides predictable, controllable short reads, would-block results,
// transport failures and shutdown.

package fake

import (
	"io"
	"sync"

	"github.com/momentics/wsrecv/api"
)

// Source is a non-blocking byte source. Each Read hands out at most the
// next configured chunk size. When it runs out of data it reports
// api.ErrWouldBlock until more data is added, or the configured terminal
// error (io.EOF by default) once closed.
type Source struct {
	mu         sync.Mutex
	data       []byte
	sizes      []int
	next       int
	blockEvery bool
	blocked    bool
	closed     bool
	recvError  error
	reads      int
}

// NewSource creates a source over data. sizes is the cycle of read sizes;
// none means every read returns all buffered data.
func NewSource(data []byte, sizes ...int) *Source {
	s := &Source{sizes: sizes}
	s.AddRecvData(data)
	return s
}

// Read implements io.Reader.
func (s *Source) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++

	if s.blockEvery && s.blocked {
		s.blocked = false
		return 0, api.ErrWouldBlock
	}
	if len(s.data) == 0 {
		switch {
		case s.recvError != nil:
			return 0, s.recvError
		case s.closed:
			return 0, io.EOF
		default:
			return 0, api.ErrWouldBlock
		}
	}

	n := len(p)
	if len(s.sizes) > 0 {
		n = min(n, s.sizes[s.next%len(s.sizes)])
		s.next++
	}
	n = copy(p, s.data[:min(n, len(s.data))])
	s.data = s.data[n:]
	s.blocked = true
	return n, nil
}

// AddRecvData appends data to be returned by later reads.
func (s *Source) AddRecvData(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, data...)
}

// SetWouldBlock makes every read that returned data be followed by one read
// reporting api.ErrWouldBlock.
func (s *Source) SetWouldBlock(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockEvery = on
}

// SetRecvError configures the error returned once buffered data runs out.
func (s *Source) SetRecvError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recvError = err
}

// Close marks the end of the stream: io.EOF after the buffered data.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Buffered returns how many bytes are still unread.
func (s *Source) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Reads returns how many times Read was called.
func (s *Source) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}
