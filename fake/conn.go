// Package fake
// Author: momentics <momentics@gmail.com>
//
// Blocking connection fake with shutdown support.

package fake

import (
	"io"
	"sync"

	"github.com/momentics/wsrecv/api"
)

// Conn is a blocking byte source implementing api.Shutdowner. Read waits
// until data is written or the read half is shut down.
type Conn struct {
	mu       sync.Mutex
	cond     *sync.Cond
	data     []byte
	readShut bool
	shutdown []api.ShutdownMode
}

// NewConn creates an empty connection.
func NewConn() *Conn {
	c := &Conn{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Feed makes data available to readers.
func (c *Conn) Feed(data []byte) {
	c.mu.Lock()
	c.data = append(c.data, data...)
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Read implements io.Reader.
func (c *Conn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.data) == 0 && !c.readShut {
		c.cond.Wait()
	}
	if c.readShut {
		return 0, io.EOF
	}
	n := copy(p, c.data)
	c.data = c.data[n:]
	return n, nil
}

// Shutdown implements api.Shutdowner. A second shutdown reports
// api.ErrNotSupported, as a socket would report ENOTCONN.
func (c *Conn) Shutdown(mode api.ShutdownMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readShut {
		return api.Errorf(api.ErrNotSupported, "already shut down")
	}
	c.readShut = true
	c.shutdown = append(c.shutdown, mode)
	c.cond.Broadcast()
	return nil
}

// ShutdownModes returns the modes passed to successful Shutdown calls.
func (c *Conn) ShutdownModes() []api.ShutdownMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.ShutdownMode(nil), c.shutdown...)
}
