// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package protocol

import (
	"bufio"
	"errors"
	"io"
	"iter"

	"github.com/google/uuid"

	"github.com/momentics/wsrecv/api"
	"github.com/momentics/wsrecv/transport"
)

// Reader binds a Receiver to a byte source. The source is buffered; the
// unbuffered source is kept for shutdown.
type Reader struct {
	stream   *bufio.Reader
	conn     io.Reader
	receiver *Receiver
}

// NewReader buffers conn and binds it to receiver.
func NewReader(conn io.Reader, receiver *Receiver) *Reader {
	return NewBufferedReader(bufio.NewReaderSize(conn, receiver.cfg.ReadBufferSize), conn, receiver)
}

// NewBufferedReader binds an already buffered stream, e.g. the one that read
// the handshake, keeping conn for shutdown.
func NewBufferedReader(stream *bufio.Reader, conn io.Reader, receiver *Receiver) *Reader {
	return &Reader{
		stream:   stream,
		conn:     conn,
		receiver: receiver,
	}
}

// Receiver returns the bound receiver.
func (r *Reader) Receiver() *Receiver {
	return r.receiver
}

// ID returns the connection identifier.
func (r *Reader) ID() uuid.UUID {
	return r.receiver.ID()
}

// RecvDataFrame reads a single data frame from the remote endpoint.
func (r *Reader) RecvDataFrame() (*Frame, error) {
	return r.receiver.RecvDataFrame(r.stream)
}

// RecvMessageDataFrames reads the frames of one message.
func (r *Reader) RecvMessageDataFrames() ([]*Frame, error) {
	return r.receiver.RecvMessageDataFrames(r.stream)
}

// RecvMessage reads a single message.
func (r *Reader) RecvMessage() (*Message, error) {
	return r.receiver.RecvMessage(r.stream)
}

// IncomingDataFrames iterates over incoming frames, blocking until each
// arrives. It ends at end of stream; any other error is yielded and ends the
// sequence, except would-block, after which iteration goes on if the
// consumer keeps ranging. The sequence continues from the stream position
// and cannot be restarted.
func (r *Reader) IncomingDataFrames() iter.Seq2[*Frame, error] {
	return incoming(r.RecvDataFrame)
}

// IncomingMessages iterates over incoming messages, with the same rules as
// IncomingDataFrames.
func (r *Reader) IncomingMessages() iter.Seq2[*Message, error] {
	return incoming(r.RecvMessage)
}

// Shutdown closes the read half of the connection; pending and future reads
// return immediately with end of stream.
func (r *Reader) Shutdown() error {
	return transport.Shutdown(r.conn, api.ShutdownRead)
}

// Close releases the receiver's registrations. It does not touch the
// connection; use Shutdown or ShutdownAll for that.
func (r *Reader) Close() error {
	return r.receiver.Close()
}

// ShutdownAll shuts down both directions of the connection.
func (r *Reader) ShutdownAll() error {
	return transport.Shutdown(r.conn, api.ShutdownBoth)
}

func incoming[T any](recv func() (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, err := recv()
			if err == nil {
				if !yield(v, nil) {
					return
				}
				continue
			}
			if errors.Is(err, api.ErrEndOfStream) {
				return
			}
			var zero T
			if !yield(zero, err) || !errors.Is(err, api.ErrWouldBlock) {
				return
			}
		}
	}
}
