// File: protocol/receiver.go
// Package protocol implements frame-to-message assembly.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Receiver turns decoded frames into the frame groups of whole messages.
// Fragments of an unfinished message are kept between calls; a control frame
// arriving in the middle of them is returned on its own and the fragments
// stay where they are.

package protocol

import (
	"io"
	"sync/atomic"

	"github.com/eapache/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/momentics/wsrecv/api"
)

// Receiver owns all receive-side parsing state of one connection. It is
// driven by a single reader at a time and does no locking.
type Receiver struct {
	buffer      *queue.Queue // pending continuation, *Frame elements
	mask        bool
	packetState PacketState
	readerState ReaderState
	id          uuid.UUID

	cfg     Config
	log     *zap.Logger
	metrics api.MetricsSink
	debug   api.Debug

	// Published for debug probes, which may run on other goroutines.
	pendingFrames atomic.Int64
	headerBytes   atomic.Int64
	packetBytes   atomic.Int64
}

// Snapshot is a point-in-time view of a Receiver's parsing state.
type Snapshot struct {
	ConnID        string `json:"conn_id"`
	Masked        bool   `json:"masked"`
	PendingFrames int64  `json:"pending_frames"`
	HeaderBytes   int64  `json:"header_bytes"`
	PacketBytes   int64  `json:"packet_bytes"`
}

// NewReceiver creates a Receiver. mask tells whether incoming frames must be
// masked (true on the server side of a connection).
func NewReceiver(mask bool, id uuid.UUID, opts ...Option) *Receiver {
	r := &Receiver{
		buffer: queue.New(),
		mask:   mask,
		id:     id,
		cfg:    DefaultConfig(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.debug != nil {
		r.debug.RegisterProbe(r.probeName(), func() any { return r.Snapshot() })
	}
	return r
}

// ID returns the connection identifier.
func (r *Receiver) ID() uuid.UUID {
	return r.id
}

// Masked reports whether incoming frames are expected to be masked.
func (r *Receiver) Masked() bool {
	return r.mask
}

// Config returns the decoding limits in effect.
func (r *Receiver) Config() Config {
	return r.cfg
}

// Pending returns the number of fragments of the unfinished message.
func (r *Receiver) Pending() int {
	return r.buffer.Length()
}

// Snapshot returns the last published parsing state.
func (r *Receiver) Snapshot() Snapshot {
	return Snapshot{
		ConnID:        r.id.String(),
		Masked:        r.mask,
		PendingFrames: r.pendingFrames.Load(),
		HeaderBytes:   r.headerBytes.Load(),
		PacketBytes:   r.packetBytes.Load(),
	}
}

// Close releases what the receiver registered outside itself, currently its
// debug probe. Parsing state is kept; Close may be called more than once.
func (r *Receiver) Close() error {
	if r.debug != nil {
		r.debug.UnregisterProbe(r.probeName())
	}
	return nil
}

func (r *Receiver) probeName() string {
	return "receiver/" + r.id.String()
}

// RecvDataFrame reads a single data frame from src.
func (r *Receiver) RecvDataFrame(src io.Reader) (*Frame, error) {
	frame, err := readFrame(src, r.mask, r.id, &r.cfg, &r.packetState, &r.readerState)
	r.publish()
	if err != nil {
		if api.IsProtocolError(err) {
			r.violation(err)
		}
		return nil, err
	}
	r.add(api.MetricFramesReceived, 1)
	r.add(api.MetricBytesReceived, int64(len(frame.Payload)))
	r.log.Debug("frame received",
		zap.Stringer("conn_id", r.id),
		zap.Stringer("opcode", frame.Opcode),
		zap.Bool("fin", frame.Finished),
		zap.Int("len", len(frame.Payload)))
	return frame, nil
}

// RecvMessageDataFrames returns the frames that constitute one message, in
// arrival order, or a single control frame that interrupted a fragmented
// message. In the latter case the fragments read so far are kept and the
// next call resumes collecting them.
func (r *Receiver) RecvMessageDataFrames(src io.Reader) ([]*Frame, error) {
	finished := false
	if r.buffer.Length() == 0 {
		first, err := r.RecvDataFrame(src)
		if err != nil {
			return nil, err
		}
		if first.Opcode == OpContinuation {
			return nil, r.violation(api.Errorf(api.ErrUnexpectedContinuation, "no fragmented message in progress"))
		}
		finished = first.Finished
		r.push(first)
	}

	for !finished {
		next, err := r.RecvDataFrame(src)
		if err != nil {
			return nil, err
		}
		switch {
		case next.Opcode == OpContinuation:
			r.push(next)
			finished = next.Finished
		case next.Opcode.IsControl():
			r.add(api.MetricControlInterleaved, 1)
			r.add(api.MetricMessagesReceived, 1)
			r.log.Debug("control frame interleaved",
				zap.Stringer("conn_id", r.id),
				zap.Stringer("opcode", next.Opcode),
				zap.Int("pending", r.buffer.Length()))
			return []*Frame{next}, nil
		default:
			return nil, r.violation(api.Errorf(api.ErrUnexpectedOpcode, "%s while a fragmented message is in progress", next.Opcode))
		}
	}

	r.add(api.MetricMessagesReceived, 1)
	return r.drain(), nil
}

// RecvMessage reads one message and types it.
func (r *Receiver) RecvMessage(src io.Reader) (*Message, error) {
	frames, err := r.RecvMessageDataFrames(src)
	if err != nil {
		return nil, err
	}
	msg, err := MessageFromFrames(frames)
	if err != nil {
		return nil, r.violation(withConnID(err, r.id))
	}
	return msg, nil
}

func (r *Receiver) push(f *Frame) {
	r.buffer.Add(f)
	r.pendingFrames.Store(int64(r.buffer.Length()))
}

// drain moves the pending fragments out, leaving an empty buffer behind.
func (r *Receiver) drain() []*Frame {
	frames := make([]*Frame, 0, r.buffer.Length())
	for r.buffer.Length() > 0 {
		frames = append(frames, r.buffer.Remove().(*Frame))
	}
	r.pendingFrames.Store(0)
	return frames
}

func (r *Receiver) publish() {
	r.headerBytes.Store(int64(r.readerState.Consumed()))
	r.packetBytes.Store(int64(len(r.packetState.Packet)))
}

func (r *Receiver) violation(err error) error {
	withConnID(err, r.id)
	r.add(api.MetricProtocolErrors, 1)
	r.log.Warn("protocol violation", zap.Stringer("conn_id", r.id), zap.Error(err))
	return err
}

func (r *Receiver) add(key string, delta int64) {
	if r.metrics != nil {
		r.metrics.Add(key, delta)
	}
}
