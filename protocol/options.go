// File: protocol/options.go
// Package protocol defines receiver configuration and functional options.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"go.uber.org/zap"

	"github.com/momentics/wsrecv/api"
)

// MaxFramePayload defines the default maximum payload size for a single frame.
const MaxFramePayload = 1 << 20 // 1 MiB

// DefaultReadBufferSize is the buffer placed in front of a Reader's source.
const DefaultReadBufferSize = 4096

// minReadBufferSize mirrors the smallest buffer bufio accepts.
const minReadBufferSize = 16

// Config holds the decoding limits of a Receiver. Whether frames must be
// masked is not part of it: that is fixed by the side of the connection and
// passed to NewReceiver.
type Config struct {
	// MaxFramePayload rejects frames declaring a longer payload; 0 disables the check.
	MaxFramePayload int64 `yaml:"max_frame_payload"`
	// AllowReservedBits accepts RSV1-3 (an extension was negotiated).
	AllowReservedBits bool `yaml:"allow_reserved_bits"`
	// ReadBufferSize sizes the bufio.Reader a Reader puts in front of its source.
	ReadBufferSize int `yaml:"read_buffer_size"`
}

// DefaultConfig returns the limits used when nothing else is configured.
func DefaultConfig() Config {
	return Config{
		MaxFramePayload: MaxFramePayload,
		ReadBufferSize:  DefaultReadBufferSize,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.MaxFramePayload < 0 {
		return api.Errorf(api.ErrInvalidArgument, "max_frame_payload must not be negative, got %d", c.MaxFramePayload)
	}
	if c.ReadBufferSize < minReadBufferSize {
		return api.Errorf(api.ErrInvalidArgument, "read_buffer_size must be at least %d, got %d", minReadBufferSize, c.ReadBufferSize)
	}
	return nil
}

// Option customizes Receiver initialization.
type Option func(*Receiver)

// WithConfig replaces the decoding limits.
func WithConfig(cfg Config) Option {
	return func(r *Receiver) {
		r.cfg = cfg
	}
}

// WithMaxFramePayload overrides the per-frame payload limit.
func WithMaxFramePayload(n int64) Option {
	return func(r *Receiver) {
		r.cfg.MaxFramePayload = n
	}
}

// WithReservedBits allows RSV1-3 on incoming frames.
func WithReservedBits(allow bool) Option {
	return func(r *Receiver) {
		r.cfg.AllowReservedBits = allow
	}
}

// WithLogger attaches a logger; every entry carries the connection id.
func WithLogger(log *zap.Logger) Option {
	return func(r *Receiver) {
		if log != nil {
			r.log = log
		}
	}
}

// WithMetrics publishes receive counters to sink.
func WithMetrics(sink api.MetricsSink) Option {
	return func(r *Receiver) {
		r.metrics = sink
	}
}

// WithDebug registers the receiver's snapshot as a debug probe named
// "receiver/<conn id>".
func WithDebug(d api.Debug) Option {
	return func(r *Receiver) {
		r.debug = d
	}
}
