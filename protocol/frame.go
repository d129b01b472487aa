// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Resumable WebSocket frame decoding and unmasking.
//
// A frame survives short reads in two places: the header cursor
// (ReaderState) and the recovery buffer (PacketState) holding the decoded
// header plus the payload read so far. Neither is touched again once a frame
// has been handed out.

package protocol

import (
	"errors"
	"io"
	"slices"

	"github.com/google/uuid"

	"github.com/momentics/wsrecv/api"
	"github.com/momentics/wsrecv/transport"
)

// payloadChunk bounds how much payload memory is reserved ahead of the
// bytes actually received.
const payloadChunk = 64 << 10

// Frame represents a decoded WebSocket frame with its payload unmasked.
type Frame struct {
	Finished bool    // FIN bit
	Reserved [3]bool // RSV1-3, only ever set when reserved bits are allowed
	Opcode   Opcode
	Payload  []byte
}

// PacketState holds a frame whose header is decoded but whose payload is
// not fully read yet.
type PacketState struct {
	Header *DataFrameHeader
	Packet []byte
}

// Reset sets Header to nil and clears Packet.
func (s *PacketState) Reset() {
	s.Header = nil
	s.Packet = nil
}

// ReadFrame decodes exactly one frame from src using the default limits.
// When src cannot supply enough bytes, an api.ErrWouldBlock error is
// returned and state/cur keep everything read so far; calling ReadFrame
// again with the same arguments continues where it stopped.
func ReadFrame(src io.Reader, mask bool, id uuid.UUID, state *PacketState, cur *ReaderState) (*Frame, error) {
	cfg := DefaultConfig()
	return readFrame(src, mask, id, &cfg, state, cur)
}

func readFrame(src io.Reader, mask bool, id uuid.UUID, cfg *Config, state *PacketState, cur *ReaderState) (*Frame, error) {
	if state.Header == nil {
		h, err := decodeHeader(src, mask, cfg, cur)
		if err != nil {
			return nil, withConnID(err, id)
		}
		state.Header = &h
		state.Packet = nil
	}

	h := state.Header
	for int64(len(state.Packet)) < h.Length {
		remaining := h.Length - int64(len(state.Packet))
		if len(state.Packet) == cap(state.Packet) {
			state.Packet = slices.Grow(state.Packet, int(min(remaining, payloadChunk)))
		}
		end := len(state.Packet) + int(min(remaining, int64(cap(state.Packet)-len(state.Packet))))
		n, err := fill(src, state.Packet[len(state.Packet):end], cur)
		state.Packet = state.Packet[:len(state.Packet)+n]
		if err != nil {
			return nil, withConnID(classifyReadErr(err, true), id)
		}
	}

	payload := state.Packet
	if payload == nil {
		payload = []byte{}
	}
	if h.Masked {
		unmaskInPlace(payload, h.MaskKey)
	}
	frame := &Frame{
		Finished: h.Fin,
		Reserved: h.Rsv,
		Opcode:   h.Opcode,
		Payload:  payload,
	}
	state.Reset()
	return frame, nil
}

// fill reads into p until it is full. A read returning neither data nor an
// error is reported as api.ErrWouldBlock. An error that arrives together with
// the last bytes p needed is held in cur and returned by the next fill,
// before src is read again.
func fill(src io.Reader, p []byte, cur *ReaderState) (int, error) {
	if err := cur.held; err != nil {
		cur.held = nil
		return 0, err
	}
	got := 0
	for got < len(p) {
		n, err := src.Read(p[got:])
		got += n
		if err != nil {
			if got == len(p) {
				cur.held = err
				return got, nil
			}
			return got, err
		}
		if n == 0 {
			return got, api.ErrWouldBlock
		}
	}
	return got, nil
}

// classifyReadErr maps a byte source error to an error kind. midFrame tells
// whether part of a frame has already been consumed.
func classifyReadErr(err error, midFrame bool) error {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		if midFrame {
			return api.Wrap(api.ErrEndOfStream, io.ErrUnexpectedEOF)
		}
		return api.Wrap(api.ErrEndOfStream, io.EOF)
	case transport.IsWouldBlock(err):
		if err == error(api.ErrWouldBlock) {
			return api.Wrap(api.ErrWouldBlock, nil)
		}
		return api.Wrap(api.ErrWouldBlock, err)
	default:
		return api.Wrap(api.ErrTransport, err)
	}
}

func withConnID(err error, id uuid.UUID) error {
	var e *api.Error
	if errors.As(err, &e) {
		e.WithContext("conn_id", id.String())
	}
	return err
}

// unmaskInPlace applies XOR on payload using maskKey.
func unmaskInPlace(buf []byte, key [4]byte) {
	for i := 0; i < len(buf); i++ {
		buf[i] ^= key[i%4]
	}
}
