// Copyright 2025 momentics@gmail.com
// License: Apache 2.0

// frame_test.go - header validation and resumable frame decoding.
package protocol_test

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"
	"testing/iotest"

	"github.com/gobwas/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/wsrecv/api"
	"github.com/momentics/wsrecv/fake"
	"github.com/momentics/wsrecv/protocol"
)

func TestOpcodeClasses(t *testing.T) {
	for op := protocol.Opcode(0); op < 16; op++ {
		assert.Equal(t, op >= 8, op.IsControl(), "opcode %d", op)
		assert.Equal(t, op < 8, op.IsData(), "opcode %d", op)
		reserved := (op >= 3 && op <= 7) || op >= 11
		assert.Equal(t, reserved, op.IsReserved(), "opcode %d", op)
	}
	assert.Equal(t, "text", protocol.OpText.String())
	assert.Equal(t, "continuation", protocol.OpContinuation.String())
	assert.Equal(t, "reserved-control(11)", protocol.Opcode(11).String())
	assert.Equal(t, "reserved-data(3)", protocol.Opcode(3).String())
}

func readOne(t *testing.T, data []byte, mask bool) (*protocol.Frame, error) {
	t.Helper()
	var (
		state protocol.PacketState
		cur   protocol.ReaderState
	)
	return protocol.ReadFrame(bytes.NewReader(data), mask, newID(), &state, &cur)
}

func TestReadFrameUnmasked(t *testing.T) {
	f, err := readOne(t, wire(t, false, text(true, "hello")), false)
	require.NoError(t, err)
	assert.True(t, f.Finished)
	assert.Equal(t, protocol.OpText, f.Opcode)
	assert.Equal(t, "hello", string(f.Payload))
	assert.Equal(t, [3]bool{}, f.Reserved)
}

func TestReadFrameMasked(t *testing.T) {
	f, err := readOne(t, wire(t, true, binary(false, "\x00\x01\x02\xff")), true)
	require.NoError(t, err)
	assert.False(t, f.Finished)
	assert.Equal(t, protocol.OpBinary, f.Opcode)
	assert.Equal(t, []byte{0x00, 0x01, 0x02, 0xff}, f.Payload)
}

func TestReadFrameEmptyPayload(t *testing.T) {
	f, err := readOne(t, wire(t, true, ping("")), true)
	require.NoError(t, err)
	assert.Equal(t, protocol.OpPing, f.Opcode)
	assert.NotNil(t, f.Payload)
	assert.Empty(t, f.Payload)
}

func TestReadFrameExtendedLengths(t *testing.T) {
	for _, size := range []int{125, 126, 200, 0xFFFF, 0x10000, 70000} {
		payload := bytes.Repeat([]byte{'x'}, size)
		f, err := readOne(t, wire(t, true, ws.NewFrame(ws.OpBinary, true, payload)), true)
		require.NoError(t, err, "size %d", size)
		assert.Len(t, f.Payload, size)
		assert.Equal(t, payload, f.Payload)
	}
}

func TestReadFrameHeaderViolations(t *testing.T) {
	rsv := text(true, "x")
	rsv.Header.Rsv = ws.Rsv(true, false, false)

	cases := []struct {
		name string
		data []byte
		mask bool
		want *api.Error
	}{
		{"reserved bits", wire(t, false, rsv), false, api.ErrReservedBits},
		{"fragmented ping", wire(t, false, ws.NewFrame(ws.OpPing, false, nil)), false, api.ErrFragmentedControl},
		{"fragmented reserved control", []byte{0x0b, 0x00}, false, api.ErrFragmentedControl},
		{"oversized ping", wire(t, false, ws.NewPingFrame(make([]byte, 126))), false, api.ErrControlFrameTooLarge},
		{"unmasked when masked expected", wire(t, false, text(true, "x")), true, api.ErrMaskMismatch},
		{"masked when unmasked expected", wire(t, true, text(true, "x")), false, api.ErrMaskMismatch},
		{"16-bit length below 126", []byte{0x82, 126, 0x00, 0x05, 1, 2, 3, 4, 5}, false, api.ErrMalformedHeader},
		{"64-bit length below 65536", []byte{0x82, 127, 0, 0, 0, 0, 0, 0, 0x01, 0x00}, false, api.ErrMalformedHeader},
		{"64-bit length msb set", []byte{0x82, 127, 0x80, 0, 0, 0, 0, 0, 0, 0}, false, api.ErrMalformedHeader},
		{"beyond default limit", []byte{0x82, 127, 0, 0, 0, 0, 0x00, 0x20, 0, 0}, false, api.ErrFrameTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := readOne(t, tc.data, tc.mask)
			require.Error(t, err)
			assert.Nil(t, f)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, api.IsProtocolError(err))

			var e *api.Error
			require.ErrorAs(t, err, &e)
			assert.Contains(t, e.Context, "conn_id")
		})
	}
}

func TestReadFrameViolationOrder(t *testing.T) {
	// RSV and a fragmented control frame: reserved bits are reported first.
	_, err := readOne(t, []byte{0x49, 0x00}, false)
	assert.ErrorIs(t, err, api.ErrReservedBits)

	// A fragmented control frame that is also wrongly masked.
	_, err = readOne(t, []byte{0x09, 0x80, 1, 2, 3, 4}, false)
	assert.ErrorIs(t, err, api.ErrFragmentedControl)
}

func TestReadFrameViolationLeavesPartialHeader(t *testing.T) {
	var (
		state protocol.PacketState
		cur   protocol.ReaderState
	)
	_, err := protocol.ReadFrame(bytes.NewReader([]byte{0x81, 0x05}), true, newID(), &state, &cur)
	require.ErrorIs(t, err, api.ErrMaskMismatch)
	assert.Equal(t, 2, cur.Consumed())
	assert.Nil(t, state.Header)
}

func TestReadFrameReservedOpcodePassesDecoder(t *testing.T) {
	f, err := readOne(t, []byte{0x83, 0x01, 'z'}, false)
	require.NoError(t, err)
	assert.Equal(t, protocol.Opcode(3), f.Opcode)
	assert.True(t, f.Opcode.IsReserved())
}

func TestReadFrameEndOfStream(t *testing.T) {
	_, err := readOne(t, nil, false)
	require.ErrorIs(t, err, api.ErrEndOfStream)
	assert.ErrorIs(t, err, io.EOF)
	assert.NotErrorIs(t, err, io.ErrUnexpectedEOF)

	data := wire(t, false, text(true, "truncated"))
	for _, cut := range []int{1, 2, len(data) - 1} {
		_, err = readOne(t, data[:cut], false)
		require.ErrorIs(t, err, api.ErrEndOfStream, "cut %d", cut)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF, "cut %d", cut)
	}
}

func TestReadFrameTransportError(t *testing.T) {
	reset := errors.New("connection reset by peer")
	src := fake.NewSource(wire(t, false, text(true, "hel"))[:3])
	src.SetRecvError(reset)

	var (
		state protocol.PacketState
		cur   protocol.ReaderState
	)
	_, err := protocol.ReadFrame(src, false, newID(), &state, &cur)
	require.ErrorIs(t, err, api.ErrTransport)
	assert.ErrorIs(t, err, reset)
	assert.False(t, api.IsProtocolError(err))
	assert.Equal(t, 1, len(state.Packet))
}

// lastReadErr hands out data and returns err together with the final bytes,
// then io.EOF, the way a reset socket does.
type lastReadErr struct {
	data []byte
	err  error
}

func (r *lastReadErr) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	if len(r.data) == 0 {
		return n, r.err
	}
	return n, nil
}

func TestReadFrameKeepsErrorReturnedWithFinalBytes(t *testing.T) {
	reset := errors.New("connection reset by peer")
	src := &lastReadErr{data: wire(t, false, text(true, "hello")), err: reset}

	var (
		state protocol.PacketState
		cur   protocol.ReaderState
	)
	id := newID()
	f, err := protocol.ReadFrame(src, false, id, &state, &cur)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(f.Payload))

	_, err = protocol.ReadFrame(src, false, id, &state, &cur)
	require.ErrorIs(t, err, api.ErrTransport)
	assert.ErrorIs(t, err, reset)
	assert.NotErrorIs(t, err, api.ErrEndOfStream)

	_, err = protocol.ReadFrame(src, false, id, &state, &cur)
	assert.ErrorIs(t, err, api.ErrEndOfStream)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameKeepsErrorReturnedWithHeader(t *testing.T) {
	reset := errors.New("connection reset by peer")
	header := wire(t, false, text(true, "hello"))[:2]
	src := &lastReadErr{data: header, err: reset}

	var (
		state protocol.PacketState
		cur   protocol.ReaderState
	)
	_, err := protocol.ReadFrame(src, false, newID(), &state, &cur)
	require.ErrorIs(t, err, api.ErrTransport)
	assert.ErrorIs(t, err, reset)
	require.NotNil(t, state.Header)
	assert.Equal(t, int64(5), state.Header.Length)
	assert.False(t, cur.InProgress())

	_, err = protocol.ReadFrame(src, false, newID(), &state, &cur)
	require.ErrorIs(t, err, api.ErrEndOfStream)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadFrameEOFWithFinalBytes(t *testing.T) {
	data := wire(t, false, text(true, "last"))
	src := iotest.DataErrReader(bytes.NewReader(data))

	var (
		state protocol.PacketState
		cur   protocol.ReaderState
	)
	f, err := protocol.ReadFrame(src, false, newID(), &state, &cur)
	require.NoError(t, err)
	assert.Equal(t, "last", string(f.Payload))

	_, err = protocol.ReadFrame(src, false, newID(), &state, &cur)
	require.ErrorIs(t, err, api.ErrEndOfStream)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameZeroReadIsWouldBlock(t *testing.T) {
	var (
		state protocol.PacketState
		cur   protocol.ReaderState
	)
	_, err := protocol.ReadFrame(zeroReader{}, false, newID(), &state, &cur)
	assert.ErrorIs(t, err, api.ErrWouldBlock)
	assert.False(t, cur.InProgress())
}

type zeroReader struct{}

func (zeroReader) Read([]byte) (int, error) { return 0, nil }

func TestReadFrameResumesAfterWouldBlock(t *testing.T) {
	data := wire(t, true, binary(true, "resumable payload"))
	src := fake.NewSource(nil)
	id := newID()

	var (
		state protocol.PacketState
		cur   protocol.ReaderState
	)
	for i := 0; i < len(data)-1; i++ {
		src.AddRecvData(data[i : i+1])
		f, err := protocol.ReadFrame(src, true, id, &state, &cur)
		require.ErrorIs(t, err, api.ErrWouldBlock, "byte %d", i)
		require.Nil(t, f)

		// Header is 2+4 bytes; the cursor is cleared once it is complete.
		if i < 5 {
			assert.Equal(t, i+1, cur.Consumed())
			assert.Nil(t, state.Header)
		} else {
			assert.False(t, cur.InProgress())
			require.NotNil(t, state.Header)
			assert.Len(t, state.Packet, i-5)
		}
	}
	src.AddRecvData(data[len(data)-1:])
	f, err := protocol.ReadFrame(src, true, id, &state, &cur)
	require.NoError(t, err)
	assert.Equal(t, "resumable payload", string(f.Payload))
	assert.Nil(t, state.Header)
	assert.Nil(t, state.Packet)
	assert.False(t, cur.InProgress())
}

// decodeAll reads every frame of src, retrying on would-block.
func decodeAll(t *testing.T, src io.Reader, mask bool) []*protocol.Frame {
	t.Helper()
	var (
		state  protocol.PacketState
		cur    protocol.ReaderState
		frames []*protocol.Frame
	)
	id := newID()
	for {
		f, err := retry(t, func() (*protocol.Frame, error) {
			return protocol.ReadFrame(src, mask, id, &state, &cur)
		})
		if errors.Is(err, api.ErrEndOfStream) {
			require.ErrorIs(t, err, io.EOF)
			return frames
		}
		require.NoError(t, err)
		frames = append(frames, f)
	}
}

func TestReadFrameChunkingIsTransparent(t *testing.T) {
	frames := []ws.Frame{
		text(false, "AB"),
		ping("p"),
		cont(false, "CD"),
		cont(true, "EF"),
		ws.NewFrame(ws.OpBinary, true, bytes.Repeat([]byte{0xa5}, 300)),
		ws.NewFrame(ws.OpBinary, true, bytes.Repeat([]byte{0x5a}, 70000)),
		ws.NewCloseFrame(ws.NewCloseFrameBody(ws.StatusNormalClosure, "bye")),
	}
	for _, mask := range []bool{false, true} {
		data := wire(t, mask, frames...)
		want := decodeAll(t, bytes.NewReader(data), mask)
		require.Len(t, want, len(frames))

		t.Run("one byte reads", func(t *testing.T) {
			got := decodeAll(t, iotest.OneByteReader(bytes.NewReader(data)), mask)
			assert.Equal(t, want, got)
		})
		t.Run("would-block between bytes", func(t *testing.T) {
			src := fake.NewSource(data, 1)
			src.SetWouldBlock(true)
			require.NoError(t, src.Close())
			got := decodeAll(t, src, mask)
			assert.Equal(t, want, got)
		})
		t.Run("random chunks", func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			sizes := make([]int, 64)
			for i := range sizes {
				sizes[i] = 1 + rng.Intn(17)
			}
			src := fake.NewSource(data, sizes...)
			src.SetWouldBlock(true)
			require.NoError(t, src.Close())
			got := decodeAll(t, src, mask)
			assert.Equal(t, want, got)
		})
	}
}
