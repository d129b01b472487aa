// Copyright 2025 momentics@gmail.com
// License: Apache 2.0

// helpers_test.go - wire fixtures shared by the protocol tests.
package protocol_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gobwas/ws"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/momentics/wsrecv/api"
	"github.com/momentics/wsrecv/protocol"
)

var testMask = [4]byte{0x37, 0xfa, 0x21, 0x3d}

// wire encodes frames as a peer would send them. With masked set every frame
// is masked the way a client does it.
func wire(t testing.TB, masked bool, frames ...ws.Frame) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, f := range frames {
		if masked {
			f = ws.MaskFrameWith(f, testMask)
		}
		require.NoError(t, ws.WriteFrame(&buf, f))
	}
	return buf.Bytes()
}

func text(fin bool, p string) ws.Frame   { return ws.NewFrame(ws.OpText, fin, []byte(p)) }
func binary(fin bool, p string) ws.Frame { return ws.NewFrame(ws.OpBinary, fin, []byte(p)) }
func cont(fin bool, p string) ws.Frame   { return ws.NewFrame(ws.OpContinuation, fin, []byte(p)) }
func ping(p string) ws.Frame             { return ws.NewFrame(ws.OpPing, true, []byte(p)) }

// retry calls fn until it stops reporting would-block.
func retry[T any](t testing.TB, fn func() (T, error)) (T, error) {
	t.Helper()
	for i := 0; ; i++ {
		v, err := fn()
		if !errors.Is(err, api.ErrWouldBlock) {
			return v, err
		}
		require.Less(t, i, 1<<20, "no progress")
	}
}

func payloads(frames []*protocol.Frame) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = string(f.Payload)
	}
	return out
}

func opcodes(frames []*protocol.Frame) []protocol.Opcode {
	out := make([]protocol.Opcode, len(frames))
	for i, f := range frames {
		out[i] = f.Opcode
	}
	return out
}

func newID() uuid.UUID {
	return uuid.New()
}
