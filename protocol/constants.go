// Package protocol
// Author: momentics <momentics@gmail.com>
//
// WebSocket wire protocol constants and the opcode enumeration.

package protocol

import "fmt"

const (
	// Frame limit settings
	MaxControlPayloadLen = 125
	MaxFrameHeaderLen    = 14 // for extended payloads with masking

	// Bit masks
	FinBit  = 0x80
	RsvBits = 0x70
	MaskBit = 0x80

	opcodeMask = 0x0F
	lengthMask = 0x7F

	len16Marker = 126
	len64Marker = 127
)

// Opcode is the 4-bit frame opcode. Values 0x8-0xF are control opcodes,
// everything below is data.
type Opcode byte

const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xA
)

// IsControl reports whether op is in the control range (close, ping, pong
// and the reserved control opcodes).
func (op Opcode) IsControl() bool {
	return op&0x08 != 0
}

// IsData reports whether op is in the data range, continuation included.
func (op Opcode) IsData() bool {
	return !op.IsControl()
}

// IsReserved reports whether op has no meaning assigned by RFC 6455.
func (op Opcode) IsReserved() bool {
	switch op {
	case OpContinuation, OpText, OpBinary, OpClose, OpPing, OpPong:
		return false
	}
	return true
}

func (op Opcode) String() string {
	switch op {
	case OpContinuation:
		return "continuation"
	case OpText:
		return "text"
	case OpBinary:
		return "binary"
	case OpClose:
		return "close"
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	}
	if op.IsControl() {
		return fmt.Sprintf("reserved-control(%d)", byte(op))
	}
	return fmt.Sprintf("reserved-data(%d)", byte(op))
}
