// File: protocol/message.go
// Package protocol builds typed messages from frame groups.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/momentics/wsrecv/api"
)

// Close codes
const (
	CloseNormalClosure      = 1000
	CloseGoingAway          = 1001
	CloseProtocolError      = 1002
	CloseUnsupportedData    = 1003
	CloseNoStatusRcvd       = 1005
	CloseAbnormalClosure    = 1006
	CloseInvalidPayloadData = 1007
	ClosePolicyViolation    = 1008
	CloseMessageTooBig      = 1009
	CloseMissingExtension   = 1010
	CloseInternalServerErr  = 1011
)

// CloseData is the optional body of a close message.
type CloseData struct {
	StatusCode uint16
	Reason     string
}

// Message is one application-level message. Type is one of OpText,
// OpBinary, OpClose, OpPing or OpPong.
type Message struct {
	Type    Opcode
	Payload []byte
	Close   *CloseData // close messages with a body only
}

// Text returns the payload as a string.
func (m *Message) Text() string {
	return string(m.Payload)
}

// IsControl reports whether m is a close, ping or pong message.
func (m *Message) IsControl() bool {
	return m.Type.IsControl()
}

// MessageFromFrames concatenates the payloads of a frame group, as returned
// by Receiver.RecvMessageDataFrames, and types the result after the leading
// frame's opcode. A group made of a lone control frame yields a control
// message; a lone data frame yields a one-fragment data message.
func MessageFromFrames(frames []*Frame) (*Message, error) {
	if len(frames) == 0 {
		return nil, api.Errorf(api.ErrUnexpectedOpcode, "empty frame group")
	}

	op := frames[0].Opcode
	payload := frames[0].Payload
	if len(frames) > 1 {
		size := 0
		for _, f := range frames {
			size += len(f.Payload)
		}
		payload = make([]byte, 0, size)
		for _, f := range frames {
			payload = append(payload, f.Payload...)
		}
	}

	msg := &Message{Type: op, Payload: payload}
	switch op {
	case OpText:
		if !utf8.Valid(payload) {
			return nil, api.Errorf(api.ErrInvalidUTF8, "text message")
		}
	case OpBinary, OpPing, OpPong:
	case OpClose:
		cd, err := parseClosePayload(payload)
		if err != nil {
			return nil, err
		}
		msg.Close = cd
	default:
		return nil, api.Errorf(api.ErrUnexpectedOpcode, "unsupported opcode %s", op)
	}
	return msg, nil
}

func parseClosePayload(p []byte) (*CloseData, error) {
	switch {
	case len(p) == 0:
		return nil, nil
	case len(p) == 1:
		return nil, api.Errorf(api.ErrInvalidClosePayload, "1-byte body")
	}
	reason := p[2:]
	if !utf8.Valid(reason) {
		return nil, api.Errorf(api.ErrInvalidUTF8, "close reason")
	}
	return &CloseData{
		StatusCode: binary.BigEndian.Uint16(p),
		Reason:     string(reason),
	}, nil
}
