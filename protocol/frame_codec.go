// File: protocol/frame_codec.go
// Package protocol implements the resumable frame header codec.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A header is accumulated byte by byte into a ReaderState so that a short
// read leaves nothing behind: the next call continues with the exact bytes
// that are still missing.

package protocol

import (
	"encoding/binary"
	"io"

	"github.com/momentics/wsrecv/api"
)

// DataFrameHeader is a fully decoded frame header.
type DataFrameHeader struct {
	Fin     bool
	Rsv     [3]bool
	Opcode  Opcode
	Masked  bool
	MaskKey [4]byte
	Length  int64
}

// ReaderState is the cursor of a header currently being decoded. It is empty
// whenever no header decode is in progress and is reset the moment a header
// is complete, before any payload is read.
type ReaderState struct {
	buf  [MaxFrameHeaderLen]byte
	n    int
	held error // source error owed to the next read
}

// InProgress reports whether some header bytes have been consumed.
func (s *ReaderState) InProgress() bool {
	return s.n > 0
}

// Consumed returns the number of header bytes read so far.
func (s *ReaderState) Consumed() int {
	return s.n
}

// Reset drops any partially read header. A held source error survives it.
func (s *ReaderState) Reset() {
	s.n = 0
}

// need returns the total header size, as far as it is known yet.
func (s *ReaderState) need() int {
	if s.n < 2 {
		return 2
	}
	n := 2
	switch s.buf[1] & lengthMask {
	case len16Marker:
		n += 2
	case len64Marker:
		n += 8
	}
	if s.buf[1]&MaskBit != 0 {
		n += 4
	}
	return n
}

// decodeHeader reads the missing header bytes into cur and validates them.
// On any error cur keeps what was read.
func decodeHeader(src io.Reader, mask bool, cfg *Config, cur *ReaderState) (DataFrameHeader, error) {
	for {
		if cur.n >= 2 {
			if err := checkFixedHeader(cur.buf[0], cur.buf[1], mask, cfg); err != nil {
				return DataFrameHeader{}, err
			}
		}
		need := cur.need()
		if cur.n == need {
			break
		}
		n, err := fill(src, cur.buf[cur.n:need], cur)
		cur.n += n
		if err != nil {
			return DataFrameHeader{}, classifyReadErr(err, cur.n > 0)
		}
	}

	h := parseHeader(cur.buf[:cur.n])
	if err := checkLength(h, cur.buf[1]&lengthMask, cfg); err != nil {
		return DataFrameHeader{}, err
	}
	cur.Reset()
	return h, nil
}

// checkFixedHeader validates the two fixed header bytes before anything
// else is read.
func checkFixedHeader(b0, b1 byte, mask bool, cfg *Config) error {
	op := Opcode(b0 & opcodeMask)
	if b0&RsvBits != 0 && !cfg.AllowReservedBits {
		return api.Errorf(api.ErrReservedBits, "rsv=%03b", (b0&RsvBits)>>4)
	}
	if op.IsControl() {
		if b0&FinBit == 0 {
			return api.Errorf(api.ErrFragmentedControl, "opcode %s", op)
		}
		if b1&lengthMask > MaxControlPayloadLen {
			return api.Errorf(api.ErrControlFrameTooLarge, "opcode %s", op)
		}
	}
	if masked := b1&MaskBit != 0; masked != mask {
		if mask {
			return api.Errorf(api.ErrMaskMismatch, "expected masked frame")
		}
		return api.Errorf(api.ErrMaskMismatch, "expected unmasked frame")
	}
	return nil
}

func parseHeader(raw []byte) DataFrameHeader {
	h := DataFrameHeader{
		Fin:    raw[0]&FinBit != 0,
		Rsv:    [3]bool{raw[0]&0x40 != 0, raw[0]&0x20 != 0, raw[0]&0x10 != 0},
		Opcode: Opcode(raw[0] & opcodeMask),
		Masked: raw[1]&MaskBit != 0,
		Length: int64(raw[1] & lengthMask),
	}
	offset := 2
	switch raw[1] & lengthMask {
	case len16Marker:
		h.Length = int64(binary.BigEndian.Uint16(raw[offset:]))
		offset += 2
	case len64Marker:
		// The most significant bit must be zero; a negative length catches it.
		h.Length = int64(binary.BigEndian.Uint64(raw[offset:]))
		offset += 8
	}
	if h.Masked {
		copy(h.MaskKey[:], raw[offset:offset+4])
	}
	return h
}

func checkLength(h DataFrameHeader, marker byte, cfg *Config) error {
	switch {
	case h.Length < 0:
		return api.Errorf(api.ErrMalformedHeader, "64-bit length has the most significant bit set")
	case marker == len16Marker && h.Length < len16Marker:
		return api.Errorf(api.ErrMalformedHeader, "length %d not minimally encoded", h.Length)
	case marker == len64Marker && h.Length <= 0xFFFF:
		return api.Errorf(api.ErrMalformedHeader, "length %d not minimally encoded", h.Length)
	case cfg.MaxFramePayload > 0 && h.Length > cfg.MaxFramePayload:
		return api.Errorf(api.ErrFrameTooLarge, "length %d, limit %d", h.Length, cfg.MaxFramePayload)
	}
	return nil
}
