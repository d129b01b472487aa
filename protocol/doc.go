// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Implements the receive side of the WebSocket protocol (RFC 6455).
//
// Bytes become frames through a resumable decoder: the header cursor
// (ReaderState) and the partial frame (PacketState) survive short reads, so a
// read that would block can be retried without re-parsing. Frames become
// messages through a Receiver, which keeps the fragments of an unfinished
// message across calls and hands interleaved control frames back at once.
//
// Includes:
//   - Opcode enumeration with control/data/reserved queries
//   - Header validation (reserved bits, masking direction, control limits)
//   - Fragment reassembly with control-frame interleaving
//   - Message typing (text, binary, close, ping, pong)
//   - Reader binding a Receiver to a socket, with iterators and shutdown
package protocol
