// File: api/control.go
// Package api defines runtime control contracts used by the receiver.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// MetricsSink receives counter updates from the receive path.
type MetricsSink interface {
	Add(key string, delta int64)
}

// Metric keys published by the receiver.
const (
	MetricFramesReceived     = "frames_received"
	MetricBytesReceived      = "bytes_received"
	MetricMessagesReceived   = "messages_received"
	MetricControlInterleaved = "control_interleaved"
	MetricProtocolErrors     = "protocol_errors"
)
