// File: transport/wouldblock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"errors"
	"net"
	"os"

	"github.com/momentics/wsrecv/api"
)

// IsWouldBlock reports whether a read error only means "no data right now":
// an expired deadline, a non-blocking EAGAIN, or an explicit api.ErrWouldBlock.
func IsWouldBlock(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, api.ErrWouldBlock) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return isWouldBlockErrno(err)
}
