// transport/shutdown_unix.go
//go:build unix

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"errors"

	"github.com/momentics/wsrecv/api"
	"golang.org/x/sys/unix"
)

func shutdownFD(fd uintptr, mode api.ShutdownMode) error {
	how := unix.SHUT_RD
	if mode == api.ShutdownBoth {
		how = unix.SHUT_RDWR
	}
	return unix.Shutdown(int(fd), how)
}

func isWouldBlockErrno(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
