// transport/shutdown_windows.go
//go:build windows

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"errors"

	"github.com/momentics/wsrecv/api"
	"golang.org/x/sys/windows"
)

func shutdownFD(fd uintptr, mode api.ShutdownMode) error {
	how := windows.SHUT_RD
	if mode == api.ShutdownBoth {
		how = windows.SHUT_RDWR
	}
	return windows.Shutdown(windows.Handle(fd), how)
}

func isWouldBlockErrno(err error) bool {
	return errors.Is(err, windows.WSAEWOULDBLOCK)
}
