// transport/shutdown_stub.go
//go:build !unix && !windows

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import "github.com/momentics/wsrecv/api"

func shutdownFD(uintptr, api.ShutdownMode) error {
	return api.ErrNotSupported
}

func isWouldBlockErrno(error) bool { return false }
