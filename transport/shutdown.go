// File: transport/shutdown.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"fmt"
	"syscall"

	"github.com/momentics/wsrecv/api"
)

// Shutdown stops one or both directions of the socket behind src. A reader
// blocked on src returns promptly with end-of-stream once the read half is
// shut down. Calling it on a socket that is already closed or disconnected
// returns the OS error.
func Shutdown(src any, mode api.ShutdownMode) error {
	switch s := src.(type) {
	case api.Shutdowner:
		return s.Shutdown(mode)
	case syscall.Conn:
		rc, err := s.SyscallConn()
		if err != nil {
			return fmt.Errorf("shutdown %s: %w", mode, err)
		}
		var serr error
		if err := rc.Control(func(fd uintptr) {
			serr = shutdownFD(fd, mode)
		}); err != nil {
			return fmt.Errorf("shutdown %s: %w", mode, err)
		}
		if serr != nil {
			return fmt.Errorf("shutdown %s: %w", mode, serr)
		}
		return nil
	}
	return api.Errorf(api.ErrNotSupported, "%T cannot be shut down", src)
}
