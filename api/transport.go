// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Shutdown contract for the byte sources of the receive path.

package api

// ShutdownMode selects which half of a transport to shut down.
type ShutdownMode int

const (
	// ShutdownRead stops reading only.
	ShutdownRead ShutdownMode = iota
	// ShutdownBoth stops reading and writing.
	ShutdownBoth
)

func (m ShutdownMode) String() string {
	switch m {
	case ShutdownRead:
		return "read"
	case ShutdownBoth:
		return "both"
	default:
		return "unknown"
	}
}

// Shutdowner is implemented by byte sources that manage their own shutdown.
// Sources backed by an OS socket do not need it.
type Shutdowner interface {
	Shutdown(mode ShutdownMode) error
}
