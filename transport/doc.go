// File: transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// OS-level helpers for the byte sources behind a frame reader: half and full
// socket shutdown, and classification of reads that would block. Platform
// specifics are split by build tags (unix/windows) over golang.org/x/sys.

package transport
