//go:build windows

package tcp

import (
    "syscall"

    "golang.org/x/sys/windows"
)

// On Windows SO_REUSEADDR allows stealing a port that is in active use, so
// it is left off.
func setReuseAddr(fd uintptr) error { return nil }

func setBuffers(fd uintptr, size int) error {
    h := windows.Handle(fd)
    if err := windows.SetsockoptInt(h, syscall.SOL_SOCKET, syscall.SO_SNDBUF, size); err != nil { return err }
    return windows.SetsockoptInt(h, syscall.SOL_SOCKET, syscall.SO_RCVBUF, size)
}
