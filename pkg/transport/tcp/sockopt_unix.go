//go:build unix

package tcp

import "golang.org/x/sys/unix"

// setReuseAddr lets a restarted host rebind while old sockets sit in
// TIME_WAIT.
func setReuseAddr(fd uintptr) error {
    return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
}

func setBuffers(fd uintptr, size int) error {
    if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, size); err != nil { return err }
    return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, size)
}
