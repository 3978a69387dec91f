//go:build !unix && !windows

package tcp

func setReuseAddr(fd uintptr) error          { return nil }
func setBuffers(fd uintptr, size int) error { return nil }
