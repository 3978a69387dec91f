//go:build !windows

package transports

import (
    "fmt"

    "yoton/pkg/transport"
)

func newWinPipeTransport() (transport.Transport, error) {
    return nil, fmt.Errorf("pipe transport is not supported on this platform")
}
