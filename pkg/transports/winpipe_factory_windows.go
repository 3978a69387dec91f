//go:build windows

package transports

import (
    "yoton/pkg/transport"
    "yoton/pkg/transport/winpipe"
)

func newWinPipeTransport() (transport.Transport, error) { return winpipe.New(), nil }
