// Package winpipe carries yoton links over Windows named pipes.
package winpipe

import (
    "fmt"
    "strings"

    "yoton/pkg/address"
)

// PipeName maps an address to a pipe path. Host and port only serve to
// make the name unique; named pipes are local to the machine.
func PipeName(addr address.Address) string {
    host := strings.NewReplacer(":", "_", "\\", "_", "/", "_").Replace(addr.Host)
    return fmt.Sprintf(`\\.\pipe\yoton-%s-%d`, host, addr.Port)
}
