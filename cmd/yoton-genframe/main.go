package main

import (
    "encoding/hex"
    "flag"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "strings"

    "google.golang.org/protobuf/types/known/structpb"

    "yoton/pkg/address"
    "yoton/pkg/protocol"
    "yoton/pkg/uid"
)

func main() {
    outDir := flag.String("out", "testdata/frame", "output directory for binary frames")
    channel := flag.String("channel", "chat", "channel name the data frames are sent on")
    flag.Parse()
    if err := os.MkdirAll(*outDir, 0o755); err != nil { log.Fatal(err) }

    src, dst := uid.New(), uid.New()
    slot := address.SlotHash(*channel)
    stamp := func(p *protocol.Package, seq uint64) *protocol.Package {
        p.SourceID, p.SourceSeq = src, seq
        return p
    }

    // 1) Typed bodies, flooded
    body := map[string]any{"from": "genframe", "n": 42}
    for i, f := range []protocol.Format{protocol.FormatJSON, protocol.FormatCBOR} {
        p, err := protocol.NewWithBody(slot, 0, f, body, nil)
        if err != nil { log.Fatal(err) }
        writeOut(*outDir, fmt.Sprintf("frame_%s.bin", f), mustFrame(stamp(p, uint64(i+1))))
    }
    st, err := structpb.NewStruct(body)
    if err != nil { log.Fatal(err) }
    p, err := protocol.NewWithBody(slot, dst, protocol.FormatProto, st, nil)
    if err != nil { log.Fatal(err) }
    writeOut(*outDir, "frame_proto_directed.bin", mustFrame(stamp(p, 3)))

    // 2) Context control messages
    writeOut(*outDir, "frame_new_connection.bin", mustFrame(stamp(protocol.NewControl(protocol.MsgNewConnection, 0), 4)))
    writeOut(*outDir, "frame_close_connection.bin", mustFrame(stamp(protocol.NewControl(protocol.MsgCloseConnection, dst), 5)))

    // 3) Link maintenance frames, empty payload
    writeOut(*outDir, "frame_heartbeat.bin", mustFrame(protocol.Heartbeat()))
    writeOut(*outDir, "frame_close.bin", mustFrame(protocol.CloseNotice()))

    fmt.Printf("Generated frames in %s (source %s, slot %d)\n", *outDir, src.Hex(), slot)
}

func mustFrame(p *protocol.Package) []byte {
    b, err := p.EncodeFrame()
    if err != nil { log.Fatal(err) }
    return b
}

func writeOut(dir, name string, b []byte) {
    p := filepath.Join(dir, name)
    if err := os.WriteFile(p, b, 0o644); err != nil { log.Fatal(err) }
    fmt.Printf("%-28s %5d bytes  head: %s\n", name, len(b), shortHex(b, 48))
}

func shortHex(b []byte, n int) string {
    if len(b) == 0 { return "" }
    if n > len(b) { n = len(b) }
    enc := hex.EncodeToString(b[:n])
    if len(b) > n { enc += "..." }
    var out []string
    for i := 0; i < len(enc); i += 4 {
        j := i + 4
        if j > len(enc) { j = len(enc) }
        out = append(out, enc[i:j])
    }
    return strings.Join(out, " ")
}
