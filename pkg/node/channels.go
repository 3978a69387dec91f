package node

import "yoton/pkg/protocol"

// Channel is anything registered on a slot. Sending channels need no
// methods of their own; receiving ones implement ReceivingChannel.
// Channels are compared by identity, so register pointers.
type Channel any

// ReceivingChannel gets packages deposited on its slot. It is called with
// the routing lock held, so it must not block on other contexts.
type ReceivingChannel interface {
    ReceivePackage(p *protocol.Package)
}

// Resender is implemented by sending channels that keep a current value
// and repeat it when a new context joins the mesh.
type Resender interface {
    ResendLast() error
}

// Closer channels are closed together with their context.
type Closer interface {
    Close() error
}
