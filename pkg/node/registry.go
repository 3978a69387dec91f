package node

// RegisterSending claims slot for ch as its sender.
func (c *Context) RegisterSending(ch Channel, slot uint64, name string) error {
    return c.register(true, ch, slot, name)
}

// RegisterReceiving claims slot for ch as its receiver.
func (c *Context) RegisterReceiving(ch Channel, slot uint64, name string) error {
    return c.register(false, ch, slot, name)
}

func (c *Context) register(send bool, ch Channel, slot uint64, name string) error {
    c.chMu.Lock()
    defer c.chMu.Unlock()
    m, dir := c.receiving, "receiving"
    if send { m, dir = c.sending, "sending" }
    if _, taken := m[slot]; taken {
        return &SlotInUseError{Slot: slot, Name: name, Dir: dir}
    }
    m[slot] = ch
    return nil
}

// Unregister removes ch from every slot it holds, in both directions.
func (c *Context) Unregister(ch Channel) {
    c.chMu.Lock()
    defer c.chMu.Unlock()
    for _, m := range []map[uint64]Channel{c.sending, c.receiving} {
        for slot, v := range m {
            if v == ch { delete(m, slot) }
        }
    }
}
