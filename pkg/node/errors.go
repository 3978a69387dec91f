package node

import (
    "errors"
    "fmt"
)

// ErrSlotInUse matches every *SlotInUseError.
var ErrSlotInUse = errors.New("slot in use")

// SlotInUseError is returned when a second channel registers on a slot.
type SlotInUseError struct {
    Slot uint64
    Name string
    Dir  string // "sending" or "receiving"
}

func (e *SlotInUseError) Error() string {
    if e.Name != "" {
        return fmt.Sprintf("%s slot not free: %s (%d)", e.Dir, e.Name, e.Slot)
    }
    return fmt.Sprintf("%s slot not free: %d", e.Dir, e.Slot)
}

func (e *SlotInUseError) Is(target error) bool { return target == ErrSlotInUse }
