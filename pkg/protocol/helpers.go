package protocol

import (
    "yoton/pkg/protocol/codec"
    "yoton/pkg/uid"
)

// NewWithBody encodes v according to format and returns a data package for
// slot carrying the encoded body.
func NewWithBody(slot uint64, dest uid.UID, format Format, v any, reg *codec.Registry) (*Package, error) {
    b, err := EncodeBody(reg, format, v)
    if err != nil { return nil, err }
    return New(slot, b, dest), nil
}

// DecodePackageBody decodes the payload of p into v and returns its format.
func DecodePackageBody(p *Package, v any, reg *codec.Registry) (Format, error) {
    return DecodeBody(reg, p.Data, v)
}
