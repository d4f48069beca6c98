package xtf

import (
	"errors"
	"fmt"
)

var (
	ErrBadMagic       = errors.New("xtf: unrecognized file format marker")
	ErrCorruptHeader  = errors.New("xtf: corrupt file header")
	ErrCorruptPacket  = errors.New("xtf: corrupt packet")
	ErrTruncatedFile  = errors.New("xtf: truncated file")
	ErrUnknownChannel = errors.New("xtf: packet references unknown channel")
)

// PacketError describes a packet that could not be decoded by the codec
// registered for its type. The packet is still delivered as Opaque.
type PacketError struct {
	Index  int
	Offset int64
	Type   HeaderType
	Err    error
}

func (e *PacketError) Error() string {
	return fmt.Sprintf("xtf: packet %d (%s) at offset %d: %v", e.Index, e.Type, e.Offset, e.Err)
}

func (e *PacketError) Unwrap() error { return e.Err }
