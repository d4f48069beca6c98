// Package segy reads and writes SEG-Y rev 1 seismic files.
//
// A SEG-Y file is a 3200-byte textual header, a 400-byte binary header,
// optional 3200-byte extended textual headers and a stream of traces. Each
// trace is a 240-byte trace header followed by its samples.
package segy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
)

const (
	TextHeaderSize   = 3200
	BinaryHeaderSize = 400
	TraceHeaderSize  = 240

	// maxSamples bounds a single trace before its buffer is allocated.
	maxSamples = 1 << 20
)

var (
	ErrUnsupportedEncoding = errors.New("segy: unsupported sample encoding")
	ErrTruncatedFile       = errors.New("segy: truncated file")
	ErrCorruptHeader       = errors.New("segy: corrupt header")
)

// SampleFormat is the data sample format code of the binary header.
type SampleFormat int16

const (
	FormatIBM   SampleFormat = 1
	FormatInt32 SampleFormat = 2
	FormatInt16 SampleFormat = 3
	FormatIEEE  SampleFormat = 5
	FormatInt8  SampleFormat = 8
)

// Width returns the byte width of one sample, or 0 for an unsupported code.
func (f SampleFormat) Width() int {
	switch f {
	case FormatIBM, FormatInt32, FormatIEEE:
		return 4
	case FormatInt16:
		return 2
	case FormatInt8:
		return 1
	default:
		return 0
	}
}

// Valid reports whether f is a supported format code.
func (f SampleFormat) Valid() bool { return f.Width() != 0 }

func (f SampleFormat) String() string {
	switch f {
	case FormatIBM:
		return "ibm"
	case FormatInt32:
		return "int32"
	case FormatInt16:
		return "int16"
	case FormatIEEE:
		return "ieee"
	case FormatInt8:
		return "int8"
	default:
		return "format(" + strconv.Itoa(int(f)) + ")"
	}
}

// ParseSampleFormat maps a format name (ibm, int32, int16, ieee, int8) to its
// code.
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch s {
	case "ibm":
		return FormatIBM, nil
	case "int32":
		return FormatInt32, nil
	case "int16":
		return FormatInt16, nil
	case "ieee", "float32", "":
		return FormatIEEE, nil
	case "int8":
		return FormatInt8, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, s)
	}
}

// Config carries the byte order of a file. On read a nil ByteOrder selects
// auto-detection; on write it means big-endian.
type Config struct {
	ByteOrder binary.ByteOrder
}

// DefaultConfig returns the big-endian configuration of SEG-Y rev 1.
func DefaultConfig() Config {
	return Config{ByteOrder: binary.BigEndian}
}

func (c Config) order() binary.ByteOrder {
	if c.ByteOrder == nil {
		return binary.BigEndian
	}
	return c.ByteOrder
}
