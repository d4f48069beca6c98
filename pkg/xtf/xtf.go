// Package xtf reads and writes eXtended Triton Format (XTF) sonar files.
//
// An XTF file is a 1024-byte aligned header block (file header followed by
// the channel table) and a stream of length-prefixed packets. Each packet
// starts with a 14-byte prologue carrying the 0xFACE magic, a header type
// and the total record length.
package xtf

import (
	"encoding/binary"
	"strconv"
)

// XTF wire constants must never change.
const (
	// FileFormatMagic is the first byte of every XTF file.
	FileFormatMagic uint8 = 0x7B

	// PacketMagic starts every packet prologue.
	PacketMagic uint16 = 0xFACE

	FileHeaderSize        = 256
	ChannelInfoSize       = 128
	HeaderBlockSize       = 1024
	PacketHeaderSize      = 14
	PingHeaderSize        = 242 // after the prologue
	PingChannelHeaderSize = 64

	// maxChannels bounds the channel table before anything is allocated.
	maxChannels = 255

	// maxPacketSize bounds a single declared record length.
	maxPacketSize = 256 << 20
)

// HeaderType is the packet type code of a packet prologue.
type HeaderType uint8

const (
	HeaderSonar         HeaderType = 0
	HeaderNotes         HeaderType = 1
	HeaderBathy         HeaderType = 2
	HeaderAttitude      HeaderType = 3
	HeaderForward       HeaderType = 4
	HeaderElac          HeaderType = 5
	HeaderRawSerial     HeaderType = 6
	HeaderEmbedHead     HeaderType = 7
	HeaderHiddenSonar   HeaderType = 8
	HeaderRawNavigation HeaderType = 42
)

var headerTypeNames = map[HeaderType]string{
	HeaderSonar:         "sonar",
	HeaderNotes:         "notes",
	HeaderBathy:         "bathy",
	HeaderAttitude:      "attitude",
	HeaderForward:       "forward",
	HeaderElac:          "elac",
	HeaderRawSerial:     "raw_serial",
	HeaderEmbedHead:     "embed_head",
	HeaderHiddenSonar:   "hidden_sonar",
	HeaderRawNavigation: "raw_navigation",
}

func (t HeaderType) String() string {
	if name, ok := headerTypeNames[t]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(t)) + ")"
}

// ChannelType is the TypeOfChannel value of a channel info record.
type ChannelType uint8

const (
	ChannelSubbottom  ChannelType = 0
	ChannelPort       ChannelType = 1
	ChannelStarboard  ChannelType = 2
	ChannelBathymetry ChannelType = 3
)

func (t ChannelType) String() string {
	switch t {
	case ChannelSubbottom:
		return "subbottom"
	case ChannelPort:
		return "port"
	case ChannelStarboard:
		return "stbd"
	case ChannelBathymetry:
		return "bathymetry"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// SideScan reports whether the channel carries side-scan imagery.
func (t ChannelType) SideScan() bool {
	return t == ChannelPort || t == ChannelStarboard
}

// Config carries the decode/encode settings of a file. It is passed
// explicitly to every reader and writer.
type Config struct {
	ByteOrder binary.ByteOrder
}

// DefaultConfig returns the little-endian configuration used by XTF
// producers.
func DefaultConfig() Config {
	return Config{ByteOrder: binary.LittleEndian}
}

// Order returns the configured byte order, little-endian when unset.
func (c Config) Order() binary.ByteOrder { return c.order() }

func (c Config) order() binary.ByteOrder {
	if c.ByteOrder == nil {
		return binary.LittleEndian
	}
	return c.ByteOrder
}

func headerBlockLen(channels int) int {
	n := FileHeaderSize + channels*ChannelInfoSize
	return (n + HeaderBlockSize - 1) / HeaderBlockSize * HeaderBlockSize
}
