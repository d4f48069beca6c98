package xtf

import (
	"encoding/binary"
	"fmt"
)

// DecodeSamples converts raw integer samples of the given width and
// polarity into float64 values.
func DecodeSamples(raw []byte, width int, unsigned bool, order binary.ByteOrder) ([]float64, error) {
	if !validWidth(width) {
		return nil, fmt.Errorf("xtf: unsupported sample width %d", width)
	}
	if len(raw)%width != 0 {
		return nil, fmt.Errorf("xtf: %d sample bytes is not a multiple of width %d", len(raw), width)
	}
	out := make([]float64, len(raw)/width)
	for i := range out {
		b := raw[i*width : (i+1)*width]
		switch {
		case width == 1 && unsigned:
			out[i] = float64(b[0])
		case width == 1:
			out[i] = float64(int8(b[0]))
		case width == 2 && unsigned:
			out[i] = float64(order.Uint16(b))
		case width == 2:
			out[i] = float64(int16(order.Uint16(b)))
		case width == 4 && unsigned:
			out[i] = float64(order.Uint32(b))
		default:
			out[i] = float64(int32(order.Uint32(b)))
		}
	}
	return out, nil
}

// Values decodes the channel samples.
func (c *PingChannel) Values(order binary.ByteOrder) ([]float64, error) {
	return DecodeSamples(c.Samples, c.Width, c.Unsigned, order)
}

// Channel returns the section for channel index ch, or nil.
func (p *Ping) Channel(ch int) *PingChannel {
	for i := range p.Channels {
		if int(p.Channels[i].ChannelNumber) == ch {
			return &p.Channels[i]
		}
	}
	return nil
}
