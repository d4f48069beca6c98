package xtf

import (
	"encoding/binary"
	"fmt"

	"github.com/samcharles93/xtfkit/pkg/structcodec"
)

type decodeContext struct {
	order    binary.ByteOrder
	channels []ChannelInfo
}

// packetCodec is the registry entry for one packet type.
type packetCodec struct {
	layout *structcodec.Layout
	decode func(dc *decodeContext, hdr PacketHeader, body []byte) (Packet, error)
	encode func(order binary.ByteOrder, p Packet) ([]byte, error)
}

var registry = map[HeaderType]packetCodec{
	HeaderSonar:         {layout: pingHeaderLayout, decode: decodePing, encode: encodePing},
	HeaderHiddenSonar:   {layout: pingHeaderLayout, decode: decodePing, encode: encodePing},
	HeaderNotes:         {layout: notesLayout, decode: decodeNotes, encode: encodeNotes},
	HeaderAttitude:      {layout: attitudeLayout, decode: decodeAttitude, encode: encodeAttitude},
	HeaderRawNavigation: {layout: navigationLayout, decode: decodeNavigation, encode: encodeNavigation},
}

// Registered reports whether packets of type t are decoded into a typed
// variant rather than kept opaque.
func Registered(t HeaderType) bool {
	_, ok := registry[t]
	return ok
}

// BodyLayout returns the fixed body layout registered for t.
func BodyLayout(t HeaderType) (*structcodec.Layout, bool) {
	c, ok := registry[t]
	if !ok {
		return nil, false
	}
	return c.layout, true
}

func decodePacket(dc *decodeContext, hdr PacketHeader, body []byte) (Packet, error) {
	codec, ok := registry[hdr.Type()]
	if !ok {
		return &Opaque{PacketHeader: hdr, Payload: body}, nil
	}
	return codec.decode(dc, hdr, body)
}

// EncodePacket serializes p with its prologue. NumBytesThisRecord is
// recomputed from the encoded payload; the value carried by p is ignored.
func EncodePacket(p Packet, cfg Config) ([]byte, error) {
	order := cfg.order()

	var body []byte
	var err error
	switch v := p.(type) {
	case *Opaque:
		body = v.Payload
	default:
		t := p.Prologue().Type()
		codec, ok := registry[t]
		if !ok {
			return nil, fmt.Errorf("xtf: no codec for %T with type %s", p, t)
		}
		body, err = codec.encode(order, p)
		if err != nil {
			return nil, err
		}
	}
	hdr := *p.Prologue()
	if ping, ok := p.(*Ping); ok {
		hdr.NumChansToFollow = uint16(len(ping.Channels))
	}

	total := PacketHeaderSize + len(body)
	if total > maxPacketSize {
		return nil, fmt.Errorf("%w: record of %d bytes", ErrCorruptPacket, total)
	}
	hdr.MagicNumber = PacketMagic
	hdr.NumBytesThisRecord = uint32(total)

	out := make([]byte, total)
	if err := packetHeaderLayout.EncodeTo(out, &hdr, order); err != nil {
		return nil, err
	}
	copy(out[PacketHeaderSize:], body)
	return out, nil
}

func decodePing(dc *decodeContext, hdr PacketHeader, body []byte) (Packet, error) {
	p := &Ping{PacketHeader: hdr}
	if err := pingHeaderLayout.Decode(body, dc.order, &p.Info); err != nil {
		return nil, err
	}
	off := pingHeaderLayout.Size()
	p.Channels = make([]PingChannel, 0, hdr.NumChansToFollow)
	for i := 0; i < int(hdr.NumChansToFollow); i++ {
		var ch PingChannel
		if err := pingChannelHeaderLayout.Decode(body[off:], dc.order, &ch.PingChannelHeader); err != nil {
			return nil, err
		}
		idx := int(ch.ChannelNumber)
		if idx >= len(dc.channels) {
			return nil, fmt.Errorf("%w: %d of %d", ErrUnknownChannel, idx, len(dc.channels))
		}
		info := &dc.channels[idx]
		ch.Width = int(info.BytesPerSample)
		ch.Unsigned = info.Unsigned()
		if !validWidth(ch.Width) {
			return nil, fmt.Errorf("xtf: channel %d: unsupported bytes per sample %d", idx, ch.Width)
		}
		samples, n, err := pingChannelHeaderLayout.Frame(body[off:], dc.order, &ch.PingChannelHeader,
			structcodec.Trailer{CountField: "NumSamples", Unit: ch.Width})
		if err != nil {
			return nil, err
		}
		ch.Samples = samples
		p.Channels = append(p.Channels, ch)
		off += n
	}
	p.Tail = body[off:]
	return p, nil
}

func encodePing(order binary.ByteOrder, pk Packet) ([]byte, error) {
	p, ok := pk.(*Ping)
	if !ok {
		return nil, fmt.Errorf("xtf: sonar packet must be *Ping, got %T", pk)
	}
	if len(p.Channels) > 0xFFFF {
		return nil, fmt.Errorf("%w: %d channel sections", ErrCorruptPacket, len(p.Channels))
	}

	out, err := pingHeaderLayout.Encode(&p.Info, order)
	if err != nil {
		return nil, err
	}
	for i := range p.Channels {
		ch := &p.Channels[i]
		width := ch.Width
		if width == 0 && ch.NumSamples > 0 {
			width = len(ch.Samples) / int(ch.NumSamples)
		}
		out, err = pingChannelHeaderLayout.AppendFramed(out, &ch.PingChannelHeader, order,
			structcodec.Trailer{CountField: "NumSamples", Unit: width}, ch.Samples)
		if err != nil {
			return nil, fmt.Errorf("xtf: channel section %d: %w", i, err)
		}
	}
	return append(out, p.Tail...), nil
}

func decodeNotes(dc *decodeContext, hdr PacketHeader, body []byte) (Packet, error) {
	n := &Notes{PacketHeader: hdr}
	if err := notesLayout.Decode(body, dc.order, &n.NotesBody); err != nil {
		return nil, err
	}
	if len(body) != notesLayout.Size() {
		return nil, &structcodec.LayoutError{Layout: notesLayout.Name(), Need: notesLayout.Size(), Have: len(body), Reason: "record length mismatch"}
	}
	return n, nil
}

func encodeNotes(order binary.ByteOrder, pk Packet) ([]byte, error) {
	n, ok := pk.(*Notes)
	if !ok {
		return nil, fmt.Errorf("xtf: notes packet must be *Notes, got %T", pk)
	}
	return notesLayout.Encode(&n.NotesBody, order)
}

func decodeAttitude(dc *decodeContext, hdr PacketHeader, body []byte) (Packet, error) {
	a := &Attitude{PacketHeader: hdr}
	if err := attitudeLayout.Decode(body, dc.order, &a.AttitudeBody); err != nil {
		return nil, err
	}
	if len(body) != attitudeLayout.Size() {
		return nil, &structcodec.LayoutError{Layout: attitudeLayout.Name(), Need: attitudeLayout.Size(), Have: len(body), Reason: "record length mismatch"}
	}
	return a, nil
}

func encodeAttitude(order binary.ByteOrder, pk Packet) ([]byte, error) {
	a, ok := pk.(*Attitude)
	if !ok {
		return nil, fmt.Errorf("xtf: attitude packet must be *Attitude, got %T", pk)
	}
	return attitudeLayout.Encode(&a.AttitudeBody, order)
}

func decodeNavigation(dc *decodeContext, hdr PacketHeader, body []byte) (Packet, error) {
	n := &Navigation{PacketHeader: hdr}
	if err := navigationLayout.Decode(body, dc.order, &n.NavigationBody); err != nil {
		return nil, err
	}
	if len(body) != navigationLayout.Size() {
		return nil, &structcodec.LayoutError{Layout: navigationLayout.Name(), Need: navigationLayout.Size(), Have: len(body), Reason: "record length mismatch"}
	}
	return n, nil
}

func encodeNavigation(order binary.ByteOrder, pk Packet) ([]byte, error) {
	n, ok := pk.(*Navigation)
	if !ok {
		return nil, fmt.Errorf("xtf: navigation packet must be *Navigation, got %T", pk)
	}
	return navigationLayout.Encode(&n.NavigationBody, order)
}

func validWidth(w int) bool {
	return w == 1 || w == 2 || w == 4
}
