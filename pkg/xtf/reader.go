package xtf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
)

// Reader streams packets from an XTF file. It holds at most one packet in
// memory.
type Reader struct {
	r   *bufio.Reader
	cfg Config
	hdr *FileHeader
	dc  decodeContext

	off      int64
	index    int
	warnings []error
	done     bool
}

// NewReader reads the header block from r and returns a reader positioned
// at the first packet.
func NewReader(r io.Reader, cfg Config) (*Reader, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	hdr, n, err := ReadFileHeader(br, cfg)
	if err != nil {
		return nil, err
	}
	return newPacketReader(br, hdr, cfg, int64(n)), nil
}

func newPacketReader(br *bufio.Reader, hdr *FileHeader, cfg Config, off int64) *Reader {
	return &Reader{
		r:   br,
		cfg: cfg,
		hdr: hdr,
		dc:  decodeContext{order: cfg.order(), channels: hdr.Channels},
		off: off,
	}
}

// Header returns the file header read at open.
func (r *Reader) Header() *FileHeader { return r.hdr }

// Offset returns the byte offset of the next packet.
func (r *Reader) Offset() int64 { return r.off }

// Warnings returns the recoverable problems met so far: packets kept
// opaque after a decode failure (*PacketError) and ErrTruncatedFile.
func (r *Reader) Warnings() []error { return r.warnings }

// Next returns the next packet, or io.EOF at the end of the stream. A
// partial record at the end of the file ends the stream with an
// ErrTruncatedFile warning instead of an error.
func (r *Reader) Next() (Packet, error) {
	if r.done {
		return nil, io.EOF
	}

	var pro [PacketHeaderSize]byte
	n, err := io.ReadFull(r.r, pro[:])
	switch {
	case errors.Is(err, io.EOF):
		r.done = true
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		r.truncated(fmt.Sprintf("%d-byte partial packet prologue", n))
		return nil, io.EOF
	case err != nil:
		return nil, err
	}

	var hdr PacketHeader
	if err := packetHeaderLayout.Decode(pro[:], r.dc.order, &hdr); err != nil {
		return nil, err
	}
	if hdr.MagicNumber != PacketMagic {
		return nil, fmt.Errorf("%w: magic 0x%04X at offset %d", ErrCorruptPacket, hdr.MagicNumber, r.off)
	}
	if hdr.NumBytesThisRecord < PacketHeaderSize || hdr.NumBytesThisRecord > maxPacketSize {
		return nil, fmt.Errorf("%w: declared length %d at offset %d", ErrCorruptPacket, hdr.NumBytesThisRecord, r.off)
	}

	body := make([]byte, int(hdr.NumBytesThisRecord)-PacketHeaderSize)
	if n, err := io.ReadFull(r.r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			r.truncated(fmt.Sprintf("packet %d declares %d bytes, %d present", r.index, hdr.NumBytesThisRecord, PacketHeaderSize+n))
			return nil, io.EOF
		}
		return nil, err
	}

	start := r.off
	r.off += int64(hdr.NumBytesThisRecord)
	idx := r.index
	r.index++

	p, err := decodePacket(&r.dc, hdr, body)
	if err != nil {
		perr := &PacketError{Index: idx, Offset: start, Type: hdr.Type(), Err: err}
		r.warnings = append(r.warnings, perr)
		return &Opaque{PacketHeader: hdr, Payload: body, Err: perr}, nil
	}
	return p, nil
}

func (r *Reader) truncated(detail string) {
	r.done = true
	r.warnings = append(r.warnings, fmt.Errorf("%w: %s at offset %d", ErrTruncatedFile, detail, r.off))
}

// Packets returns the remaining packets as a sequence. Iteration stops
// after the first error, which is yielded with a nil packet.
func (r *Reader) Packets() iter.Seq2[Packet, error] {
	return func(yield func(Packet, error) bool) {
		for {
			p, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(p, err) || err != nil {
				return
			}
		}
	}
}

// Truncated reports whether the stream ended inside a record.
func (r *Reader) Truncated() bool {
	for _, w := range r.warnings {
		if errors.Is(w, ErrTruncatedFile) {
			return true
		}
	}
	return false
}
