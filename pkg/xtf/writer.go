package xtf

import (
	"bufio"
	"errors"
	"io"
)

// Writer emits an XTF file: the header block first, then packets in the
// order they are supplied.
type Writer struct {
	w   *bufio.Writer
	cfg Config

	packets int
	written int64
}

// NewWriter writes the header block of hdr to w.
func NewWriter(w io.Writer, hdr *FileHeader, cfg Config) (*Writer, error) {
	if w == nil {
		return nil, errors.New("xtf: nil writer")
	}
	block, err := EncodeFileHeader(hdr, cfg)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(w, 64*1024)
	if _, err := bw.Write(block); err != nil {
		return nil, err
	}
	return &Writer{w: bw, cfg: cfg, written: int64(len(block))}, nil
}

// WritePacket encodes and writes one packet.
func (w *Writer) WritePacket(p Packet) error {
	raw, err := EncodePacket(p, w.cfg)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(raw); err != nil {
		return err
	}
	w.packets++
	w.written += int64(len(raw))
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error { return w.w.Flush() }

// Packets returns the number of packets written.
func (w *Writer) Packets() int { return w.packets }

// BytesWritten returns the number of bytes written, header included.
func (w *Writer) BytesWritten() int64 { return w.written }
