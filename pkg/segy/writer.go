package segy

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Writer emits a SEG-Y file: textual, binary and extended headers, then
// traces in the order they are supplied.
type Writer struct {
	w      *bufio.Writer
	order  binary.ByteOrder
	format SampleFormat
	fixed  int // samples per trace when fixed length, else -1

	traces  int
	written int64
}

// NewWriter writes the file headers. The binary header's sample format
// selects the output encoding (IEEE float when zero); traces carrying
// another encoding are converted.
func NewWriter(w io.Writer, hdr Headers, cfg Config) (*Writer, error) {
	if w == nil {
		return nil, errors.New("segy: nil writer")
	}
	if hdr.Text == nil {
		hdr.Text = &TextHeader{}
		for i := range hdr.Text.Raw {
			hdr.Text.Raw[i] = 0x40 // EBCDIC blank
		}
	}
	bin := hdr.Binary
	if bin.DataSampleFormat == 0 {
		bin.DataSampleFormat = int16(FormatIEEE)
	}
	if !bin.Format().Valid() {
		return nil, fmt.Errorf("%w: format code %d", ErrUnsupportedEncoding, bin.DataSampleFormat)
	}
	if len(hdr.Extended) > math.MaxInt16 {
		return nil, fmt.Errorf("%w: %d extended headers", ErrCorruptHeader, len(hdr.Extended))
	}
	bin.ExtendedHeaders = int16(len(hdr.Extended))

	order := cfg.order()
	rawBin, err := binaryHeaderLayout.Encode(&bin, order)
	if err != nil {
		return nil, err
	}

	bw := bufio.NewWriterSize(w, 64*1024)
	out := &Writer{w: bw, order: order, format: bin.Format(), fixed: -1}
	if bin.Fixed() {
		out.fixed = int(bin.SamplesPerTrace)
	}
	if err := out.write(hdr.Text.Raw[:]); err != nil {
		return nil, err
	}
	if err := out.write(rawBin); err != nil {
		return nil, err
	}
	for i := range hdr.Extended {
		if err := out.write(hdr.Extended[i][:]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (w *Writer) write(b []byte) error {
	n, err := w.w.Write(b)
	w.written += int64(n)
	return err
}

// Format returns the sample format of the output.
func (w *Writer) Format() SampleFormat { return w.format }

// WriteTrace encodes and writes one trace. For variable-length files the
// header's sample count is set from the samples; for fixed-length files a
// trace of the wrong length is rejected.
func (w *Writer) WriteTrace(t *Trace) error {
	ct, err := t.Convert(w.format, w.order)
	if err != nil {
		return err
	}
	n := ct.Len()
	h := ct.Header
	switch {
	case w.fixed >= 0 && n != w.fixed:
		return fmt.Errorf("segy: trace %d has %d samples, file is fixed at %d", w.traces, n, w.fixed)
	case w.fixed < 0:
		if n > math.MaxUint16 {
			return fmt.Errorf("segy: trace %d has %d samples", w.traces, n)
		}
		h.NumSamples = uint16(n)
	}

	var raw [TraceHeaderSize]byte
	if err := traceHeaderLayout.EncodeTo(raw[:], &h, w.order); err != nil {
		return err
	}
	if err := w.write(raw[:]); err != nil {
		return err
	}
	if err := w.write(ct.Samples); err != nil {
		return err
	}
	w.traces++
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error { return w.w.Flush() }

// Traces returns the number of traces written.
func (w *Writer) Traces() int { return w.traces }

// BytesWritten returns the number of bytes written, headers included.
func (w *Writer) BytesWritten() int64 { return w.written }
