package segy

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
)

// Headers groups the file-level headers of a SEG-Y file.
type Headers struct {
	Text     *TextHeader
	Binary   BinaryHeader
	Extended [][TextHeaderSize]byte
}

// Reader streams traces from a SEG-Y file.
type Reader struct {
	r     *bufio.Reader
	order binary.ByteOrder
	hdr   Headers

	off      int64
	index    int
	warnings []error
	done     bool
}

// NewReader reads the textual, binary and extended headers from r.
func NewReader(r io.Reader, cfg Config) (*Reader, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	var head [TextHeaderSize + BinaryHeaderSize]byte
	if _, err := io.ReadFull(br, head[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: file shorter than the file headers", ErrTruncatedFile)
		}
		return nil, err
	}
	text, err := ParseTextHeader(head[:TextHeaderSize])
	if err != nil {
		return nil, err
	}
	rawBin := head[TextHeaderSize:]

	order := cfg.ByteOrder
	if order == nil {
		order = DetectByteOrder(rawBin)
	}

	rd := &Reader{r: br, order: order, off: int64(len(head))}
	rd.hdr.Text = text
	if err := binaryHeaderLayout.Decode(rawBin, order, &rd.hdr.Binary); err != nil {
		return nil, err
	}

	ext := int(rd.hdr.Binary.ExtendedHeaders)
	if ext < 0 {
		// -1 announces a variable count terminated by an ((EndText)) stanza.
		return nil, fmt.Errorf("%w: variable extended header count", ErrCorruptHeader)
	}
	if ext > 100 {
		return nil, fmt.Errorf("%w: %d extended headers", ErrCorruptHeader, ext)
	}
	rd.hdr.Extended = make([][TextHeaderSize]byte, ext)
	for i := range rd.hdr.Extended {
		if _, err := io.ReadFull(br, rd.hdr.Extended[i][:]); err != nil {
			return nil, fmt.Errorf("%w: extended header %d", ErrTruncatedFile, i)
		}
		rd.off += TextHeaderSize
	}
	return rd, nil
}

// DetectByteOrder picks the byte order under which the sample format code
// of a raw binary header is valid, preferring big-endian.
func DetectByteOrder(rawBin []byte) binary.ByteOrder {
	if len(rawBin) < 26 {
		return binary.BigEndian
	}
	if SampleFormat(int16(binary.BigEndian.Uint16(rawBin[24:]))).Valid() {
		return binary.BigEndian
	}
	if SampleFormat(int16(binary.LittleEndian.Uint16(rawBin[24:]))).Valid() {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Headers returns the file headers.
func (r *Reader) Headers() *Headers { return &r.hdr }

// ByteOrder returns the byte order in use.
func (r *Reader) ByteOrder() binary.ByteOrder { return r.order }

// ExtendedHeaders returns the extended textual headers verbatim.
func (r *Reader) ExtendedHeaders() [][TextHeaderSize]byte { return r.hdr.Extended }

// Warnings returns recoverable problems met so far.
func (r *Reader) Warnings() []error { return r.warnings }

// Offset returns the byte offset of the next trace.
func (r *Reader) Offset() int64 { return r.off }

// Next returns the next trace, or io.EOF at the end of the stream. A partial
// trace at the end of the file ends the stream with an ErrTruncatedFile
// warning.
func (r *Reader) Next() (*Trace, error) {
	if r.done {
		return nil, io.EOF
	}
	format := r.hdr.Binary.Format()
	if !format.Valid() {
		return nil, fmt.Errorf("%w: format code %d", ErrUnsupportedEncoding, format)
	}

	var raw [TraceHeaderSize]byte
	n, err := io.ReadFull(r.r, raw[:])
	switch {
	case errors.Is(err, io.EOF):
		r.done = true
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		r.truncated(fmt.Sprintf("%d-byte partial trace header", n))
		return nil, io.EOF
	case err != nil:
		return nil, err
	}

	t := &Trace{Format: format, Order: r.order}
	if err := traceHeaderLayout.Decode(raw[:], r.order, &t.Header); err != nil {
		return nil, err
	}

	count := r.sampleCount(&t.Header)
	if count > maxSamples {
		return nil, fmt.Errorf("%w: trace %d declares %d samples", ErrCorruptHeader, r.index, count)
	}
	t.Samples = make([]byte, count*format.Width())
	if n, err := io.ReadFull(r.r, t.Samples); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			r.truncated(fmt.Sprintf("trace %d has %d of %d sample bytes", r.index, n, len(t.Samples)))
			return nil, io.EOF
		}
		return nil, err
	}

	r.off += int64(TraceHeaderSize + len(t.Samples))
	r.index++
	return t, nil
}

func (r *Reader) sampleCount(h *TraceHeader) int {
	bin := &r.hdr.Binary
	if bin.Fixed() || h.NumSamples == 0 {
		return int(bin.SamplesPerTrace)
	}
	return int(h.NumSamples)
}

func (r *Reader) truncated(detail string) {
	r.done = true
	r.warnings = append(r.warnings, fmt.Errorf("%w: %s at offset %d", ErrTruncatedFile, detail, r.off))
}

// Traces returns the remaining traces as a sequence. Iteration stops after
// the first error.
func (r *Reader) Traces() iter.Seq2[*Trace, error] {
	return func(yield func(*Trace, error) bool) {
		for {
			t, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(t, err) || err != nil {
				return
			}
		}
	}
}

// TraceCount derives the number of traces of a fixed-length file from its
// size. It returns -1 when the count cannot be derived.
func (h *Headers) TraceCount(size int64) int64 {
	bin := &h.Binary
	w := bin.Format().Width()
	if !bin.Fixed() || w == 0 {
		return -1
	}
	body := size - TextHeaderSize - BinaryHeaderSize - int64(len(h.Extended))*TextHeaderSize
	if body < 0 {
		return -1
	}
	return body / int64(TraceHeaderSize+int(bin.SamplesPerTrace)*w)
}
