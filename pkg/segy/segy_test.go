package segy

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIBMKnownValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value float64
		bits  uint32
	}{
		{1.0, 0x41100000},
		{-1.0, 0xC1100000},
		{-118.625, 0xC276A000},
		{0.5, 0x40800000},
		{0, 0},
	}
	for _, tc := range tests {
		if got := Float64ToIBM(tc.value); got != tc.bits {
			t.Fatalf("encode %v: got 0x%08X want 0x%08X", tc.value, got, tc.bits)
		}
		if got := IBMToFloat64(tc.bits); got != tc.value {
			t.Fatalf("decode 0x%08X: got %v want %v", tc.bits, got, tc.value)
		}
	}
}

func TestIBMRoundTripAndClamp(t *testing.T) {
	t.Parallel()

	for _, v := range []float64{3.14159, -2.5e-3, 123456.75, 7.0e20, -1e-30} {
		got := IBMToFloat64(Float64ToIBM(v))
		if rel := math.Abs(got-v) / math.Abs(v); rel > 1e-6 {
			t.Fatalf("round trip %v: got %v (rel %g)", v, got, rel)
		}
	}
	if got := Float64ToIBM(1e300); got != 0x7FFFFFFF {
		t.Fatalf("overflow: got 0x%08X", got)
	}
	if got := Float64ToIBM(-math.Inf(1)); got != 0xFFFFFFFF {
		t.Fatalf("negative overflow: got 0x%08X", got)
	}
	if got := Float64ToIBM(1e-300); got != 0 {
		t.Fatalf("underflow: got 0x%08X", got)
	}
}

func TestTextEncodingDetection(t *testing.T) {
	t.Parallel()

	ebc, err := NewTextHeader("C 1 CLIENT TOY SURVEY\nC 2 LINE 7", EncodingEBCDIC)
	if err != nil {
		t.Fatalf("ebcdic header: %v", err)
	}
	if ebc.Raw[0] != 0xC3 {
		t.Fatalf("first byte: got 0x%02X want 0xC3", ebc.Raw[0])
	}
	if DetectTextEncoding(ebc.Raw[:]) != EncodingEBCDIC {
		t.Fatalf("ebcdic not detected")
	}
	lines := ebc.Lines()
	if len(lines) != 40 || lines[0] != "C 1 CLIENT TOY SURVEY" || lines[1] != "C 2 LINE 7" || lines[2] != "" {
		t.Fatalf("lines: %q", lines[:3])
	}

	asc, err := NewTextHeader("C 1 ASCII", EncodingASCII)
	if err != nil {
		t.Fatalf("ascii header: %v", err)
	}
	if DetectTextEncoding(asc.Raw[:]) != EncodingASCII || asc.Raw[0] != 'C' {
		t.Fatalf("ascii not detected")
	}

	noMarker := bytes.Repeat([]byte("x"), TextHeaderSize)
	if DetectTextEncoding(noMarker) != EncodingASCII {
		t.Fatalf("printable text should be ascii")
	}
	noMarker[3] = 0x85
	if DetectTextEncoding(noMarker) != EncodingEBCDIC {
		t.Fatalf("non printable text should be ebcdic")
	}
}

func TestTextHeaderCutsLongLines(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("A", 100)
	many := strings.Repeat("C\n", 50)
	h, err := NewTextHeader(long+"\n"+many, EncodingEBCDIC)
	if err != nil {
		t.Fatalf("new text header: %v", err)
	}
	lines := h.Lines()
	if len(lines) != 40 || lines[0] != strings.Repeat("A", 80) {
		t.Fatalf("lines: %d first=%q", len(lines), lines[0])
	}
}

func TestSampleCodecs(t *testing.T) {
	t.Parallel()

	values := []float64{-3, 0, 1.5, 127, 300}
	tests := []struct {
		format SampleFormat
		want   []float64
	}{
		{FormatIBM, []float64{-3, 0, 1.5, 127, 300}},
		{FormatIEEE, []float64{-3, 0, 1.5, 127, 300}},
		{FormatInt32, []float64{-3, 0, 2, 127, 300}},
		{FormatInt16, []float64{-3, 0, 2, 127, 300}},
		{FormatInt8, []float64{-3, 0, 2, 127, 127}},
	}
	for _, tc := range tests {
		for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
			raw, err := EncodeSamples(values, tc.format, order)
			if err != nil {
				t.Fatalf("%s encode: %v", tc.format, err)
			}
			if len(raw) != len(values)*tc.format.Width() {
				t.Fatalf("%s length: %d", tc.format, len(raw))
			}
			got, err := DecodeSamples(raw, tc.format, order)
			if err != nil {
				t.Fatalf("%s decode: %v", tc.format, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("%s %v (-want +got):\n%s", tc.format, order, diff)
			}
		}
	}

	if _, err := EncodeSamples(values, SampleFormat(4), binary.BigEndian); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("format 4: got %v", err)
	}
	if _, err := ParseSampleFormat("fixed"); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("parse: got %v", err)
	}
}

func TestLayoutSizes(t *testing.T) {
	t.Parallel()

	if BinaryHeaderLayout().Size() != BinaryHeaderSize {
		t.Fatalf("binary header: %d", BinaryHeaderLayout().Size())
	}
	if TraceHeaderLayout().Size() != TraceHeaderSize {
		t.Fatalf("trace header: %d", TraceHeaderLayout().Size())
	}
	f, _ := BinaryHeaderLayout().Field("Revision")
	if f.Offset != 300 {
		t.Fatalf("revision offset: %d", f.Offset)
	}
	f, _ = TraceHeaderLayout().Field("NumSamples")
	if f.Offset != 114 {
		t.Fatalf("num samples offset: %d", f.Offset)
	}
	f, _ = TraceHeaderLayout().Field("CDPX")
	if f.Offset != 180 {
		t.Fatalf("cdp x offset: %d", f.Offset)
	}
}

func writeFile(t *testing.T, hdr Headers, cfg Config, traces []*Trace) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, hdr, cfg)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	for _, tr := range traces {
		if err := w.WriteTrace(tr); err != nil {
			t.Fatalf("write trace: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if w.BytesWritten() != int64(buf.Len()) {
		t.Fatalf("bytes written: %d vs %d", w.BytesWritten(), buf.Len())
	}
	return buf.Bytes()
}

func variableHeaders(t *testing.T, format SampleFormat) Headers {
	t.Helper()
	text, err := NewTextHeader("C 1 TEST", EncodingEBCDIC)
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	return Headers{
		Text: text,
		Binary: BinaryHeader{
			SampleInterval:   20,
			SamplesPerTrace:  4,
			DataSampleFormat: int16(format),
			Revision:         0x0100,
		},
	}
}

func TestRoundTripVariableLength(t *testing.T) {
	t.Parallel()

	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		hdr := variableHeaders(t, FormatIBM)
		var traces []*Trace
		for i, n := range []int{4, 6, 2} {
			values := make([]float64, n)
			for j := range values {
				values[j] = float64(i*10+j) - 0.5
			}
			tr, err := NewTrace(TraceHeader{TraceSequenceFile: int32(i + 1), CoordinateScalar: -100}, values, FormatIBM, order)
			if err != nil {
				t.Fatalf("new trace: %v", err)
			}
			traces = append(traces, tr)
		}
		data := writeFile(t, hdr, Config{ByteOrder: order}, traces)

		r, err := NewReader(bytes.NewReader(data), Config{})
		if err != nil {
			t.Fatalf("new reader: %v", err)
		}
		if r.ByteOrder() != order {
			t.Fatalf("byte order not detected: %v", r.ByteOrder())
		}
		if r.Headers().Text.Lines()[0] != "C 1 TEST" {
			t.Fatalf("text: %q", r.Headers().Text.Lines()[0])
		}
		var got []*Trace
		for tr, err := range r.Traces() {
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			got = append(got, tr)
		}
		if len(got) != 3 || got[1].Len() != 6 || got[2].Header.NumSamples != 2 {
			t.Fatalf("traces: %d", len(got))
		}
		if got[1].Header.TraceSequenceFile != 2 || got[1].Header.CoordinateScalar != -100 {
			t.Fatalf("header: %+v", got[1].Header)
		}
		values, err := got[2].Values()
		if err != nil {
			t.Fatalf("values: %v", err)
		}
		if diff := cmp.Diff([]float64{19.5, 20.5}, values); diff != "" {
			t.Fatalf("values (-want +got):\n%s", diff)
		}

		// Re-encoding what was read is byte identical.
		again := writeFile(t, *r.Headers(), Config{ByteOrder: order}, got)
		if !bytes.Equal(again, data) {
			t.Fatalf("round trip differs")
		}
	}
}

func TestFixedLengthUsesBinaryHeader(t *testing.T) {
	t.Parallel()

	hdr := variableHeaders(t, FormatInt16)
	hdr.Binary.FixedLengthTraces = 1
	tr, err := NewTrace(TraceHeader{}, []float64{1, 2, 3, 4}, FormatInt16, binary.BigEndian)
	if err != nil {
		t.Fatalf("new trace: %v", err)
	}
	tr.Header.NumSamples = 0
	data := writeFile(t, hdr, DefaultConfig(), []*Trace{tr, tr})

	r, err := NewReader(bytes.NewReader(data), DefaultConfig())
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	if n := r.Headers().TraceCount(int64(len(data))); n != 2 {
		t.Fatalf("trace count: %d", n)
	}
	var n int
	for tr, err := range r.Traces() {
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if tr.Len() != 4 {
			t.Fatalf("len: %d", tr.Len())
		}
		n++
	}
	if n != 2 {
		t.Fatalf("traces: %d", n)
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, hdr, DefaultConfig())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	short, _ := NewTrace(TraceHeader{}, []float64{1}, FormatInt16, binary.BigEndian)
	if err := w.WriteTrace(short); err == nil {
		t.Fatalf("expected fixed length violation")
	}
}

func TestWriterConvertsEncoding(t *testing.T) {
	t.Parallel()

	hdr := variableHeaders(t, FormatIEEE)
	tr, err := NewTrace(TraceHeader{}, []float64{-118.625, 2}, FormatIBM, binary.BigEndian)
	if err != nil {
		t.Fatalf("new trace: %v", err)
	}
	data := writeFile(t, hdr, DefaultConfig(), []*Trace{tr})
	off := TextHeaderSize + BinaryHeaderSize + TraceHeaderSize
	if got := math.Float32frombits(binary.BigEndian.Uint32(data[off:])); got != -118.625 {
		t.Fatalf("converted sample: %v", got)
	}
}

func TestTruncatedTrace(t *testing.T) {
	t.Parallel()

	hdr := variableHeaders(t, FormatInt16)
	tr, _ := NewTrace(TraceHeader{}, []float64{1, 2, 3, 4}, FormatInt16, binary.BigEndian)
	data := writeFile(t, hdr, DefaultConfig(), []*Trace{tr, tr})

	r, err := NewReader(bytes.NewReader(data[:len(data)-3]), DefaultConfig())
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	var n int
	for _, err := range r.Traces() {
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		n++
	}
	if n != 1 {
		t.Fatalf("traces: %d", n)
	}
	if ws := r.Warnings(); len(ws) != 1 || !errors.Is(ws[0], ErrTruncatedFile) {
		t.Fatalf("warnings: %v", ws)
	}

	if _, err := NewReader(bytes.NewReader(data[:100]), DefaultConfig()); !errors.Is(err, ErrTruncatedFile) {
		t.Fatalf("short headers: got %v", err)
	}
}

func TestUnsupportedFormatOnRead(t *testing.T) {
	t.Parallel()

	hdr := variableHeaders(t, FormatInt16)
	data := writeFile(t, hdr, DefaultConfig(), nil)
	binary.BigEndian.PutUint16(data[TextHeaderSize+24:], 4)

	r, err := NewReader(bytes.NewReader(data), DefaultConfig())
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	if _, err := r.Next(); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("got %v", err)
	}
}

func TestExtendedHeadersKept(t *testing.T) {
	t.Parallel()

	hdr := variableHeaders(t, FormatInt8)
	var ext [TextHeaderSize]byte
	copy(ext[:], "((SEG: extended))")
	hdr.Extended = [][TextHeaderSize]byte{ext}
	tr, _ := NewTrace(TraceHeader{}, []float64{1, -1}, FormatInt8, binary.BigEndian)
	data := writeFile(t, hdr, DefaultConfig(), []*Trace{tr})

	r, err := NewReader(bytes.NewReader(data), DefaultConfig())
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	if len(r.ExtendedHeaders()) != 1 || r.ExtendedHeaders()[0] != ext {
		t.Fatalf("extended headers not kept")
	}
	got, err := r.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("len: %d", got.Len())
	}
}

func TestScalar(t *testing.T) {
	t.Parallel()

	if got := Scaled(148.5, -100); got != 14850 {
		t.Fatalf("scaled: %d", got)
	}
	if got := ApplyScalar(14850, -100); got != 148.5 {
		t.Fatalf("apply: %v", got)
	}
	if got := ApplyScalar(3, 10); got != 30 {
		t.Fatalf("apply positive: %v", got)
	}
}
