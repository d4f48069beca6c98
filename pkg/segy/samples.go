package segy

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Trace is one trace record. Samples holds the raw sample bytes in the
// encoding given by Format and the byte order given by Order, so an
// unmodified trace re-encodes byte for byte.
type Trace struct {
	Header  TraceHeader
	Format  SampleFormat
	Order   binary.ByteOrder // nil means big-endian
	Samples []byte
}

func (t *Trace) order() binary.ByteOrder {
	if t.Order == nil {
		return binary.BigEndian
	}
	return t.Order
}

// Len returns the number of samples carried by the trace.
func (t *Trace) Len() int {
	w := t.Format.Width()
	if w == 0 {
		return 0
	}
	return len(t.Samples) / w
}

// Values decodes the samples to float64.
func (t *Trace) Values() ([]float64, error) {
	return DecodeSamples(t.Samples, t.Format, t.order())
}

// NewTrace encodes values into a trace of the given format.
func NewTrace(h TraceHeader, values []float64, format SampleFormat, order binary.ByteOrder) (*Trace, error) {
	raw, err := EncodeSamples(values, format, order)
	if err != nil {
		return nil, err
	}
	if len(values) > math.MaxUint16 {
		return nil, fmt.Errorf("segy: %d samples exceed the trace header limit", len(values))
	}
	h.NumSamples = uint16(len(values))
	return &Trace{Header: h, Format: format, Order: order, Samples: raw}, nil
}

// DecodeSamples converts raw samples of the given format to float64.
func DecodeSamples(raw []byte, format SampleFormat, order binary.ByteOrder) ([]float64, error) {
	w := format.Width()
	if w == 0 {
		return nil, fmt.Errorf("%w: format code %d", ErrUnsupportedEncoding, format)
	}
	if len(raw)%w != 0 {
		return nil, fmt.Errorf("segy: %d sample bytes is not a multiple of %d", len(raw), w)
	}
	out := make([]float64, len(raw)/w)
	for i := range out {
		b := raw[i*w:]
		switch format {
		case FormatIBM:
			out[i] = IBMToFloat64(order.Uint32(b))
		case FormatInt32:
			out[i] = float64(int32(order.Uint32(b)))
		case FormatInt16:
			out[i] = float64(int16(order.Uint16(b)))
		case FormatIEEE:
			out[i] = float64(math.Float32frombits(order.Uint32(b)))
		case FormatInt8:
			out[i] = float64(int8(b[0]))
		}
	}
	return out, nil
}

// EncodeSamples converts values to raw samples of the given format.
// Integer formats round to nearest and clamp to the representable range.
func EncodeSamples(values []float64, format SampleFormat, order binary.ByteOrder) ([]byte, error) {
	w := format.Width()
	if w == 0 {
		return nil, fmt.Errorf("%w: format code %d", ErrUnsupportedEncoding, format)
	}
	out := make([]byte, len(values)*w)
	for i, v := range values {
		b := out[i*w:]
		switch format {
		case FormatIBM:
			order.PutUint32(b, Float64ToIBM(v))
		case FormatInt32:
			order.PutUint32(b, uint32(int32(roundClamp(v, math.MinInt32, math.MaxInt32))))
		case FormatInt16:
			order.PutUint16(b, uint16(int16(roundClamp(v, math.MinInt16, math.MaxInt16))))
		case FormatIEEE:
			order.PutUint32(b, math.Float32bits(float32(v)))
		case FormatInt8:
			b[0] = byte(int8(roundClamp(v, math.MinInt8, math.MaxInt8)))
		}
	}
	return out, nil
}

// Convert re-encodes the trace samples into format and byte order to. A
// trace already stored that way is returned as is.
func (t *Trace) Convert(format SampleFormat, to binary.ByteOrder) (*Trace, error) {
	if t.Format == format && t.order() == to {
		return t, nil
	}
	values, err := t.Values()
	if err != nil {
		return nil, err
	}
	raw, err := EncodeSamples(values, format, to)
	if err != nil {
		return nil, err
	}
	return &Trace{Header: t.Header, Format: format, Order: to, Samples: raw}, nil
}

func roundClamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	return math.Max(lo, math.Min(hi, v))
}
