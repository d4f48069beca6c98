package structcodec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrLayout is matched by every *LayoutError.
var ErrLayout = errors.New("structcodec: layout violation")

// LayoutError reports a buffer that does not satisfy a layout.
type LayoutError struct {
	Layout string
	Field  string
	Need   int
	Have   int
	Reason string
}

func (e *LayoutError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "short buffer"
	}
	if e.Field != "" {
		return fmt.Sprintf("structcodec: %s.%s: %s (need %d, have %d)", e.Layout, e.Field, reason, e.Need, e.Have)
	}
	return fmt.Sprintf("structcodec: %s: %s (need %d, have %d)", e.Layout, reason, e.Need, e.Have)
}

func (e *LayoutError) Unwrap() error { return ErrLayout }

// Trailer describes a variable-length section that follows a fixed prefix.
// Its byte length is the value of the integer prefix field CountField
// multiplied by Unit.
type Trailer struct {
	CountField string
	Unit       int
}

// TrailerLen evaluates the trailer length for a decoded prefix.
func (l *Layout) TrailerLen(prefix any, t Trailer) (int, error) {
	v, err := l.source(prefix)
	if err != nil {
		return 0, err
	}
	f, ok := l.Field(t.CountField)
	if !ok {
		return 0, fmt.Errorf("structcodec: %s has no field %q", l.name, t.CountField)
	}
	if t.Unit < 0 {
		return 0, fmt.Errorf("structcodec: negative trailer unit %d", t.Unit)
	}
	var count uint64
	fv := v.Field(f.index)
	switch f.Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		n := fv.Int()
		if n < 0 {
			return 0, &LayoutError{Layout: l.name, Field: f.Name, Need: 0, Have: int(n), Reason: "negative count"}
		}
		count = uint64(n)
	case KindUint8, KindUint16, KindUint32, KindUint64:
		count = fv.Uint()
	default:
		return 0, fmt.Errorf("structcodec: %s.%s is not an integer field", l.name, f.Name)
	}
	if t.Unit > 0 && count > uint64(math.MaxInt32)/uint64(t.Unit) {
		return 0, &LayoutError{Layout: l.name, Field: f.Name, Need: math.MaxInt32, Have: int(min(count, math.MaxInt32)), Reason: "count overflows trailer"}
	}
	return int(count) * t.Unit, nil
}

// Frame decodes the fixed prefix of buf into dst and returns the trailer
// that follows it, together with the total number of bytes consumed. The
// trailer length is validated against buf before it is sliced; the
// returned slice aliases buf.
func (l *Layout) Frame(buf []byte, order binary.ByteOrder, dst any, t Trailer) ([]byte, int, error) {
	if err := l.Decode(buf, order, dst); err != nil {
		return nil, 0, err
	}
	n, err := l.TrailerLen(dst, t)
	if err != nil {
		return nil, 0, err
	}
	end := l.size + n
	if end > len(buf) {
		return nil, 0, &LayoutError{Layout: l.name, Field: t.CountField, Need: end, Have: len(buf), Reason: "trailer exceeds record"}
	}
	return buf[l.size:end], end, nil
}

// AppendFramed encodes src followed by trailer. The trailer length must
// match the value of the count field.
func (l *Layout) AppendFramed(dst []byte, src any, order binary.ByteOrder, t Trailer, trailer []byte) ([]byte, error) {
	n, err := l.TrailerLen(src, t)
	if err != nil {
		return nil, err
	}
	if n != len(trailer) {
		return nil, &LayoutError{Layout: l.name, Field: t.CountField, Need: n, Have: len(trailer), Reason: "trailer length mismatch"}
	}
	start := len(dst)
	dst = append(dst, make([]byte, l.size)...)
	if err := l.EncodeTo(dst[start:], src, order); err != nil {
		return nil, err
	}
	return append(dst, trailer...), nil
}
