// Package structcodec packs and unpacks fixed-layout binary records.
//
// A Layout is derived once from a Go struct type and describes every wire
// field in declaration order. The byte order is supplied on each call so that
// one layout can serve formats with different conventions.
package structcodec

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Kind is the semantic type of a wire field.
type Kind uint8

const (
	KindInt8 Kind = iota + 1
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBytes
	KindText
)

var kindNames = [...]string{
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindUint8:   "uint8",
	KindUint16:  "uint16",
	KindUint32:  "uint32",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindBytes:   "bytes",
	KindText:    "text",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Field describes one wire field of a Layout.
type Field struct {
	Name   string
	Kind   Kind
	Offset int
	Width  int

	index int
}

// Layout is an immutable, ordered set of fields with a fixed byte size.
type Layout struct {
	name   string
	typ    reflect.Type
	fields []Field
	byName map[string]int
	size   int
}

var layouts sync.Map // reflect.Type -> *Layout

// LayoutOf returns the layout of the struct type of v (a struct or a pointer
// to one). Layouts are cached per type.
//
// Supported field types are fixed-width integers, float32, float64, byte
// arrays and strings tagged with `bin:"len=N"`. Fields tagged `bin:"-"` are
// not part of the wire layout.
func LayoutOf(v any) (*Layout, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, fmt.Errorf("structcodec: nil value")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := layouts.Load(t); ok {
		return cached.(*Layout), nil
	}
	l, err := buildLayout(t)
	if err != nil {
		return nil, err
	}
	actual, _ := layouts.LoadOrStore(t, l)
	return actual.(*Layout), nil
}

// MustLayout is like LayoutOf but panics on error. It is intended for
// package-level layout variables.
func MustLayout(v any) *Layout {
	l, err := LayoutOf(v)
	if err != nil {
		panic(err)
	}
	return l
}

func buildLayout(t reflect.Type) (*Layout, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("structcodec: %s is not a struct", t)
	}
	l := &Layout{
		name:   t.Name(),
		typ:    t,
		byName: make(map[string]int, t.NumField()),
	}
	off := 0
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("bin")
		if tag == "-" {
			continue
		}
		if !sf.IsExported() {
			return nil, fmt.Errorf("structcodec: %s.%s: unexported wire field", t.Name(), sf.Name)
		}
		kind, width, err := fieldKind(sf, tag)
		if err != nil {
			return nil, fmt.Errorf("structcodec: %s.%s: %w", t.Name(), sf.Name, err)
		}
		l.byName[sf.Name] = len(l.fields)
		l.fields = append(l.fields, Field{
			Name:   sf.Name,
			Kind:   kind,
			Offset: off,
			Width:  width,
			index:  i,
		})
		off += width
	}
	l.size = off
	return l, nil
}

func fieldKind(sf reflect.StructField, tag string) (Kind, int, error) {
	switch sf.Type.Kind() {
	case reflect.Int8:
		return KindInt8, 1, nil
	case reflect.Int16:
		return KindInt16, 2, nil
	case reflect.Int32:
		return KindInt32, 4, nil
	case reflect.Int64:
		return KindInt64, 8, nil
	case reflect.Uint8:
		return KindUint8, 1, nil
	case reflect.Uint16:
		return KindUint16, 2, nil
	case reflect.Uint32:
		return KindUint32, 4, nil
	case reflect.Uint64:
		return KindUint64, 8, nil
	case reflect.Float32:
		return KindFloat32, 4, nil
	case reflect.Float64:
		return KindFloat64, 8, nil
	case reflect.Array:
		if sf.Type.Elem().Kind() != reflect.Uint8 {
			return 0, 0, fmt.Errorf("unsupported array element %s", sf.Type.Elem())
		}
		return KindBytes, sf.Type.Len(), nil
	case reflect.String:
		n, ok := strings.CutPrefix(tag, "len=")
		if !ok {
			return 0, 0, fmt.Errorf("string field needs a `bin:\"len=N\"` tag")
		}
		width, err := strconv.Atoi(n)
		if err != nil || width <= 0 {
			return 0, 0, fmt.Errorf("bad text length %q", n)
		}
		return KindText, width, nil
	default:
		return 0, 0, fmt.Errorf("unsupported field type %s", sf.Type)
	}
}

// Name returns the Go type name the layout was derived from.
func (l *Layout) Name() string { return l.name }

// Size returns the fixed byte size of the layout.
func (l *Layout) Size() int { return l.size }

// Fields returns a copy of the field descriptors in wire order.
func (l *Layout) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)
	return out
}

// Field looks up a field descriptor by name.
func (l *Layout) Field(name string) (Field, bool) {
	i, ok := l.byName[name]
	if !ok {
		return Field{}, false
	}
	return l.fields[i], true
}

func (l *Layout) target(dst any) (reflect.Value, error) {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Type() != l.typ {
		return reflect.Value{}, fmt.Errorf("structcodec: %s: decode target must be *%s, got %T", l.name, l.name, dst)
	}
	return v.Elem(), nil
}

func (l *Layout) source(src any) (reflect.Value, error) {
	v := reflect.ValueOf(src)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("structcodec: %s: nil source", l.name)
		}
		v = v.Elem()
	}
	if v.Type() != l.typ {
		return reflect.Value{}, fmt.Errorf("structcodec: %s: cannot encode %T", l.name, src)
	}
	return v, nil
}

// Decode unpacks buf into dst, which must be a pointer to the layout's
// struct type. It never reads past len(buf) and fails with a *LayoutError
// when buf is shorter than Size().
func (l *Layout) Decode(buf []byte, order binary.ByteOrder, dst any) error {
	v, err := l.target(dst)
	if err != nil {
		return err
	}
	if len(buf) < l.size {
		return &LayoutError{Layout: l.name, Need: l.size, Have: len(buf)}
	}
	for _, f := range l.fields {
		b := buf[f.Offset : f.Offset+f.Width]
		fv := v.Field(f.index)
		switch f.Kind {
		case KindInt8:
			fv.SetInt(int64(int8(b[0])))
		case KindInt16:
			fv.SetInt(int64(int16(order.Uint16(b))))
		case KindInt32:
			fv.SetInt(int64(int32(order.Uint32(b))))
		case KindInt64:
			fv.SetInt(int64(order.Uint64(b)))
		case KindUint8:
			fv.SetUint(uint64(b[0]))
		case KindUint16:
			fv.SetUint(uint64(order.Uint16(b)))
		case KindUint32:
			fv.SetUint(uint64(order.Uint32(b)))
		case KindUint64:
			fv.SetUint(order.Uint64(b))
		case KindFloat32:
			fv.SetFloat(float64(math.Float32frombits(order.Uint32(b))))
		case KindFloat64:
			fv.SetFloat(math.Float64frombits(order.Uint64(b)))
		case KindBytes:
			reflect.Copy(fv, reflect.ValueOf(b))
		case KindText:
			fv.SetString(string(b))
		}
	}
	return nil
}

// Encode packs src (a struct of the layout's type or a pointer to one) into
// a new buffer of Size() bytes.
func (l *Layout) Encode(src any, order binary.ByteOrder) ([]byte, error) {
	buf := make([]byte, l.size)
	if err := l.EncodeTo(buf, src, order); err != nil {
		return nil, err
	}
	return buf, nil
}

// EncodeTo packs src into the first Size() bytes of buf.
func (l *Layout) EncodeTo(buf []byte, src any, order binary.ByteOrder) error {
	v, err := l.source(src)
	if err != nil {
		return err
	}
	if len(buf) < l.size {
		return &LayoutError{Layout: l.name, Need: l.size, Have: len(buf)}
	}
	for _, f := range l.fields {
		b := buf[f.Offset : f.Offset+f.Width]
		fv := v.Field(f.index)
		switch f.Kind {
		case KindInt8:
			b[0] = byte(int8(fv.Int()))
		case KindInt16:
			order.PutUint16(b, uint16(int16(fv.Int())))
		case KindInt32:
			order.PutUint32(b, uint32(int32(fv.Int())))
		case KindInt64:
			order.PutUint64(b, uint64(fv.Int()))
		case KindUint8:
			b[0] = byte(fv.Uint())
		case KindUint16:
			order.PutUint16(b, uint16(fv.Uint()))
		case KindUint32:
			order.PutUint32(b, uint32(fv.Uint()))
		case KindUint64:
			order.PutUint64(b, fv.Uint())
		case KindFloat32:
			order.PutUint32(b, math.Float32bits(float32(fv.Float())))
		case KindFloat64:
			order.PutUint64(b, math.Float64bits(fv.Float()))
		case KindBytes:
			for i := range b {
				b[i] = byte(fv.Index(i).Uint())
			}
		case KindText:
			s := fv.String()
			if len(s) > f.Width {
				return &LayoutError{Layout: l.name, Field: f.Name, Need: len(s), Have: f.Width, Reason: "text too long"}
			}
			n := copy(b, s)
			clear(b[n:])
		}
	}
	return nil
}

// FieldValue pairs a field descriptor with its current value.
type FieldValue struct {
	Field
	Value any
}

// Values lists the wire fields of src in order. Byte arrays are returned as
// []byte copies and text as the raw string.
func (l *Layout) Values(src any) ([]FieldValue, error) {
	v, err := l.source(src)
	if err != nil {
		return nil, err
	}
	out := make([]FieldValue, 0, len(l.fields))
	for _, f := range l.fields {
		fv := v.Field(f.index)
		var val any
		if f.Kind == KindBytes {
			b := make([]byte, f.Width)
			for i := range b {
				b[i] = byte(fv.Index(i).Uint())
			}
			val = b
		} else {
			val = fv.Interface()
		}
		out = append(out, FieldValue{Field: f, Value: val})
	}
	return out, nil
}

// TrimText strips trailing NUL and space padding from fixed-length text.
func TrimText(s string) string {
	return strings.TrimRight(s, "\x00 ")
}
