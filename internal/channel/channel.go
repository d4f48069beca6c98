// Package channel exposes XTF and SEG-Y files as a format-neutral set of
// channels, each a lazy stream of sample records.
package channel

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/samcharles93/xtfkit/pkg/segy"
	"github.com/samcharles93/xtfkit/pkg/xtf"
)

var (
	ErrEmptySelection = errors.New("channel: selection matches no channel")
	ErrUnknownFormat  = errors.New("channel: unrecognized file format")
	ErrNoChannel      = errors.New("channel: no such channel")
)

// Format names the container format of an opened file.
type Format string

const (
	FormatXTF  Format = "xtf"
	FormatSEGY Format = "segy"
)

// Descriptor describes one channel.
type Descriptor struct {
	Index          int     `json:"index"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	SideScan       bool    `json:"side_scan,omitempty"`
	BytesPerSample int     `json:"bytes_per_sample"`
	Unsigned       bool    `json:"unsigned,omitempty"`
	Encoding       string  `json:"encoding"`
	VoltScale      float32 `json:"volt_scale,omitempty"`
	Frequency      float32 `json:"frequency,omitempty"`
	OffsetX        float32 `json:"offset_x,omitempty"`
	OffsetY        float32 `json:"offset_y,omitempty"`
	OffsetZ        float32 `json:"offset_z,omitempty"`
	// SampleInterval is in microseconds; XTF channels leave it zero since
	// the interval is carried per ping.
	SampleInterval int `json:"sample_interval_us,omitempty"`
}

// FileHandle is an opened XTF or SEG-Y file.
type FileHandle struct {
	path     string
	format   Format
	size     int64
	channels []Descriptor

	xf   *xtf.File
	segy *segy.Headers
}

// Open sniffs the format of path and opens it. XTF files are recognized by
// their leading format byte; anything else must parse as SEG-Y.
func Open(path string) (*FileHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var magic [1]byte
	_, err = io.ReadFull(f, magic[:])
	_ = f.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %s: %v", ErrUnknownFormat, xtf.ErrBadMagic, path, err)
	}

	if magic[0] == xtf.FileFormatMagic {
		return openXTF(path)
	}
	return openSEGY(path)
}

func openXTF(path string) (*FileHandle, error) {
	xf, err := xtf.Open(path)
	if err != nil {
		return nil, err
	}
	h := &FileHandle{path: path, format: FormatXTF, size: xf.Size(), xf: xf}
	for i := range xf.Header.Channels {
		info := &xf.Header.Channels[i]
		enc := "int"
		if info.Unsigned() {
			enc = "uint"
		}
		h.channels = append(h.channels, Descriptor{
			Index:          i,
			Name:           info.Name(),
			Type:           info.Type().String(),
			SideScan:       info.Type().SideScan(),
			BytesPerSample: int(info.BytesPerSample),
			Unsigned:       info.Unsigned(),
			Encoding:       fmt.Sprintf("%s%d", enc, int(info.BytesPerSample)*8),
			VoltScale:      info.VoltScale,
			Frequency:      info.Frequency,
			OffsetX:        info.OffsetX,
			OffsetY:        info.OffsetY,
			OffsetZ:        info.OffsetZ,
		})
	}
	return h, nil
}

func openSEGY(path string) (*FileHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	r, err := segy.NewReader(f, segy.Config{})
	if err != nil {
		// neither the XTF marker nor a readable SEG-Y header
		return nil, fmt.Errorf("%w: %w: %s: %w", ErrUnknownFormat, xtf.ErrBadMagic, path, err)
	}
	hdr := r.Headers()
	if !hdr.Binary.Format().Valid() {
		return nil, fmt.Errorf("%w: %s: %w: sample format code %d", ErrUnknownFormat, path,
			segy.ErrUnsupportedEncoding, hdr.Binary.DataSampleFormat)
	}
	return &FileHandle{
		path:   path,
		format: FormatSEGY,
		size:   st.Size(),
		segy:   hdr,
		channels: []Descriptor{{
			Index:          0,
			Name:           "traces",
			Type:           "trace",
			BytesPerSample: hdr.Binary.Format().Width(),
			Encoding:       hdr.Binary.Format().String(),
			SampleInterval: int(hdr.Binary.SampleInterval),
		}},
	}, nil
}

// Path returns the path the handle was opened from.
func (h *FileHandle) Path() string { return h.path }

// Format returns the container format.
func (h *FileHandle) Format() Format { return h.format }

// Size returns the file size in bytes.
func (h *FileHandle) Size() int64 { return h.size }

// ListChannels returns the channel descriptors in index order.
func (h *FileHandle) ListChannels() []Descriptor {
	return append([]Descriptor(nil), h.channels...)
}

// XTF returns the underlying XTF file, or nil for SEG-Y input.
func (h *FileHandle) XTF() *xtf.File { return h.xf }

// SEGYHeaders returns the SEG-Y file headers, or nil for XTF input.
func (h *FileHandle) SEGYHeaders() *segy.Headers { return h.segy }

// Close releases the file.
func (h *FileHandle) Close() error {
	if h == nil || h.xf == nil {
		return nil
	}
	err := h.xf.Close()
	h.xf = nil
	return err
}

// ReadPackets returns the records of channel index in file order. Each
// iteration starts a fresh pass. A SEG-Y file is a single channel 0.
func (h *FileHandle) ReadPackets(index int) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		if index < 0 || index >= len(h.channels) {
			yield(Record{}, fmt.Errorf("%w: %d of %d", ErrNoChannel, index, len(h.channels)))
			return
		}
		switch h.format {
		case FormatXTF:
			h.readXTF(index, yield)
		default:
			h.readSEGY(yield)
		}
	}
}

func (h *FileHandle) readXTF(index int, yield func(Record, error) bool) {
	if h.xf == nil {
		yield(Record{}, errors.New("channel: file is closed"))
		return
	}
	order := h.xf.Config().Order()
	var n int
	r := h.xf.Reader()
	for p, err := range r.Packets() {
		if err != nil {
			yield(Record{}, err)
			return
		}
		ping, ok := p.(*xtf.Ping)
		if !ok {
			continue
		}
		sec := ping.Channel(index)
		if sec == nil {
			continue
		}
		rec := fromPing(ping, sec, order)
		rec.Seq = n
		n++
		if !yield(rec, nil) {
			return
		}
	}
}

func (h *FileHandle) readSEGY(yield func(Record, error) bool) {
	f, err := os.Open(h.path)
	if err != nil {
		yield(Record{}, err)
		return
	}
	defer func() { _ = f.Close() }()

	r, err := segy.NewReader(f, segy.Config{})
	if err != nil {
		yield(Record{}, err)
		return
	}
	var n int
	for t, err := range r.Traces() {
		if err != nil {
			yield(Record{}, err)
			return
		}
		rec := fromTrace(t)
		rec.Seq = n
		n++
		if !yield(rec, nil) {
			return
		}
	}
}
