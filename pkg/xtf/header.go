package xtf

import (
	"fmt"
	"io"

	"github.com/samcharles93/xtfkit/pkg/structcodec"
)

// FileHeader is the XTFFILEHEADER prologue together with the channel table
// and the padding that completes the header block.
type FileHeader struct {
	FileFormat                     uint8
	SystemType                     uint8
	RecordingProgramName           string `bin:"len=8"`
	RecordingProgramVersion        string `bin:"len=8"`
	SonarName                      string `bin:"len=16"`
	SonarType                      uint16
	NoteString                     string `bin:"len=64"`
	ThisFileName                   string `bin:"len=64"`
	NavUnits                       uint16
	NumberOfSonarChannels          uint16
	NumberOfBathymetryChannels     uint16
	NumberOfSnippetChannels        uint8
	NumberOfForwardLookArrays      uint8
	NumberOfEchoStrengthChannels   uint16
	NumberOfInterferometryChannels uint8
	Reserved1                      uint8
	Reserved2                      uint16
	ReferencePointHeight           float32
	ProjectionType                 string `bin:"len=12"`
	SpheroidType                   string `bin:"len=10"`
	NavigationLatency              int32
	OriginY                        float32
	OriginX                        float32
	NavOffsetY                     float32
	NavOffsetX                     float32
	NavOffsetZ                     float32
	NavOffsetYaw                   float32
	MRUOffsetY                     float32
	MRUOffsetX                     float32
	MRUOffsetZ                     float32
	MRUOffsetYaw                   float32
	MRUOffsetPitch                 float32
	MRUOffsetRoll                  float32

	Channels []ChannelInfo `bin:"-"`
	// Padding holds the bytes between the channel table and the end of the
	// header block.
	Padding []byte `bin:"-"`
}

// ChannelInfo is one 128-byte CHANINFO record of the channel table.
type ChannelInfo struct {
	TypeOfChannel    uint8
	SubChannelNumber uint8
	CorrectionFlags  uint16
	UniPolar         uint16
	BytesPerSample   uint16
	Reserved1        uint32
	ChannelName      string `bin:"len=16"`
	VoltScale        float32
	Frequency        float32
	HorizBeamAngle   float32
	TiltAngle        float32
	BeamWidth        float32
	OffsetX          float32
	OffsetY          float32
	OffsetZ          float32
	OffsetYaw        float32
	OffsetPitch      float32
	OffsetRoll       float32
	BeamsPerArray    uint16
	Reserved2        [54]byte
}

var (
	fileHeaderLayout  = structcodec.MustLayout(FileHeader{})
	channelInfoLayout = structcodec.MustLayout(ChannelInfo{})
)

// Name returns the channel name without padding.
func (c *ChannelInfo) Name() string {
	return structcodec.TrimText(c.ChannelName)
}

// Type returns the channel type.
func (c *ChannelInfo) Type() ChannelType {
	return ChannelType(c.TypeOfChannel)
}

// Unsigned reports whether samples are stored as unsigned integers.
func (c *ChannelInfo) Unsigned() bool {
	return c.UniPolar != 0
}

// ChannelCount is the number of channel table entries declared by the header.
func (h *FileHeader) ChannelCount() int {
	return int(h.NumberOfSonarChannels) + int(h.NumberOfBathymetryChannels)
}

// Size returns the length of the encoded header block.
func (h *FileHeader) Size() int {
	return headerBlockLen(len(h.Channels))
}

// SyncChannelCounts recomputes the sonar and bathymetry channel counts from
// the channel table.
func (h *FileHeader) SyncChannelCounts() {
	var bathy int
	for i := range h.Channels {
		if h.Channels[i].Type() == ChannelBathymetry {
			bathy++
		}
	}
	h.NumberOfBathymetryChannels = uint16(bathy)
	h.NumberOfSonarChannels = uint16(len(h.Channels) - bathy)
}

// ReadFileHeader reads the header block, channel table included, from r.
// It returns the number of bytes consumed.
func ReadFileHeader(r io.Reader, cfg Config) (*FileHeader, int, error) {
	order := cfg.order()

	var fixed [FileHeaderSize]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, 0, fmt.Errorf("%w: file shorter than header", ErrBadMagic)
		}
		return nil, 0, err
	}
	if fixed[0] != FileFormatMagic {
		return nil, 0, fmt.Errorf("%w: 0x%02X", ErrBadMagic, fixed[0])
	}

	h := &FileHeader{}
	if err := fileHeaderLayout.Decode(fixed[:], order, h); err != nil {
		return nil, 0, err
	}

	n := h.ChannelCount()
	if n > maxChannels {
		return nil, 0, fmt.Errorf("%w: %d channels", ErrCorruptHeader, n)
	}
	block := headerBlockLen(n)
	rest := make([]byte, block-FileHeaderSize)
	if _, err := io.ReadFull(r, rest); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, 0, fmt.Errorf("%w: header block cut short", ErrCorruptHeader)
		}
		return nil, 0, err
	}

	h.Channels = make([]ChannelInfo, n)
	for i := range h.Channels {
		off := i * ChannelInfoSize
		if err := channelInfoLayout.Decode(rest[off:off+ChannelInfoSize], order, &h.Channels[i]); err != nil {
			return nil, 0, fmt.Errorf("%w: channel %d: %v", ErrCorruptHeader, i, err)
		}
	}
	h.Padding = rest[n*ChannelInfoSize:]
	return h, block, nil
}

// EncodeFileHeader encodes the header block. When the declared channel
// counts disagree with the channel table they are recomputed in the
// encoded copy; src is not modified.
func EncodeFileHeader(src *FileHeader, cfg Config) ([]byte, error) {
	if src == nil {
		return nil, fmt.Errorf("xtf: nil file header")
	}
	if len(src.Channels) > maxChannels {
		return nil, fmt.Errorf("%w: %d channels", ErrCorruptHeader, len(src.Channels))
	}
	h := *src
	if h.FileFormat == 0 {
		h.FileFormat = FileFormatMagic
	}
	if h.ChannelCount() != len(h.Channels) {
		h.SyncChannelCounts()
	}
	order := cfg.order()

	buf := make([]byte, h.Size())
	if err := fileHeaderLayout.EncodeTo(buf, &h, order); err != nil {
		return nil, err
	}
	off := FileHeaderSize
	for i := range h.Channels {
		if err := channelInfoLayout.EncodeTo(buf[off:], &h.Channels[i], order); err != nil {
			return nil, fmt.Errorf("xtf: channel %d: %w", i, err)
		}
		off += ChannelInfoSize
	}
	if len(h.Padding) == len(buf)-off {
		copy(buf[off:], h.Padding)
	}
	return buf, nil
}

// Clone returns a deep copy of the header.
func (h *FileHeader) Clone() *FileHeader {
	out := *h
	out.Channels = append([]ChannelInfo(nil), h.Channels...)
	out.Padding = append([]byte(nil), h.Padding...)
	return &out
}
