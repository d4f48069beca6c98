package xtf

import (
	"time"

	"github.com/samcharles93/xtfkit/pkg/structcodec"
)

// PacketHeader is the 14-byte prologue shared by every packet.
type PacketHeader struct {
	MagicNumber        uint16
	HeaderType         uint8
	SubChannelNumber   uint8
	NumChansToFollow   uint16
	Reserved1          [4]byte
	NumBytesThisRecord uint32
}

// Type returns the packet type code.
func (h *PacketHeader) Type() HeaderType { return HeaderType(h.HeaderType) }

// Prologue returns the packet prologue. It lets every packet variant
// satisfy the Packet interface through embedding.
func (h *PacketHeader) Prologue() *PacketHeader { return h }

// Packet is one decoded XTF record. The concrete type is one of *Ping,
// *Notes, *Attitude, *Navigation or *Opaque.
type Packet interface {
	Prologue() *PacketHeader
}

// PingHeader is the XTFPINGHEADER body that follows the prologue of sonar
// packets.
type PingHeader struct {
	Year                  uint16
	Month                 uint8
	Day                   uint8
	Hour                  uint8
	Minute                uint8
	Second                uint8
	HSeconds              uint8
	JulianDay             uint16
	EventNumber           uint32
	PingNumber            uint32
	SoundVelocity         float32
	OceanTide             float32
	Reserved2             uint32
	ConductivityFreq      float32
	TemperatureFreq       float32
	PressureFreq          float32
	PressureTemp          float32
	Conductivity          float32
	WaterTemperature      float32
	Pressure              float32
	ComputedSoundVelocity float32
	MagX                  float32
	MagY                  float32
	MagZ                  float32
	AuxVal1               float32
	AuxVal2               float32
	AuxVal3               float32
	AuxVal4               float32
	AuxVal5               float32
	AuxVal6               float32
	SpeedLog              float32
	Turbidity             float32
	ShipSpeed             float32
	ShipGyro              float32
	ShipYcoordinate       float64
	ShipXcoordinate       float64
	ShipAltitude          uint16
	ShipDepth             uint16
	FixTimeHour           uint8
	FixTimeMinute         uint8
	FixTimeSecond         uint8
	FixTimeHsecond        uint8
	SensorSpeed           float32
	KP                    float32
	SensorYcoordinate     float64
	SensorXcoordinate     float64
	SonarStatus           uint16
	RangeToFish           uint16
	BearingToFish         uint16
	CableOut              uint16
	Layback               float32
	CableTension          float32
	SensorDepth           float32
	SensorPrimaryAltitude float32
	SensorAuxAltitude     float32
	SensorPitch           float32
	SensorRoll            float32
	SensorHeading         float32
	Heave                 float32
	Yaw                   float32
	AttitudeTimeTag       uint32
	DOT                   float32
	NavFixMilliseconds    uint32
	ComputerClockHour     uint8
	ComputerClockMinute   uint8
	ComputerClockSecond   uint8
	ComputerClockHsec     uint8
	FishPositionDeltaX    int16
	FishPositionDeltaY    int16
	FishPositionErrorCode uint8
	Reserved3             [11]byte
}

// Time returns the ping timestamp. XTF does not record a zone; UTC is
// assumed.
func (h *PingHeader) Time() time.Time {
	return time.Date(int(h.Year), time.Month(h.Month), int(h.Day),
		int(h.Hour), int(h.Minute), int(h.Second), int(h.HSeconds)*10*int(time.Millisecond), time.UTC)
}

// PingChannelHeader is the 64-byte XTFPINGCHANHEADER that precedes the
// samples of one channel inside a sonar packet.
type PingChannelHeader struct {
	ChannelNumber         uint16
	DownsampleMethod      uint16
	SlantRange            float32
	GroundRange           float32
	TimeDelay             float32
	TimeDuration          float32
	SecondsPerPing        float32
	ProcessingFlags       uint16
	Frequency             uint16
	InitialGainCode       uint16
	GainCode              uint16
	BandWidth             uint16
	ContactNumber         uint32
	ContactClassification uint16
	ContactSubNumber      uint8
	ContactType           int8
	NumSamples            uint32
	MillivoltScale        uint16
	ContactTimeOffTrack   float32
	ContactCloseNumber    uint8
	Reserved2             uint8
	FixedVSOP             float32
	Weight                int16
	Reserved              [4]byte
}

// PingChannel is one channel section of a sonar packet.
type PingChannel struct {
	PingChannelHeader

	// Width is the sample width in bytes and Unsigned the sample polarity,
	// both taken from the channel table.
	Width    int
	Unsigned bool

	// Samples holds NumSamples*Width raw bytes in the file byte order.
	Samples []byte
}

// Ping is a sonar (or hidden sonar) packet.
type Ping struct {
	PacketHeader
	Info     PingHeader
	Channels []PingChannel
	// Tail holds any bytes between the last channel section and the declared
	// end of the record.
	Tail []byte
}

// NotesBody is the body of an annotation packet.
type NotesBody struct {
	Year          uint16
	Month         uint8
	Day           uint8
	Hour          uint8
	Minute        uint8
	Second        uint8
	ReservedBytes [35]byte
	NotesText     string `bin:"len=200"`
}

// Notes is a text annotation packet.
type Notes struct {
	PacketHeader
	NotesBody
}

// Text returns the annotation without padding.
func (n *Notes) Text() string { return structcodec.TrimText(n.NotesText) }

// AttitudeBody is the body of an XTFATTITUDEDATA packet.
type AttitudeBody struct {
	Reserved2         [8]byte
	EpochMicroseconds uint32
	SourceEpoch       uint32
	Pitch             float32
	Roll              float32
	Heave             float32
	Yaw               float32
	TimeTag           uint32
	Heading           float32
	Year              uint16
	Month             uint8
	Day               uint8
	Hour              uint8
	Minutes           uint8
	Seconds           uint8
	Milliseconds      uint16
	Reserved3         uint8
}

// Attitude is a motion reference packet (pitch, roll, heave, yaw).
type Attitude struct {
	PacketHeader
	AttitudeBody
}

// NavigationBody is the body of an XTFPOSRAWNAVIGATION packet.
type NavigationBody struct {
	Year           uint16
	Month          uint8
	Day            uint8
	Hour           uint8
	Minutes        uint8
	Seconds        uint8
	MicroSeconds   uint16
	RawYcoordinate float64
	RawXcoordinate float64
	RawAltitude    float64
	Pitch          float32
	Roll           float32
	Heave          float32
	Heading        float32
	Reserved2      uint8
}

// Navigation is a raw position packet.
type Navigation struct {
	PacketHeader
	NavigationBody
}

// Opaque is a packet whose type has no registered codec, or whose body
// failed to decode. The payload is retained verbatim.
type Opaque struct {
	PacketHeader
	Payload []byte
	// Err is the decode failure, nil for unregistered types.
	Err error
}

var (
	packetHeaderLayout      = structcodec.MustLayout(PacketHeader{})
	pingHeaderLayout        = structcodec.MustLayout(PingHeader{})
	pingChannelHeaderLayout = structcodec.MustLayout(PingChannelHeader{})
	notesLayout             = structcodec.MustLayout(NotesBody{})
	attitudeLayout          = structcodec.MustLayout(AttitudeBody{})
	navigationLayout        = structcodec.MustLayout(NavigationBody{})
)
