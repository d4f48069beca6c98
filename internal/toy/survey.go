// Package toy builds small deterministic XTF surveys used for testing and
// benchmarking the codecs and the conversion engine.
package toy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/samcharles93/xtfkit/pkg/xtf"
)

// Channel describes one channel of a toy survey.
type Channel struct {
	Name     string
	Type     xtf.ChannelType
	Width    int // bytes per sample: 1, 2 or 4
	Unsigned bool
	Samples  int
}

// Survey is a synthetic recording. Pings are emitted in order; each ping
// produces one sonar packet per channel unless Combined is set, in which
// case all channels share a single packet.
type Survey struct {
	Channels []Channel
	Pings    int
	Seed     uint64

	// Combined packs all channel sections of a ping into one packet.
	Combined bool
	// NoteEvery and AttitudeEvery interleave annotation and attitude
	// packets after every n-th ping. Zero disables them.
	NoteEvery     int
	AttitudeEvery int
	// Lengths overrides the sample count per ping for channel i when set,
	// cycling through the slice.
	Lengths map[int][]int
}

// Default returns a two-channel subbottom survey with 16-bit samples.
func Default() Survey {
	return Survey{
		Channels: []Channel{
			{Name: "SB-LF", Type: xtf.ChannelSubbottom, Width: 2, Samples: 64},
			{Name: "SB-HF", Type: xtf.ChannelSubbottom, Width: 2, Samples: 48},
		},
		Pings: 5,
		Seed:  7,
	}
}

// Header returns the file header for the survey.
func (s Survey) Header() *xtf.FileHeader {
	h := &xtf.FileHeader{
		FileFormat:              xtf.FileFormatMagic,
		SystemType:              1,
		RecordingProgramName:    "toy",
		RecordingProgramVersion: "1.0",
		SonarName:               "toy sonar",
		NoteString:              fmt.Sprintf("seed %d", s.Seed),
		ThisFileName:            "toy.xtf",
		NavUnits:                3,
	}
	for _, c := range s.Channels {
		var uni uint16
		if c.Unsigned {
			uni = 1
		}
		h.Channels = append(h.Channels, xtf.ChannelInfo{
			TypeOfChannel:   uint8(c.Type),
			CorrectionFlags: 1,
			UniPolar:        uni,
			BytesPerSample:  uint16(c.Width),
			ChannelName:     c.Name,
			Frequency:       3.5,
		})
	}
	h.SyncChannelCounts()
	return h
}

func (s Survey) samplesFor(ch, ping int) int {
	if ls, ok := s.Lengths[ch]; ok && len(ls) > 0 {
		return ls[ping%len(ls)]
	}
	return s.Channels[ch].Samples
}

// Packets returns the survey packets in file order.
func (s Survey) Packets() []xtf.Packet {
	rng := rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))
	order := binary.LittleEndian

	var out []xtf.Packet
	for ping := 0; ping < s.Pings; ping++ {
		info := xtf.PingHeader{
			Year: 2024, Month: 3, Day: 14,
			Hour: 10, Minute: uint8(ping / 60 % 60), Second: uint8(ping % 60),
			HSeconds:          uint8(ping * 7 % 100),
			PingNumber:        uint32(1000 + ping),
			EventNumber:       uint32(ping / 10),
			ShipSpeed:         4.2,
			ShipXcoordinate:   -70.5 + float64(ping)*1e-5,
			ShipYcoordinate:   41.25 + float64(ping)*1e-5,
			SensorXcoordinate: -70.5 + float64(ping)*1e-5,
			SensorYcoordinate: 41.2499 + float64(ping)*1e-5,
			SensorDepth:       12.5,
			SensorHeading:     90,
			Layback:           15,
			CableOut:          20,
		}

		var sections []xtf.PingChannel
		for ci, c := range s.Channels {
			n := s.samplesFor(ci, ping)
			raw := make([]byte, n*c.Width)
			for i := 0; i < n; i++ {
				v := rng.Uint32()
				switch c.Width {
				case 1:
					raw[i] = byte(v)
				case 2:
					order.PutUint16(raw[i*2:], uint16(v))
				default:
					order.PutUint32(raw[i*4:], v)
				}
			}
			sections = append(sections, xtf.PingChannel{
				PingChannelHeader: xtf.PingChannelHeader{
					ChannelNumber:  uint16(ci),
					SlantRange:     50,
					TimeDelay:      0.001,
					TimeDuration:   float32(n) * 20e-6,
					SecondsPerPing: 0.25,
					Frequency:      3500,
					NumSamples:     uint32(n),
				},
				Width:    c.Width,
				Unsigned: c.Unsigned,
				Samples:  raw,
			})
		}

		if s.Combined {
			out = append(out, &xtf.Ping{
				PacketHeader: xtf.PacketHeader{HeaderType: uint8(xtf.HeaderSonar)},
				Info:         info,
				Channels:     sections,
			})
		} else {
			for _, sec := range sections {
				out = append(out, &xtf.Ping{
					PacketHeader: xtf.PacketHeader{HeaderType: uint8(xtf.HeaderSonar), SubChannelNumber: uint8(sec.ChannelNumber)},
					Info:         info,
					Channels:     []xtf.PingChannel{sec},
				})
			}
		}

		if s.NoteEvery > 0 && (ping+1)%s.NoteEvery == 0 {
			out = append(out, &xtf.Notes{
				PacketHeader: xtf.PacketHeader{HeaderType: uint8(xtf.HeaderNotes)},
				NotesBody: xtf.NotesBody{
					Year: 2024, Month: 3, Day: 14, Hour: 10,
					NotesText: fmt.Sprintf("line mark %d", ping+1),
				},
			})
		}
		if s.AttitudeEvery > 0 && (ping+1)%s.AttitudeEvery == 0 {
			out = append(out, &xtf.Attitude{
				PacketHeader: xtf.PacketHeader{HeaderType: uint8(xtf.HeaderAttitude)},
				AttitudeBody: xtf.AttitudeBody{
					Pitch: 0.5, Roll: -1.25, Heave: 0.1, Heading: 90,
					Year: 2024, Month: 3, Day: 14, Hour: 10,
				},
			})
		}
	}
	return out
}

// Encode serializes the survey as an XTF image.
func (s Survey) Encode() ([]byte, error) {
	var buf bytes.Buffer
	w, err := xtf.NewWriter(&buf, s.Header(), xtf.DefaultConfig())
	if err != nil {
		return nil, err
	}
	for i, p := range s.Packets() {
		if err := w.WritePacket(p); err != nil {
			return nil, fmt.Errorf("toy: packet %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the survey to path.
func (s Survey) WriteFile(path string) error {
	data, err := s.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
