package channel

import (
	"encoding/binary"
	"time"

	"github.com/samcharles93/xtfkit/pkg/segy"
	"github.com/samcharles93/xtfkit/pkg/xtf"
)

// Record is one ping of one channel (XTF) or one trace (SEG-Y), with its
// navigation metadata and raw samples.
type Record struct {
	Channel     int       `json:"channel"`
	Seq         int       `json:"seq"`
	Ping        uint32    `json:"ping"`
	Event       uint32    `json:"event"`
	Time        time.Time `json:"time"`
	SampleCount int       `json:"sample_count"`

	ShipSpeed     float32 `json:"ship_speed"`
	ShipX         float64 `json:"ship_x"`
	ShipY         float64 `json:"ship_y"`
	SensorSpeed   float32 `json:"sensor_speed"`
	SensorX       float64 `json:"sensor_x"`
	SensorY       float64 `json:"sensor_y"`
	SensorDepth   float32 `json:"sensor_depth"`
	SensorHeading float32 `json:"sensor_heading"`
	Layback       float32 `json:"layback"`
	CableOut      uint16  `json:"cable_out"`

	SlantRange     float32 `json:"slant_range"`
	TimeDelay      float32 `json:"time_delay"`    // seconds
	TimeDuration   float32 `json:"time_duration"` // seconds
	SecondsPerPing float32 `json:"seconds_per_ping"`
	// SampleInterval is in microseconds when known.
	SampleInterval float64 `json:"sample_interval_us"`

	// Raw holds SampleCount samples of Width bytes each.
	Raw      []byte `json:"-"`
	Width    int    `json:"-"`
	Unsigned bool   `json:"-"`

	// Exactly one of the sources is set.
	Source *xtf.PingChannel `json:"-"`
	Packet *xtf.Ping        `json:"-"`
	Trace  *segy.Trace      `json:"-"`

	order binary.ByteOrder
}

func fromPing(p *xtf.Ping, sec *xtf.PingChannel, order binary.ByteOrder) Record {
	info := &p.Info
	rec := Record{
		Channel:        int(sec.ChannelNumber),
		Ping:           info.PingNumber,
		Event:          info.EventNumber,
		Time:           info.Time(),
		SampleCount:    int(sec.NumSamples),
		ShipSpeed:      info.ShipSpeed,
		ShipX:          info.ShipXcoordinate,
		ShipY:          info.ShipYcoordinate,
		SensorSpeed:    info.SensorSpeed,
		SensorX:        info.SensorXcoordinate,
		SensorY:        info.SensorYcoordinate,
		SensorDepth:    info.SensorDepth,
		SensorHeading:  info.SensorHeading,
		Layback:        info.Layback,
		CableOut:       info.CableOut,
		SlantRange:     sec.SlantRange,
		TimeDelay:      sec.TimeDelay,
		TimeDuration:   sec.TimeDuration,
		SecondsPerPing: sec.SecondsPerPing,
		Raw:            sec.Samples,
		Width:          sec.Width,
		Unsigned:       sec.Unsigned,
		Source:         sec,
		Packet:         p,
		order:          order,
	}
	if sec.NumSamples > 0 && sec.TimeDuration > 0 {
		rec.SampleInterval = float64(sec.TimeDuration) * 1e6 / float64(sec.NumSamples)
	}
	return rec
}

func fromTrace(t *segy.Trace) Record {
	h := &t.Header
	rec := Record{
		Ping:           uint32(h.FieldRecord),
		Event:          uint32(h.EnergySourcePoint),
		SampleCount:    t.Len(),
		SampleInterval: float64(h.SampleInterval),
		TimeDelay:      float32(h.DelayRecordingTime) / 1000,
		SensorDepth:    float32(segy.ApplyScalar(h.SourceDepth, h.ElevationScalar)),
		SensorX:        coordinate(h.SourceX, h),
		SensorY:        coordinate(h.SourceY, h),
		Raw:            t.Samples,
		Width:          t.Format.Width(),
		Trace:          t,
		order:          t.Order,
	}
	if h.Year > 0 {
		rec.Time = time.Date(int(h.Year), time.January, 1, int(h.Hour), int(h.Minute), int(h.Second), 0, time.UTC).
			AddDate(0, 0, int(h.DayOfYear)-1)
	}
	rec.ShipX, rec.ShipY = rec.SensorX, rec.SensorY
	rec.TimeDuration = float32(rec.SampleInterval * float64(rec.SampleCount) / 1e6)
	return rec
}

// coordinate returns a scaled coordinate in degrees for arc-second units
// and in the stored unit otherwise.
func coordinate(v int32, h *segy.TraceHeader) float64 {
	c := segy.ApplyScalar(v, h.CoordinateScalar)
	if h.CoordinateUnits == 2 {
		return c / 3600
	}
	return c
}

// Values decodes the record samples to float64.
func (r *Record) Values() ([]float64, error) {
	if r.Trace != nil {
		return r.Trace.Values()
	}
	order := r.order
	if order == nil {
		order = binary.LittleEndian
	}
	return xtf.DecodeSamples(r.Raw, r.Width, r.Unsigned, order)
}
