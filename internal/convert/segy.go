package convert

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/samcharles93/xtfkit/internal/channel"
	"github.com/samcharles93/xtfkit/internal/logger"
	"github.com/samcharles93/xtfkit/internal/version"
	"github.com/samcharles93/xtfkit/pkg/segy"
	"github.com/samcharles93/xtfkit/pkg/xtf"
)

// navUnitsLatLong is the XTF NavUnits value for geographic coordinates.
const navUnitsLatLong = 3

// segyJob converts XTF pings (or SEG-Y traces) into a SEG-Y file with one
// trace per ping and selected channel, in packet arrival order.
type segyJob struct {
	*plan
	in       *channel.FileHandle
	selected []int
	log      logger.Logger

	lengths  map[int]int // output samples per trace, by channel
	interval uint16      // microseconds, for the binary header
	geo      bool
}

// prepare is the pre-scan pass: it fixes the trace length of every
// selected channel before anything is written.
func (j *segyJob) prepare(ctx context.Context, sum *Summary) error {
	sum.SampleFormat = j.format.String()
	j.lengths = map[int]int{}

	if j.in.Format() == channel.FormatSEGY {
		return nil
	}

	xf := j.in.XTF()
	j.geo = xf.Header.NavUnits == navUnitsLatLong
	descs := j.in.ListChannels()
	for _, ch := range j.selected {
		if descs[ch].SideScan {
			sum.warn("channel %d (%s) is side-scan; samples are written as raw amplitudes", ch, descs[ch].Name)
		}
	}

	lo := map[int]int{}
	hi := map[int]int{}
	r := xf.Reader()
	for p, err := range r.Packets() {
		if err != nil {
			return err
		}
		if err := cancelled(ctx); err != nil {
			return err
		}
		ping, ok := p.(*xtf.Ping)
		if !ok {
			continue
		}
		for i := range ping.Channels {
			sec := &ping.Channels[i]
			ch := int(sec.ChannelNumber)
			if !slices.Contains(j.selected, ch) {
				continue
			}
			n := int(sec.NumSamples)
			if cur, seen := lo[ch]; !seen || n < cur {
				lo[ch] = n
			}
			hi[ch] = max(hi[ch], n)
			if j.interval == 0 && n > 0 && sec.TimeDuration > 0 {
				j.interval = intervalMicros(sec.TimeDuration, n)
			}
		}
	}

	for _, ch := range j.selected {
		if _, seen := hi[ch]; !seen {
			sum.warn("channel %d has no pings", ch)
			continue
		}
		n := hi[ch]
		if j.pad == PadTruncate {
			n = lo[ch]
		}
		if n > math.MaxUint16 {
			return fmt.Errorf("%w: channel %d has %d samples per ping, SEG-Y allows %d",
				ErrUnsupportedConversion, ch, n, math.MaxUint16)
		}
		j.lengths[ch] = n
	}
	sum.TraceLengths = j.lengths
	return nil
}

func (j *segyJob) textHeader() (*segy.TextHeader, error) {
	text := j.Options.TextHeader
	if text == "" {
		cards := []string{
			"CONVERTED FROM " + strings.ToUpper(string(j.in.Format())),
			"SOURCE " + j.Input,
			fmt.Sprintf("CHANNELS %v", j.selected),
			fmt.Sprintf("SAMPLE FORMAT %s PAD POLICY %s", strings.ToUpper(j.format.String()), strings.ToUpper(string(j.pad))),
			"COORDINATES METRES SCALAR -100",
			"XTFKIT " + version.String(),
		}
		if j.geo {
			cards[4] = "COORDINATES ARC SECONDS SCALAR -100"
		}
		var b strings.Builder
		for i := 1; i <= 40; i++ {
			switch {
			case i <= len(cards):
				fmt.Fprintf(&b, "C%2d %s\n", i, cards[i-1])
			case i == 40:
				b.WriteString("C40 END TEXTUAL HEADER")
			default:
				fmt.Fprintf(&b, "C%2d\n", i)
			}
		}
		text = b.String()
	}
	return segy.NewTextHeader(text, j.encoding)
}

func (j *segyJob) binaryHeader() segy.BinaryHeader {
	bin := segy.BinaryHeader{
		DataTracesPerEnsemble: 1,
		SampleInterval:        j.interval,
		DataSampleFormat:      int16(j.format),
		TraceSorting:          1,
		MeasurementSystem:     1,
		Revision:              0x0100,
	}
	var fixed = true
	var longest, first int = 0, -1
	for _, n := range j.lengths {
		if first < 0 {
			first = n
		}
		fixed = fixed && n == first
		longest = max(longest, n)
	}
	bin.SamplesPerTrace = uint16(longest)
	bin.SamplesPerTraceOriginal = uint16(longest)
	if fixed {
		bin.FixedLengthTraces = 1
	}
	return bin
}

func (j *segyJob) write(ctx context.Context, w io.Writer, sum *Summary) error {
	if j.in.Format() == channel.FormatSEGY {
		return j.reencode(ctx, w, sum)
	}

	text, err := j.textHeader()
	if err != nil {
		return err
	}
	sw, err := segy.NewWriter(w, segy.Headers{Text: text, Binary: j.binaryHeader()}, segy.DefaultConfig())
	if err != nil {
		return err
	}

	xf := j.in.XTF()
	order := xf.Config().Order()
	prog := newProgress(j.log, xf.Size())
	r := xf.Reader()
	seq := 0
	for p, err := range r.Packets() {
		if err != nil {
			return err
		}
		if err := cancelled(ctx); err != nil {
			return err
		}
		sum.PacketsRead++
		prog.tick(sum.PacketsRead, r.Offset())

		ping, ok := p.(*xtf.Ping)
		if !ok {
			sum.PacketsDropped++
			continue
		}
		wrote := false
		for i := range ping.Channels {
			sec := &ping.Channels[i]
			ch := int(sec.ChannelNumber)
			n, ok := j.lengths[ch]
			if !ok {
				continue
			}
			values, err := sec.Values(order)
			if err != nil {
				return fmt.Errorf("convert: ping %d channel %d: %w", ping.Info.PingNumber, ch, err)
			}
			switch {
			case len(values) < n:
				values = append(values, make([]float64, n-len(values))...)
				sum.Padded++
			case len(values) > n:
				values = values[:n]
				sum.Truncated++
			}
			seq++
			tr, err := segy.NewTrace(j.traceHeader(seq, ping, sec), values, j.format, binary.BigEndian)
			if err != nil {
				return err
			}
			if err := sw.WriteTrace(tr); err != nil {
				return err
			}
			wrote = true
		}
		if wrote {
			sum.PacketsWritten++
		} else {
			sum.PacketsDropped++
		}
	}
	for _, w := range r.Warnings() {
		sum.warn("%v", w)
	}
	return sw.Flush()
}

// traceHeader maps ping metadata onto a SEG-Y trace header.
func (j *segyJob) traceHeader(seq int, ping *xtf.Ping, sec *xtf.PingChannel) segy.TraceHeader {
	info := &ping.Info
	h := segy.TraceHeader{
		TraceSequenceLine:       int32(seq),
		TraceSequenceFile:       int32(seq),
		FieldRecord:             int32(info.PingNumber),
		TraceNumber:             int32(sec.ChannelNumber) + 1,
		EnergySourcePoint:       int32(info.PingNumber),
		TraceIdentificationCode: 1,
		DataUse:                 1,
		ElevationScalar:         -100,
		CoordinateScalar:        -100,
		SourceDepth:             segy.Scaled(float64(info.SensorDepth), -100),
		DelayRecordingTime:      int16(clamp(math.Round(float64(sec.TimeDelay)*1000), math.MinInt16, math.MaxInt16)),
		SampleInterval:          intervalMicros(sec.TimeDuration, int(sec.NumSamples)),
		GainType:                1,
		Year:                    int16(info.Year),
		Hour:                    int16(info.Hour),
		Minute:                  int16(info.Minute),
		Second:                  int16(info.Second),
		TimeBasisCode:           4,
		ShotPoint:               int32(info.PingNumber),
		ShotPointScalar:         1,
	}
	if info.Year > 0 {
		h.DayOfYear = int16(info.Time().YearDay())
	}

	x, y := info.SensorXcoordinate, info.SensorYcoordinate
	if x == 0 && y == 0 {
		x, y = info.ShipXcoordinate, info.ShipYcoordinate
	}
	if j.geo {
		h.CoordinateUnits = 2
		x, y = x*3600, y*3600
	} else {
		h.CoordinateUnits = 1
	}
	h.SourceX, h.SourceY = segy.Scaled(x, -100), segy.Scaled(y, -100)
	h.GroupX, h.GroupY = h.SourceX, h.SourceY
	return h
}

// reencode copies a SEG-Y file, converting its samples to the requested
// format. Text and binary headers are kept unless a text header is given.
func (j *segyJob) reencode(ctx context.Context, w io.Writer, sum *Summary) error {
	src := j.in.SEGYHeaders()
	hdr := segy.Headers{Text: src.Text, Binary: src.Binary, Extended: src.Extended}
	hdr.Binary.DataSampleFormat = int16(j.format)
	if j.Options.TextHeader != "" {
		text, err := j.textHeader()
		if err != nil {
			return err
		}
		hdr.Text = text
	}
	sw, err := segy.NewWriter(w, hdr, segy.DefaultConfig())
	if err != nil {
		return err
	}
	prog := newProgress(j.log, j.in.Size())
	for rec, err := range j.in.ReadPackets(0) {
		if err != nil {
			return err
		}
		if err := cancelled(ctx); err != nil {
			return err
		}
		sum.PacketsRead++
		prog.tick(sum.PacketsRead, 0)
		if err := sw.WriteTrace(rec.Trace); err != nil {
			return err
		}
		sum.PacketsWritten++
	}
	return sw.Flush()
}

func intervalMicros(duration float32, samples int) uint16 {
	if samples <= 0 || duration <= 0 {
		return 0
	}
	return uint16(clamp(math.Round(float64(duration)*1e6/float64(samples)), 0, math.MaxUint16))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
