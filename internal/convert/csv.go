package convert

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/samcharles93/xtfkit/internal/channel"
	"github.com/samcharles93/xtfkit/internal/logger"
)

// csvColumns is the header row of a ping summary export.
var csvColumns = []string{
	"Channel number", "Ping date", "Ping time", "Last event number", "Ping number",
	"Ship speed", "Ship longitude", "Ship latitude",
	"Sensor speed", "Sensor longitude", "Sensor latitude", "Sensor heading",
	"Layback", "Cable out", "Slant range", "Time delay", "Seconds per ping", "Num samples",
}

// ExportCSV writes one ';'-separated row of ping summary fields per record
// of the selected channels.
func ExportCSV(ctx context.Context, input, output string, channels []string) (*Summary, error) {
	return Convert(ctx, Request{Input: input, Output: output, Target: TargetCSV, Channels: channels})
}

type csvJob struct {
	in       *channel.FileHandle
	selected []int
	log      logger.Logger
}

func (j *csvJob) prepare(ctx context.Context, sum *Summary) error {
	return cancelled(ctx)
}

func (j *csvJob) write(ctx context.Context, w io.Writer, sum *Summary) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(csvColumns); err != nil {
		return err
	}

	prog := newProgress(j.log, 0)
	for _, ch := range j.selected {
		for rec, err := range j.in.ReadPackets(ch) {
			if err != nil {
				return err
			}
			if err := cancelled(ctx); err != nil {
				return err
			}
			sum.PacketsRead++
			prog.tick(sum.PacketsRead, 0)
			if err := cw.Write(csvRow(&rec)); err != nil {
				return err
			}
			sum.PacketsWritten++
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(r *channel.Record) []string {
	t := r.Time
	f32 := func(v float32) string { return strconv.FormatFloat(float64(v), 'g', -1, 32) }
	f64 := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return []string{
		strconv.Itoa(r.Channel),
		fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day()),
		fmt.Sprintf("%02d:%02d.%02d", t.Minute(), t.Second(), t.Nanosecond()/10_000_000),
		strconv.FormatUint(uint64(r.Event), 10),
		strconv.FormatUint(uint64(r.Ping), 10),
		f32(r.ShipSpeed),
		f64(r.ShipX),
		f64(r.ShipY),
		f32(r.SensorSpeed),
		f64(r.SensorX),
		f64(r.SensorY),
		f32(r.SensorHeading),
		f32(r.Layback),
		strconv.Itoa(int(r.CableOut)),
		f32(r.SlantRange),
		f32(r.TimeDelay),
		f32(r.SecondsPerPing),
		strconv.Itoa(r.SampleCount),
	}
}
