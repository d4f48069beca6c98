package channel

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/samcharles93/xtfkit/internal/toy"
	"github.com/samcharles93/xtfkit/pkg/segy"
	"github.com/samcharles93/xtfkit/pkg/xtf"
)

func writeSurvey(t *testing.T, s toy.Survey) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "survey.xtf")
	if err := s.WriteFile(path); err != nil {
		t.Fatalf("write survey: %v", err)
	}
	return path
}

func openHandle(t *testing.T, path string) *FileHandle {
	t.Helper()
	h, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestListChannelsXTF(t *testing.T) {
	t.Parallel()

	s := toy.Default()
	s.Channels = append(s.Channels, toy.Channel{Name: "Port", Type: xtf.ChannelPort, Width: 1, Unsigned: true, Samples: 16})
	h := openHandle(t, writeSurvey(t, s))

	if h.Format() != FormatXTF {
		t.Fatalf("format: %s", h.Format())
	}
	descs := h.ListChannels()
	got := make([]string, len(descs))
	for i, d := range descs {
		got[i] = d.Name + "/" + d.Type + "/" + d.Encoding
	}
	want := []string{"SB-LF/subbottom/int16", "SB-HF/subbottom/int16", "Port/port/uint8"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("channels (-want +got):\n%s", diff)
	}
	if !descs[2].SideScan {
		t.Fatalf("port channel should be side-scan")
	}
}

func TestReadPacketsRestartable(t *testing.T) {
	t.Parallel()

	s := toy.Default()
	s.NoteEvery = 2
	h := openHandle(t, writeSurvey(t, s))

	for pass := 0; pass < 2; pass++ {
		var pings []uint32
		for rec, err := range h.ReadPackets(1) {
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if rec.Channel != 1 || rec.SampleCount != 48 || len(rec.Raw) != 96 {
				t.Fatalf("record: channel=%d samples=%d raw=%d", rec.Channel, rec.SampleCount, len(rec.Raw))
			}
			pings = append(pings, rec.Ping)
		}
		if diff := cmp.Diff([]uint32{1000, 1001, 1002, 1003, 1004}, pings); diff != "" {
			t.Fatalf("pass %d pings (-want +got):\n%s", pass, diff)
		}
	}

	for _, err := range h.ReadPackets(7) {
		if !errors.Is(err, ErrNoChannel) {
			t.Fatalf("got %v want ErrNoChannel", err)
		}
	}
}

func TestRecordValuesAndInterval(t *testing.T) {
	t.Parallel()

	h := openHandle(t, writeSurvey(t, toy.Default()))
	for rec, err := range h.ReadPackets(0) {
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		values, err := rec.Values()
		if err != nil {
			t.Fatalf("values: %v", err)
		}
		if len(values) != 64 {
			t.Fatalf("values: %d", len(values))
		}
		if want := float64(int16(binary.LittleEndian.Uint16(rec.Raw))); values[0] != want {
			t.Fatalf("first sample: got %v want %v", values[0], want)
		}
		if math.Abs(rec.SampleInterval-20) > 1e-3 {
			t.Fatalf("sample interval: %v", rec.SampleInterval)
		}
		break
	}
}

func TestScan(t *testing.T) {
	t.Parallel()

	s := toy.Default()
	s.Lengths = map[int][]int{0: {100, 150, 120}}
	s.Pings = 3
	s.AttitudeEvery = 1
	h := openHandle(t, writeSurvey(t, s))

	res, err := h.Scan(context.Background(), ScanOptions{Amplitudes: true})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Packets != 9 || res.Types["sonar"] != 6 || res.Types["attitude"] != 3 {
		t.Fatalf("packets: %d types=%v", res.Packets, res.Types)
	}
	c0 := res.Channels[0]
	if c0.Packets != 3 || c0.MinSamples != 100 || c0.MaxSamples != 150 {
		t.Fatalf("channel 0: %+v", c0)
	}
	if c0.Stats.Count != 370 {
		t.Fatalf("sample count: %d", c0.Stats.Count)
	}
	if c0.Stats.Min < math.MinInt16 || c0.Stats.Max > math.MaxInt16 || c0.Stats.Min > c0.Stats.Max {
		t.Fatalf("bounds: %+v", c0.Stats)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.Scan(ctx, ScanOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled scan: got %v", err)
	}
}

func TestStatsMatchesSinglePass(t *testing.T) {
	t.Parallel()

	all := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	var s Stats
	s.Add(all[:3])
	s.Add(all[3:4])
	s.Add(all[4:])
	if s.Count != 10 || s.Mean != 5.5 || s.Min != 1 || s.Max != 10 {
		t.Fatalf("stats: %+v", s)
	}
	// Sample standard deviation of 1..10.
	if math.Abs(s.StdDev-3.0276503540974917) > 1e-12 {
		t.Fatalf("std dev: %v", s.StdDev)
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	descs := []Descriptor{{Index: 0, Name: "SB-LF"}, {Index: 1, Name: "SB-HF"}, {Index: 2, Name: "Port"}, {Index: 3, Name: "Stbd"}}
	tests := []struct {
		name   string
		tokens []string
		want   []int
	}{
		{"indices", []string{"3", "1"}, []int{1, 3}},
		{"names", []string{"port", "SB-lf"}, []int{0, 2}},
		{"mixed with duplicates", []string{"2", "PORT", "9"}, []int{2}},
		{"all", nil, []int{0, 1, 2, 3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Select(descs, tc.tokens)
			if err != nil {
				t.Fatalf("select: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("(-want +got):\n%s", diff)
			}
		})
	}

	if _, err := Select(descs, []string{"9", "missing"}); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("got %v want ErrEmptySelection", err)
	}
	if _, err := Select(nil, nil); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("no channels: got %v", err)
	}
}

func TestOpenSEGY(t *testing.T) {
	t.Parallel()

	text, err := segy.NewTextHeader("C 1 TEST", segy.EncodingEBCDIC)
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	hdr := segy.Headers{Text: text, Binary: segy.BinaryHeader{
		SampleInterval: 50, SamplesPerTrace: 3, DataSampleFormat: int16(segy.FormatIEEE), Revision: 0x0100,
	}}
	var buf bytes.Buffer
	w, err := segy.NewWriter(&buf, hdr, segy.DefaultConfig())
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	for i := 0; i < 4; i++ {
		th := segy.TraceHeader{FieldRecord: int32(10 + i), SampleInterval: 50, CoordinateScalar: -100, CoordinateUnits: 2,
			SourceX: -70 * 3600 * 100, SourceY: 41 * 3600 * 100}
		tr, err := segy.NewTrace(th, []float64{1, float64(i), 3}, segy.FormatIEEE, binary.BigEndian)
		if err != nil {
			t.Fatalf("trace: %v", err)
		}
		if err := w.WriteTrace(tr); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	path := filepath.Join(t.TempDir(), "line.sgy")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	h := openHandle(t, path)
	if h.Format() != FormatSEGY || len(h.ListChannels()) != 1 || h.ListChannels()[0].Encoding != "ieee" {
		t.Fatalf("descriptor: %+v", h.ListChannels())
	}
	var pings []uint32
	for rec, err := range h.ReadPackets(0) {
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if rec.SensorX != -70 || rec.SensorY != 41 {
			t.Fatalf("coordinates: %v %v", rec.SensorX, rec.SensorY)
		}
		pings = append(pings, rec.Ping)
	}
	if diff := cmp.Diff([]uint32{10, 11, 12, 13}, pings); diff != "" {
		t.Fatalf("pings (-want +got):\n%s", diff)
	}

	res, err := h.Scan(context.Background(), ScanOptions{Amplitudes: true})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Channels[0].Packets != 4 || res.Channels[0].Stats.Max != 3 {
		t.Fatalf("scan: %+v", res.Channels[0])
	}
}

func TestOpenUnknownFormat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name string
		data []byte
	}{
		{"text", []byte("not a survey file")},
		{"empty", nil},
	}
	for _, tc := range tests {
		path := filepath.Join(dir, tc.name+".bin")
		if err := os.WriteFile(path, tc.data, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		_, err := Open(path)
		if !errors.Is(err, ErrUnknownFormat) {
			t.Fatalf("%s: got %v want ErrUnknownFormat", tc.name, err)
		}
		if !errors.Is(err, xtf.ErrBadMagic) {
			t.Fatalf("%s: got %v want xtf.ErrBadMagic", tc.name, err)
		}
	}
}
