package channel

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/samcharles93/xtfkit/pkg/xtf"
)

// Stats summarizes the sample amplitudes of a channel.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`

	m2 float64
}

// Add folds one record's samples into the running statistics. Batches are
// combined with the pairwise update of Chan et al.
func (s *Stats) Add(values []float64) {
	if len(values) == 0 {
		return
	}
	mean, variance := stat.MeanVariance(values, nil)
	lo, hi := floats.Min(values), floats.Max(values)
	nb := float64(len(values))
	m2b := variance * (nb - 1)
	if len(values) == 1 {
		m2b = 0
	}

	if s.Count == 0 {
		s.Count, s.Mean, s.m2, s.Min, s.Max = len(values), mean, m2b, lo, hi
	} else {
		na := float64(s.Count)
		n := na + nb
		delta := mean - s.Mean
		s.Mean += delta * nb / n
		s.m2 += m2b + delta*delta*na*nb/n
		s.Count += len(values)
		s.Min = math.Min(s.Min, lo)
		s.Max = math.Max(s.Max, hi)
	}
	if s.Count > 1 {
		s.StdDev = math.Sqrt(s.m2 / float64(s.Count-1))
	}
}

// ChannelSummary is the per-channel result of a scan.
type ChannelSummary struct {
	Descriptor
	Packets    int   `json:"packets"`
	MinSamples int   `json:"min_samples"`
	MaxSamples int   `json:"max_samples"`
	Stats      Stats `json:"stats"`
}

// ScanResult is the outcome of a full pass over a file.
type ScanResult struct {
	Format   Format           `json:"format"`
	Size     int64            `json:"size"`
	Packets  int              `json:"packets"`
	Types    map[string]int   `json:"packet_types"`
	Channels []ChannelSummary `json:"channels"`
	Warnings []string         `json:"warnings,omitempty"`
}

// ScanOptions controls a scan.
type ScanOptions struct {
	// Amplitudes enables sample statistics; counts are always collected.
	Amplitudes bool
}

// Scan makes one pass over the file collecting per-channel packet counts,
// sample count bounds and, optionally, amplitude statistics.
func (h *FileHandle) Scan(ctx context.Context, opts ScanOptions) (*ScanResult, error) {
	res := &ScanResult{Format: h.format, Size: h.size, Types: map[string]int{}}
	for _, d := range h.channels {
		res.Channels = append(res.Channels, ChannelSummary{Descriptor: d, MinSamples: -1})
	}

	add := func(rec Record) error {
		if rec.Channel < 0 || rec.Channel >= len(res.Channels) {
			return nil
		}
		cs := &res.Channels[rec.Channel]
		cs.Packets++
		if cs.MinSamples < 0 || rec.SampleCount < cs.MinSamples {
			cs.MinSamples = rec.SampleCount
		}
		cs.MaxSamples = max(cs.MaxSamples, rec.SampleCount)
		if opts.Amplitudes {
			values, err := rec.Values()
			if err != nil {
				return err
			}
			cs.Stats.Add(values)
		}
		return nil
	}

	switch h.format {
	case FormatXTF:
		if h.xf == nil {
			return nil, errors.New("channel: file is closed")
		}
		order := h.xf.Config().Order()
		r := h.xf.Reader()
		for p, err := range r.Packets() {
			if err != nil {
				return nil, err
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res.Packets++
			res.Types[p.Prologue().Type().String()]++
			ping, ok := p.(*xtf.Ping)
			if !ok {
				continue
			}
			for i := range ping.Channels {
				if err := add(fromPing(ping, &ping.Channels[i], order)); err != nil {
					return nil, err
				}
			}
		}
		for _, w := range r.Warnings() {
			res.Warnings = append(res.Warnings, w.Error())
		}
	default:
		for rec, err := range h.ReadPackets(0) {
			if err != nil {
				return nil, err
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res.Packets++
			res.Types["trace"]++
			if err := add(rec); err != nil {
				return nil, err
			}
		}
	}

	for i := range res.Channels {
		if res.Channels[i].MinSamples < 0 {
			res.Channels[i].MinSamples = 0
		}
	}
	return res, nil
}
