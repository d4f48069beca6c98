package convert

import (
	"context"
	"io"
	"slices"

	"github.com/samcharles93/xtfkit/internal/channel"
	"github.com/samcharles93/xtfkit/internal/logger"
	"github.com/samcharles93/xtfkit/pkg/xtf"
)

// subsetJob copies an XTF file keeping only the selected channels. Channel
// numbers are renumbered densely in selection order. Auxiliary packets pass
// through untouched; opaque sonar packets are kept only when they belong to
// a single selected channel.
type subsetJob struct {
	in       *channel.FileHandle
	selected []int
	log      logger.Logger

	remap map[int]int
}

func (j *subsetJob) prepare(ctx context.Context, sum *Summary) error {
	j.remap = make(map[int]int, len(j.selected))
	for i, ch := range j.selected {
		j.remap[ch] = i
	}
	return cancelled(ctx)
}

// header builds the output file header from the selected channel table
// entries.
func (j *subsetJob) header() *xtf.FileHeader {
	src := j.in.XTF().Header
	hdr := src.Clone()
	hdr.Channels = hdr.Channels[:0]
	for _, ch := range j.selected {
		hdr.Channels = append(hdr.Channels, src.Channels[ch])
	}
	hdr.Padding = nil
	hdr.SyncChannelCounts()
	return hdr
}

func (j *subsetJob) write(ctx context.Context, w io.Writer, sum *Summary) error {
	xf := j.in.XTF()
	xw, err := xtf.NewWriter(w, j.header(), xf.Config())
	if err != nil {
		return err
	}

	prog := newProgress(j.log, xf.Size())
	r := xf.Reader()
	for p, err := range r.Packets() {
		if err != nil {
			return err
		}
		if err := cancelled(ctx); err != nil {
			return err
		}
		sum.PacketsRead++
		prog.tick(sum.PacketsRead, r.Offset())

		switch v := p.(type) {
		case *xtf.Ping:
			fp := j.filter(v)
			if fp == nil {
				sum.PacketsDropped++
				continue
			}
			p = fp
		case *xtf.Opaque:
			op := j.filterOpaque(v)
			if op == nil {
				sum.PacketsDropped++
				continue
			}
			p = op
		}
		if err := xw.WritePacket(p); err != nil {
			return err
		}
		sum.PacketsWritten++
	}
	for _, w := range r.Warnings() {
		sum.warn("%v", w)
	}
	return xw.Flush()
}

// filter returns ping with only the selected channel sections, renumbered,
// or nil when none remain.
func (j *subsetJob) filter(ping *xtf.Ping) *xtf.Ping {
	out := *ping
	out.Channels = slices.DeleteFunc(slices.Clone(ping.Channels), func(c xtf.PingChannel) bool {
		_, ok := j.remap[int(c.ChannelNumber)]
		return !ok
	})
	if len(out.Channels) == 0 {
		return nil
	}
	for i := range out.Channels {
		out.Channels[i].ChannelNumber = uint16(j.remap[int(out.Channels[i].ChannelNumber)])
	}
	out.SubChannelNumber = uint8(out.Channels[0].ChannelNumber)
	out.NumChansToFollow = uint16(len(out.Channels))
	return &out
}

// filterOpaque handles packets kept undecoded. Sonar payloads still name
// their channel through SubChannelNumber but their sections cannot be
// rewritten, so a sonar packet survives only when it covers one selected
// channel; its sub channel is renumbered. Other opaque types carry no
// channel reference and pass through.
func (j *subsetJob) filterOpaque(op *xtf.Opaque) *xtf.Opaque {
	switch op.Type() {
	case xtf.HeaderSonar, xtf.HeaderHiddenSonar:
	default:
		return op
	}
	if op.NumChansToFollow > 1 {
		return nil
	}
	idx, ok := j.remap[int(op.SubChannelNumber)]
	if !ok {
		return nil
	}
	out := *op
	out.SubChannelNumber = uint8(idx)
	return &out
}
