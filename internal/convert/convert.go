// Package convert turns XTF recordings into SEG-Y files, XTF channel
// subsets or CSV ping summaries.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/xtfkit/internal/channel"
	"github.com/samcharles93/xtfkit/internal/logger"
	"github.com/samcharles93/xtfkit/pkg/segy"
)

var (
	ErrEmptySelection        = channel.ErrEmptySelection
	ErrUnsupportedEncoding   = segy.ErrUnsupportedEncoding
	ErrCancelled             = errors.New("convert: cancelled")
	ErrOutputExists          = errors.New("convert: output file exists")
	ErrUnsupportedConversion = errors.New("convert: unsupported conversion")
	ErrInvalidRequest        = errors.New("convert: invalid request")
)

// Target is the output format of a conversion.
type Target string

const (
	TargetSEGY Target = "segy"
	TargetXTF  Target = "xtf"
	TargetCSV  Target = "csv"
)

// PadPolicy decides how pings of irregular length become fixed-length
// traces.
type PadPolicy string

const (
	// PadZero extends every trace of a channel to its longest ping,
	// zero-filling the tail.
	PadZero PadPolicy = "zero"
	// PadTruncate cuts every trace of a channel to its shortest ping.
	PadTruncate PadPolicy = "truncate"
)

// Options tunes a conversion. Zero values select the defaults.
type Options struct {
	// SampleFormat is the SEG-Y sample encoding: ieee (default), ibm,
	// int32, int16 or int8.
	SampleFormat string    `json:"sample_format,omitempty" yaml:"sample_format,omitempty"`
	PadPolicy    PadPolicy `json:"pad_policy,omitempty" yaml:"pad_policy,omitempty"`
	// TextEncoding is the SEG-Y textual header encoding: ebcdic (default)
	// or ascii.
	TextEncoding string `json:"text_encoding,omitempty" yaml:"text_encoding,omitempty"`
	// TextHeader replaces the generated textual header card images.
	TextHeader string `json:"text_header,omitempty" yaml:"text_header,omitempty"`
	Overwrite  bool   `json:"overwrite,omitempty" yaml:"overwrite,omitempty"`
}

// Request describes one conversion.
type Request struct {
	Input    string   `json:"input"`
	Output   string   `json:"output"`
	Target   Target   `json:"target"`
	Channels []string `json:"channels,omitempty"`
	Options  Options  `json:"options"`
}

// Summary reports the outcome of a conversion.
type Summary struct {
	RunID    string `json:"run_id"`
	Input    string `json:"input"`
	Output   string `json:"output"`
	Target   Target `json:"target"`
	Channels []int  `json:"channels"`

	PacketsRead    int `json:"packets_read"`
	PacketsWritten int `json:"packets_written"`
	PacketsDropped int `json:"packets_dropped"`
	// Padded and Truncated count traces whose samples were extended or cut.
	Padded    int `json:"padded,omitempty"`
	Truncated int `json:"truncated,omitempty"`
	// TraceLengths maps channel index to output samples per trace.
	TraceLengths map[int]int `json:"trace_lengths,omitempty"`
	SampleFormat string      `json:"sample_format,omitempty"`

	BytesWritten int64         `json:"bytes_written"`
	Warnings     []string      `json:"warnings,omitempty"`
	Duration     time.Duration `json:"duration"`
}

func (s *Summary) warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// plan is a validated request.
type plan struct {
	Request
	format   segy.SampleFormat
	encoding segy.TextEncoding
	pad      PadPolicy
}

func validate(req Request) (*plan, error) {
	p := &plan{Request: req, pad: req.Options.PadPolicy}
	if req.Input == "" || req.Output == "" {
		return nil, fmt.Errorf("%w: input and output are required", ErrInvalidRequest)
	}
	switch req.Target {
	case TargetSEGY, TargetXTF, TargetCSV:
	default:
		return nil, fmt.Errorf("%w: target %q", ErrUnsupportedConversion, req.Target)
	}
	switch p.pad {
	case "":
		p.pad = PadZero
	case PadZero, PadTruncate:
	default:
		return nil, fmt.Errorf("%w: pad policy %q", ErrInvalidRequest, p.pad)
	}
	var err error
	if p.format, err = segy.ParseSampleFormat(req.Options.SampleFormat); err != nil {
		return nil, err
	}
	if p.encoding, err = segy.ParseTextEncoding(req.Options.TextEncoding); err != nil {
		return nil, err
	}
	return p, nil
}

// Convert runs one conversion. Selection and encoding problems are reported
// before any output exists. The output is written beside its destination
// under a temporary name and renamed into place on success; on failure or
// cancellation the partial file is removed.
func Convert(ctx context.Context, req Request) (*Summary, error) {
	p, err := validate(req)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := logger.FromContext(ctx).With("run_id", runID, "input", req.Input, "target", string(req.Target))
	start := time.Now()

	in, err := channel.Open(req.Input)
	if err != nil {
		return nil, err
	}
	defer func() { _ = in.Close() }()

	selected, err := channel.Select(in.ListChannels(), req.Channels)
	if err != nil {
		return nil, err
	}

	var j job
	switch {
	case req.Target == TargetSEGY:
		j = &segyJob{plan: p, in: in, selected: selected, log: log}
	case req.Target == TargetXTF && in.Format() == channel.FormatXTF:
		j = &subsetJob{in: in, selected: selected, log: log}
	case req.Target == TargetCSV:
		j = &csvJob{in: in, selected: selected, log: log}
	default:
		return nil, fmt.Errorf("%w: %s to %s", ErrUnsupportedConversion, in.Format(), req.Target)
	}

	if !req.Options.Overwrite {
		if _, err := os.Stat(req.Output); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrOutputExists, req.Output)
		}
	}

	sum := &Summary{
		RunID:    runID,
		Input:    req.Input,
		Output:   req.Output,
		Target:   req.Target,
		Channels: selected,
	}
	if err := j.prepare(ctx, sum); err != nil {
		return nil, err
	}
	log.Info("conversion started", "output", req.Output, "channels", selected)

	out, err := createOutput(req.Output, runID)
	if err != nil {
		return nil, err
	}
	if err := j.write(ctx, out, sum); err != nil {
		if cerr := out.abort(); cerr != nil {
			log.Warn("partial output cleanup failed", "error", cerr)
		}
		if ctx.Err() != nil && !errors.Is(err, ErrCancelled) {
			err = fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		log.Error("conversion failed", "error", err)
		return nil, err
	}
	n, err := out.commit()
	if err != nil {
		return nil, err
	}

	sum.BytesWritten = n
	sum.Duration = time.Since(start)
	for _, w := range sum.Warnings {
		log.Warn(w)
	}
	log.Info("conversion finished",
		"packets_read", sum.PacketsRead,
		"packets_written", sum.PacketsWritten,
		"bytes", n,
		"duration", sum.Duration)
	return sum, nil
}

// job is one kind of conversion. prepare runs before the output file is
// created and may reject the request; write streams the result.
type job interface {
	prepare(ctx context.Context, sum *Summary) error
	write(ctx context.Context, w io.Writer, sum *Summary) error
}

// cancelled reports ctx cancellation as ErrCancelled.
func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}
