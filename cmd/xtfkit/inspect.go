package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"maps"
	"os"
	"reflect"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/xtfkit/internal/channel"
	"github.com/samcharles93/xtfkit/pkg/segy"
	"github.com/samcharles93/xtfkit/pkg/structcodec"
	"github.com/samcharles93/xtfkit/pkg/xtf"
)

var (
	xtfFileHeaderLayout = structcodec.MustLayout(xtf.FileHeader{})
	xtfChannelLayout    = structcodec.MustLayout(xtf.PingChannelHeader{})
	segyBinaryLayout    = segy.BinaryHeaderLayout()
	segyTraceLayout     = segy.TraceHeaderLayout()
)

// fieldValue is one non-zero header field.
type fieldValue struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type packetReport struct {
	Index   int                     `json:"index"`
	Type    string                  `json:"type"`
	Size    int                     `json:"size,omitempty"`
	Ping    uint32                  `json:"ping,omitempty"`
	Note    string                  `json:"note,omitempty"`
	Error   string                  `json:"error,omitempty"`
	Fields  []fieldValue            `json:"fields,omitempty"`
	Samples map[string]int          `json:"samples,omitempty"`
	Channel map[string][]fieldValue `json:"channel_headers,omitempty"`
}

type inspectReport struct {
	Path       string              `json:"path"`
	Format     channel.Format      `json:"format"`
	Size       int64               `json:"size"`
	Header     []fieldValue        `json:"header"`
	TextHeader []string            `json:"text_header,omitempty"`
	ByteOrder  string              `json:"byte_order,omitempty"`
	Scan       *channel.ScanResult `json:"scan"`
	Packets    []packetReport      `json:"packets,omitempty"`
}

func inspectCmd() *cli.Command {
	var (
		jsonOut    bool
		packets    int
		amplitudes bool
		fields     bool
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the header, channel table and per-channel statistics of an XTF or SEG-Y file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the report as JSON", Destination: &jsonOut},
			&cli.IntFlag{Name: "packets", Aliases: []string{"n"}, Usage: "dump the first N packets (traces for SEG-Y)", Destination: &packets},
			&cli.BoolFlag{Name: "stats", Usage: "compute sample amplitude statistics (reads every sample)", Destination: &amplitudes},
			&cli.BoolFlag{Name: "fields", Usage: "include every non-zero header field of dumped packets", Destination: &fields},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return cli.Exit("error: inspect needs a file argument", 1)
			}
			h, err := channel.Open(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = h.Close() }()

			rep, err := buildReport(ctx, h, packets, amplitudes, fields)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if jsonOut {
				return printJSON(rep)
			}
			printReport(rep, amplitudes)
			return nil
		},
	}
}

func buildReport(ctx context.Context, h *channel.FileHandle, packets int, amplitudes, fields bool) (*inspectReport, error) {
	rep := &inspectReport{Path: h.Path(), Format: h.Format(), Size: h.Size()}

	switch h.Format() {
	case channel.FormatXTF:
		hdr := h.XTF().Header
		rep.Header = nonZero(xtfFileHeaderLayout, hdr)
		if packets > 0 {
			rep.Packets = xtfPackets(h.XTF(), packets, fields)
		}
	case channel.FormatSEGY:
		hdr := h.SEGYHeaders()
		rep.Header = nonZero(segyBinaryLayout, &hdr.Binary)
		rep.TextHeader = trimCards(hdr.Text.Lines())
		if packets > 0 {
			var err error
			if rep.Packets, rep.ByteOrder, err = segyTraces(h.Path(), packets, fields); err != nil {
				return nil, err
			}
		}
	}

	scan, err := h.Scan(ctx, channel.ScanOptions{Amplitudes: amplitudes})
	if err != nil {
		return nil, err
	}
	rep.Scan = scan
	return rep, nil
}

func xtfPackets(f *xtf.File, limit int, fields bool) []packetReport {
	var out []packetReport
	for p, err := range f.Packets() {
		if err != nil || len(out) == limit {
			break
		}
		pro := p.Prologue()
		pr := packetReport{Index: len(out), Type: pro.Type().String(), Size: int(pro.NumBytesThisRecord)}
		switch v := p.(type) {
		case *xtf.Ping:
			pr.Ping = v.Info.PingNumber
			pr.Samples = map[string]int{}
			for i := range v.Channels {
				sec := &v.Channels[i]
				key := fmt.Sprint(sec.ChannelNumber)
				pr.Samples[key] = int(sec.NumSamples)
				if fields {
					if pr.Channel == nil {
						pr.Channel = map[string][]fieldValue{}
					}
					pr.Channel[key] = nonZero(xtfChannelLayout, &sec.PingChannelHeader)
				}
			}
			if fields {
				if l, ok := xtf.BodyLayout(pro.Type()); ok {
					pr.Fields = nonZero(l, &v.Info)
				}
			}
		case *xtf.Notes:
			pr.Note = v.Text()
		case *xtf.Attitude:
			if fields {
				if l, ok := xtf.BodyLayout(pro.Type()); ok {
					pr.Fields = nonZero(l, &v.AttitudeBody)
				}
			}
		case *xtf.Navigation:
			if fields {
				if l, ok := xtf.BodyLayout(pro.Type()); ok {
					pr.Fields = nonZero(l, &v.NavigationBody)
				}
			}
		case *xtf.Opaque:
			if v.Err != nil {
				pr.Error = v.Err.Error()
			}
		}
		out = append(out, pr)
	}
	return out
}

func segyTraces(path string, limit int, fields bool) ([]packetReport, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = f.Close() }()

	r, err := segy.NewReader(f, segy.Config{})
	if err != nil {
		return nil, "", err
	}
	var out []packetReport
	for t, err := range r.Traces() {
		if err != nil {
			return nil, "", err
		}
		if len(out) == limit {
			break
		}
		pr := packetReport{
			Index:   len(out),
			Type:    "trace",
			Size:    segy.TraceHeaderSize + len(t.Samples),
			Ping:    uint32(t.Header.FieldRecord),
			Samples: map[string]int{"0": t.Len()},
		}
		if fields {
			pr.Fields = nonZero(segyTraceLayout, &t.Header)
		}
		out = append(out, pr)
	}
	return out, r.ByteOrder().String(), nil
}

// nonZero lists the fields of v that hold a non-zero value.
func nonZero(l *structcodec.Layout, v any) []fieldValue {
	vals, err := l.Values(v)
	if err != nil {
		return nil
	}
	var out []fieldValue
	for _, fv := range vals {
		switch fv.Kind {
		case structcodec.KindBytes:
			b := fv.Value.([]byte)
			if !slices.ContainsFunc(b, func(c byte) bool { return c != 0 }) {
				continue
			}
			out = append(out, fieldValue{fv.Name, hex.EncodeToString(b)})
		case structcodec.KindText:
			s := structcodec.TrimText(fv.Value.(string))
			if s == "" {
				continue
			}
			out = append(out, fieldValue{fv.Name, s})
		default:
			if reflect.ValueOf(fv.Value).IsZero() {
				continue
			}
			out = append(out, fieldValue{fv.Name, fv.Value})
		}
	}
	return out
}

func trimCards(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, strings.TrimRight(l, " "))
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func printReport(rep *inspectReport, amplitudes bool) {
	scan := rep.Scan
	fmt.Printf("File: %s (%s, %s)\n", rep.Path, strings.ToUpper(string(rep.Format)), humanize.IBytes(uint64(rep.Size)))
	if len(rep.TextHeader) > 0 {
		fmt.Println("\nTextual header")
		for _, l := range rep.TextHeader {
			fmt.Printf("  %s\n", l)
		}
	}

	fmt.Println("\nHeader")
	for _, f := range rep.Header {
		fmt.Printf("  %-32s %v\n", f.Name, f.Value)
	}

	fmt.Printf("\nPackets: %s\n", humanize.Comma(int64(scan.Packets)))
	for _, t := range slices.Sorted(maps.Keys(scan.Types)) {
		fmt.Printf("  %-16s %s\n", t, humanize.Comma(int64(scan.Types[t])))
	}

	fmt.Println("\nChannels")
	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	header := "  #\tNAME\tTYPE\tENCODING\tPACKETS\tSAMPLES"
	if amplitudes {
		header += "\tMEAN\tSTD\tMIN\tMAX"
	}
	_, _ = fmt.Fprintln(tw, header)
	for _, c := range scan.Channels {
		samples := fmt.Sprintf("%d", c.MinSamples)
		if c.MaxSamples != c.MinSamples {
			samples = fmt.Sprintf("%d-%d", c.MinSamples, c.MaxSamples)
		}
		line := fmt.Sprintf("  %d\t%s\t%s\t%s\t%s\t%s", c.Index, c.Name, c.Type, c.Encoding, humanize.Comma(int64(c.Packets)), samples)
		if amplitudes {
			line += fmt.Sprintf("\t%.2f\t%.2f\t%g\t%g", c.Stats.Mean, c.Stats.StdDev, c.Stats.Min, c.Stats.Max)
		}
		_, _ = fmt.Fprintln(tw, line)
	}
	_ = tw.Flush()

	if len(rep.Packets) > 0 {
		fmt.Println("\nFirst packets")
		for _, p := range rep.Packets {
			fmt.Printf("  [%d] %s size=%d", p.Index, p.Type, p.Size)
			if p.Ping != 0 {
				fmt.Printf(" ping=%d", p.Ping)
			}
			if len(p.Samples) > 0 {
				fmt.Printf(" samples=%v", p.Samples)
			}
			if p.Note != "" {
				fmt.Printf(" note=%q", p.Note)
			}
			if p.Error != "" {
				fmt.Printf(" error=%q", p.Error)
			}
			fmt.Println()
			for _, f := range p.Fields {
				fmt.Printf("      %-28s %v\n", f.Name, f.Value)
			}
			for _, ch := range slices.Sorted(maps.Keys(p.Channel)) {
				fmt.Printf("      channel %s\n", ch)
				for _, f := range p.Channel[ch] {
					fmt.Printf("        %-26s %v\n", f.Name, f.Value)
				}
			}
		}
	}

	for _, w := range scan.Warnings {
		fmt.Printf("\nwarning: %s", w)
	}
	if len(scan.Warnings) > 0 {
		fmt.Println()
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: encode json: %v", err), 1)
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
