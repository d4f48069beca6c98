package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/xtfkit/internal/convert"
)

func convertCmd() *cli.Command {
	var (
		in, out  string
		target   string
		channels []string
		opts     convert.Options
		pad      string
		jsonOut  bool
	)

	return &cli.Command{
		Name:  "convert",
		Usage: "Convert XTF channels to SEG-Y, or copy a channel subset to a new XTF file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "input XTF or SEG-Y file", Required: true, Destination: &in},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default: beside the input)", Destination: &out},
			&cli.StringFlag{Name: "to", Usage: "output format (segy, xtf)", Value: "segy", Destination: &target},
			channelFlag(&channels),
			&cli.StringFlag{Name: "format", Usage: "SEG-Y sample format (ieee, ibm, int32, int16, int8)", Value: "ieee", Destination: &opts.SampleFormat},
			&cli.StringFlag{Name: "pad", Usage: "irregular ping lengths: zero-pad to the longest or truncate to the shortest (zero, truncate)", Value: "zero", Destination: &pad},
			&cli.StringFlag{Name: "text-encoding", Usage: "SEG-Y textual header encoding (ebcdic, ascii)", Value: "ebcdic", Destination: &opts.TextEncoding},
			&cli.StringFlag{Name: "text-header", Usage: "file with replacement textual header card images", TakesFile: true},
			&cli.BoolFlag{Name: "overwrite", Aliases: []string{"f"}, Usage: "replace an existing output file", Destination: &opts.Overwrite},
			&cli.BoolFlag{Name: "json", Usage: "print the summary as JSON", Destination: &jsonOut},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts.PadPolicy = convert.PadPolicy(pad)
			applyConvertConfig(cmd, fileConfig, &opts)
			if path := cmd.String("text-header"); path != "" {
				text, err := readTextHeader(path)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				opts.TextHeader = text
			}
			return runConvert(ctx, convert.Target(target), in, out, channels, opts, jsonOut)
		},
	}
}

func exportCSVCmd() *cli.Command {
	var (
		in, out  string
		channels []string
		force    bool
		jsonOut  bool
	)

	return &cli.Command{
		Name:  "export-csv",
		Usage: "Write a ';'-separated summary row per ping of the selected channels",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "input XTF or SEG-Y file", Required: true, Destination: &in},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output CSV file (default: beside the input)", Destination: &out},
			channelFlag(&channels),
			&cli.BoolFlag{Name: "overwrite", Aliases: []string{"f"}, Usage: "replace an existing output file", Destination: &force},
			&cli.BoolFlag{Name: "json", Usage: "print the summary as JSON", Destination: &jsonOut},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if fileConfig.Overwrite != nil && !cmd.IsSet("overwrite") {
				force = *fileConfig.Overwrite
			}
			return runConvert(ctx, convert.TargetCSV, in, out, channels, convert.Options{Overwrite: force}, jsonOut)
		},
	}
}

func runConvert(ctx context.Context, target convert.Target, in, out string, channels []string, opts convert.Options, jsonOut bool) error {
	out, err := resolveOutput(in, out, target)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	sum, err := convert.Convert(ctx, convert.Request{
		Input:    in,
		Output:   out,
		Target:   target,
		Channels: channels,
		Options:  opts,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	if jsonOut {
		return printJSON(sum)
	}

	fmt.Printf("wrote %s (%s)\n", sum.Output, humanize.Bytes(uint64(sum.BytesWritten)))
	fmt.Printf("  channels:  %v\n", sum.Channels)
	fmt.Printf("  packets:   %s read, %s written, %s dropped\n",
		humanize.Comma(int64(sum.PacketsRead)), humanize.Comma(int64(sum.PacketsWritten)), humanize.Comma(int64(sum.PacketsDropped)))
	if sum.SampleFormat != "" {
		fmt.Printf("  format:    %s\n", sum.SampleFormat)
	}
	for _, ch := range slices.Sorted(maps.Keys(sum.TraceLengths)) {
		fmt.Printf("  channel %d: %d samples per trace\n", ch, sum.TraceLengths[ch])
	}
	if sum.Padded > 0 || sum.Truncated > 0 {
		fmt.Printf("  traces:    %d zero-padded, %d truncated\n", sum.Padded, sum.Truncated)
	}
	for _, w := range sum.Warnings {
		fmt.Printf("  warning:   %s\n", w)
	}
	fmt.Printf("  run:       %s in %s\n", sum.RunID, sum.Duration.Round(time.Millisecond))
	return nil
}

// readTextHeader loads replacement card images for the SEG-Y textual header.
func readTextHeader(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text header: %w", err)
	}
	return string(data), nil
}
