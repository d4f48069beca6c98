package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/xtfkit/internal/logger"
	"github.com/samcharles93/xtfkit/internal/toy"
	"github.com/samcharles93/xtfkit/pkg/xtf"
)

func synthCmd() *cli.Command {
	var (
		out       string
		pings     int64
		channels  int64
		samples   int64
		width     int64
		seed      int64
		combined  bool
		sideScan  bool
		noteEvery int64
		attEvery  int64
		overwrite bool
	)

	return &cli.Command{
		Name:  "synth",
		Usage: "Write a deterministic synthetic XTF survey for testing",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output XTF path", Required: true, Destination: &out},
			&cli.Int64Flag{Name: "pings", Usage: "number of pings", Value: 100, Destination: &pings},
			&cli.Int64Flag{Name: "channels", Usage: "number of channels", Value: 2, Destination: &channels},
			&cli.Int64Flag{Name: "samples", Usage: "samples per channel per ping", Value: 1024, Destination: &samples},
			&cli.Int64Flag{Name: "width", Usage: "bytes per sample (1, 2 or 4)", Value: 2, Destination: &width},
			&cli.Int64Flag{Name: "seed", Usage: "random seed for sample data", Value: 7, Destination: &seed},
			&cli.BoolFlag{Name: "combined", Usage: "pack every channel of a ping into one packet", Destination: &combined},
			&cli.BoolFlag{Name: "side-scan", Usage: "declare port/starboard side-scan channels instead of subbottom", Destination: &sideScan},
			&cli.Int64Flag{Name: "notes-every", Usage: "insert a notes packet after every N pings", Destination: &noteEvery},
			&cli.Int64Flag{Name: "attitude-every", Usage: "insert an attitude packet after every N pings", Destination: &attEvery},
			&cli.BoolFlag{Name: "overwrite", Aliases: []string{"f"}, Usage: "replace an existing output file", Destination: &overwrite},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			switch {
			case channels < 1 || channels > 6:
				return cli.Exit("error: --channels must be between 1 and 6", 1)
			case pings < 0:
				return cli.Exit("error: --pings must not be negative", 1)
			case samples < 1 || samples > 1<<20:
				return cli.Exit("error: --samples must be between 1 and 1048576", 1)
			case width != 1 && width != 2 && width != 4:
				return cli.Exit("error: --width must be 1, 2 or 4", 1)
			}
			if !overwrite {
				if _, err := os.Stat(out); err == nil {
					return cli.Exit(fmt.Sprintf("error: %s already exists (use --overwrite)", out), 1)
				}
			}

			s := toy.Survey{
				Pings:         int(pings),
				Seed:          uint64(seed),
				Combined:      combined,
				NoteEvery:     int(noteEvery),
				AttitudeEvery: int(attEvery),
			}
			for i := range int(channels) {
				c := toy.Channel{Name: fmt.Sprintf("CH%d", i+1), Type: xtf.ChannelSubbottom, Width: int(width), Samples: int(samples)}
				if sideScan {
					c.Type = xtf.ChannelPort
					if i%2 == 1 {
						c.Type = xtf.ChannelStarboard
					}
				}
				s.Channels = append(s.Channels, c)
			}

			if err := s.WriteFile(out); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			st, err := os.Stat(out)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			log.Info("wrote synthetic survey",
				"path", out,
				"pings", pings,
				"channels", channels,
				"size", humanize.IBytes(uint64(st.Size())),
			)
			return nil
		},
	}
}
