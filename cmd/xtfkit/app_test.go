package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/xtfkit/internal/channel"
)

// testApp returns the root command with exit handling disabled so that
// cli.Exit errors come back to the test instead of ending the process.
func testApp() *cli.Command {
	app := newApp()
	app.ExitErrHandler = func(context.Context, *cli.Command, error) {}
	return app
}

func runApp(t *testing.T, cfg string, args ...string) error {
	t.Helper()
	return testApp().Run(context.Background(), append([]string{"xtfkit", "--config", cfg, "--log-level", "error"}, args...))
}

func TestSynthConvertRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfg, []byte("sample_format: int16\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	survey := filepath.Join(dir, "line.xtf")

	if err := runApp(t, cfg, "synth", "--out", survey, "--pings", "4", "--channels", "3", "--samples", "32"); err != nil {
		t.Fatalf("synth: %v", err)
	}
	if err := runApp(t, cfg, "synth", "--out", survey); err == nil {
		t.Fatal("synth over an existing file succeeded")
	}

	if err := runApp(t, cfg, "convert", "--in", survey, "--channel", "1"); err != nil {
		t.Fatalf("convert: %v", err)
	}
	sgy := filepath.Join(dir, "line.sgy")
	h, err := channel.Open(sgy)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer func() { _ = h.Close() }()
	if got := h.SEGYHeaders().Binary.SamplesPerTrace; got != 32 {
		t.Fatalf("samples per trace: got %d", got)
	}
	// sample_format from the config file applies when --format is unset.
	if got := h.SEGYHeaders().Binary.DataSampleFormat; got != 3 {
		t.Fatalf("sample format code: got %d want 3", got)
	}

	if err := runApp(t, cfg, "convert", "--in", survey, "--to", "xtf", "-c", "0,2"); err != nil {
		t.Fatalf("subset: %v", err)
	}
	sub, err := channel.Open(filepath.Join(dir, "line-subset.xtf"))
	if err != nil {
		t.Fatalf("open subset: %v", err)
	}
	defer func() { _ = sub.Close() }()
	if n := len(sub.ListChannels()); n != 2 {
		t.Fatalf("subset channels: got %d", n)
	}
}

func TestUnknownLogLevel(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfg, nil, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	err := testApp().Run(context.Background(), []string{"xtfkit", "--config", cfg, "--log-level", "loud", "version"})
	if err == nil {
		t.Fatal("expected error for unknown log level")
	}
}
