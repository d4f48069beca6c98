package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samcharles93/xtfkit/internal/convert"
)

var targetExt = map[convert.Target]string{
	convert.TargetSEGY: ".sgy",
	convert.TargetXTF:  ".xtf",
	convert.TargetCSV:  ".csv",
}

// resolveOutput returns the --out path, or derives one beside the input by
// swapping its extension. A subset written next to its own input gets a
// "-subset" suffix so it never collides with the input file.
func resolveOutput(in, out string, target convert.Target) (string, error) {
	if out = strings.TrimSpace(out); out != "" {
		return filepath.Clean(out), nil
	}
	in = filepath.Clean(strings.TrimSpace(in))
	base := filepath.Base(in)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid input path: %q", in)
	}
	ext, ok := targetExt[target]
	if !ok {
		return "", fmt.Errorf("unknown target %q", target)
	}
	stem := strings.TrimSuffix(in, filepath.Ext(in))
	if strings.EqualFold(filepath.Ext(in), ext) {
		stem += "-subset"
	}
	return stem + ext, nil
}
