package convert

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/samcharles93/xtfkit/internal/logger"
)

// output is a file being written under a temporary name beside its final
// destination.
type output struct {
	f    *os.File
	w    *bufio.Writer
	tmp  string
	dest string
}

func createOutput(dest, runID string) (*output, error) {
	dir, base := filepath.Split(dest)
	if dir == "" {
		dir = "."
	}
	tmp := filepath.Join(dir, "."+base+"."+runID+".tmp")
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &output{f: f, w: bufio.NewWriterSize(f, 256*1024), tmp: tmp, dest: dest}, nil
}

func (o *output) Write(p []byte) (int, error) { return o.w.Write(p) }

// commit flushes, syncs and renames the file into place. It returns the
// final size.
func (o *output) commit() (int64, error) {
	err := o.w.Flush()
	err = multierr.Append(err, o.f.Sync())
	var size int64
	if st, serr := o.f.Stat(); serr == nil {
		size = st.Size()
	}
	err = multierr.Append(err, o.f.Close())
	if err == nil {
		err = os.Rename(o.tmp, o.dest)
	}
	if err != nil {
		return 0, multierr.Append(fmt.Errorf("convert: finish %s: %w", o.dest, err), os.Remove(o.tmp))
	}
	return size, nil
}

// abort closes and removes the temporary file.
func (o *output) abort() error {
	return multierr.Combine(o.f.Close(), os.Remove(o.tmp))
}

// progress logs conversion progress at most once per second.
type progress struct {
	log   logger.Logger
	every rate.Sometimes
	total int64
}

func newProgress(log logger.Logger, total int64) *progress {
	return &progress{log: log, every: rate.Sometimes{Interval: time.Second}, total: total}
}

func (p *progress) tick(packets int, offset int64) {
	p.every.Do(func() {
		args := []any{"packets", packets}
		if p.total > 0 {
			args = append(args, "percent", fmt.Sprintf("%.1f", float64(offset)*100/float64(p.total)))
		}
		p.log.Info("converting", args...)
	})
}
