package xtf

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"

	"golang.org/x/sys/unix"
)

// File is an XTF file mapped read-only into memory. Readers created from it
// copy packet payloads, so packets stay valid after Close.
type File struct {
	Data   []byte
	Header *FileHeader

	cfg     Config
	block   int
	mmapped bool
}

// Open maps an XTF file with the default configuration.
func Open(path string) (*File, error) {
	return OpenConfig(path, DefaultConfig())
}

// OpenConfig maps an XTF file read-only and parses its header block.
// If mmap is unavailable, it falls back to ReadAt-based loading.
// The returned file must be closed to release any mapping.
func OpenConfig(path string, cfg Config) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: file of %d bytes cannot be mapped", ErrCorruptHeader, size64)
	}
	size := int(size64)
	if size < FileHeaderSize {
		return nil, fmt.Errorf("%w: file shorter than header", ErrBadMagic)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		xf, parseErr := parseFile(data, cfg, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		return xf, nil
	}

	data = make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, size64), data); err != nil {
		return nil, err
	}
	return parseFile(data, cfg, false)
}

// Parse wraps an in-memory XTF image.
func Parse(data []byte, cfg Config) (*File, error) {
	return parseFile(data, cfg, false)
}

func parseFile(data []byte, cfg Config, mmapped bool) (*File, error) {
	hdr, n, err := ReadFileHeader(bytes.NewReader(data), cfg)
	if err != nil {
		return nil, err
	}
	return &File{Data: data, Header: hdr, cfg: cfg, block: n, mmapped: mmapped}, nil
}

// Size returns the file length in bytes.
func (f *File) Size() int64 { return int64(len(f.Data)) }

// Config returns the configuration the file was opened with.
func (f *File) Config() Config { return f.cfg }

// Reader returns a new reader positioned at the first packet. Each call
// starts an independent pass over the file.
func (f *File) Reader() *Reader {
	br := bufio.NewReaderSize(bytes.NewReader(f.Data[f.block:]), 64*1024)
	return newPacketReader(br, f.Header, f.cfg, int64(f.block))
}

// Packets iterates over every packet of the file in a fresh pass.
func (f *File) Packets() iter.Seq2[Packet, error] {
	return f.Reader().Packets()
}

// Close releases the mapping.
func (f *File) Close() error {
	if f == nil || f.Data == nil {
		return nil
	}
	var err error
	if f.mmapped {
		err = unix.Munmap(f.Data)
	}
	f.Data = nil
	f.mmapped = false
	return err
}
