package segy

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	textLines   = 40
	textColumns = 80
)

// TextEncoding is the character set of a textual header.
type TextEncoding uint8

const (
	EncodingEBCDIC TextEncoding = iota
	EncodingASCII
)

func (e TextEncoding) String() string {
	if e == EncodingASCII {
		return "ascii"
	}
	return "ebcdic"
}

// ParseTextEncoding maps "ebcdic" or "ascii" to an encoding. The empty
// string selects EBCDIC.
func ParseTextEncoding(s string) (TextEncoding, error) {
	switch strings.ToLower(s) {
	case "", "ebcdic":
		return EncodingEBCDIC, nil
	case "ascii":
		return EncodingASCII, nil
	default:
		return 0, fmt.Errorf("%w: text encoding %q", ErrUnsupportedEncoding, s)
	}
}

// TextHeader is the 3200-byte textual file header. Raw holds the bytes as
// stored; the encoding is detected on read.
type TextHeader struct {
	Raw      [TextHeaderSize]byte
	Encoding TextEncoding
}

// DetectTextEncoding guesses the character set of a textual header from
// its leading "C" card marker, falling back to ASCII printability of the
// first line.
func DetectTextEncoding(raw []byte) TextEncoding {
	if len(raw) == 0 {
		return EncodingEBCDIC
	}
	switch raw[0] {
	case 0xC3:
		return EncodingEBCDIC
	case 'C':
		return EncodingASCII
	}
	n := min(len(raw), textColumns)
	for _, b := range raw[:n] {
		if (b < 0x20 || b > 0x7E) && b != 0 {
			return EncodingEBCDIC
		}
	}
	return EncodingASCII
}

// ParseTextHeader wraps raw header bytes.
func ParseTextHeader(raw []byte) (*TextHeader, error) {
	if len(raw) < TextHeaderSize {
		return nil, fmt.Errorf("%w: textual header of %d bytes", ErrTruncatedFile, len(raw))
	}
	h := &TextHeader{Encoding: DetectTextEncoding(raw)}
	copy(h.Raw[:], raw)
	return h, nil
}

// NewTextHeader builds a textual header from newline separated text. Each
// line is padded or cut to 80 columns and the header to 40 lines.
// Characters the encoding cannot represent are replaced.
func NewTextHeader(text string, enc TextEncoding) (*TextHeader, error) {
	var sb strings.Builder
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i := 0; i < textLines; i++ {
		var line string
		if i < len(lines) {
			line = strings.TrimRight(lines[i], "\r")
		}
		runes := []rune(line)
		if len(runes) > textColumns {
			runes = runes[:textColumns]
		}
		sb.WriteString(string(runes))
		sb.WriteString(strings.Repeat(" ", textColumns-len(runes)))
	}

	var raw []byte
	switch enc {
	case EncodingASCII:
		raw = []byte(strings.Map(func(r rune) rune {
			if r > 0x7E || (r < 0x20 && r != 0) {
				return '?'
			}
			return r
		}, sb.String()))
	default:
		var err error
		raw, err = encoding.ReplaceUnsupported(charmap.CodePage037.NewEncoder()).Bytes([]byte(sb.String()))
		if err != nil {
			return nil, fmt.Errorf("segy: encode textual header: %w", err)
		}
	}
	if len(raw) != TextHeaderSize {
		return nil, fmt.Errorf("segy: textual header encodes to %d bytes", len(raw))
	}
	h := &TextHeader{Encoding: enc}
	copy(h.Raw[:], raw)
	return h, nil
}

// Text returns the decoded header as one string of 3200 characters.
func (h *TextHeader) Text() string {
	if h.Encoding == EncodingASCII {
		return string(h.Raw[:])
	}
	out, err := charmap.CodePage037.NewDecoder().Bytes(h.Raw[:])
	if err != nil {
		return string(h.Raw[:])
	}
	return string(out)
}

// Lines returns the 40 card images with trailing blanks removed.
func (h *TextHeader) Lines() []string {
	runes := []rune(h.Text())
	out := make([]string, 0, textLines)
	for i := 0; i+textColumns <= len(runes) && len(out) < textLines; i += textColumns {
		out = append(out, strings.TrimRight(string(runes[i:i+textColumns]), " \x00"))
	}
	return out
}
