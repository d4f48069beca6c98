package channel

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Select resolves channel tokens to sorted, unique channel indices. A token
// is a 0-based index or a channel name (case-insensitive). Tokens matching
// nothing are ignored; an empty token list selects every channel. When no
// channel remains the result is ErrEmptySelection.
func Select(descs []Descriptor, tokens []string) ([]int, error) {
	var out []int
	if len(tokens) == 0 {
		for _, d := range descs {
			out = append(out, d.Index)
		}
	}
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if n, err := strconv.Atoi(tok); err == nil {
			if n >= 0 && n < len(descs) {
				out = append(out, n)
			}
			continue
		}
		for _, d := range descs {
			if strings.EqualFold(d.Name, tok) {
				out = append(out, d.Index)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptySelection, tokens)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
