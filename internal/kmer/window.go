// Package kmer extracts fixed-length sequence windows around reference
// positions and counts reference k-mer backgrounds.
package kmer

import (
	"fmt"

	"github.com/aria-lang/mutspec-go/internal/reference"
)

// Center places the queried position inside the window.
type Center struct {
	mid    bool
	offset int
}

// Mid centers the window on the position. k must be odd.
var Mid = Center{mid: true}

// Offset places the position at index n of the window.
func Offset(n int) Center {
	return Center{offset: n}
}

func (c Center) String() string {
	if c.mid {
		return "mid"
	}
	return fmt.Sprintf("%d", c.offset)
}

// Resolve returns the index of the queried position inside a window of
// length k.
func (c Center) Resolve(k int) (int, error) {
	if k <= 0 {
		return 0, &InvalidWindowError{K: k, Center: c, Reason: "window length must be positive"}
	}
	if c.mid {
		if k%2 != 1 {
			return 0, &InvalidWindowError{K: k, Center: c, Reason: "even length window has no midpoint"}
		}
		return (k - 1) / 2, nil
	}
	if c.offset < 0 || c.offset >= k {
		return 0, &InvalidWindowError{K: k, Center: c, Reason: "center offset must lie inside the window"}
	}
	return c.offset, nil
}

// Extract returns the k bases of record id around the zero-based position,
// case preserved. ok is false when the window runs past either end of the
// record; that is an expected condition and callers skip the position.
func Extract(idx *reference.Index, id string, position, k int, center Center) (window string, ok bool, err error) {
	c, err := center.Resolve(k)
	if err != nil {
		return "", false, err
	}

	seq, err := idx.Get(id)
	if err != nil {
		return "", false, err
	}

	start := position - c
	end := position + (k - c)
	window, ok = seq.Window(start, end)
	return window, ok, nil
}

// WindowLength converts a flank size to a window length: 1 is a
// trinucleotide, 2 a pentanucleotide.
func WindowLength(flank int) (int, error) {
	if flank < 0 {
		return 0, &InvalidWindowError{K: flank, Center: Mid, Reason: "flank must be non-negative"}
	}
	return 2*flank + 1, nil
}

// InvalidWindowError is returned for a window that cannot be placed.
type InvalidWindowError struct {
	K      int
	Center Center
	Reason string
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("invalid window k=%d center=%s: %s", e.K, e.Center, e.Reason)
}
