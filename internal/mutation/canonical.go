package mutation

import (
	"github.com/aria-lang/mutspec-go/internal/sequence"
)

// Bases is the slot order of Counts.
const Bases = "ACGT"

// Counts holds per-base mutant read counts in A, C, G, T order.
type Counts [4]int

// slot maps a base to its index in Counts, or -1.
func slot(b byte) int {
	switch b {
	case 'A':
		return 0
	case 'C':
		return 1
	case 'G':
		return 2
	case 'T':
		return 3
	}
	return -1
}

// Get returns the count for base b (zero for non-ACGT).
func (c Counts) Get(b byte) int {
	if i := slot(b); i >= 0 {
		return c[i]
	}
	return 0
}

// Set stores n for base b and reports whether b was a valid slot.
func (c *Counts) Set(b byte, n int) bool {
	i := slot(b)
	if i < 0 {
		return false
	}
	c[i] = n
	return true
}

// Total returns A+C+G+T.
func (c Counts) Total() int {
	return c[0] + c[1] + c[2] + c[3]
}

// Swap moves every count to the slot of the complementary base: the count
// for A lands in T and the count for C lands in G, and vice versa.
func (c Counts) Swap() Counts {
	return Counts{c[3], c[2], c[1], c[0]}
}

// NeedsFlip reports whether a mutation on reference base ref must be
// reverse-complemented to be reported in notation n.
func NeedsFlip(ref byte, n Notation) bool {
	switch n {
	case Purine:
		return sequence.IsPyrimidine(ref)
	case Pyrimidine:
		return sequence.IsPurine(ref)
	}
	return false
}

// Canonical is an observation rewritten into a notation's strand frame.
type Canonical struct {
	Ref     byte
	Context string
	Counts  Counts
	Flipped bool
}

// Canonicalize rewrites ref, context and counts into notation n. Context must
// already be upper case. When no flip is needed the inputs are returned as is.
func Canonicalize(ref byte, context string, counts Counts, n Notation) (Canonical, error) {
	if !NeedsFlip(ref, n) {
		return Canonical{Ref: ref, Context: context, Counts: counts}, nil
	}

	cref, err := sequence.Complement(ref)
	if err != nil {
		return Canonical{}, err
	}
	rc, err := sequence.ReverseComplement(context)
	if err != nil {
		return Canonical{}, err
	}

	return Canonical{
		Ref:     cref,
		Context: rc,
		Counts:  counts.Swap(),
		Flipped: true,
	}, nil
}
