// Package sequence provides nucleotide sequence records and strand operations.
//
// Reference bases are kept exactly as they were read, including soft-masked
// lowercase runs. Strand operations work on upper-case A, C, G, T and N only;
// callers upper-case a context before complementing it.
package sequence

import "fmt"

// Sequence is a named reference record.
type Sequence struct {
	ID          string
	Description string
	Bases       string
}

// New creates a sequence record. The bases are stored verbatim.
func New(id, description, bases string) *Sequence {
	return &Sequence{
		ID:          id,
		Description: description,
		Bases:       bases,
	}
}

// Len returns the length of the sequence.
func (s *Sequence) Len() int {
	return len(s.Bases)
}

// Window returns Bases[start:end] and false when the half-open interval does
// not fit inside the sequence.
func (s *Sequence) Window(start, end int) (string, bool) {
	if start < 0 || end > len(s.Bases) || end < start {
		return "", false
	}
	return s.Bases[start:end], true
}

// complements is the strand pairing table. N pairs with itself.
var complements = [256]byte{
	'A': 'T',
	'T': 'A',
	'C': 'G',
	'G': 'C',
	'N': 'N',
}

// Complement returns the Watson-Crick partner of an upper-case base.
func Complement(b byte) (byte, error) {
	c := complements[b]
	if c == 0 {
		return 0, &UnknownBaseError{Position: 0, Found: b}
	}
	return c, nil
}

// ReverseComplement reverses s and complements every base.
func ReverseComplement(s string) (string, error) {
	n := len(s)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		c := complements[s[n-1-i]]
		if c == 0 {
			return "", &UnknownBaseError{Position: n - 1 - i, Found: s[n-1-i]}
		}
		out[i] = c
	}
	return string(out), nil
}

// IsPurine reports whether b is A or G.
func IsPurine(b byte) bool {
	return b == 'A' || b == 'G'
}

// IsPyrimidine reports whether b is C or T.
func IsPyrimidine(b byte) bool {
	return b == 'C' || b == 'T'
}

func (s *Sequence) String() string {
	if s.ID != "" {
		return fmt.Sprintf(">%s\n%s", s.ID, s.Bases)
	}
	return s.Bases
}
