package sequence

import "fmt"

// SequenceError is the base error type for sequence operations.
type SequenceError interface {
	error
	IsSequenceError()
}

// UnknownBaseError is returned when a symbol has no complement.
type UnknownBaseError struct {
	Position int
	Found    byte
}

func (e *UnknownBaseError) Error() string {
	return fmt.Sprintf("unknown base '%c' at position %d", e.Found, e.Position)
}

func (e *UnknownBaseError) IsSequenceError() {}

// ValidBases are the symbols the strand operations accept.
var ValidBases = map[byte]bool{'A': true, 'C': true, 'G': true, 'T': true, 'N': true}

// Validate checks that bases contains only A, C, G, T and N.
func Validate(bases string) error {
	for i := 0; i < len(bases); i++ {
		if !ValidBases[bases[i]] {
			return &UnknownBaseError{Position: i, Found: bases[i]}
		}
	}
	return nil
}

// IsACGT reports whether every symbol of s is one of A, C, G, T.
func IsACGT(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}
