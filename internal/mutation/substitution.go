// Package mutation defines single-base substitution types, the strand
// canonicalization rule and the mutation records produced by the parsers.
package mutation

import (
	"fmt"
	"strings"
)

// Notation selects the strand frame mutations are reported in.
type Notation int

const (
	// Pyrimidine reports every mutation with a C or T reference base.
	Pyrimidine Notation = iota
	// Purine reports every mutation with an A or G reference base.
	Purine
)

func (n Notation) String() string {
	switch n {
	case Pyrimidine:
		return "pyrimidine"
	case Purine:
		return "purine"
	default:
		return fmt.Sprintf("Notation(%d)", int(n))
	}
}

// ParseNotation converts "pyrimidine" or "purine" to a Notation.
func ParseNotation(s string) (Notation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pyrimidine":
		return Pyrimidine, nil
	case "purine":
		return Purine, nil
	default:
		return 0, &UnknownNotationError{Value: s}
	}
}

// Substitution is a directed single-base change Ref>Alt.
type Substitution struct {
	Ref byte
	Alt byte
}

// PyrimidineTypes and PurineTypes are index-aligned: PurineTypes[i] is the
// strand complement of PyrimidineTypes[i]. Neither table is ever modified.
var (
	PyrimidineTypes = [6]Substitution{
		{'C', 'A'}, {'C', 'G'}, {'C', 'T'}, {'T', 'A'}, {'T', 'C'}, {'T', 'G'},
	}
	PurineTypes = [6]Substitution{
		{'G', 'T'}, {'G', 'C'}, {'G', 'A'}, {'A', 'T'}, {'A', 'G'}, {'A', 'C'},
	}
)

// Alexandrov/Stratton palette, indexed like the type tables.
var typeColors = [6]string{"#52C3F1", "#231F20", "#E62223", "#CBC9C8", "#97D54C", "#EDBFC2"}

// Types returns the six canonical substitution types for a notation.
func Types(n Notation) []Substitution {
	if n == Purine {
		return PurineTypes[:]
	}
	return PyrimidineTypes[:]
}

// All returns the twelve substitution types, pyrimidine class first.
func All() []Substitution {
	out := make([]Substitution, 0, 12)
	out = append(out, PyrimidineTypes[:]...)
	return append(out, PurineTypes[:]...)
}

// ParseSubstitution parses "C>T" style notation.
func ParseSubstitution(s string) (Substitution, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 || s[1] != '>' {
		return Substitution{}, &InvalidSubstitutionError{Value: s}
	}
	sub := Substitution{Ref: s[0], Alt: s[2]}
	if _, _, ok := sub.lookup(); !ok {
		return Substitution{}, &InvalidSubstitutionError{Value: s}
	}
	return sub, nil
}

func (s Substitution) String() string {
	return string([]byte{s.Ref, '>', s.Alt})
}

func (s Substitution) lookup() (class Notation, i int, ok bool) {
	for i, t := range PyrimidineTypes {
		if t == s {
			return Pyrimidine, i, true
		}
	}
	for i, t := range PurineTypes {
		if t == s {
			return Purine, i, true
		}
	}
	return 0, -1, false
}

// Valid reports whether s is one of the twelve substitution types.
func (s Substitution) Valid() bool {
	_, _, ok := s.lookup()
	return ok
}

// Class returns the canonicalization class of s.
func (s Substitution) Class() (Notation, bool) {
	class, _, ok := s.lookup()
	return class, ok
}

// Complement returns the strand-complementary type from the pairing table.
func (s Substitution) Complement() (Substitution, bool) {
	class, i, ok := s.lookup()
	if !ok {
		return Substitution{}, false
	}
	if class == Pyrimidine {
		return PurineTypes[i], true
	}
	return PyrimidineTypes[i], true
}

// Color returns the plotting color shared by s and its complement.
func (s Substitution) Color() string {
	_, i, ok := s.lookup()
	if !ok {
		return ""
	}
	return typeColors[i]
}
