package mutpos

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aria-lang/mutspec-go/internal/mutation"
)

// Format selects the column layout of the mutant counts.
type Format int

const (
	// Essigmann holds A, C, G, T counts in columns 4-7 (N optionally in 8).
	Essigmann Format = iota
	// WESDirect holds one count in column 4 and its base in column 5.
	WESDirect
	// Loeb holds T, C, G, A counts in columns 5-8.
	Loeb
)

var formatNames = map[Format]string{
	Essigmann: "essigmann",
	WESDirect: "wesdirect",
	Loeb:      "loeb",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return 0, &UnknownFormatError{Value: s}
}

// UnknownFormatError is returned for a format name outside the known set.
type UnknownFormatError struct {
	Value string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown format %q: must be essigmann, wesdirect or loeb", e.Value)
}

// layout reads the four mutant counts of one line.
type layout struct {
	minFields int
	counts    func(fields []string) (mutation.Counts, error)
}

var layouts = map[Format]layout{
	Essigmann: {
		minFields: 8,
		counts: func(fields []string) (mutation.Counts, error) {
			return readCounts(fields, 4, "ACGT")
		},
	},
	WESDirect: {
		minFields: 6,
		counts: func(fields []string) (mutation.Counts, error) {
			var c mutation.Counts
			n, err := atoiNonNegative(fields[4])
			if err != nil {
				return c, fmt.Errorf("column 5: %w", err)
			}
			// A mutant allele other than A, C, G or T leaves every count at
			// zero and the line is skipped as carrying no mutation.
			base := strings.ToUpper(strings.TrimSpace(fields[5]))
			if len(base) == 1 {
				c.Set(base[0], n)
			}
			return c, nil
		},
	},
	Loeb: {
		minFields: 9,
		counts: func(fields []string) (mutation.Counts, error) {
			return readCounts(fields, 5, "TCGA")
		},
	},
}

// readCounts reads len(order) consecutive count columns starting at from;
// order names the base each column holds.
func readCounts(fields []string, from int, order string) (mutation.Counts, error) {
	var c mutation.Counts
	for i := 0; i < len(order); i++ {
		n, err := atoiNonNegative(fields[from+i])
		if err != nil {
			return c, fmt.Errorf("column %d: %w", from+i+1, err)
		}
		c.Set(order[i], n)
	}
	return c, nil
}

func atoiNonNegative(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return n, nil
}
