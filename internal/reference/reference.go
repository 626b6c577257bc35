// Package reference loads reference genomes and probe sets into an
// in-memory index keyed by record label.
//
// An Index is built once per run and is read-only afterwards, so it can be
// shared by any number of parsers without locking.
package reference

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aria-lang/mutspec-go/internal/sequence"
)

// maxLineSize bounds a single FASTA line. Whole chromosomes are sometimes
// written unwrapped.
const maxLineSize = 1 << 30

// Index is an immutable lookup of reference sequences by identifier.
type Index struct {
	ids     []string
	records map[string]*sequence.Sequence
}

// Load reads a FASTA file into an Index.
func Load(path string) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer file.Close()

	idx, err := Parse(file)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Path = path
			return nil, le
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	return idx, nil
}

// Parse reads FASTA records from r. The first whitespace-delimited token of
// each header is the record label and is used verbatim as the key.
func Parse(r io.Reader) (*Index, error) {
	idx := &Index{records: make(map[string]*sequence.Sequence)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var currentID, currentDesc string
	var currentBases strings.Builder
	inRecord := false
	lineNum := 0

	flush := func() error {
		if !inRecord {
			return nil
		}
		if _, dup := idx.records[currentID]; dup {
			return &LoadError{Line: lineNum, Err: fmt.Errorf("duplicate record label %q", currentID)}
		}
		idx.ids = append(idx.ids, currentID)
		idx.records[currentID] = sequence.New(currentID, currentDesc, currentBases.String())
		currentBases.Reset()
		return nil
	}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if len(line) == 0 {
			continue
		}

		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}

			fields := strings.Fields(line[1:])
			if len(fields) == 0 {
				return nil, &LoadError{Line: lineNum, Err: fmt.Errorf("empty record label")}
			}
			currentID = fields[0]
			currentDesc = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line[1:]), currentID))
			inRecord = true
			continue
		}

		if !inRecord {
			return nil, &LoadError{Line: lineNum, Err: fmt.Errorf("sequence data before first header")}
		}
		currentBases.WriteString(line)
	}

	if err := scanner.Err(); err != nil {
		return nil, &LoadError{Line: lineNum, Err: fmt.Errorf("reading file: %w", err)}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	if len(idx.ids) == 0 {
		return nil, &LoadError{Err: fmt.Errorf("no FASTA records found")}
	}

	return idx, nil
}

// FromSequences builds an Index from already materialised records. Labels
// must be unique.
func FromSequences(seqs ...*sequence.Sequence) (*Index, error) {
	idx := &Index{records: make(map[string]*sequence.Sequence, len(seqs))}
	for _, s := range seqs {
		if _, dup := idx.records[s.ID]; dup {
			return nil, &LoadError{Err: fmt.Errorf("duplicate record label %q", s.ID)}
		}
		idx.ids = append(idx.ids, s.ID)
		idx.records[s.ID] = s
	}
	return idx, nil
}

// IDs returns the record labels in file order.
func (idx *Index) IDs() []string {
	out := make([]string, len(idx.ids))
	copy(out, idx.ids)
	return out
}

// Size returns the number of records.
func (idx *Index) Size() int {
	return len(idx.ids)
}

// Has reports whether id is a known record label.
func (idx *Index) Has(id string) bool {
	_, ok := idx.records[id]
	return ok
}

// Get returns the record for id.
func (idx *Index) Get(id string) (*sequence.Sequence, error) {
	s, ok := idx.records[id]
	if !ok {
		return nil, &UnknownSequenceError{ID: id}
	}
	return s, nil
}

// Len returns the length of record id.
func (idx *Index) Len(id string) (int, error) {
	s, err := idx.Get(id)
	if err != nil {
		return 0, err
	}
	return s.Len(), nil
}

// Raw returns the bases of record id as stored.
func (idx *Index) Raw(id string) (string, error) {
	s, err := idx.Get(id)
	if err != nil {
		return "", err
	}
	return s.Bases, nil
}
