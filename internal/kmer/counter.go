package kmer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aria-lang/mutspec-go/internal/mutation"
	"github.com/aria-lang/mutspec-go/internal/reference"
	"github.com/aria-lang/mutspec-go/internal/sequence"
)

// KMerCount represents a k-mer and its count.
type KMerCount struct {
	KMer  string
	Count int
}

// Counter accumulates k-mer occurrences of a fixed length.
type Counter struct {
	K      int
	Counts map[string]int
	Total  int
}

// NewCounter creates a new k-mer counter with the specified k value.
func NewCounter(k int) (*Counter, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	return &Counter{
		K:      k,
		Counts: make(map[string]int),
		Total:  0,
	}, nil
}

// Add adds count occurrences of kmer.
func (c *Counter) Add(kmer string, count int) error {
	if len(kmer) != c.K {
		return fmt.Errorf("k-mer length %d doesn't match k=%d", len(kmer), c.K)
	}
	if count <= 0 {
		return fmt.Errorf("count must be positive")
	}

	kmer = strings.ToUpper(kmer)
	c.Counts[kmer] += count
	c.Total += count
	return nil
}

// UniqueCount returns the number of distinct k-mers.
func (c *Counter) UniqueCount() int {
	return len(c.Counts)
}

// Frequency returns count(kmer) / Total.
func (c *Counter) Frequency(kmer string) (float64, error) {
	if c.Total == 0 {
		return 0.0, nil
	}
	if len(kmer) != c.K {
		return 0, fmt.Errorf("k-mer length %d doesn't match k=%d", len(kmer), c.K)
	}
	return float64(c.Counts[strings.ToUpper(kmer)]) / float64(c.Total), nil
}

// Sorted returns every k-mer with its count in lexical order.
func (c *Counter) Sorted() []KMerCount {
	out := make([]KMerCount, 0, len(c.Counts))
	for kmer, count := range c.Counts {
		out = append(out, KMerCount{KMer: kmer, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].KMer < out[j].KMer
	})
	return out
}

// Merge merges another Counter into this one.
func (c *Counter) Merge(other *Counter) error {
	if c.K != other.K {
		return fmt.Errorf("k values must match")
	}

	for kmer, count := range other.Counts {
		c.Counts[kmer] += count
		c.Total += count
	}
	return nil
}

func (c *Counter) String() string {
	return fmt.Sprintf("KMerCounter { k: %d, unique: %d, total: %d }", c.K, c.UniqueCount(), c.Total)
}

// CountCentered counts the k-mers of one sequence in the strand frame of
// notation n: a k-mer whose center base belongs to the other class is
// counted as its reverse complement. Windows holding anything other than
// A, C, G or T are skipped.
func (c *Counter) CountCentered(bases string, n mutation.Notation) error {
	if c.K%2 != 1 {
		return &InvalidWindowError{K: c.K, Center: Mid, Reason: "even length window has no midpoint"}
	}
	bases = strings.ToUpper(bases)
	mid := c.K / 2

	for i := 0; i <= len(bases)-c.K; i++ {
		kmer := bases[i : i+c.K]
		if !sequence.IsACGT(kmer) {
			continue
		}
		if mutation.NeedsFlip(kmer[mid], n) {
			rc, err := sequence.ReverseComplement(kmer)
			if err != nil {
				return err
			}
			kmer = rc
		}
		c.Counts[kmer]++
		c.Total++
	}
	return nil
}

// Background counts the centered k-mers of every reference record. The
// result is the context background used to normalise a spectrum.
func Background(idx *reference.Index, k int, n mutation.Notation) (*Counter, error) {
	counter, err := NewCounter(k)
	if err != nil {
		return nil, err
	}

	for _, id := range idx.IDs() {
		raw, err := idx.Raw(id)
		if err != nil {
			return nil, err
		}
		// Windows never span two records.
		rec, _ := NewCounter(k)
		if err := rec.CountCentered(raw, n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", id, err)
		}
		if err := counter.Merge(rec); err != nil {
			return nil, err
		}
	}
	return counter, nil
}
