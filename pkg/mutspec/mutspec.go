// Package mutspec provides a high-level API for building mutational
// spectra from mutation-calling outputs.
//
// Example usage:
//
//	ref, err := mutspec.LoadReference("probes.fa")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	spec, run, err := mutspec.BuildSpectrum("sample.mutpos", ref, mutspec.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(run)
//	spec.WriteTSV(os.Stdout)
package mutspec

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aria-lang/mutspec-go/internal/kmer"
	"github.com/aria-lang/mutspec-go/internal/mutation"
	"github.com/aria-lang/mutspec-go/internal/mutfile"
	"github.com/aria-lang/mutspec-go/internal/mutpos"
	"github.com/aria-lang/mutspec-go/internal/probe"
	"github.com/aria-lang/mutspec-go/internal/reference"
	"github.com/aria-lang/mutspec-go/internal/sequence"
	"github.com/aria-lang/mutspec-go/internal/spectrum"
	"github.com/aria-lang/mutspec-go/internal/stats"
)

// Re-export types for convenience
type (
	Reference      = reference.Index
	Record         = mutation.Record
	Substitution   = mutation.Substitution
	Notation       = mutation.Notation
	Format         = mutpos.Format
	Options        = mutpos.Options
	Filter         = mutpos.Filter
	Region         = mutpos.Region
	ContextOptions = mutpos.ContextOptions
	MutOptions     = mutfile.ContextOptions
	TableOptions   = mutfile.TableOptions
	Discrepancy    = mutfile.Discrepancy
	ProbeMap       = probe.Map
	SplitRule      = probe.SplitRule
	Spectrum       = spectrum.Spectrum
	Cell           = spectrum.Cell
	Run            = stats.Run
	KMerCounter    = kmer.Counter
	ReferenceStats = stats.ReferenceStats
	Counts         = mutation.Counts
	Canonical      = mutation.Canonical

	UnknownSequenceError   = reference.UnknownSequenceError
	UnknownChromosomeError = probe.UnknownChromosomeError
)

// Constants
const (
	Pyrimidine = mutation.Pyrimidine
	Purine     = mutation.Purine

	Essigmann = mutpos.Essigmann
	WESDirect = mutpos.WESDirect
	Loeb      = mutpos.Loeb
)

// DefaultOptions returns the default per-position parse options.
func DefaultOptions() Options {
	return mutpos.DefaultOptions()
}

// ParseNotation converts "pyrimidine" or "purine" to a Notation.
func ParseNotation(s string) (Notation, error) {
	return mutation.ParseNotation(s)
}

// ParseFormat converts a per-position format name to a Format.
func ParseFormat(s string) (Format, error) {
	return mutpos.ParseFormat(s)
}

// ParseSubstitution parses "C>T" style notation.
func ParseSubstitution(s string) (Substitution, error) {
	return mutation.ParseSubstitution(s)
}

// ValidateSequence checks that s holds only A, C, G, T and N.
func ValidateSequence(s string) error {
	return sequence.Validate(s)
}

// ReverseComplement reverse complements a sequence of A, C, G, T and N.
func ReverseComplement(s string) (string, error) {
	return sequence.ReverseComplement(s)
}

// Canonicalize rewrites an observation into the strand frame of n.
func Canonicalize(ref byte, window string, counts Counts, n Notation) (Canonical, error) {
	return mutation.Canonicalize(ref, window, counts, n)
}

// ExtractKMer returns the k bases of record id centered on position. ok is
// false when the window runs off either end of the record.
func ExtractKMer(ref *Reference, id string, position, k int) (string, bool, error) {
	return kmer.Extract(ref, id, position, k, kmer.Mid)
}

// ExtractKMerAt is ExtractKMer with position placed at index offset of the
// window.
func ExtractKMerAt(ref *Reference, id string, position, k, offset int) (string, bool, error) {
	return kmer.Extract(ref, id, position, k, kmer.Offset(offset))
}

// LoadReference reads a FASTA reference into memory.
func LoadReference(path string) (*Reference, error) {
	return reference.Load(path)
}

// LoadProbes builds the probe map of a probe reference.
func LoadProbes(ref *Reference, rules ...SplitRule) (*ProbeMap, error) {
	return probe.NewMap(ref, rules...)
}

// DescribeReference summarises a loaded reference.
func DescribeReference(ref *Reference) (*ReferenceStats, error) {
	return stats.FromReference(ref)
}

// Background counts every reference k-mer in the canonical frame of n.
// k is bounded like a spectrum context.
func Background(ref *Reference, k int, n Notation) (*KMerCounter, error) {
	if k > spectrum.MaxK {
		return nil, &kmer.InvalidWindowError{K: k, Center: kmer.Mid, Reason: fmt.Sprintf("background k must be at most %d", spectrum.MaxK)}
	}
	return kmer.Background(ref, k, n)
}

// FromMutpos parses every mutation record of a per-position count file.
func FromMutpos(path string, ref *Reference, opts Options) ([]Record, *Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return mutpos.Parse(f, ref, opts)
}

// BuildSpectrum streams a per-position count file into a spectrum.
func BuildSpectrum(path string, ref *Reference, opts Options) (*Spectrum, *Run, error) {
	return buildSpectrum(context.Background(), path, ref, opts)
}

func buildSpectrum(ctx context.Context, path string, ref *Reference, opts Options) (*Spectrum, *Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	spec, run, err := ScanSpectrum(&contextReader{ctx: ctx, r: f}, ref, opts)
	if err != nil {
		return nil, run, fmt.Errorf("%s: %w", path, err)
	}
	return spec, run, nil
}

// ScanSpectrum streams per-position count text from r into a spectrum.
func ScanSpectrum(r io.Reader, ref *Reference, opts Options) (*Spectrum, *Run, error) {
	spec, err := spectrum.New(opts.K, opts.Notation)
	if err != nil {
		return nil, nil, err
	}
	run, err := mutpos.Scan(r, ref, opts, func(rec Record) error {
		spec.Add(rec)
		return nil
	})
	if err != nil {
		return nil, run, err
	}
	return spec, run, nil
}

// ExtractMutposContexts writes the contexts of one substitution type found
// in a per-position count file to outPath.
func ExtractMutposContexts(inPath, outPath string, ref *Reference, opts ContextOptions) (*Run, error) {
	return convert(inPath, outPath, func(r io.Reader, w io.Writer) (*Run, error) {
		return mutpos.ExtractContexts(r, w, ref, opts)
	})
}

// ExtractMutContexts writes the contexts of one substitution type found in
// a .mut file to outPath, remapping chromosomes through probes.
func ExtractMutContexts(inPath, outPath string, probes *ProbeMap, ref *Reference, opts MutOptions) (*Run, error) {
	return convert(inPath, outPath, func(r io.Reader, w io.Writer) (*Run, error) {
		return mutfile.ExtractContexts(r, w, probes, ref, opts)
	})
}

// TableToMut converts a mutation table into a .mut file.
func TableToMut(inPath, outPath string, ref *Reference, opts TableOptions) (*Run, error) {
	return convert(inPath, outPath, func(r io.Reader, w io.Writer) (*Run, error) {
		return mutfile.TableToMut(r, w, ref, opts)
	})
}

// CheckMutIntegrity audits a .mut file for reference/context mismatches.
func CheckMutIntegrity(path string, logger logrus.FieldLogger) ([]Discrepancy, *Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return mutfile.CheckIntegrity(f, logger)
}

func convert(inPath, outPath string, fn func(io.Reader, io.Writer) (*Run, error)) (*Run, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	run, err := fn(in, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing file: %w", cerr)
	}
	return run, err
}

// BatchResult is the spectrum of one file of a batch.
type BatchResult struct {
	Path     string
	Spectrum *Spectrum
	Run      *Run
}

// BatchSpectra builds one spectrum per path with at most jobs files in
// flight. Results are in input order. The first failure cancels the files
// still being read and is returned.
func BatchSpectra(ctx context.Context, ref *Reference, paths []string, opts Options, jobs int) ([]BatchResult, error) {
	if jobs < 1 {
		jobs = 1
	}
	results := make([]BatchResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			spec, run, err := buildSpectrum(ctx, path, ref, opts)
			if err != nil {
				return err
			}
			results[i] = BatchResult{Path: path, Spectrum: spec, Run: run}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Merge sums the spectra and run counters of a batch.
func Merge(results []BatchResult) (*Spectrum, *Run, error) {
	if len(results) == 0 {
		return nil, nil, fmt.Errorf("nothing to merge")
	}
	first := results[0].Spectrum
	total, err := spectrum.New(first.K(), first.Notation())
	if err != nil {
		return nil, nil, err
	}
	run := stats.NewRun()
	for _, r := range results {
		if err := total.Merge(r.Spectrum); err != nil {
			return nil, nil, err
		}
		run.Merge(r.Run)
	}
	return total, run, nil
}

// contextReader stops a read as soon as ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// Version returns the mutspec version.
func Version() string {
	return "1.0.0"
}

// Info returns information about mutspec.
func Info() string {
	return fmt.Sprintf(`mutspec v%s - Mutational Spectrum Toolkit

Features:
  - FASTA reference loading with probe coordinate remapping
  - essigmann, wesdirect and loeb per-position count parsing
  - .mut variant call context extraction and integrity checks
  - mutation table to .mut conversion
  - pyrimidine or purine strand canonicalization
  - spectra over any odd context length, in parallel batches
`, Version())
}
