// Package mutpos parses per-position mutation count files.
//
// Each tab-delimited line holds a chromosome, the reference base, a 1-based
// position, the read depth and four mutant base counts whose columns depend
// on the Format. Lines that are well formed but filtered out are skipped
// silently and counted in the returned stats.Run; malformed lines abort the
// parse with a mutation.MalformedRecordError.
package mutpos

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/aria-lang/mutspec-go/internal/kmer"
	"github.com/aria-lang/mutspec-go/internal/mutation"
	"github.com/aria-lang/mutspec-go/internal/reference"
	"github.com/aria-lang/mutspec-go/internal/sequence"
	"github.com/aria-lang/mutspec-go/internal/stats"
)

// Region restricts parsing to one chromosome and a zero-based half-open
// interval. An empty Chrom admits every chromosome; End 0 is unbounded.
type Region struct {
	Chrom string
	Start int
	End   int
}

// Contains reports whether chrom:pos lies in the region.
func (r Region) Contains(chrom string, pos int) bool {
	if r.Chrom != "" && chrom != r.Chrom {
		return false
	}
	if pos < r.Start {
		return false
	}
	if r.End > 0 && pos >= r.End {
		return false
	}
	return true
}

// Filter is the per-run depth, clonality and region configuration.
type Filter struct {
	MinDepth int
	// Clonality bounds, inclusive, in either order.
	Clonality [2]float64
	Region    Region
}

func (f Filter) admits(clonality float64) bool {
	lo, hi := f.Clonality[0], f.Clonality[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo <= clonality && clonality <= hi
}

// Options configures Parse.
type Options struct {
	Format   Format
	Notation mutation.Notation
	K        int
	Filter   Filter
	Logger   logrus.FieldLogger
}

// DefaultOptions returns trinucleotide, pyrimidine-notation parsing of the
// essigmann layout with a minimum depth of 100 and no clonality limit.
func DefaultOptions() Options {
	return Options{
		Format:   Essigmann,
		Notation: mutation.Pyrimidine,
		K:        3,
		Filter: Filter{
			MinDepth:  100,
			Clonality: [2]float64{0, 1},
		},
	}
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger == nil {
		return logrus.StandardLogger()
	}
	return o.Logger
}

// line is the format-independent part of one input line.
type line struct {
	chrom    string
	ref      byte
	position int
	depth    int
	counts   mutation.Counts
}

func parseLine(num int, text string, format Format) (*line, error) {
	lay, ok := layouts[format]
	if !ok {
		return nil, &UnknownFormatError{Value: format.String()}
	}

	fields := strings.Split(text, "\t")
	if len(fields) < lay.minFields {
		return nil, &mutation.MalformedRecordError{
			Line:   num,
			Reason: fmt.Sprintf("expected at least %d fields for %s, got %d", lay.minFields, format, len(fields)),
		}
	}

	ref := strings.ToUpper(strings.TrimSpace(fields[1]))
	if len(ref) != 1 || ref[0] < 'A' || ref[0] > 'Z' {
		return nil, &mutation.MalformedRecordError{Line: num, Reason: fmt.Sprintf("reference base %q", fields[1])}
	}

	pos, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return nil, &mutation.MalformedRecordError{Line: num, Reason: "position", Err: err}
	}
	depth, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if err != nil {
		return nil, &mutation.MalformedRecordError{Line: num, Reason: "depth", Err: err}
	}
	if depth < 0 {
		return nil, &mutation.MalformedRecordError{Line: num, Reason: fmt.Sprintf("negative depth %d", depth)}
	}

	counts, err := lay.counts(fields)
	if err != nil {
		return nil, &mutation.MalformedRecordError{Line: num, Reason: "mutant counts", Err: err}
	}

	return &line{
		chrom:    fields[0],
		ref:      ref[0],
		position: pos - 1,
		depth:    depth,
		counts:   counts,
	}, nil
}

// eachLine calls fn for every non-blank line of r with its 1-based number.
func eachLine(r io.Reader, fn func(num int, text string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	num := 0
	for scanner.Scan() {
		num++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := fn(num, text); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading line %d: %w", num+1, err)
	}
	return nil
}

// lineContext extracts and upper-cases the window around l. ok is false
// when the line must be skipped; the reason has already been counted.
func lineContext(idx *reference.Index, l *line, k int, run *stats.Run) (string, bool, error) {
	ctx, ok, err := kmer.Extract(idx, l.chrom, l.position, k, kmer.Mid)
	if err != nil {
		var unknown *reference.UnknownSequenceError
		if errors.As(err, &unknown) {
			run.Skip(stats.SkipUnknownChromosome)
			return "", false, nil
		}
		return "", false, err
	}
	if !ok {
		run.Skip(stats.SkipOutOfRange)
		return "", false, nil
	}
	return strings.ToUpper(ctx), true, nil
}

// Scan streams the mutation records of r to fn in input order.
func Scan(r io.Reader, idx *reference.Index, opts Options, fn func(mutation.Record) error) (*stats.Run, error) {
	if _, ok := layouts[opts.Format]; !ok {
		return nil, &UnknownFormatError{Value: opts.Format.String()}
	}
	if _, err := kmer.Mid.Resolve(opts.K); err != nil {
		return nil, err
	}

	run := stats.NewRun()
	err := eachLine(r, func(num int, text string) error {
		run.Line()

		l, err := parseLine(num, text, opts.Format)
		if err != nil {
			return err
		}

		if !opts.Filter.Region.Contains(l.chrom, l.position) {
			run.Skip(stats.SkipRegion)
			return nil
		}
		if l.counts.Total() == 0 {
			run.Skip(stats.SkipNoMutation)
			return nil
		}
		if l.depth < opts.Filter.MinDepth || l.depth == 0 {
			run.Skip(stats.SkipLowDepth)
			return nil
		}

		ctx, ok, err := lineContext(idx, l, opts.K, run)
		if err != nil || !ok {
			return err
		}

		canon, err := mutation.Canonicalize(l.ref, ctx, l.counts, opts.Notation)
		if err != nil {
			var ube *sequence.UnknownBaseError
			if errors.As(err, &ube) {
				run.Skip(stats.SkipUnknownBase)
				return nil
			}
			return err
		}

		for i := 0; i < len(mutation.Bases); i++ {
			base := mutation.Bases[i]
			n := canon.Counts[i]
			clonality := float64(n) / float64(l.depth)
			if !opts.Filter.admits(clonality) {
				if n > 0 {
					run.Skip(stats.SkipClonality)
				}
				continue
			}

			for j := 0; j < n; j++ {
				rec := mutation.Record{
					Ref:       canon.Ref,
					Alt:       base,
					Chrom:     l.chrom,
					Position:  l.position,
					Context:   canon.Context,
					Depth:     l.depth,
					Clonality: clonality,
				}
				if err := fn(rec); err != nil {
					return err
				}
			}
			run.Emit(n)
		}
		return nil
	})
	if err != nil {
		return run, err
	}

	opts.logger().WithFields(logrus.Fields(run.Fields())).Debug("parsed mutation positions")
	return run, nil
}

// Parse collects every mutation record of r.
func Parse(r io.Reader, idx *reference.Index, opts Options) ([]mutation.Record, *stats.Run, error) {
	records := make([]mutation.Record, 0)
	run, err := Scan(r, idx, opts, func(rec mutation.Record) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, run, err
	}
	return records, run, nil
}
