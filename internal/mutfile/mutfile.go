// Package mutfile reads and writes variant-call (.mut) tables.
//
// A .mut row is tab-delimited:
//
//	contig start end sample var_type ref alt alt_depth depth N subtype context [filter]
//
// Coordinates refer to whole chromosomes while the reference is usually a
// set of probe windows, so rows are remapped through a probe.Map before
// any context lookup.
package mutfile

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
	"github.com/aria-lang/mutspec-go/internal/probe"
	"github.com/aria-lang/mutspec-go/internal/reference"
	"github.com/aria-lang/mutspec-go/internal/sequence"
	"github.com/aria-lang/mutspec-go/internal/stats"
)

// Header is the column header written by TableToMut.
var Header = []string{
	"contig", "start", "end", "sample", "var_type", "ref", "alt",
	"alt_depth", "depth", "N", "subtype", "context", "filter",
}

const (
	colContig = iota
	colStart
	colEnd
	colSample
	colVarType
	colRef
	colAlt
	colAltDepth
	colDepth
	colN
	colSubtype
	colContext

	minFields = colContext + 1
)

// Row is one parsed .mut line.
type Row struct {
	Line    int
	Contig  string
	Start   int
	VarType string
	Ref     string
	Alt     string
	Depth   int
	Context string
}

// Substitution returns Ref>Alt.
func (r *Row) Substitution() mutation.Substitution {
	if len(r.Ref) != 1 || len(r.Alt) != 1 {
		return mutation.Substitution{}
	}
	return mutation.Substitution{Ref: r.Ref[0], Alt: r.Alt[0]}
}

// needFields fails with a MalformedRecordError when fields is shorter than n.
func needFields(num int, fields []string, n int) error {
	if len(fields) < n {
		return &mutation.MalformedRecordError{
			Line:   num,
			Reason: fmt.Sprintf("expected at least %d fields, got %d", n, len(fields)),
		}
	}
	return nil
}

func parseRow(num int, fields []string) (*Row, error) {
	start, err := strconv.Atoi(strings.TrimSpace(fields[colStart]))
	if err != nil {
		return nil, &mutation.MalformedRecordError{Line: num, Reason: "start", Err: err}
	}
	depth, err := strconv.Atoi(strings.TrimSpace(fields[colDepth]))
	if err != nil {
		return nil, &mutation.MalformedRecordError{Line: num, Reason: "depth", Err: err}
	}
	return &Row{
		Line:    num,
		Contig:  fields[colContig],
		Start:   start,
		VarType: fields[colVarType],
		Ref:     strings.ToUpper(fields[colRef]),
		Alt:     strings.ToUpper(fields[colAlt]),
		Depth:   depth,
		Context: strings.ToUpper(fields[colContext]),
	}, nil
}

// eachRow calls fn for the fields of every non-blank row of r, skipping a
// header whose first column equals header.
func eachRow(r io.Reader, header string, run *stats.Run, fn func(num int, fields []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	num := 0
	for scanner.Scan() {
		num++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		run.Line()

		first, _, _ := strings.Cut(text, "\t")
		if first == header {
			run.Skip(stats.SkipHeader)
			continue
		}
		if err := fn(num, strings.Split(text, "\t")); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading line %d: %w", num+1, err)
	}
	return nil
}

// ContextOptions configures ExtractContexts.
type ContextOptions struct {
	Target mutation.Substitution
	Flank  int
	Logger logrus.FieldLogger
}

// ExtractContexts writes the upper-case probe context of every SNV row of r
// whose substitution is opts.Target; rows carrying the complementary type
// are written reverse-complemented. Rows on chromosomes without a probe are
// reported as warnings and skipped.
func ExtractContexts(r io.Reader, w io.Writer, probes *probe.Map, idx *reference.Index, opts ContextOptions) (*stats.Run, error) {
	comp, ok := opts.Target.Complement()
	if !ok {
		return nil, &mutation.InvalidSubstitutionError{Value: opts.Target.String()}
	}
	k, err := kmer.WindowLength(opts.Flank)
	if err != nil {
		return nil, err
	}
	logger := loggerOf(opts.Logger)

	out := bufio.NewWriter(w)
	run := stats.NewRun()

	err = eachRow(r, "contig", run, func(num int, fields []string) error {
		if err := needFields(num, fields, minFields); err != nil {
			return err
		}
		if fields[colVarType] != "snv" {
			run.Skip(stats.SkipNotSNV)
			return nil
		}
		row, err := parseRow(num, fields)
		if err != nil {
			return err
		}

		id, pos, err := probes.Remap(row.Contig, row.Start)
		if err != nil {
			var unknown *probe.UnknownChromosomeError
			if errors.As(err, &unknown) {
				logger.WithField("line", num).WithField("chrom", row.Contig).Warn("invalid chromosome label")
				run.Skip(stats.SkipUnknownChromosome)
				return nil
			}
			return err
		}

		sub := row.Substitution()
		if sub != opts.Target && sub != comp {
			run.Skip(stats.SkipOtherType)
			return nil
		}

		ctx, ok, err := kmer.Extract(idx, id, pos, k, kmer.Mid)
		if err != nil {
			return fmt.Errorf("line %d: %w", num, err)
		}
		if !ok {
			run.Skip(stats.SkipOutOfRange)
			return nil
		}
		ctx = strings.ToUpper(ctx)
		if sub == comp {
			ctx, err = sequence.ReverseComplement(ctx)
			if err != nil {
				run.Skip(stats.SkipUnknownBase)
				return nil
			}
		}

		if _, err := fmt.Fprintln(out, ctx); err != nil {
			return fmt.Errorf("writing context: %w", err)
		}
		run.Emit(1)
		return nil
	})
	if err != nil {
		return run, err
	}
	if err := out.Flush(); err != nil {
		return run, fmt.Errorf("writing context: %w", err)
	}

	logger.WithFields(logrus.Fields(run.Fields())).
		WithField("target", opts.Target.String()).
		Debug("extracted variant call contexts")
	return run, nil
}

func loggerOf(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return logrus.StandardLogger()
	}
	return l
}
