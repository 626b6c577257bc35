package mutfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/aria-lang/mutspec-go/internal/kmer"
	"github.com/aria-lang/mutspec-go/internal/mutation"
	"github.com/aria-lang/mutspec-go/internal/reference"
	"github.com/aria-lang/mutspec-go/internal/stats"
)

// DefaultSample is the sample tag written when TableOptions.Sample is empty.
const DefaultSample = "JME"

// Synthetic values for columns a plain mutation table does not carry.
const (
	tableAltDepth = 1
	tableDepth    = 100
	tableN        = 0
)

const progressEvery = 1000

// TableOptions configures TableToMut.
type TableOptions struct {
	Sample string
	Logger logrus.FieldLogger
}

// TableToMut converts a mutation table (chrom, 1-based pos, ref, alt,
// filter) into .mut rows with a trinucleotide context taken from idx.
// Chromosome labels must name reference records directly.
func TableToMut(r io.Reader, w io.Writer, idx *reference.Index, opts TableOptions) (*stats.Run, error) {
	sample := opts.Sample
	if sample == "" {
		sample = DefaultSample
	}
	logger := loggerOf(opts.Logger)

	out := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(out, strings.Join(Header, "\t")); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	run := stats.NewRun()
	err := eachRow(r, "CHROM", run, func(num int, fields []string) error {
		if err := needFields(num, fields, 5); err != nil {
			return err
		}
		chrom := fields[0]
		ref := strings.ToUpper(fields[2])
		alt := strings.ToUpper(fields[3])
		filter := fields[4]

		pos, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return &mutation.MalformedRecordError{Line: num, Reason: "position", Err: err}
		}
		if len(ref) != 1 || len(alt) != 1 {
			run.Skip(stats.SkipNotSNV)
			return nil
		}

		ctx, ok, err := kmer.Extract(idx, chrom, pos-1, 3, kmer.Mid)
		if err != nil {
			return fmt.Errorf("line %d: %w", num, err)
		}
		if !ok {
			run.Skip(stats.SkipOutOfRange)
			return nil
		}

		row := []string{
			chrom,
			strconv.Itoa(pos),
			strconv.Itoa(pos + 1),
			sample,
			"snv",
			ref,
			alt,
			strconv.Itoa(tableAltDepth),
			strconv.Itoa(tableDepth),
			strconv.Itoa(tableN),
			ref + ">" + alt,
			strings.ToUpper(ctx),
			filter,
		}
		if _, err := fmt.Fprintln(out, strings.Join(row, "\t")); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
		run.Emit(1)
		if run.Emitted%progressEvery == 0 {
			logger.WithField("converted", run.Emitted).Info("converting mutation table")
		}
		return nil
	})
	if err != nil {
		return run, err
	}
	if err := out.Flush(); err != nil {
		return run, fmt.Errorf("writing row: %w", err)
	}

	logger.WithFields(logrus.Fields(run.Fields())).Debug("converted mutation table")
	return run, nil
}
