package mutfile

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/aria-lang/mutspec-go/internal/stats"
)

// Discrepancy is a .mut row whose reference base differs from the center
// base of its context.
type Discrepancy struct {
	Line    int    `json:"line"`
	Contig  string `json:"contig"`
	Start   int    `json:"start"`
	Ref     string `json:"ref"`
	Context string `json:"context"`
}

func (d Discrepancy) String() string {
	return fmt.Sprintf("line %d %s:%d ref %s context %s", d.Line, d.Contig, d.Start, d.Ref, d.Context)
}

// CheckIntegrity audits an existing .mut file. Every discrepancy is logged
// as a warning and returned; only malformed rows stop the check.
func CheckIntegrity(r io.Reader, logger logrus.FieldLogger) ([]Discrepancy, *stats.Run, error) {
	logger = loggerOf(logger)

	var found []Discrepancy
	run := stats.NewRun()
	err := eachRow(r, "contig", run, func(num int, fields []string) error {
		if err := needFields(num, fields, minFields); err != nil {
			return err
		}
		row, err := parseRow(num, fields)
		if err != nil {
			return err
		}
		run.Emit(1)

		mid := len(row.Context) / 2
		if len(row.Context)%2 == 1 && row.Context[mid:mid+1] == row.Ref {
			return nil
		}
		d := Discrepancy{
			Line:    num,
			Contig:  row.Contig,
			Start:   row.Start,
			Ref:     row.Ref,
			Context: row.Context,
		}
		logger.WithFields(logrus.Fields{
			"line":    d.Line,
			"contig":  d.Contig,
			"start":   d.Start,
			"ref":     d.Ref,
			"context": d.Context,
		}).Warn("reference base does not match context")
		found = append(found, d)
		return nil
	})
	if err != nil {
		return found, run, err
	}
	return found, run, nil
}
