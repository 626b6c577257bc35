package reference

import "fmt"

// LoadError is returned when a reference file cannot be read or parsed.
type LoadError struct {
	Path string
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	msg := "loading reference"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d)", e.Line)
	}
	return msg + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// UnknownSequenceError is returned when a label is not in the index.
type UnknownSequenceError struct {
	ID string
}

func (e *UnknownSequenceError) Error() string {
	return fmt.Sprintf("sequence %q not found in reference", e.ID)
}
