package mutation

import "fmt"

// UnknownNotationError is returned for a notation other than purine or pyrimidine.
type UnknownNotationError struct {
	Value string
}

func (e *UnknownNotationError) Error() string {
	return fmt.Sprintf("unknown notation %q: must be purine or pyrimidine", e.Value)
}

// InvalidSubstitutionError is returned for a string that is not one of the
// twelve single-base substitution types.
type InvalidSubstitutionError struct {
	Value string
}

func (e *InvalidSubstitutionError) Error() string {
	return fmt.Sprintf("invalid substitution type %q", e.Value)
}

// MalformedRecordError is returned for an input line that cannot be parsed:
// a wrong field count or a non-numeric required field.
type MalformedRecordError struct {
	Line   int
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	msg := fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }
