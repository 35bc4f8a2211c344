package directive

import (
	"errors"
	"fmt"
)

var (
	// ErrNotApplicable means the annotation carries no directive.
	ErrNotApplicable = errors.New("no lookup directive")
	// ErrMalformed means a directive was introduced but could not be parsed.
	ErrMalformed = errors.New("malformed lookup directive")
)

// MalformedError reports where and why a directive failed to parse.
type MalformedError struct {
	Pos    int // byte offset into the annotation
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed lookup directive at offset %d: %s", e.Pos, e.Reason)
}

// Is makes errors.Is(err, ErrMalformed) hold for every MalformedError.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}
