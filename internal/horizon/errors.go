package horizon

import (
	"errors"
	"fmt"

	"github.com/Harshitk-cp/timely/internal/timecodec"
)

var (
	ErrVerificationFailed = errors.New("verification failed")
	ErrMissingParameter   = errors.New("missing parameter")
	ErrMalformedParameter = errors.New("malformed parameter")
	ErrBoundsUnsupported  = errors.New("bounds unsupported")
	ErrNaiveTimestamp     = timecodec.ErrNaiveTimestamp
)

// Error is returned by every failed evaluation. Kind is one of the sentinel
// errors above and can be matched with errors.Is.
type Error struct {
	Kind  error
	Rule  string
	Param string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == ErrVerificationFailed:
		return fmt.Sprintf("knowledge horizon function %q cannot be executed safely: not a registered rule", e.Rule)
	case e.Param != "" && e.Err != nil:
		return fmt.Sprintf("%s: rule %q, parameter %q: %v", e.Kind, e.Rule, e.Param, e.Err)
	case e.Param != "":
		return fmt.Sprintf("%s: rule %q, parameter %q", e.Kind, e.Rule, e.Param)
	case e.Err != nil:
		return fmt.Sprintf("%s: rule %q: %v", e.Kind, e.Rule, e.Err)
	default:
		return fmt.Sprintf("%s: rule %q", e.Kind, e.Rule)
	}
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}
