package scoring

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned for input on which a score is undefined:
// an empty presented list, a serial response longer than the list, or an
// unknown paradigm. Test with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
