package session

import (
	"errors"
	"fmt"
)

// RunErrorCode categorizes failures inside a block.
type RunErrorCode string

const (
	ErrCodeGenerateFailed RunErrorCode = "GENERATE_FAILED"
	ErrCodePresentFailed  RunErrorCode = "PRESENT_FAILED"
	ErrCodeResponseFailed RunErrorCode = "RESPONSE_FAILED"
	ErrCodeScoreFailed    RunErrorCode = "SCORE_FAILED"
	ErrCodeSinkFailed     RunErrorCode = "SINK_FAILED"
)

// RunError is a failure on a specific trial of a block.
type RunError struct {
	Code    RunErrorCode
	Message string

	// Trial is the 1-based trial index, 0 when the failure is not tied to
	// a trial.
	Trial int

	Err error
}

func (e *RunError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Trial > 0 {
		return fmt.Sprintf("%s: trial %d: %s", e.Code, e.Trial, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// IsSinkError reports whether err is a RunError raised by a sink.
func IsSinkError(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == ErrCodeSinkFailed
	}
	return false
}

func runError(code RunErrorCode, index int, msg string, err error) *RunError {
	return &RunError{Code: code, Message: msg, Trial: index, Err: err}
}
