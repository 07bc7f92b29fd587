package protocol

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/recall/internal/trial"
)

// Validation error codes (E100-E199).
const (
	ErrCodeName       = "E100" // protocol name missing
	ErrCodeParadigm   = "E101" // paradigm missing or unknown
	ErrCodeExperiment = "E102" // experiment missing or not a folder-safe name
	ErrCodeTrials     = "E103" // trials outside 1..500
	ErrCodeFreeOption = "E104" // bad condition, similarity or timing value
	ErrCodeSerialOpt  = "E105" // bad rate or post_phase value
	ErrCodeWrongParad = "E106" // option set that the paradigm does not use
	ErrCodePairs      = "E107" // malformed phonological_pairs
)

// ValidationError is one problem found in a protocol.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks p and returns every problem found. It does not stop at
// the first error.
func Validate(p *Protocol) []ValidationError {
	var errs []ValidationError

	if err := validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return []ValidationError{{Field: "protocol", Message: err.Error(), Code: ErrCodeName}}
		}
		for _, fe := range fieldErrs {
			errs = append(errs, ValidationError{
				Field:   fe.Field(),
				Message: describe(fe),
				Code:    codeFor(fe.Field()),
			})
		}
	}

	switch p.Paradigm {
	case trial.ParadigmFree:
		for field, set := range map[string]bool{
			"rate":       p.Rate != "",
			"post_phase": p.PostPhase != "",
			"chunking":   p.Chunking,
		} {
			if set {
				errs = append(errs, wrongParadigm(field, p.Paradigm))
			}
		}
	case trial.ParadigmSerial:
		for field, set := range map[string]bool{
			"similarity":   p.Similarity != "",
			"chunked":      p.Chunked,
			"on_ms":        p.OnMS != 0,
			"blank_ms":     p.BlankMS != 0,
			"retention_ms": p.RetentionMS != 0,
		} {
			if set {
				errs = append(errs, wrongParadigm(field, p.Paradigm))
			}
		}
	}

	if p.BlankMS != 0 && p.OnMS == 0 {
		errs = append(errs, ValidationError{
			Field:   "blank_ms",
			Message: "blank_ms requires on_ms",
			Code:    ErrCodeFreeOption,
		})
	}

	for i, pair := range p.PhonologicalPairs {
		if len(pair) == 2 && pair[0] == pair[1] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("phonological_pairs[%d]", i),
				Message: fmt.Sprintf("letter %q paired with itself", pair[0]),
				Code:    ErrCodePairs,
			})
		}
	}

	sortErrors(errs)
	return errs
}

func wrongParadigm(field string, p trial.Paradigm) ValidationError {
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("not used by %s protocols", p),
		Code:    ErrCodeWrongParad,
	}
}

func codeFor(field string) string {
	switch {
	case field == "name":
		return ErrCodeName
	case field == "paradigm":
		return ErrCodeParadigm
	case field == "experiment":
		return ErrCodeExperiment
	case field == "trials":
		return ErrCodeTrials
	case field == "rate", field == "post_phase":
		return ErrCodeSerialOpt
	case strings.HasPrefix(field, "phonological_pairs"):
		return ErrCodePairs
	default:
		return ErrCodeFreeOption
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	case "alphanum":
		return "must contain only letters and digits"
	case "alpha", "uppercase":
		return fmt.Sprintf("must be an uppercase letter, got %q", fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

// sortErrors orders errors by code, then field, so output is stable.
func sortErrors(errs []ValidationError) {
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Code != errs[j].Code {
			return errs[i].Code < errs[j].Code
		}
		return errs[i].Field < errs[j].Field
	})
}
