package protocol

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Load error codes, shared with the CLI.
const (
	ErrCodeGeneric     = "E001" // generic or unknown error
	ErrCodeScanError   = "E002" // directory scan error
	ErrCodeNoFiles     = "E003" // no CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
)

//go:embed builtin.cue
var builtinSource []byte

// LoadError is a problem found while loading protocols.
type LoadError struct {
	Code     string
	Protocol string
	Field    string
	Message  string
	Pos      token.Pos
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, "%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	b.WriteString(e.Code)
	b.WriteString(": ")
	if e.Protocol != "" {
		b.WriteString("protocol." + e.Protocol)
		if e.Field != "" {
			b.WriteString("." + e.Field)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// Builtin returns the embedded default protocols.
func Builtin() Set {
	set, errs := LoadBytes("builtin.cue", builtinSource)
	if len(errs) > 0 {
		panic(fmt.Sprintf("builtin protocols: %v", errors.Join(errs...)))
	}
	return set
}

// LoadDir loads every protocol declared in the .cue files of dir.
// All errors are collected; the returned set holds the valid protocols.
func LoadDir(dir string) (Set, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("protocol directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("accessing protocol directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	// Files are compiled one by one and unified, so a package clause is
	// optional and files in subdirectories join the same set.
	sort.Strings(files)
	ctx := cuecontext.New()
	var value cue.Value
	var errs []error
	loaded := false
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)})
			continue
		}
		v := ctx.CompileBytes(src, cue.Filename(path))
		if err := v.Err(); err != nil {
			errs = append(errs, buildError(err))
			continue
		}
		if !loaded {
			value, loaded = v, true
			continue
		}
		value = value.Unify(v)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if err := value.Err(); err != nil {
		return nil, []error{buildError(err)}
	}
	return fromValue(value)
}

// LoadBytes loads protocols from a single CUE source.
func LoadBytes(filename string, src []byte) (Set, []error) {
	value := cuecontext.New().CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, []error{buildError(err)}
	}
	return fromValue(value)
}

// FindCUEFiles walks dir and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func fromValue(value cue.Value) (Set, []error) {
	root := value.LookupPath(cue.ParsePath("protocol"))
	if !root.Exists() {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: "no protocol struct found"}}
	}
	iter, err := root.Fields()
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating protocols: %v", err)}}
	}

	set := Set{}
	var errs []error
	for iter.Next() {
		name := iter.Selector().Unquoted()
		p, err := Compile(name, iter.Value())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if verrs := Validate(p); len(verrs) > 0 {
			for _, ve := range verrs {
				errs = append(errs, &LoadError{
					Code:     ve.Code,
					Protocol: name,
					Field:    ve.Field,
					Message:  ve.Message,
					Pos:      iter.Value().Pos(),
				})
			}
			continue
		}
		set[name] = p
	}
	if len(set) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "protocol struct is empty"})
	}
	return set, errs
}

// knownFields are the CUE field names a protocol may declare.
var knownFields = func() map[string]bool {
	out := map[string]bool{}
	t := reflect.TypeOf(Protocol{})
	for i := 0; i < t.NumField(); i++ {
		name := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
		if name != "" && name != "-" && name != "name" {
			out[name] = true
		}
	}
	return out
}()

// Compile decodes one protocol value and applies defaults. The name comes
// from the struct label, not from the value.
func Compile(name string, v cue.Value) (*Protocol, error) {
	if err := v.Err(); err != nil {
		return nil, buildError(err)
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Protocol: name, Message: "protocol must be a struct", Pos: v.Pos()}
	}
	for iter.Next() {
		label := iter.Selector().Unquoted()
		if !knownFields[label] {
			return nil, &LoadError{
				Code:     ErrCodeGeneric,
				Protocol: name,
				Field:    label,
				Message:  "unknown field",
				Pos:      iter.Value().Pos(),
			}
		}
	}

	var p Protocol
	if err := v.Decode(&p); err != nil {
		le := buildError(err)
		le.Protocol = name
		return nil, le
	}
	p.Name = name
	p.ApplyDefaults()
	return &p, nil
}

// buildError converts a CUE error to a LoadError, keeping the first position.
func buildError(err error) *LoadError {
	le := &LoadError{Code: ErrCodeBuildFailed, Message: err.Error()}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Message = errs[0].Error()
		if pos := cueerrors.Positions(errs[0]); len(pos) > 0 {
			le.Pos = pos[0]
		}
	}
	return le
}
