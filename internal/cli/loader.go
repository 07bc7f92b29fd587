package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/recall/internal/protocol"
	"github.com/roach88/recall/internal/store"
	"github.com/roach88/recall/internal/trial"
)

// loadProtocols returns the builtin protocols overlaid with those in dir.
// A protocol in dir replaces a builtin of the same name. Any error in dir
// fails the load.
func loadProtocols(dir string) (protocol.Set, error) {
	set := protocol.Builtin()
	if dir == "" {
		return set, nil
	}
	extra, errs := protocol.LoadDir(dir)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	for name, p := range extra {
		set[name] = p
	}
	return set, nil
}

// loadErrorCode returns the code carried by a protocol error.
func loadErrorCode(err error) string {
	var le *protocol.LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return protocol.ErrCodeGeneric
}

// parseParadigmFlag accepts an empty value as "any paradigm".
func parseParadigmFlag(s string) (trial.Paradigm, error) {
	if s == "" {
		return "", nil
	}
	return trial.ParseParadigm(s)
}

// openLog opens an existing session log for reading.
func openLog(driver, path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("session log %s: %w", path, err)
	}
	return store.OpenDriver(driver, path)
}
