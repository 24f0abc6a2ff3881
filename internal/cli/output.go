package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitRejected     = 1 // the kernel rejected the mutation
	ExitCommandError = 2 // bad flags, unreachable storage, bad token
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns ExitCommandError for errors that are not ExitErrors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeReceipt(w io.Writer, format string, r mutation.Receipt) error {
	if format == "json" {
		return writeJSON(w, r)
	}
	switch {
	case r.Replay:
		fmt.Fprintf(w, "replayed %s version %d\n", r.Entity.ID(), r.Entity.Version())
	case r.Applied():
		fmt.Fprintf(w, "applied %s version %d\n", r.Entity.ID(), r.Entity.Version())
		for _, op := range r.Diff {
			fmt.Fprintf(w, "  %s %s %v\n", op.Op, op.Path, op.Value)
		}
	default:
		fmt.Fprintf(w, "rejected %s: %s\n", r.ErrorCode, r.ErrorMessage)
		if r.CurrentVersion != nil {
			fmt.Fprintf(w, "  current version %d\n", *r.CurrentVersion)
		}
	}
	return nil
}

func writeSnapshot(w io.Writer, format string, s mutation.Snapshot) error {
	if format == "json" {
		return writeJSON(w, s)
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %v\n", k, s[k])
	}
	return nil
}

func writeList(w io.Writer, format string, res mutation.ListResult) error {
	if format == "json" {
		return writeJSON(w, res)
	}
	for _, item := range res.Items {
		name, _ := item["name"].(string)
		if name == "" {
			name, _ = item["number"].(string)
		}
		state := ""
		if deleted, _ := item["isDeleted"].(bool); deleted {
			state = " (deleted)"
		}
		fmt.Fprintf(w, "%s v%d %s%s\n", item.ID(), item.Version(), strings.TrimSpace(name), state)
	}
	if res.NextAfter != "" {
		fmt.Fprintf(w, "next: --after %s\n", res.NextAfter)
	}
	return nil
}
