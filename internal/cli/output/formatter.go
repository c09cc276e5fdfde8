// Package output renders command results as a table, JSON or YAML, and
// reports failures as structured errors in the same format.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// EnvOutput selects the default output format when -o is not given.
const EnvOutput = "STREAMLINE_OUTPUT"

// Formatter renders a command result or a structured error.
type Formatter interface {
	Format(data interface{}) (string, error)
	FormatError(err StructuredError) (string, error)
}

// Tabular is implemented by results that know how to lay themselves out as
// a table.
type Tabular interface {
	TableRows() (headers []string, rows [][]string)
}

// NewFormatter creates a formatter for format (table, json or yaml, case
// insensitive) writing to out. Tables are rich only when out is a terminal
// and NO_COLOR is unset.
func NewFormatter(format string, out io.Writer) (Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return &JSONFormatter{Indent: true}, nil
	case "yaml":
		return &YAMLFormatter{}, nil
	case "table", "":
		return &TableFormatter{Rich: isTerminal(out) && os.Getenv("NO_COLOR") == ""}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s (valid: table, json, yaml)", format)
	}
}

// ResolveFormat determines the output format from flags and environment.
// Priority: --json, then -o, then STREAMLINE_OUTPUT, then table.
func ResolveFormat(outputFlag string, jsonFlag bool) string {
	if jsonFlag {
		return "json"
	}
	if outputFlag != "" {
		return outputFlag
	}
	if envFormat := os.Getenv(EnvOutput); envFormat != "" {
		return envFormat
	}
	return "table"
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
