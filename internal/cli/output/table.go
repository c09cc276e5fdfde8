package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
)

const ruleWidth = 60

// TableFormatter lays out Tabular results in aligned columns. Rich output
// adds rules around the header and boxes errors; it is meant for terminals.
type TableFormatter struct {
	Rich bool
}

// Format renders data as a table. Values that are not Tabular are printed
// with %v.
func (f *TableFormatter) Format(data interface{}) (string, error) {
	t, ok := data.(Tabular)
	if !ok {
		return fmt.Sprintf("%v\n", data), nil
	}
	headers, rows := t.TableRows()
	return f.formatTable(headers, rows)
}

// FormatError renders err for a human reader.
func (f *TableFormatter) FormatError(err StructuredError) (string, error) {
	var buf bytes.Buffer

	if !f.Rich {
		fmt.Fprintf(&buf, "Error: %s\n", err.Message)
		if err.Guidance != "" {
			fmt.Fprintf(&buf, "  Guidance: %s\n", err.Guidance)
		}
		if err.RecoveryCommand != "" {
			fmt.Fprintf(&buf, "  Try: %s\n", err.RecoveryCommand)
		}
		return buf.String(), nil
	}

	rule := strings.Repeat("━", ruleWidth)
	fmt.Fprintf(&buf, "%s\nError [%s]\n%s\n\n%s\n", rule, err.Code, rule, err.Message)
	if err.Guidance != "" {
		fmt.Fprintf(&buf, "\n%s\n", err.Guidance)
	}
	if err.RecoveryCommand != "" {
		fmt.Fprintf(&buf, "\nTry: %s\n", err.RecoveryCommand)
	}
	buf.WriteString("\n" + rule + "\n")
	return buf.String(), nil
}

func (f *TableFormatter) formatTable(headers []string, rows [][]string) (string, error) {
	if len(rows) == 0 {
		return "No results found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))
	if f.Rich {
		underline := make([]string, len(headers))
		for i, h := range headers {
			underline[i] = strings.Repeat("─", len(h))
		}
		fmt.Fprintln(w, strings.Join(underline, "\t"))
	}
	for _, row := range rows {
		cells := make([]string, len(headers))
		copy(cells, row)
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}

	if err := w.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
