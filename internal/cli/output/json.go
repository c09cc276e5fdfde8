package output

import (
	"bytes"
	"encoding/json"
)

// JSONFormatter writes one JSON document per call, newline terminated.
// HTML characters are left unescaped so release URLs stay readable.
type JSONFormatter struct {
	Indent bool
}

// Format encodes data as JSON.
func (f *JSONFormatter) Format(data interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatError encodes a structured error as JSON.
func (f *JSONFormatter) FormatError(err StructuredError) (string, error) {
	return f.Format(err)
}
