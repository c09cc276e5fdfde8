package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type versionRow struct {
	Current string `json:"current" yaml:"current"`
	Latest  string `json:"latest" yaml:"latest"`
}

func (v versionRow) TableRows() ([]string, [][]string) {
	return []string{"CURRENT", "LATEST"}, [][]string{{v.Current, v.Latest}}
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name       string
		outputFlag string
		jsonFlag   bool
		env        string
		want       string
	}{
		{"json flag takes precedence", "table", true, "", "json"},
		{"output flag works alone", "yaml", false, "", "yaml"},
		{"env used when no flag", "", false, "yaml", "yaml"},
		{"flag beats env", "json", false, "yaml", "json"},
		{"default is table", "", false, "", "table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOutput, tt.env)
			assert.Equal(t, tt.want, ResolveFormat(tt.outputFlag, tt.jsonFlag))
		})
	}
}

func TestNewFormatter(t *testing.T) {
	for _, format := range []string{"json", "JSON", "yaml", "table", ""} {
		f, err := NewFormatter(format, &bytes.Buffer{})
		require.NoError(t, err, format)
		assert.NotNil(t, f)
	}

	_, err := NewFormatter("xml", &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown output format")

	f, err := NewFormatter("table", &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, f.(*TableFormatter).Rich, "plain tables when not writing to a terminal")
}

type releaseInfo struct {
	Version string `json:"version" yaml:"version"`
	URL     string `json:"url" yaml:"url"`
}

func TestFormatters(t *testing.T) {
	row := versionRow{Current: "v2.0.5", Latest: "v2.1.0"}

	t.Run("json", func(t *testing.T) {
		out, err := (&JSONFormatter{Indent: true}).Format(row)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(out, "}\n"), "newline terminated")
		var decoded versionRow
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.Equal(t, row, decoded)
	})

	t.Run("json keeps URLs readable", func(t *testing.T) {
		out, err := (&JSONFormatter{}).Format(releaseInfo{Version: "v2.1.0", URL: "https://example.test/dl?os=linux&arch=amd64"})
		require.NoError(t, err)
		assert.Equal(t, `{"version":"v2.1.0","url":"https://example.test/dl?os=linux&arch=amd64"}`+"\n", out)
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := (&YAMLFormatter{}).Format(row)
		require.NoError(t, err)
		assert.Equal(t, "current: v2.0.5\nlatest: v2.1.0\n", out)
		var decoded versionRow
		require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
		assert.Equal(t, row, decoded)
	})

	t.Run("table uses Tabular", func(t *testing.T) {
		out, err := (&TableFormatter{}).Format(row)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, []string{"CURRENT", "LATEST"}, strings.Fields(lines[0]))
		assert.Equal(t, []string{"v2.0.5", "v2.1.0"}, strings.Fields(lines[1]))
	})

	t.Run("rich table underlines headers", func(t *testing.T) {
		out, err := (&TableFormatter{Rich: true}).Format(row)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[1], "───────")
	})

	t.Run("table falls back to %v", func(t *testing.T) {
		out, err := (&TableFormatter{}).Format("plain")
		require.NoError(t, err)
		assert.Equal(t, "plain\n", out)
	})

	t.Run("empty table", func(t *testing.T) {
		out, err := (&TableFormatter{}).formatTable([]string{"A"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "No results found\n", out)
	})
}

func TestStructuredError(t *testing.T) {
	se := NewStructuredError(ErrCodeUpdateCheckFailed, "unable to reach the release server").
		WithGuidance("Check your network connection").
		WithRecoveryCommand("streamline-control update check")

	wrapped := fmt.Errorf("check: %w", se)
	got := FromError(wrapped, ErrCodeUpdateApplyFailed)
	assert.Equal(t, se, got)

	plain := FromError(errors.New("boom"), ErrCodeUpdateApplyFailed)
	assert.Equal(t, StructuredError{Code: ErrCodeUpdateApplyFailed, Message: "boom"}, plain)

	out, err := (&TableFormatter{}).FormatError(se)
	require.NoError(t, err)
	assert.Equal(t, "Error: unable to reach the release server\n"+
		"  Guidance: Check your network connection\n"+
		"  Try: streamline-control update check\n", out)

	rich, err := (&TableFormatter{Rich: true}).FormatError(se)
	require.NoError(t, err)
	assert.Contains(t, rich, "Error [UPDATE_CHECK_FAILED]")

	jsonOut, err := (&JSONFormatter{}).FormatError(se)
	require.NoError(t, err)
	assert.Contains(t, jsonOut, `"code":"UPDATE_CHECK_FAILED"`)
}
