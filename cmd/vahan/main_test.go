package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workspace struct {
	config  string
	raw     string
	cleaned string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	ws := workspace{
		config:  filepath.Join(dir, "config.yaml"),
		raw:     filepath.Join(dir, "raw", "vehicle_data_raw.csv"),
		cleaned: filepath.Join(dir, "processed", "vehicle_data_cleaned.csv"),
	}

	yaml := fmt.Sprintf(`logging:
  level: error
paths:
  data_dir: %q
  raw_path: %q
  cleaned_path: %q
source:
  kind: sample
  sample_months: 12
  sample_seed: 42
`, dir, ws.raw, ws.cleaned)
	require.NoError(t, os.WriteFile(ws.config, []byte(yaml), 0644))
	return ws
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSampleCleanSummaryTop(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "sample", "--config", ws.config, "--months", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "Generated sample dataset")
	assert.FileExists(t, ws.raw)

	out, err = execute(t, "clean", "--config", ws.config)
	require.NoError(t, err)
	assert.Contains(t, out, "Rows out")
	assert.FileExists(t, ws.cleaned)

	out, err = execute(t, "summary", "--config", ws.config)
	require.NoError(t, err)
	assert.Contains(t, out, "Registration summary")
	assert.Contains(t, out, "YoY")
	assert.Contains(t, out, "Category mix")

	out, err = execute(t, "top", "--config", ws.config, "-n", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Top manufacturers")
	assert.Contains(t, out, "Manufacturer")
}

func TestRunCommand(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "run", "--config", ws.config)
	require.NoError(t, err)
	assert.Contains(t, out, "Pipeline run")
	assert.Contains(t, out, "sample")
	assert.FileExists(t, ws.raw)
	assert.FileExists(t, ws.cleaned)
}

func TestFetchCommand_WritesRaw(t *testing.T) {
	ws := newWorkspace(t)
	out := filepath.Join(filepath.Dir(ws.raw), "fetched.csv")

	stdout, err := execute(t, "fetch", "--config", ws.config, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Fetched raw table")
	assert.FileExists(t, out)
}

func TestSummary_MissingCleanedFile(t *testing.T) {
	ws := newWorkspace(t)

	_, err := execute(t, "summary", "--config", ws.config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestTop_InvalidWindow(t *testing.T) {
	ws := newWorkspace(t)

	_, err := execute(t, "top", "--config", ws.config, "--start", "2023-13-01")
	assert.Error(t, err)

	_, err = execute(t, "top", "--config", ws.config, "--start", "2023-06-01", "--end", "2023-01-01")
	assert.Error(t, err)
}

func TestParseWindow(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return d
	}

	w, err := parseWindow("", "")
	require.NoError(t, err)
	assert.Nil(t, w)

	w, err = parseWindow("2023-01-01", "")
	require.NoError(t, err)
	assert.Equal(t, day("2023-01-01"), w.Start)
	assert.True(t, w.End.IsZero())
	assert.True(t, w.Contains(day("2030-01-01")))

	w, err = parseWindow("", "2023-03-31")
	require.NoError(t, err)
	assert.True(t, w.Contains(day("2000-01-01")))
	assert.False(t, w.Contains(day("2023-04-01")))

	_, err = parseWindow("01/02/2023", "")
	assert.Error(t, err)
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45000, "-45,000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatCount(tt.in))
	}
}
