package reporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// defaultIndent is the JSON indentation used by the file writers.
const defaultIndent = 2

// marshalIndented marshals value with the given number of spaces per
// indentation level. Zero or negative indent yields compact output.
func marshalIndented(value interface{}, indent int) ([]byte, error) {
	if indent <= 0 {
		return json.Marshal(value)
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", strings.Repeat(" ", indent))
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}
	// Encoder appends a trailing newline that Marshal does not.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// writeReportFile writes content to filename through a temporary file in
// the same directory, renamed into place only after a successful write
// and close. A failed write never leaves a truncated report behind.
func writeReportFile(filename, content string) error {
	directory := filepath.Dir(filename)
	tmp, err := os.CreateTemp(directory, filepath.Base(filename)+".*")
	if err != nil {
		return &WriteError{Path: filename, Err: err}
	}

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &WriteError{Path: filename, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &WriteError{Path: filename, Err: err}
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		os.Remove(tmp.Name())
		return &WriteError{Path: filename, Err: err}
	}
	return nil
}
