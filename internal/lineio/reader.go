// Package lineio supplies the REPL driver with one input line at a time,
// from either the interactive terminal or a batch file: a line, or a
// clean EOF signal distinct from a read error.
package lineio

import (
	"bufio"
	"io"
)

// Reader reads newline-terminated lines from an underlying stream.
type Reader struct {
	scanner *bufio.Scanner
}

// New wraps r for line-oriented reading.
func New(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// ReadLine returns the next line (without its trailing newline), or
// io.EOF once the stream is exhausted. A non-EOF error indicates a
// genuine read failure from the underlying stream.
func (r *Reader) ReadLine() (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
