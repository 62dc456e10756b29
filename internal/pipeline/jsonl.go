package pipeline

import (
	"bufio"
	"bytes"
	"encoding/json/v2"
	"fmt"
	"io"

	"github.com/sportmap/sportmap-enricher/internal/domain"
)

// maxLineSize bounds a single input record.
const maxLineSize = 1 << 20

// RecordReader reads one JSON object per line. Blank lines are skipped.
type RecordReader struct {
	scanner *bufio.Scanner
	line    int
}

// NewRecordReader wraps r.
func NewRecordReader(r io.Reader) *RecordReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &RecordReader{scanner: s}
}

// Next returns the next record. It returns io.EOF at the end of input and a
// *LineError for lines that are not JSON objects; reading may continue after
// a LineError.
func (rr *RecordReader) Next() (domain.Record, error) {
	for rr.scanner.Scan() {
		rr.line++
		line := bytes.TrimSpace(rr.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec domain.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, &LineError{Line: rr.line, Err: err}
		}
		return rec, nil
	}
	if err := rr.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// LineError reports an input line that could not be decoded.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ViewWriter writes one JSON value per line.
type ViewWriter struct {
	w *bufio.Writer
}

// NewViewWriter wraps w. Call Flush when done.
func NewViewWriter(w io.Writer) *ViewWriter {
	return &ViewWriter{w: bufio.NewWriter(w)}
}

// EncodeError reports a value that could not be encoded. Nothing was written.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return "encode view: " + e.Err.Error() }

func (e *EncodeError) Unwrap() error { return e.Err }

// Write encodes v followed by a newline. An encoding failure returns
// *EncodeError and leaves the output untouched.
func (vw *ViewWriter) Write(v any) error {
	data, err := json.Marshal(v, json.Deterministic(true))
	if err != nil {
		return &EncodeError{Err: err}
	}
	data = append(data, '\n')
	_, err = vw.w.Write(data)
	return err
}

// Flush writes any buffered output.
func (vw *ViewWriter) Flush() error {
	return vw.w.Flush()
}
