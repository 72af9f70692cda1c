package transfer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// recordReader reads comma-separated records. Unlike encoding/csv it keeps
// every byte of a quoted field, so "\r\n" inside a value survives a round-trip.
// Outside quotes a record ends at "\n" or "\r\n". Blank lines are skipped.
type recordReader struct {
	r      *bufio.Reader
	fields int // expected fields per record, 0 for any
	line   int // lines consumed so far
	start  int // line on which the last record began
}

func newRecordReader(r io.Reader, fields int) *recordReader {
	return &recordReader{r: bufio.NewReader(r), fields: fields}
}

// Read returns the next record, or io.EOF after the last one.
func (rr *recordReader) Read() ([]string, error) {
	for {
		if _, err := rr.r.Peek(1); err != nil {
			return nil, err
		}
		rr.line++
		rr.start = rr.line

		rec, err := rr.scanRecord()
		if err != nil {
			return nil, err
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		if rr.fields > 0 && len(rec) != rr.fields {
			return nil, fmt.Errorf("record on line %d: got %d fields, want %d", rr.start, len(rec), rr.fields)
		}
		return rec, nil
	}
}

func (rr *recordReader) scanRecord() ([]string, error) {
	var rec []string
	for {
		field, end, err := rr.scanField()
		if err != nil {
			return nil, err
		}
		rec = append(rec, field)
		if end {
			return rec, nil
		}
	}
}

// scanField returns one field and whether it was the last of its record.
func (rr *recordReader) scanField() (string, bool, error) {
	var buf []byte

	c, err := rr.r.ReadByte()
	if err == io.EOF {
		return "", true, nil
	}
	if err != nil {
		return "", false, err
	}

	if c != '"' {
		for {
			switch c {
			case ',':
				return string(buf), false, nil
			case '\n':
				return string(bytes.TrimSuffix(buf, []byte{'\r'})), true, nil
			case '"':
				return "", false, rr.syntaxError(`bare " in non-quoted field`)
			}
			buf = append(buf, c)

			c, err = rr.r.ReadByte()
			if err == io.EOF {
				return string(bytes.TrimSuffix(buf, []byte{'\r'})), true, nil
			}
			if err != nil {
				return "", false, err
			}
		}
	}

	for {
		c, err = rr.r.ReadByte()
		if err == io.EOF {
			return "", false, rr.syntaxError(`missing closing " in quoted field`)
		}
		if err != nil {
			return "", false, err
		}
		if c != '"' {
			if c == '\n' {
				rr.line++
			}
			buf = append(buf, c)
			continue
		}

		c, err = rr.r.ReadByte()
		switch {
		case err == io.EOF:
			return string(buf), true, nil
		case err != nil:
			return "", false, err
		case c == '"':
			buf = append(buf, '"')
		case c == ',':
			return string(buf), false, nil
		case c == '\n':
			return string(buf), true, nil
		case c == '\r':
			next, err := rr.r.ReadByte()
			if err == io.EOF || (err == nil && next == '\n') {
				return string(buf), true, nil
			}
			if err != nil {
				return "", false, err
			}
			return "", false, rr.syntaxError(`extraneous " in quoted field`)
		default:
			return "", false, rr.syntaxError(`extraneous " in quoted field`)
		}
	}
}

func (rr *recordReader) syntaxError(msg string) error {
	return fmt.Errorf("record on line %d: %s", rr.line, msg)
}
