package transfer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/chembank/chembank/pkg/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// tableWriter writes one delimited table: UTF-8 with a byte-order mark, a
// header row, then one row per entity.
type tableWriter struct {
	name string
	file *os.File
	enc  io.WriteCloser
	csv  *csv.Writer
	rows int
}

func createTable(dir, name string, header []string) (*tableWriter, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, errors.New(errors.ErrStorageFailure, name, "export", err)
	}
	enc := transform.NewWriter(f, unicode.UTF8BOM.NewEncoder())
	t := &tableWriter{name: name, file: f, enc: enc, csv: csv.NewWriter(enc)}
	if err := t.csv.Write(header); err != nil {
		f.Close()
		return nil, errors.New(errors.ErrStorageFailure, name, "export", err)
	}
	return t, nil
}

func (t *tableWriter) Write(record []string) error {
	if err := t.csv.Write(record); err != nil {
		return errors.New(errors.ErrStorageFailure, t.name, "export", err)
	}
	t.rows++
	return nil
}

// Close flushes and closes the table. It must be called exactly once.
func (t *tableWriter) Close() error {
	t.csv.Flush()
	err := t.csv.Error()
	if cerr := t.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := t.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.New(errors.ErrStorageFailure, t.name, "export", err)
	}
	return nil
}

// tableReader reads a table written by tableWriter. A leading byte-order mark
// is skipped when present and the header must match exactly.
type tableReader struct {
	name string
	file *os.File
	rec  *recordReader
}

func openTable(dir, name string, header []string) (*tableReader, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrMalformedInput, name, "import", err)
		}
		return nil, errors.New(errors.ErrStorageFailure, name, "import", err)
	}

	r := newRecordReader(transform.NewReader(f, unicode.UTF8BOM.NewDecoder()), len(header))

	got, err := r.Read()
	if err != nil {
		f.Close()
		return nil, errors.New(errors.ErrMalformedInput, name, "import", fmt.Errorf("read header: %w", err))
	}
	if !slices.Equal(got, header) {
		f.Close()
		return nil, errors.Newf(errors.ErrMalformedInput, name, "import", "header %v, want %v", got, header)
	}
	return &tableReader{name: name, file: f, rec: r}, nil
}

// Next returns the next record, or io.EOF after the last one.
func (t *tableReader) Next() ([]string, error) {
	rec, err := t.rec.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errors.New(errors.ErrMalformedInput, t.name, "import", err)
	}
	return rec, nil
}

func (t *tableReader) Close() error {
	return t.file.Close()
}

// line reports the line of the record returned by the last Next call.
func (t *tableReader) line() int {
	return t.rec.start
}

// Field codecs. An empty field is NULL.

func formatOptString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatOptFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}

func formatUint(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}

// fieldParser accumulates the first parse error of a record.
type fieldParser struct {
	table  string
	line   int
	header []string
	err    error
}

func (p *fieldParser) fail(col int, value string, err error) {
	if p.err == nil {
		p.err = errors.New(errors.ErrMalformedInput, p.table, "import",
			fmt.Errorf("line %d column %s value %q: %w", p.line, p.header[col], value, err))
	}
}

func (p *fieldParser) uintField(rec []string, col int) uint32 {
	v, err := strconv.ParseUint(rec[col], 10, 32)
	if err != nil {
		p.fail(col, rec[col], err)
	}
	return uint32(v)
}

func (p *fieldParser) int8Field(rec []string, col int) int8 {
	v, err := strconv.ParseInt(rec[col], 10, 8)
	if err != nil {
		p.fail(col, rec[col], err)
	}
	return int8(v)
}

func (p *fieldParser) floatField(rec []string, col int) *float64 {
	if rec[col] == "" {
		return nil
	}
	v, err := strconv.ParseFloat(rec[col], 64)
	if err != nil {
		p.fail(col, rec[col], err)
		return nil
	}
	return &v
}

func (p *fieldParser) stringField(rec []string, col int) *string {
	if rec[col] == "" {
		return nil
	}
	s := rec[col]
	return &s
}
