package transfer

import (
	"io"
	"slices"
	"strings"
	"testing"
)

func readAll(t *testing.T, input string, fields int) ([][]string, error) {
	t.Helper()
	rr := newRecordReader(strings.NewReader(input), fields)
	var out [][]string
	for {
		rec, err := rr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

func TestRecordReader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{"plain", "a,b\nc,d\n", [][]string{{"a", "b"}, {"c", "d"}}},
		{"crlf line endings", "a,b\r\nc,d\r\n", [][]string{{"a", "b"}, {"c", "d"}}},
		{"no final newline", "a,b\nc,", [][]string{{"a", "b"}, {"c", ""}}},
		{"quoted crlf kept", "\"x\r\ny\",b\r\n", [][]string{{"x\r\ny", "b"}}},
		{"quoted lone cr kept", "\"x\r\",\"\r\"\n", [][]string{{"x\r", "\r"}}},
		{"escaped quote and comma", "\"say \"\"hi\"\", ok\",\"\"\n", [][]string{{"say \"hi\", ok", ""}}},
		{"blank lines skipped", "\na,b\n\r\n", [][]string{{"a", "b"}}},
		{"spaces kept", " , \n", [][]string{{" ", " "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readAll(t, tt.input, 2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.EqualFunc(got, tt.want, slices.Equal[[]string]) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecordReader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"unterminated quote", "a,\"b\n", "missing closing"},
		{"bare quote", "a,b\"c\n", "bare"},
		{"text after closing quote", "\"a\"b,c\n", "extraneous"},
		{"field count", "a,b\na\n", "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readAll(t, tt.input, 2)
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestRecordReader_LineOfMultilineRecord(t *testing.T) {
	rr := newRecordReader(strings.NewReader("a,\"1\n2\n3\"\nb,c\n"), 2)
	if _, err := rr.Read(); err != nil || rr.start != 1 {
		t.Fatalf("first record: start %d, err %v", rr.start, err)
	}
	if _, err := rr.Read(); err != nil || rr.start != 4 {
		t.Errorf("second record should start on line 4, got %d, err %v", rr.start, err)
	}
}
