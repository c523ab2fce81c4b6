package csvimport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// CSVParser reads UTF-8 CSV files row by row, mapping fields to header names.
// Rows are 1-indexed with the header occupying row 1, so error reports line up
// with what the operator sees in a spreadsheet.
type CSVParser struct {
	delimiter rune
	headers   []string
	colIndex  map[string]int
	lastRow   int
	reader    *csv.Reader
}

// ParserOption configures a CSVParser
type ParserOption func(*CSVParser)

// WithDelimiter sets the field delimiter (default comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) { p.delimiter = d }
}

// NewCSVParser wraps a reader, strips a UTF-8 BOM if present, and rejects
// empty or non-UTF-8 content before any rows are read.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	p := &CSVParser{
		delimiter: ',',
		colIndex:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}

	buf := bufio.NewReader(r)
	if err := stripBOM(buf); err != nil {
		return nil, err
	}
	if err := verifyUTF8(buf); err != nil {
		return nil, err
	}

	p.reader = csv.NewReader(buf)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1

	return p, nil
}

func stripBOM(buf *bufio.Reader) error {
	head, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}
	return nil
}

// verifyUTF8 peeks at the start of the stream and requires non-empty,
// valid UTF-8 content.
func verifyUTF8(buf *bufio.Reader) error {
	const window = 4096
	content, err := buf.Peek(window)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(content) == 0 {
		return ErrEmptyFile
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}

// ParseHeader consumes the header row and records column positions
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, len(record))
	for i, h := range record {
		name := strings.TrimSpace(h)
		p.headers[i] = name
		p.colIndex[name] = i
	}
	if len(p.headers) == 0 {
		return ErrMissingHeader
	}

	p.lastRow = 1
	return nil
}

// Headers returns the parsed header names in column order
func (p *CSVParser) Headers() []string {
	return p.headers
}

// HasHeader reports whether a column with the given name exists
func (p *CSVParser) HasHeader(name string) bool {
	_, ok := p.colIndex[name]
	return ok
}

// ValidateHeaders returns the names from required that are absent
func (p *CSVParser) ValidateHeaders(required []string) []string {
	var missing []string
	for _, name := range required {
		if !p.HasHeader(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// ReadRow returns the next data row, or io.EOF when the file is exhausted.
// Short rows are padded with empty strings; extra fields are dropped.
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.lastRow++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.lastRow, err)
	}

	row := &Row{
		LineNumber: p.lastRow,
		Data:       make(map[string]string, len(p.headers)),
	}
	for i, header := range p.headers {
		var value string
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}
		row.Data[header] = value
	}
	return row, nil
}

// CurrentRow returns the 1-indexed number of the last row read
func (p *CSVParser) CurrentRow() int {
	return p.lastRow
}

// Row is one parsed CSV data row keyed by header name
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value for a column, or "" when the column is absent
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// GetOrDefault returns the value for a column, or defaultVal when empty
func (r *Row) GetOrDefault(header, defaultVal string) string {
	if val, ok := r.Data[header]; ok && val != "" {
		return val
	}
	return defaultVal
}

// IsEmpty reports whether every field in the row is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// Values copies the row into the loosely typed shape used for previews.
func (r *Row) Values() map[string]any {
	values := make(map[string]any, len(r.Data))
	for k, v := range r.Data {
		values[k] = v
	}
	return values
}
