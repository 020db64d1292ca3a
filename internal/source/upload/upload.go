// Package upload turns an uploaded CSV or XLSX file into a raw Dataset.
package upload

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/deng0529/GUItest-building-heating/internal/dataset"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmpty is returned when the file has no header row.
	ErrEmpty = errors.New("file has no header row")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse dispatches on the file extension.
func Parse(filename string, r io.Reader) (*dataset.Dataset, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return ParseCSV(r)
	case ".xlsx", ".xlsm":
		return ParseXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ParseCSV reads a delimited text file whose first row is the header. The
// delimiter (comma, semicolon or tab) is sniffed from the header line.
func ParseCSV(r io.Reader) (*dataset.Dataset, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	firstLine, _ := br.Peek(peekSize(br))

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = sniffDelimiter(firstLine)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return build(header, records)
}

// ParseXLSX reads the first worksheet of a workbook; the first row is the header.
func ParseXLSX(r io.Reader) (*dataset.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return build(rows[0], rows[1:])
}

func build(header []string, records [][]string) (*dataset.Dataset, error) {
	header = dedupeHeader(header)
	if len(header) == 0 {
		return nil, ErrEmpty
	}
	// Drop fully blank lines, which spreadsheets like to leave at the end.
	kept := records[:0:0]
	for _, rec := range records {
		if !blank(rec) {
			kept = append(kept, rec)
		}
	}
	return dataset.FromRecords(header, kept), nil
}

// dedupeHeader trims names and suffixes repeats as name.1, name.2, ... the
// way spreadsheet exports usually do. Empty names become Unnamed: i.
func dedupeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		candidate := name
		for n := 1; seen[candidate]; n++ {
			candidate = name + "." + strconv.Itoa(n)
		}
		seen[candidate] = true
		out[i] = candidate
	}
	return out
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func sniffDelimiter(line []byte) rune {
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestN := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

func peekSize(br *bufio.Reader) int {
	n := br.Buffered()
	if n == 0 {
		// Fill the buffer; an error here surfaces again on the real read.
		_, _ = br.Peek(1)
		n = br.Buffered()
	}
	return n
}
