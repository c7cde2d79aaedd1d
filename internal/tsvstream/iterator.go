// Package tsvstream turns a byte stream of a tab-separated show-daily file
// into a lazy sequence of header-keyed records, without buffering the
// whole file into memory. The shape generalizes the teacher's
// parse.ParseTSV/parse.ParseTSVRows (buffered scanning, hard-coded column
// indexes) into header-driven lookup so the daily computer can ask for
// "time" or "episodeId" by name instead of by position.
package tsvstream

import (
	"bufio"
	"io"
	"strings"
)

// maxLine bounds a single TSV line the way the teacher's parser does
// (1 MiB), so one pathological row can't grow the scanner buffer without
// bound.
const maxLine = 1024 * 1024

// Record is one parsed row keyed by the header's column names. A column
// absent from the row (short line) is absent from the map entirely —
// never present with an empty-string value — so callers can distinguish
// "not provided" from "explicitly empty".
type Record map[string]string

// Get returns column's value and whether it was present in this row.
func (r Record) Get(column string) (string, bool) {
	v, ok := r[column]
	return v, ok
}

// GetOr returns column's value, or fallback if the column is absent.
func (r Record) GetOr(column, fallback string) string {
	if v, ok := r[column]; ok {
		return v
	}
	return fallback
}

// Iterator is a pull-style cursor over a header-keyed TSV stream, mirroring
// the bufio.Scanner-based idiom already used by the teacher's parsers: call
// Next() in a loop, read Record() while it returns true, and check Err()
// once the loop ends.
type Iterator struct {
	scanner *bufio.Scanner
	header  []string
	rec     Record
	err     error
}

// New builds an Iterator over r. It reads and consumes the header line
// immediately (a zero-row file still needs its header parsed to report
// Err() correctly on a completely empty stream).
func New(r io.Reader) (*Iterator, error) {
	sc := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	sc.Buffer(buf, maxLine)

	it := &Iterator{scanner: sc}
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		// Empty stream: no header, no rows. Next() will simply return
		// false immediately.
		it.header = nil
		return it, nil
	}
	it.header = strings.Split(sc.Text(), "\t")
	return it, nil
}

// Next advances to the next non-empty row, decoding it against the header.
// It returns false at end of stream or on error; callers must check Err()
// once Next() returns false.
func (it *Iterator) Next() bool {
	if it.err != nil || it.header == nil {
		return false
	}
	for it.scanner.Scan() {
		line := it.scanner.Text()
		if line == "" {
			// Skip empty trailing lines silently, per the line-iterator
			// contract.
			continue
		}
		fields := strings.Split(line, "\t")
		rec := make(Record, len(it.header))
		for i, col := range it.header {
			if i < len(fields) {
				rec[col] = fields[i]
			}
			// Columns beyond the header width for this row are simply
			// dropped; columns the header has but this row doesn't reach
			// are left absent, not empty-stringed.
		}
		it.rec = rec
		return true
	}
	it.err = it.scanner.Err()
	return false
}

// Record returns the row decoded by the most recent successful Next().
func (it *Iterator) Record() Record { return it.rec }

// Err returns the first error encountered, if any, once iteration has
// stopped.
func (it *Iterator) Err() error { return it.err }
