// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/poiesic/vesselflow/core"
)

// Chunker splits a CSV source into fixed-size, order-preserving chunks
// without ever materializing the whole input. The sequence is lazy, finite,
// and non-restartable. The Chunker is the sole owner of the row-ceiling
// arithmetic: once rowLimit records have been emitted the final chunk is
// truncated and the sequence ends, so no other component duplicates that
// logic.
type Chunker struct {
	file      io.Closer
	reader    *csv.Reader
	header    []string
	chunkSize int
	rowLimit  int
	emitted   int
	badRows   int
	done      bool
}

// Open opens a CSV file and prepares a Chunker over it.
// rowLimit <= 0 means no ceiling.
// Fails with ErrSourceUnreadable if the file cannot be opened or its
// header row cannot be read.
func Open(path string, chunkSize, rowLimit int) (*Chunker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}

	c, err := NewChunker(f, chunkSize, rowLimit)
	if err != nil {
		f.Close()
		return nil, err
	}
	c.file = f
	return c, nil
}

// NewChunker prepares a Chunker over an already-open reader. The header
// row is consumed immediately.
func NewChunker(r io.Reader, chunkSize, rowLimit int) (*Chunker, error) {
	if chunkSize < 1 {
		chunkSize = 1
	}

	reader := csv.NewReader(bufio.NewReader(r))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", ErrSourceUnreadable, err)
	}

	return &Chunker{
		reader:    reader,
		header:    core.CleanHeader(header),
		chunkSize: chunkSize,
		rowLimit:  rowLimit,
	}, nil
}

// Header returns the cleaned column names.
func (c *Chunker) Header() []string {
	return c.header
}

// Next produces the next chunk of up to chunkSize records in input order.
// Returns io.EOF when the source or the row ceiling is exhausted.
// Malformed rows are skipped and counted, never fatal.
func (c *Chunker) Next() ([]*core.Record, error) {
	if c.done {
		return nil, io.EOF
	}

	chunk := make([]*core.Record, 0, c.chunkSize)
	for len(chunk) < c.chunkSize {
		if c.rowLimit > 0 && c.emitted >= c.rowLimit {
			c.done = true
			break
		}

		row, err := c.reader.Read()
		if err == io.EOF {
			c.done = true
			break
		}
		if err != nil {
			c.badRows++
			continue
		}

		chunk = append(chunk, core.RecordFromRow(c.header, row))
		c.emitted++
	}

	if len(chunk) == 0 {
		return nil, io.EOF
	}
	return chunk, nil
}

// Emitted returns how many records have been produced so far.
func (c *Chunker) Emitted() int {
	return c.emitted
}

// BadRows returns how many malformed rows were skipped.
func (c *Chunker) BadRows() int {
	return c.badRows
}

// Close closes the underlying file, if the Chunker owns one.
func (c *Chunker) Close() error {
	if c.file != nil {
		return c.file.Close()
	}
	return nil
}

// CountRows counts the data rows in a CSV file, excluding the header.
// Used for the preflight banner before a large ingest. Rows are counted
// with a CSV reader rather than by physical lines, so quoted fields that
// span lines do not inflate the number.
func CountRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	defer f.Close()

	reader := csv.NewReader(bufio.NewReader(f))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	count := 0
	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		count++
	}
	if count > 0 {
		count-- // header
	}
	return count, nil
}
