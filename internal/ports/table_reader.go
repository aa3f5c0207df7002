package ports

import "io"

// Port: a boundary for decoding a spreadsheet into raw rows of cell text.
// Rows are headerless; header discovery is the aggregator's job.
type TableReader interface {
	// ReadTable decodes the first sheet of a spreadsheet into rows of cells.
	ReadTable(r io.Reader) ([][]string, error)
}
