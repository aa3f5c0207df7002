package tabular

import (
	"errors"
	"io"
)

// MockReader serves pre-built tables in order, ignoring the stream contents.
type MockReader struct {
	Tables [][][]string
	next   int
}

func NewMockReader(tables ...[][]string) *MockReader {
	return &MockReader{Tables: tables}
}

func (m *MockReader) ReadTable(r io.Reader) ([][]string, error) {
	if m.next >= len(m.Tables) {
		return nil, errors.New("mock reader: no more tables")
	}
	t := m.Tables[m.next]
	m.next++
	return t, nil
}
