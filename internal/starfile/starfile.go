// Package starfile reads and writes STAR metadata files, the tabular
// plain-text format used by cryo-EM processing suites.
//
// A file is a sequence of data blocks. Each block starts with a "data_NAME"
// line and holds either key/value pairs:
//
//	data_pipeline_general
//
//	_rlnPipeLineName    default
//
// or a single table introduced by "loop_":
//
//	data_pipeline_nodes
//
//	loop_
//	_rlnPipeLineNodeName #1
//	_rlnPipeLineNodeType #2
//	Import/job001/movies.star 0
//
// Values are separated by whitespace; values that contain whitespace or would
// otherwise be mistaken for syntax are quoted. '#' starts a comment.
package starfile

import (
	"fmt"
	"slices"
)

// File is a parsed STAR file.
type File struct {
	// Comment is written as a leading "# ..." line. It is not populated by Read.
	Comment string
	Blocks  []*Block
}

// Block is one data block. A block with a non-nil Table is a loop block;
// otherwise its Pairs hold the data.
type Block struct {
	Name  string
	Pairs []Pair
	Table *Table
}

// Pair is a single "_label value" entry.
type Pair struct {
	Label string
	Value string
}

// Table is the content of a loop_ block.
type Table struct {
	Columns []string
	Rows    [][]string
}

// SyntaxError reports malformed input together with its line number.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("star: line %d: %s", e.Line, e.Msg)
}

// Block returns the first block with the given name, or nil.
func (f *File) Block(name string) *Block {
	for _, b := range f.Blocks {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// AddPairs appends a key/value block and returns it.
func (f *File) AddPairs(name string, pairs ...Pair) *Block {
	b := &Block{Name: name, Pairs: pairs}
	f.Blocks = append(f.Blocks, b)
	return b
}

// AddTable appends a loop block with the given columns and returns its table.
func (f *File) AddTable(name string, columns ...string) *Table {
	t := &Table{Columns: columns}
	f.Blocks = append(f.Blocks, &Block{Name: name, Table: t})
	return t
}

// Value returns the value stored under label in a key/value block.
func (b *Block) Value(label string) (string, bool) {
	for _, p := range b.Pairs {
		if p.Label == label {
			return p.Value, true
		}
	}
	return "", false
}

// Column returns the position of label in the table, or -1.
func (t *Table) Column(label string) int {
	return slices.Index(t.Columns, label)
}

// AddRow appends a row. The number of values must match the columns.
func (t *Table) AddRow(values ...string) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("star: row has %d values, table has %d columns", len(values), len(t.Columns))
	}
	t.Rows = append(t.Rows, values)
	return nil
}
