package starfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	dataPrefix = "data_"
	loopToken  = "loop_"
)

type parser struct {
	file  *File
	block *Block
	// inHeader is true while the column labels of a loop are being read.
	inHeader bool
	// inLoop is true while rows of the current loop are being read.
	inLoop bool
}

// Read parses a STAR file. Every data row must fit on a single line.
func Read(r io.Reader) (*File, error) {
	p := &parser{file: &File{}}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		tokens, firstQuoted, err := tokenize(sc.Text())
		if err != nil {
			return nil, &SyntaxError{Line: lineNo, Msg: err.Error()}
		}
		if err := p.line(tokens, firstQuoted); err != nil {
			return nil, &SyntaxError{Line: lineNo, Msg: err.Error()}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("star: read: %w", err)
	}
	if err := p.closeBlock(); err != nil {
		return nil, &SyntaxError{Line: lineNo, Msg: err.Error()}
	}
	return p.file, nil
}

// line consumes the values of one line. Syntax words are only recognised
// when the first value was not quoted.
func (p *parser) line(tokens []string, firstQuoted bool) error {
	if len(tokens) == 0 {
		// A blank line closes a loop body but not its header.
		p.inLoop = false
		return nil
	}

	first := tokens[0]
	switch {
	case firstQuoted:
		// A quoted value always belongs to a data row.
	case strings.HasPrefix(first, dataPrefix):
		if err := p.closeBlock(); err != nil {
			return err
		}
		if len(tokens) > 1 {
			return fmt.Errorf("unexpected value after %q", first)
		}
		p.block = &Block{Name: strings.TrimPrefix(first, dataPrefix)}
		p.file.Blocks = append(p.file.Blocks, p.block)
		return nil

	case first == loopToken:
		if p.block == nil {
			return fmt.Errorf("loop_ outside of a data block")
		}
		if p.block.Table != nil || len(p.block.Pairs) > 0 {
			return fmt.Errorf("block %q already has content", p.block.Name)
		}
		p.block.Table = &Table{}
		p.inHeader = true
		p.inLoop = false
		return nil

	case strings.HasPrefix(first, "_"):
		if p.block == nil {
			return fmt.Errorf("label %q outside of a data block", first)
		}
		if p.inHeader {
			if len(tokens) > 1 {
				return fmt.Errorf("unexpected value after column label %q", first)
			}
			p.block.Table.Columns = append(p.block.Table.Columns, first)
			return nil
		}
		if p.block.Table != nil {
			return fmt.Errorf("label %q after the rows of loop %q", first, p.block.Name)
		}
		if len(tokens) != 2 {
			return fmt.Errorf("label %q must be followed by exactly one value", first)
		}
		p.block.Pairs = append(p.block.Pairs, Pair{Label: first, Value: tokens[1]})
		return nil
	}

	// Anything else is a data row.
	if p.inHeader {
		p.inHeader = false
		p.inLoop = true
	}
	if !p.inLoop {
		return fmt.Errorf("value %q outside of a loop", first)
	}
	cols := len(p.block.Table.Columns)
	if len(tokens) != cols {
		return fmt.Errorf("row has %d values, loop %q has %d columns", len(tokens), p.block.Name, cols)
	}
	p.block.Table.Rows = append(p.block.Table.Rows, tokens)
	return nil
}

// closeBlock finishes the current block. A loop may have no rows, but it
// must declare at least one column.
func (p *parser) closeBlock() error {
	if p.block != nil && p.block.Table != nil && len(p.block.Table.Columns) == 0 {
		return fmt.Errorf("loop in block %q has no columns", p.block.Name)
	}
	p.inHeader = false
	p.inLoop = false
	return nil
}

// tokenize splits a line into values, honouring quotes and '#' comments. It
// also reports whether the first value was quoted.
func tokenize(line string) (tokens []string, firstQuoted bool, err error) {
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			return tokens, firstQuoted, nil
		case c == '"' || c == '\'':
			end := strings.IndexByte(line[i+1:], c)
			if end < 0 {
				return nil, false, fmt.Errorf("unterminated quote")
			}
			if len(tokens) == 0 {
				firstQuoted = true
			}
			tokens = append(tokens, line[i+1:i+1+end])
			i += end + 2
			if i < len(line) && line[i] != ' ' && line[i] != '\t' && line[i] != '\r' {
				return nil, false, fmt.Errorf("closing quote must be followed by whitespace")
			}
		default:
			start := i
			for i < len(line) && line[i] != ' ' && line[i] != '\t' && line[i] != '\r' {
				i++
			}
			tokens = append(tokens, line[start:i])
		}
	}
	return tokens, firstQuoted, nil
}
