package starfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Write serialises f. Pair labels and table columns are padded so the output
// stays readable in a terminal.
func Write(w io.Writer, f *File) error {
	bw := bufio.NewWriter(w)

	if f.Comment != "" {
		for _, line := range strings.Split(f.Comment, "\n") {
			fmt.Fprintf(bw, "# %s\n", line)
		}
		bw.WriteString("\n")
	}

	for _, b := range f.Blocks {
		if err := writeBlock(bw, b); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeBlock(w *bufio.Writer, b *Block) error {
	fmt.Fprintf(w, "%s%s\n\n", dataPrefix, b.Name)

	if b.Table == nil {
		width := 0
		for _, p := range b.Pairs {
			width = max(width, len(p.Label))
		}
		for _, p := range b.Pairs {
			v, err := quote(p.Value)
			if err != nil {
				return fmt.Errorf("star: block %q label %s: %w", b.Name, p.Label, err)
			}
			fmt.Fprintf(w, "%-*s  %s\n", width, p.Label, v)
		}
		w.WriteString("\n")
		return nil
	}

	t := b.Table
	fmt.Fprintf(w, "%s\n", loopToken)
	for i, c := range t.Columns {
		fmt.Fprintf(w, "%s #%d\n", c, i+1)
	}

	quoted := make([][]string, len(t.Rows))
	widths := make([]int, len(t.Columns))
	for r, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("star: block %q row %d has %d values, want %d", b.Name, r, len(row), len(t.Columns))
		}
		quoted[r] = make([]string, len(row))
		for c, v := range row {
			q, err := quote(v)
			if err != nil {
				return fmt.Errorf("star: block %q row %d column %s: %w", b.Name, r, t.Columns[c], err)
			}
			quoted[r][c] = q
			widths[c] = max(widths[c], len(q))
		}
	}
	for _, row := range quoted {
		for c, v := range row {
			if c == len(row)-1 {
				w.WriteString(v)
			} else {
				fmt.Fprintf(w, "%-*s ", widths[c], v)
			}
		}
		w.WriteString("\n")
	}
	w.WriteString("\n")
	return nil
}

// quote returns v as it must appear in the file.
func quote(v string) (string, error) {
	if strings.ContainsAny(v, "\n") {
		return "", fmt.Errorf("value %q contains a newline", v)
	}
	needs := v == "" ||
		strings.ContainsAny(v, " \t\r\"'") ||
		strings.HasPrefix(v, "#") ||
		strings.HasPrefix(v, "_") ||
		strings.HasPrefix(v, dataPrefix) ||
		v == loopToken
	if !needs {
		return v, nil
	}
	switch {
	case !strings.Contains(v, `"`):
		return `"` + v + `"`, nil
	case !strings.Contains(v, "'"):
		return "'" + v + "'", nil
	default:
		return "", fmt.Errorf("value %q contains both quote characters", v)
	}
}
