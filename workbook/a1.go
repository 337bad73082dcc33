package workbook

import (
	"fmt"
	"strconv"
	"strings"
)

// Cell is a 1-based row/column address.
type Cell struct {
	Row int
	Col int
}

// A1 renders the cell in A1 notation.
func (c Cell) A1() string {
	return columnName(c.Col) + strconv.Itoa(c.Row)
}

// Range is an inclusive rectangle of cells.
type Range struct {
	Start Cell
	End   Cell
}

// SingleCell returns the one-cell range at c.
func SingleCell(c Cell) Range { return Range{Start: c, End: c} }

func (r Range) A1() string {
	if r.Start == r.End {
		return r.Start.A1()
	}
	return r.Start.A1() + ":" + r.End.A1()
}

// Limits of a host sheet: columns A..ZZZ, rows up to ten million.
const (
	MaxCol = 18278
	MaxRow = 10_000_000
)

// Intersect returns the overlap of r and o, false when they do not overlap.
func (r Range) Intersect(o Range) (Range, bool) {
	out := Range{
		Start: Cell{Row: max(r.Start.Row, o.Start.Row), Col: max(r.Start.Col, o.Start.Col)},
		End:   Cell{Row: min(r.End.Row, o.End.Row), Col: min(r.End.Col, o.End.Col)},
	}
	if out.Start.Row > out.End.Row || out.Start.Col > out.End.Col {
		return Range{}, false
	}
	return out, true
}

// ParseCell parses "B12" style references (case-insensitive, "$" ignored).
func ParseCell(s string) (Cell, error) {
	ref := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "$", ""))
	i := 0
	col := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A'+1)
		i++
		if col > MaxCol {
			return Cell{}, fmt.Errorf("cell reference %q is beyond column ZZZ", s)
		}
	}
	if i == 0 || i == len(ref) {
		return Cell{}, fmt.Errorf("invalid cell reference %q", s)
	}
	row, err := strconv.Atoi(ref[i:])
	if err != nil || row < 1 {
		return Cell{}, fmt.Errorf("invalid cell reference %q", s)
	}
	if row > MaxRow {
		return Cell{}, fmt.Errorf("cell reference %q is beyond row %d", s, MaxRow)
	}
	return Cell{Row: row, Col: col}, nil
}

// ParseRange parses "A1" or "A1:C3"; corners are normalized.
func ParseRange(s string) (Range, error) {
	first, second, found := strings.Cut(s, ":")
	start, err := ParseCell(first)
	if err != nil {
		return Range{}, err
	}
	if !found {
		return SingleCell(start), nil
	}
	end, err := ParseCell(second)
	if err != nil {
		return Range{}, err
	}
	return Range{
		Start: Cell{Row: min(start.Row, end.Row), Col: min(start.Col, end.Col)},
		End:   Cell{Row: max(start.Row, end.Row), Col: max(start.Col, end.Col)},
	}, nil
}

func columnName(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

// ParseDescriptor splits "Sheet!A1:B2" into the sheet name and range. The
// sheet name may be single-quoted.
func ParseDescriptor(s string) (string, Range, error) {
	i := strings.LastIndex(s, "!")
	if i <= 0 {
		return "", Range{}, fmt.Errorf("invalid cell descriptor %q", s)
	}
	sheet := strings.TrimSpace(s[:i])
	if len(sheet) >= 2 && sheet[0] == '\'' && sheet[len(sheet)-1] == '\'' {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	r, err := ParseRange(s[i+1:])
	if err != nil {
		return "", Range{}, err
	}
	return sheet, r, nil
}
