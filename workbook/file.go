package workbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

type fileCell struct {
	Ref      string `yaml:"ref"`
	cellData `yaml:",inline"`
}

type fileSheet struct {
	Name         string         `yaml:"name"`
	FrozenRows   int            `yaml:"frozen_rows,omitempty"`
	ColumnWidths map[string]int `yaml:"column_widths,omitempty"`
	Cells        []fileCell     `yaml:"cells,omitempty"`
}

type fileWorkbook struct {
	Active    string      `yaml:"active,omitempty"`
	Selection string      `yaml:"selection,omitempty"`
	Cursor    string      `yaml:"cursor,omitempty"`
	Sheets    []fileSheet `yaml:"sheets"`
}

// LoadFile opens the workbook stored at path. A missing file yields an
// empty workbook bound to path, so the first Flush creates it.
func LoadFile(path string) (*MemoryWorkbook, error) {
	wb := NewMemoryWorkbook()
	wb.path = path

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return wb, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}

	var doc fileWorkbook
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse workbook %s: %w", path, err)
	}
	for _, fs := range doc.Sheets {
		s := newMemorySheet(&wb.mu, fs.Name)
		s.frozenRows = fs.FrozenRows
		for col, px := range fs.ColumnWidths {
			c, err := ParseCell(col + "1")
			if err != nil {
				return nil, fmt.Errorf("sheet %q: column %q: %w", fs.Name, col, err)
			}
			s.columnWidths[c.Col] = px
		}
		for _, fc := range fs.Cells {
			c, err := ParseCell(fc.Ref)
			if err != nil {
				return nil, fmt.Errorf("sheet %q: %w", fs.Name, err)
			}
			d := fc.cellData
			s.cells[c] = &d
		}
		wb.sheets = append(wb.sheets, s)
	}

	wb.active = doc.Active
	if wb.findLocked(wb.active) == nil && len(wb.sheets) > 0 {
		wb.active = wb.sheets[0].name
	}
	if doc.Selection != "" {
		if r, err := ParseRange(doc.Selection); err == nil {
			wb.selection = &r
			start := r.Start
			wb.cursor = &start
		}
	}
	if doc.Cursor != "" {
		if c, err := ParseCell(doc.Cursor); err == nil {
			wb.cursor = &c
		}
	}
	return wb, nil
}

// SaveFile writes the workbook to path, creating parent directories.
func (w *MemoryWorkbook) SaveFile(path string) error {
	w.mu.RLock()
	doc := fileWorkbook{Active: w.active}
	if w.selection != nil {
		doc.Selection = w.selection.A1()
	}
	if w.cursor != nil {
		doc.Cursor = w.cursor.A1()
	}
	for _, s := range w.sheets {
		fs := fileSheet{Name: s.name, FrozenRows: s.frozenRows}
		if len(s.columnWidths) > 0 {
			fs.ColumnWidths = make(map[string]int, len(s.columnWidths))
			for col, px := range s.columnWidths {
				fs.ColumnWidths[columnName(col)] = px
			}
		}
		refs := make([]Cell, 0, len(s.cells))
		for c := range s.cells {
			refs = append(refs, c)
		}
		sort.Slice(refs, func(i, j int) bool {
			if refs[i].Row != refs[j].Row {
				return refs[i].Row < refs[j].Row
			}
			return refs[i].Col < refs[j].Col
		})
		for _, c := range refs {
			fs.Cells = append(fs.Cells, fileCell{Ref: c.A1(), cellData: *s.cells[c]})
		}
		doc.Sheets = append(doc.Sheets, fs)
	}
	w.mu.RUnlock()

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encode workbook: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create workbook dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return os.Rename(tmp, path)
}

// Path is the file backing the workbook, empty when in-memory only.
func (w *MemoryWorkbook) Path() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.path
}
