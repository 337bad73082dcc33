// Package workbook is the spreadsheet surface the newsletter writer works
// against, with an in-memory implementation persisted as YAML.
package workbook

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrNoWritableSheet is returned when no target cell can be resolved.
	ErrNoWritableSheet = errors.New("書き込み可能なシートが見つかりません。")
	// ErrSheetNotFound matches every *MissingSheetError.
	ErrSheetNotFound = errors.New("sheet not found")
)

// MissingSheetError carries the user-facing message for a missing sheet.
type MissingSheetError struct {
	Name    string
	Message string
}

func (e *MissingSheetError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("シート「%s」が見つかりません。", e.Name)
}

func (e *MissingSheetError) Is(target error) bool { return target == ErrSheetNotFound }

// Sheet is one tab of a workbook.
type Sheet interface {
	Name() string
	Value(c Cell) string
	SetValue(c Cell, v string) error
	// Clear removes value, note and formatting of a cell.
	Clear(c Cell) error
	SetWrap(c Cell, wrap bool) error
	SetNote(c Cell, note string) error
	Values(r Range) [][]string
	LastRow() int
	SetColumnWidth(col, px int) error
	SetFrozenRows(n int) error
	ClearAll() error
}

// Workbook is the host document: sheets, selection and pending writes.
type Workbook interface {
	Sheets() []Sheet
	Sheet(name string) (Sheet, bool)
	InsertSheet(name string) (Sheet, error)
	ActiveSheet() (Sheet, bool)
	// ActiveRange is the selection on the active sheet.
	ActiveRange() (Range, bool)
	// ActiveCell is the cursor on the active sheet.
	ActiveCell() (Cell, bool)
	SetActiveSheet(name string) error
	Flush() error
}

type cellData struct {
	Value string `yaml:"value,omitempty"`
	Note  string `yaml:"note,omitempty"`
	Wrap  bool   `yaml:"wrap,omitempty"`
}

// MemorySheet is a sparse in-memory sheet. It shares its workbook's lock.
type MemorySheet struct {
	mu           *sync.RWMutex
	name         string
	cells        map[Cell]*cellData
	columnWidths map[int]int
	frozenRows   int
}

func newMemorySheet(mu *sync.RWMutex, name string) *MemorySheet {
	return &MemorySheet{mu: mu, name: name, cells: make(map[Cell]*cellData), columnWidths: make(map[int]int)}
}

func (s *MemorySheet) Name() string { return s.name }

func (s *MemorySheet) Value(c Cell) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.cells[c]; ok {
		return d.Value
	}
	return ""
}

func (s *MemorySheet) cell(c Cell) (*cellData, error) {
	if c.Row < 1 || c.Col < 1 {
		return nil, fmt.Errorf("invalid cell %d,%d", c.Row, c.Col)
	}
	d, ok := s.cells[c]
	if !ok {
		d = &cellData{}
		s.cells[c] = d
	}
	return d, nil
}

func (s *MemorySheet) SetValue(c Cell, v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.cell(c)
	if err != nil {
		return err
	}
	d.Value = v
	return nil
}

func (s *MemorySheet) Clear(c Cell) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cells, c)
	return nil
}

func (s *MemorySheet) SetWrap(c Cell, wrap bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.cell(c)
	if err != nil {
		return err
	}
	d.Wrap = wrap
	return nil
}

// Wrap reports the wrap flag of a cell.
func (s *MemorySheet) Wrap(c Cell) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.cells[c]
	return ok && d.Wrap
}

func (s *MemorySheet) SetNote(c Cell, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.cell(c)
	if err != nil {
		return err
	}
	d.Note = note
	return nil
}

// Note returns the note attached to a cell.
func (s *MemorySheet) Note(c Cell) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.cells[c]; ok {
		return d.Note
	}
	return ""
}

// Values returns r clipped to the stored extent of the sheet, so the rows
// and columns past the last stored cell are not materialized.
func (s *MemorySheet) Values(r Range) [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	used, ok := s.extentLocked()
	if !ok {
		return nil
	}
	if r, ok = r.Intersect(used); !ok {
		return nil
	}
	var out [][]string
	for row := r.Start.Row; row <= r.End.Row; row++ {
		line := make([]string, 0, r.End.Col-r.Start.Col+1)
		for col := r.Start.Col; col <= r.End.Col; col++ {
			v := ""
			if d, ok := s.cells[Cell{Row: row, Col: col}]; ok {
				v = d.Value
			}
			line = append(line, v)
		}
		out = append(out, line)
	}
	return out
}

// extentLocked is A1 through the bottom-right-most stored value.
func (s *MemorySheet) extentLocked() (Range, bool) {
	var end Cell
	for c, d := range s.cells {
		if d.Value == "" {
			continue
		}
		end.Row = max(end.Row, c.Row)
		end.Col = max(end.Col, c.Col)
	}
	if end.Row == 0 {
		return Range{}, false
	}
	return Range{Start: Cell{Row: 1, Col: 1}, End: end}, true
}

// LastRow is the last row holding a non-empty value, 0 for an empty sheet.
func (s *MemorySheet) LastRow() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	last := 0
	for c, d := range s.cells {
		if d.Value != "" && c.Row > last {
			last = c.Row
		}
	}
	return last
}

func (s *MemorySheet) SetColumnWidth(col, px int) error {
	if col < 1 || px < 0 {
		return fmt.Errorf("invalid column width %d for column %d", px, col)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.columnWidths[col] = px
	return nil
}

func (s *MemorySheet) ColumnWidth(col int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.columnWidths[col]
}

func (s *MemorySheet) SetFrozenRows(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozenRows = n
	return nil
}

func (s *MemorySheet) FrozenRows() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozenRows
}

func (s *MemorySheet) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells = make(map[Cell]*cellData)
	return nil
}

// MemoryWorkbook is an in-process Workbook. When created with a path, Flush
// writes it to that YAML file.
type MemoryWorkbook struct {
	mu        sync.RWMutex
	path      string
	sheets    []*MemorySheet
	active    string
	selection *Range
	cursor    *Cell
}

func NewMemoryWorkbook(sheetNames ...string) *MemoryWorkbook {
	wb := &MemoryWorkbook{}
	for _, n := range sheetNames {
		wb.sheets = append(wb.sheets, newMemorySheet(&wb.mu, n))
	}
	if len(wb.sheets) > 0 {
		wb.active = wb.sheets[0].name
	}
	return wb
}

func (w *MemoryWorkbook) Sheets() []Sheet {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Sheet, len(w.sheets))
	for i, s := range w.sheets {
		out[i] = s
	}
	return out
}

func (w *MemoryWorkbook) findLocked(name string) *MemorySheet {
	for _, s := range w.sheets {
		if s.name == name {
			return s
		}
	}
	return nil
}

func (w *MemoryWorkbook) Sheet(name string) (Sheet, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if s := w.findLocked(name); s != nil {
		return s, true
	}
	return nil, false
}

// MemorySheet returns the concrete sheet for inspection.
func (w *MemoryWorkbook) MemorySheet(name string) (*MemorySheet, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := w.findLocked(name)
	return s, s != nil
}

func (w *MemoryWorkbook) InsertSheet(name string) (Sheet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("sheet name is required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.findLocked(name) != nil {
		return nil, fmt.Errorf("sheet %q already exists", name)
	}
	s := newMemorySheet(&w.mu, name)
	w.sheets = append(w.sheets, s)
	w.activateLocked(name)
	return s, nil
}

func (w *MemoryWorkbook) ActiveSheet() (Sheet, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if s := w.findLocked(w.active); s != nil {
		return s, true
	}
	return nil, false
}

func (w *MemoryWorkbook) ActiveRange() (Range, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.selection == nil || w.findLocked(w.active) == nil {
		return Range{}, false
	}
	return *w.selection, true
}

func (w *MemoryWorkbook) ActiveCell() (Cell, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.cursor == nil || w.findLocked(w.active) == nil {
		return Cell{}, false
	}
	return *w.cursor, true
}

func (w *MemoryWorkbook) SetActiveSheet(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.findLocked(name) == nil {
		return &MissingSheetError{Name: name}
	}
	w.activateLocked(name)
	return nil
}

// activateLocked switches sheets and drops the selection, like a host does.
func (w *MemoryWorkbook) activateLocked(name string) {
	if w.active != name {
		w.selection = nil
		w.cursor = nil
	}
	w.active = name
}

// Select activates sheet and selects r; the cursor moves to r's top-left cell.
func (w *MemoryWorkbook) Select(sheet string, r Range) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.findLocked(sheet) == nil {
		return &MissingSheetError{Name: sheet}
	}
	w.activateLocked(sheet)
	start := r.Start
	w.selection = &r
	w.cursor = &start
	return nil
}

// SetCursor places the cursor without a range selection.
func (w *MemoryWorkbook) SetCursor(sheet string, c Cell) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.findLocked(sheet) == nil {
		return &MissingSheetError{Name: sheet}
	}
	w.activateLocked(sheet)
	w.selection = nil
	w.cursor = &c
	return nil
}

func (w *MemoryWorkbook) Flush() error {
	w.mu.RLock()
	path := w.path
	w.mu.RUnlock()
	if path == "" {
		return nil
	}
	return w.SaveFile(path)
}
