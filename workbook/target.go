package workbook

// Target is the cell a generated newsletter is written to.
type Target struct {
	Sheet Sheet
	Cell  Cell
	// Strategy names the resolution step that produced the target.
	Strategy string
}

// Descriptor renders the target as "Sheet!A1".
func (t Target) Descriptor() string {
	if t.Sheet == nil {
		return t.Cell.A1()
	}
	return t.Sheet.Name() + "!" + t.Cell.A1()
}

// targetStrategy is one step of the output-cell fallback chain.
type targetStrategy struct {
	name    string
	resolve func(Workbook) (Target, bool)
}

var targetChain = []targetStrategy{
	{name: "active-range", resolve: fromActiveRange},
	{name: "active-cell", resolve: fromActiveCell},
	{name: "active-sheet-a1", resolve: fromActiveSheet},
	{name: "first-sheet-a1", resolve: fromFirstSheet},
}

// ResolveTarget walks the fallback chain and returns the first target found.
// A multi-cell selection resolves to its top-left cell.
func ResolveTarget(wb Workbook) (Target, error) {
	for _, s := range targetChain {
		if t, ok := s.resolve(wb); ok {
			t.Strategy = s.name
			return t, nil
		}
	}
	return Target{}, ErrNoWritableSheet
}

func fromActiveRange(wb Workbook) (Target, bool) {
	sh, ok := wb.ActiveSheet()
	if !ok {
		return Target{}, false
	}
	r, ok := wb.ActiveRange()
	if !ok {
		return Target{}, false
	}
	return Target{Sheet: sh, Cell: r.Start}, true
}

func fromActiveCell(wb Workbook) (Target, bool) {
	sh, ok := wb.ActiveSheet()
	if !ok {
		return Target{}, false
	}
	c, ok := wb.ActiveCell()
	if !ok {
		return Target{}, false
	}
	return Target{Sheet: sh, Cell: c}, true
}

func fromActiveSheet(wb Workbook) (Target, bool) {
	sh, ok := wb.ActiveSheet()
	if !ok {
		return Target{}, false
	}
	return Target{Sheet: sh, Cell: Cell{Row: 1, Col: 1}}, true
}

func fromFirstSheet(wb Workbook) (Target, bool) {
	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return Target{}, false
	}
	return Target{Sheet: sheets[0], Cell: Cell{Row: 1, Col: 1}}, true
}
