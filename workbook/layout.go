package workbook

import (
	"fmt"
	"strings"

	"class_newsletter_writer/profile"
)

const (
	SamplesSheet = "文体サンプル_学級通信"
	ProfileSheet = "文体プロファイル_学級通信"

	samplesHeader = "過去に自分で作成した学級通信の文章（1セル=1記事）"
	samplesNote   = "例）「先日の遠足では、子供たちの笑顔がたくさん見られました。」のように、具体的な日付や個人名は避けてください。"
	profileNote   = "このシートの内容を編集してから、メニューやサイドバーの「文体プロファイルを再読込」を実行すると、生成される文章に反映されます。\n" +
		"dos, donts, phrase_bank, closing_patterns の各項目は改行区切りで複数項目を編集できます。"
)

var (
	cellA1 = Cell{Row: 1, Col: 1}
	cellA2 = Cell{Row: 2, Col: 1}
	cellB1 = Cell{Row: 1, Col: 2}
)

// EnsureSampleSheet creates the samples sheet on first use and activates it.
// An existing sheet is left untouched.
func EnsureSampleSheet(wb Workbook) error {
	sh, ok := wb.Sheet(SamplesSheet)
	if !ok {
		var err error
		if sh, err = wb.InsertSheet(SamplesSheet); err != nil {
			return fmt.Errorf("insert samples sheet: %w", err)
		}
		steps := []error{
			sh.SetValue(cellA1, samplesHeader),
			sh.SetColumnWidth(1, 640),
			sh.SetNote(cellA2, samplesNote),
			sh.SetWrap(cellA2, true),
		}
		for _, err := range steps {
			if err != nil {
				return fmt.Errorf("prepare samples sheet: %w", err)
			}
		}
	}
	if err := wb.SetActiveSheet(SamplesSheet); err != nil {
		return err
	}
	return wb.Flush()
}

// HasSampleSheet reports whether the samples sheet exists.
func HasSampleSheet(wb Workbook) bool {
	_, ok := wb.Sheet(SamplesSheet)
	return ok
}

// ReadSamples returns column A of the samples sheet from row 2 down, trimmed,
// with blank cells dropped. A missing sheet yields no samples.
func ReadSamples(wb Workbook) []string {
	sh, ok := wb.Sheet(SamplesSheet)
	if !ok {
		return nil
	}
	last := sh.LastRow()
	if last < 2 {
		return nil
	}
	var out []string
	for _, row := range sh.Values(Range{Start: cellA2, End: Cell{Row: last, Col: 1}}) {
		if v := strings.TrimSpace(row[0]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// WriteProfileSheet replaces the profile sheet with the serialized profile
// and activates it.
func WriteProfileSheet(wb Workbook, sp *profile.StyleProfile) error {
	sh, ok := wb.Sheet(ProfileSheet)
	if !ok {
		var err error
		if sh, err = wb.InsertSheet(ProfileSheet); err != nil {
			return fmt.Errorf("insert profile sheet: %w", err)
		}
	}
	if err := sh.ClearAll(); err != nil {
		return err
	}

	steps := []error{
		sh.SetValue(cellA1, "項目"),
		sh.SetValue(cellB1, "内容"),
		sh.SetFrozenRows(1),
	}
	for i, r := range profile.Serialize(sp) {
		key, val := Cell{Row: i + 2, Col: 1}, Cell{Row: i + 2, Col: 2}
		steps = append(steps,
			sh.SetValue(key, r.Key), sh.SetValue(val, r.Value),
			sh.SetWrap(key, true), sh.SetWrap(val, true))
	}
	steps = append(steps,
		sh.SetColumnWidth(1, 200),
		sh.SetColumnWidth(2, 600),
		sh.SetNote(cellB1, profileNote),
	)
	for _, err := range steps {
		if err != nil {
			return fmt.Errorf("write profile sheet: %w", err)
		}
	}
	if err := wb.SetActiveSheet(ProfileSheet); err != nil {
		return err
	}
	return wb.Flush()
}

// ReadProfileRows reads the key/value rows below the profile sheet header.
func ReadProfileRows(wb Workbook) ([]profile.Row, error) {
	sh, ok := wb.Sheet(ProfileSheet)
	if !ok {
		return nil, &MissingSheetError{Name: ProfileSheet, Message: "文体プロファイルシートが見つかりません。"}
	}
	last := sh.LastRow()
	if last < 2 {
		return nil, nil
	}
	var rows []profile.Row
	for _, v := range sh.Values(Range{Start: cellA2, End: Cell{Row: last, Col: 2}}) {
		row := profile.Row{Key: v[0]}
		if len(v) > 1 {
			row.Value = v[1]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ShowProfileSheet activates the profile sheet.
func ShowProfileSheet(wb Workbook) error {
	if _, ok := wb.Sheet(ProfileSheet); !ok {
		return &MissingSheetError{
			Name:    ProfileSheet,
			Message: "文体プロファイルシートがまだ作成されていません。先に文体分析を実行してください。",
		}
	}
	return wb.SetActiveSheet(ProfileSheet)
}

// ActiveInfo describes the current selection for the sidebar.
type ActiveInfo struct {
	SheetName  string `json:"sheetName"`
	A1Notation string `json:"a1Notation"`
	Row        int    `json:"row"`
	Col        int    `json:"col"`
}

// Active returns the selection on the active sheet, or nil without one.
func Active(wb Workbook) *ActiveInfo {
	sh, ok := wb.ActiveSheet()
	if !ok {
		return nil
	}
	r, ok := wb.ActiveRange()
	if !ok {
		c, ok := wb.ActiveCell()
		if !ok {
			return nil
		}
		r = SingleCell(c)
	}
	return &ActiveInfo{SheetName: sh.Name(), A1Notation: r.A1(), Row: r.Start.Row, Col: r.Start.Col}
}

// SelectedContent joins the non-blank values of the selection with newlines.
func SelectedContent(wb Workbook) string {
	sh, ok := wb.ActiveSheet()
	if !ok {
		return ""
	}
	r, ok := wb.ActiveRange()
	if !ok {
		c, ok := wb.ActiveCell()
		if !ok {
			return ""
		}
		r = SingleCell(c)
	}
	var parts []string
	for _, row := range sh.Values(r) {
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				parts = append(parts, v)
			}
		}
	}
	return strings.Join(parts, "\n")
}
