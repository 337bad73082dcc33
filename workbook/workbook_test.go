package workbook

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"class_newsletter_writer/profile"
)

var cmpEquateEmpty = cmpopts.EquateEmpty()

func TestParseCellAndRange(t *testing.T) {
	c, err := ParseCell("$ab$12")
	require.NoError(t, err)
	assert.Equal(t, Cell{Row: 12, Col: 28}, c)
	assert.Equal(t, "AB12", c.A1())

	for _, bad := range []string{"", "12", "A", "A0", "1A"} {
		_, err := ParseCell(bad)
		assert.Error(t, err, bad)
	}

	r, err := ParseRange("C3:A1")
	require.NoError(t, err)
	assert.Equal(t, "A1:C3", r.A1())
	assert.Equal(t, Range{Start: Cell{Row: 1, Col: 1}, End: Cell{Row: 3, Col: 3}}, r)

	r, err = ParseRange("B2")
	require.NoError(t, err)
	assert.Equal(t, SingleCell(Cell{Row: 2, Col: 2}), r)
}

func TestParseCellBounds(t *testing.T) {
	c, err := ParseCell("ZZZ10000000")
	require.NoError(t, err)
	assert.Equal(t, Cell{Row: MaxRow, Col: MaxCol}, c)

	for _, bad := range []string{"AAAA1", "ZZZZZZZZZZZZZZZ1", "A10000001", "A99999999999999999999"} {
		_, err := ParseCell(bad)
		assert.Error(t, err, bad)
	}
	_, err = ParseRange("A1:ZZZZ999999")
	assert.Error(t, err)
}

func TestValuesClipToStoredCells(t *testing.T) {
	wb := NewMemoryWorkbook("Sheet1")
	sh, _ := wb.MemorySheet("Sheet1")
	assert.Nil(t, sh.Values(Range{Start: Cell{Row: 1, Col: 1}, End: Cell{Row: MaxRow, Col: MaxCol}}))

	require.NoError(t, sh.SetValue(Cell{Row: 2, Col: 2}, "b2"))
	require.NoError(t, sh.SetValue(Cell{Row: 3, Col: 1}, "a3"))
	got := sh.Values(Range{Start: Cell{Row: 1, Col: 1}, End: Cell{Row: MaxRow, Col: MaxCol}})
	assert.Equal(t, [][]string{{"", ""}, {"", "b2"}, {"a3", ""}}, got)
	assert.Nil(t, sh.Values(Range{Start: Cell{Row: 5, Col: 1}, End: Cell{Row: 9, Col: 9}}))

	r, err := ParseRange("A1:ZZZ10000000")
	require.NoError(t, err)
	require.NoError(t, wb.Select("Sheet1", r))
	assert.Equal(t, "b2\na3", SelectedContent(wb))
}

func TestParseDescriptor(t *testing.T) {
	sheet, r, err := ParseDescriptor("'学級 通信'!B2:C3")
	require.NoError(t, err)
	assert.Equal(t, "学級 通信", sheet)
	assert.Equal(t, "B2:C3", r.A1())

	_, _, err = ParseDescriptor("B2")
	require.Error(t, err)
}

func TestResolveTargetChain(t *testing.T) {
	wb := NewMemoryWorkbook("通信", "メモ")
	require.NoError(t, wb.Select("メモ", Range{Start: Cell{Row: 3, Col: 2}, End: Cell{Row: 5, Col: 4}}))

	tgt, err := ResolveTarget(wb)
	require.NoError(t, err)
	assert.Equal(t, "メモ!B3", tgt.Descriptor())
	assert.Equal(t, "active-range", tgt.Strategy)

	require.NoError(t, wb.SetCursor("通信", Cell{Row: 7, Col: 1}))
	tgt, err = ResolveTarget(wb)
	require.NoError(t, err)
	assert.Equal(t, "通信!A7", tgt.Descriptor())
	assert.Equal(t, "active-cell", tgt.Strategy)

	require.NoError(t, wb.SetActiveSheet("メモ"))
	tgt, err = ResolveTarget(wb)
	require.NoError(t, err)
	assert.Equal(t, "メモ!A1", tgt.Descriptor())
	assert.Equal(t, "active-sheet-a1", tgt.Strategy)
}

type noActiveWorkbook struct{ *MemoryWorkbook }

func (noActiveWorkbook) ActiveSheet() (Sheet, bool) { return nil, false }

func TestResolveTargetFallsBackToFirstSheet(t *testing.T) {
	wb := noActiveWorkbook{NewMemoryWorkbook("一枚目", "二枚目")}
	tgt, err := ResolveTarget(wb)
	require.NoError(t, err)
	assert.Equal(t, "一枚目!A1", tgt.Descriptor())
	assert.Equal(t, "first-sheet-a1", tgt.Strategy)

	_, err = ResolveTarget(NewMemoryWorkbook())
	require.ErrorIs(t, err, ErrNoWritableSheet)
}

func TestEnsureSampleSheetIsIdempotent(t *testing.T) {
	wb := NewMemoryWorkbook("Sheet1")
	require.NoError(t, EnsureSampleSheet(wb))
	sh, ok := wb.MemorySheet(SamplesSheet)
	require.True(t, ok)
	assert.Equal(t, samplesHeader, sh.Value(cellA1))
	assert.Equal(t, 640, sh.ColumnWidth(1))
	assert.Equal(t, samplesNote, sh.Note(cellA2))
	assert.True(t, sh.Wrap(cellA2))

	require.NoError(t, sh.SetValue(Cell{Row: 2, Col: 1}, "  一つ目  "))
	require.NoError(t, sh.SetValue(Cell{Row: 4, Col: 1}, "二つ目"))
	require.NoError(t, wb.SetActiveSheet("Sheet1"))

	require.NoError(t, EnsureSampleSheet(wb))
	active, _ := wb.ActiveSheet()
	assert.Equal(t, SamplesSheet, active.Name())
	assert.Len(t, wb.Sheets(), 2)
	assert.Equal(t, []string{"一つ目", "二つ目"}, ReadSamples(wb))
}

func TestReadSamplesWithoutSheet(t *testing.T) {
	assert.Empty(t, ReadSamples(NewMemoryWorkbook("Sheet1")))
}

func TestProfileSheetRoundTrip(t *testing.T) {
	sp := &profile.StyleProfile{
		StyleName:         "温かい報告型",
		Summary:           "子供の様子を温かく伝える",
		SentenceStructure: "短文中心",
		OverallTone:       "穏やか",
		Dos:               []string{"感謝を伝える", "具体的に書く"},
		PhraseBank:        []string{"笑顔があふれました"},
	}
	wb := NewMemoryWorkbook("Sheet1")
	require.NoError(t, WriteProfileSheet(wb, sp))

	sh, _ := wb.MemorySheet(ProfileSheet)
	assert.Equal(t, "項目", sh.Value(cellA1))
	assert.Equal(t, "内容", sh.Value(cellB1))
	assert.Equal(t, 1, sh.FrozenRows())
	assert.Equal(t, 200, sh.ColumnWidth(1))
	assert.Equal(t, 600, sh.ColumnWidth(2))
	assert.Equal(t, profileNote, sh.Note(cellB1))

	rows, err := ReadProfileRows(wb)
	require.NoError(t, err)
	got, err := profile.Deserialize(rows)
	require.NoError(t, err)
	if diff := cmp.Diff(sp, got, cmpEquateEmpty); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}

	// rewriting a shorter profile leaves no stale rows behind
	require.NoError(t, WriteProfileSheet(wb, &profile.StyleProfile{StyleName: "a", Summary: "b"}))
	rows, err = ReadProfileRows(wb)
	require.NoError(t, err)
	assert.Len(t, rows, len(profile.Serialize(&profile.StyleProfile{})))
}

func TestShowProfileSheetMissing(t *testing.T) {
	wb := NewMemoryWorkbook("Sheet1")
	err := ShowProfileSheet(wb)
	require.ErrorIs(t, err, ErrSheetNotFound)
	assert.Contains(t, err.Error(), "先に文体分析を実行してください")

	_, err = ReadProfileRows(wb)
	var missing *MissingSheetError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, ProfileSheet, missing.Name)
}

func TestSelectedContent(t *testing.T) {
	wb := NewMemoryWorkbook("Sheet1")
	sh, _ := wb.MemorySheet("Sheet1")
	require.NoError(t, sh.SetValue(Cell{Row: 1, Col: 1}, "遠足"))
	require.NoError(t, sh.SetValue(Cell{Row: 1, Col: 2}, "  "))
	require.NoError(t, sh.SetValue(Cell{Row: 2, Col: 2}, "音楽会"))

	assert.Empty(t, SelectedContent(wb))

	r, _ := ParseRange("A1:B2")
	require.NoError(t, wb.Select("Sheet1", r))
	assert.Equal(t, "遠足\n音楽会", SelectedContent(wb))

	info := Active(wb)
	require.NotNil(t, info)
	assert.Equal(t, ActiveInfo{SheetName: "Sheet1", A1Notation: "A1:B2", Row: 1, Col: 1}, *info)
}

func TestFilePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "book.yaml")
	wb, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, wb.Sheets())

	_, err = wb.InsertSheet("通信")
	require.NoError(t, err)
	require.NoError(t, EnsureSampleSheet(wb))
	sh, _ := wb.MemorySheet(SamplesSheet)
	require.NoError(t, sh.SetValue(Cell{Row: 2, Col: 1}, "複数行\nの記事"))
	require.NoError(t, wb.SetCursor("通信", Cell{Row: 4, Col: 3}))
	require.NoError(t, wb.Flush())

	again, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, again.Sheets(), 2)
	assert.Equal(t, []string{"複数行\nの記事"}, ReadSamples(again))
	reloaded, _ := again.MemorySheet(SamplesSheet)
	assert.Equal(t, 640, reloaded.ColumnWidth(1))
	assert.True(t, reloaded.Wrap(cellA2))

	tgt, err := ResolveTarget(again)
	require.NoError(t, err)
	assert.Equal(t, "通信!C4", tgt.Descriptor())
}
