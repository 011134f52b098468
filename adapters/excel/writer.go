package excel

import (
	"encoding/csv"
	"io"
	"strconv"

	"gokw/domain/core"
	"gokw/domain/stats"

	"github.com/xuri/excelize/v2"
)

// MissingToken is written for missing medians, statistics and p-values
const MissingToken = "NA"

// ResultHeader returns the header row: Feature, then the table columns
func ResultHeader(t *stats.ResultTable) []string {
	return append([]string{"Feature"}, t.Columns()...)
}

// ResultRecord renders one row in ResultHeader order
func ResultRecord(row stats.ResultRow) []string {
	rec := make([]string, 0, 1+2*len(row.Counts)+2)
	rec = append(rec, row.Feature.String())
	for k, c := range row.Counts {
		rec = append(rec, strconv.Itoa(c), formatNull(row.Medians[k]))
	}
	return append(rec, formatNull(row.Statistic()), formatNull(row.PValue()))
}

func formatNull(v core.NullFloat64) string {
	if v.IsMissing() {
		return MissingToken
	}
	return strconv.FormatFloat(v.Float64, 'g', -1, 64)
}

// WriteResultTSV writes the table as tab-separated text
func WriteResultTSV(out io.Writer, t *stats.ResultTable) error {
	w := csv.NewWriter(out)
	w.Comma = '\t'
	if err := w.Write(ResultHeader(t)); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := w.Write(ResultRecord(row)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteResultXLSX writes the table to a workbook. Counts, medians, statistics
// and p-values are numeric cells; missing values are left empty.
func WriteResultXLSX(out io.Writer, t *stats.ResultTable) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return err
		}
		f.SetActiveSheet(idx)
	}

	for i, h := range ResultHeader(t) {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		values := make([]interface{}, 0, 1+2*len(row.Counts)+2)
		values = append(values, row.Feature.String())
		for k, c := range row.Counts {
			values = append(values, c, cellValue(row.Medians[k]))
		}
		values = append(values, cellValue(row.Statistic()), cellValue(row.PValue()))

		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	return f.Write(out)
}

func cellValue(v core.NullFloat64) interface{} {
	if v.IsMissing() {
		return nil
	}
	return v.Float64
}
