package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gokw/domain/core"
	"gokw/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader reads delimited text and .xlsx files into records
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "delimited"
	config   ReaderConfig
	logger   *internal.Logger
}

// NewDataReader creates a reader for the file, picking the format from its
// extension
func NewDataReader(filePath string, config ReaderConfig) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "delimited"
	if ext == ".xlsx" {
		fileType = "xlsx"
	}
	if config.Delimiter == 0 {
		config.Delimiter = '\t'
		if ext == ".csv" {
			config.Delimiter = ','
		}
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		config:   config,
		logger:   internal.DefaultLogger.WithComponent("DataReader"),
	}
}

// Path returns the file the reader was created for
func (r *DataReader) Path() string {
	return r.filePath
}

// ReadRecords reads every non-comment, non-blank row of the file
func (r *DataReader) ReadRecords(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.logger.Debug("Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s file %s", core.ErrNotFound, r.fileType, r.filePath)
	}

	switch r.fileType {
	case "xlsx":
		return r.readExcelRecords()
	default:
		file, err := os.Open(r.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", r.filePath, err)
		}
		defer file.Close()
		return ParseDelimited(file, r.config)
	}
}

// readExcelRecords reads the first sheet of the workbook
func (r *DataReader) readExcelRecords() ([]Record, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.NewValidationError("xlsx", r.filePath+" has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheets[0], err)
	}
	r.logger.Debug("%s read in %.2fms (%d rows)", sheets[0], float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	var records []Record
	for i, row := range rows {
		rec := Record{Line: i + 1, Fields: trimFields(row)}
		if isBlank(rec.Fields) || r.isComment(rec.Fields) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *DataReader) isComment(fields []string) bool {
	return r.config.Comment != 0 && len(fields) > 0 && strings.HasPrefix(fields[0], string(r.config.Comment))
}

// ParseDelimited tokenizes delimited text. Rows may differ in width; lines
// starting with the comment rune and blank lines are skipped; fields are
// trimmed of surrounding spaces.
func ParseDelimited(in io.Reader, config ReaderConfig) ([]Record, error) {
	reader := csv.NewReader(in)
	reader.Comma = config.Delimiter
	if reader.Comma == 0 {
		reader.Comma = '\t'
	}
	reader.Comment = config.Comment
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records []Record
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.NewValidationError("delimited", err.Error())
		}
		line, _ := reader.FieldPos(0)
		fields = trimFields(fields)
		if isBlank(fields) {
			continue
		}
		records = append(records, Record{Line: line, Fields: fields})
	}
	return records, nil
}

func trimFields(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}
