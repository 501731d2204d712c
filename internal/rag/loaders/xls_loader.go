package loaders

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"
)

// XlsLoader reads legacy Excel (.xls) workbooks and produces one Document per
// sheet, in the same shape as XlsxLoader.
type XlsLoader struct{}

// NewXlsLoader creates a new XlsLoader.
func NewXlsLoader() *XlsLoader {
	return &XlsLoader{}
}

// Load renders each sheet as tab-separated rows under a "Sheet: <name>"
// header line. Sheets without any rows are skipped.
func (l *XlsLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	workbook, err := xls.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}

	fileName := filepath.Base(path)
	var documents []*schema.Document
	for i := 0; i < workbook.GetNumberSheets(); i++ {
		sheet, err := workbook.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}

		var rows [][]string
		for _, row := range sheet.GetRows() {
			rows = append(rows, rowValues(row.GetCols()))
		}
		if len(rows) == 0 {
			continue
		}

		documents = append(documents, &schema.Document{
			ID:   uuid.New().String(),
			Text: renderSheet(sheet.GetName(), rows),
			Metadata: map[string]interface{}{
				schema.MetadataKeyFileName:  fileName,
				schema.MetadataKeySheetName: sheet.GetName(),
			},
		})
	}

	return documents, nil
}

// rowValues renders the cells of one row, preferring the string value and
// falling back to the numeric representations.
func rowValues(cols []structure.CellData) []string {
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		val := col.GetString()
		if val == "" {
			if num := col.GetFloat64(); num != 0 {
				val = strconv.FormatFloat(num, 'f', -1, 64)
			} else if in := col.GetInt64(); in != 0 {
				val = strconv.FormatInt(in, 10)
			}
		}
		out = append(out, val)
	}
	return out
}

// compile-time check to ensure XlsLoader implements the Loader interface
var _ interfaces.Loader = (*XlsLoader)(nil)
