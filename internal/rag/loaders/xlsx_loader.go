package loaders

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"
)

// XlsxLoader reads Excel (.xlsx) files and produces one Document per sheet.
type XlsxLoader struct{}

// NewXlsxLoader creates a new XlsxLoader.
func NewXlsxLoader() *XlsxLoader {
	return &XlsxLoader{}
}

// Load renders each sheet as tab-separated rows under a "Sheet: <name>"
// header line. Rows are padded to the sheet's widest row so that missing
// cells appear as empty strings. Sheets without any rows are skipped.
func (l *XlsxLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	fileName := filepath.Base(path)
	var documents []*schema.Document
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
		}
		if len(rows) == 0 {
			continue
		}

		documents = append(documents, &schema.Document{
			ID:   uuid.New().String(),
			Text: renderSheet(sheetName, rows),
			Metadata: map[string]interface{}{
				schema.MetadataKeyFileName:  fileName,
				schema.MetadataKeySheetName: sheetName,
			},
		})
	}

	return documents, nil
}

// renderSheet produces the "Sheet: <name>" header followed by one
// tab-separated line per row, padded to the widest row.
func renderSheet(name string, rows [][]string) string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	var sb strings.Builder
	sb.WriteString("Sheet: " + name)
	for _, row := range rows {
		cells := make([]string, width)
		copy(cells, row)
		sb.WriteString("\n" + strings.Join(cells, "\t"))
	}
	return sb.String()
}

// compile-time check to ensure XlsxLoader implements the Loader interface
var _ interfaces.Loader = (*XlsxLoader)(nil)
