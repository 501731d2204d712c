package loaders

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"
)

// CsvLoader reads CSV files and produces one Document per row.
type CsvLoader struct{}

// NewCsvLoader creates a new CsvLoader.
func NewCsvLoader() *CsvLoader {
	return &CsvLoader{}
}

// Load reads every row of the file. Each row becomes a Document whose text is
// the cell values joined with tabs; the metadata records the zero-based row
// index. An empty file yields no documents.
func (l *CsvLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // rows may have ragged widths

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	fileName := filepath.Base(path)
	var documents []*schema.Document
	for i, record := range records {
		documents = append(documents, &schema.Document{
			ID:   uuid.New().String(),
			Text: strings.Join(record, "\t"),
			Metadata: map[string]interface{}{
				schema.MetadataKeyFileName: fileName,
				schema.MetadataKeyRowIndex: i,
			},
		})
	}

	return documents, nil
}

// compile-time check to ensure CsvLoader implements the Loader interface
var _ interfaces.Loader = (*CsvLoader)(nil)
