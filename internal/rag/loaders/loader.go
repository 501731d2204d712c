package loaders

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"docqa/internal/rag/interfaces"
)

// ErrUnsupportedFormat is returned when a file's extension matches none of the
// supported document formats.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// byExtension is the closed dispatch table of supported formats. Adding a
// format means adding exactly one entry here plus its loader.
var byExtension = map[string]func() interfaces.Loader{
	".pdf":  func() interfaces.Loader { return NewPdfLoader() },
	".csv":  func() interfaces.Loader { return NewCsvLoader() },
	".docx": func() interfaces.Loader { return NewDocxLoader() },
	".xlsx": func() interfaces.Loader { return NewXlsxLoader() },
	".xls":  func() interfaces.Loader { return NewXlsLoader() },
}

// SupportedExtensions lists the recognized file extensions, dot included.
func SupportedExtensions() []string {
	return []string{".pdf", ".csv", ".docx", ".xlsx", ".xls"}
}

// ForFile selects the loader for the given path by extension. Unknown
// extensions return ErrUnsupportedFormat.
func ForFile(path string) (interfaces.Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	newLoader, ok := byExtension[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return newLoader(), nil
}
