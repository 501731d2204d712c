package schema

const (
	// MetadataKeyFileName is the key for the source file name.
	MetadataKeyFileName = "file_name"
	// MetadataKeyPageLabel is the key for the page number of a PDF page unit.
	MetadataKeyPageLabel = "page_label"
	// MetadataKeyRowIndex is the key for the row number of a CSV row unit.
	MetadataKeyRowIndex = "row_index"
	// MetadataKeySheetName is the key for the sheet name of a spreadsheet unit.
	MetadataKeySheetName = "sheet_name"
	// MetadataKeyChunkNumber is the key for a chunk's position within its unit.
	MetadataKeyChunkNumber = "chunk_number"
	// MetadataKeyScore is the key carrying a retrieval similarity score.
	MetadataKeyScore = "score"
)

// Document is the central data structure representing a piece of text and its
// associated data. Loaders produce one Document per logical unit of a source
// file (PDF page, CSV row, spreadsheet sheet, whole DOCX); the splitter turns
// them into chunk Documents carried through the rest of the pipeline.
type Document struct {
	// ID is the unique identifier for this document or chunk.
	ID string

	// Text is the string content.
	Text string

	// Embedding is the vector representation of the text. Populated during
	// indexing; every indexed chunk has exactly one embedding.
	Embedding []float32

	// Metadata holds provenance data about the document, such as file_name
	// and page_label.
	Metadata map[string]interface{}
}
