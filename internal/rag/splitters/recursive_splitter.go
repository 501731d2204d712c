package splitters

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"
)

// defaultSeparators orders the boundaries the splitter prefers: paragraphs,
// then lines, then sentences, then words. The empty separator is the
// character-level last resort.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// RecursiveSplitter splits documents into chunks of at most ChunkSize
// characters, preferring natural boundaries and keeping ChunkOverlap
// characters of shared context between consecutive chunks of the same unit.
type RecursiveSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	separators   []string
}

// NewRecursiveSplitter creates a RecursiveSplitter. The overlap is clamped
// below the chunk size so splitting always makes progress.
func NewRecursiveSplitter(chunkSize, chunkOverlap int) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &RecursiveSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Split splits each document into chunk documents. Chunk order within a
// source document is preserved and recorded in the chunk_number metadata.
// Documents with no text produce no chunks.
func (s *RecursiveSplitter) Split(ctx context.Context, docs []*schema.Document) ([]*schema.Document, error) {
	var chunks []*schema.Document
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			continue
		}
		for i, piece := range s.splitText(doc.Text, s.separators) {
			newDoc := &schema.Document{
				ID:       uuid.New().String(),
				Text:     piece,
				Metadata: copyMetadata(doc.Metadata),
			}
			newDoc.Metadata[schema.MetadataKeyChunkNumber] = i + 1
			chunks = append(chunks, newDoc)
		}
	}
	return chunks, nil
}

// splitText recursively splits text on the first separator present, recursing
// with finer separators for any piece that still exceeds the chunk size, and
// merges the small pieces back into chunks with overlap.
func (s *RecursiveSplitter) splitText(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var next []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			next = separators[i+1:]
			break
		}
	}

	if separator == "" {
		return s.hardCut(text)
	}

	var final []string
	var good []string
	for _, piece := range strings.Split(text, separator) {
		if utf8.RuneCountInString(piece) < s.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good, separator)...)
			good = nil
		}
		if len(next) == 0 {
			final = append(final, s.hardCut(piece)...)
		} else {
			final = append(final, s.splitText(piece, next)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good, separator)...)
	}
	return final
}

// merge joins consecutive pieces with the separator up to the chunk size.
// When a chunk is flushed, trailing pieces totalling at most ChunkOverlap
// characters are kept as the start of the next chunk.
func (s *RecursiveSplitter) merge(pieces []string, separator string) []string {
	sepLen := utf8.RuneCountInString(separator)

	var chunks []string
	var current []string
	currentLen := 0

	emit := func() {
		if joined := strings.TrimSpace(strings.Join(current, separator)); joined != "" {
			chunks = append(chunks, joined)
		}
	}

	for _, piece := range pieces {
		pieceLen := utf8.RuneCountInString(piece)
		if currentLen+pieceLen+sepLen > s.ChunkSize && currentLen > 0 {
			emit()
			// Keep a tail of pieces as overlap for the next chunk, dropping
			// from the front until the new piece fits within the chunk size.
			for len(current) > 0 &&
				(currentLen > s.ChunkOverlap || currentLen+pieceLen+sepLen > s.ChunkSize) {
				currentLen -= utf8.RuneCountInString(current[0]) + sepLen
				current = current[1:]
			}
		}
		current = append(current, piece)
		currentLen += pieceLen + sepLen
	}
	if len(current) > 0 {
		emit()
	}
	return chunks
}

// hardCut slices text into fixed windows of ChunkSize runes stepping by
// ChunkSize-ChunkOverlap. Used only when no separator can break the text.
func (s *RecursiveSplitter) hardCut(text string) []string {
	runes := []rune(text)
	step := s.ChunkSize - s.ChunkOverlap
	if step <= 0 {
		step = s.ChunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func copyMetadata(md map[string]interface{}) map[string]interface{} {
	newMd := make(map[string]interface{}, len(md)+1)
	for k, v := range md {
		newMd[k] = v
	}
	return newMd
}

// compile-time check to ensure RecursiveSplitter implements the Splitter interface
var _ interfaces.Splitter = (*RecursiveSplitter)(nil)
