package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"
	"docqa/pkg/logger"
)

// NotFoundReply is the exact phrase the model is instructed to return when
// the retrieved context does not contain the answer. Callers can compare
// replies against it to detect an unanswered question.
const NotFoundReply = "data not found"

// systemInstruction confines the model to the retrieved context.
const systemInstruction = "You are an assistant that answers questions strictly from the provided context. " +
	"Use only the information in the context below. " +
	"If the context does not contain the answer, reply with exactly: " + NotFoundReply

// QAPipeline generates an answer for a question from retrieved chunks.
type QAPipeline struct {
	llm interfaces.LLM
	log *logger.Logger
}

// NewQAPipeline creates a new QAPipeline.
func NewQAPipeline(llm interfaces.LLM, log *logger.Logger) *QAPipeline {
	return &QAPipeline{llm: llm, log: log}
}

// Run builds a grounded prompt from the documents and asks the LLM for an
// answer. Credential failures pass through unchanged; any other model failure
// is reported as a synthesis error.
func (p *QAPipeline) Run(ctx context.Context, query string, documents []*schema.Document) (string, error) {
	p.log.Info(fmt.Sprintf("Building prompt with %d context chunks", len(documents)))

	answer, err := p.llm.Generate(ctx, systemInstruction, p.buildPrompt(query, documents))
	if err != nil {
		p.log.Error(fmt.Sprintf("LLM failed to generate answer: %v", err))
		if errors.Is(err, interfaces.ErrAuthentication) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", interfaces.ErrSynthesis, err)
	}

	p.log.Info("Successfully generated answer from LLM.")
	return strings.TrimSpace(answer), nil
}

// buildPrompt renders the numbered context blocks followed by the question.
func (p *QAPipeline) buildPrompt(query string, documents []*schema.Document) string {
	var sb strings.Builder

	sb.WriteString("Context:\n")
	for i, doc := range documents {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("Context %d:\n%s\n", i+1, doc.Text))
	}
	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("Question: %s", query))

	return sb.String()
}
