package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"clause-summarizer/internal/llmservice"
	"clause-summarizer/internal/models"
)

// Engine builds the clause prompt, calls the generator and cleans the answer.
type Engine struct {
	generator llmservice.Generator
	rules     []Rule
}

func NewEngine(generator llmservice.Generator) *Engine {
	return &Engine{generator: generator, rules: DefaultRules()}
}

// Summarize returns a single-paragraph summary of clause drawn from chunks,
// or models.ClauseNotFound.
//
// When the generator fails, the returned text describes the failure so it
// can be shown in place of the summary, and the error wraps
// models.ErrBackendUnavailable.
func (e *Engine) Summarize(ctx context.Context, chunks []models.Chunk, clause string) (string, error) {
	prompt := BuildPrompt(chunks, clause)

	raw, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Str("clause", clause).Msg("Error generating summary")
		return ErrorSummary(err), fmt.Errorf("%w: %v", models.ErrBackendUnavailable, err)
	}

	summary := e.Clean(raw)
	log.Debug().Str("clause", clause).Str("summary", summary).Msg("Summarized clause")
	return summary, nil
}

// Clean applies the engine's rules to a raw completion.
func (e *Engine) Clean(raw string) string {
	return Apply(e.rules, raw)
}

// ErrorSummary renders err as the single line shown in place of a summary.
func ErrorSummary(err error) string {
	return Apply(ErrorRules(), fmt.Sprintf(models.ErrorSummaryFormat, err))
}

// BuildPrompt renders the summarization prompt. Each chunk carries its
// section and page, when known, so the model can cite them.
func BuildPrompt(chunks []models.Chunk, clause string) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if meta := chunkMetadata(c); meta != "" {
			parts = append(parts, meta+"\n"+c.Content)
			continue
		}
		parts = append(parts, c.Content)
	}
	return fmt.Sprintf(models.SummaryPromptTemplate, strings.Join(parts, models.ContextSeparator), clause)
}

func chunkMetadata(c models.Chunk) string {
	var meta []string
	if c.Heading != "" {
		meta = append(meta, "Section: "+c.Heading)
	}
	if c.PageNumber > 0 {
		meta = append(meta, fmt.Sprintf("Page: %d", c.PageNumber))
	}
	if len(meta) == 0 {
		return ""
	}
	return "(" + strings.Join(meta, ", ") + ")"
}
