package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clause-summarizer/internal/models"
)

type stubGenerator struct {
	response string
	err      error
	prompts  []string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

var terminationChunks = []models.Chunk{
	{Content: "Either party may terminate with 30 days notice.", Heading: "Termination", PageNumber: 4},
	{Content: "Keys must be returned on termination.", Heading: "Termination"},
	{Content: "Unlabelled text."},
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(terminationChunks, "Termination Clause")

	assert.Contains(t, prompt, "(Section: Termination, Page: 4)\nEither party may terminate with 30 days notice.")
	assert.Contains(t, prompt, "(Section: Termination)\nKeys must be returned on termination.")
	assert.Contains(t, prompt, models.ContextSeparator+"Unlabelled text.")
	assert.Contains(t, prompt, "The Clause is Termination Clause.")
	assert.Contains(t, prompt, "'Termination Clause'")
	assert.Contains(t, prompt, "'Clause Not Found'")
	assert.Contains(t, prompt, "don't make up an answer")
	assert.NotContains(t, prompt, "%!")
}

func TestBuildPromptWithoutContext(t *testing.T) {
	prompt := BuildPrompt(nil, "Force Majeure")
	assert.Contains(t, prompt, "The given Context:\n\n")
	assert.Contains(t, prompt, "The Clause is Force Majeure.")
}

func TestSummarize(t *testing.T) {
	gen := &stubGenerator{response: "<p>Either party may terminate the lease\nwith 30 days written notice.</p>\n(Section: Termination, Page: 4)\n```\nnotes```"}
	engine := NewEngine(gen)

	summary, err := engine.Summarize(context.Background(), terminationChunks, "Termination Clause")
	require.NoError(t, err)
	assert.Equal(t, "Either party may terminate the lease with 30 days written notice. (Section: Termination, Page: 4)", summary)
	require.Len(t, gen.prompts, 1)
	assert.True(t, strings.HasSuffix(gen.prompts[0], "Answer:"))
}

func TestSummarizeSentinelPrecedence(t *testing.T) {
	gen := &stubGenerator{response: "Based on the context, Clause Not Found.\n```python\nprint()```"}

	summary, err := NewEngine(gen).Summarize(context.Background(), nil, "Force Majeure")
	require.NoError(t, err)
	assert.Equal(t, models.ClauseNotFound, summary)
}

func TestSummarizeBackendError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("connection refused")}

	summary, err := NewEngine(gen).Summarize(context.Background(), terminationChunks, "Termination Clause")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBackendUnavailable)
	assert.Equal(t, "Error generating summary: connection refused", summary)
}

func TestSummarizeBackendErrorIsSingleLine(t *testing.T) {
	gen := &stubGenerator{err: errors.New("googleapi: Error 503: overloaded\nDetails:\n<html>busy</html>\n")}

	summary, err := NewEngine(gen).Summarize(context.Background(), terminationChunks, "Termination Clause")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
	assert.Equal(t, "Error generating summary: googleapi: Error 503: overloaded Details: busy", summary)
	assert.NotContains(t, summary, "\n")
}
