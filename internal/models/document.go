package models

import "strings"

// Page is the text an extractor produced for one page, slide or sheet.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Chunk represents a tagged chunk with metadata
type Chunk struct {
	Content    string `json:"content"`
	Heading    string `json:"heading,omitempty"`
	PageNumber int    `json:"page_number,omitempty"`
	ChunkID    int    `json:"chunk_id"`
}

// TaggedGroup is a heading with the chunks found under it, in document order.
type TaggedGroup struct {
	Heading string  `json:"heading"`
	Chunks  []Chunk `json:"chunks"`
}

// Contents returns the text of each chunk.
func Contents(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}

// Flatten concatenates the chunks of all groups, keeping group order.
func Flatten(groups []TaggedGroup) []Chunk {
	var chunks []Chunk
	for _, g := range groups {
		chunks = append(chunks, g.Chunks...)
	}
	return chunks
}

// ClauseResult is the outcome for one clause query. Err is set when a
// backend failed; Summary then holds the error text shown to the user.
type ClauseResult struct {
	Clause  string `json:"clause"`
	Summary string `json:"summary"`
	Err     error  `json:"-"`
}

// NotFound reports whether the model said the clause is absent.
func (r ClauseResult) NotFound() bool {
	return r.Err == nil && r.Summary == ClauseNotFound
}

// SummaryResult maps clause queries to results in submission order.
type SummaryResult struct {
	results []ClauseResult
	index   map[string]int
}

func NewSummaryResult() *SummaryResult {
	return &SummaryResult{index: make(map[string]int)}
}

// Set stores r, replacing an earlier entry for the same clause in place.
func (s *SummaryResult) Set(r ClauseResult) {
	if i, ok := s.index[r.Clause]; ok {
		s.results[i] = r
		return
	}
	s.index[r.Clause] = len(s.results)
	s.results = append(s.results, r)
}

func (s *SummaryResult) Get(clause string) (ClauseResult, bool) {
	i, ok := s.index[clause]
	if !ok {
		return ClauseResult{}, false
	}
	return s.results[i], true
}

func (s *SummaryResult) Len() int { return len(s.results) }

// Results returns a copy of the entries in submission order.
func (s *SummaryResult) Results() []ClauseResult {
	out := make([]ClauseResult, len(s.results))
	copy(out, s.results)
	return out
}

// Map returns clause -> summary text.
func (s *SummaryResult) Map() map[string]string {
	m := make(map[string]string, len(s.results))
	for _, r := range s.results {
		m[r.Clause] = r.Summary
	}
	return m
}

// Failed returns the clauses whose backend call failed.
func (s *SummaryResult) Failed() []string {
	var out []string
	for _, r := range s.results {
		if r.Err != nil {
			out = append(out, r.Clause)
		}
	}
	return out
}

// NormalizeClause trims surrounding whitespace from a clause query.
func NormalizeClause(clause string) string {
	return strings.TrimSpace(clause)
}
