package models

const (
	// ClauseNotFound is what the model must answer when the context does not cover the clause.
	ClauseNotFound = "Clause Not Found"

	DefaultTopK = 4

	// PageHeadingFormat names the group for text before the first heading.
	PageHeadingFormat = "Page %d"

	MarkdownHeadingRegex = `^#{1,6}\s+(.+?)\s*#*$`
	KeywordHeadingRegex  = `(?i)^(?:section|article|clause|schedule|exhibit)\s+([0-9]+(?:\.[0-9]+)*|[ivxlcdm]+|[a-z])\b[.:)\-–]*\s*(.*)$`
	NumberedHeadingRegex = `^([0-9]+(?:\.[0-9]+)*)[.)]?\s+([A-Za-z][^.;:]{0,78}?)\s*$`
	CapsHeadingRegex     = `^[A-Z][A-Z0-9 &,'/()\-]{2,79}$`
	MarkupTagRegex       = `<.*?>`

	ContextSeparator   = "\n---\n"
	ErrorSummaryFormat = "Error generating summary: %v"
)

var (
	// SummaryPromptTemplate takes the context and the clause (twice).
	SummaryPromptTemplate = `You are a lease clause summarization expert. Your job is to summarize the lease clause from the Context below in a single and short paragraph. The final answer should fulfill the definition and the guidelines for the clause.

If the context has relevant information regarding the clause section, page number, clause number, etc. add them at the end of the summary inside '()'.

If the context is not relevant to the clause '%[2]s', output exactly 'Clause Not Found' as the summary. Use only the given Context and don't make up an answer on your own.

The given Context:
%[1]s

The Clause is %[2]s.

Answer:`
)
