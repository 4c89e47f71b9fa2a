package summarize

import (
	"regexp"
	"strings"

	"clause-summarizer/internal/models"
)

// Rule is one step of the model output clean-up.
type Rule interface {
	Name() string
	Apply(text string) string
}

// DefaultRules is the clean-up applied to every completion, in order.
func DefaultRules() []Rule {
	return []Rule{
		StripTags{},
		CollapseNewlines{},
		Sentinel{Phrase: models.ClauseNotFound},
		TruncateAtFence{Fences: []string{"```", `"""`, "'''"}},
		Trim{},
	}
}

// ErrorRules is the clean-up applied to backend error text shown as a summary.
func ErrorRules() []Rule {
	return []Rule{StripTags{}, CollapseNewlines{}, Trim{}}
}

// Apply runs rules over text in order.
func Apply(rules []Rule, text string) string {
	for _, r := range rules {
		text = r.Apply(text)
	}
	return text
}

var markupTagRe = regexp.MustCompile(models.MarkupTagRegex)

// StripTags removes <...> markup. A tag never spans lines.
type StripTags struct{}

func (StripTags) Name() string { return "strip-tags" }

func (StripTags) Apply(text string) string {
	return markupTagRe.ReplaceAllString(text, "")
}

// CollapseNewlines makes the summary a single line.
type CollapseNewlines struct{}

func (CollapseNewlines) Name() string { return "collapse-newlines" }

func (CollapseNewlines) Apply(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	return strings.ReplaceAll(text, "\n", " ")
}

// Sentinel replaces the whole text with Phrase when Phrase occurs anywhere in it.
type Sentinel struct {
	Phrase string
}

func (Sentinel) Name() string { return "sentinel" }

func (s Sentinel) Apply(text string) string {
	if s.Phrase != "" && strings.Contains(text, s.Phrase) {
		return s.Phrase
	}
	return text
}

// TruncateAtFence drops everything from the earliest fence onwards.
// Fences are compared by position; on a tie the earlier entry in Fences wins.
type TruncateAtFence struct {
	Fences []string
}

func (TruncateAtFence) Name() string { return "truncate-fence" }

func (t TruncateAtFence) Apply(text string) string {
	cut := -1
	for _, fence := range t.Fences {
		if i := strings.Index(text, fence); i >= 0 && (cut < 0 || i < cut) {
			cut = i
		}
	}
	if cut < 0 {
		return text
	}
	return text[:cut]
}

// Trim removes surrounding whitespace.
type Trim struct{}

func (Trim) Name() string { return "trim" }

func (Trim) Apply(text string) string {
	return strings.TrimSpace(text)
}
