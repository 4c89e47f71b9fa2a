package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"clause-summarizer/internal/config"
	"clause-summarizer/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	maxHeadingLen   = 80
	maxHeadingWords = 10
	// numbered list items are often short sentences
	maxNumberedWords = 6
)

var (
	markdownHeadingRe = regexp.MustCompile(models.MarkdownHeadingRegex)
	keywordHeadingRe  = regexp.MustCompile(models.KeywordHeadingRegex)
	numberedHeadingRe = regexp.MustCompile(models.NumberedHeadingRegex)
	capsHeadingRe     = regexp.MustCompile(models.CapsHeadingRegex)
)

type taggerState struct {
	page           int
	heading        string
	currentContent []string
	groups         []models.TaggedGroup
	groupIndex     map[string]int
	titleCaser     cases.Caser
	cfg            *config.Config
}

// Tag partitions extracted pages into groups headed by the section titles
// found in the text. A section runs until the next heading, across page
// breaks; text before the document's first heading is grouped under
// "Page N". The result only depends on the input.
func Tag(pages []models.Page, cfg *config.Config) []models.TaggedGroup {
	if cfg == nil {
		cfg = config.Default()
	} else {
		c := *cfg
		config.ApplyDefaults(&c)
		cfg = &c
	}

	state := taggerState{
		groupIndex: make(map[string]int),
		titleCaser: cases.Title(language.English),
		cfg:        cfg,
	}

	for _, page := range pages {
		state.page = page.Number
		for _, line := range strings.Split(page.Text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			state.processLine(line)
		}
		// sections continue across pages; only the page number changes
		state.flush()
	}

	return state.groups
}

// processLine handles a single line, opening a new section on headings
func (s *taggerState) processLine(line string) {
	if heading, ok := s.detectHeading(line); ok {
		s.flush()
		s.heading = heading
		return
	}
	s.currentContent = append(s.currentContent, line)
}

// flush chunks the accumulated content into the current heading's group
func (s *taggerState) flush() {
	if len(s.currentContent) == 0 {
		return
	}
	heading := s.heading
	if heading == "" {
		heading = fmt.Sprintf(models.PageHeadingFormat, s.page)
	}

	content := strings.Join(s.currentContent, "\n")
	s.currentContent = nil

	i, ok := s.groupIndex[heading]
	if !ok {
		i = len(s.groups)
		s.groupIndex[heading] = i
		s.groups = append(s.groups, models.TaggedGroup{Heading: heading})
	}
	group := &s.groups[i]
	for _, piece := range chunkContent(content, s.cfg.RAG.ChunkSize, s.cfg.RAG.ChunkOverlap) {
		group.Chunks = append(group.Chunks, models.Chunk{
			Content:    piece,
			Heading:    heading,
			PageNumber: s.page,
			ChunkID:    len(group.Chunks) + 1,
		})
	}
}

// detectHeading reports whether line is a section title and returns the
// cleaned title.
func (s *taggerState) detectHeading(line string) (string, bool) {
	if len(line) > maxHeadingLen {
		return "", false
	}
	if m := markdownHeadingRe.FindStringSubmatch(line); m != nil {
		return s.cleanHeading(m[1])
	}
	if len(strings.Fields(line)) > maxHeadingWords {
		return "", false
	}
	if m := keywordHeadingRe.FindStringSubmatch(line); m != nil {
		title := strings.TrimLeft(strings.TrimSpace(m[2]), ".:)-– ")
		if title == "" {
			return s.cleanHeading(line)
		}
		if endsSentence(title) || !startsUpper(title) {
			return "", false
		}
		return s.cleanHeading(title)
	}
	if m := numberedHeadingRe.FindStringSubmatch(line); m != nil && len(strings.Fields(m[2])) <= maxNumberedWords {
		return s.cleanHeading(m[2])
	}
	if capsHeadingRe.MatchString(line) && letterCount(line) >= 3 {
		return s.cleanHeading(line)
	}
	return "", false
}

func (s *taggerState) cleanHeading(title string) (string, bool) {
	title = strings.TrimSpace(strings.TrimRight(title, ".:;-– "))
	if title == "" {
		return "", false
	}
	if isUpper(title) {
		title = s.titleCaser.String(strings.ToLower(title))
	}
	return title, true
}

func endsSentence(s string) bool {
	return strings.HasSuffix(s, ".") && len(strings.Fields(s)) > 3
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r) || unicode.IsDigit(r)
	}
	return false
}

func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func letterCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
