package parser

import (
	"archive/zip"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"clause-summarizer/internal/models"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

const defaultPageNumber = 1

// Extract reads the document at filePath and returns its text page by page.
// Any failure, including a document without a text layer, wraps
// models.ErrExtraction.
func Extract(filePath string) ([]models.Page, error) {
	var (
		pages []models.Page
		err   error
	)

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		pages, err = parsePDF(filePath)
	case ".docx":
		pages, err = parseDOCX(filePath)
	case ".pptx":
		pages, err = parsePPTX(filePath)
	case ".xlsx":
		pages, err = parseXLSX(filePath)
	case ".ods":
		pages, err = parseODS(filePath)
	case ".md", ".markdown":
		pages, err = parseMarkdown(filePath)
	case ".txt":
		pages, err = parseText(filePath)
	default:
		return nil, fmt.Errorf("%w: unsupported file format: %s", models.ErrExtraction, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrExtraction, filepath.Base(filePath), err)
	}

	pages = dropEmptyPages(pages)
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s: no extractable text (scanned documents need OCR first)", models.ErrExtraction, filepath.Base(filePath))
	}

	log.Debug().Str("file", filePath).Int("pages", len(pages)).Msg("Extracted document")
	return pages, nil
}

func parsePDF(filePath string) ([]models.Page, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Get file size for reader initialization
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var pages []models.Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := pdfPageText(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, models.Page{Number: i, Text: text})
	}
	return pages, nil
}

// pdfPageText keeps one line per text row so headings stay on their own line.
func pdfPageText(page pdf.Page) (string, error) {
	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		var text strings.Builder
		for _, row := range rows {
			var line strings.Builder
			for _, word := range row.Content {
				line.WriteString(word.S)
			}
			text.WriteString(strings.Join(strings.Fields(line.String()), " "))
			text.WriteString("\n")
		}
		return text.String(), nil
	}

	// fall back to the content stream order
	return page.GetPlainText(nil)
}

func parseDOCX(filePath string) ([]models.Page, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := extractTextFromXML(r.Editable().GetContent())

	// DOCX has no page numbers
	return []models.Page{{Number: defaultPageNumber, Text: content}}, nil
}

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide([0-9]+)\.xml$`)

// parsePPTX returns one page per slide, numbered as in the deck.
func parsePPTX(filePath string) ([]models.Page, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []models.Page
	for _, file := range f.File {
		m := slideNameRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", num, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", num, err)
		}
		pages = append(pages, models.Page{Number: num, Text: extractXMLText(string(data), "a")})
	}

	// zip order is not slide order
	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}

func parseXLSX(filePath string) ([]models.Page, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var pages []models.Page
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(sheet.Name + "\n")
		for _, row := range sheet.Rows {
			var cells []string
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			text.WriteString(strings.TrimSpace(strings.Join(cells, " ")) + "\n")
		}
		pages = append(pages, models.Page{Number: sheetNum + 1, Text: text.String()})
	}
	return pages, nil
}

func parseODS(filePath string) ([]models.Page, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []models.Page
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			log.Warn().Err(err).Str("sheet", sheetName).Msg("Skipping unreadable sheet")
			continue
		}
		var text strings.Builder
		text.WriteString(sheetName + "\n")
		for _, row := range rows {
			text.WriteString(strings.TrimSpace(strings.Join(row, " ")) + "\n")
		}
		pages = append(pages, models.Page{Number: sheetNum + 1, Text: text.String()})
	}
	return pages, nil
}

func parseText(filePath string) ([]models.Page, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return SplitPages(string(data)), nil
}

// SplitPages splits plain text on form feeds, the page break most
// text exporters emit. Text without form feeds is a single page.
func SplitPages(text string) []models.Page {
	var pages []models.Page
	for i, part := range strings.Split(text, "\f") {
		pages = append(pages, models.Page{Number: i + 1, Text: part})
	}
	return pages
}

// extractTextFromXML turns WordprocessingML into plain text, one paragraph per line.
func extractTextFromXML(xmlContent string) string {
	return extractXMLText(xmlContent, "w")
}

// extractXMLText joins the <ns:t> runs of each <ns:p> paragraph.
func extractXMLText(xmlContent, ns string) string {
	var text strings.Builder
	paragraphs := strings.Split(xmlContent, "</"+ns+":p>")
	for _, p := range paragraphs {
		var line strings.Builder
		parts := strings.Split(p, "<"+ns+":t")
		for i, part := range parts {
			// skip <w:tab/>, <w:tbl>, <w:tc> and friends
			if i == 0 || part == "" || (part[0] != '>' && part[0] != ' ') {
				continue
			}
			start := strings.Index(part, ">")
			end := strings.Index(part, "</"+ns+":t>")
			if start >= 0 && end > start {
				line.WriteString(html.UnescapeString(part[start+1 : end]))
			}
		}
		if s := strings.TrimSpace(line.String()); s != "" {
			text.WriteString(s + "\n")
		}
	}
	return text.String()
}

func dropEmptyPages(pages []models.Page) []models.Page {
	out := pages[:0]
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			out = append(out, p)
		}
	}
	return out
}
