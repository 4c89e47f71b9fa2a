package parser

import (
	"strings"
	"unicode"
)

// chunk content into chunks with maxChars and overlapChars
func chunkContent(content string, maxChars, overlapChars int) []string {
	// Handle edge cases
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	runes := []rune(strings.TrimSpace(content))
	contentLen := len(runes)
	if contentLen == 0 {
		return nil
	}

	// If content is shorter than maxChars, return it as a single chunk
	if contentLen <= maxChars {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < contentLen {
		end := min(start+maxChars, contentLen)

		// Look for a space or punctuation within the last 10% of the chunk
		if end < contentLen {
			lookBack := min(maxChars/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if unicode.IsSpace(runes[i]) || runes[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= contentLen {
			break
		}

		// Move start forward, accounting for overlap, always making progress
		next := end - overlapChars
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}
