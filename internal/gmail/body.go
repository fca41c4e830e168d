package gmail

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractBody picks the best plain-text rendering of a message payload:
// the first text/plain part, then any text/html part converted to text, then
// the top-level body. When a candidate exists but nothing decodes, the
// sentinel is returned instead of failing the fetch.
func extractBody(payload messagePart) string {
	if plain, ok := findPart(payload, "text/plain"); ok {
		if text, err := decodeData(plain); err == nil {
			return text
		}
		return decodeFailedBody
	}

	if html, ok := findPart(payload, "text/html"); ok {
		if raw, err := decodeData(html); err == nil {
			return htmlToText(raw)
		}
		return decodeFailedBody
	}

	if payload.Body.Data != "" {
		text, err := decodeData(payload.Body.Data)
		if err != nil {
			return decodeFailedBody
		}
		if strings.EqualFold(payload.MimeType, "text/html") {
			return htmlToText(text)
		}
		return text
	}

	return ""
}

// findPart walks the part tree depth-first for the first part of the given
// mime type carrying body data. Multipart containers nest their alternatives
// one level down.
func findPart(part messagePart, mimeType string) (string, bool) {
	for _, p := range part.Parts {
		if strings.EqualFold(p.MimeType, mimeType) && p.Body.Data != "" {
			return p.Body.Data, true
		}
		if data, ok := findPart(p, mimeType); ok {
			return data, true
		}
	}
	return "", false
}

var multiNewline = regexp.MustCompile(`\n{3,}`)

// htmlToText converts an HTML body to readable plain text: scripts and styles
// dropped, block elements separated by newlines, whitespace collapsed. Falls
// back to the raw input when the HTML does not parse.
func htmlToText(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	doc.Find("script, style, head, meta, link").Remove()
	doc.Find("p, div, br, h1, h2, h3, h4, h5, h6, li, tr").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	clean := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			clean = append(clean, line)
		}
	}
	return multiNewline.ReplaceAllString(strings.Join(clean, "\n"), "\n\n")
}
