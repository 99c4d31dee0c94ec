package scanner

import (
	"strings"
	"unicode"
)

// maxContentChars bounds the text handed to the model per page.
const maxContentChars = 15000

// stripHTML reduces an HTML document to whitespace-normalized visible text.
// Script and style bodies are dropped entirely. This is deliberately crude:
// the model downstream tolerates noisy text, so a full DOM parse buys
// nothing here.
func stripHTML(html string) string {
	var b strings.Builder
	b.Grow(len(html) / 2)

	i := 0
	for i < len(html) {
		c := html[i]
		if c != '<' {
			b.WriteByte(c)
			i++
			continue
		}

		// Skip script/style elements including their content
		if tag, ok := matchTag(html[i:], "script"); ok {
			i += skipElement(html[i:], tag)
			b.WriteByte(' ')
			continue
		}
		if tag, ok := matchTag(html[i:], "style"); ok {
			i += skipElement(html[i:], tag)
			b.WriteByte(' ')
			continue
		}

		// Skip the tag itself
		end := strings.IndexByte(html[i:], '>')
		if end < 0 {
			break
		}
		i += end + 1
		b.WriteByte(' ')
	}

	return truncateText(collapseWhitespace(decodeEntities(b.String())), maxContentChars)
}

// matchTag reports whether s starts with an opening tag of the given name.
func matchTag(s, name string) (string, bool) {
	if len(s) < len(name)+2 {
		return "", false
	}
	if s[0] != '<' {
		return "", false
	}
	if !strings.EqualFold(s[1:1+len(name)], name) {
		return "", false
	}
	next := s[1+len(name)]
	if next != '>' && next != ' ' && next != '\t' && next != '\n' && next != '/' {
		return "", false
	}
	return name, true
}

// skipElement returns the number of bytes from the opening tag through the
// matching close tag, or to end of input if unterminated.
func skipElement(s, name string) int {
	closeTag := "</" + name
	idx := indexFold(s, closeTag)
	if idx < 0 {
		return len(s)
	}
	rest := s[idx:]
	end := strings.IndexByte(rest, '>')
	if end < 0 {
		return len(s)
	}
	return idx + end + 1
}

// indexFold is a case-insensitive strings.Index.
func indexFold(s, substr string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&nbsp;", " ",
)

func decodeEntities(s string) string {
	return entityReplacer.Replace(s)
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
