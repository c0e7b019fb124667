package blog

import (
	"strings"
	"unicode/utf8"
)

const (
	descriptionScan     = 300 // characters considered before truncation
	descriptionShort    = 100 // below this a second paragraph is appended
	descriptionMax      = 155
	descriptionEllipsis = "..."
	wordsPerMinute      = 200
)

// ExtractTitle returns the text of a leading "# " heading, or a readable
// form of the file name when the content has none.
func ExtractTitle(content, path string) string {
	firstLine, _, _ := strings.Cut(content, "\n")
	firstLine = strings.TrimSpace(firstLine)
	if strings.HasPrefix(firstLine, "# ") {
		return strings.TrimSpace(firstLine[2:])
	}
	return titleFromPath(path)
}

func titleFromPath(path string) string {
	name := strings.TrimSuffix(path, ".mdx")
	if name == path {
		name = strings.TrimSuffix(path, ".md")
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return path
	}
	return name
}

// ExtractDescription returns a short summary of the article body suitable
// for listings and meta descriptions. The result never contains the leading
// heading and is at most 155 characters plus an ellipsis.
func ExtractDescription(content string) string {
	body := strings.ReplaceAll(content, "\r\n", "\n")
	if strings.HasPrefix(body, "#") {
		if i := strings.IndexByte(body, '\n'); i >= 0 {
			body = body[i+1:]
		}
	}

	var paragraphs []string
	for _, p := range strings.Split(body, "\n\n") {
		if strings.TrimSpace(p) == "" || strings.HasPrefix(strings.TrimLeft(p, "\n"), "#") {
			continue
		}
		paragraphs = append(paragraphs, p)
	}
	if len(paragraphs) == 0 {
		return ""
	}

	desc := strings.TrimSpace(truncateRunes(paragraphs[0], descriptionScan))
	if utf8.RuneCountInString(desc) < descriptionShort {
		second := ""
		if len(paragraphs) > 1 {
			second = paragraphs[1]
		}
		desc = strings.TrimSpace(truncateRunes(paragraphs[0]+" "+second, descriptionScan))
	}

	if utf8.RuneCountInString(desc) <= descriptionMax {
		return desc
	}
	head := truncateRunes(desc, descriptionMax)
	if end := strings.LastIndex(head, "."); end >= 0 && utf8.RuneCountInString(head[:end]) > descriptionShort {
		return head[:end+1]
	}
	return head + descriptionEllipsis
}

// IsMarkdownFile reports whether path has a .md or .mdx extension.
// The check is case-sensitive.
func IsMarkdownFile(path string) bool {
	return strings.HasSuffix(path, ".md") || strings.HasSuffix(path, ".mdx")
}

// ReadingTime estimates the minutes needed to read content.
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
