// Package markdown renders blog posts to sanitized HTML.
//
// The renderer covers the subset of CommonMark and GFM that blog posts use:
// ATX headings, paragraphs, lists, blockquotes, fenced code, tables, rules
// and inline emphasis, code, links and images. Its output is always passed
// through a bluemonday UGC policy because post content is untrusted.
package markdown

import (
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
)

var (
	reHeading     = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*#*\s*$`)
	reOrderedItem = regexp.MustCompile(`^\d+[.)]\s+`)
	reRule        = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,})\s*$`)

	reImage      = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)(?:\s+&#34;([^&]*)&#34;)?\)`)
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	reCodeSpan   = regexp.MustCompile("`([^`]+)`")
	reStrong     = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
	reEmphasis   = regexp.MustCompile(`\*([^*]+)\*|\b_([^_]+)_\b`)
	reStrike     = regexp.MustCompile(`~~(.+?)~~`)
	reSlugStrip  = regexp.MustCompile(`[^\p{L}\p{N}\s-]+`)
	reSlugSpaces = regexp.MustCompile(`[\s-]+`)
)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-z0-9 _-]+$`)).OnElements("code", "pre", "div", "span")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Render converts content to sanitized HTML.
func Render(content string) string {
	r := &renderer{slugs: make(map[string]int)}
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		r.line(line)
	}
	r.closeBlock()
	return policy.Sanitize(r.out.String())
}

// Component returns a templ.Component that writes Render(content).
func Component(content string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, Render(content))
		return err
	})
}

type block int

const (
	blockNone block = iota
	blockParagraph
	blockList
	blockOrdered
	blockQuote
	blockTable
	blockCode
)

type renderer struct {
	out       strings.Builder
	block     block
	tableBody bool
	codeLang  string
	slugs     map[string]int
}

func (r *renderer) line(line string) {
	if r.block == blockCode {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			r.closeBlock()
			return
		}
		r.out.WriteString(html.EscapeString(line))
		r.out.WriteByte('\n')
		return
	}

	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		r.closeBlock()
	case strings.HasPrefix(trimmed, "```"):
		r.openCode(strings.TrimSpace(strings.TrimPrefix(trimmed, "```")))
	case reRule.MatchString(trimmed):
		r.closeBlock()
		r.out.WriteString("<hr/>")
	case reHeading.MatchString(trimmed):
		m := reHeading.FindStringSubmatch(trimmed)
		r.heading(len(m[1]), m[2])
	case strings.HasPrefix(trimmed, "|"):
		r.tableRow(trimmed)
	case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "), strings.HasPrefix(trimmed, "+ "):
		r.listItem(blockList, trimmed[2:])
	case reOrderedItem.MatchString(trimmed):
		r.listItem(blockOrdered, reOrderedItem.ReplaceAllString(trimmed, ""))
	case trimmed == ">" || strings.HasPrefix(trimmed, "> "):
		r.open(blockQuote)
		r.out.WriteString(inline(strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))))
		r.out.WriteByte('\n')
	default:
		if r.block == blockParagraph {
			r.out.WriteByte('\n')
		} else {
			r.open(blockParagraph)
		}
		r.out.WriteString(inline(trimmed))
	}
}

// open starts block b unless it is already the current block.
func (r *renderer) open(b block) {
	if r.block == b {
		return
	}
	r.closeBlock()
	r.block = b
	switch b {
	case blockParagraph:
		r.out.WriteString("<p>")
	case blockList:
		r.out.WriteString("<ul>")
	case blockOrdered:
		r.out.WriteString("<ol>")
	case blockQuote:
		r.out.WriteString("<blockquote>")
	case blockTable:
		r.out.WriteString("<table>")
		r.tableBody = false
	}
}

func (r *renderer) closeBlock() {
	switch r.block {
	case blockParagraph:
		r.out.WriteString("</p>")
	case blockList:
		r.out.WriteString("</ul>")
	case blockOrdered:
		r.out.WriteString("</ol>")
	case blockQuote:
		r.out.WriteString("</blockquote>")
	case blockTable:
		if r.tableBody {
			r.out.WriteString("</tbody>")
		}
		r.out.WriteString("</table>")
	case blockCode:
		r.out.WriteString("</code></pre>")
		if r.codeLang != "" {
			r.out.WriteString("</div>")
		}
		r.codeLang = ""
	}
	r.block = blockNone
}

func (r *renderer) openCode(lang string) {
	r.closeBlock()
	r.block = blockCode
	r.codeLang = ""
	if f := strings.Fields(lang); len(f) > 0 {
		r.codeLang = strings.ToLower(f[0])
	}
	if r.codeLang == "" {
		r.out.WriteString(`<pre class="code-block"><code>`)
		return
	}
	l := html.EscapeString(r.codeLang)
	r.out.WriteString(`<div class="code-block-wrapper"><span class="code-lang">` + l + `</span>`)
	r.out.WriteString(`<pre class="code-block"><code class="language-` + l + `">`)
}

func (r *renderer) heading(level int, text string) {
	r.closeBlock()
	tag := "h" + strconv.Itoa(level)
	r.out.WriteString("<" + tag + ` id="` + r.slug(text) + `">`)
	r.out.WriteString(inline(text))
	r.out.WriteString("</" + tag + ">")
}

// slug derives a heading anchor, suffixing repeats with -1, -2, ...
func (r *renderer) slug(text string) string {
	s := strings.ToLower(reSlugStrip.ReplaceAllString(text, ""))
	s = strings.Trim(reSlugSpaces.ReplaceAllString(s, "-"), "-")
	if s == "" {
		s = "section"
	}
	n := r.slugs[s]
	r.slugs[s] = n + 1
	if n > 0 {
		return s + "-" + strconv.Itoa(n)
	}
	return s
}

func (r *renderer) listItem(kind block, text string) {
	r.open(kind)
	r.out.WriteString("<li>" + inline(strings.TrimSpace(text)) + "</li>")
}

func (r *renderer) tableRow(line string) {
	if r.block != blockTable {
		r.open(blockTable)
		r.out.WriteString("<thead><tr>")
		for _, cell := range tableCells(line) {
			r.out.WriteString("<th>" + inline(cell) + "</th>")
		}
		r.out.WriteString("</tr></thead>")
		return
	}
	if !r.tableBody {
		r.out.WriteString("<tbody>")
		r.tableBody = true
	}
	if isTableSeparator(line) {
		return
	}
	r.out.WriteString("<tr>")
	for _, cell := range tableCells(line) {
		r.out.WriteString("<td>" + inline(cell) + "</td>")
	}
	r.out.WriteString("</tr>")
}

func tableCells(line string) []string {
	parts := strings.Split(strings.Trim(strings.TrimSpace(line), "|"), "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func isTableSeparator(line string) bool {
	for _, cell := range tableCells(line) {
		if strings.Trim(cell, "-: ") != "" || !strings.Contains(cell, "-") {
			return false
		}
	}
	return true
}

// inline escapes s and applies span-level formatting. Code spans are swapped
// for placeholders first so their contents are left alone.
func inline(s string) string {
	out := html.EscapeString(s)

	var spans []string
	out = reCodeSpan.ReplaceAllStringFunc(out, func(m string) string {
		spans = append(spans, "<code>"+reCodeSpan.FindStringSubmatch(m)[1]+"</code>")
		return "\x00" + strconv.Itoa(len(spans)-1) + "\x00"
	})

	out = reImage.ReplaceAllStringFunc(out, func(m string) string {
		g := reImage.FindStringSubmatch(m)
		src := SafeURL(g[2])
		if src == "" {
			return g[1]
		}
		img := `<img src="` + src + `" alt="` + g[1] + `" loading="lazy"`
		if g[3] != "" {
			img += ` title="` + g[3] + `"`
		}
		return img + `/>`
	})
	out = reLink.ReplaceAllStringFunc(out, func(m string) string {
		g := reLink.FindStringSubmatch(m)
		href := SafeURL(g[2])
		if href == "" {
			return g[1]
		}
		return `<a href="` + href + `">` + g[1] + `</a>`
	})
	out = outsideTags(out, func(seg string) string {
		seg = reStrong.ReplaceAllString(seg, "<strong>$1$2</strong>")
		seg = reEmphasis.ReplaceAllString(seg, "<em>$1$2</em>")
		return reStrike.ReplaceAllString(seg, "<del>$1</del>")
	})

	for i, code := range spans {
		out = strings.Replace(out, "\x00"+strconv.Itoa(i)+"\x00", code, 1)
	}
	return out
}

// outsideTags applies fn to the text between tags so attribute values such
// as URLs are never reformatted.
func outsideTags(s string, fn func(string) string) string {
	var b strings.Builder
	for s != "" {
		lt := strings.IndexByte(s, '<')
		if lt < 0 {
			b.WriteString(fn(s))
			break
		}
		b.WriteString(fn(s[:lt]))
		gt := strings.IndexByte(s[lt:], '>')
		if gt < 0 {
			b.WriteString(s[lt:])
			break
		}
		b.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return b.String()
}

// SafeURL returns raw escaped for an attribute, or "" when it uses a scheme
// other than http, https or mailto. Relative references are allowed.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	u, err := url.Parse(val)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return html.EscapeString(val)
	default:
		return ""
	}
}
