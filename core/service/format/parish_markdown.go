// Package format renders model output into the HTML body of the outgoing
// mail and into a plain-text alternative.
package format

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	boldRe    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe  = regexp.MustCompile(`\*([^*\n]+)\*`)
	headerRe  = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	ulItemRe  = regexp.MustCompile(`^(\s*)[-*]\s+(.*)$`)
	olItemRe  = regexp.MustCompile(`^(\s*)\d+\.\s+(.*)$`)
	linkRe    = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	detectRes = []*regexp.Regexp{
		regexp.MustCompile(`\*\*[^*]+\*\*`),
		regexp.MustCompile(`\*[^*\n]+\*`),
		regexp.MustCompile(`(?m)^#{1,6}\s+`),
		regexp.MustCompile(`(?m)^\s*[-*]\s+`),
		regexp.MustCompile(`(?m)^\s*\d+\.\s+`),
		regexp.MustCompile(`\[.+\]\(.+\)`),
	}
)

// headerSizes maps the header level to a font size, largest first.
var headerSizes = []int{20, 18, 16, 15, 14, 13}

// HasMarkdown reports whether the text carries any markdown construct.
func HasMarkdown(text string) bool {
	for _, re := range detectRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func inline(text string) string {
	text = boldRe.ReplaceAllString(text, "<strong>$1</strong>")
	text = italicRe.ReplaceAllString(text, "<em>$1</em>")
	text = linkRe.ReplaceAllString(text, `<a href="$2">$1</a>`)
	return text
}

// ToHTML converts the model's markdown into mail-safe HTML. Lists nest by
// two-space indentation; everything else becomes paragraphs.
func ToHTML(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var b strings.Builder
	var para []string
	var listStack []string // open list tags, innermost last

	flushPara := func() {
		if len(para) == 0 {
			return
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(para, "<br>"))
		b.WriteString("</p>")
		para = para[:0]
	}
	closeListsTo := func(depth int) {
		for len(listStack) > depth {
			b.WriteString("</" + listStack[len(listStack)-1] + ">")
			listStack = listStack[:len(listStack)-1]
		}
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			flushPara()
			closeListsTo(0)
			continue
		}

		if m := headerRe.FindStringSubmatch(line); m != nil {
			flushPara()
			closeListsTo(0)
			size := headerSizes[len(m[1])-1]
			fmt.Fprintf(&b, `<p style="font-size:%dpx;font-weight:bold;margin:12px 0 6px 0;">%s</p>`, size, inline(m[2]))
			continue
		}

		tag, indent, item := "", "", ""
		if m := ulItemRe.FindStringSubmatch(line); m != nil {
			tag, indent, item = "ul", m[1], m[2]
		} else if m := olItemRe.FindStringSubmatch(line); m != nil {
			tag, indent, item = "ol", m[1], m[2]
		}

		if tag != "" {
			flushPara()
			depth := len(indent)/2 + 1
			closeListsTo(depth)
			for len(listStack) < depth {
				b.WriteString("<" + tag + ">")
				listStack = append(listStack, tag)
			}
			b.WriteString("<li>" + inline(item) + "</li>")
			continue
		}

		closeListsTo(0)
		para = append(para, inline(line))
	}
	flushPara()
	closeListsTo(0)
	return b.String()
}

// Strip removes markdown markers while keeping the readable content:
// list item text stays, link anchors stay, emphasis markers disappear.
func Strip(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if m := headerRe.FindStringSubmatch(line); m != nil {
			line = m[2]
		}
		if m := ulItemRe.FindStringSubmatch(line); m != nil {
			line = m[1] + "- " + m[2]
		}
		lines[i] = line
	}
	out := strings.Join(lines, "\n")
	out = boldRe.ReplaceAllString(out, "$1")
	out = italicRe.ReplaceAllString(out, "$1")
	out = linkRe.ReplaceAllString(out, "$1")
	return out
}
