package core

import (
	"bufio"
	"bytes"
	"html/template"
	"io"
	"strings"

	"github.com/wansing/healthregistry/util"
	"gitlab.com/golang-commonmark/markdown"
)

// Notes are entered by users, so raw HTML is not rendered.
var markdownParser *markdown.Markdown = markdown.New(markdown.HTML(false), markdown.Linkify(true), markdown.Typographer(true), markdown.MaxNesting(10))

// RenderMarkdown translates CommonMark to HTML.
func RenderMarkdown(input string) template.HTML {
	return template.HTML(renderMarkdown(strings.NewReader(input)))
}

// Excerpt renders the input and returns the beginning of its text content.
func Excerpt(input string, maxRunes int) string {
	return util.PlainText(strings.NewReader(renderMarkdown(strings.NewReader(input))), maxRunes)
}

func renderMarkdown(input io.Reader) string {

	// remove all tabs from the beginning of each line, pasted text would become a code block otherwise

	var unindentedContent = &bytes.Buffer{}

	lineScanner := bufio.NewScanner(input)
	for lineScanner.Scan() {
		line := lineScanner.Text()
		for len(line) > 0 && line[0] == '\t' {
			line = line[1:]
		}
		unindentedContent.WriteString(line)
		unindentedContent.WriteString("\n")
	}

	var result = &bytes.Buffer{}
	markdownParser.Render(result, unindentedContent.Bytes())
	return result.String()
}
