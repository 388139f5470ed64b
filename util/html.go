package util

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// PlainText returns the text content of an HTML fragment, with whitespace collapsed.
// It stops reading after maxRunes runes of text.
func PlainText(input io.Reader, maxRunes int) string {

	tokenizer := html.NewTokenizerFragment(input, "body")
	tokenizer.SetMaxBuf(4096) // roughly the maximum number of bytes tokenized

	var b strings.Builder
	var runes = 0

	for runes < maxRunes {

		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break // assuming tokenizer.Err() == io.EOF
		}

		if tt != html.TextToken {
			continue
		}

		// words in different elements are separated as well, even if the elements are inline
		for _, field := range strings.Fields(string(tokenizer.Text())) {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(field)
			runes += len([]rune(field)) + 1
		}
	}

	return Trunc(b.String(), maxRunes)
}
