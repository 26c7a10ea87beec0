// Package format escapes user text for Telegram parse modes.
package format

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MarkdownV1 denotes Telegram legacy Markdown.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram MarkdownV2.
	MarkdownV2 = 2
)

var (
	mdV1Re = regexp.MustCompile("([_*`\\[])")
	mdV2Re = regexp.MustCompile(`([_*\[\]()~` + "`" + `>#+\-=|{}.!\\])`)
)

// EscapeMarkdown escapes the characters that are special in the given version.
func EscapeMarkdown(text string, version int) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Re.ReplaceAllString(text, `\$1`), nil
	case MarkdownV2:
		return mdV2Re.ReplaceAllString(text, `\$1`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// V1 escapes text for legacy Markdown.
func V1(text string) string {
	s, _ := EscapeMarkdown(text, MarkdownV1)
	return s
}

// V2 escapes text for MarkdownV2.
func V2(text string) string {
	s, _ := EscapeMarkdown(text, MarkdownV2)
	return s
}

// V2Code escapes text placed inside a MarkdownV2 code span.
func V2Code(text string) string {
	return strings.NewReplacer(`\`, `\\`, "`", "\\`").Replace(text)
}
