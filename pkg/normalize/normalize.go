// Package normalize cleans file content before it is compacted or rendered.
package normalize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// Options selects the normalization passes to run.
type Options struct {
	NormalizeLineEndings bool
	NormalizeWhitespace  bool
	RemoveHTMLTags       bool
}

// Enabled reports whether any pass is selected.
func (o Options) Enabled() bool {
	return o.NormalizeLineEndings || o.NormalizeWhitespace || o.RemoveHTMLTags
}

var (
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	blankRuns     = regexp.MustCompile(`\n{4,}`)

	strict = bluemonday.StrictPolicy()
)

// maxStripPasses bounds StripTags on pathological nesting such as
// "&amp;amp;amp;...". Each pass decodes one level.
const maxStripPasses = 32

// Apply runs the selected passes. Applying it to its own output returns
// the same content.
func Apply(content string, opts Options) string {
	if opts.RemoveHTMLTags {
		content = StripTags(content)
	}
	if opts.NormalizeLineEndings {
		content = LineEndings(content)
	}
	if opts.NormalizeWhitespace {
		content = Whitespace(content)
	}
	return content
}

// LineEndings converts CRLF and lone CR line breaks to LF.
func LineEndings(content string) string {
	if !strings.Contains(content, "\r") {
		return content
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}

// Whitespace applies NFC, removes trailing blanks on each line and collapses
// runs of more than two empty lines.
func Whitespace(content string) string {
	content = norm.NFC.String(content)
	content = trailingSpace.ReplaceAllString(content, "\n")
	content = strings.TrimRight(content, " \t")
	return blankRuns.ReplaceAllString(content, "\n\n\n")
}

// StripTags removes HTML markup, keeping text content. Entities are
// decoded, and markup produced by decoding is stripped as well, so the
// result is unchanged by another call.
func StripTags(content string) string {
	for i := 0; i < maxStripPasses; i++ {
		next := stripOnce(content)
		if next == content {
			break
		}
		content = next
	}
	return content
}

func stripOnce(content string) string {
	if !strings.ContainsAny(content, "<&") {
		return content
	}
	return html.UnescapeString(strict.Sanitize(content))
}
