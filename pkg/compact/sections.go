package compact

import (
	"regexp"
	"strings"
)

// Section is a contiguous, zero-based line range recognized as a language
// construct.
type Section struct {
	StartLine int
	EndLine   int
	Score     float64
}

// maxSignatureLines bounds how far a header may look for its opening brace.
const maxSignatureLines = 4

var (
	stringLiteral = regexp.MustCompile(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'|` + "`[^`]*`")
	headingLine   = regexp.MustCompile(`^#{1,6}\s`)
)

// Sections returns the structural sections of content for lang. Sections
// never overlap; a nested construct belongs to its enclosing section.
func Sections(content string, lang Language) []Section {
	return findSections(strings.Split(content, "\n"), profileFor(lang))
}

func findSections(lines []string, prof *profile) []Section {
	if len(prof.sections) == 0 {
		return nil
	}
	var out []Section
	for i := 0; i < len(lines); i++ {
		sc, ok := prof.sectionScore(lines[i])
		if !ok {
			continue
		}
		var end int
		switch prof.style {
		case styleBraces:
			end = braceEnd(lines, i, prof)
		case styleIndent:
			end = indentEnd(lines, i)
		case styleHeadings:
			end = headingEnd(lines, i)
		default:
			end = i
		}
		out = append(out, Section{StartLine: i, EndLine: end, Score: sc})
		i = end
	}
	return out
}

// braceEnd follows brace depth from start until the block opened on (or
// shortly after) the header line closes. Unbalanced input ends at the last line.
func braceEnd(lines []string, start int, prof *profile) int {
	depth := 0
	opened := false
	for j := start; j < len(lines); j++ {
		if !opened && j > start {
			t := strings.TrimSpace(lines[j])
			if t == "" || j-start > maxSignatureLines {
				return j - 1
			}
			if _, ok := prof.sectionScore(lines[j]); ok {
				return j - 1
			}
		}

		opens, closes := braceCounts(lines[j])
		depth += opens - closes
		if opens > 0 {
			opened = true
		}
		if opened && depth <= 0 {
			return j
		}
		if !opened && strings.HasSuffix(strings.TrimSpace(lines[j]), ";") {
			return j
		}
	}
	return len(lines) - 1
}

// indentEnd returns the last line indented deeper than the header.
func indentEnd(lines []string, start int) int {
	base := indentOf(lines[start])
	end := start
	for j := start + 1; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == "" {
			continue
		}
		if indentOf(lines[j]) <= base {
			break
		}
		end = j
	}
	return end
}

// headingEnd returns the line before the next heading.
func headingEnd(lines []string, start int) int {
	for j := start + 1; j < len(lines); j++ {
		if headingLine.MatchString(lines[j]) {
			return j - 1
		}
	}
	return len(lines) - 1
}

// braceCounts counts curly braces outside simple string literals.
func braceCounts(line string) (opens, closes int) {
	line = stringLiteral.ReplaceAllString(line, "")
	return strings.Count(line, "{"), strings.Count(line, "}")
}

// indentOf measures leading whitespace, counting a tab as four columns.
func indentOf(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}
