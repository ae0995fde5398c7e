package compact

import "strings"

// reindent rewrites indentation of compacted lines from block structure,
// using width spaces per level. Brace languages get their still-open blocks
// closed at the end.
func reindent(lines []string, style blockStyle, width int) []string {
	switch style {
	case styleBraces:
		return reindentBraces(lines, width)
	case styleIndent:
		return reindentIndent(lines, width)
	default:
		return lines
	}
}

func reindentBraces(lines []string, width int) []string {
	out := make([]string, 0, len(lines))
	depth := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			out = append(out, "")
			continue
		}
		opens, closes := braceCounts(trimmed)
		leading := leadingClosers(trimmed)
		level := max(0, depth-leading)
		out = append(out, strings.Repeat(" ", level*width)+trimmed)
		depth = max(0, depth+opens-closes)
	}
	for depth > 0 {
		depth--
		out = append(out, strings.Repeat(" ", depth*width)+"}")
	}
	return out
}

func reindentIndent(lines []string, width int) []string {
	out := make([]string, 0, len(lines))
	stack := []int{0}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			out = append(out, "")
			continue
		}
		if trimmed == Marker {
			out = append(out, strings.Repeat(" ", (len(stack)-1)*width)+Marker)
			continue
		}
		ind := indentOf(line)
		for len(stack) > 1 && ind < stack[len(stack)-1] {
			stack = stack[:len(stack)-1]
		}
		if ind > stack[len(stack)-1] {
			stack = append(stack, ind)
		}
		out = append(out, strings.Repeat(" ", (len(stack)-1)*width)+trimmed)
	}
	return out
}

// leadingClosers counts closing braces that start the line, e.g. "} else {".
func leadingClosers(trimmed string) int {
	n := 0
	for _, r := range trimmed {
		if r != '}' {
			break
		}
		n++
	}
	return n
}
