package truncate

import "strings"

// Apply truncates content held fully in memory. The line cap is applied
// first (keeping the first MaxLines lines and appending the line marker),
// then the byte cap with the same boundary rule Stream uses.
func Apply(content string, limits Limits) (string, bool) {
	truncated := false

	if limits.MaxLines > 0 {
		if lines := strings.SplitAfter(content, "\n"); countLines(lines) > limits.MaxLines {
			content = strings.TrimSuffix(strings.Join(lines[:limits.MaxLines], ""), "\n") + limits.lineMarker()
			truncated = true
		}
	}

	if limits.MaxSize <= 0 || content == "" {
		return content, truncated
	}
	marker := limits.marker()
	budget := limits.MaxSize - int64(len(marker))
	if int64(len(content)) < budget {
		return content, truncated
	}
	if budget < 0 {
		return string(fitRunes([]byte(marker), limits.MaxSize)), true
	}
	return string(fitRunes([]byte(content), budget)) + marker, true
}

// countLines counts lines the way an editor does: a trailing newline does
// not start a new line.
func countLines(parts []string) int {
	n := len(parts)
	if n > 0 && parts[n-1] == "" {
		n--
	}
	return n
}
