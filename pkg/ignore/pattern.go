package ignore

import (
	"regexp"
	"strings"
)

var (
	doubleStarMiddle   = regexp.MustCompile(`/\\\*\\\*/`)
	doubleStarTrailing = regexp.MustCompile(`/\\\*\\\*$`)
	doubleStarLeading  = regexp.MustCompile(`^\\\*\\\*/`)
)

// parse compiles one pattern line. It returns nil for blank lines and comments.
func parse(line string) (*Pattern, error) {
	text := strings.TrimSpace(line)
	if text == "" || strings.HasPrefix(text, "#") {
		return nil, nil
	}

	p := &Pattern{Line: line}
	if strings.HasPrefix(text, "!") {
		p.Negate = true
		text = text[1:]
	} else if strings.HasPrefix(text, `\#`) || strings.HasPrefix(text, `\!`) {
		text = text[1:]
	}
	if strings.HasSuffix(text, "/") {
		p.DirOnly = true
		text = strings.TrimRight(text, "/")
	}
	if text == "" {
		return nil, nil
	}

	// a slash anywhere but the end anchors the pattern to the root
	anchored := strings.Contains(text, "/")
	text = strings.TrimPrefix(text, "/")

	body := regexp.QuoteMeta(text)
	body = doubleStarMiddle.ReplaceAllString(body, `/(.*/)?`)
	body = doubleStarTrailing.ReplaceAllString(body, `/.*`)
	body = doubleStarLeading.ReplaceAllString(body, `(.*/)?`)
	body = strings.ReplaceAll(body, `\*`, `[^/]*`)
	body = strings.ReplaceAll(body, `\?`, `[^/]`)

	var expr strings.Builder
	expr.WriteString("^")
	if !anchored {
		expr.WriteString("(.*/)?")
	}
	expr.WriteString(body)
	if p.DirOnly {
		expr.WriteString("/")
	} else {
		expr.WriteString("(/|$)")
	}

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, err
	}
	p.Regexp = re
	return p, nil
}
