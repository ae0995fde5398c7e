package compact

import (
	"path/filepath"
	"strings"
)

// Language identifies the pattern tables used to score a file.
type Language int

const (
	Unknown Language = iota
	Go
	JavaScript
	TypeScript
	Python
	Java
	Rust
	Markdown
	JSON
)

var languageNames = map[Language]string{
	Unknown:    "unknown",
	Go:         "go",
	JavaScript: "javascript",
	TypeScript: "typescript",
	Python:     "python",
	Java:       "java",
	Rust:       "rust",
	Markdown:   "markdown",
	JSON:       "json",
}

var languageTags = map[string]Language{
	"go":         Go,
	"golang":     Go,
	"js":         JavaScript,
	"jsx":        JavaScript,
	"mjs":        JavaScript,
	"cjs":        JavaScript,
	"javascript": JavaScript,
	"ts":         TypeScript,
	"tsx":        TypeScript,
	"typescript": TypeScript,
	"py":         Python,
	"python":     Python,
	"java":       Java,
	"rs":         Rust,
	"rust":       Rust,
	"md":         Markdown,
	"markdown":   Markdown,
	"json":       JSON,
}

func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return languageNames[Unknown]
}

// ParseLanguage maps a language tag or file extension (with or without the
// leading dot) to a Language. Unrecognized tags yield Unknown.
func ParseLanguage(tag string) Language {
	tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "."))
	return languageTags[tag]
}

// LanguageFromPath infers the language from a file extension.
func LanguageFromPath(path string) Language {
	return ParseLanguage(filepath.Ext(path))
}
