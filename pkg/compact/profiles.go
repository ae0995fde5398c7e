package compact

import "regexp"

// blockStyle tells section detection and re-indentation how a language
// delimits blocks.
type blockStyle int

const (
	styleNone blockStyle = iota
	styleBraces
	styleIndent
	styleHeadings
)

type pattern struct {
	name string
	re   *regexp.Regexp
}

type sectionRule struct {
	re    *regexp.Regexp
	score float64
}

type profile struct {
	importance  []pattern
	exclude     []*regexp.Regexp
	lineComment *regexp.Regexp
	blockOpen   string
	blockClose  string
	docOpen     string // block comments opening with this are documentation and kept
	sections    []sectionRule
	style       blockStyle
}

func named(name, expr string) pattern {
	return pattern{name: name, re: regexp.MustCompile(expr)}
}

func rule(expr string, score float64) sectionRule {
	return sectionRule{re: regexp.MustCompile(expr), score: score}
}

var (
	slashComment = regexp.MustCompile(`^\s*//`)
	hashComment  = regexp.MustCompile(`^\s*#`)
)

var jsImportance = []pattern{
	named("class", `\bclass\s+\w+`),
	named("function", `\bfunction\b|=>`),
	named("interface", `\binterface\s+\w+`),
	named("export", `^\s*export\b|module\.exports`),
	named("import", `^\s*import\b|\brequire\(`),
	named("control", `\b(if|else|for|while|switch|return)\b`),
	named("error", `\b(try|catch|throw|finally)\b|\bError\b`),
	named("doc", `^\s*/\*\*|^\s*\*\s*@\w+`),
}

var jsSections = []sectionRule{
	rule(`^\s*export\s+default\b`, 1.0),
	rule(`^\s*(export\s+)?(abstract\s+)?class\s+\w+`, 0.9),
	rule(`^\s*(export\s+)?(async\s+)?function\b`, 0.8),
	rule(`^\s*(export\s+)?(const|let|var)\s+\w+\s*=\s*(async\s*)?(\([^)]*\)|\w+)\s*=>`, 0.8),
	rule(`^\s*export\b`, 0.7),
	rule(`^\s*import\b`, 0.7),
}

var jsExclude = []*regexp.Regexp{
	regexp.MustCompile(`^\s*(function|const|let|var)\s+_\w*`),
	regexp.MustCompile(`^\s*['"]use strict['"];?\s*$`),
}

var profiles = map[Language]*profile{
	Unknown: {},
	JavaScript: {
		importance:  jsImportance,
		exclude:     jsExclude,
		lineComment: slashComment,
		blockOpen:   "/*",
		blockClose:  "*/",
		docOpen:     "/**",
		sections:    jsSections,
		style:       styleBraces,
	},
	TypeScript: {
		importance: append([]pattern{
			named("type", `^\s*(export\s+)?(type|enum)\s+\w+`),
			named("decorator", `^\s*@\w+`),
		}, jsImportance...),
		exclude:     jsExclude,
		lineComment: slashComment,
		blockOpen:   "/*",
		blockClose:  "*/",
		docOpen:     "/**",
		sections: append([]sectionRule{
			rule(`^\s*export\s+default\b`, 1.0),
			rule(`^\s*(export\s+)?(declare\s+)?interface\s+\w+`, 0.9),
			rule(`^\s*(export\s+)?(declare\s+)?(const\s+)?enum\s+\w+`, 0.8),
			rule(`^\s*(export\s+)?type\s+\w+.*=`, 0.8),
		}, jsSections[1:]...),
		style: styleBraces,
	},
	Go: {
		importance: []pattern{
			named("package", `^package\s+\w+`),
			named("import", `^import\b|^\s*"[\w./-]+"$`),
			named("type", `^type\s+\w+|\bstruct\s*\{|\binterface\s*\{`),
			named("function", `^func\b`),
			named("exported", `^(func|type|var|const)\s+(\([^)]*\)\s*)?[A-Z]`),
			named("control", `\b(if|for|switch|select|return|go|defer)\b`),
			named("error", `\berr\b|\berrors\.|\bpanic\(`),
			named("doc", `^// [A-Z]\w*\s`),
		},
		exclude: []*regexp.Regexp{
			regexp.MustCompile(`^//go:(generate|build)\b`),
		},
		lineComment: regexp.MustCompile(`^\s+//|^//\s*$`),
		blockOpen:   "/*",
		blockClose:  "*/",
		sections: []sectionRule{
			rule(`^package\s+\w+`, 1.0),
			rule(`^type\s+\w+.*\b(struct|interface)\b`, 0.9),
			rule(`^func\s+(\([^)]*\)\s*)?[A-Z]`, 0.9),
			rule(`^func\b`, 0.8),
			rule(`^type\s+\w+`, 0.8),
			rule(`^import\b`, 0.7),
			rule(`^(var|const)\s*\(`, 0.6),
		},
		style: styleBraces,
	},
	Python: {
		importance: []pattern{
			named("class", `^\s*class\s+\w+`),
			named("function", `^\s*(async\s+)?def\s+\w+`),
			named("decorator", `^\s*@\w+`),
			named("import", `^\s*(import|from)\s+\S+`),
			named("control", `\b(if|elif|else|for|while|with|return|yield)\b`),
			named("error", `\b(try|except|raise|finally)\b`),
			named("doc", `^\s*("""|''')`),
			named("main", `__name__\s*==\s*['"]__main__['"]`),
		},
		exclude: []*regexp.Regexp{
			regexp.MustCompile(`^\s*def\s+_[^_]\w*`),
		},
		lineComment: hashComment,
		sections: []sectionRule{
			rule(`^\s*class\s+\w+`, 0.9),
			rule(`^\s*(async\s+)?def\s+\w+`, 0.8),
			rule(`^\s*@\w+`, 0.7),
			rule(`^(import|from)\s+\S+`, 0.7),
		},
		style: styleIndent,
	},
	Java: {
		importance: []pattern{
			named("class", `\b(class|interface|enum|record)\s+\w+`),
			named("method", `\b(public|protected|private|static)\b.*\w+\s*\([^)]*\)\s*(throws\s+[\w, .]+)?\s*\{?\s*$`),
			named("annotation", `^\s*@\w+`),
			named("import", `^\s*(import|package)\s+[\w.*]+;`),
			named("control", `\b(if|else|for|while|switch|return)\b`),
			named("error", `\b(try|catch|throw|throws|finally)\b`),
			named("doc", `^\s*/\*\*|^\s*\*\s*@\w+`),
		},
		exclude: []*regexp.Regexp{
			regexp.MustCompile(`^\s*private\s+(static\s+)?\w+(<[^>]*>)?\s+_?helper\w*\s*\(`),
		},
		lineComment: slashComment,
		blockOpen:   "/*",
		blockClose:  "*/",
		docOpen:     "/**",
		sections: []sectionRule{
			rule(`^\s*package\s+[\w.]+;`, 1.0),
			rule(`^\s*(public\s+|protected\s+|private\s+)?(abstract\s+|final\s+|static\s+)*(class|interface|enum|record)\s+\w+`, 0.9),
			rule(`^\s*(public|protected)\s+.*\w+\s*\([^)]*\)?`, 0.8),
			rule(`^\s*(private|static)\s+.*\w+\s*\([^)]*\)?`, 0.7),
			rule(`^\s*import\s+[\w.*]+;`, 0.7),
		},
		style: styleBraces,
	},
	Rust: {
		importance: []pattern{
			named("item", `\b(struct|enum|trait|impl)\b`),
			named("function", `\bfn\s+\w+`),
			named("public", `^\s*pub(\([^)]*\))?\s`),
			named("use", `^\s*(use|mod)\s+`),
			named("control", `\b(if|else|for|while|loop|match|return)\b`),
			named("error", `\b(Result|Err|Option|panic!|unwrap|expect)\b|\?;`),
			named("doc", `^\s*(///|//!)`),
			named("attribute", `^\s*#\[`),
		},
		lineComment: regexp.MustCompile(`^\s*//[^/!]|^\s*//$`),
		blockOpen:   "/*",
		blockClose:  "*/",
		docOpen:     "/**",
		sections: []sectionRule{
			rule(`^\s*(pub(\([^)]*\))?\s+)?(struct|enum|trait)\s+\w+`, 0.9),
			rule(`^\s*impl\b`, 0.9),
			rule(`^\s*(pub(\([^)]*\))?\s+)?(async\s+)?(unsafe\s+)?fn\s+\w+`, 0.8),
			rule(`^\s*(pub(\([^)]*\))?\s+)?mod\s+\w+`, 0.8),
			rule(`^\s*use\s+`, 0.7),
		},
		style: styleBraces,
	},
	Markdown: {
		importance: []pattern{
			named("heading", `^#{1,6}\s`),
			named("list", `^\s*([-*+]|\d+\.)\s`),
			named("code", "^\\s*```"),
			named("link", `\[[^\]]+\]\([^)]+\)`),
			named("emphasis", `\*\*[^*]+\*\*`),
		},
		blockOpen:  "<!--",
		blockClose: "-->",
		sections: []sectionRule{
			rule(`^#\s`, 1.0),
			rule(`^##\s`, 0.9),
			rule(`^###\s`, 0.8),
			rule(`^#{4,6}\s`, 0.7),
		},
		style: styleHeadings,
	},
	JSON: {
		importance: []pattern{
			named("identity", `^\s*"(name|version|description|main|type|module)"\s*:`),
			named("dependencies", `^\s*"(dependencies|devDependencies|peerDependencies|scripts)"\s*:`),
			named("object", `:\s*[{\[]\s*$`),
			named("key", `^\s*"[^"]+"\s*:`),
		},
		exclude: []*regexp.Regexp{
			regexp.MustCompile(`^\s*"_[^"]*"\s*:`),
		},
		style: styleBraces,
	},
}

func profileFor(lang Language) *profile {
	if pr, ok := profiles[lang]; ok {
		return pr
	}
	return profiles[Unknown]
}

// sectionScore returns the score of the first section rule matching line.
func (pr *profile) sectionScore(line string) (float64, bool) {
	for _, r := range pr.sections {
		if r.re.MatchString(line) {
			return r.score, true
		}
	}
	return 0, false
}

func (pr *profile) excluded(line string) bool {
	for _, re := range pr.exclude {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
