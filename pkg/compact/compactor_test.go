package compact

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeatLines(format string, n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = fmt.Sprintf(format, i)
	}
	return out
}

func join(parts ...[]string) string {
	var all []string
	for _, p := range parts {
		all = append(all, p...)
	}
	return strings.Join(all, "\n")
}

func TestCompact_Unchanged(t *testing.T) {
	c := New(Config{MaxLines: 10}, nil)

	tests := []struct {
		name    string
		content string
	}{
		{name: "empty", content: ""},
		{name: "whitespace only", content: strings.Repeat("   \n", 50)},
		{name: "within max lines", content: join(repeatLines("line %d", 10))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.content, c.Compact(tt.content, JavaScript))
		})
	}
}

func TestCompact_LargeFileKeepsBothEnds(t *testing.T) {
	content := join(
		[]string{"class Big {"},
		repeatLines("  method%d() { return 1; }", 998),
		[]string{"}"},
	)
	c := New(Config{MaxLines: 100}, nil)

	out := strings.Split(c.Compact(content, JavaScript), "\n")

	assert.LessOrEqual(t, len(out), 101)
	assert.Equal(t, "class Big {", out[0])
	assert.Equal(t, "}", out[len(out)-1])
	assert.Contains(t, out, Marker)
	assert.Len(t, out, 81)
}

func TestCompact_FloorYieldsMarker(t *testing.T) {
	c := New(Config{MaxLines: 20}, nil)

	tests := []struct {
		name    string
		content string
		lang    Language
	}{
		{name: "no structure", content: join(repeatLines("x%d = x + 1;", 200)), lang: JavaScript},
		{name: "unknown language", content: join(repeatLines("class C%d {}", 200)), lang: Unknown},
		{name: "only comments", content: join(repeatLines("// note %d", 200)), lang: Go},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := c.Compact(tt.content, tt.lang)
			assert.Equal(t, Marker, out)
			assert.NotEmpty(t, out)
		})
	}
}

func TestCompact_GapMarkers(t *testing.T) {
	content := join(
		[]string{"import os"},
		repeatLines("v%d = 0", 20),
		[]string{"def run():", "    return os.getcwd()"},
		repeatLines("w%d = 1", 20),
	)
	c := New(Config{MaxLines: 10, ContextLines: -1}, nil)

	assert.Equal(t, "import os\n...\ndef run():\n    return os.getcwd()", c.Compact(content, Python))
}

func TestCompact_StripsCommentsAndHelpers(t *testing.T) {
	content := join(
		[]string{
			"/* license",
			" * text",
			" */",
			"// helper comment",
			"function main() {",
			"  // inline note",
			"  run();",
			"}",
			"function _helper() {",
			"  return 1;",
			"}",
		},
		repeatLines("noop%d();", 15),
	)
	c := New(Config{MaxLines: 5, ContextLines: -1}, nil)

	out := c.Compact(content, JavaScript)
	assert.Equal(t, "function main() {\n  run();\n}", out)
	assert.NotContains(t, out, "_helper")
	assert.NotContains(t, out, "license")
}

func TestCompact_ContextWindow(t *testing.T) {
	lines := repeatLines("  noop%d();", 21)
	lines[10] = `  if (ok) throw new Error("x") => y`
	c := New(Config{MaxLines: 5, ContextLines: 1, ImportanceThreshold: 0.3}, nil)

	out := c.Compact(join(lines), JavaScript)
	assert.Equal(t, join(lines[9:12]), out)
}

func TestCompact_PreserveStructureClosesBraces(t *testing.T) {
	content := join(
		[]string{"class Broken {"},
		repeatLines("        method%d() { return 1; }", 30),
	)
	c := New(Config{MaxLines: 20, PreserveStructure: true}, nil)

	out := strings.Split(c.Compact(content, TypeScript), "\n")
	require.Len(t, out, 18)
	assert.Equal(t, "class Broken {", out[0])
	assert.Equal(t, "  method0() { return 1; }", out[1])
	assert.Equal(t, "  ...", out[8])
	assert.Equal(t, "}", out[17])
}

func TestCompact_PreserveStructureIndent(t *testing.T) {
	lines := []string{"class A:"}
	for i := 0; i < 5; i++ {
		lines = append(lines, fmt.Sprintf("    def f%d(self):", i), fmt.Sprintf("        return %d", i))
	}
	c := New(Config{MaxLines: 5, PreserveStructure: true}, nil)

	out := c.Compact(join(lines), Python)
	assert.Equal(t, "class A:\n  def f0(self):\n  ...\n  def f4(self):\n    return 4", out)
}

func TestCompact_MalformedInputDoesNotPanic(t *testing.T) {
	content := join(repeatLines("}}}{{ %d \"unterminated", 300))
	c := New(Config{MaxLines: 10, PreserveStructure: true}, nil)

	for _, lang := range []Language{Unknown, Go, JavaScript, TypeScript, Python, Java, Rust, Markdown, JSON} {
		assert.NotPanics(t, func() { c.Compact(content, lang) }, lang.String())
	}
}

func TestCompact_MarkdownHeadings(t *testing.T) {
	content := join(
		repeatLines("preamble %d", 5),
		[]string{"# Title", "intro"},
		[]string{"## Usage", "run it"},
	)
	c := New(Config{MaxLines: 5}, nil)

	assert.Equal(t, "# Title\nintro\n## Usage\nrun it", c.Compact(content, Markdown))
}

func TestScore(t *testing.T) {
	assert.InDelta(t, 0.25, Score("export default class App extends Component {", JavaScript), 1e-9)
	assert.InDelta(t, 0.5, Score(`export function f() { if (x) throw new Error(); }`, JavaScript), 1e-9)
	assert.Zero(t, Score("class A {}", Unknown))
}

func TestSections(t *testing.T) {
	content := strings.Join([]string{
		"package main",
		"",
		`import "fmt"`,
		"",
		"type T struct {",
		"\tA int",
		"}",
		"",
		"func (t T) Do() {",
		"\tfmt.Println(t.A)",
		"}",
	}, "\n")

	assert.Equal(t, []Section{
		{StartLine: 0, EndLine: 0, Score: 1.0},
		{StartLine: 2, EndLine: 2, Score: 0.7},
		{StartLine: 4, EndLine: 6, Score: 0.9},
		{StartLine: 8, EndLine: 10, Score: 0.9},
	}, Sections(content, Go))

	assert.Empty(t, Sections(content, Unknown))
}

func TestSections_PythonIndent(t *testing.T) {
	content := strings.Join([]string{
		"@dataclass",
		"class Point:",
		"    x: int",
		"",
		"    def norm(self):",
		"        return abs(self.x)",
		"print(Point(1))",
	}, "\n")

	assert.Equal(t, []Section{
		{StartLine: 0, EndLine: 0, Score: 0.7},
		{StartLine: 1, EndLine: 5, Score: 0.9},
	}, Sections(content, Python))
}

func TestParseLanguage(t *testing.T) {
	tests := map[string]Language{
		"go":      Go,
		".ts":     TypeScript,
		"TSX":     TypeScript,
		"py":      Python,
		"rs":      Rust,
		"md":      Markdown,
		"json":    JSON,
		"cobol":   Unknown,
		"":        Unknown,
		" .java ": Java,
	}
	for tag, expected := range tests {
		assert.Equal(t, expected, ParseLanguage(tag), tag)
	}

	assert.Equal(t, JavaScript, LanguageFromPath("/src/app.mjs"))
	assert.Equal(t, Unknown, LanguageFromPath("Makefile"))
	assert.Equal(t, "typescript", TypeScript.String())
	assert.Equal(t, "unknown", Language(99).String())
}
