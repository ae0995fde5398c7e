package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	all := Options{NormalizeLineEndings: true, NormalizeWhitespace: true, RemoveHTMLTags: true}

	tests := []struct {
		name     string
		content  string
		opts     Options
		expected string
	}{
		{
			name:     "disabled",
			content:  "a\r\nb  \n",
			expected: "a\r\nb  \n",
		},
		{
			name:     "line endings",
			content:  "a\r\nb\rc\n",
			opts:     Options{NormalizeLineEndings: true},
			expected: "a\nb\nc\n",
		},
		{
			name:     "trailing whitespace",
			content:  "func main() {  \n\treturn\t\n}   ",
			opts:     Options{NormalizeWhitespace: true},
			expected: "func main() {\n\treturn\n}",
		},
		{
			name:     "blank runs collapse to two empty lines",
			content:  "a\n\n\n\n\n\nb",
			opts:     Options{NormalizeWhitespace: true},
			expected: "a\n\n\nb",
		},
		{
			name:     "nfc",
			content:  "cafe\u0301",
			opts:     Options{NormalizeWhitespace: true},
			expected: "caf\u00e9",
		},
		{
			name:     "html tags",
			content:  "<p>Hello <b>world</b></p>",
			opts:     Options{RemoveHTMLTags: true},
			expected: "Hello world",
		},
		{
			name:     "all passes",
			content:  "<div>one</div>  \r\n\r\n\r\n\r\n\r\ntwo",
			opts:     all,
			expected: "one\n\n\ntwo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Apply(tt.content, tt.opts))
		})
	}
}

func TestApply_Idempotent(t *testing.T) {
	opts := Options{NormalizeLineEndings: true, NormalizeWhitespace: true, RemoveHTMLTags: true}
	inputs := []string{
		"plain text\nwith lines\n",
		"package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n",
		"<h1>Title</h1>\r\n\r\n\r\n\r\nbody   \r\n",
		"a\n\n\n\n\n\n\nb\t\t\n",
		"a &lt;b&gt; c",
		"if x &lt;div&gt; y",
		"&amp;lt;",
		"&amp;amp;amp;lt;script&amp;amp;amp;gt;x",
		"line&#13;break",
		"",
	}

	for _, o := range []Options{opts, {RemoveHTMLTags: true}} {
		for _, in := range inputs {
			once := Apply(in, o)
			assert.Equal(t, once, Apply(once, o), "input %q, options %+v", in, o)
		}
	}
}

func TestStripTags_DecodedMarkupIsStripped(t *testing.T) {
	out := StripTags("a &lt;b&gt;bold&lt;/b&gt; c")
	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, "bold")
	assert.Equal(t, out, StripTags(out))
}

func TestOptions_Enabled(t *testing.T) {
	assert.False(t, Options{}.Enabled())
	assert.True(t, Options{RemoveHTMLTags: true}.Enabled())
}
