package truncate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeChunks feeds content into s in pieces of size n.
func writeChunks(t *testing.T, s *Stream, content string, n int) {
	t.Helper()
	b := []byte(content)
	for len(b) > 0 {
		k := min(n, len(b))
		_, err := s.Write(b[:k])
		require.NoError(t, err)
		b = b[k:]
	}
	require.NoError(t, s.Close())
}

func TestStream_Truncation(t *testing.T) {
	type input struct {
		content  string
		maxSize  int64
		maxLines int
		chunk    int
	}

	type expected struct {
		output    string
		truncated bool
	}

	emoji := "\U0001F600" // 4 bytes

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "smaller than budget is unchanged",
			input:    input{content: "hello world", maxSize: 100, chunk: 4},
			expected: expected{output: "hello world"},
		},
		{
			name:     "unbounded",
			input:    input{content: strings.Repeat("x", 5000), chunk: 512},
			expected: expected{output: strings.Repeat("x", 5000)},
		},
		{
			name:     "exact budget appends marker",
			input:    input{content: strings.Repeat("a", 97), maxSize: 100, chunk: 10},
			expected: expected{output: strings.Repeat("a", 97) + "...", truncated: true},
		},
		{
			name:     "multi-byte characters are never split",
			input:    input{content: strings.Repeat(emoji, 70), maxSize: 250, chunk: 7},
			expected: expected{output: strings.Repeat(emoji, (250-3)/4) + "...", truncated: true},
		},
		{
			name:     "multi-byte in a single chunk",
			input:    input{content: strings.Repeat(emoji, 70), maxSize: 250, chunk: 1 << 20},
			expected: expected{output: strings.Repeat(emoji, (250-3)/4) + "...", truncated: true},
		},
		{
			name:     "line limit lets the current chunk through",
			input:    input{content: "a\nb\nc\nd\ne\n", maxLines: 2, chunk: 4},
			expected: expected{output: "a\nb\n...", truncated: true},
		},
		{
			name:     "line limit reached inside a large chunk",
			input:    input{content: "a\nb\nc\nd\ne\n", maxLines: 2, chunk: 100},
			expected: expected{output: "a\nb\nc\nd\ne\n...", truncated: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStream(Limits{MaxSize: tt.input.maxSize, MaxLines: tt.input.maxLines})
			writeChunks(t, s, tt.input.content, tt.input.chunk)

			assert.Equal(t, tt.expected.output, s.String())
			assert.Equal(t, tt.expected.truncated, s.Truncated())
			assert.True(t, utf8.Valid(s.Bytes()))
			if tt.input.maxSize > 0 {
				assert.LessOrEqual(t, int64(len(s.Bytes())), tt.input.maxSize)
			}
		})
	}
}

func TestStream_BoundHoldsForAnyBudget(t *testing.T) {
	content := strings.Repeat("héllo wörld ✓ \U0001F600\n", 40)
	for budget := int64(1); budget <= int64(len(content))+10; budget += 7 {
		s := NewStream(Limits{MaxSize: budget})
		writeChunks(t, s, content, 5)

		out := s.Bytes()
		assert.LessOrEqual(t, int64(len(out)), budget, "budget %d", budget)
		assert.True(t, utf8.Valid(out), "budget %d", budget)
		assert.Equal(t, int64(len(out)), s.State().BytesEmitted)
	}
}

func TestStream_DiscardsAfterTruncation(t *testing.T) {
	s := NewStream(Limits{MaxSize: 10})
	n, err := s.Write([]byte("0123456789abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.True(t, s.Truncated())

	n, err = s.Write([]byte("more"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "0123456789", s.String())

	require.NoError(t, s.Close())
	assert.Equal(t, "0123456...", s.String())

	_, err = s.Write([]byte("x"))
	assert.Error(t, err)
}

type countingReader struct {
	r     *strings.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

func TestStream_ReadFromStopsPulling(t *testing.T) {
	r := &countingReader{r: strings.NewReader(strings.Repeat("z", 1<<20))}
	s := NewStream(Limits{MaxSize: 100})
	s.SetChunkSize(64)

	n, err := s.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, int64(128), n)
	assert.Equal(t, 2, r.reads)
	require.NoError(t, s.Close())
	assert.Len(t, s.String(), 100)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("line\n", 1000)), 0o644))

	out, state, err := ReadFile(context.Background(), path, Limits{MaxSize: 1000}, 128)
	require.NoError(t, err)
	assert.True(t, state.Truncated)
	assert.Len(t, out, 1000)
	assert.True(t, strings.HasSuffix(out, DefaultMarker))

	_, _, err = ReadFile(context.Background(), filepath.Join(dir, "missing"), Limits{}, 0)
	assert.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = ReadFile(ctx, path, Limits{}, 128)
	assert.ErrorIs(t, err, context.Canceled)
}
