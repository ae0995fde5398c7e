// Package truncate caps content by bytes and lines without ever splitting a
// multi-byte UTF-8 character.
package truncate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

const (
	// DefaultMarker is appended when byte or line limits cut content short.
	DefaultMarker = "..."
	// DefaultLineMarker is appended by Apply when the line cap slices content.
	DefaultLineMarker = "\n..."
	// DefaultChunkSize is the read size used by ReadFrom when none is set.
	DefaultChunkSize = 64 * 1024
)

// Limits bounds the output of a Stream. Zero values mean unbounded.
type Limits struct {
	MaxSize    int64
	MaxLines   int
	Marker     string
	LineMarker string
}

func (l Limits) marker() string {
	if l.Marker == "" {
		return DefaultMarker
	}
	return l.Marker
}

func (l Limits) lineMarker() string {
	if l.LineMarker == "" {
		return DefaultLineMarker
	}
	return l.LineMarker
}

// State tracks what a Stream has emitted so far.
type State struct {
	BytesEmitted int64
	LinesEmitted int
	Truncated    bool
}

// Stream is a truncating transform. Bytes written to it are kept up to the
// configured limits; once a limit is hit every further byte is discarded.
// Close finalizes the output and appends the marker when content was cut.
type Stream struct {
	limits    Limits
	chunkSize int

	out     bytes.Buffer
	pending []byte // incomplete UTF-8 sequence carried between writes
	state   State
	closed  bool
}

// NewStream returns a Stream enforcing limits.
func NewStream(limits Limits) *Stream {
	return &Stream{limits: limits, chunkSize: DefaultChunkSize}
}

// SetChunkSize sets the read size used by ReadFrom.
func (s *Stream) SetChunkSize(n int) {
	if n > 0 {
		s.chunkSize = n
	}
}

// Write consumes p. It always reports len(p) as written so that io.Copy keeps
// going; data arriving after truncation is silently dropped.
func (s *Stream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, errors.New("truncate: write to closed stream")
	}
	if s.state.Truncated || len(p) == 0 {
		return len(p), nil
	}

	chunk := p
	if len(s.pending) > 0 {
		chunk = append(s.pending, p...)
		s.pending = nil
	}
	complete := completePrefix(chunk)
	if complete < len(chunk) {
		s.pending = append([]byte(nil), chunk[complete:]...)
	}
	s.emit(chunk[:complete])
	return len(p), nil
}

// ReadFrom pulls chunks from r until EOF or until the stream truncates,
// after which it stops reading.
func (s *Stream) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, s.chunkSize)
	var total int64
	for !s.state.Truncated {
		n, err := r.Read(buf)
		if n > 0 {
			total += int64(n)
			if _, werr := s.Write(buf[:n]); werr != nil {
				return total, werr
			}
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Close flushes any carried bytes and appends the marker when needed.
// The final output never exceeds MaxSize.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	if len(s.pending) > 0 && !s.state.Truncated {
		// trailing invalid sequence from the source; emit what fits
		s.emit(s.pending)
	}
	s.pending = nil
	s.closed = true

	marker := s.limits.marker()
	limit := s.limits.MaxSize
	if limit > 0 && s.state.BytesEmitted > 0 && s.state.BytesEmitted >= limit-int64(len(marker)) {
		s.state.Truncated = true
	}
	if !s.state.Truncated {
		return nil
	}

	content := s.out.Bytes()
	for limit > 0 && int64(len(content)+len(marker)) > limit && len(content) > 0 {
		_, size := utf8.DecodeLastRune(content)
		content = content[:len(content)-size]
	}
	final := make([]byte, 0, len(content)+len(marker))
	final = append(final, content...)
	if limit > 0 && int64(len(marker)) > limit {
		final = append(final, fitRunes([]byte(marker), limit)...)
	} else {
		final = append(final, marker...)
	}
	s.out.Reset()
	s.out.Write(final)
	s.state.BytesEmitted = int64(len(final))
	return nil
}

// Bytes returns the output produced so far.
func (s *Stream) Bytes() []byte { return s.out.Bytes() }

// String returns the output produced so far.
func (s *Stream) String() string { return s.out.String() }

// State returns a copy of the truncation state.
func (s *Stream) State() State { return s.state }

// Truncated reports whether a limit was reached.
func (s *Stream) Truncated() bool { return s.state.Truncated }

func (s *Stream) emit(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	limit := s.limits.MaxSize
	if limit > 0 && s.state.BytesEmitted+int64(len(chunk)) > limit {
		fit := fitRunes(chunk, limit-s.state.BytesEmitted)
		s.out.Write(fit)
		s.state.BytesEmitted += int64(len(fit))
		s.state.LinesEmitted += bytes.Count(fit, []byte{'\n'})
		s.state.Truncated = true
		return
	}

	s.out.Write(chunk)
	s.state.BytesEmitted += int64(len(chunk))
	s.state.LinesEmitted += bytes.Count(chunk, []byte{'\n'})
	if s.limits.MaxLines > 0 && s.state.LinesEmitted >= s.limits.MaxLines {
		s.state.Truncated = true
	}
}

// fitRunes returns the longest prefix of b made of whole characters whose
// length does not exceed budget.
func fitRunes(b []byte, budget int64) []byte {
	var n int64
	for n < int64(len(b)) {
		_, size := utf8.DecodeRune(b[n:])
		if n+int64(size) > budget {
			break
		}
		n += int64(size)
	}
	return b[:n]
}

// completePrefix returns the length of b without a trailing incomplete
// UTF-8 sequence.
func completePrefix(b []byte) int {
	// a sequence is at most utf8.UTFMax bytes; look back that far for a lead byte
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		c := b[i]
		if c < utf8.RuneSelf {
			return len(b)
		}
		if utf8.RuneStart(c) {
			if utf8.FullRune(b[i:]) {
				return len(b)
			}
			return i
		}
	}
	return len(b)
}

// ReadFile streams the file at path through a Stream bounded by limits,
// reading chunkSize bytes at a time. Reading stops as soon as the stream
// truncates or ctx is cancelled.
func ReadFile(ctx context.Context, path string, limits Limits, chunkSize int) (string, State, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", State{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	s := NewStream(limits)
	s.SetChunkSize(chunkSize)
	if _, err := s.ReadFrom(&contextReader{ctx: ctx, r: f}); err != nil {
		return "", s.State(), fmt.Errorf("failed to stream %s: %w", path, err)
	}
	if err := s.Close(); err != nil {
		return "", s.State(), err
	}
	return s.String(), s.State(), nil
}

// contextReader fails reads once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
