// Package compact reduces large source files to their structurally
// significant lines.
//
// Lines are scored against per-language importance patterns; important lines
// are kept with a window of context, and every line inside a high-scoring
// structural section (class, function, heading, ...) is kept as well. Gaps
// are marked with an ellipsis line. The result is bounded by a maximum line
// count and falls back to a single marker when too little survives.
package compact

import (
	"math"
	"strings"

	"go.uber.org/zap"
)

// Marker replaces omitted runs of lines.
const Marker = "..."

const (
	DefaultMaxLines            = 100
	DefaultContextLines        = 3
	DefaultImportanceThreshold = 0.6
	DefaultMinCompactionRatio  = 0.3
	DefaultIndentWidth         = 2

	edgeShare = 0.4 // share of MaxLines kept from each end when still too long
)

// Config controls compaction.
type Config struct {
	MaxLines            int
	ContextLines        int
	ImportanceThreshold float64
	MinCompactionRatio  float64
	PreserveStructure   bool
	IndentWidth         int
}

// DefaultConfig returns the default compaction settings.
func DefaultConfig() Config {
	return Config{
		MaxLines:            DefaultMaxLines,
		ContextLines:        DefaultContextLines,
		ImportanceThreshold: DefaultImportanceThreshold,
		MinCompactionRatio:  DefaultMinCompactionRatio,
		IndentWidth:         DefaultIndentWidth,
	}
}

// Compactor applies the compaction heuristic. It is safe for concurrent use.
type Compactor struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a Compactor. Zero fields in cfg take their defaults; a negative
// ContextLines disables the context window.
func New(cfg Config, logger *zap.Logger) *Compactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.MaxLines <= 0 {
		cfg.MaxLines = def.MaxLines
	}
	if cfg.ContextLines == 0 {
		cfg.ContextLines = def.ContextLines
	} else if cfg.ContextLines < 0 {
		cfg.ContextLines = 0
	}
	if cfg.ImportanceThreshold <= 0 || cfg.ImportanceThreshold > 1 {
		cfg.ImportanceThreshold = def.ImportanceThreshold
	}
	if cfg.MinCompactionRatio <= 0 || cfg.MinCompactionRatio > 1 {
		cfg.MinCompactionRatio = def.MinCompactionRatio
	}
	if cfg.IndentWidth <= 0 {
		cfg.IndentWidth = def.IndentWidth
	}
	return &Compactor{cfg: cfg, logger: logger}
}

// Config returns the effective configuration.
func (c *Compactor) Config() Config { return c.cfg }

// Compact returns a reduced version of content. Content that is blank or
// already within MaxLines is returned unchanged. Unknown languages and
// malformed source never cause an error.
func (c *Compactor) Compact(content string, lang Language) string {
	if strings.TrimSpace(content) == "" {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) <= c.cfg.MaxLines {
		return content
	}

	prof := profileFor(lang)
	work := stripNoise(lines, prof)

	keep := make([]bool, len(work))
	for i, line := range work {
		if score(line, prof) > c.cfg.ImportanceThreshold {
			lo := max(0, i-c.cfg.ContextLines)
			hi := min(len(work)-1, i+c.cfg.ContextLines)
			for j := lo; j <= hi; j++ {
				keep[j] = true
			}
		}
	}
	for _, s := range findSections(work, prof) {
		if s.Score < c.cfg.ImportanceThreshold {
			continue
		}
		for j := s.StartLine; j <= s.EndLine; j++ {
			keep[j] = true
		}
	}

	out, kept := c.selectLines(work, keep)
	if len(out) > c.cfg.MaxLines {
		edge := int(float64(c.cfg.MaxLines) * edgeShare)
		head := append([]string(nil), out[:edge]...)
		head = append(head, Marker)
		out = append(head, out[len(out)-edge:]...)
		kept = countContent(out)
	}

	floor := int(math.Ceil(c.cfg.MinCompactionRatio * float64(min(len(lines), c.cfg.MaxLines))))
	if kept == 0 || kept < floor {
		c.logger.Debug("Compaction kept too little, replacing with marker",
			zap.Stringer("language", lang),
			zap.Int("originalLines", len(lines)),
			zap.Int("keptLines", kept),
			zap.Int("floor", floor))
		return Marker
	}

	if c.cfg.PreserveStructure {
		out = reindent(out, prof.style, c.cfg.IndentWidth)
	}

	c.logger.Debug("Compacted content",
		zap.Stringer("language", lang),
		zap.Int("originalLines", len(lines)),
		zap.Int("outputLines", len(out)))
	return strings.Join(out, "\n")
}

// selectLines emits kept lines in order with a marker at every gap and
// returns the number of content lines kept.
func (c *Compactor) selectLines(work []string, keep []bool) ([]string, int) {
	var out []string
	kept := 0
	last := -1
	for i, line := range work {
		if !keep[i] {
			continue
		}
		if last >= 0 && i != last+1 {
			out = append(out, Marker)
		}
		out = append(out, line)
		kept++
		last = i
	}
	return out, kept
}

func countContent(lines []string) int {
	n := 0
	for _, l := range lines {
		if l != Marker {
			n++
		}
	}
	return n
}

// Score returns the importance of a single line for lang: the fraction of
// the language's importance patterns the line matches.
func Score(line string, lang Language) float64 {
	return score(line, profileFor(lang))
}

func score(line string, prof *profile) float64 {
	if len(prof.importance) == 0 {
		return 0
	}
	matched := 0
	for _, pat := range prof.importance {
		if pat.re.MatchString(line) {
			matched++
		}
	}
	return float64(matched) / float64(len(prof.importance))
}

// stripNoise drops comment-only lines, non-documentation block comments and
// excluded lines. Dropped lines never take part in scoring.
func stripNoise(lines []string, prof *profile) []string {
	work := make([]string, 0, len(lines))
	inBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if inBlock {
			if strings.Contains(trimmed, prof.blockClose) {
				inBlock = false
			}
			continue
		}
		if prof.blockOpen != "" && strings.HasPrefix(trimmed, prof.blockOpen) &&
			(prof.docOpen == "" || !strings.HasPrefix(trimmed, prof.docOpen)) {
			rest := trimmed[len(prof.blockOpen):]
			inBlock = !strings.Contains(rest, prof.blockClose)
			continue
		}
		if prof.lineComment != nil && prof.lineComment.MatchString(line) {
			continue
		}
		if prof.excluded(line) {
			continue
		}
		work = append(work, line)
	}
	return work
}
