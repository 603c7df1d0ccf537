// Package search finds text in notes. Pattern searches run on a
// backtracking engine and are bounded by a wall-clock timeout and a match
// ceiling.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/cases"

	"offnote/internal/contextutil"
	"offnote/internal/domain"
	"offnote/internal/metrics"
)

const (
	DefaultTimeout          = time.Second
	DefaultMaxMatches       = 10000
	DefaultMaxPatternLength = 500
)

// Abort reasons reported to metrics.
const (
	reasonTimeout  = "timeout"
	reasonTooMany  = "too_many_matches"
	reasonUnsafe   = "unsafe_pattern"
	reasonCanceled = "canceled"
)

// Nested quantifiers and long alternations that are rejected before the
// pattern is compiled.
var dangerous = regexp2.MustCompile(`(\+\*|\{\d,\}|\(\w*\+\)+|\|[\w|+()]*\|)`, regexp2.None)

// Options bound pattern searches.
type Options struct {
	Timeout          time.Duration
	MaxMatches       int
	MaxPatternLength int
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxMatches <= 0 {
		o.MaxMatches = DefaultMaxMatches
	}
	if o.MaxPatternLength <= 0 {
		o.MaxPatternLength = DefaultMaxPatternLength
	}
	return o
}

// Flags change how a pattern is interpreted.
type Flags struct {
	IgnoreCase bool `json:"ignoreCase"`
	Multiline  bool `json:"multiline"`
	// Literal matches the pattern text verbatim.
	Literal bool `json:"literal"`
}

// Match is one occurrence. Index and Length count runes.
type Match struct {
	Index  int    `json:"index"`
	Length int    `json:"length"`
	Text   string `json:"text"`
}

// NoteMatches are the occurrences of a pattern in one note.
type NoteMatches struct {
	Note    domain.Note `json:"note"`
	Matches []Match     `json:"matches"`
}

// Searcher runs bounded searches.
type Searcher struct {
	opts    Options
	metrics *metrics.Collector
	logger  *slog.Logger
}

// New creates a Searcher. Zero option fields take the package defaults.
// collector may be nil.
func New(opts Options, collector *metrics.Collector) *Searcher {
	return &Searcher{
		opts:    opts.withDefaults(),
		metrics: collector,
		logger:  slog.Default(),
	}
}

func (s *Searcher) getLogger(ctx context.Context) *slog.Logger {
	return contextutil.LoggerFromContextOr(ctx, s.logger)
}

// CheckPattern rejects patterns that are too long or carry known
// catastrophic constructs.
func (s *Searcher) CheckPattern(pattern string) error {
	if pattern == "" {
		return &domain.ValidationError{Field: "pattern", Message: "cannot be empty"}
	}
	if len([]rune(pattern)) > s.opts.MaxPatternLength {
		return fmt.Errorf("%w: longer than %d characters", domain.ErrUnsafePattern, s.opts.MaxPatternLength)
	}
	if ok, _ := dangerous.MatchString(pattern); ok {
		return fmt.Errorf("%w: nested quantifier or repeated alternation", domain.ErrUnsafePattern)
	}
	return nil
}

func (s *Searcher) compile(pattern string, flags Flags) (*regexp2.Regexp, error) {
	if flags.Literal {
		if pattern == "" {
			return nil, &domain.ValidationError{Field: "pattern", Message: "cannot be empty"}
		}
		pattern = regexp2.Escape(pattern)
	} else if err := s.CheckPattern(pattern); err != nil {
		return nil, err
	}

	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	if flags.IgnoreCase {
		opts |= regexp2.IgnoreCase
	}
	if flags.Multiline {
		opts |= regexp2.Multiline
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, &domain.ValidationError{Field: "pattern", Message: err.Error()}
	}
	return re, nil
}

// run tracks the time and match budget shared by every text searched for
// one request.
type run struct {
	ctx      context.Context
	deadline time.Time
	left     int
}

func (s *Searcher) newRun(ctx context.Context) *run {
	deadline := time.Now().Add(s.opts.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return &run{ctx: ctx, deadline: deadline, left: s.opts.MaxMatches}
}

func (r *run) find(re *regexp2.Regexp, text string) ([]Match, error) {
	var matches []Match

	next := func(m *regexp2.Match) (*regexp2.Match, error) {
		if err := r.ctx.Err(); err != nil {
			return nil, err
		}
		remaining := time.Until(r.deadline)
		if remaining <= 0 {
			return nil, domain.ErrSearchTimeout
		}
		re.MatchTimeout = remaining
		var (
			found *regexp2.Match
			err   error
		)
		if m == nil {
			found, err = re.FindStringMatch(text)
		} else {
			found, err = re.FindNextMatch(m)
		}
		if err != nil && !time.Now().Before(r.deadline) {
			return nil, fmt.Errorf("%w: %v", domain.ErrSearchTimeout, err)
		}
		return found, err
	}

	m, err := next(nil)
	for ; err == nil && m != nil; m, err = next(m) {
		if r.left == 0 {
			return nil, domain.ErrTooManyMatches
		}
		r.left--
		matches = append(matches, Match{Index: m.Index, Length: m.Length, Text: m.String()})
	}
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// record reports the outcome of a search to metrics and the log.
func (s *Searcher) record(ctx context.Context, start time.Time, err error) {
	reason := ""
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSearchTimeout):
		reason = reasonTimeout
	case errors.Is(err, domain.ErrTooManyMatches):
		reason = reasonTooMany
	case errors.Is(err, domain.ErrUnsafePattern):
		reason = reasonUnsafe
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		reason = reasonCanceled
	}
	s.metrics.RecordSearch(time.Since(start), reason)
	if reason != "" {
		s.getLogger(ctx).WarnContext(ctx, "search aborted", "reason", reason, "duration", time.Since(start))
	}
}

// Find returns every match of pattern in text.
func (s *Searcher) Find(ctx context.Context, pattern, text string, flags Flags) (matches []Match, err error) {
	start := time.Now()
	defer func() { s.record(ctx, start, err) }()

	re, err := s.compile(pattern, flags)
	if err != nil {
		return nil, err
	}
	return s.newRun(ctx).find(re, text)
}

// Replace substitutes replacement for the first match of pattern, or for
// every match when all is set. Replacement may refer to groups as $1. It
// returns the new text and the number of replacements made.
func (s *Searcher) Replace(ctx context.Context, pattern, text, replacement string, flags Flags, all bool) (out string, n int, err error) {
	start := time.Now()
	defer func() { s.record(ctx, start, err) }()

	re, err := s.compile(pattern, flags)
	if err != nil {
		return "", 0, err
	}
	r := s.newRun(ctx)
	matches, err := r.find(re, text)
	if err != nil {
		return "", 0, err
	}
	if len(matches) == 0 {
		return text, 0, nil
	}

	count := -1
	n = len(matches)
	if !all {
		count, n = 1, 1
	}
	remaining := time.Until(r.deadline)
	if remaining <= 0 {
		return "", 0, domain.ErrSearchTimeout
	}
	re.MatchTimeout = remaining
	out, err = re.Replace(text, replacement, -1, count)
	if err != nil {
		if !time.Now().Before(r.deadline) {
			return "", 0, fmt.Errorf("%w: %v", domain.ErrSearchTimeout, err)
		}
		return "", 0, fmt.Errorf("failed to replace: %w", err)
	}
	return out, n, nil
}

// MatchNotes searches the title and content of each note. The timeout and
// match ceiling apply to the whole pass. Notes without matches are left out.
func (s *Searcher) MatchNotes(ctx context.Context, notes []domain.Note, pattern string, flags Flags) (result []NoteMatches, err error) {
	start := time.Now()
	defer func() { s.record(ctx, start, err) }()

	re, err := s.compile(pattern, flags)
	if err != nil {
		return nil, err
	}
	r := s.newRun(ctx)
	for _, n := range notes {
		inTitle, err := r.find(re, n.Title)
		if err != nil {
			return nil, err
		}
		inContent, err := r.find(re, n.Content)
		if err != nil {
			return nil, err
		}
		if len(inTitle)+len(inContent) == 0 {
			continue
		}
		// Content matches are what callers jump to; title hits only mark the note.
		found := inContent
		if found == nil {
			found = []Match{}
		}
		result = append(result, NoteMatches{Note: n, Matches: found})
	}
	return result, nil
}

// Notes returns the notes whose title or content contains query, ignoring
// case. An empty query matches nothing.
func Notes(notes []domain.Note, query string) []domain.Note {
	if strings.TrimSpace(query) == "" {
		return []domain.Note{}
	}
	fold := cases.Fold()
	q := fold.String(query)

	out := make([]domain.Note, 0)
	for _, n := range notes {
		if strings.Contains(fold.String(n.Title), q) || strings.Contains(fold.String(n.Content), q) {
			out = append(out, n)
		}
	}
	return out
}
