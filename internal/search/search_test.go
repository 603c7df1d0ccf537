package search

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offnote/internal/domain"
	"offnote/internal/metrics"
)

func TestSearcher_Find(t *testing.T) {
	s := New(Options{}, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		pattern string
		text    string
		flags   Flags
		want    []Match
	}{
		{
			name:    "plain pattern",
			pattern: `b\w+`,
			text:    "a bad bet",
			want:    []Match{{Index: 2, Length: 3, Text: "bad"}, {Index: 6, Length: 3, Text: "bet"}},
		},
		{
			name:    "ignore case",
			pattern: "todo",
			text:    "TODO: call\nTodo again",
			flags:   Flags{IgnoreCase: true},
			want:    []Match{{Index: 0, Length: 4, Text: "TODO"}, {Index: 11, Length: 4, Text: "Todo"}},
		},
		{
			name:    "multiline anchors",
			pattern: "^- .*$",
			text:    "intro\n- one\n- two",
			flags:   Flags{Multiline: true},
			want:    []Match{{Index: 6, Length: 5, Text: "- one"}, {Index: 12, Length: 5, Text: "- two"}},
		},
		{
			name:    "literal",
			pattern: "a.b",
			text:    "axb a.b",
			flags:   Flags{Literal: true},
			want:    []Match{{Index: 4, Length: 3, Text: "a.b"}},
		},
		{
			name:    "indexes count runes",
			pattern: "メモ",
			text:    "新しいメモ",
			want:    []Match{{Index: 3, Length: 2, Text: "メモ"}},
		},
		{
			name:    "no match",
			pattern: "zzz",
			text:    "abc",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Find(ctx, tt.pattern, tt.text, tt.flags)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearcher_RejectsPatterns(t *testing.T) {
	s := New(Options{MaxPatternLength: 10}, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		pattern string
		wantErr error
	}{
		{name: "empty", pattern: "", wantErr: domain.ErrInvalidInput},
		{name: "too long", pattern: strings.Repeat("a", 11), wantErr: domain.ErrUnsafePattern},
		{name: "nested quantifier", pattern: "(a+)+$", wantErr: domain.ErrUnsafePattern},
		{name: "open repetition", pattern: "a{2,}", wantErr: domain.ErrUnsafePattern},
		{name: "invalid syntax", pattern: "(abc", wantErr: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Find(ctx, tt.pattern, "aaaa", Flags{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSearcher_TimesOut(t *testing.T) {
	collector := metrics.NewCollector("test")
	s := New(Options{Timeout: 100 * time.Millisecond}, collector)

	// Passes the pattern check but backtracks exponentially on a run of x
	// with no y.
	text := strings.Repeat("x", 5000)

	start := time.Now()
	_, err := s.Find(context.Background(), "(x+x+)+y", text, Flags{})
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, domain.ErrSearchTimeout)
	assert.Less(t, elapsed, time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.SearchAborts.WithLabelValues("timeout")))
}

func TestSearcher_ContextDeadlineShortensTimeout(t *testing.T) {
	s := New(Options{Timeout: time.Minute}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Find(ctx, "(x+x+)+y", strings.Repeat("x", 5000), Flags{})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSearcher_TooManyMatches(t *testing.T) {
	s := New(Options{MaxMatches: 3}, nil)
	ctx := context.Background()

	got, err := s.Find(ctx, "a", "aaa", Flags{})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = s.Find(ctx, "a", "aaaa", Flags{})
	assert.ErrorIs(t, err, domain.ErrTooManyMatches)
}

func TestSearcher_Replace(t *testing.T) {
	s := New(Options{}, nil)
	ctx := context.Background()

	tests := []struct {
		name        string
		pattern     string
		replacement string
		all         bool
		wantText    string
		wantCount   int
	}{
		{name: "first only", pattern: "cat", replacement: "dog", wantText: "dog cat", wantCount: 1},
		{name: "all", pattern: "cat", replacement: "dog", all: true, wantText: "dog dog", wantCount: 2},
		{name: "groups", pattern: `(c)(at)`, replacement: "$2$1", all: true, wantText: "atc atc", wantCount: 2},
		{name: "nothing to replace", pattern: "cow", replacement: "dog", all: true, wantText: "cat cat", wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, n, err := s.Replace(ctx, tt.pattern, "cat cat", tt.replacement, Flags{}, tt.all)
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, out)
			assert.Equal(t, tt.wantCount, n)
		})
	}
}

func TestSearcher_MatchNotes(t *testing.T) {
	s := New(Options{MaxMatches: 3}, nil)
	ctx := context.Background()
	notes := []domain.Note{
		{ID: "1", Title: "Shopping", Content: "buy milk, buy bread"},
		{ID: "2", Title: "Buy a car", Content: "compare prices"},
		{ID: "3", Title: "Other", Content: "nothing"},
	}

	got, err := s.MatchNotes(ctx, notes, "buy", Flags{IgnoreCase: true})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].Note.ID)
	assert.Len(t, got[0].Matches, 2)
	assert.Equal(t, "2", got[1].Note.ID)
	assert.Empty(t, got[1].Matches)

	// The ceiling covers the whole pass.
	notes = append(notes, domain.Note{ID: "4", Content: "buy"})
	_, err = s.MatchNotes(ctx, notes, "buy", Flags{IgnoreCase: true})
	assert.ErrorIs(t, err, domain.ErrTooManyMatches)
}

func TestNotes(t *testing.T) {
	notes := []domain.Note{
		{ID: "1", Title: "Meeting", Content: "Discuss ROADMAP"},
		{ID: "2", Title: "ÜBER ALLES", Content: ""},
		{ID: "3", Title: "Other", Content: "road trip"},
		{ID: "4", Title: "Unrelated", Content: "x"},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "case insensitive content", query: "road", want: []string{"1", "3"}},
		{name: "title", query: "meet", want: []string{"1"}},
		{name: "non-ascii case", query: "über", want: []string{"2"}},
		{name: "empty query", query: "  ", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Notes(notes, tt.query)
			ids := make([]string, 0, len(got))
			for _, n := range got {
				ids = append(ids, n.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
