// Package autosave saves note edits after a quiet period. A failed save is
// retried once; a second failure leaves the note in the error state until
// the next edit or explicit save.
package autosave

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks offnote/internal/autosave Store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"offnote/internal/contextutil"
	"offnote/internal/domain"
	"offnote/internal/metrics"
)

// Store is where edits are saved.
type Store interface {
	GetNote(ctx context.Context, id string) (domain.Note, error)
	SaveNote(ctx context.Context, note domain.Note) (domain.Note, error)
	RecordHistory(ctx context.Context, note domain.Note) (domain.HistoryEntry, error)
}

// Status is the save state of one note.
type Status string

const (
	StatusSaved   Status = "saved"
	StatusUnsaved Status = "unsaved"
	StatusSaving  Status = "saving"
	StatusError   Status = "error"
)

const (
	DefaultDelay            = 3 * time.Second
	DefaultRetryDelay       = 5 * time.Second
	DefaultHistoryThreshold = 10
)

// Config tunes the saver.
type Config struct {
	// Delay is the quiet period after the last edit before saving.
	Delay time.Duration
	// RetryDelay is the wait before the single retry of a failed save.
	RetryDelay time.Duration
	// HistoryThreshold is the content length change, in characters, that
	// makes a save also record a history snapshot.
	HistoryThreshold int
}

func (c Config) withDefaults() Config {
	if c.Delay <= 0 {
		c.Delay = DefaultDelay
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.HistoryThreshold <= 0 {
		c.HistoryThreshold = DefaultHistoryThreshold
	}
	return c
}

// State is what a client renders for a note being edited.
type State struct {
	Status    Status      `json:"status"`
	LastError string      `json:"lastError,omitempty"`
	Note      domain.Note `json:"note"`
}

type session struct {
	draft   domain.Note
	dirty   bool
	status  Status
	lastErr string
	retried bool
	timer   *time.Timer
	gen     uint64 // invalidates timers that fired after being replaced
	ctx     context.Context
}

// Saver debounces and saves note edits.
type Saver struct {
	mu       sync.Mutex
	store    Store
	cfg      Config
	metrics  *metrics.Collector
	logger   *slog.Logger
	sessions map[string]*session
}

// New creates a Saver. collector may be nil.
func New(store Store, cfg Config, collector *metrics.Collector) *Saver {
	return &Saver{
		store:    store,
		cfg:      cfg.withDefaults(),
		metrics:  collector,
		logger:   slog.Default(),
		sessions: make(map[string]*session),
	}
}

func (s *Saver) getLogger(ctx context.Context) *slog.Logger {
	return contextutil.LoggerFromContextOr(ctx, s.logger)
}

// Edit records the latest title and content of a note and schedules a
// save after the quiet period. Earlier pending edits are replaced.
func (s *Saver) Edit(ctx context.Context, id, title, content string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(ctx, id)
	if err != nil {
		return State{}, err
	}
	sess.draft.Title = title
	sess.draft.Content = content
	sess.dirty = true
	sess.status = StatusUnsaved
	sess.retried = false
	sess.ctx = context.WithoutCancel(ctx)
	s.schedule(id, sess, s.cfg.Delay)
	return sess.state(), nil
}

// session returns the open session of id, loading the note on first use.
// Must be called with the lock held.
func (s *Saver) session(ctx context.Context, id string) (*session, error) {
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	note, err := s.store.GetNote(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load note %s: %w", id, err)
	}
	sess := &session{draft: note, status: StatusSaved, ctx: context.WithoutCancel(ctx)}
	s.sessions[id] = sess
	return sess, nil
}

// schedule replaces any pending timer of sess. Must be called with the
// lock held.
func (s *Saver) schedule(id string, sess *session, d time.Duration) {
	if sess.timer != nil {
		sess.timer.Stop()
	}
	sess.gen++
	gen := sess.gen
	sess.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		cur, ok := s.sessions[id]
		if !ok || cur != sess || sess.gen != gen {
			return
		}
		sess.timer = nil
		_, _ = s.save(sess.ctx, sess)
	})
}

// Flush cancels the pending save of a note and saves it now. A note
// without unsaved edits is returned as last saved.
func (s *Saver) Flush(ctx context.Context, id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return State{}, fmt.Errorf("no open edit for note %s: %w", id, domain.ErrNotFound)
	}
	s.cancel(sess)
	sess.retried = false
	_, err := s.save(ctx, sess)
	return sess.state(), err
}

// Close flushes a note and forgets it.
func (s *Saver) Close(ctx context.Context, id string) (State, error) {
	st, err := s.Flush(ctx, id)
	if err != nil {
		return st, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		s.cancel(sess)
		delete(s.sessions, id)
	}
	return st, nil
}

// FlushAll saves every note with unsaved edits. It is used at shutdown and
// reports how many saves failed.
func (s *Saver) FlushAll(ctx context.Context) domain.Counts {
	s.mu.Lock()
	defer s.mu.Unlock()

	var counts domain.Counts
	for _, sess := range s.sessions {
		s.cancel(sess)
		if !sess.dirty {
			continue
		}
		sess.retried = true
		if _, err := s.save(ctx, sess); err != nil {
			counts.Failed++
			continue
		}
		counts.Success++
	}
	return counts
}

// State reports the save state of a note.
func (s *Saver) State(id string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return State{}, false
	}
	return sess.state(), true
}

func (s *Saver) cancel(sess *session) {
	if sess.timer != nil {
		sess.timer.Stop()
		sess.timer = nil
	}
	sess.gen++
}

// save writes the draft title and content of sess over the current
// version of the note, so attributes changed elsewhere are kept. Must be
// called with the lock held.
func (s *Saver) save(ctx context.Context, sess *session) (domain.Note, error) {
	logger := s.getLogger(ctx)
	if !sess.dirty {
		return sess.draft, nil
	}
	sess.status = StatusSaving
	id := sess.draft.ID

	saved, err := s.write(ctx, sess.draft)
	if err != nil && !domain.IsDegraded(err) {
		s.metrics.RecordAutosaveFailure()
		sess.status = StatusError
		sess.lastErr = err.Error()
		if !sess.retried {
			sess.retried = true
			logger.WarnContext(ctx, "autosave failed, retrying", "note_id", id, "retry_in", s.cfg.RetryDelay, "error", err)
			s.schedule(id, sess, s.cfg.RetryDelay)
		} else {
			logger.ErrorContext(ctx, "autosave failed", "note_id", id, "error", err)
		}
		return domain.Note{}, err
	}
	if err != nil {
		logger.WarnContext(ctx, "autosave stored in database only", "note_id", id, "error", err)
	}

	sess.draft = saved
	sess.dirty = false
	sess.status = StatusSaved
	sess.lastErr = ""
	sess.retried = false
	logger.DebugContext(ctx, "autosaved note", "note_id", id)
	return saved, nil
}

func (s *Saver) write(ctx context.Context, draft domain.Note) (domain.Note, error) {
	current, err := s.store.GetNote(ctx, draft.ID)
	if err != nil {
		return domain.Note{}, fmt.Errorf("failed to load note %s: %w", draft.ID, err)
	}

	if s.significant(current.Content, draft.Content) {
		snapshot := current
		snapshot.Title = draft.Title
		snapshot.Content = draft.Content
		if _, err := s.store.RecordHistory(ctx, snapshot); err != nil {
			s.getLogger(ctx).WarnContext(ctx, "failed to record history", "note_id", draft.ID, "error", err)
		}
	}

	current.Title = draft.Title
	current.Content = draft.Content
	return s.store.SaveNote(ctx, current)
}

// significant reports whether the content length changed enough to keep a
// history snapshot.
func (s *Saver) significant(before, after string) bool {
	diff := utf8.RuneCountInString(after) - utf8.RuneCountInString(before)
	if diff < 0 {
		diff = -diff
	}
	return diff >= s.cfg.HistoryThreshold
}

func (sess *session) state() State {
	return State{Status: sess.status, LastError: sess.lastErr, Note: sess.draft}
}
