package curation

import (
	"context"
	"strings"
	"sync"

	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

// State is the lifecycle position of a Session.
//
//	Empty -> Loaded -> Dirty -> Committing -> Committed
//	                     ^          |
//	                     +-(failed)-+
//
// A failed commit puts the session back in Dirty with the edits intact; the
// failure is reported by LastError until the next successful commit.
type State string

const (
	StateEmpty      State = "empty"
	StateLoaded     State = "loaded"
	StateDirty      State = "dirty"
	StateCommitting State = "committing"
	StateCommitted  State = "committed"
)

// Committer persists a curated Prompt Set for a record.
type Committer interface {
	CommitPrompts(ctx context.Context, id string, ps brand.PromptSet) (*brand.BrandRecord, error)
}

type Option func(*Session)

func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(s *Session) { s.policy = p }
}

func WithLogger(log *logger.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log.With("component", "CurationSession")
		}
	}
}

// Session owns one working copy of a record's Prompt Set. Edits apply to that
// copy only; nothing reaches the store until Commit.
type Session struct {
	mu        sync.Mutex
	committer Committer
	policy    DuplicatePolicy
	log       *logger.Logger

	state    State
	recordID string
	working  brand.PromptSet
	result   *brand.BrandRecord
	lastErr  error
}

func NewSession(committer Committer, opts ...Option) *Session {
	s := &Session{committer: committer, policy: DuplicateReject, state: StateEmpty}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load seeds the session from a record's current Prompt Set.
func (s *Session) Load(rec *brand.BrandRecord) error {
	const op = "curation.Load"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEmpty {
		return brand.SessionState(op, "session already loaded")
	}
	if rec == nil || strings.TrimSpace(rec.ID) == "" {
		return brand.Validation(op, "record with an id is required")
	}
	ps, ok := rec.CurrentPromptSet()
	if !ok {
		return brand.Validation(op, "record has no prompt set to curate")
	}
	s.recordID = rec.ID
	s.working = ps.Clone()
	s.state = StateLoaded
	s.debug("session loaded", "record_id", rec.ID, "categories", len(s.working.Categories))
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) RecordID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordID
}

// Snapshot returns a deep copy of the working Prompt Set.
func (s *Session) Snapshot() brand.PromptSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Clone()
}

// LastError is the error from the most recent failed commit.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Result is the server record returned by a successful commit.
func (s *Session) Result() *brand.BrandRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// AddCategory appends an empty category.
func (s *Session) AddCategory(name string) error {
	const op = "curation.AddCategory"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(op); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return brand.Validation(op, "category name is required")
	}
	if s.policy != DuplicateAllow {
		for _, c := range s.working.Categories {
			if sameCategoryName(c.Name, name) {
				return brand.DuplicateCategory(op, name)
			}
		}
	}
	s.working.Categories = append(s.working.Categories, brand.Category{Name: name, Questions: []string{}})
	s.state = StateDirty
	return nil
}

// RemoveCategory deletes the category at index, keeping the order of the rest.
func (s *Session) RemoveCategory(index int) error {
	const op = "curation.RemoveCategory"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(op); err != nil {
		return err
	}
	n := len(s.working.Categories)
	if index < 0 || index >= n {
		return brand.IndexOutOfRange(op, "category", index, n)
	}
	cats := make([]brand.Category, 0, n-1)
	cats = append(cats, s.working.Categories[:index]...)
	cats = append(cats, s.working.Categories[index+1:]...)
	s.working.Categories = cats
	s.state = StateDirty
	return nil
}

// AddQuestion appends text to the category at categoryIndex.
func (s *Session) AddQuestion(categoryIndex int, text string) error {
	const op = "curation.AddQuestion"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(op); err != nil {
		return err
	}
	n := len(s.working.Categories)
	if categoryIndex < 0 || categoryIndex >= n {
		return brand.IndexOutOfRange(op, "category", categoryIndex, n)
	}
	if strings.TrimSpace(text) == "" {
		return brand.Validation(op, "question text is required")
	}
	c := &s.working.Categories[categoryIndex]
	c.Questions = append(c.Questions, text)
	s.state = StateDirty
	return nil
}

// RemoveQuestion deletes one question, keeping the order of the rest.
func (s *Session) RemoveQuestion(categoryIndex, questionIndex int) error {
	const op = "curation.RemoveQuestion"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(op); err != nil {
		return err
	}
	n := len(s.working.Categories)
	if categoryIndex < 0 || categoryIndex >= n {
		return brand.IndexOutOfRange(op, "category", categoryIndex, n)
	}
	c := &s.working.Categories[categoryIndex]
	qn := len(c.Questions)
	if questionIndex < 0 || questionIndex >= qn {
		return brand.IndexOutOfRange(op, "question", questionIndex, qn)
	}
	qs := make([]string, 0, qn-1)
	qs = append(qs, c.Questions[:questionIndex]...)
	qs = append(qs, c.Questions[questionIndex+1:]...)
	c.Questions = qs
	s.state = StateDirty
	return nil
}

// Commit sends the working copy to the Committer. Only one commit may be in
// flight; a failed commit leaves the edits in place and may be retried. The
// Committer's error is returned unchanged.
func (s *Session) Commit(ctx context.Context) (*brand.BrandRecord, error) {
	const op = "curation.Commit"
	s.mu.Lock()
	switch s.state {
	case StateDirty:
	case StateCommitting:
		s.mu.Unlock()
		return nil, brand.SessionState(op, "a commit is already in flight")
	case StateLoaded:
		s.mu.Unlock()
		return nil, brand.SessionState(op, "no changes to commit")
	case StateCommitted:
		s.mu.Unlock()
		return nil, brand.SessionState(op, "session already committed")
	default:
		s.mu.Unlock()
		return nil, brand.SessionState(op, "no prompt set loaded")
	}
	if s.committer == nil {
		s.mu.Unlock()
		return nil, brand.SessionState(op, "no committer configured")
	}
	s.state = StateCommitting
	id := s.recordID
	snapshot := s.working.Clone()
	s.mu.Unlock()

	rec, err := s.committer.CommitPrompts(ctx, id, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateDirty
		s.lastErr = err
		s.warn("commit failed", "record_id", id, "error", err)
		return nil, err
	}
	s.state = StateCommitted
	s.result = rec
	s.lastErr = nil
	s.debug("commit succeeded", "record_id", id)
	return rec, nil
}

func (s *Session) editable(op string) error {
	switch s.state {
	case StateLoaded, StateDirty:
		return nil
	case StateCommitting:
		return brand.SessionState(op, "cannot edit while a commit is in flight")
	case StateCommitted:
		return brand.SessionState(op, "session already committed")
	default:
		return brand.SessionState(op, "no prompt set loaded")
	}
}

func (s *Session) debug(msg string, kv ...interface{}) {
	if s.log != nil {
		s.log.Debug(msg, kv...)
	}
}

func (s *Session) warn(msg string, kv ...interface{}) {
	if s.log != nil {
		s.log.Warn(msg, kv...)
	}
}
