package curation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
)

type recordingCommitter struct {
	mu    sync.Mutex
	calls int
	ids   []string
	sets  []brand.PromptSet
	err   error
}

func (c *recordingCommitter) CommitPrompts(ctx context.Context, id string, ps brand.PromptSet) (*brand.BrandRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.ids = append(c.ids, id)
	c.sets = append(c.sets, ps)
	if c.err != nil {
		return nil, c.err
	}
	return &brand.BrandRecord{ID: id, PromptData: []brand.PromptSet{ps}}, nil
}

func seededRecord() *brand.BrandRecord {
	ps := brand.PromptSet{}
	for i := 0; i < 10; i++ {
		c := brand.Category{Name: fmt.Sprintf("Category %d", i)}
		for j := 0; j < 5; j++ {
			c.Questions = append(c.Questions, fmt.Sprintf("q%d.%d", i, j))
		}
		ps.Categories = append(ps.Categories, c)
	}
	return &brand.BrandRecord{ID: "rec-1", BrandName: "Acme", URL: "https://acme.test", PromptData: []brand.PromptSet{ps}}
}

func loadedSession(t *testing.T, c Committer, opts ...Option) *Session {
	t.Helper()
	s := NewSession(c, opts...)
	require.NoError(t, s.Load(seededRecord()))
	require.Equal(t, StateLoaded, s.State())
	return s
}

func TestEditsRequireLoadedSession(t *testing.T) {
	s := NewSession(&recordingCommitter{})
	assert.Equal(t, StateEmpty, s.State())
	assert.True(t, brand.IsKind(s.AddCategory("x"), brand.KindSessionState))
	assert.True(t, brand.IsKind(s.AddQuestion(0, "x"), brand.KindSessionState))
	_, err := s.Commit(context.Background())
	assert.True(t, brand.IsKind(err, brand.KindSessionState))
}

func TestLoadRejectsRecordWithoutPromptSet(t *testing.T) {
	s := NewSession(&recordingCommitter{})
	err := s.Load(&brand.BrandRecord{ID: "rec-1"})
	assert.True(t, brand.IsKind(err, brand.KindValidation))
	assert.Equal(t, StateEmpty, s.State())
}

func TestLoadCopiesRecord(t *testing.T) {
	rec := seededRecord()
	s := NewSession(&recordingCommitter{})
	require.NoError(t, s.Load(rec))
	require.NoError(t, s.AddQuestion(0, "new"))
	assert.Len(t, rec.PromptData[0].Categories[0].Questions, 5, "record must not see session edits")

	snap := s.Snapshot()
	snap.Categories[0].Questions[0] = "mutated"
	assert.Equal(t, "q0.0", s.Snapshot().Categories[0].Questions[0], "snapshot must not alias working copy")
}

func TestAddCategoryAppendsEmptyCategory(t *testing.T) {
	s := loadedSession(t, &recordingCommitter{})
	require.NoError(t, s.AddCategory("  Security  "))
	snap := s.Snapshot()
	require.Len(t, snap.Categories, 11)
	last := snap.Categories[10]
	assert.Equal(t, "  Security  ", last.Name, "name is stored as given")
	assert.NotNil(t, last.Questions)
	assert.Empty(t, last.Questions)
	assert.Equal(t, StateDirty, s.State())
}

func TestAddCategoryDuplicatePolicy(t *testing.T) {
	s := loadedSession(t, &recordingCommitter{})
	assert.True(t, brand.IsKind(s.AddCategory(" Category 3 "), brand.KindDuplicateCategory))
	err := s.AddCategory("category 3")
	assert.True(t, brand.IsKind(err, brand.KindDuplicateCategory), "got %v", err)
	assert.Equal(t, StateLoaded, s.State(), "rejected edit must not dirty the session")

	allow := loadedSession(t, &recordingCommitter{}, WithDuplicatePolicy(DuplicateAllow))
	require.NoError(t, allow.AddCategory("CATEGORY 3"))
	assert.Len(t, allow.Snapshot().Categories, 11)
}

func TestAddCategoryRejectsBlankName(t *testing.T) {
	s := loadedSession(t, &recordingCommitter{})
	assert.True(t, brand.IsKind(s.AddCategory("   "), brand.KindValidation))
}

func TestAddQuestionBounds(t *testing.T) {
	s := loadedSession(t, &recordingCommitter{})
	n := len(s.Snapshot().Categories)

	err := s.AddQuestion(n, "past the end")
	assert.True(t, brand.IsKind(err, brand.KindIndexOutOfRange), "categoryIndex == len must fail, got %v", err)
	assert.True(t, brand.IsKind(s.AddQuestion(-1, "x"), brand.KindIndexOutOfRange))
	assert.True(t, brand.IsKind(s.AddQuestion(0, " "), brand.KindValidation))

	require.NoError(t, s.AddQuestion(n-1, "last category"))
	qs := s.Snapshot().Categories[n-1].Questions
	assert.Equal(t, "last category", qs[len(qs)-1])
}

func TestAddQuestionKeepsTextAsGiven(t *testing.T) {
	s := loadedSession(t, &recordingCommitter{})
	require.NoError(t, s.AddQuestion(0, "  padded question  "))
	qs := s.Snapshot().Categories[0].Questions
	assert.Equal(t, "  padded question  ", qs[len(qs)-1])
	assert.True(t, brand.IsKind(s.AddQuestion(0, "\t\n "), brand.KindValidation))
	assert.Len(t, s.Snapshot().Categories[0].Questions, 6)
}

func TestRemoveQuestionKeepsOrder(t *testing.T) {
	s := loadedSession(t, &recordingCommitter{})
	require.NoError(t, s.RemoveQuestion(2, 1))
	assert.Equal(t, []string{"q2.0", "q2.2", "q2.3", "q2.4"}, s.Snapshot().Categories[2].Questions)

	assert.True(t, brand.IsKind(s.RemoveQuestion(2, 4), brand.KindIndexOutOfRange))
	assert.True(t, brand.IsKind(s.RemoveQuestion(10, 0), brand.KindIndexOutOfRange))
}

func TestRemoveThenAddRestoresLengthAtEnd(t *testing.T) {
	s := loadedSession(t, &recordingCommitter{})
	before := s.Snapshot().Categories[4].Questions
	require.NoError(t, s.RemoveQuestion(4, 0))
	require.NoError(t, s.AddQuestion(4, before[0]))
	after := s.Snapshot().Categories[4].Questions
	assert.Len(t, after, len(before))
	assert.Equal(t, before[0], after[len(after)-1])
	assert.Equal(t, before[1], after[0])
}

func TestRemoveCategory(t *testing.T) {
	s := loadedSession(t, &recordingCommitter{})
	require.NoError(t, s.RemoveCategory(0))
	snap := s.Snapshot()
	assert.Len(t, snap.Categories, 9)
	assert.Equal(t, "Category 1", snap.Categories[0].Name)
	assert.True(t, brand.IsKind(s.RemoveCategory(9), brand.KindIndexOutOfRange))
}

func TestCommitRequiresEdits(t *testing.T) {
	c := &recordingCommitter{}
	s := loadedSession(t, c)
	_, err := s.Commit(context.Background())
	assert.True(t, brand.IsKind(err, brand.KindSessionState))
	assert.Equal(t, 0, c.calls)
}

func TestCommitSuccess(t *testing.T) {
	c := &recordingCommitter{}
	s := loadedSession(t, c)
	require.NoError(t, s.AddCategory("Security"))
	require.NoError(t, s.AddQuestion(10, "Is data encrypted at rest?"))

	rec, err := s.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, s.State())
	assert.Equal(t, "rec-1", rec.ID)
	assert.Same(t, rec, s.Result())
	require.Equal(t, 1, c.calls)
	assert.Equal(t, "rec-1", c.ids[0])
	assert.Equal(t, s.Snapshot(), c.sets[0])

	assert.True(t, brand.IsKind(s.AddCategory("More"), brand.KindSessionState))
	_, err = s.Commit(context.Background())
	assert.True(t, brand.IsKind(err, brand.KindSessionState))
	assert.Equal(t, 1, c.calls)
}

func TestCommitFailureSurfacesErrorAndAllowsRetry(t *testing.T) {
	cause := brand.NotFound("lifecycle.Update", "brand not found")
	c := &recordingCommitter{err: cause}
	s := loadedSession(t, c)
	require.NoError(t, s.RemoveQuestion(0, 0))

	_, err := s.Commit(context.Background())
	assert.Same(t, cause, err, "commit must surface the committer error untouched")
	assert.Equal(t, StateDirty, s.State(), "a failed commit returns the session to dirty")
	assert.Same(t, cause, s.LastError())
	assert.Len(t, s.Snapshot().Categories[0].Questions, 4, "edits survive a failed commit")

	require.NoError(t, s.AddQuestion(0, "another"))
	assert.Equal(t, StateDirty, s.State())
	assert.Same(t, cause, s.LastError(), "edits do not clear the last commit error")

	c.mu.Lock()
	c.err = nil
	c.mu.Unlock()
	_, err = s.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, s.State())
	assert.Nil(t, s.LastError())
	assert.Equal(t, 2, c.calls)
}

type blockingCommitter struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingCommitter) CommitPrompts(ctx context.Context, id string, ps brand.PromptSet) (*brand.BrandRecord, error) {
	close(b.entered)
	<-b.release
	return &brand.BrandRecord{ID: id, PromptData: []brand.PromptSet{ps}}, nil
}

func TestAtMostOneCommitInFlight(t *testing.T) {
	bc := &blockingCommitter{entered: make(chan struct{}), release: make(chan struct{})}
	s := loadedSession(t, bc)
	require.NoError(t, s.AddCategory("Security"))

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = s.Commit(context.Background())
	}()
	<-bc.entered

	assert.Equal(t, StateCommitting, s.State())
	_, err := s.Commit(context.Background())
	assert.True(t, brand.IsKind(err, brand.KindSessionState), "second commit: %v", err)
	assert.True(t, brand.IsKind(s.AddQuestion(0, "x"), brand.KindSessionState))

	close(bc.release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, StateCommitted, s.State())
}

func TestCommitErrorIsNotWrapped(t *testing.T) {
	plain := errors.New("network down")
	s := loadedSession(t, &recordingCommitter{err: plain})
	require.NoError(t, s.AddCategory("X"))
	_, err := s.Commit(context.Background())
	assert.Same(t, plain, err)
}

func TestParseDuplicatePolicy(t *testing.T) {
	p, err := ParseDuplicatePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DuplicateReject, p)
	p, err = ParseDuplicatePolicy("ALLOW")
	require.NoError(t, err)
	assert.Equal(t, DuplicateAllow, p)
	_, err = ParseDuplicatePolicy("merge")
	assert.Error(t, err)
}
