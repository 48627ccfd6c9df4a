package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
	pkgerrors "github.com/yungbote/brandprompt-backend/internal/pkg/errors"
)

func tenByFive() brand.PromptSet {
	ps := brand.PromptSet{}
	for i := 0; i < brand.SynthesizedCategoryCount; i++ {
		c := brand.Category{Name: fmt.Sprintf("Category %d", i)}
		for j := 0; j < brand.SynthesizedQuestionCount; j++ {
			c.Questions = append(c.Questions, fmt.Sprintf("Question %d.%d?", i, j))
		}
		ps.Categories = append(ps.Categories, c)
	}
	return ps
}

func TestCreateValidatesBeforePersisting(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	_, err := f.lifecycle.Create(ctx, "", "https://acme.example", tenByFive())
	assert.True(t, brand.IsKind(err, brand.KindValidation), "empty brand name: got %v", err)

	_, err = f.lifecycle.Create(ctx, "Acme", "   ", tenByFive())
	assert.True(t, brand.IsKind(err, brand.KindValidation), "blank url: got %v", err)

	for _, raw := range []string{"acme.example", "not a url", "/relative/path", "http://%zz"} {
		_, err = f.lifecycle.Create(ctx, "Acme", raw, tenByFive())
		assert.True(t, brand.IsKind(err, brand.KindInvalidURL), "url %q: got %v", raw, err)
	}

	assert.Equal(t, int64(0), f.count(t))
}

func TestCreateRoundTripsFieldForField(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	ps := tenByFive()

	created, err := f.lifecycle.Create(ctx, "  Acme  ", "https://acme.example/home", ps)
	require.NoError(t, err)
	assert.Equal(t, "Acme", created.BrandName)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := f.lifecycle.Get(ctx, created.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(created, found); diff != "" {
		t.Fatalf("round trip mismatch (-created +found):\n%s", diff)
	}
	got, ok := found.CurrentPromptSet()
	require.True(t, ok)
	if diff := cmp.Diff(ps, got); diff != "" {
		t.Fatalf("prompt set mismatch (-synthesized +stored):\n%s", diff)
	}
}

func TestUpdateReplacesPromptDataIdempotently(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	created, err := f.lifecycle.Create(ctx, "Acme", "https://acme.example", tenByFive())
	require.NoError(t, err)

	curated := tenByFive()
	curated.Categories = append(curated.Categories[:2], brand.Category{Name: "Custom", Questions: []string{}})

	first, err := f.lifecycle.Update(ctx, created.ID, curated)
	require.NoError(t, err)
	second, err := f.lifecycle.Update(ctx, created.ID, curated)
	require.NoError(t, err)

	require.Len(t, first.PromptData, 1)
	require.Len(t, second.PromptData, 1)
	if diff := cmp.Diff(first.PromptData[0], second.PromptData[0]); diff != "" {
		t.Fatalf("repeated commit changed prompt data (-first +second):\n%s", diff)
	}
	assert.Len(t, second.PromptData[0].Categories, 3)
	assert.Equal(t, created.BrandName, second.BrandName)
	assert.False(t, second.UpdatedAt.Before(created.UpdatedAt))
	assert.Equal(t, []brand.EventType{brand.EventPromptsCommitted, brand.EventPromptsCommitted}, f.events.types())
}

func TestUpdateErrorKinds(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	_, err := f.lifecycle.Update(ctx, "abc123", tenByFive())
	assert.True(t, brand.IsKind(err, brand.KindNotFound), "absent id: got %v", err)

	_, err = f.lifecycle.Update(ctx, "bad id!", tenByFive())
	assert.True(t, brand.IsKind(err, brand.KindValidation), "malformed id: got %v", err)

	_, err = f.lifecycle.Update(ctx, "", tenByFive())
	assert.True(t, brand.IsKind(err, brand.KindValidation), "empty id: got %v", err)

	_, err = f.lifecycle.Update(ctx, "abc123", brand.PromptSet{})
	assert.True(t, brand.IsKind(err, brand.KindValidation), "nil categories: got %v", err)

	_, err = f.lifecycle.Update(ctx, "abc123", brand.PromptSet{Categories: []brand.Category{{Name: "", Questions: []string{}}}})
	assert.True(t, brand.IsKind(err, brand.KindValidation), "nameless category: got %v", err)

	assert.Empty(t, f.events.types())
}

func TestUpdateSurvivesPublishFailure(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	created, err := f.lifecycle.Create(ctx, "Acme", "https://acme.example", tenByFive())
	require.NoError(t, err)

	f.events.err = errors.New("redis down")
	_, err = f.lifecycle.Update(ctx, created.ID, tenByFive())
	require.NoError(t, err)
}

func TestListPaginates(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.lifecycle.Create(ctx, fmt.Sprintf("Brand %d", i), "https://brand.example", tenByFive())
		require.NoError(t, err)
	}

	page, err := f.lifecycle.List(ctx, brand.RecordFilter{}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Data, 1)

	page, err = f.lifecycle.List(ctx, brand.RecordFilter{}, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, MaxPageLimit, page.Limit)
}

func TestListSearchesNameAndURL(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	for _, b := range [][2]string{
		{"Acme", "https://acme.example"},
		{"Globex", "https://globex.example/acme"},
		{"Initech", "https://initech.example"},
	} {
		_, err := f.lifecycle.Create(ctx, b[0], b[1], tenByFive())
		require.NoError(t, err)
	}

	page, err := f.lifecycle.List(ctx, brand.RecordFilter{Query: " ACME "}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.TotalPages)
	require.Len(t, page.Data, 2)
	assert.ElementsMatch(t, []string{"Acme", "Globex"}, []string{page.Data[0].BrandName, page.Data[1].BrandName})

	page, err = f.lifecycle.List(ctx, brand.RecordFilter{URL: "https://initech.example"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Initech", page.Data[0].BrandName)

	page, err = f.lifecycle.List(ctx, brand.RecordFilter{BrandName: "nobody"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
	assert.Empty(t, page.Data)
}

func TestStatsCountsCalendarWindows(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.lifecycle.Create(ctx, fmt.Sprintf("Brand %d", i), "https://brand.example", tenByFive())
		require.NoError(t, err)
	}

	stats, err := f.lifecycle.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.LessOrEqual(t, stats.Today, stats.ThisWeek)
	assert.LessOrEqual(t, stats.ThisWeek, stats.ThisMonth)
	assert.LessOrEqual(t, stats.ThisMonth, stats.Total)

	future := time.Date(2100, 1, 12, 8, 0, 0, 0, time.UTC)
	f.lifecycle.(*brandLifecycleService).now = func() time.Time { return future }
	stats, err = f.lifecycle.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, brand.RecordStats{Total: 3, AsOf: future}, *stats)
}

func TestMapStoreError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want brand.ErrorKind
	}{
		{"invalid id", fmt.Errorf("x: %w", pkgerrors.ErrInvalidID), brand.KindValidation},
		{"not found", fmt.Errorf("x: %w", pkgerrors.ErrNotFound), brand.KindNotFound},
		{"pg data exception", &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"}, brand.KindValidation},
		{"pg unique", &pgconn.PgError{Code: "23505"}, brand.KindPersistence},
		{"passthrough", brand.SessionState("op", "busy"), brand.KindSessionState},
		{"other", errors.New("dial tcp 10.0.0.1:5432: connection refused"), brand.KindPersistence},
	}
	for _, tc := range cases {
		got := mapStoreError("op", tc.err)
		if brand.KindOf(got) != tc.want {
			t.Fatalf("%s: want=%s got=%v", tc.name, tc.want, got)
		}
	}

	scrubbed := mapStoreError("op", errors.New("password=hunter2 host=db"))
	var be *brand.Error
	require.True(t, errors.As(scrubbed, &be))
	assert.NotContains(t, be.Message, "hunter2")
}
