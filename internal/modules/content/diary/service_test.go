package diary

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/daily-reflections/core/internal/database"
	"github.com/daily-reflections/core/internal/models"
	"github.com/daily-reflections/core/internal/pkg/apperr"
	"github.com/daily-reflections/core/internal/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const owner = "0b8f7c1e-3d2a-4c55-9e61-000000000001"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func strPtr(s string) *string { return &s }

func TestCreateAndGetByDate(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, "Had a calm walk today", "2024-05-01")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := svc.GetByDate(ctx, owner, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, "Had a calm walk today", got.Content)
	assert.Equal(t, "2024-05-01", got.Date)
	assert.Equal(t, models.PlaceholderTitle, got.Title)
	assert.Nil(t, got.Mood)
	assert.Nil(t, got.Emotions)

	_, err = svc.GetByDate(ctx, owner, "2024-05-02")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.GetByDate(ctx, "someone-else", "2024-05-01")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateDuplicateDate(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, "first", "2024-05-01")
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, "second", "2024-05-01")
	assert.ErrorIs(t, err, apperr.ErrDuplicateDate)

	// Another user may write on the same day.
	_, err = svc.Create(ctx, "other-user", "theirs", "2024-05-01")
	require.NoError(t, err)

	got, err := svc.GetByDate(ctx, owner, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Content)
}

func TestCreateConcurrentSameDate(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		dupes     int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Create(ctx, owner, fmt.Sprintf("attempt %d", i), "2024-06-01")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, apperr.ErrDuplicateDate):
				dupes++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, dupes)
}

func TestListOrdersNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		_, err := svc.Create(ctx, owner, fmt.Sprintf("entry %d", i), fmt.Sprintf("2024-05-%02d", i))
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, owner, pagination.Query{Limit: 5, Offset: 0})
	require.NoError(t, err)
	require.Len(t, first, 5)
	assert.Equal(t, "entry 7", first[0].Content)

	rest, err := svc.List(ctx, owner, pagination.Query{Limit: 5, Offset: 5})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "entry 1", rest[1].Content)

	none, err := svc.List(ctx, "nobody", pagination.Query{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateEntry(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, "draft", "2024-05-01")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	updated, err := svc.UpdateOwned(ctx, owner, created.ID, models.EntryPatch{Content: strPtr("final")})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)
	assert.Equal(t, models.PlaceholderTitle, updated.Title)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.WithinDuration(t, created.CreatedAt, updated.CreatedAt, time.Millisecond)

	_, err = svc.UpdateOwned(ctx, "intruder", created.ID, models.EntryPatch{Content: strPtr("hijack")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.UpdateEntry(ctx, created.ID+100, models.EntryPatch{Title: strPtr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	emotions := models.StringArray{"peaceful", "content"}
	enriched, err := svc.UpdateEntry(ctx, created.ID, models.EntryPatch{
		Title:    strPtr("Quiet Walk"),
		Mood:     strPtr("calm"),
		Emotions: &emotions,
	})
	require.NoError(t, err)
	assert.Equal(t, "Quiet Walk", enriched.Title)
	assert.Equal(t, emotions, enriched.Emotions)
	assert.True(t, enriched.Enriched())
}

func TestUpdateDateCollision(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, "one", "2024-05-01")
	require.NoError(t, err)
	second, err := svc.Create(ctx, owner, "two", "2024-05-02")
	require.NoError(t, err)

	_, err = svc.UpdateOwned(ctx, owner, second.ID, models.EntryPatch{Date: strPtr("2024-05-01")})
	assert.ErrorIs(t, err, apperr.ErrDuplicateDate)
}

func TestToggleFavorite(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, "a good day", "2024-05-01")
	require.NoError(t, err)
	assert.False(t, created.IsFavorite)

	on, err := svc.ToggleFavorite(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.True(t, on.IsFavorite)

	off, err := svc.ToggleFavorite(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.False(t, off.IsFavorite)

	_, err = svc.ToggleFavorite(ctx, "intruder", created.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSearch(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	walk, err := svc.Create(ctx, owner, "Had a CALM walk by the river", "2024-05-01")
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, "Deadlines all day, 100% stressed", "2024-05-02")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "other-user", "calm as well", "2024-05-01")
	require.NoError(t, err)
	_, err = svc.UpdateEntry(ctx, walk.ID, models.EntryPatch{Title: strPtr("River Stroll"), Mood: strPtr("serene")})
	require.NoError(t, err)

	q := pagination.Query{Limit: 10}
	tests := []struct {
		query string
		want  int
	}{
		{"calm", 1},
		{"RIVER STROLL", 1},
		{"serene", 1},
		{"100%", 1},
		{"%", 1},
		{"_", 0},
		{"nothing like this", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := svc.Search(ctx, owner, tt.query, q)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestForEach(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		_, err := svc.Create(ctx, owner, "x", fmt.Sprintf("2024-01-%02d", i))
		require.NoError(t, err)
	}

	var dates []string
	err := svc.ForEach(ctx, 2, func(e models.DiaryEntryModel) error {
		dates = append(dates, e.Date)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, dates, 5)
}
