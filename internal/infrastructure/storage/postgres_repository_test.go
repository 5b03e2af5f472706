package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockMind/internal/domain"
	"StockMind/internal/infrastructure/storage"
	"StockMind/internal/testutil"
)

func newTestRepo(t *testing.T) *storage.PostgresRepository {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")
	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return storage.NewPostgresRepository(tx)
}

func TestPostgresRepository_BulkLoadOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	alice, err := repo.FindOrCreateUser(ctx, "alice@x.com", "alice")
	require.NoError(t, err)
	bob, err := repo.FindOrCreateUser(ctx, "bob@x.com", "bob")
	require.NoError(t, err)
	_, err = repo.FindOrCreateUser(ctx, "carol@x.com", "carol")
	require.NoError(t, err)

	tsmc, err := repo.CreateTag(ctx, domain.Tag{UserID: alice.ID, Name: "TSMC", Type: domain.TagTypeCompany})
	require.NoError(t, err)
	chips, err := repo.CreateTag(ctx, domain.Tag{UserID: alice.ID, Name: "Semis", Type: domain.TagTypeIndustry})
	require.NoError(t, err)
	_, err = repo.CreateTag(ctx, domain.Tag{UserID: bob.ID, Name: "AAPL", Type: domain.TagTypeCompany})
	require.NoError(t, err)

	for _, c := range []string{"2nm yield", "US fab"} {
		_, err := repo.CreateCatalyst(ctx, tsmc.ID, c)
		require.NoError(t, err)
	}

	users, err := repo.ListUsersWithTagsAndCatalysts(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)

	assert.Equal(t, "alice@x.com", users[0].Email)
	require.Len(t, users[0].Tags, 2)
	assert.Equal(t, tsmc.ID, users[0].Tags[0].ID)
	assert.Equal(t, []string{"2nm yield", "US fab"}, users[0].Tags[0].Catalysts)
	assert.Equal(t, chips.ID, users[0].Tags[1].ID)
	assert.Equal(t, []string{}, users[0].Tags[1].Catalysts)

	assert.Equal(t, "bob@x.com", users[1].Email)
	require.Len(t, users[1].Tags, 1)

	assert.Equal(t, "carol@x.com", users[2].Email)
	assert.Empty(t, users[2].Tags)
}

func TestPostgresRepository_FindOrCreateUserIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.FindOrCreateUser(ctx, "u@x.com", "u")
	require.NoError(t, err)
	second, err := repo.FindOrCreateUser(ctx, "u@x.com", "other")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "u", second.Name)

	got, err := repo.GetUser(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "u@x.com", got.Email)
}

func TestPostgresRepository_AssessmentsNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.FindOrCreateUser(ctx, "u@x.com", "u")
	require.NoError(t, err)
	tag, err := repo.CreateTag(ctx, domain.Tag{UserID: user.ID, Name: "NVDA", Type: domain.TagTypeCompany})
	require.NoError(t, err)

	for _, s := range []string{"first", "second", "third"} {
		a, err := repo.CreateAssessment(ctx, tag.ID, domain.AssessmentResult{
			Points:    []string{s + " a", s + " b", s + " c"},
			Sentiment: domain.SentimentPositive,
			Summary:   s,
		})
		require.NoError(t, err)
		assert.Equal(t, tag.ID, a.TagID)
		assert.Equal(t, []string{s + " a", s + " b", s + " c"}, a.Points)
	}

	list, err := repo.ListAssessments(ctx, tag.ID, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "third", list[0].Summary)
	assert.Equal(t, "second", list[1].Summary)
	assert.Equal(t, domain.SentimentPositive, list[0].Sentiment)
}

func TestPostgresRepository_ReportsAndAnalyses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.FindOrCreateUser(ctx, "u@x.com", "u")
	require.NoError(t, err)
	tag, err := repo.CreateTag(ctx, domain.Tag{UserID: user.ID, Name: "NVDA", Type: domain.TagTypeCompany})
	require.NoError(t, err)

	rep, err := repo.CreateReport(ctx, tag.ID, "## Daily Summary")
	require.NoError(t, err)
	reports, err := repo.ListReports(ctx, tag.ID, 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, rep.ID, reports[0].ID)

	_, err = repo.CreateOverallAnalysis(ctx, tag.ID, "## Overview")
	require.NoError(t, err)
	analyses, err := repo.ListOverallAnalyses(ctx, tag.ID, 10)
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, "## Overview", analyses[0].Content)
}

func TestPostgresRepository_DeleteCascadesAndNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.FindOrCreateUser(ctx, "u@x.com", "u")
	require.NoError(t, err)
	tag, err := repo.CreateTag(ctx, domain.Tag{UserID: user.ID, Name: "NVDA", Type: domain.TagTypeCompany})
	require.NoError(t, err)
	c, err := repo.CreateCatalyst(ctx, tag.ID, "Blackwell")
	require.NoError(t, err)

	require.NoError(t, repo.DeleteTag(ctx, tag.ID))

	_, err = repo.GetCatalyst(ctx, c.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = repo.DeleteTag(ctx, tag.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = repo.GetTag(ctx, uuid.New())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
