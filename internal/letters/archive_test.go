package letters

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gezy-backend/internal/shared/storage/object"
	"gezy-backend/internal/shared/storage/object/local"
)

type failingRepo struct{ *MemoryRepo }

func (failingRepo) Create(context.Context, Record) error { return errors.New("db down") }

func TestArchiveDiscardsBodiesWhenRecordFails(t *testing.T) {
	store := local.New(t.TempDir())
	a := &Archive{Repo: failingRepo{NewMemoryRepo()}, Objects: store}
	g := newTestGenerator(t, nil)

	doc, err := g.Generate(context.Background(), Request{UserID: "u1", CaseID: "c1", Context: sampleContext()})
	require.NoError(t, err)

	_, err = a.Save(context.Background(), doc)
	require.Error(t, err)

	_, err = store.Open(context.Background(), letterKey("u1", doc.ID, ".txt"))
	assert.ErrorIs(t, err, object.ErrNotFound)
	_, err = store.Open(context.Background(), letterKey("u1", doc.ID, ".html"))
	assert.ErrorIs(t, err, object.ErrNotFound)
}

func TestArchiveRoundTrip(t *testing.T) {
	repo := NewMemoryRepo()
	a := &Archive{Repo: repo, Objects: local.New(t.TempDir())}
	g := newTestGenerator(t, nil)

	doc, err := g.Generate(context.Background(), Request{UserID: "u1", CaseID: "c1", Context: sampleContext()})
	require.NoError(t, err)

	rec, err := a.Save(context.Background(), doc)
	require.NoError(t, err)
	assert.Contains(t, rec.TextKey, doc.ID+".txt")
	assert.NotContains(t, rec.TextKey, "u1")

	got, err := a.Load(context.Background(), "u1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Content, got.Content)
	assert.Equal(t, doc.ContentHTML, got.ContentHTML)
	assert.Equal(t, doc.Feedback, got.Feedback)
	assert.Equal(t, doc.Metadata.DocumentType, got.Metadata.DocumentType)

	_, err = a.Load(context.Background(), "u2", doc.ID)
	assert.True(t, IsNotFound(err))
	_, err = a.Load(context.Background(), "u1", "missing")
	assert.True(t, IsNotFound(err))
}

func TestMemoryRepoListsNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, Record{ID: "a", CaseID: "c1", UserID: "u1", CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, Record{ID: "b", CaseID: "c1", UserID: "u1", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, Record{ID: "x", CaseID: "c1", UserID: "u2", CreatedAt: base}))

	list, err := repo.ListByCase(ctx, "u1", "c1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
}

func TestPGRepoGetByIDChecksOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := &PGRepo{DB: db}

	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "case_id", "user_id", "document_type", "title", "ai_provider", "model",
		"prompt_tokens", "completion_tokens", "estimated_cost", "quality", "text_key", "html_key", "revision_of", "created_at",
	}).AddRow("l1", "c1", "owner", "widerspruch", "Widerspruch", "template", nil,
		0, 0, 0.0, []byte(`{"qualityScore":0.9,"suggestions":[],"warnings":["Betrag wird nicht erwähnt"]}`),
		"letters/x/l1.txt", "letters/x/l1.html", nil, created)
	mock.ExpectQuery(regexp.QuoteMeta("FROM generated_letters")).WithArgs("l1").WillReturnRows(rows)

	_, err = repo.GetByID(context.Background(), "other", "l1")
	assert.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoGetByIDDecodesQuality(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := &PGRepo{DB: db}

	rows := sqlmock.NewRows([]string{
		"id", "case_id", "user_id", "document_type", "title", "ai_provider", "model",
		"prompt_tokens", "completion_tokens", "estimated_cost", "quality", "text_key", "html_key", "revision_of", "created_at",
	}).AddRow("l2", "c1", "owner", "widerspruch", "Widerspruch", "openai", "gpt-4o-mini",
		120, 80, 0.0001, []byte(`{"qualityScore":0.9,"suggestions":[],"warnings":["Betrag wird nicht erwähnt"]}`),
		"t", "h", "l1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM generated_letters")).WithArgs("l2").WillReturnRows(rows)

	rec, err := repo.GetByID(context.Background(), "owner", "l2")
	require.NoError(t, err)
	assert.Equal(t, 0.9, rec.Quality.QualityScore)
	assert.Equal(t, []string{WarnMissingAmount}, rec.Quality.Warnings)
	assert.Equal(t, "gpt-4o-mini", rec.Model)
	assert.Equal(t, "l1", rec.RevisionOf)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoGetByIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(regexp.QuoteMeta("FROM generated_letters")).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = (&PGRepo{DB: db}).GetByID(context.Background(), "u", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
