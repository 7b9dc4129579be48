package documents

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"gezy-backend/internal/extract"
	"gezy-backend/internal/shared/storage/object"
	"gezy-backend/internal/shared/storage/object/local"
)

type fakeExtractor struct {
	data extract.Data
	err  error
	mime string
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte, mimeType string) (extract.Data, error) {
	f.mime = mimeType
	return f.data, f.err
}

func newService(t *testing.T, ex extract.Provider) (*Service, *MemoryRepo, object.ObjectStore) {
	t.Helper()
	repo := NewMemoryRepo()
	store := local.New(t.TempDir())
	return &Service{Store: store, Repo: repo, Extractor: ex, Provider: "textlayer"}, repo, store
}

func TestAnalyzeStoresExtraction(t *testing.T) {
	amount := 315.0
	ex := &fakeExtractor{data: extract.Data{DocumentType: "Beitragsbescheid", Amount: &amount, FullText: "Festsetzungsbescheid"}}
	svc, repo, store := newService(t, ex)

	doc, err := svc.Analyze(context.Background(), Upload{
		UserID: "u1", CaseID: "c1", FileName: "bescheid.txt", MimeType: "text/plain; charset=utf-8", Data: []byte("Festsetzungsbescheid"),
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if ex.mime != "text/plain" {
		t.Fatalf("mime not normalized: %q", ex.mime)
	}
	if doc.Extracted == nil || doc.Extracted.DocumentType != "Beitragsbescheid" || doc.OCRProvider != "textlayer" {
		t.Fatalf("unexpected document %+v", doc)
	}

	text, err := object.ReadAll(context.Background(), store, doc.ExtractedTextKey, 1<<20)
	if err != nil || string(text) != "Festsetzungsbescheid" {
		t.Fatalf("extracted text not stored: %q %v", text, err)
	}

	data, ok, err := svc.LatestExtraction(context.Background(), "c1")
	if err != nil || !ok || data.AmountValue() != 315 {
		t.Fatalf("latest extraction: %+v %v %v", data, ok, err)
	}
	if _, err := repo.GetByID(context.Background(), "u2", doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}
}

func TestAnalyzeKeepsDocumentWhenExtractionFails(t *testing.T) {
	svc, repo, _ := newService(t, &fakeExtractor{err: extract.ErrUnreadable})

	doc, err := svc.Analyze(context.Background(), Upload{UserID: "u1", CaseID: "c1", FileName: "scan.pdf", MimeType: "application/pdf", Data: []byte("%PDF-1.4")})
	if !errors.Is(err, extract.ErrUnreadable) {
		t.Fatalf("expected unreadable, got %v", err)
	}
	if doc.ID == "" {
		t.Fatal("document should be stored")
	}
	stored, _ := repo.GetByID(context.Background(), "u1", doc.ID)
	if stored.Extracted != nil {
		t.Fatal("failed extraction must not be recorded")
	}
	if _, ok, _ := svc.LatestExtraction(context.Background(), "c1"); ok {
		t.Fatal("no extraction expected")
	}
}

func TestAnalyzeValidation(t *testing.T) {
	svc, _, _ := newService(t, &fakeExtractor{})
	big := make([]byte, MaxUploadSize+1)
	cases := []struct {
		up   Upload
		want error
	}{
		{Upload{UserID: "u1", CaseID: "c1", FileName: "a.txt"}, ErrInvalidInput},
		{Upload{UserID: "u1", CaseID: "c1", FileName: "a.txt", Data: big}, ErrTooLarge},
		{Upload{UserID: "u1", FileName: "a.txt", Data: []byte("x")}, ErrInvalidInput},
		{Upload{UserID: "u1", CaseID: "c1", Data: []byte("x")}, ErrInvalidInput},
	}
	for _, tc := range cases {
		if _, err := svc.Analyze(context.Background(), tc.up); !errors.Is(err, tc.want) {
			t.Fatalf("expected %v, got %v", tc.want, err)
		}
	}
}

func TestSetExtractionIsWriteOnce(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	_ = repo.Create(ctx, Document{ID: "d1", CaseID: "c1", UserID: "u1", CreatedAt: time.Now()})
	_ = repo.SetExtraction(ctx, "d1", Extraction{TextKey: "k1", Provider: "textlayer", Data: extract.Data{Issuer: "first"}, At: time.Now()})
	_ = repo.SetExtraction(ctx, "d1", Extraction{TextKey: "k2", Provider: "documentai", Data: extract.Data{Issuer: "second"}, At: time.Now()})

	doc, _ := repo.GetByID(ctx, "u1", "d1")
	if doc.Extracted.Issuer != "first" || doc.ExtractedTextKey != "k1" {
		t.Fatalf("extraction overwritten: %+v", doc)
	}
}

func TestAnalyzeReusesDuplicateUpload(t *testing.T) {
	ex := &fakeExtractor{data: extract.Data{DocumentType: "Festsetzungsbescheid", Issuer: "Beitragsservice"}}
	svc, repo, _ := newService(t, ex)
	ctx := context.Background()
	up := Upload{UserID: "u1", CaseID: "c1", FileName: "bescheid.txt", MimeType: "text/plain", Data: []byte("Festsetzungsbescheid 55,08 EUR")}

	first, err := svc.Analyze(ctx, up)
	if err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	if len(first.ContentSHA256) != 64 {
		t.Fatalf("expected content hash, got %q", first.ContentSHA256)
	}
	second, err := svc.Analyze(ctx, up)
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected duplicate to return %s, got %s", first.ID, second.ID)
	}
	docs, _ := repo.ListByCase(ctx, "c1")
	if len(docs) != 1 {
		t.Fatalf("expected one stored document, got %d", len(docs))
	}

	up.CaseID = "c2"
	other, err := svc.Analyze(ctx, up)
	if err != nil {
		t.Fatalf("other case: %v", err)
	}
	if other.ID == first.ID {
		t.Fatalf("same bytes in another case must create a new document")
	}
}

func TestPGRepoLatestExtractedDecodesData(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "case_id", "user_id", "file_name", "mime_type", "size_bytes", "content_sha256", "storage_key", "created_at",
		"extracted_text_key", "extracted_data", "ocr_provider", "extracted_at"}
	mock.ExpectQuery(regexp.QuoteMeta("extracted_data IS NOT NULL")).WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("d1", "c1", "u1", "b.pdf", "application/pdf", 42, "abc", "k", now,
			"k.extracted.txt", []byte(`{"documentType":"Mahnung","issuer":"Stadtkasse","amount":52.5}`), "textlayer", now))

	doc, err := (&PGRepo{DB: db}).LatestExtracted(context.Background(), "c1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if doc.Extracted == nil || doc.Extracted.Issuer != "Stadtkasse" || doc.Extracted.AmountValue() != 52.5 {
		t.Fatalf("unexpected extraction %+v", doc.Extracted)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND user_id = $2")).WithArgs("d9", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := (&PGRepo{DB: db}).GetByID(context.Background(), "u1", "d9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
