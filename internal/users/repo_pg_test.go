package users

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var userRowColumns = []string{"id", "email", "full_name", "address", "tier", "created_at", "updated_at"}

func TestPGRepoUpsertReturnsStoredRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	created := time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users AS u")).
		WithArgs("u1", "max@example.de", "", "free").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u1", "max@example.de", "Max Mustermann", "Musterstraße 1\n12345 Berlin", "plus", created, created))

	repo := &PGRepo{DB: db}
	u, err := repo.Upsert(context.Background(), User{ID: "u1", Email: "max@example.de"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if u.FullName != "Max Mustermann" || u.Tier != TierPlus || u.Address == "" {
		t.Fatalf("unexpected user %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoSaveProfileMissingUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
		WithArgs("ghost", "", "", "free").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	repo := &PGRepo{DB: db}
	if _, err := repo.SaveProfile(context.Background(), User{ID: "ghost", Tier: TierFree}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
