package letters

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"gezy-backend/internal/shared/storage/object"
	"gezy-backend/internal/shared/telemetry"
	"gezy-backend/internal/shared/util"
)

const maxLetterBytes = 2 << 20

// Archive persists letters: the text and HTML bodies in the object store, the
// metadata in the repo.
type Archive struct {
	Repo    Repo
	Objects object.ObjectStore
}

func letterKey(userID, letterID, ext string) string {
	return path.Join("letters", util.HashUserKey(userID), letterID+ext)
}

// Save writes both bodies concurrently, then the record. A record is only
// created once its bodies are readable.
func (a *Archive) Save(ctx context.Context, doc Document) (Record, error) {
	rec := recordFrom(doc)
	rec.TextKey = letterKey(rec.UserID, rec.ID, ".txt")
	rec.HTMLKey = letterKey(rec.UserID, rec.ID, ".html")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := a.Objects.SaveWithKey(gctx, rec.TextKey, "text/plain; charset=utf-8", strings.NewReader(doc.Content))
		return err
	})
	g.Go(func() error {
		_, err := a.Objects.SaveWithKey(gctx, rec.HTMLKey, "text/html; charset=utf-8", strings.NewReader(doc.ContentHTML))
		return err
	})
	if err := g.Wait(); err != nil {
		a.discard(ctx, rec)
		return Record{}, fmt.Errorf("store letter bodies: %w", err)
	}
	if err := a.Repo.Create(ctx, rec); err != nil {
		a.discard(ctx, rec)
		return Record{}, err
	}
	return rec, nil
}

// discard removes bodies that no record points at.
func (a *Archive) discard(ctx context.Context, rec Record) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range []string{rec.TextKey, rec.HTMLKey} {
		if err := a.Objects.Delete(ctx, key); err != nil {
			telemetry.Warn("letters.archive.discard_failed", map[string]any{
				"letter_id": rec.ID,
				"key":       key,
				"error":     err,
			})
		}
	}
}

// Load returns the full letter for its owner.
func (a *Archive) Load(ctx context.Context, userID, letterID string) (Document, error) {
	rec, err := a.Repo.GetByID(ctx, userID, letterID)
	if err != nil {
		return Document{}, err
	}
	return a.Hydrate(ctx, rec)
}

// Hydrate reads a record's bodies back from the object store.
func (a *Archive) Hydrate(ctx context.Context, rec Record) (Document, error) {
	var text, htmlBody []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		text, err = object.ReadAll(gctx, a.Objects, rec.TextKey, maxLetterBytes)
		return err
	})
	g.Go(func() (err error) {
		htmlBody, err = object.ReadAll(gctx, a.Objects, rec.HTMLKey, maxLetterBytes)
		return err
	})
	if err := g.Wait(); err != nil {
		return Document{}, fmt.Errorf("load letter %s: %w", rec.ID, err)
	}
	return rec.document(string(text), string(htmlBody)), nil
}

// IsNotFound reports whether err means the letter does not exist for the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden)
}
