package extract

import (
	"context"
	"strings"

	"gezy-backend/internal/shared/storage/object"
)

// TextKey is where the recovered text of an upload is kept.
func TextKey(fileKey string) string {
	return fileKey + ".extracted.txt"
}

// SaveText persists the recovered text next to the original upload.
func SaveText(ctx context.Context, store object.ObjectStore, fileKey, text string) (string, error) {
	key := TextKey(fileKey)
	if _, err := store.SaveWithKey(ctx, key, "text/plain; charset=utf-8", strings.NewReader(text)); err != nil {
		return "", err
	}
	return key, nil
}
