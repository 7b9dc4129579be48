package util

import (
	"errors"
	"strings"
	"unicode"
)

const maxFileNameRunes = 120

var ErrInvalidFileName = errors.New("invalid file name")

var umlauts = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue",
	"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
	"ß", "ss",
)

// SanitizeFileName turns an uploaded file name into a storage-safe one.
// Umlauts are transliterated, separators and whitespace become underscores,
// control characters are dropped and traversal attempts are rejected.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := umlauts.Replace(strings.TrimSpace(name))

	var b strings.Builder
	n := 0
	for _, r := range s {
		if n >= maxFileNameRunes {
			break
		}
		switch {
		case r == '/' || r == '\\' || unicode.IsSpace(r):
			b.WriteByte('_')
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
		}
		n++
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "", ErrInvalidFileName
	}
	return out, nil
}
