package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	mimePDF   = "application/pdf"
	mimeDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePlain = "text/plain"

	docxBody     = "word/document.xml"
	maxDocxBytes = 8 << 20
	maxPDFPages  = 50
)

// TextLayer reads embedded text from digital PDFs, DOCX files and plain text.
// Scanned images carry no text layer and are rejected. For PDFs the quality
// is the share of pages that carried any text.
type TextLayer struct{}

func (TextLayer) Name() string { return "textlayer" }

func (TextLayer) Supports(mimeType string) bool {
	return mimeType == mimePDF || mimeType == mimeDOCX || mimeType == mimePlain
}

func (TextLayer) Text(ctx context.Context, data []byte, mimeType string) (Text, error) {
	if err := ctx.Err(); err != nil {
		return Text{}, err
	}
	var (
		txt Text
		err error
	)
	switch mimeType {
	case mimePDF:
		txt, err = pdfText(ctx, data)
	case mimeDOCX:
		txt.Content, err = docxText(data)
		txt.Quality = 1
	case mimePlain:
		if !utf8.Valid(data) {
			err = errors.New("text is not valid UTF-8")
		}
		txt = Text{Content: string(data), Quality: 1}
	default:
		return Text{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Text{}, ctxErr
		}
		return Text{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return txt, nil
}

// pdfText walks the pages one by one so a single broken page does not
// lose the rest of the notice.
func pdfText(ctx context.Context, data []byte) (txt Text, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			txt, err = Text{}, fmt.Errorf("pdf parser: %v", rec)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Text{}, err
	}
	total := min(r.NumPage(), maxPDFPages)
	if total == 0 {
		return Text{}, errors.New("pdf has no pages")
	}

	var (
		b      strings.Builder
		filled int
	)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return Text{}, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(content) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(content)
		filled++
	}
	return Text{Content: b.String(), Quality: float64(filled) / float64(total)}, nil
}

func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	f := zipEntry(zr, docxBody)
	if f == nil {
		return "", errors.New("docx has no " + docxBody)
	}
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return docxParagraphs(io.LimitReader(rc, maxDocxBytes))
}

// docxParagraphs keeps the character data of the body and ends a line at
// every paragraph and explicit break.
func docxParagraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("docx xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && b.Len() > 0 {
				b.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func zipEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, `\`, "/") == name {
			return f
		}
	}
	return nil
}

// NormalizeMimeType strips parameters, sniffs generic types and maps zip
// containers that hold a Word body to the DOCX type.
func NormalizeMimeType(mimeType, fileName string, data []byte) string {
	clean := baseMediaType(mimeType)
	switch clean {
	case "", "application/octet-stream", "binary/octet-stream":
		clean = baseMediaType(http.DetectContentType(data))
	case "image/jpg":
		return "image/jpeg"
	}
	if clean != "application/zip" {
		return clean
	}
	if len(data) > 0 {
		if zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data))); err == nil && zipEntry(zr, docxBody) != nil {
			return mimeDOCX
		}
	}
	if strings.EqualFold(path.Ext(fileName), ".docx") {
		return mimeDOCX
	}
	return clean
}

func baseMediaType(v string) string {
	if mt, _, err := mime.ParseMediaType(v); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(strings.Split(v, ";")[0]))
}
