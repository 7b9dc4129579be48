package extract

import (
	"context"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	req  *documentaipb.ProcessRequest
	resp *documentaipb.ProcessResponse
}

func (f *fakeProcessor) ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error) {
	f.req = req
	return f.resp, nil
}

func (f *fakeProcessor) Close() error { return nil }

func TestDocumentAITextAveragesPageConfidence(t *testing.T) {
	fp := &fakeProcessor{resp: &documentaipb.ProcessResponse{Document: &documentaipb.Document{
		Text: "Mahnung 18,36 EUR",
		Pages: []*documentaipb.Document_Page{
			{Layout: &documentaipb.Document_Page_Layout{Confidence: 0.9}},
			{Layout: &documentaipb.Document_Page_Layout{Confidence: 0.7}},
		},
	}}}
	d := &DocumentAI{client: fp, processor: "projects/p/locations/eu/processors/x"}

	txt, err := d.Text(context.Background(), []byte{1, 2, 3}, "image/png")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, txt.Quality, 1e-6)
	assert.Equal(t, "projects/p/locations/eu/processors/x", fp.req.GetName())
	assert.Equal(t, "image/png", fp.req.GetRawDocument().GetMimeType())
}

func TestDocumentAIEmptyTextIsUnreadable(t *testing.T) {
	fp := &fakeProcessor{resp: &documentaipb.ProcessResponse{Document: &documentaipb.Document{}}}
	d := &DocumentAI{client: fp, processor: "p"}

	_, err := d.Text(context.Background(), []byte{1}, "application/pdf")
	assert.ErrorIs(t, err, ErrUnreadable)
	assert.False(t, d.Supports("text/plain"))
}
