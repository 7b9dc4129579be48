package letters

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gezy-backend/internal/llm"
)

type stubClient struct {
	provider string
	text     string
	err      error
	prompts  []string
}

func (s *stubClient) Complete(_ context.Context, prompt string) (llm.Completion, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return llm.Completion{}, s.err
	}
	return llm.Completion{Text: s.text, Model: "stub-1", PromptTokens: 1000, CompletionTokens: 500}, nil
}

func (s *stubClient) Provider() string { return s.provider }
func (s *stubClient) Model() string    { return "stub-1" }

type stubResolver struct {
	client   llm.Client
	err      error
	provider string
	key      string
}

func (r *stubResolver) Resolve(provider, userKey string) (llm.Client, error) {
	r.provider, r.key = provider, userKey
	return r.client, r.err
}

var fixedNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestGenerator(t *testing.T, r Resolver) *Generator {
	g := NewGenerator(mustTemplates(t), r)
	g.Now = func() time.Time { return fixedNow }
	return g
}

func TestGenerateFallsBackWhenProviderFails(t *testing.T) {
	client := &stubClient{provider: llm.ProviderGemini, err: errors.New("gemini: http status 503")}
	g := newTestGenerator(t, &stubResolver{client: client})

	doc, err := g.Generate(context.Background(), Request{UserID: "u1", CaseID: "c1", Context: sampleContext()})
	require.NoError(t, err)

	w, _ := mustTemplates(t).Get(TypeWiderspruch)
	assert.Equal(t, Fill(w, sampleContext()), doc.Content)
	assert.Equal(t, llm.ProviderTemplate, doc.Metadata.AIProvider)
	assert.Zero(t, doc.Metadata.PromptTokens)
	assert.Equal(t, TypeWiderspruch, doc.Metadata.DocumentType)
	assert.Equal(t, fixedNow, doc.Metadata.GeneratedAt)
	assert.Equal(t, "Widerspruch - Beitragsbescheid - 123 456 789", doc.Title)
	assert.Len(t, client.prompts, 1)
	assert.NotEmpty(t, doc.ID)
	assert.Contains(t, doc.ContentHTML, "<h3>Begründung</h3>")
}

func TestGenerateWithoutResolverUsesTemplate(t *testing.T) {
	g := newTestGenerator(t, nil)
	doc, err := g.Generate(context.Background(), Request{UserID: "u1", CaseID: "c1", DocumentType: "anfrage", Context: sampleContext()})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderTemplate, doc.Metadata.AIProvider)
	assert.Equal(t, TypeAnfrage, doc.Metadata.DocumentType)
}

func TestGenerateResolveErrorFallsBack(t *testing.T) {
	g := newTestGenerator(t, &stubResolver{err: llm.ErrNotConfigured})
	doc, err := g.Generate(context.Background(), Request{UserID: "u1", CaseID: "c1", Context: sampleContext()})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderTemplate, doc.Metadata.AIProvider)
}

func TestGenerateUsesProviderText(t *testing.T) {
	client := &stubClient{provider: llm.ProviderOpenAI, text: "Sehr geehrte Damen und Herren,\nWiderspruch."}
	r := &stubResolver{client: client}
	g := newTestGenerator(t, r)

	doc, err := g.Generate(context.Background(), Request{
		UserID:  "u1",
		CaseID:  "c1",
		Context: sampleContext(),
		APIKey:  &APIKey{Provider: "openai", Key: "sk-user"},
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", r.provider)
	assert.Equal(t, "sk-user", r.key)
	assert.Equal(t, client.text, doc.Content)
	assert.Equal(t, llm.ProviderOpenAI, doc.Metadata.AIProvider)
	assert.Equal(t, "stub-1", doc.Metadata.Model)
	assert.Equal(t, 1000, doc.Metadata.PromptTokens)
	assert.Equal(t, 500, doc.Metadata.CompletionTokens)
	assert.InDelta(t, 0.00045, doc.Metadata.EstimatedCost, 1e-4)
	assert.Less(t, doc.Feedback.QualityScore, 1.0)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Erstelle einen professionellen Widerspruch basierend auf folgenden Informationen:")
	assert.Contains(t, client.prompts[0], "- Auslandsaufenthalt: 01.2022 bis 06.2023")
	assert.Contains(t, client.prompts[0], "- Erfolgswahrscheinlichkeit: 72%")
}

func TestGenerateRejectsUnsupportedType(t *testing.T) {
	g := newTestGenerator(t, nil)
	_, err := g.Generate(context.Background(), Request{DocumentType: "klage", Context: sampleContext()})
	assert.ErrorIs(t, err, ErrUnsupportedDocumentType)
}

func TestReviseFallbackAppendsNotes(t *testing.T) {
	g := newTestGenerator(t, nil)
	prior, err := g.Generate(context.Background(), Request{UserID: "u1", CaseID: "c1", Context: sampleContext()})
	require.NoError(t, err)

	rev, err := g.Revise(context.Background(), prior, "  Bitte Frist erwähnen.  ", sampleContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, prior.ID, rev.Metadata.RevisionOf)
	assert.NotEqual(t, prior.ID, rev.ID)
	assert.Equal(t, "c1", rev.Metadata.CaseID)
	assert.True(t, strings.HasPrefix(rev.Content, strings.TrimRight(prior.Content, "\n")))
	assert.True(t, strings.HasSuffix(rev.Content, "\n\nAnmerkungen zur Überarbeitung\n=============================\nBitte Frist erwähnen.\n"))

	_, err = g.Revise(context.Background(), prior, " ", sampleContext(), nil)
	assert.ErrorIs(t, err, ErrEmptyFeedback)
}

func TestReviseSendsOriginalAndFeedback(t *testing.T) {
	client := &stubClient{provider: llm.ProviderAnthropic, text: "Überarbeitet"}
	g := newTestGenerator(t, &stubResolver{client: client})
	prior := Document{ID: "l1", Content: "Alter Text", Metadata: Metadata{CaseID: "c1", UserID: "u1", DocumentType: TypeWiderspruch}}

	rev, err := g.Revise(context.Background(), prior, "Kürzer", sampleContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Überarbeitet", rev.Content)
	assert.Equal(t, "l1", rev.Metadata.RevisionOf)
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Ursprüngliches Dokument:\nAlter Text")
	assert.Contains(t, client.prompts[0], "Benutzer-Feedback:\nKürzer")
}

func TestEstimateCost(t *testing.T) {
	assert.Zero(t, EstimateCost(llm.ProviderTemplate, 1000, 1000))
	assert.InDelta(t, 0.0105, EstimateCost(llm.ProviderAnthropic, 1000, 500), 1e-9)
}
