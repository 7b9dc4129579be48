package letters

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"gezy-backend/internal/llm"
	"gezy-backend/internal/shared/metrics"
	"gezy-backend/internal/shared/telemetry"
	"gezy-backend/internal/shared/tracing"
)

// Resolver hands out a provider client per request; nil, nil means no provider.
type Resolver interface {
	Resolve(provider, userKey string) (llm.Client, error)
}

// Generator produces letters through a provider and falls back to the
// deterministic template fill whenever the provider is absent or fails.
type Generator struct {
	Templates *Templates
	LLM       Resolver
	Now       func() time.Time
}

func NewGenerator(templates *Templates, resolver Resolver) *Generator {
	return &Generator{Templates: templates, LLM: resolver, Now: time.Now}
}

// Request carries everything one letter needs.
type Request struct {
	UserID       string
	CaseID       string
	DocumentType string
	Context      Context
	APIKey       *APIKey
}

// Generate renders a new letter.
func (g *Generator) Generate(ctx context.Context, req Request) (Document, error) {
	t, err := g.Templates.Get(req.DocumentType)
	if err != nil {
		return Document{}, err
	}
	start := time.Now()

	comp, usedProvider := g.complete(ctx, req.APIKey, BuildPrompt(t, req.Context), req.CaseID)
	text := comp.Text
	if !usedProvider {
		text = Fill(t, req.Context)
	}

	doc := g.assemble(t, req.Context, text, comp, usedProvider)
	doc.Metadata.UserID = req.UserID
	doc.Metadata.CaseID = req.CaseID
	doc.Metadata.DocumentType = t.Type

	metrics.IncLettersGenerated(doc.Metadata.AIProvider)
	metrics.ObserveLetterDurationMs(metrics.SinceMillis(start))
	telemetry.Info("letters.generated", map[string]any{
		"letter_id":         doc.ID,
		"case_id":           req.CaseID,
		"user_id":           req.UserID,
		"document_type":     t.Type,
		"ai_provider":       doc.Metadata.AIProvider,
		"quality_score":     doc.Feedback.QualityScore,
		"prompt_tokens":     doc.Metadata.PromptTokens,
		"completion_tokens": doc.Metadata.CompletionTokens,
	})
	return doc, nil
}

// Revise reworks a prior letter. Without a working provider the requested
// changes are appended as a marked section so nothing the user asked for is lost.
func (g *Generator) Revise(ctx context.Context, prior Document, feedback string, c Context, key *APIKey) (Document, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return Document{}, ErrEmptyFeedback
	}
	t, err := g.Templates.Get(prior.Metadata.DocumentType)
	if err != nil {
		return Document{}, err
	}

	comp, usedProvider := g.complete(ctx, key, BuildRevisionPrompt(prior, feedback), prior.Metadata.CaseID)
	text := comp.Text
	if !usedProvider {
		text = appendRevisionNotes(prior.Content, feedback)
	}

	doc := g.assemble(t, c, text, comp, usedProvider)
	doc.Metadata.UserID = prior.Metadata.UserID
	doc.Metadata.CaseID = prior.Metadata.CaseID
	doc.Metadata.DocumentType = t.Type
	doc.Metadata.RevisionOf = prior.ID

	metrics.IncLettersGenerated(doc.Metadata.AIProvider)
	telemetry.Info("letters.revised", map[string]any{
		"letter_id":   doc.ID,
		"revision_of": prior.ID,
		"case_id":     prior.Metadata.CaseID,
		"ai_provider": doc.Metadata.AIProvider,
	})
	return doc, nil
}

const revisionNotesTitle = "Anmerkungen zur Überarbeitung"

func appendRevisionNotes(content, feedback string) string {
	return strings.TrimRight(content, "\n") + "\n\n" + revisionNotesTitle + "\n" +
		strings.Repeat("=", len([]rune(revisionNotesTitle))) + "\n" + feedback + "\n"
}

// complete asks the resolved provider for text. It reports false whenever the
// caller has to fall back to the template.
func (g *Generator) complete(ctx context.Context, key *APIKey, prompt, caseID string) (llm.Completion, bool) {
	if g.LLM == nil {
		return llm.Completion{}, false
	}
	provider, userKey := "", ""
	if key != nil {
		provider, userKey = key.Provider, key.Key
	}
	client, err := g.LLM.Resolve(provider, userKey)
	if err != nil {
		level := telemetry.Warn
		if errors.Is(err, llm.ErrNotConfigured) {
			level = telemetry.Debug
		}
		level("letters.provider_unavailable", map[string]any{"case_id": caseID, "provider": provider, "error": err})
		return llm.Completion{}, false
	}
	if client == nil {
		return llm.Completion{}, false
	}

	ctx, span := tracing.Start(ctx, "llm.complete",
		attribute.String("llm.provider", client.Provider()),
		attribute.String("llm.model", client.Model()),
		attribute.Int("llm.prompt_chars", len(prompt)),
	)
	comp, err := client.Complete(ctx, prompt)
	if err == nil {
		span.SetAttributes(
			attribute.Int("llm.prompt_tokens", comp.PromptTokens),
			attribute.Int("llm.completion_tokens", comp.CompletionTokens),
		)
	}
	tracing.End(span, err)
	if err != nil {
		metrics.IncProviderFallback(client.Provider())
		telemetry.Warn("letters.provider_failed", map[string]any{
			"case_id":  caseID,
			"provider": client.Provider(),
			"model":    client.Model(),
			"error":    err,
		})
		return llm.Completion{}, false
	}
	if comp.Provider == "" {
		comp.Provider = client.Provider()
	}
	return comp, true
}

func (g *Generator) assemble(t Template, c Context, text string, comp llm.Completion, usedProvider bool) Document {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	md := Metadata{GeneratedAt: now().UTC(), AIProvider: llm.ProviderTemplate}
	if usedProvider {
		md.AIProvider = comp.Provider
		md.Model = comp.Model
		md.PromptTokens = comp.PromptTokens
		md.CompletionTokens = comp.CompletionTokens
		md.EstimatedCost = EstimateCost(comp.Provider, comp.PromptTokens, comp.CompletionTokens)
	}
	return Document{
		ID:          uuid.NewString(),
		Title:       Title(t, c),
		Content:     text,
		ContentHTML: HTML(text),
		Metadata:    md,
		Feedback:    QualityCheck(text, c),
	}
}

// pricePerMTok is USD per million tokens (input, output) for the default models.
var pricePerMTok = map[string][2]float64{
	llm.ProviderOpenAI:    {0.15, 0.60},
	llm.ProviderGemini:    {0.075, 0.30},
	llm.ProviderAnthropic: {3.00, 15.00},
}

// EstimateCost prices a completion in USD, rounded to a hundredth of a cent.
func EstimateCost(provider string, promptTokens, completionTokens int) float64 {
	p, ok := pricePerMTok[provider]
	if !ok {
		return 0
	}
	cost := (float64(promptTokens)*p[0] + float64(completionTokens)*p[1]) / 1e6
	return math.Round(cost*10000) / 10000
}
