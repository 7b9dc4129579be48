package casework

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gezy-backend/internal/cases"
	"gezy-backend/internal/diligence"
	"gezy-backend/internal/documents"
	"gezy-backend/internal/extract"
	"gezy-backend/internal/feedback"
	"gezy-backend/internal/interview"
	"gezy-backend/internal/letters"
	"gezy-backend/internal/llm"
	"gezy-backend/internal/queue"
	"gezy-backend/internal/shared/storage/object/local"
	"gezy-backend/internal/users"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeExtractor struct {
	data extract.Data
	err  error
}

func (f *fakeExtractor) Extract(context.Context, []byte, string) (extract.Data, error) {
	return f.data, f.err
}

type fixture struct {
	svc      *Service
	queue    *queue.MemoryClient
	feedback *feedback.MemoryRepo
	ex       *fakeExtractor
}

func noticeData() extract.Data {
	amount := 315.0
	d := extract.ParseFields("")
	d.DocumentType = "Beitragsbescheid"
	d.Issuer = "ARD ZDF Deutschlandradio Beitragsservice"
	d.Amount = &amount
	d.Currency = "EUR"
	d.IssueDate = "2024-02-15"
	d.DueDate = "2024-03-20"
	d.CaseNumber = "123 456 789"
	d.FullText = "Festsetzungsbescheid"
	return d
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := func() time.Time { return fixedNow }
	store := local.New(t.TempDir())
	templates, err := letters.LoadTemplates()
	require.NoError(t, err)

	gen := letters.NewGenerator(templates, nil)
	gen.Now = now
	scorer := diligence.NewScorer()
	scorer.Now = now
	caseSvc := cases.NewService(cases.NewMemoryRepo())
	caseSvc.Now = now
	q := &queue.MemoryClient{}
	fbRepo := feedback.NewMemoryRepo()
	ex := &fakeExtractor{data: noticeData()}

	svc := &Service{
		Cases:     caseSvc,
		Documents: &documents.Service{Store: store, Repo: documents.NewMemoryRepo(), Extractor: ex, Provider: "textlayer", Now: now},
		Sessions:  interview.NewMemoryStore(),
		Users:     users.NewService(users.NewMemoryRepo()),
		Scorer:    scorer,
		Letters:   gen,
		Archive:   &letters.Archive{Repo: letters.NewMemoryRepo(), Objects: store},
		Feedback:  feedback.NewService(fbRepo, q),
		Now:       now,
	}
	return &fixture{svc: svc, queue: q, feedback: fbRepo, ex: ex}
}

var owner = Caller{UserID: "u1", Email: "max@example.de", Name: "Max Mustermann"}

func (f *fixture) caseWithNotice(t *testing.T) cases.Case {
	t.Helper()
	ctx := context.Background()
	c, err := f.svc.CreateCase(ctx, owner.UserID, cases.NewCase{CaseType: cases.TypeBeitragsbescheid})
	require.NoError(t, err)
	_, err = f.svc.AnalyzeDocument(ctx, documents.Upload{
		UserID: owner.UserID, CaseID: c.ID, FileName: "bescheid.txt", MimeType: "text/plain", Data: []byte("Festsetzungsbescheid"),
	})
	require.NoError(t, err)
	return c
}

func answers(abroad bool) []interview.Response {
	living := "Ja, durchgängig"
	if abroad {
		living = interview.AnswerAbroad
	}
	out := []interview.Response{
		{QuestionID: interview.QBasicConfirmation, Answer: true},
		{QuestionID: interview.QTimeline, Answer: "2024-02-20"},
		{QuestionID: interview.QLivingSituation, Answer: living},
	}
	if abroad {
		out = append(out, interview.Response{QuestionID: interview.QAbroadPeriod, Answer: "01.2022 bis 06.2023"})
	}
	return append(out,
		interview.Response{QuestionID: interview.QPreviousPayments, Answer: "Nein, noch nie"},
		interview.Response{QuestionID: interview.QEmotionalState, Answer: 4.0},
		interview.Response{QuestionID: interview.QConfidence, Answer: 8.0},
		interview.Response{QuestionID: interview.QSupportingEvid, Answer: "Auslandsbescheinigung"},
	)
}

func (f *fixture) completedInterview(t *testing.T, caseID string) interview.Session {
	t.Helper()
	ctx := context.Background()
	st, err := f.svc.StartInterview(ctx, owner.UserID, caseID)
	require.NoError(t, err)
	for _, r := range answers(true) {
		st, err = f.svc.SubmitResponse(ctx, owner.UserID, st.Session.ID, r, st.Session.Version)
		require.NoError(t, err, r.QuestionID)
	}
	require.Nil(t, st.Next)
	done, err := f.svc.CompleteInterview(ctx, owner.UserID, st.Session.ID)
	require.NoError(t, err)
	return done
}

func TestAnalyzeDocumentAppliesFactsToCase(t *testing.T) {
	f := newFixture(t)
	c := f.caseWithNotice(t)

	detail, err := f.svc.GetCase(context.Background(), owner.UserID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, cases.StatusInProgress, detail.Case.Status)
	require.NotNil(t, detail.Case.Amount)
	assert.Equal(t, 315.0, *detail.Case.Amount)
	assert.Equal(t, "2024-03-20", detail.Case.Deadline)
	assert.Equal(t, "2024-02-15", detail.Case.ReceivedDate)
	require.Len(t, detail.Documents, 1)
	assert.NotNil(t, detail.Documents[0].Extracted)
}

func TestAnalyzeDocumentKeepsUploadOnExtractionFailure(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.CreateCase(context.Background(), owner.UserID, cases.NewCase{})
	require.NoError(t, err)
	f.ex.err = extract.ErrUnreadable

	doc, err := f.svc.AnalyzeDocument(context.Background(), documents.Upload{
		UserID: owner.UserID, CaseID: c.ID, FileName: "scan.png", MimeType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'},
	})
	assert.ErrorIs(t, err, extract.ErrUnreadable)
	assert.NotEmpty(t, doc.ID)

	got, err := f.svc.Cases.Get(context.Background(), owner.UserID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, cases.StatusNew, got.Status)
}

func TestStartInterviewUsesExtractedAmount(t *testing.T) {
	f := newFixture(t)
	c := f.caseWithNotice(t)

	st, err := f.svc.StartInterview(context.Background(), owner.UserID, c.ID)
	require.NoError(t, err)
	require.NotNil(t, st.Next)
	assert.Equal(t, interview.QBasicConfirmation, st.Next.ID)
	assert.Contains(t, st.Next.Question, "315 EUR")
	assert.Equal(t, 1, st.Session.Version)
}

func TestStartInterviewWithoutNoticeUsesGenericWording(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.CreateCase(context.Background(), owner.UserID, cases.NewCase{})
	require.NoError(t, err)

	st, err := f.svc.StartInterview(context.Background(), owner.UserID, c.ID)
	require.NoError(t, err)
	require.NotNil(t, st.Next)
	assert.Contains(t, st.Next.Question, "keinen Betrag")
}

func TestAbroadAnswerRoutesToFollowUp(t *testing.T) {
	f := newFixture(t)
	c := f.caseWithNotice(t)
	ctx := context.Background()

	st, err := f.svc.StartInterview(ctx, owner.UserID, c.ID)
	require.NoError(t, err)
	for _, r := range answers(true)[:3] {
		st, err = f.svc.SubmitResponse(ctx, owner.UserID, st.Session.ID, r, st.Session.Version)
		require.NoError(t, err)
	}
	require.NotNil(t, st.Next)
	assert.Equal(t, interview.QAbroadPeriod, st.Next.ID)
}

func TestSubmitResponseRejectsStaleVersion(t *testing.T) {
	f := newFixture(t)
	c := f.caseWithNotice(t)
	ctx := context.Background()

	st, err := f.svc.StartInterview(ctx, owner.UserID, c.ID)
	require.NoError(t, err)
	first := interview.Response{QuestionID: interview.QBasicConfirmation, Answer: true}
	_, err = f.svc.SubmitResponse(ctx, owner.UserID, st.Session.ID, first, 1)
	require.NoError(t, err)

	_, err = f.svc.SubmitResponse(ctx, owner.UserID, st.Session.ID, interview.Response{QuestionID: interview.QTimeline, Answer: "2024-02-20"}, 1)
	assert.ErrorIs(t, err, interview.ErrVersionConflict)

	stored, err := f.svc.Sessions.Get(ctx, st.Session.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Responses, 1)
}

func TestSubmitResponseValidatesConfidence(t *testing.T) {
	f := newFixture(t)
	c := f.caseWithNotice(t)
	ctx := context.Background()

	st, err := f.svc.StartInterview(ctx, owner.UserID, c.ID)
	require.NoError(t, err)
	high := 11.0
	_, err = f.svc.SubmitResponse(ctx, owner.UserID, st.Session.ID, interview.Response{
		QuestionID: interview.QBasicConfirmation, Answer: true, Confidence: &high,
	}, 1)
	assert.ErrorIs(t, err, interview.ErrInvalidAnswer)

	ok := 7.0
	_, err = f.svc.SubmitResponse(ctx, owner.UserID, st.Session.ID, interview.Response{
		QuestionID: interview.QBasicConfirmation, Answer: true, Confidence: &ok,
	}, 1)
	assert.NoError(t, err)
}

func TestCompleteInterviewRequiresEveryAnswer(t *testing.T) {
	f := newFixture(t)
	c := f.caseWithNotice(t)
	ctx := context.Background()

	st, err := f.svc.StartInterview(ctx, owner.UserID, c.ID)
	require.NoError(t, err)
	_, err = f.svc.CompleteInterview(ctx, owner.UserID, st.Session.ID)
	assert.ErrorIs(t, err, ErrInterviewIncomplete)
}

func TestCompletedInterviewIsFrozen(t *testing.T) {
	f := newFixture(t)
	c := f.caseWithNotice(t)
	done := f.completedInterview(t, c.ID)
	assert.Equal(t, interview.StatusCompleted, done.Status)

	_, err := f.svc.SubmitResponse(context.Background(), owner.UserID, done.ID,
		interview.Response{QuestionID: interview.QBasicConfirmation, Answer: false}, done.Version)
	assert.ErrorIs(t, err, interview.ErrSessionCompleted)

	_, err = f.svc.CompleteInterview(context.Background(), owner.UserID, done.ID)
	assert.ErrorIs(t, err, interview.ErrSessionCompleted)
}

func TestRecommendationsNeedCompletedInterview(t *testing.T) {
	f := newFixture(t)
	c := f.caseWithNotice(t)

	_, err := f.svc.GetRecommendations(context.Background(), owner.UserID, c.ID)
	assert.ErrorIs(t, err, ErrInterviewIncomplete)

	f.completedInterview(t, c.ID)
	a, err := f.svc.GetRecommendations(context.Background(), owner.UserID, c.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, a.Report.Checks)
	assert.NotEmpty(t, a.Recommendations)
	require.NotNil(t, a.Report.DaysUntilDeadline)
	assert.Equal(t, 19, *a.Report.DaysUntilDeadline)
}

func TestForeignCaseIsNotFound(t *testing.T) {
	f := newFixture(t)
	c := f.caseWithNotice(t)
	ctx := context.Background()

	_, err := f.svc.GetCase(ctx, "intruder", c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.StartInterview(ctx, "intruder", c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.GetRecommendations(ctx, "intruder", c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.AnalyzeDocument(ctx, documents.Upload{UserID: "intruder", CaseID: c.ID, FileName: "x.txt", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	st, err := f.svc.StartInterview(ctx, owner.UserID, c.ID)
	require.NoError(t, err)
	_, err = f.svc.SubmitResponse(ctx, "intruder", st.Session.ID, interview.Response{QuestionID: interview.QBasicConfirmation, Answer: true}, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Case not found or access denied", ErrNotFound.Error())
}

func TestGenerateLetterFallsBackToTemplate(t *testing.T) {
	f := newFixture(t)
	c := f.caseWithNotice(t)
	f.completedInterview(t, c.ID)
	ctx := context.Background()

	_, err := f.svc.Users.Ensure(ctx, owner.UserID, owner.Email, owner.Name)
	require.NoError(t, err)
	_, err = f.svc.Users.UpdateProfile(ctx, owner.UserID, users.ProfileUpdate{Address: strPtr("Musterstraße 1, 12345 Berlin")})
	require.NoError(t, err)

	doc, err := f.svc.GenerateLetter(ctx, owner, c.ID, "Widerspruch", nil)
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderTemplate, doc.Metadata.AIProvider)
	assert.Equal(t, letters.TypeWiderspruch, doc.Metadata.DocumentType)
	assert.Contains(t, doc.Content, "Max Mustermann")
	assert.Contains(t, doc.Content, "Musterstraße 1, 12345 Berlin")
	assert.Contains(t, doc.Content, "123 456 789")
	assert.Contains(t, doc.Content, "01.2022 bis 06.2023")
	assert.Equal(t, fixedNow, doc.Metadata.GeneratedAt)

	stored, err := f.svc.GetLetter(ctx, owner.UserID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Content, stored.Content)
	assert.Equal(t, doc.ContentHTML, stored.ContentHTML)

	_, err = f.svc.GetLetter(ctx, "intruder", doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := f.svc.ListLetters(ctx, owner.UserID, c.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGenerateLetterRejectsKlage(t *testing.T) {
	f := newFixture(t)
	c := f.caseWithNotice(t)
	f.completedInterview(t, c.ID)

	_, err := f.svc.GenerateLetter(context.Background(), owner, c.ID, letters.TypeKlage, nil)
	assert.ErrorIs(t, err, letters.ErrUnsupportedDocumentType)
}

func TestGuestLetterSignsWithTokenIdentity(t *testing.T) {
	f := newFixture(t)
	guest := Caller{UserID: "guest:abc", Name: "Erika Gast", Guest: true}
	ctx := context.Background()
	c, err := f.svc.CreateCase(ctx, guest.UserID, cases.NewCase{})
	require.NoError(t, err)
	_, err = f.svc.AnalyzeDocument(ctx, documents.Upload{UserID: guest.UserID, CaseID: c.ID, FileName: "b.txt", Data: []byte("x")})
	require.NoError(t, err)

	st, err := f.svc.StartInterview(ctx, guest.UserID, c.ID)
	require.NoError(t, err)
	for _, r := range answers(false) {
		st, err = f.svc.SubmitResponse(ctx, guest.UserID, st.Session.ID, r, st.Session.Version)
		require.NoError(t, err)
	}
	_, err = f.svc.CompleteInterview(ctx, guest.UserID, st.Session.ID)
	require.NoError(t, err)

	doc, err := f.svc.GenerateLetter(ctx, guest, c.ID, letters.TypeAnfrage, nil)
	require.NoError(t, err)
	assert.Contains(t, doc.Content, "Erika Gast")

	_, err = f.svc.Users.GetByID(ctx, guest.UserID)
	assert.ErrorIs(t, err, users.ErrNotFound)
}

func TestReviseLetterArchivesNewRevision(t *testing.T) {
	f := newFixture(t)
	c := f.caseWithNotice(t)
	f.completedInterview(t, c.ID)
	ctx := context.Background()

	prior, err := f.svc.GenerateLetter(ctx, owner, c.ID, letters.TypeWiderspruch, nil)
	require.NoError(t, err)

	revised, err := f.svc.ReviseLetter(ctx, owner, prior.ID, "Bitte den Auslandsaufenthalt betonen.", nil)
	require.NoError(t, err)
	assert.NotEqual(t, prior.ID, revised.ID)
	assert.Equal(t, prior.ID, revised.Metadata.RevisionOf)
	assert.Contains(t, revised.Content, "Bitte den Auslandsaufenthalt betonen.")

	_, err = f.svc.ReviseLetter(ctx, owner, prior.ID, "   ", nil)
	assert.ErrorIs(t, err, letters.ErrEmptyFeedback)

	list, err := f.svc.ListLetters(ctx, owner.UserID, c.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestNegativeFeedbackIsReviewedOnce(t *testing.T) {
	f := newFixture(t)
	c := f.caseWithNotice(t)
	f.completedInterview(t, c.ID)
	ctx := context.Background()

	doc, err := f.svc.GenerateLetter(ctx, owner, c.ID, letters.TypeWiderspruch, nil)
	require.NoError(t, err)

	fb, err := f.svc.SubmitFeedback(ctx, feedback.Submission{
		LetterID: doc.ID, UserID: owner.UserID, Rating: 2, ImprovementSuggestions: "Zu lang",
	})
	require.NoError(t, err)
	assert.True(t, fb.FlaggedForReview)
	assert.Equal(t, feedback.ReviewQueued, fb.ReviewStatus)

	sent := f.queue.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, fb.ID, sent[0].FeedbackID)

	require.NoError(t, f.svc.ProcessReview(ctx, sent[0]))
	reviewed, err := f.feedback.Get(ctx, fb.ID)
	require.NoError(t, err)
	assert.Equal(t, feedback.ReviewReviewed, reviewed.ReviewStatus)
	require.NotEmpty(t, reviewed.ReviewNotes)
	assert.Equal(t, "Bewertung 2/5", reviewed.ReviewNotes[0])
	assert.Contains(t, reviewed.ReviewNotes, "Nutzerhinweis: Zu lang")
	notes := len(reviewed.ReviewNotes)

	require.NoError(t, f.svc.ProcessReview(ctx, sent[0]))
	again, err := f.feedback.Get(ctx, fb.ID)
	require.NoError(t, err)
	assert.Len(t, again.ReviewNotes, notes)
}

func TestFeedbackOnForeignLetterIsNotFound(t *testing.T) {
	f := newFixture(t)
	c := f.caseWithNotice(t)
	f.completedInterview(t, c.ID)
	ctx := context.Background()

	doc, err := f.svc.GenerateLetter(ctx, owner, c.ID, letters.TypeWiderspruch, nil)
	require.NoError(t, err)

	_, err = f.svc.SubmitFeedback(ctx, feedback.Submission{LetterID: doc.ID, UserID: "intruder", Rating: 5})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.queue.Sent())
}

func TestProcessReviewRequiresFeedbackID(t *testing.T) {
	f := newFixture(t)
	err := f.svc.ProcessReview(context.Background(), queue.Message{LetterID: "l1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func strPtr(s string) *string { return &s }
