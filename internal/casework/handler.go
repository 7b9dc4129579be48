package casework

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"gezy-backend/internal/cases"
	"gezy-backend/internal/documents"
	"gezy-backend/internal/extract"
	"gezy-backend/internal/feedback"
	"gezy-backend/internal/interview"
	"gezy-backend/internal/letters"
	"gezy-backend/internal/shared/server/middleware"
	"gezy-backend/internal/shared/server/respond"
)

// Handler wires the casework routes to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the casework routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/cases", h.createCase)
	rg.GET("/cases", h.listCases)
	rg.GET("/cases/:caseId", h.getCase)
	rg.POST("/cases/:caseId/documents", h.uploadDocument)
	rg.POST("/documents/analyze", h.analyzeDocument)

	rg.POST("/cases/:caseId/interview", h.startInterview)
	rg.GET("/interviews/:sessionId", h.getInterview)
	rg.POST("/interviews/:sessionId/responses", h.submitResponse)
	rg.POST("/interviews/:sessionId/complete", h.completeInterview)

	rg.GET("/cases/:caseId/recommendations", h.recommendations)

	rg.POST("/cases/:caseId/letters", h.generateLetter)
	rg.GET("/cases/:caseId/letters", h.listLetters)
	rg.GET("/letters/:letterId", h.getLetter)
	rg.POST("/letters/:letterId/revise", h.reviseLetter)
	rg.POST("/letters/:letterId/feedback", h.submitFeedback)
}

func (h *Handler) createCase(c *gin.Context) {
	var req createCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	created, err := h.Svc.CreateCase(c.Request.Context(), middleware.UserIDFromContext(c), cases.NewCase{
		CaseType:    req.CaseType,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err, "failed to create case")
		return
	}
	respond.Created(c, created)
}

func (h *Handler) listCases(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.Svc.ListCases(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		writeError(c, err, "failed to list cases")
		return
	}
	if list == nil {
		list = []cases.Case{}
	}
	respond.JSON(c, http.StatusOK, gin.H{"items": list, "limit": limit, "offset": offset})
}

func (h *Handler) getCase(c *gin.Context) {
	detail, err := h.Svc.GetCase(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("caseId"))
	if err != nil {
		writeError(c, err, "failed to fetch case")
		return
	}
	respond.JSON(c, http.StatusOK, toCaseDetail(detail))
}

func (h *Handler) uploadDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, documents.MaxUploadSize+(1<<20))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(c, documents.ErrTooLarge, "")
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > documents.MaxUploadSize {
		writeError(c, documents.ErrTooLarge, "")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, documents.MaxUploadSize+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	h.analyze(c, documents.Upload{
		UserID:   middleware.UserIDFromContext(c),
		CaseID:   c.Param("caseId"),
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Data:     data,
	})
}

// analyzeDocument accepts a base64 payload. With a caseId the notice is
// attached to that case; without one it is only extracted.
func (h *Handler) analyzeDocument(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	data, err := decodeBase64(req.FileBuffer)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fileBuffer must be base64", nil)
		return
	}
	name := strings.TrimSpace(req.FileName)
	if name == "" {
		name = "upload"
	}
	up := documents.Upload{
		UserID:   middleware.UserIDFromContext(c),
		CaseID:   strings.TrimSpace(req.CaseID),
		FileName: name,
		MimeType: req.MimeType,
		Data:     data,
	}
	if up.CaseID != "" {
		h.analyze(c, up)
		return
	}
	extracted, err := h.Svc.PreviewDocument(c.Request.Context(), up)
	if err != nil {
		writeError(c, err, "failed to analyze document")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"extractedData": extracted})
}

func (h *Handler) analyze(c *gin.Context, up documents.Upload) {
	doc, err := h.Svc.AnalyzeDocument(c.Request.Context(), up)
	if err != nil {
		if doc.ID != "" {
			c.Set("documentId", doc.ID)
		}
		writeError(c, err, "failed to analyze document")
		return
	}
	respond.Created(c, documents.ToResponse(doc))
}

func (h *Handler) startInterview(c *gin.Context) {
	st, err := h.Svc.StartInterview(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("caseId"))
	if err != nil {
		writeError(c, err, "failed to start interview")
		return
	}
	respond.Created(c, toInterviewResponse(st))
}

func (h *Handler) getInterview(c *gin.Context) {
	st, err := h.Svc.GetInterview(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("sessionId"))
	if err != nil {
		writeError(c, err, "failed to fetch interview")
		return
	}
	respond.JSON(c, http.StatusOK, toInterviewResponse(st))
}

func (h *Handler) submitResponse(c *gin.Context) {
	var req responseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.QuestionID) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "questionId is required", nil)
		return
	}
	if req.ExpectedVersion == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "expectedVersion is required", nil)
		return
	}
	st, err := h.Svc.SubmitResponse(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("sessionId"), interview.Response{
		QuestionID: req.QuestionID,
		Answer:     req.Answer,
		Confidence: req.Confidence,
	}, *req.ExpectedVersion)
	if err != nil {
		writeError(c, err, "failed to record response")
		return
	}
	respond.JSON(c, http.StatusOK, toInterviewResponse(st))
}

func (h *Handler) completeInterview(c *gin.Context) {
	sess, err := h.Svc.CompleteInterview(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("sessionId"))
	if err != nil {
		writeError(c, err, "failed to complete interview")
		return
	}
	respond.JSON(c, http.StatusOK, sess)
}

func (h *Handler) recommendations(c *gin.Context) {
	a, err := h.Svc.GetRecommendations(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("caseId"))
	if err != nil {
		writeError(c, err, "failed to assess case")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"diligenceReport": a.Report,
		"recommendations": a.Recommendations,
	})
}

func (h *Handler) generateLetter(c *gin.Context) {
	var req letterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.DocumentType) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "documentType is required", nil)
		return
	}
	doc, err := h.Svc.GenerateLetter(c.Request.Context(), callerFrom(c), c.Param("caseId"), req.DocumentType, req.UserAPIKey)
	if err != nil {
		writeError(c, err, "failed to generate letter")
		return
	}
	respond.Created(c, doc)
}

func (h *Handler) listLetters(c *gin.Context) {
	recs, err := h.Svc.ListLetters(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("caseId"))
	if err != nil {
		writeError(c, err, "failed to list letters")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"items": toLetterSummaries(recs)})
}

func (h *Handler) getLetter(c *gin.Context) {
	doc, err := h.Svc.GetLetter(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("letterId"))
	if err != nil {
		writeError(c, err, "failed to fetch letter")
		return
	}
	respond.JSON(c, http.StatusOK, doc)
}

func (h *Handler) reviseLetter(c *gin.Context) {
	var req reviseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	doc, err := h.Svc.ReviseLetter(c.Request.Context(), callerFrom(c), c.Param("letterId"), req.UserFeedback, req.UserAPIKey)
	if err != nil {
		writeError(c, err, "failed to revise letter")
		return
	}
	respond.Created(c, doc)
}

func (h *Handler) submitFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	fb, err := h.Svc.SubmitFeedback(c.Request.Context(), feedback.Submission{
		LetterID:               c.Param("letterId"),
		UserID:                 middleware.UserIDFromContext(c),
		Rating:                 req.Rating,
		WasHelpful:             req.WasHelpful,
		WasUsed:                req.WasUsed,
		Outcome:                feedback.Outcome(strings.ToLower(strings.TrimSpace(req.Outcome))),
		ImprovementSuggestions: req.ImprovementSuggestions,
		RequestID:              middleware.RequestIDFromContext(c),
	})
	if err != nil {
		writeError(c, err, "failed to store feedback")
		return
	}
	respond.Created(c, fb)
}

func callerFrom(c *gin.Context) Caller {
	id := middleware.IdentityFromContext(c)
	return Caller{
		UserID:    id.UserID,
		Email:     id.Email,
		Name:      id.Name,
		Guest:     id.Guest,
		RequestID: middleware.RequestIDFromContext(c),
	}
}

func pagination(c *gin.Context) (int, int) {
	limit, offset := 20, 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			offset = parsed
		}
	}
	return limit, offset
}

// decodeBase64 accepts plain base64 and data URLs.
func decodeBase64(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, ";base64,"); i >= 0 && strings.HasPrefix(raw, "data:") {
		raw = raw[i+len(";base64,"):]
	}
	if raw == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(raw)
}

// writeError maps domain errors onto the API error codes.
func writeError(c *gin.Context, err error, fallback string) {
	var details any
	if id := c.GetString("documentId"); id != "" {
		details = gin.H{"documentId": id}
	}
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", ErrNotFound.Error(), nil)
	case errors.Is(err, interview.ErrVersionConflict):
		respond.Error(c, http.StatusConflict, "version_conflict", err.Error(), nil)
	case errors.Is(err, interview.ErrSessionCompleted):
		respond.Error(c, http.StatusConflict, "session_completed", err.Error(), nil)
	case errors.Is(err, ErrInterviewIncomplete):
		respond.Error(c, http.StatusConflict, "interview_incomplete", err.Error(), nil)
	case errors.Is(err, documents.ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "file exceeds 10MB", nil)
	case errors.Is(err, extract.ErrUnsupportedType):
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_media_type", err.Error(), details)
	case errors.Is(err, extract.ErrUnreadable):
		respond.Error(c, http.StatusUnprocessableEntity, "unreadable_document", err.Error(), details)
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, cases.ErrInvalidInput),
		errors.Is(err, documents.ErrInvalidInput),
		errors.Is(err, feedback.ErrInvalidInput),
		errors.Is(err, interview.ErrInvalidAnswer),
		errors.Is(err, interview.ErrUnknownQuestion),
		errors.Is(err, letters.ErrUnsupportedDocumentType),
		errors.Is(err, letters.ErrEmptyFeedback):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
