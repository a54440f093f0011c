package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/azizur-rahaman/skillflow-sub002/internal/dto"
	"github.com/azizur-rahaman/skillflow-sub002/internal/middleware"
	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
	"github.com/azizur-rahaman/skillflow-sub002/internal/service"
	appErrors "github.com/azizur-rahaman/skillflow-sub002/pkg/errors"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/response"
)

type mintingService interface {
	CreateSession(ownerID string) (*service.Session, error)
	Session(ownerID, sessionID string) (*service.Session, error)
	CloseSession(ownerID, sessionID string) error
	RequestVerification(ctx context.Context, ownerID, sessionID, evidenceID string) (models.EvidenceSubmission, error)
	MintCredential(ctx context.Context, ownerID, sessionID string) (*models.MintResult, error)
	IssueCertificate(ctx context.Context, ownerID, sessionID string) (*models.DownloadLink, error)
	ListTransactions(ctx context.Context, filter models.MintTransactionFilter) ([]models.MintingTransaction, error)
}

type downloadService interface {
	ExportHistory(ctx context.Context, ownerID string) (*models.DownloadLink, error)
	Open(token string) (*os.File, string, error)
}

// MintingHandler exposes the credential minting wizard over HTTP.
type MintingHandler struct {
	service        mintingService
	downloads      downloadService
	validate       *validator.Validate
	maxUploadBytes int64
}

// NewMintingHandler builds the handler. downloads may be nil when exports are disabled.
func NewMintingHandler(svc mintingService, downloads downloadService, validate *validator.Validate, maxUploadBytes int64) *MintingHandler {
	if validate == nil {
		validate = validator.New()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &MintingHandler{service: svc, downloads: downloads, validate: validate, maxUploadBytes: maxUploadBytes}
}

// Register mounts the owner scoped routes on rg. Download links carry their own
// signature and are mounted separately via RegisterDownloads.
func (h *MintingHandler) Register(rg *gin.RouterGroup) {
	sessions := rg.Group("/sessions")
	sessions.POST("", h.CreateSession)
	sessions.GET("/:id", h.GetSession)
	sessions.DELETE("/:id", h.CloseSession)
	sessions.POST("/:id/skills/load", h.LoadSkills)
	sessions.POST("/:id/skills/select", h.SelectSkill)
	sessions.POST("/:id/steps/next", h.NextStep)
	sessions.POST("/:id/steps/previous", h.PreviousStep)
	sessions.POST("/:id/steps/goto", h.GoToStep)
	sessions.POST("/:id/evidence", h.AddEvidence)
	sessions.GET("/:id/evidence/validation", h.EvidenceValidation)
	sessions.PATCH("/:id/evidence/:evidenceId", h.UpdateEvidence)
	sessions.DELETE("/:id/evidence/:evidenceId", h.RemoveEvidence)
	sessions.POST("/:id/evidence/:evidenceId/verify", h.VerifyEvidence)
	sessions.POST("/:id/metadata", h.GenerateMetadata)
	sessions.POST("/:id/mint", h.Mint)
	sessions.GET("/:id/credential", h.Credential)
	sessions.POST("/:id/certificate", h.Certificate)
	sessions.POST("/:id/reset", h.Reset)

	rg.GET("/transactions", h.ListTransactions)
	rg.POST("/transactions/export", h.ExportTransactions)
}

// RegisterDownloads mounts the signed download route.
func (h *MintingHandler) RegisterDownloads(rg *gin.RouterGroup) {
	rg.GET("/downloads/:token", h.Download)
}

// CreateSession godoc
// @Summary Open a minting session
// @Tags Minting
// @Produce json
// @Param X-User-ID header string true "Learner id"
// @Success 201 {object} response.Envelope
// @Router /minting/sessions [post]
func (h *MintingHandler) CreateSession(c *gin.Context) {
	session, err := h.service.CreateSession(middleware.Owner(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.SessionCreatedResponse{SessionID: session.ID(), State: session.Snapshot()})
}

// GetSession godoc
// @Summary Get the session state
// @Tags Minting
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /minting/sessions/{id} [get]
func (h *MintingHandler) GetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, session.Snapshot())
}

// CloseSession godoc
// @Summary Close a session
// @Tags Minting
// @Param id path string true "Session ID"
// @Success 204
// @Router /minting/sessions/{id} [delete]
func (h *MintingHandler) CloseSession(c *gin.Context) {
	if err := h.service.CloseSession(middleware.Owner(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// LoadSkills godoc
// @Summary Load the learner's mintable skills
// @Tags Minting
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /minting/sessions/{id}/skills/load [post]
func (h *MintingHandler) LoadSkills(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	skills, err := session.LoadMintableSkills(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, skills, map[string]interface{}{"count": len(skills)})
}

// SelectSkill godoc
// @Summary Select the skill to mint
// @Tags Minting
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SelectSkillRequest true "Skill selection"
// @Success 200 {object} response.Envelope
// @Router /minting/sessions/{id}/skills/select [post]
func (h *MintingHandler) SelectSkill(c *gin.Context) {
	var req dto.SelectSkillRequest
	if !h.bindJSON(c, &req, "invalid skill selection payload") {
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.SelectSkill(req.SkillID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session.Snapshot())
}

// NextStep godoc
// @Summary Advance the wizard
// @Tags Minting
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /minting/sessions/{id}/steps/next [post]
func (h *MintingHandler) NextStep(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, dto.StepResponse{CurrentStep: session.NextStep()})
}

// PreviousStep godoc
// @Summary Move the wizard back
// @Tags Minting
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /minting/sessions/{id}/steps/previous [post]
func (h *MintingHandler) PreviousStep(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, dto.StepResponse{CurrentStep: session.PreviousStep()})
}

// GoToStep godoc
// @Summary Jump to a wizard step
// @Tags Minting
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.GoToStepRequest true "Target step"
// @Success 200 {object} response.Envelope
// @Router /minting/sessions/{id}/steps/goto [post]
func (h *MintingHandler) GoToStep(c *gin.Context) {
	var req dto.GoToStepRequest
	if !h.bindJSON(c, &req, "invalid step payload") {
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.GoToStep(models.MintingStep(req.Step)); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.StepResponse{CurrentStep: session.CurrentStep()})
}

// AddEvidence godoc
// @Summary Submit evidence
// @Description Accepts JSON for link evidence or multipart/form-data with a "file" part.
// @Tags Minting
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.CreateEvidenceRequest false "Evidence payload"
// @Success 201 {object} response.Envelope
// @Router /minting/sessions/{id}/evidence [post]
func (h *MintingHandler) AddEvidence(c *gin.Context) {
	input, ok := h.evidenceInput(c)
	if !ok {
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}
	item, err := session.AddEvidence(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// EvidenceValidation godoc
// @Summary Evidence readiness for the selected skill
// @Tags Minting
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /minting/sessions/{id}/evidence/validation [get]
func (h *MintingHandler) EvidenceValidation(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	state := session.Snapshot()
	if state.SelectedSkill == nil || state.EvidenceValidation == nil {
		response.Error(c, appErrors.ErrNoSkillSelected)
		return
	}
	response.JSON(c, http.StatusOK, dto.EvidenceValidationResponse{
		Valid:      state.EvidenceValidation.Valid,
		Missing:    state.EvidenceValidation.Missing,
		Completion: state.EvidenceCompletion,
	})
}

// UpdateEvidence godoc
// @Summary Patch an evidence item
// @Tags Minting
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param evidenceId path string true "Evidence ID"
// @Param payload body dto.UpdateEvidenceRequest true "Evidence patch"
// @Success 200 {object} response.Envelope
// @Router /minting/sessions/{id}/evidence/{evidenceId} [patch]
func (h *MintingHandler) UpdateEvidence(c *gin.Context) {
	var req dto.UpdateEvidenceRequest
	if !h.bindJSON(c, &req, "invalid evidence patch") {
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}
	item, found, err := session.UpdateEvidence(c.Param("evidenceId"), req.ToPatch())
	if err != nil {
		response.Error(c, err)
		return
	}
	if !found {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "evidence not found"))
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// RemoveEvidence godoc
// @Summary Remove an evidence item
// @Tags Minting
// @Param id path string true "Session ID"
// @Param evidenceId path string true "Evidence ID"
// @Success 204
// @Router /minting/sessions/{id}/evidence/{evidenceId} [delete]
func (h *MintingHandler) RemoveEvidence(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if !session.RemoveEvidence(c.Param("evidenceId")) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "evidence not found"))
		return
	}
	response.NoContent(c)
}

// VerifyEvidence godoc
// @Summary Request verification of an evidence item
// @Description Returns 202 while the review is queued and 200 once it has finished.
// @Tags Minting
// @Produce json
// @Param id path string true "Session ID"
// @Param evidenceId path string true "Evidence ID"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /minting/sessions/{id}/evidence/{evidenceId}/verify [post]
func (h *MintingHandler) VerifyEvidence(c *gin.Context) {
	item, err := h.service.RequestVerification(c.Request.Context(), middleware.Owner(c), c.Param("id"), c.Param("evidenceId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if item.Status == models.EvidenceStatusVerifying {
		response.Accepted(c, item)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// GenerateMetadata godoc
// @Summary Build credential metadata for the selected skill
// @Tags Minting
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /minting/sessions/{id}/metadata [post]
func (h *MintingHandler) GenerateMetadata(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	metadata, err := session.GenerateMetadata()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, metadata)
}

// Mint godoc
// @Summary Mint the credential
// @Description Blocks until the transaction succeeds or fails. A failed attempt still returns the transaction.
// @Tags Minting
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /minting/sessions/{id}/mint [post]
func (h *MintingHandler) Mint(c *gin.Context) {
	owner, sessionID := middleware.Owner(c), c.Param("id")
	result, err := h.service.MintCredential(c.Request.Context(), owner, sessionID)
	if err == nil {
		response.JSON(c, http.StatusOK, result)
		return
	}
	if !errors.Is(err, appErrors.ErrMintFailed) {
		response.Error(c, err)
		return
	}

	failed := &models.MintResult{Success: false, Message: err.Error()}
	if session, lookupErr := h.service.Session(owner, sessionID); lookupErr == nil {
		if tx := session.Snapshot().Transaction; tx != nil {
			failed.Transaction = *tx
			if tx.Error != nil {
				failed.Message = *tx.Error
			}
		}
	}
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, response.Envelope{Data: failed, Error: appErr})
}

// Credential godoc
// @Summary Get the minted credential
// @Tags Minting
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /minting/sessions/{id}/credential [get]
func (h *MintingHandler) Credential(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	credential, tx, err := session.MintedCredential()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, credential, map[string]interface{}{"transactionId": tx.ID})
}

// Certificate godoc
// @Summary Render a PDF certificate for the minted credential
// @Tags Minting
// @Produce json
// @Param id path string true "Session ID"
// @Success 201 {object} response.Envelope
// @Router /minting/sessions/{id}/certificate [post]
func (h *MintingHandler) Certificate(c *gin.Context) {
	link, err := h.service.IssueCertificate(c.Request.Context(), middleware.Owner(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// Reset godoc
// @Summary Reset the wizard
// @Tags Minting
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /minting/sessions/{id}/reset [post]
func (h *MintingHandler) Reset(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.Reset(); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session.Snapshot())
}

// ListTransactions godoc
// @Summary List the learner's mint attempts
// @Tags Minting
// @Produce json
// @Param status query []string false "Status filter" collectionFormat(multi)
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /minting/transactions [get]
func (h *MintingHandler) ListTransactions(c *gin.Context) {
	var query dto.TransactionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	query.Status = splitCSV(query.Status)
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	txs, err := h.service.ListTransactions(c.Request.Context(), query.ToFilter(middleware.Owner(c)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, txs, map[string]interface{}{"count": len(txs)})
}

// ExportTransactions godoc
// @Summary Export the mint history as CSV
// @Tags Minting
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /minting/transactions/export [post]
func (h *MintingHandler) ExportTransactions(c *gin.Context) {
	if h.downloads == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "exports are not configured"))
		return
	}
	link, err := h.downloads.ExportHistory(c.Request.Context(), middleware.Owner(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// Download godoc
// @Summary Download a signed file
// @Tags Minting
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /minting/downloads/{token} [get]
func (h *MintingHandler) Download(c *gin.Context) {
	if h.downloads == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	file, name, err := h.downloads.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, name),
	})
}

func (h *MintingHandler) session(c *gin.Context) (*service.Session, bool) {
	session, err := h.service.Session(middleware.Owner(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return session, true
}

func (h *MintingHandler) bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	if err := h.validate.Struct(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func (h *MintingHandler) evidenceInput(c *gin.Context) (models.EvidenceInput, bool) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var req dto.CreateEvidenceRequest
		if !h.bindJSON(c, &req, "invalid evidence payload") {
			return models.EvidenceInput{}, false
		}
		return req.ToInput(), true
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+(1<<20))
	var req dto.CreateEvidenceRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evidence form"))
		return models.EvidenceInput{}, false
	}
	if req.URL != nil && *req.URL == "" {
		req.URL = nil
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evidence form"))
		return models.EvidenceInput{}, false
	}
	input := req.ToInput()

	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return input, true
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evidence file"))
		return models.EvidenceInput{}, false
	}
	if header.Size > h.maxUploadBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "evidence file too large"))
		return models.EvidenceInput{}, false
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evidence file"))
		return models.EvidenceInput{}, false
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evidence file"))
		return models.EvidenceInput{}, false
	}

	input.Attachment = &models.EvidenceAttachment{
		FileName: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	}
	return input, true
}

func splitCSV(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
