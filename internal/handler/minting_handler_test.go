package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/azizur-rahaman/skillflow-sub002/internal/middleware"
	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
	"github.com/azizur-rahaman/skillflow-sub002/internal/service"
	appErrors "github.com/azizur-rahaman/skillflow-sub002/pkg/errors"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/logger"
)

const testOwner = "learner-1"

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type downloadServiceStub struct {
	dir      string
	exported []string
}

func (s *downloadServiceStub) ExportHistory(ctx context.Context, ownerID string) (*models.DownloadLink, error) {
	s.exported = append(s.exported, ownerID)
	return &models.DownloadLink{FileName: "history.csv", URL: "/api/v1/minting/downloads/tok", Token: "tok"}, nil
}

func (s *downloadServiceStub) Open(token string) (*os.File, string, error) {
	if token != "tok" {
		return nil, "", appErrors.ErrForbidden
	}
	file, err := os.Open(filepath.Join(s.dir, "history.csv"))
	return file, "history.csv", err
}

type failingChain struct {
	*service.SimulatedChain
}

func (failingChain) SubmitMint(ctx context.Context, walletAddress, metadataURI string) (string, error) {
	return "", assert.AnError
}

func newMintingRouter(t *testing.T, deps service.WorkflowDeps, downloads downloadService) (*gin.Engine, *service.MintingService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if deps.Delayer == nil {
		deps.Delayer = service.NoopDelayer{}
	}
	cfg := service.MintingServiceConfig{
		Workflow: service.WorkflowConfig{
			Network:         "polygon-amoy",
			WalletAddress:   "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
			ContractAddress: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
			TokenStandard:   "ERC-721",
			Issuer:          "SkillFlow Academy",
			IPFSGateway:     "https://ipfs.io/ipfs/",
		},
		IdleTTL: time.Minute,
	}
	svc := service.NewMintingService(cfg, deps, nil, nil, zap.NewNop())
	h := NewMintingHandler(svc, downloads, nil, 1<<20)

	router := gin.New()
	api := router.Group("/api/v1/minting")
	h.RegisterDownloads(api)
	owned := api.Group("")
	owned.Use(middleware.RequireOwner())
	h.Register(owned)
	return router, svc
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(logger.OwnerHeader, testOwner)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func createSession(t *testing.T, router *gin.Engine) string {
	t.Helper()
	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/minting/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotEmpty(t, created.SessionID)
	return created.SessionID
}

func sessionPath(id, suffix string) string {
	return "/api/v1/minting/sessions/" + id + suffix
}

func TestMintingHandlerRequiresOwner(t *testing.T) {
	router, _ := newMintingRouter(t, service.WorkflowDeps{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/minting/sessions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMintingHandlerSessionIsOwnerScoped(t *testing.T) {
	router, _ := newMintingRouter(t, service.WorkflowDeps{}, nil)
	id := createSession(t, router)

	req := httptest.NewRequest(http.MethodGet, sessionPath(id, ""), nil)
	req.Header.Set(logger.OwnerHeader, "someone-else")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMintingHandlerFullFlow(t *testing.T) {
	router, _ := newMintingRouter(t, service.WorkflowDeps{}, nil)
	id := createSession(t, router)

	rec, env := doJSON(t, router, http.MethodPost, sessionPath(id, "/skills/load"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 4, env.Meta["count"])

	rec, _ = doJSON(t, router, http.MethodPost, sessionPath(id, "/skills/select"), map[string]string{"skillId": "skill-react"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = doJSON(t, router, http.MethodPost, sessionPath(id, "/steps/next"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"currentStep":"evidence_verification"}`, string(env.Data))

	for _, ev := range []map[string]string{
		{"type": "project", "title": "Storefront", "url": "https://shop.example"},
		{"type": "github", "title": "react-kit", "url": "https://github.com/example/react-kit"},
	} {
		rec, env = doJSON(t, router, http.MethodPost, sessionPath(id, "/evidence"), ev)
		require.Equal(t, http.StatusCreated, rec.Code)
		var item models.EvidenceSubmission
		require.NoError(t, json.Unmarshal(env.Data, &item))
		assert.Equal(t, models.EvidenceStatusPending, item.Status)

		rec, env = doJSON(t, router, http.MethodPost, sessionPath(id, "/evidence/"+item.ID+"/verify"), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(env.Data, &item))
		assert.Equal(t, models.EvidenceStatusVerified, item.Status)
	}

	rec, env = doJSON(t, router, http.MethodGet, sessionPath(id, "/evidence/validation"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":true,"missing":[],"completion":100}`, string(env.Data))

	rec, _ = doJSON(t, router, http.MethodPost, sessionPath(id, "/metadata"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = doJSON(t, router, http.MethodPost, sessionPath(id, "/mint"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result models.MintResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Success)
	assert.Equal(t, models.MintingStatusSuccess, result.Transaction.Status)
	require.NotNil(t, result.Credential)
	assert.Equal(t, "React.js", result.Credential.SkillName)

	rec, _ = doJSON(t, router, http.MethodGet, sessionPath(id, "/credential"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = doJSON(t, router, http.MethodPost, sessionPath(id, "/mint"), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrResetRequired.Code, env.Error.Code)

	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/minting/transactions?status=success", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = doJSON(t, router, http.MethodPost, sessionPath(id, "/reset"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var state models.MintingSessionState
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, models.MintingStepSkillSelection, state.CurrentStep)
	assert.Empty(t, state.Evidence)
	assert.Nil(t, state.Transaction)
}

func TestMintingHandlerIneligibleSkill(t *testing.T) {
	router, _ := newMintingRouter(t, service.WorkflowDeps{}, nil)
	id := createSession(t, router)
	doJSON(t, router, http.MethodPost, sessionPath(id, "/skills/load"), nil)

	rec, env := doJSON(t, router, http.MethodPost, sessionPath(id, "/skills/select"), map[string]string{"skillId": "skill-solidity"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrSkillNotEligible.Code, env.Error.Code)
}

func TestMintingHandlerValidation(t *testing.T) {
	router, _ := newMintingRouter(t, service.WorkflowDeps{}, nil)
	id := createSession(t, router)

	rec, _ := doJSON(t, router, http.MethodPost, sessionPath(id, "/steps/goto"), map[string]string{"step": "nowhere"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPost, sessionPath(id, "/evidence"), map[string]string{"type": "video", "title": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPost, sessionPath(id, "/evidence"), map[string]string{"type": "project", "title": "x", "url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/minting/transactions?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, router, http.MethodDelete, sessionPath(id, "/evidence/missing"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, sessionPath(id, "/evidence/validation"), nil)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)

	rec, env := doJSON(t, router, http.MethodPost, sessionPath(id, "/mint"), nil)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrMissingMintData.Code, env.Error.Code)
}

func TestMintingHandlerMultipartEvidence(t *testing.T) {
	router, _ := newMintingRouter(t, service.WorkflowDeps{}, nil)
	id := createSession(t, router)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("type", "certificate"))
	require.NoError(t, writer.WriteField("title", "React certification"))
	part, err := writer.CreateFormFile("file", "cert.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, sessionPath(id, "/evidence"), &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(logger.OwnerHeader, testOwner)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var item models.EvidenceSubmission
	require.NoError(t, json.Unmarshal(env.Data, &item))
	require.NotNil(t, item.FileName)
	assert.Equal(t, "cert.pdf", *item.FileName)
	assert.Equal(t, models.EvidenceTypeCertificate, item.Type)
}

func TestMintingHandlerPatchEvidence(t *testing.T) {
	router, _ := newMintingRouter(t, service.WorkflowDeps{}, nil)
	id := createSession(t, router)

	_, env := doJSON(t, router, http.MethodPost, sessionPath(id, "/evidence"), map[string]string{"type": "project", "title": "Draft"})
	var item models.EvidenceSubmission
	require.NoError(t, json.Unmarshal(env.Data, &item))

	rec, env := doJSON(t, router, http.MethodPatch, sessionPath(id, "/evidence/"+item.ID), map[string]string{"title": "Final"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, "Final", item.Title)

	rec, _ = doJSON(t, router, http.MethodDelete, sessionPath(id, "/evidence/"+item.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMintingHandlerMintFailureReturnsTransaction(t *testing.T) {
	chain := failingChain{SimulatedChain: service.NewSimulatedChain("https://ipfs.io/ipfs/", "0xcontract")}
	router, _ := newMintingRouter(t, service.WorkflowDeps{Chain: chain}, nil)
	id := createSession(t, router)

	doJSON(t, router, http.MethodPost, sessionPath(id, "/skills/load"), nil)
	doJSON(t, router, http.MethodPost, sessionPath(id, "/skills/select"), map[string]string{"skillId": "skill-node"})
	rec, _ := doJSON(t, router, http.MethodPost, sessionPath(id, "/metadata"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doJSON(t, router, http.MethodPost, sessionPath(id, "/mint"), nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrMintFailed.Code, env.Error.Code)

	var result models.MintResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.False(t, result.Success)
	assert.Equal(t, models.MintingStatusFailed, result.Transaction.Status)
	assert.Contains(t, result.Message, "submit mint")

	rec, _ = doJSON(t, router, http.MethodPost, sessionPath(id, "/certificate"), nil)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestMintingHandlerExportAndDownload(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history.csv"), []byte("id,status\n"), 0o644))
	downloads := &downloadServiceStub{dir: dir}
	router, _ := newMintingRouter(t, service.WorkflowDeps{}, downloads)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/minting/transactions/export", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{testOwner}, downloads.exported)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/minting/downloads/tok", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "id,status\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "history.csv")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/minting/downloads/forged", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMintingHandlerCloseSession(t *testing.T) {
	router, svc := newMintingRouter(t, service.WorkflowDeps{}, nil)
	id := createSession(t, router)
	require.Equal(t, 1, svc.ActiveSessions())

	rec, _ := doJSON(t, router, http.MethodDelete, sessionPath(id, ""), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, svc.ActiveSessions())

	rec, _ = doJSON(t, router, http.MethodGet, sessionPath(id, ""), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
