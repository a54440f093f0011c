package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/minting/sessions/:id/mint", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/health", http.StatusOK, 10*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordMintOutcome("success", time.Second)
	m.RecordMintOutcome("failed", time.Second)
	m.RecordMintOutcome("failed", time.Second)
	m.SetActiveSessions(3)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.RequestsTotal)
	assert.InDelta(t, 15, snap.AverageRequestDurationMs, 0.01)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.0001)
	assert.EqualValues(t, 1, snap.MintsSucceeded)
	assert.EqualValues(t, 2, snap.MintsFailed)
	assert.EqualValues(t, 3, snap.ActiveSessions)
}

func TestMetricsServiceExposesMintCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordMintOutcome("success", time.Second)
	m.ObserveMintStage("uploading_metadata", 200*time.Millisecond)
	m.RecordEvidenceVerification("verified")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, name := range []string{
		"credential_mint_attempts_total",
		"credential_mint_stage_duration_seconds",
		"evidence_verifications_total",
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordMintOutcome("success", time.Second)
	m.ObserveMintStage("minting", time.Second)
	m.SetActiveSessions(1)
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())
}
