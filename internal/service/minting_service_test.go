package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
	appErrors "github.com/azizur-rahaman/skillflow-sub002/pkg/errors"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/jobs"
)

type transactionStoreStub struct {
	mu      sync.Mutex
	records map[string]models.MintingTransaction
	writes  int
	err     error
}

func (s *transactionStoreStub) Upsert(ctx context.Context, tx *models.MintingTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.err != nil {
		return s.err
	}
	if s.records == nil {
		s.records = make(map[string]models.MintingTransaction)
	}
	s.records[tx.ID] = tx.Clone()
	return nil
}

func (s *transactionStoreStub) ListByOwner(ctx context.Context, filter models.MintTransactionFilter) ([]models.MintingTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.MintingTransaction{}
	for _, tx := range s.records {
		if tx.OwnerID == filter.OwnerID {
			out = append(out, tx)
		}
	}
	return out, nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newMintingServiceForTest(history mintTransactionStore) *MintingService {
	cfg := MintingServiceConfig{Workflow: testWorkflowConfig(), IdleTTL: time.Minute, CleanupInterval: time.Second}
	return NewMintingService(cfg, WorkflowDeps{Delayer: NoopDelayer{}, Metrics: NewMetricsService()}, history, nil, zap.NewNop())
}

func prepareMint(t *testing.T, session *Session) {
	t.Helper()
	loadAndSelect(t, session, "skill-react")
	addVerified(t, session, models.EvidenceTypeProject, "Shop front")
	_, err := session.GenerateMetadata()
	require.NoError(t, err)
}

func TestMintingServiceSessionOwnership(t *testing.T) {
	svc := newMintingServiceForTest(nil)

	_, err := svc.CreateSession("")
	require.True(t, errors.Is(err, appErrors.ErrValidation))

	session, err := svc.CreateSession("learner-1")
	require.NoError(t, err)
	require.Equal(t, 1, svc.ActiveSessions())

	found, err := svc.Session("learner-1", session.ID())
	require.NoError(t, err)
	require.Same(t, session, found)

	_, err = svc.Session("learner-2", session.ID())
	require.ErrorIs(t, err, appErrors.ErrSessionNotFound)

	require.ErrorIs(t, svc.CloseSession("learner-2", session.ID()), appErrors.ErrSessionNotFound)
	require.NoError(t, svc.CloseSession("learner-1", session.ID()))
	require.Equal(t, 0, svc.ActiveSessions())
}

func TestMintingServicePersistsEveryStage(t *testing.T) {
	store := &transactionStoreStub{}
	svc := newMintingServiceForTest(store)
	session, err := svc.CreateSession("learner-1")
	require.NoError(t, err)
	prepareMint(t, session)

	result, err := svc.MintCredential(context.Background(), "learner-1", session.ID())
	require.NoError(t, err)

	require.Greater(t, store.writes, 6)
	stored := store.records[result.Transaction.ID]
	assert.Equal(t, models.MintingStatusSuccess, stored.Status)
	assert.Equal(t, "learner-1", stored.OwnerID)
	assert.Equal(t, session.ID(), stored.SessionID)

	txs, err := svc.ListTransactions(context.Background(), models.MintTransactionFilter{OwnerID: "learner-1"})
	require.NoError(t, err)
	require.Len(t, txs, 1)
}

func TestMintingServiceHistoryFailureDoesNotFailMint(t *testing.T) {
	store := &transactionStoreStub{err: errors.New("db down")}
	svc := newMintingServiceForTest(store)
	session, err := svc.CreateSession("learner-1")
	require.NoError(t, err)
	prepareMint(t, session)

	result, err := svc.MintCredential(context.Background(), "learner-1", session.ID())
	require.NoError(t, err)
	require.True(t, result.Success)
}

func TestMintingServiceListTransactionsFromSessions(t *testing.T) {
	svc := newMintingServiceForTest(nil)
	first, err := svc.CreateSession("learner-1")
	require.NoError(t, err)
	prepareMint(t, first)
	_, err = first.MintCredential(context.Background())
	require.NoError(t, err)

	_, err = svc.CreateSession("learner-1")
	require.NoError(t, err)
	other, err := svc.CreateSession("learner-2")
	require.NoError(t, err)
	prepareMint(t, other)
	_, err = other.MintCredential(context.Background())
	require.NoError(t, err)

	txs, err := svc.ListTransactions(context.Background(), models.MintTransactionFilter{OwnerID: "learner-1"})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, first.ID(), txs[0].SessionID)

	txs, err = svc.ListTransactions(context.Background(), models.MintTransactionFilter{OwnerID: "learner-1", Status: []models.MintingStatus{models.MintingStatusFailed}})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestMintingServiceQueuedVerification(t *testing.T) {
	svc := newMintingServiceForTest(nil)
	queue := &queueStub{}
	svc.SetVerificationQueue(queue)

	session, err := svc.CreateSession("learner-1")
	require.NoError(t, err)
	item, err := session.AddEvidence(context.Background(), models.EvidenceInput{Type: models.EvidenceTypeProject, Title: "Demo"})
	require.NoError(t, err)

	queued, err := svc.RequestVerification(context.Background(), "learner-1", session.ID(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EvidenceStatusVerifying, queued.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, VerificationJobType, queue.jobs[0].Type)

	again, err := svc.RequestVerification(context.Background(), "learner-1", session.ID(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EvidenceStatusVerifying, again.Status)
	require.Len(t, queue.jobs, 1)

	require.NoError(t, svc.HandleVerificationJob(context.Background(), queue.jobs[0]))
	final, ok := session.Evidence(item.ID)
	require.True(t, ok)
	assert.Equal(t, models.EvidenceStatusVerified, final.Status)

	_, err = svc.RequestVerification(context.Background(), "learner-1", session.ID(), "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestMintingServiceVerificationFallsBackInline(t *testing.T) {
	svc := newMintingServiceForTest(nil)
	svc.SetVerificationQueue(&queueStub{err: errors.New("queue stopped")})

	session, err := svc.CreateSession("learner-1")
	require.NoError(t, err)
	item, err := session.AddEvidence(context.Background(), models.EvidenceInput{Type: models.EvidenceTypeGitHub, Title: "Repo"})
	require.NoError(t, err)

	final, err := svc.RequestVerification(context.Background(), "learner-1", session.ID(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EvidenceStatusVerified, final.Status)
}

func TestMintingServiceHandleVerificationJobForClosedSession(t *testing.T) {
	svc := newMintingServiceForTest(nil)
	err := svc.HandleVerificationJob(context.Background(), jobs.Job{Type: VerificationJobType, Payload: VerificationJob{SessionID: "gone", EvidenceID: "x"}})
	require.NoError(t, err)

	err = svc.HandleVerificationJob(context.Background(), jobs.Job{Type: VerificationJobType, Payload: "bogus"})
	require.Error(t, err)
}

func TestMintingServiceCleanupIdle(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	cfg := MintingServiceConfig{Workflow: testWorkflowConfig(), IdleTTL: 10 * time.Minute}
	svc := NewMintingService(cfg, WorkflowDeps{Delayer: NoopDelayer{}, Clock: clock}, nil, nil, nil)

	stale, err := svc.CreateSession("learner-1")
	require.NoError(t, err)
	now = now.Add(15 * time.Minute)
	fresh, err := svc.CreateSession("learner-1")
	require.NoError(t, err)

	require.Equal(t, 1, svc.CleanupIdle())
	_, err = svc.Session("learner-1", stale.ID())
	require.ErrorIs(t, err, appErrors.ErrSessionNotFound)
	_, err = svc.Session("learner-1", fresh.ID())
	require.NoError(t, err)
}

func TestMintingServiceIssueCertificateRequiresMint(t *testing.T) {
	cfg := MintingServiceConfig{Workflow: testWorkflowConfig()}
	exports := newExportServiceForTest(t, nil)
	svc := NewMintingService(cfg, WorkflowDeps{Delayer: NoopDelayer{}}, nil, exports, nil)

	session, err := svc.CreateSession("learner-1")
	require.NoError(t, err)
	_, err = svc.IssueCertificate(context.Background(), "learner-1", session.ID())
	require.ErrorIs(t, err, appErrors.ErrMintNotFinished)

	prepareMint(t, session)
	_, err = session.MintCredential(context.Background())
	require.NoError(t, err)

	link, err := svc.IssueCertificate(context.Background(), "learner-1", session.ID())
	require.NoError(t, err)
	require.NotEmpty(t, link.Token)
}
