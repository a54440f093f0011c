package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
	appErrors "github.com/azizur-rahaman/skillflow-sub002/pkg/errors"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/jobs"
)

// VerificationJobType identifies queued evidence verifications.
const VerificationJobType = "evidence.verify"

type mintTransactionStore interface {
	Upsert(ctx context.Context, tx *models.MintingTransaction) error
	ListByOwner(ctx context.Context, filter models.MintTransactionFilter) ([]models.MintingTransaction, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type certificateIssuer interface {
	IssueCertificate(ctx context.Context, cred models.MintedCredential, tx models.MintingTransaction) (*models.DownloadLink, error)
}

// VerificationJob is the payload of a queued evidence verification.
type VerificationJob struct {
	SessionID  string
	EvidenceID string
}

// MintingServiceConfig tunes the session registry.
type MintingServiceConfig struct {
	Workflow        WorkflowConfig
	IdleTTL         time.Duration
	CleanupInterval time.Duration
}

// MintingService owns the minting sessions of all owners.
type MintingService struct {
	cfg          MintingServiceConfig
	deps         WorkflowDeps
	history      mintTransactionStore
	certificates certificateIssuer
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	queue    jobEnqueuer
}

// NewMintingService constructs the registry. history and certificates may be nil.
func NewMintingService(cfg MintingServiceConfig, deps WorkflowDeps, history mintTransactionStore, certificates certificateIssuer, logger *zap.Logger) *MintingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	deps.Logger = logger
	svc := &MintingService{
		cfg:          cfg,
		history:      history,
		certificates: certificates,
		metrics:      deps.Metrics,
		logger:       logger,
		now:          deps.Clock,
		sessions:     make(map[string]*Session),
	}
	deps.Observer = svc.recordTransaction
	svc.deps = deps
	return svc
}

// SetVerificationQueue routes verification requests through q instead of running them inline.
func (s *MintingService) SetVerificationQueue(q jobEnqueuer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = q
}

// CreateSession opens a new session for ownerID.
func (s *MintingService) CreateSession(ownerID string) (*Session, error) {
	if ownerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "owner id is required")
	}
	session := NewSession("", ownerID, s.cfg.Workflow, s.deps)

	s.mu.Lock()
	s.sessions[session.ID()] = session
	active := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(active)
	s.logger.Info("minting session created", zap.String("session_id", session.ID()), zap.String("owner_id", ownerID))
	return session, nil
}

// Session returns the session when it belongs to ownerID.
func (s *MintingService) Session(ownerID, sessionID string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok || session.OwnerID() != ownerID {
		return nil, appErrors.ErrSessionNotFound
	}
	return session, nil
}

// CloseSession discards a session. A session with a mint in flight stays open.
func (s *MintingService) CloseSession(ownerID, sessionID string) error {
	session, err := s.Session(ownerID, sessionID)
	if err != nil {
		return err
	}
	if session.Minting() {
		return appErrors.ErrMintInProgress
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	active := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(active)
	return nil
}

// RequestVerification marks an evidence item as verifying and queues the review.
// Without a running queue the review runs inline.
func (s *MintingService) RequestVerification(ctx context.Context, ownerID, sessionID, evidenceID string) (models.EvidenceSubmission, error) {
	session, err := s.Session(ownerID, sessionID)
	if err != nil {
		return models.EvidenceSubmission{}, err
	}
	item, started := session.BeginVerification(evidenceID)
	if !started {
		current, ok := session.Evidence(evidenceID)
		if !ok {
			return models.EvidenceSubmission{}, appErrors.Clone(appErrors.ErrNotFound, "evidence not found")
		}
		return current, nil
	}

	s.mu.RLock()
	queue := s.queue
	s.mu.RUnlock()
	if queue != nil {
		err := queue.Enqueue(jobs.Job{
			Key:     sessionID + "/" + evidenceID,
			Type:    VerificationJobType,
			Payload: VerificationJob{SessionID: sessionID, EvidenceID: evidenceID},
		})
		if err == nil {
			return item, nil
		}
		s.logger.Warn("verification queue unavailable, verifying inline", zap.String("evidence_id", evidenceID), zap.Error(err))
	}

	final, _ := session.CompleteVerification(ctx, evidenceID)
	return final, nil
}

// HandleVerificationJob is the worker side of RequestVerification.
func (s *MintingService) HandleVerificationJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(VerificationJob)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}
	s.mu.RLock()
	session, found := s.sessions[payload.SessionID]
	s.mu.RUnlock()
	if !found {
		s.logger.Debug("verification dropped, session closed", zap.String("session_id", payload.SessionID))
		return nil
	}
	session.CompleteVerification(ctx, payload.EvidenceID)
	return nil
}

// MintCredential runs a mint for the session.
func (s *MintingService) MintCredential(ctx context.Context, ownerID, sessionID string) (*models.MintResult, error) {
	session, err := s.Session(ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	return session.MintCredential(ctx)
}

// IssueCertificate renders the certificate of the session's minted credential.
func (s *MintingService) IssueCertificate(ctx context.Context, ownerID, sessionID string) (*models.DownloadLink, error) {
	if s.certificates == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "certificate export is not configured")
	}
	session, err := s.Session(ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	cred, tx, err := session.MintedCredential()
	if err != nil {
		return nil, err
	}
	return s.certificates.IssueCertificate(ctx, cred, tx)
}

// ListTransactions returns the owner's mint attempts, newest first. Without a
// history store only transactions of open sessions are known.
func (s *MintingService) ListTransactions(ctx context.Context, filter models.MintTransactionFilter) ([]models.MintingTransaction, error) {
	if s.history != nil {
		start := time.Now()
		txs, err := s.history.ListByOwner(ctx, filter)
		s.metrics.ObserveDBQuery("mint_transactions.list", time.Since(start))
		return txs, err
	}

	s.mu.RLock()
	owned := make([]*Session, 0)
	for _, session := range s.sessions {
		if session.OwnerID() == filter.OwnerID {
			owned = append(owned, session)
		}
	}
	s.mu.RUnlock()

	txs := make([]models.MintingTransaction, 0, len(owned))
	for _, session := range owned {
		if tx := session.Snapshot().Transaction; tx != nil && statusMatches(tx.Status, filter.Status) {
			txs = append(txs, *tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
	return paginate(txs, filter.Limit, filter.Offset), nil
}

// ActiveSessions reports the number of open sessions.
func (s *MintingService) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CleanupIdle closes sessions idle for longer than the configured TTL. Busy sessions are kept.
func (s *MintingService) CleanupIdle() int {
	cutoff := s.now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	removed := 0
	for id, session := range s.sessions {
		if session.Busy() || session.LastActivity().After(cutoff) {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	active := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		s.metrics.SetActiveSessions(active)
		s.logger.Info("expired idle minting sessions", zap.Int("removed", removed), zap.Int("active", active))
	}
	return removed
}

// Run expires idle sessions until ctx is cancelled.
func (s *MintingService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupIdle()
		}
	}
}

func (s *MintingService) recordTransaction(ctx context.Context, tx models.MintingTransaction) {
	if s.history == nil {
		return
	}
	start := time.Now()
	err := s.history.Upsert(ctx, &tx)
	s.metrics.ObserveDBQuery("mint_transactions.upsert", time.Since(start))
	if err != nil {
		s.logger.Warn("failed to persist mint transaction",
			zap.String("transaction_id", tx.ID),
			zap.String("status", string(tx.Status)),
			zap.Error(err),
		)
	}
}

func statusMatches(status models.MintingStatus, wanted []models.MintingStatus) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, w := range wanted {
		if w == status {
			return true
		}
	}
	return false
}

func paginate(txs []models.MintingTransaction, limit, offset int) []models.MintingTransaction {
	if offset > 0 {
		if offset >= len(txs) {
			return []models.MintingTransaction{}
		}
		txs = txs[offset:]
	}
	if limit > 0 && limit < len(txs) {
		txs = txs[:limit]
	}
	return txs
}
