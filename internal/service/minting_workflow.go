package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/config"
	appErrors "github.com/azizur-rahaman/skillflow-sub002/pkg/errors"
)

// TransactionObserver receives a copy of the transaction after every change.
type TransactionObserver func(ctx context.Context, tx models.MintingTransaction)

// CredentialProofSigner attaches a verifiable proof to a minted credential.
type CredentialProofSigner interface {
	Sign(cred models.MintedCredential) (string, error)
}

// WorkflowConfig carries the chain parameters and stage latencies of a session.
type WorkflowConfig struct {
	Network          string
	WalletAddress    string
	ContractAddress  string
	TokenStandard    string
	Issuer           string
	IssuerURL        string
	ImageBaseURL     string
	IPFSGateway      string
	PreparationDelay time.Duration
	ApprovalDelay    time.Duration
	ConfirmDelay     time.Duration
	UploadDelay      time.Duration
	VerifyDelay      time.Duration
}

// WorkflowConfigFrom maps application configuration onto a WorkflowConfig.
func WorkflowConfigFrom(minting config.MintingConfig, evidence config.EvidenceConfig) WorkflowConfig {
	return WorkflowConfig{
		Network:          minting.Network,
		WalletAddress:    minting.WalletAddress,
		ContractAddress:  minting.ContractAddress,
		TokenStandard:    minting.TokenStandard,
		Issuer:           minting.Issuer,
		IssuerURL:        minting.IssuerURL,
		ImageBaseURL:     minting.ImageBaseURL,
		IPFSGateway:      minting.IPFSGateway,
		PreparationDelay: minting.PreparationDelay,
		ApprovalDelay:    minting.ApprovalDelay,
		ConfirmDelay:     minting.ConfirmDelay,
		UploadDelay:      evidence.UploadDelay,
		VerifyDelay:      evidence.VerifyDelay,
	}
}

// WorkflowDeps are the collaborators of a session. Nil collaborators fall back to the simulated ones.
type WorkflowDeps struct {
	Skills   SkillSource
	Uploader EvidenceUploader
	Verifier EvidenceVerifier
	Chain    ChainSubmitter
	Delayer  Delayer
	Signer   CredentialProofSigner
	Observer TransactionObserver
	Metrics  *MetricsService
	Logger   *zap.Logger
	Clock    func() time.Time
}

// Session is the state container of one learner's minting wizard.
// Collaborator calls and delays run without holding the lock.
type Session struct {
	id       string
	ownerID  string
	cfg      WorkflowConfig
	skills   SkillSource
	uploader EvidenceUploader
	verifier EvidenceVerifier
	chain    ChainSubmitter
	delayer  Delayer
	signer   CredentialProofSigner
	observer TransactionObserver
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time

	mu          sync.Mutex
	step        models.MintingStep
	available   []models.MintableSkill
	selected    *models.MintableSkill
	evidence    []models.EvidenceSubmission
	metadata    *models.CredentialMetadata
	transaction *models.MintingTransaction
	credential  *models.MintedCredential
	lastError   *string
	pending     int
	minting     bool
	generation  uint64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewSession constructs a session in its initial state. An empty id gets a generated one.
func NewSession(id, ownerID string, cfg WorkflowConfig, deps WorkflowDeps) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	if deps.Delayer == nil {
		deps.Delayer = TimerDelayer{}
	}
	if deps.Skills == nil {
		deps.Skills = NewSimulatedSkillCatalog(deps.Delayer, 0)
	}
	if deps.Uploader == nil {
		deps.Uploader = NewSimulatedEvidenceUploader(deps.Delayer, cfg.UploadDelay)
	}
	if deps.Verifier == nil {
		deps.Verifier = NewSimulatedEvidenceVerifier(deps.Delayer, cfg.VerifyDelay)
	}
	if cfg.WalletAddress == "" {
		cfg.WalletAddress = config.DefaultWalletAddress
	}
	if cfg.ContractAddress == "" {
		cfg.ContractAddress = config.DefaultContractAddress
	}
	if deps.Chain == nil {
		deps.Chain = NewSimulatedChain(cfg.IPFSGateway, cfg.ContractAddress)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if cfg.TokenStandard == "" {
		cfg.TokenStandard = config.DefaultTokenStandard
	}

	created := deps.Clock().UTC()
	return &Session{
		id:        id,
		ownerID:   ownerID,
		cfg:       cfg,
		skills:    deps.Skills,
		uploader:  deps.Uploader,
		verifier:  deps.Verifier,
		chain:     deps.Chain,
		delayer:   deps.Delayer,
		signer:    deps.Signer,
		observer:  deps.Observer,
		metrics:   deps.Metrics,
		logger:    deps.Logger.With(zap.String("session_id", id)),
		now:       deps.Clock,
		step:      models.MintingStepSkillSelection,
		evidence:  []models.EvidenceSubmission{},
		createdAt: created,
		updatedAt: created,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// OwnerID returns the owner the session belongs to.
func (s *Session) OwnerID() string { return s.ownerID }

// LastActivity returns the time of the last state change.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Busy reports whether a load, upload or mint is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minting || s.pending > 0
}

// Minting reports whether a mint attempt is in flight.
func (s *Session) Minting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minting
}

// CurrentStep returns the active wizard step.
func (s *Session) CurrentStep() models.MintingStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// NextStep advances one step. At the last step it does nothing.
func (s *Session) NextStep() models.MintingStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.step.Index(); idx >= 0 && idx < len(models.MintingSteps)-1 {
		s.step = models.MintingSteps[idx+1]
		s.touch()
	}
	return s.step
}

// PreviousStep moves back one step. At the first step it does nothing.
func (s *Session) PreviousStep() models.MintingStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.step.Index(); idx > 0 {
		s.step = models.MintingSteps[idx-1]
		s.touch()
	}
	return s.step
}

// GoToStep jumps to any wizard step without checking earlier steps.
func (s *Session) GoToStep(step models.MintingStep) error {
	if !step.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown minting step %q", step))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
	s.touch()
	return nil
}

// LoadMintableSkills replaces the available skills with the owner's catalog.
func (s *Session) LoadMintableSkills(ctx context.Context) ([]models.MintableSkill, error) {
	s.mu.Lock()
	s.pending++
	s.lastError = nil
	s.mu.Unlock()

	skills, err := s.skills.ListMintableSkills(ctx, s.ownerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	s.touch()
	if err != nil {
		s.logger.Warn("load mintable skills failed", zap.Error(err))
		s.setError("Failed to load mintable skills")
		return nil, appErrors.Wrap(err, appErrors.ErrSkillLoadFailed.Code, appErrors.ErrSkillLoadFailed.Status, appErrors.ErrSkillLoadFailed.Message)
	}
	s.available = make([]models.MintableSkill, len(skills))
	for i, skill := range skills {
		s.available[i] = skill.Clone()
	}
	return cloneSkills(s.available), nil
}

// SelectSkill selects a loaded skill. Unknown ids are ignored. An ineligible skill
// sets the session error and keeps the current selection.
func (s *Session) SelectSkill(skillID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *models.MintableSkill
	for i := range s.available {
		if s.available[i].ID == skillID {
			found = &s.available[i]
			break
		}
	}
	if found == nil {
		return nil
	}
	s.touch()
	if !IsSkillEligible(*found) {
		msg := fmt.Sprintf("%s is not eligible for minting", found.Name)
		if found.IneligibilityReason != nil && *found.IneligibilityReason != "" {
			msg = fmt.Sprintf("%s: %s", msg, *found.IneligibilityReason)
		}
		s.setError(msg)
		return appErrors.Clone(appErrors.ErrSkillNotEligible, msg)
	}

	if s.selected == nil || s.selected.ID != found.ID {
		// metadata describes the previous selection
		s.metadata = nil
	}
	selected := found.Clone()
	s.selected = &selected
	s.lastError = nil
	return nil
}

// AddEvidence uploads and appends a new pending evidence item. On upload failure
// the evidence list is left untouched.
func (s *Session) AddEvidence(ctx context.Context, input models.EvidenceInput) (models.EvidenceSubmission, error) {
	if !input.Type.Valid() {
		return models.EvidenceSubmission{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown evidence type %q", input.Type))
	}
	if strings.TrimSpace(input.Title) == "" {
		return models.EvidenceSubmission{}, appErrors.Clone(appErrors.ErrValidation, "evidence title is required")
	}

	item := models.EvidenceSubmission{
		ID:          uuid.NewString(),
		Type:        input.Type,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		URL:         input.URL,
		UploadedAt:  s.now().UTC(),
		Status:      models.EvidenceStatusPending,
	}

	s.mu.Lock()
	s.pending++
	s.lastError = nil
	generation := s.generation
	s.mu.Unlock()

	err := s.uploader.Upload(ctx, s.ownerID, &item, input.Attachment)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	s.touch()
	if err != nil {
		s.logger.Warn("evidence upload failed", zap.String("evidence_type", string(input.Type)), zap.Error(err))
		s.setError("Failed to upload evidence")
		return models.EvidenceSubmission{}, wrapUploadError(err)
	}
	if generation != s.generation {
		return models.EvidenceSubmission{}, appErrors.Clone(appErrors.ErrConflict, "session was reset during upload")
	}
	s.evidence = append(s.evidence, item)
	return item.Clone(), nil
}

// RemoveEvidence deletes an evidence item. It reports whether the item existed.
func (s *Session) RemoveEvidence(evidenceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.evidence {
		if s.evidence[i].ID == evidenceID {
			s.evidence = append(s.evidence[:i], s.evidence[i+1:]...)
			s.touch()
			return true
		}
	}
	return false
}

// UpdateEvidence merges the non-nil patch fields into an evidence item.
func (s *Session) UpdateEvidence(evidenceID string, patch models.EvidencePatch) (models.EvidenceSubmission, bool, error) {
	if patch.Type != nil && !patch.Type.Valid() {
		return models.EvidenceSubmission{}, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown evidence type %q", *patch.Type))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.findEvidence(evidenceID)
	if item == nil {
		return models.EvidenceSubmission{}, false, nil
	}
	if patch.Type != nil {
		item.Type = *patch.Type
	}
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.URL != nil {
		url := *patch.URL
		item.URL = &url
	}
	s.touch()
	return item.Clone(), true, nil
}

// VerifyEvidence runs verification for an item and returns its final state.
// Verifier failures end in the rejected status and are never returned.
func (s *Session) VerifyEvidence(ctx context.Context, evidenceID string) (models.EvidenceSubmission, bool) {
	if _, ok := s.BeginVerification(evidenceID); !ok {
		return s.Evidence(evidenceID)
	}
	return s.CompleteVerification(ctx, evidenceID)
}

// BeginVerification moves a pending or rejected item into the verifying status.
// Verified items keep their verification record.
func (s *Session) BeginVerification(evidenceID string) (models.EvidenceSubmission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.findEvidence(evidenceID)
	if item == nil || (item.Status != models.EvidenceStatusPending && item.Status != models.EvidenceStatusRejected) {
		return models.EvidenceSubmission{}, false
	}
	item.Status = models.EvidenceStatusVerifying
	item.VerifiedBy = nil
	item.VerificationNotes = nil
	item.VerifiedAt = nil
	s.touch()
	return item.Clone(), true
}

// CompleteVerification asks the verifier about an item in the verifying status and stores the outcome.
func (s *Session) CompleteVerification(ctx context.Context, evidenceID string) (models.EvidenceSubmission, bool) {
	s.mu.Lock()
	item := s.findEvidence(evidenceID)
	if item == nil || item.Status != models.EvidenceStatusVerifying {
		s.mu.Unlock()
		return models.EvidenceSubmission{}, false
	}
	snapshot := item.Clone()
	s.mu.Unlock()

	outcome, err := s.verifier.Verify(ctx, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	item = s.findEvidence(evidenceID)
	if item == nil || item.Status != models.EvidenceStatusVerifying {
		return models.EvidenceSubmission{}, false
	}
	if err != nil {
		notes := fmt.Sprintf("Verification failed: %v", err)
		item.Status = models.EvidenceStatusRejected
		item.VerificationNotes = &notes
		s.metrics.RecordEvidenceVerification(string(models.EvidenceStatusRejected))
		s.logger.Info("evidence rejected", zap.String("evidence_id", evidenceID), zap.Error(err))
	} else {
		verifiedAt := s.now().UTC()
		verifiedBy := outcome.VerifiedBy
		notes := outcome.Notes
		item.Status = models.EvidenceStatusVerified
		item.VerifiedBy = &verifiedBy
		item.VerificationNotes = &notes
		item.VerifiedAt = &verifiedAt
		s.metrics.RecordEvidenceVerification(string(models.EvidenceStatusVerified))
	}
	s.touch()
	return item.Clone(), true
}

// Evidence returns a copy of one evidence item.
func (s *Session) Evidence(evidenceID string) (models.EvidenceSubmission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.findEvidence(evidenceID)
	if item == nil {
		return models.EvidenceSubmission{}, false
	}
	return item.Clone(), true
}

// GenerateMetadata builds the credential metadata from the selection and a copy of the verified evidence.
func (s *Session) GenerateMetadata() (models.CredentialMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return models.CredentialMetadata{}, appErrors.ErrNoSkillSelected
	}
	skill := s.selected

	verified := make([]models.EvidenceSubmission, 0, len(s.evidence))
	for _, item := range s.evidence {
		if item.Status == models.EvidenceStatusVerified {
			verified = append(verified, item.Clone())
		}
	}
	milestones := 0
	for _, m := range skill.Milestones {
		if m.Verified {
			milestones++
		}
	}

	metadata := models.CredentialMetadata{
		Name:          fmt.Sprintf("%s Skill Credential", skill.Name),
		Description:   fmt.Sprintf("Verified %s proficiency at level %d, backed by %d verified evidence items.", skill.Name, skill.Level, len(verified)),
		SkillID:       skill.ID,
		SkillName:     skill.Name,
		SkillLevel:    skill.Level,
		SkillCategory: skill.Category,
		Attributes: []models.MetadataAttribute{
			{TraitType: "Skill", Value: skill.Name},
			{TraitType: "Category", Value: string(skill.Category)},
			{TraitType: "Level", Value: skill.Level, DisplayType: "number"},
			{TraitType: "Verified Milestones", Value: milestones, DisplayType: "number"},
			{TraitType: "Evidence Items", Value: len(verified), DisplayType: "number"},
			{TraitType: "Issued", Value: s.now().UTC().Unix(), DisplayType: "date"},
		},
		Evidence: verified,
		Issuer:   s.cfg.Issuer,
	}
	s.metadata = &metadata
	s.touch()
	return metadata.Clone(), nil
}

// MintCredential runs the transaction stages to completion or failure. Caller
// cancellation is ignored once the attempt has started.
func (s *Session) MintCredential(ctx context.Context) (*models.MintResult, error) {
	ctx = context.WithoutCancel(ctx)

	tx, err := s.startTransaction()
	if err != nil {
		return nil, err
	}
	s.notify(ctx, tx)
	started := s.now()

	result, err := s.runTransaction(ctx, tx)
	if err != nil {
		failed := s.failTransaction(err)
		s.notify(ctx, failed)
		s.metrics.RecordMintOutcome(string(models.MintingStatusFailed), time.Since(started))
		s.logger.Error("credential mint failed", zap.String("transaction_id", tx.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrMintFailed.Code, appErrors.ErrMintFailed.Status, appErrors.ErrMintFailed.Message)
	}
	s.metrics.RecordMintOutcome(string(models.MintingStatusSuccess), time.Since(started))
	s.logger.Info("credential minted",
		zap.String("transaction_id", tx.ID),
		zap.String("skill", result.Credential.SkillName),
		zap.String("token_id", result.Credential.TokenID),
	)
	return result, nil
}

func (s *Session) startTransaction() (models.MintingTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.minting:
		return models.MintingTransaction{}, appErrors.ErrMintInProgress
	case s.pending > 0:
		return models.MintingTransaction{}, appErrors.Clone(appErrors.ErrSessionBusy, "session is loading, try again once it settles")
	case s.selected == nil || s.metadata == nil:
		s.setError("Missing required data for minting")
		return models.MintingTransaction{}, appErrors.ErrMissingMintData
	case s.transaction != nil && s.transaction.Status.Terminal():
		return models.MintingTransaction{}, appErrors.ErrResetRequired
	}

	now := s.now().UTC()
	tx := models.MintingTransaction{
		ID:            uuid.NewString(),
		SessionID:     s.id,
		OwnerID:       s.ownerID,
		Status:        models.MintingStatusPreparing,
		Network:       s.cfg.Network,
		WalletAddress: s.cfg.WalletAddress,
		Metadata:      s.metadata.Clone(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.transaction = &tx
	s.credential = nil
	s.minting = true
	s.pending++
	s.lastError = nil
	s.touch()
	return tx.Clone(), nil
}

func (s *Session) runTransaction(ctx context.Context, tx models.MintingTransaction) (*models.MintResult, error) {
	stage := models.MintingStatusPreparing
	stageStarted := s.now()
	advance := func(next models.MintingStatus) {
		s.metrics.ObserveMintStage(string(stage), time.Since(stageStarted))
		stage, stageStarted = next, s.now()
		s.updateTransaction(ctx, func(t *models.MintingTransaction) { t.Status = next })
	}

	if err := s.delayer.Sleep(ctx, s.cfg.PreparationDelay); err != nil {
		return nil, err
	}

	advance(models.MintingStatusUploadingMetadata)
	ipfsHash, ipfsURL, err := s.chain.UploadMetadata(ctx, tx.Metadata)
	if err != nil {
		return nil, fmt.Errorf("upload metadata: %w", err)
	}
	s.updateTransaction(ctx, func(t *models.MintingTransaction) {
		t.IPFSHash = &ipfsHash
		t.IPFSURL = &ipfsURL
	})

	advance(models.MintingStatusWaitingApproval)
	if err := s.delayer.Sleep(ctx, s.cfg.ApprovalDelay); err != nil {
		return nil, err
	}

	advance(models.MintingStatusMinting)
	txHash, err := s.chain.SubmitMint(ctx, tx.WalletAddress, ipfsURL)
	if err != nil {
		return nil, fmt.Errorf("submit mint: %w", err)
	}
	s.updateTransaction(ctx, func(t *models.MintingTransaction) { t.TransactionHash = &txHash })

	advance(models.MintingStatusConfirming)
	if err := s.delayer.Sleep(ctx, s.cfg.ConfirmDelay); err != nil {
		return nil, err
	}
	receipt, err := s.chain.Confirm(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("confirm transaction: %w", err)
	}
	if receipt.ContractAddress == "" {
		receipt.ContractAddress = s.cfg.ContractAddress
	}

	credential := s.buildCredential(tx.Metadata, receipt, txHash, ipfsURL)
	if s.signer != nil {
		proof, err := s.signer.Sign(credential)
		if err != nil {
			return nil, fmt.Errorf("sign credential: %w", err)
		}
		credential.Proof = proof
	}

	s.metrics.ObserveMintStage(string(stage), time.Since(stageStarted))
	final := s.completeTransaction(receipt, credential)
	s.notify(ctx, final)

	return &models.MintResult{
		Success:     true,
		Transaction: final,
		Credential:  &credential,
		Message:     fmt.Sprintf("%s credential minted successfully", credential.SkillName),
	}, nil
}

func (s *Session) buildCredential(metadata models.CredentialMetadata, receipt models.MintReceipt, txHash, metadataURL string) models.MintedCredential {
	image := fmt.Sprintf("%s/%s.png", strings.TrimRight(s.cfg.ImageBaseURL, "/"), metadata.SkillID)
	externalURL := metadataURL
	if s.cfg.IssuerURL != "" {
		externalURL = fmt.Sprintf("%s/credentials/%s", strings.TrimRight(s.cfg.IssuerURL, "/"), receipt.TokenID)
	}
	attributes := append([]models.MetadataAttribute(nil), metadata.Attributes...)
	attributes = append(attributes,
		models.MetadataAttribute{TraitType: "Network", Value: s.cfg.Network},
		models.MetadataAttribute{TraitType: "Token Standard", Value: s.cfg.TokenStandard},
	)
	return models.MintedCredential{
		ID:              uuid.NewString(),
		TokenID:         receipt.TokenID,
		ContractAddress: receipt.ContractAddress,
		TokenStandard:   s.cfg.TokenStandard,
		Network:         s.cfg.Network,
		Name:            metadata.Name,
		Description:     metadata.Description,
		SkillName:       metadata.SkillName,
		SkillLevel:      metadata.SkillLevel,
		Category:        metadata.SkillCategory,
		Image:           image,
		Metadata: models.CredentialMetadataBlock{
			Name:        metadata.Name,
			Description: metadata.Description,
			Image:       image,
			ExternalURL: externalURL,
			Attributes:  attributes,
		},
		Issuer:             models.CredentialIssuer{Name: metadata.Issuer, URL: s.cfg.IssuerURL},
		OwnerID:            s.ownerID,
		VerificationStatus: string(models.EvidenceStatusVerified),
		TransactionHash:    txHash,
		IssuedAt:           s.now().UTC(),
	}
}

func (s *Session) updateTransaction(ctx context.Context, mutate func(*models.MintingTransaction)) {
	s.mu.Lock()
	if s.transaction == nil {
		s.mu.Unlock()
		return
	}
	mutate(s.transaction)
	s.transaction.UpdatedAt = s.now().UTC()
	s.touch()
	snapshot := s.transaction.Clone()
	s.mu.Unlock()
	s.notify(ctx, snapshot)
}

func (s *Session) completeTransaction(receipt models.MintReceipt, credential models.MintedCredential) models.MintingTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	blockNumber := receipt.BlockNumber
	tokenID := receipt.TokenID
	contract := receipt.ContractAddress
	gas := receipt.Gas
	s.transaction.Status = models.MintingStatusSuccess
	s.transaction.BlockNumber = &blockNumber
	s.transaction.TokenID = &tokenID
	s.transaction.ContractAddress = &contract
	s.transaction.Gas = &gas
	s.transaction.UpdatedAt = s.now().UTC()
	stored := credential.Clone()
	s.credential = &stored
	s.minting = false
	s.pending--
	s.touch()
	return s.transaction.Clone()
}

func (s *Session) failTransaction(cause error) models.MintingTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := cause.Error()
	s.transaction.Status = models.MintingStatusFailed
	s.transaction.Error = &msg
	s.transaction.UpdatedAt = s.now().UTC()
	s.setError(msg)
	s.minting = false
	s.pending--
	s.touch()
	return s.transaction.Clone()
}

// Reset returns the wizard to its initial state. Loaded skills are kept since the
// catalog does not change within a session. A mint in flight cannot be reset.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.minting {
		return appErrors.ErrMintInProgress
	}
	s.step = models.MintingStepSkillSelection
	s.selected = nil
	s.evidence = []models.EvidenceSubmission{}
	s.metadata = nil
	s.transaction = nil
	s.credential = nil
	s.lastError = nil
	s.generation++
	s.touch()
	return nil
}

// MintedCredential returns the credential and transaction of a successful attempt.
func (s *Session) MintedCredential() (models.MintedCredential, models.MintingTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.credential == nil || s.transaction == nil || s.transaction.Status != models.MintingStatusSuccess {
		return models.MintedCredential{}, models.MintingTransaction{}, appErrors.ErrMintNotFinished
	}
	return s.credential.Clone(), s.transaction.Clone(), nil
}

// Snapshot returns a copy of the full session state.
func (s *Session) Snapshot() models.MintingSessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := models.MintingSessionState{
		ID:              s.id,
		OwnerID:         s.ownerID,
		CurrentStep:     s.step,
		AvailableSkills: cloneSkills(s.available),
		Evidence:        make([]models.EvidenceSubmission, len(s.evidence)),
		MintingStatus:   models.MintingStatusIdle,
		Loading:         s.pending > 0,
		CreatedAt:       s.createdAt,
		UpdatedAt:       s.updatedAt,
	}
	for i, item := range s.evidence {
		state.Evidence[i] = item.Clone()
	}
	if s.selected != nil {
		selected := s.selected.Clone()
		state.SelectedSkill = &selected
		validation := ValidateEvidenceRequirements(s.evidence, selected.RequiredEvidence)
		state.EvidenceValidation = &validation
		state.EvidenceCompletion = CalculateEvidenceCompletion(s.evidence, selected.RequiredEvidence)
	}
	if s.metadata != nil {
		metadata := s.metadata.Clone()
		state.Metadata = &metadata
	}
	if s.transaction != nil {
		tx := s.transaction.Clone()
		state.Transaction = &tx
		state.MintingStatus = tx.Status
	}
	if s.credential != nil {
		credential := s.credential.Clone()
		state.Credential = &credential
	}
	if s.lastError != nil {
		msg := *s.lastError
		state.Error = &msg
	}
	return state
}

func (s *Session) notify(ctx context.Context, tx models.MintingTransaction) {
	if s.observer == nil {
		return
	}
	s.observer(ctx, tx)
}

func (s *Session) findEvidence(evidenceID string) *models.EvidenceSubmission {
	for i := range s.evidence {
		if s.evidence[i].ID == evidenceID {
			return &s.evidence[i]
		}
	}
	return nil
}

func (s *Session) setError(msg string) {
	s.lastError = &msg
}

func (s *Session) touch() {
	s.updatedAt = s.now().UTC()
}

func cloneSkills(skills []models.MintableSkill) []models.MintableSkill {
	out := make([]models.MintableSkill, len(skills))
	for i, skill := range skills {
		out[i] = skill.Clone()
	}
	return out
}

func wrapUploadError(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Code == appErrors.ErrValidation.Code {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrEvidenceUpload.Code, appErrors.ErrEvidenceUpload.Status, appErrors.ErrEvidenceUpload.Message)
}
