package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/chainsim"
)

// SkillSource returns the mintable skills of an owner, eligibility included.
type SkillSource interface {
	ListMintableSkills(ctx context.Context, ownerID string) ([]models.MintableSkill, error)
}

// EvidenceUploader persists an evidence item before it joins a session. Implementations
// may fill in FileName and URL on the submission.
type EvidenceUploader interface {
	Upload(ctx context.Context, ownerID string, item *models.EvidenceSubmission, attachment *models.EvidenceAttachment) error
}

// EvidenceVerifier reviews one evidence item. Returning an error rejects the item.
type EvidenceVerifier interface {
	Verify(ctx context.Context, item models.EvidenceSubmission) (models.VerificationOutcome, error)
}

// ChainSubmitter performs the network side of a mint.
type ChainSubmitter interface {
	UploadMetadata(ctx context.Context, metadata models.CredentialMetadata) (hash string, uri string, err error)
	SubmitMint(ctx context.Context, walletAddress, metadataURI string) (txHash string, err error)
	Confirm(ctx context.Context, txHash string) (models.MintReceipt, error)
}

// Delayer models latency between stages.
type Delayer interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TimerDelayer waits on a real timer.
type TimerDelayer struct{}

// Sleep blocks for d or until ctx is done.
func (TimerDelayer) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoopDelayer returns immediately.
type NoopDelayer struct{}

// Sleep implements Delayer.
func (NoopDelayer) Sleep(context.Context, time.Duration) error { return nil }

// SimulatedSkillCatalog serves a fixed in-memory catalog.
type SimulatedSkillCatalog struct {
	delayer Delayer
	delay   time.Duration
	now     func() time.Time
}

// NewSimulatedSkillCatalog constructs the demo catalog source.
func NewSimulatedSkillCatalog(delayer Delayer, delay time.Duration) *SimulatedSkillCatalog {
	if delayer == nil {
		delayer = NoopDelayer{}
	}
	return &SimulatedSkillCatalog{delayer: delayer, delay: delay, now: time.Now}
}

// ListMintableSkills returns the catalog after the configured latency.
func (c *SimulatedSkillCatalog) ListMintableSkills(ctx context.Context, ownerID string) ([]models.MintableSkill, error) {
	if err := c.delayer.Sleep(ctx, c.delay); err != nil {
		return nil, err
	}
	return simulatedSkills(c.now().UTC()), nil
}

// DemoSkills returns the built-in catalog, used to seed a database.
func DemoSkills() []models.MintableSkill {
	return simulatedSkills(time.Now().UTC())
}

func simulatedSkills(now time.Time) []models.MintableSkill {
	day := 24 * time.Hour
	solidityReason := "Smart contract security milestone is awaiting verification"
	return []models.MintableSkill{
		{
			ID:          "skill-react",
			Name:        "React.js",
			Category:    models.SkillCategoryFrontend,
			Level:       92,
			Description: "Component architecture, hooks and state management for production React applications.",
			Milestones: []models.Milestone{
				{ID: "ms-react-1", Title: "Hooks Mastery", Description: "Built custom hooks for data fetching and forms", CompletedAt: now.Add(-60 * day), XPAwarded: 500, Verified: true},
				{ID: "ms-react-2", Title: "Performance Tuning", Description: "Profiled and optimised a large component tree", CompletedAt: now.Add(-30 * day), XPAwarded: 750, Verified: true},
				{ID: "ms-react-3", Title: "Production Deployment", Description: "Shipped a React application to production", CompletedAt: now.Add(-7 * day), XPAwarded: 1000, Verified: true},
			},
			RequiredEvidence: []models.EvidenceRequirement{
				{Type: models.EvidenceTypeProject, Required: true, Description: "A deployed project built with React", MinCount: 1},
				{Type: models.EvidenceTypeGitHub, Required: true, Description: "A public repository with meaningful React contributions", MinCount: 1},
				{Type: models.EvidenceTypeCertificate, Required: false, Description: "Course or vendor certificate"},
			},
			EstimatedValue: 250,
			Eligible:       true,
		},
		{
			ID:          "skill-node",
			Name:        "Node.js",
			Category:    models.SkillCategoryBackend,
			Level:       85,
			Description: "Event driven services, REST APIs and background workers on Node.js.",
			Milestones: []models.Milestone{
				{ID: "ms-node-1", Title: "REST API Design", Description: "Designed and documented a versioned REST API", CompletedAt: now.Add(-90 * day), XPAwarded: 600, Verified: true},
				{ID: "ms-node-2", Title: "Async Patterns", Description: "Implemented streaming and queue based processing", CompletedAt: now.Add(-45 * day), XPAwarded: 650, Verified: true},
			},
			RequiredEvidence: []models.EvidenceRequirement{
				{Type: models.EvidenceTypeProject, Required: true, Description: "A backend service you built"},
				{Type: models.EvidenceTypeAssessment, Required: false, Description: "Skill assessment score"},
			},
			EstimatedValue: 200,
			Eligible:       true,
		},
		{
			ID:          "skill-dataviz",
			Name:        "Data Visualization",
			Category:    models.SkillCategoryData,
			Level:       78,
			Description: "Communicating insights with charts, dashboards and interactive graphics.",
			Milestones: []models.Milestone{
				{ID: "ms-dv-1", Title: "Dashboard Delivery", Description: "Delivered an analytics dashboard", CompletedAt: now.Add(-20 * day), XPAwarded: 400, Verified: true},
			},
			RequiredEvidence: []models.EvidenceRequirement{
				{Type: models.EvidenceTypeProject, Required: true, Description: "Two published visualisation projects", MinCount: 2},
			},
			EstimatedValue: 150,
			Eligible:       true,
		},
		{
			ID:          "skill-solidity",
			Name:        "Solidity",
			Category:    models.SkillCategoryBlockchain,
			Level:       64,
			Description: "Smart contract development for EVM networks.",
			Milestones: []models.Milestone{
				{ID: "ms-sol-1", Title: "First Contract", Description: "Deployed an ERC-20 token to a testnet", CompletedAt: now.Add(-14 * day), XPAwarded: 500, Verified: true},
				{ID: "ms-sol-2", Title: "Security Audit", Description: "Audited a contract for re-entrancy issues", CompletedAt: now.Add(-2 * day), XPAwarded: 800, Verified: false},
			},
			RequiredEvidence: []models.EvidenceRequirement{
				{Type: models.EvidenceTypeGitHub, Required: true, Description: "Repository with audited contracts"},
				{Type: models.EvidenceTypeAssessment, Required: true, Description: "Security assessment result"},
			},
			EstimatedValue:      300,
			Eligible:            false,
			IneligibilityReason: &solidityReason,
		},
	}
}

// SimulatedEvidenceUploader only models upload latency.
type SimulatedEvidenceUploader struct {
	delayer Delayer
	delay   time.Duration
}

// NewSimulatedEvidenceUploader constructs a latency-only uploader.
func NewSimulatedEvidenceUploader(delayer Delayer, delay time.Duration) *SimulatedEvidenceUploader {
	if delayer == nil {
		delayer = NoopDelayer{}
	}
	return &SimulatedEvidenceUploader{delayer: delayer, delay: delay}
}

// Upload waits for the configured latency and records the attachment name.
func (u *SimulatedEvidenceUploader) Upload(ctx context.Context, ownerID string, item *models.EvidenceSubmission, attachment *models.EvidenceAttachment) error {
	if err := u.delayer.Sleep(ctx, u.delay); err != nil {
		return err
	}
	if attachment != nil && attachment.FileName != "" {
		name := attachment.FileName
		item.FileName = &name
	}
	return nil
}

// SimulatedVerifierIdentity is reported as verifier for automatically accepted evidence.
const SimulatedVerifierIdentity = "SkillFlow AI Verifier"

// SimulatedEvidenceVerifier accepts any item after the configured latency.
type SimulatedEvidenceVerifier struct {
	delayer Delayer
	delay   time.Duration
}

// NewSimulatedEvidenceVerifier constructs the automatic verifier.
func NewSimulatedEvidenceVerifier(delayer Delayer, delay time.Duration) *SimulatedEvidenceVerifier {
	if delayer == nil {
		delayer = NoopDelayer{}
	}
	return &SimulatedEvidenceVerifier{delayer: delayer, delay: delay}
}

// Verify implements EvidenceVerifier.
func (v *SimulatedEvidenceVerifier) Verify(ctx context.Context, item models.EvidenceSubmission) (models.VerificationOutcome, error) {
	if err := v.delayer.Sleep(ctx, v.delay); err != nil {
		return models.VerificationOutcome{}, err
	}
	return models.VerificationOutcome{
		VerifiedBy: SimulatedVerifierIdentity,
		Notes:      fmt.Sprintf("Automated review passed for %s evidence %q", item.Type, item.Title),
	}, nil
}

// Fixed receipt values reported by the simulated chain.
const (
	SimulatedBlockNumber  uint64  = 18234567
	SimulatedGasUsed      uint64  = 142850
	SimulatedGasPriceGwei float64 = 30
)

// SimulatedChain produces deterministic looking identifiers without any network access.
type SimulatedChain struct {
	gateway         string
	contractAddress string
	nonce           uint64
	now             func() time.Time
}

// NewSimulatedChain constructs a simulated submitter for the given IPFS gateway and contract.
func NewSimulatedChain(gateway, contractAddress string) *SimulatedChain {
	if gateway == "" {
		gateway = "https://ipfs.io/ipfs/"
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return &SimulatedChain{gateway: gateway, contractAddress: contractAddress, now: time.Now}
}

// UploadMetadata derives a CIDv0 from the JSON encoded metadata.
func (c *SimulatedChain) UploadMetadata(ctx context.Context, metadata models.CredentialMetadata) (string, string, error) {
	payload, err := json.Marshal(metadata)
	if err != nil {
		return "", "", fmt.Errorf("encode metadata: %w", err)
	}
	hash := chainsim.ContentID(payload)
	return hash, c.gateway + hash, nil
}

// SubmitMint returns a unique Keccak-256 transaction hash.
func (c *SimulatedChain) SubmitMint(ctx context.Context, walletAddress, metadataURI string) (string, error) {
	if walletAddress == "" || metadataURI == "" {
		return "", fmt.Errorf("wallet address and metadata uri required")
	}
	nonce := atomic.AddUint64(&c.nonce, 1)
	return chainsim.Keccak256(walletAddress, metadataURI, strconv.FormatUint(nonce, 10), strconv.FormatInt(c.now().UnixNano(), 10)), nil
}

// Confirm returns the fixed receipt for txHash.
func (c *SimulatedChain) Confirm(ctx context.Context, txHash string) (models.MintReceipt, error) {
	if txHash == "" {
		return models.MintReceipt{}, fmt.Errorf("transaction hash required")
	}
	gas := models.GasMetrics{
		GasUsed:      SimulatedGasUsed,
		GasPriceGwei: SimulatedGasPriceGwei,
		TotalCostEth: float64(SimulatedGasUsed) * SimulatedGasPriceGwei / 1e9,
	}
	return models.MintReceipt{
		TokenID:         chainsim.TokenID(txHash),
		BlockNumber:     SimulatedBlockNumber,
		ContractAddress: c.contractAddress,
		Gas:             gas,
	}, nil
}
