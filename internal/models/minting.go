package models

import "time"

// MintingStep is one page of the minting wizard, in display order.
type MintingStep string

const (
	MintingStepSkillSelection       MintingStep = "skill_selection"
	MintingStepEvidenceVerification MintingStep = "evidence_verification"
	MintingStepConfirmation         MintingStep = "confirmation"
	MintingStepMinting              MintingStep = "minting"
	MintingStepSuccess              MintingStep = "success"
)

// MintingSteps is the fixed wizard ordering.
var MintingSteps = []MintingStep{
	MintingStepSkillSelection,
	MintingStepEvidenceVerification,
	MintingStepConfirmation,
	MintingStepMinting,
	MintingStepSuccess,
}

// Index returns the position of the step in MintingSteps, or -1.
func (s MintingStep) Index() int {
	for i, step := range MintingSteps {
		if step == s {
			return i
		}
	}
	return -1
}

// Valid reports whether the step is part of the wizard.
func (s MintingStep) Valid() bool {
	return s.Index() >= 0
}

// MintingStatus is the state of a minting transaction.
type MintingStatus string

const (
	MintingStatusIdle              MintingStatus = "idle"
	MintingStatusPreparing         MintingStatus = "preparing"
	MintingStatusUploadingMetadata MintingStatus = "uploading_metadata"
	MintingStatusWaitingApproval   MintingStatus = "waiting_approval"
	MintingStatusMinting           MintingStatus = "minting"
	MintingStatusConfirming        MintingStatus = "confirming"
	MintingStatusSuccess           MintingStatus = "success"
	MintingStatusFailed            MintingStatus = "failed"
)

// Terminal reports whether no further transition can happen.
func (s MintingStatus) Terminal() bool {
	switch s {
	case MintingStatusSuccess, MintingStatusFailed:
		return true
	case MintingStatusIdle, MintingStatusPreparing, MintingStatusUploadingMetadata,
		MintingStatusWaitingApproval, MintingStatusMinting, MintingStatusConfirming:
		return false
	default:
		return false
	}
}

// MetadataAttribute is an NFT style trait/value pair.
type MetadataAttribute struct {
	TraitType   string      `json:"trait_type"`
	Value       interface{} `json:"value"`
	DisplayType string      `json:"display_type,omitempty"`
}

// CredentialMetadata describes the credential about to be minted.
type CredentialMetadata struct {
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	SkillID       string               `json:"skillId"`
	SkillName     string               `json:"skillName"`
	SkillLevel    int                  `json:"skillLevel"`
	SkillCategory SkillCategory        `json:"skillCategory"`
	Attributes    []MetadataAttribute  `json:"attributes"`
	Evidence      []EvidenceSubmission `json:"evidence"`
	Issuer        string               `json:"issuer"`
}

// Clone returns a deep copy of the metadata.
func (m CredentialMetadata) Clone() CredentialMetadata {
	out := m
	out.Attributes = append([]MetadataAttribute(nil), m.Attributes...)
	out.Evidence = make([]EvidenceSubmission, len(m.Evidence))
	for i, ev := range m.Evidence {
		out.Evidence[i] = ev.Clone()
	}
	return out
}

// GasMetrics reports the (simulated) execution cost of a mint.
type GasMetrics struct {
	GasUsed      uint64  `json:"gasUsed"`
	GasPriceGwei float64 `json:"gasPriceGwei"`
	TotalCostEth float64 `json:"totalCostEth"`
}

// MintReceipt is the confirmation data returned by the chain.
type MintReceipt struct {
	TokenID         string
	BlockNumber     uint64
	ContractAddress string
	Gas             GasMetrics
}

// MintingTransaction tracks one minting attempt through its stages.
type MintingTransaction struct {
	ID              string             `json:"id"`
	SessionID       string             `json:"sessionId"`
	OwnerID         string             `json:"ownerId"`
	Status          MintingStatus      `json:"status"`
	Network         string             `json:"network"`
	WalletAddress   string             `json:"walletAddress"`
	Metadata        CredentialMetadata `json:"metadata"`
	IPFSHash        *string            `json:"ipfsHash,omitempty"`
	IPFSURL         *string            `json:"ipfsUrl,omitempty"`
	TransactionHash *string            `json:"transactionHash,omitempty"`
	BlockNumber     *uint64            `json:"blockNumber,omitempty"`
	TokenID         *string            `json:"tokenId,omitempty"`
	ContractAddress *string            `json:"contractAddress,omitempty"`
	Gas             *GasMetrics        `json:"gas,omitempty"`
	Error           *string            `json:"error,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// Clone returns a deep copy of the transaction record.
func (t MintingTransaction) Clone() MintingTransaction {
	out := t
	out.Metadata = t.Metadata.Clone()
	out.IPFSHash = cloneString(t.IPFSHash)
	out.IPFSURL = cloneString(t.IPFSURL)
	out.TransactionHash = cloneString(t.TransactionHash)
	out.TokenID = cloneString(t.TokenID)
	out.ContractAddress = cloneString(t.ContractAddress)
	out.Error = cloneString(t.Error)
	if t.BlockNumber != nil {
		n := *t.BlockNumber
		out.BlockNumber = &n
	}
	if t.Gas != nil {
		gas := *t.Gas
		out.Gas = &gas
	}
	return out
}

// CredentialIssuer identifies who issued a credential.
type CredentialIssuer struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CredentialMetadataBlock is the on-chain metadata document of a minted credential.
type CredentialMetadataBlock struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	ExternalURL string              `json:"external_url"`
	Attributes  []MetadataAttribute `json:"attributes"`
}

// MintedCredential is the final credential produced by a successful mint.
type MintedCredential struct {
	ID                 string                  `json:"id"`
	TokenID            string                  `json:"tokenId"`
	ContractAddress    string                  `json:"contractAddress"`
	TokenStandard      string                  `json:"tokenStandard"`
	Network            string                  `json:"network"`
	Name               string                  `json:"name"`
	Description        string                  `json:"description"`
	SkillName          string                  `json:"skillName"`
	SkillLevel         int                     `json:"skillLevel"`
	Category           SkillCategory           `json:"category"`
	Image              string                  `json:"image"`
	Metadata           CredentialMetadataBlock `json:"metadata"`
	Issuer             CredentialIssuer        `json:"issuer"`
	OwnerID            string                  `json:"ownerId"`
	VerificationStatus string                  `json:"verificationStatus"`
	TransactionHash    string                  `json:"transactionHash"`
	Proof              string                  `json:"proof,omitempty"`
	IssuedAt           time.Time               `json:"issuedAt"`
}

// Clone returns a deep copy of the credential.
func (c MintedCredential) Clone() MintedCredential {
	out := c
	out.Metadata.Attributes = append([]MetadataAttribute(nil), c.Metadata.Attributes...)
	return out
}

// MintResult is returned by a minting attempt.
type MintResult struct {
	Success     bool               `json:"success"`
	Transaction MintingTransaction `json:"transaction"`
	Credential  *MintedCredential  `json:"credential,omitempty"`
	Message     string             `json:"message"`
}

// MintTransactionFilter constrains history listing queries.
type MintTransactionFilter struct {
	OwnerID string
	Status  []MintingStatus
	Limit   int
	Offset  int
}

// MintingSessionState is a point-in-time copy of a minting session.
type MintingSessionState struct {
	ID                 string               `json:"id"`
	OwnerID            string               `json:"ownerId"`
	CurrentStep        MintingStep          `json:"currentStep"`
	AvailableSkills    []MintableSkill      `json:"availableSkills"`
	SelectedSkill      *MintableSkill       `json:"selectedSkill"`
	Evidence           []EvidenceSubmission `json:"evidence"`
	EvidenceValidation *EvidenceValidation  `json:"evidenceValidation,omitempty"`
	EvidenceCompletion int                  `json:"evidenceCompletion"`
	Metadata           *CredentialMetadata  `json:"metadata"`
	Transaction        *MintingTransaction  `json:"transaction"`
	Credential         *MintedCredential    `json:"credential,omitempty"`
	MintingStatus      MintingStatus        `json:"mintingStatus"`
	Loading            bool                 `json:"loading"`
	Error              *string              `json:"error"`
	CreatedAt          time.Time            `json:"createdAt"`
	UpdatedAt          time.Time            `json:"updatedAt"`
}
