package models

import "time"

// EvidenceType enumerates the kinds of proof a learner can submit.
type EvidenceType string

const (
	EvidenceTypeProject     EvidenceType = "project"
	EvidenceTypeGitHub      EvidenceType = "github"
	EvidenceTypeCertificate EvidenceType = "certificate"
	EvidenceTypeAssessment  EvidenceType = "assessment"
	EvidenceTypeOther       EvidenceType = "other"
)

// Valid reports whether the type is a known value.
func (t EvidenceType) Valid() bool {
	switch t {
	case EvidenceTypeProject, EvidenceTypeGitHub, EvidenceTypeCertificate, EvidenceTypeAssessment, EvidenceTypeOther:
		return true
	default:
		return false
	}
}

// EvidenceStatus captures the verification lifecycle of a submission.
type EvidenceStatus string

const (
	EvidenceStatusPending   EvidenceStatus = "pending"
	EvidenceStatusVerifying EvidenceStatus = "verifying"
	EvidenceStatusVerified  EvidenceStatus = "verified"
	EvidenceStatusRejected  EvidenceStatus = "rejected"
)

// EvidenceSubmission is a user provided proof item.
type EvidenceSubmission struct {
	ID                string         `json:"id"`
	Type              EvidenceType   `json:"type"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	URL               *string        `json:"url,omitempty"`
	FileName          *string        `json:"fileName,omitempty"`
	UploadedAt        time.Time      `json:"uploadedAt"`
	Status            EvidenceStatus `json:"verificationStatus"`
	VerifiedBy        *string        `json:"verifiedBy,omitempty"`
	VerificationNotes *string        `json:"verificationNotes,omitempty"`
	VerifiedAt        *time.Time     `json:"verifiedAt,omitempty"`
}

// Clone returns a deep copy of the submission.
func (e EvidenceSubmission) Clone() EvidenceSubmission {
	out := e
	out.URL = cloneString(e.URL)
	out.FileName = cloneString(e.FileName)
	out.VerifiedBy = cloneString(e.VerifiedBy)
	out.VerificationNotes = cloneString(e.VerificationNotes)
	if e.VerifiedAt != nil {
		ts := *e.VerifiedAt
		out.VerifiedAt = &ts
	}
	return out
}

// EvidenceAttachment carries an uploaded file for an evidence item.
type EvidenceAttachment struct {
	FileName string
	MimeType string
	Data     []byte
}

// EvidenceInput is the user supplied part of a new submission.
type EvidenceInput struct {
	Type        EvidenceType
	Title       string
	Description string
	URL         *string
	Attachment  *EvidenceAttachment
}

// EvidencePatch lists the mutable fields of a submission. Nil fields are left untouched.
type EvidencePatch struct {
	Type        *EvidenceType
	Title       *string
	Description *string
	URL         *string
}

// VerificationOutcome is what a verifier reports for an accepted item.
type VerificationOutcome struct {
	VerifiedBy string
	Notes      string
}

// EvidenceValidation summarises requirement satisfaction for a skill.
type EvidenceValidation struct {
	Valid   bool                  `json:"valid"`
	Missing []EvidenceRequirement `json:"missing"`
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}
