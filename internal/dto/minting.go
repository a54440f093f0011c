package dto

import (
	"time"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
)

// SelectSkillRequest chooses the skill to mint.
type SelectSkillRequest struct {
	SkillID string `json:"skillId" validate:"required"`
}

// GoToStepRequest jumps the wizard to a named step.
type GoToStepRequest struct {
	Step string `json:"step" validate:"required,oneof=skill_selection evidence_verification confirmation minting success"`
}

// CreateEvidenceRequest describes a link-style evidence submission.
type CreateEvidenceRequest struct {
	Type        string  `json:"type" form:"type" validate:"required,oneof=project github certificate assessment other"`
	Title       string  `json:"title" form:"title" validate:"required,max=200"`
	Description string  `json:"description" form:"description" validate:"max=2000"`
	URL         *string `json:"url,omitempty" form:"url" validate:"omitempty,url"`
}

// UpdateEvidenceRequest patches an evidence item. Omitted fields stay unchanged.
type UpdateEvidenceRequest struct {
	Type        *string `json:"type,omitempty" validate:"omitempty,oneof=project github certificate assessment other"`
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	URL         *string `json:"url,omitempty" validate:"omitempty,url"`
}

// TransactionListQuery filters the mint history.
type TransactionListQuery struct {
	Status []string `form:"status" validate:"omitempty,dive,oneof=idle preparing uploading_metadata waiting_approval minting confirming success failed"`
	Limit  int      `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset int      `form:"offset" validate:"omitempty,min=0"`
}

// SessionCreatedResponse is returned when a session opens.
type SessionCreatedResponse struct {
	SessionID string                     `json:"sessionId"`
	State     models.MintingSessionState `json:"state"`
}

// StepResponse reports the wizard position after a navigation call.
type StepResponse struct {
	CurrentStep models.MintingStep `json:"currentStep"`
}

// EvidenceValidationResponse summarises evidence readiness for the selected skill.
type EvidenceValidationResponse struct {
	Valid      bool                         `json:"valid"`
	Missing    []models.EvidenceRequirement `json:"missing"`
	Completion int                          `json:"completion"`
}

// ActiveSessionsResponse is part of the metrics summary.
type ActiveSessionsResponse struct {
	ActiveSessions int       `json:"activeSessions"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

// ToInput converts the request into the workflow input.
func (r CreateEvidenceRequest) ToInput() models.EvidenceInput {
	return models.EvidenceInput{
		Type:        models.EvidenceType(r.Type),
		Title:       r.Title,
		Description: r.Description,
		URL:         r.URL,
	}
}

// ToPatch converts the request into the workflow patch.
func (r UpdateEvidenceRequest) ToPatch() models.EvidencePatch {
	patch := models.EvidencePatch{
		Title:       r.Title,
		Description: r.Description,
		URL:         r.URL,
	}
	if r.Type != nil {
		t := models.EvidenceType(*r.Type)
		patch.Type = &t
	}
	return patch
}

// ToFilter converts the query into a repository filter for ownerID.
func (q TransactionListQuery) ToFilter(ownerID string) models.MintTransactionFilter {
	filter := models.MintTransactionFilter{OwnerID: ownerID, Limit: q.Limit, Offset: q.Offset}
	for _, s := range q.Status {
		filter.Status = append(filter.Status, models.MintingStatus(s))
	}
	return filter
}
