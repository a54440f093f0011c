package models

import "time"

// SkillCategory enumerates the skill taxonomy used by the dashboard.
type SkillCategory string

const (
	SkillCategoryFrontend   SkillCategory = "frontend"
	SkillCategoryBackend    SkillCategory = "backend"
	SkillCategoryData       SkillCategory = "data"
	SkillCategoryDevOps     SkillCategory = "devops"
	SkillCategoryDesign     SkillCategory = "design"
	SkillCategoryMobile     SkillCategory = "mobile"
	SkillCategoryBlockchain SkillCategory = "blockchain"
	SkillCategorySoftSkills SkillCategory = "soft_skills"
)

// Valid reports whether the category is a known value.
func (c SkillCategory) Valid() bool {
	switch c {
	case SkillCategoryFrontend, SkillCategoryBackend, SkillCategoryData, SkillCategoryDevOps,
		SkillCategoryDesign, SkillCategoryMobile, SkillCategoryBlockchain, SkillCategorySoftSkills:
		return true
	default:
		return false
	}
}

// Milestone records a completed learning milestone for a skill.
type Milestone struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CompletedAt time.Time `json:"completedAt"`
	XPAwarded   int       `json:"xpAwarded"`
	Verified    bool      `json:"verified"`
}

// EvidenceRequirement declares what evidence a skill needs before it can be minted.
type EvidenceRequirement struct {
	Type        EvidenceType `json:"type"`
	Required    bool         `json:"required"`
	Description string       `json:"description"`
	MinCount    int          `json:"minCount,omitempty"`
}

// EffectiveMinCount applies the default minimum of one item.
func (r EvidenceRequirement) EffectiveMinCount() int {
	if r.MinCount <= 0 {
		return 1
	}
	return r.MinCount
}

// MintableSkill is a candidate skill record for credential minting.
type MintableSkill struct {
	ID                  string                `json:"id" db:"id"`
	Name                string                `json:"name" db:"name"`
	Category            SkillCategory         `json:"category" db:"category"`
	Level               int                   `json:"level" db:"level"`
	Description         string                `json:"description" db:"description"`
	Milestones          []Milestone           `json:"milestones"`
	RequiredEvidence    []EvidenceRequirement `json:"requiredEvidence"`
	EstimatedValue      float64               `json:"estimatedValue" db:"estimated_value"`
	Eligible            bool                  `json:"eligible" db:"eligible"`
	IneligibilityReason *string               `json:"ineligibilityReason,omitempty" db:"ineligibility_reason"`
}

// MilestonesVerified reports whether every milestone carries the verified flag.
func (s MintableSkill) MilestonesVerified() bool {
	for _, m := range s.Milestones {
		if !m.Verified {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers cannot mutate catalog state.
func (s MintableSkill) Clone() MintableSkill {
	out := s
	out.Milestones = append([]Milestone(nil), s.Milestones...)
	out.RequiredEvidence = append([]EvidenceRequirement(nil), s.RequiredEvidence...)
	if s.IneligibilityReason != nil {
		reason := *s.IneligibilityReason
		out.IneligibilityReason = &reason
	}
	return out
}
