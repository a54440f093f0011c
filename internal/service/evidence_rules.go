package service

import (
	"math"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
)

// ValidateEvidenceRequirements checks every required requirement against the submitted
// evidence. A requirement is met when the number of items of its type reaches its
// minimum count. Optional requirements never affect validity.
func ValidateEvidenceRequirements(evidence []models.EvidenceSubmission, requirements []models.EvidenceRequirement) models.EvidenceValidation {
	counts := countEvidenceByType(evidence)
	missing := make([]models.EvidenceRequirement, 0)
	for _, req := range requirements {
		if !req.Required {
			continue
		}
		if counts[req.Type] < req.EffectiveMinCount() {
			missing = append(missing, req)
		}
	}
	return models.EvidenceValidation{Valid: len(missing) == 0, Missing: missing}
}

// CalculateEvidenceCompletion returns the rounded share of requirements (required or not)
// that the evidence satisfies. Skills without requirements are complete.
func CalculateEvidenceCompletion(evidence []models.EvidenceSubmission, requirements []models.EvidenceRequirement) int {
	if len(requirements) == 0 {
		return 100
	}
	counts := countEvidenceByType(evidence)
	satisfied := 0
	for _, req := range requirements {
		if counts[req.Type] >= req.EffectiveMinCount() {
			satisfied++
		}
	}
	return int(math.Round(float64(satisfied) / float64(len(requirements)) * 100))
}

// IsSkillEligible is the advisory selection predicate. The flag is trusted as supplied by the catalog.
func IsSkillEligible(skill models.MintableSkill) bool {
	return skill.Eligible
}

func countEvidenceByType(evidence []models.EvidenceSubmission) map[models.EvidenceType]int {
	counts := make(map[models.EvidenceType]int, len(evidence))
	for _, item := range evidence {
		counts[item.Type]++
	}
	return counts
}
