package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
)

func evidenceOf(types ...models.EvidenceType) []models.EvidenceSubmission {
	items := make([]models.EvidenceSubmission, 0, len(types))
	for i, t := range types {
		items = append(items, models.EvidenceSubmission{ID: string(rune('a' + i)), Type: t, Status: models.EvidenceStatusPending})
	}
	return items
}

func TestValidateEvidenceRequirements(t *testing.T) {
	projectRequired := []models.EvidenceRequirement{{Type: models.EvidenceTypeProject, Required: true, MinCount: 1}}

	t.Run("no matching evidence is invalid", func(t *testing.T) {
		result := ValidateEvidenceRequirements(nil, projectRequired)
		assert.False(t, result.Valid)
		require.Len(t, result.Missing, 1)
		assert.Equal(t, models.EvidenceTypeProject, result.Missing[0].Type)
	})

	t.Run("one matching item is valid", func(t *testing.T) {
		result := ValidateEvidenceRequirements(evidenceOf(models.EvidenceTypeProject), projectRequired)
		assert.True(t, result.Valid)
		assert.Empty(t, result.Missing)
	})

	t.Run("item of a different type does not count", func(t *testing.T) {
		result := ValidateEvidenceRequirements(evidenceOf(models.EvidenceTypeGitHub), projectRequired)
		assert.False(t, result.Valid)
	})

	t.Run("min count defaults to one", func(t *testing.T) {
		reqs := []models.EvidenceRequirement{{Type: models.EvidenceTypeGitHub, Required: true}}
		assert.True(t, ValidateEvidenceRequirements(evidenceOf(models.EvidenceTypeGitHub), reqs).Valid)
	})

	t.Run("min count above one", func(t *testing.T) {
		reqs := []models.EvidenceRequirement{{Type: models.EvidenceTypeProject, Required: true, MinCount: 2}}
		assert.False(t, ValidateEvidenceRequirements(evidenceOf(models.EvidenceTypeProject), reqs).Valid)
		assert.True(t, ValidateEvidenceRequirements(evidenceOf(models.EvidenceTypeProject, models.EvidenceTypeProject), reqs).Valid)
	})

	t.Run("optional requirements never block", func(t *testing.T) {
		reqs := []models.EvidenceRequirement{
			{Type: models.EvidenceTypeProject, Required: true},
			{Type: models.EvidenceTypeCertificate, Required: false},
		}
		result := ValidateEvidenceRequirements(evidenceOf(models.EvidenceTypeProject), reqs)
		assert.True(t, result.Valid)
	})
}

func TestCalculateEvidenceCompletion(t *testing.T) {
	reqs := []models.EvidenceRequirement{
		{Type: models.EvidenceTypeProject, Required: true},
		{Type: models.EvidenceTypeGitHub, Required: true},
		{Type: models.EvidenceTypeCertificate, Required: false},
	}

	assert.Equal(t, 0, CalculateEvidenceCompletion(nil, reqs))
	assert.Equal(t, 33, CalculateEvidenceCompletion(evidenceOf(models.EvidenceTypeProject), reqs))
	assert.Equal(t, 67, CalculateEvidenceCompletion(evidenceOf(models.EvidenceTypeProject, models.EvidenceTypeGitHub), reqs))
	assert.Equal(t, 100, CalculateEvidenceCompletion(evidenceOf(models.EvidenceTypeProject, models.EvidenceTypeGitHub, models.EvidenceTypeCertificate), reqs))
	assert.Equal(t, 100, CalculateEvidenceCompletion(nil, nil))
}

func TestCalculateEvidenceCompletionIsMonotonic(t *testing.T) {
	reqs := []models.EvidenceRequirement{
		{Type: models.EvidenceTypeProject, Required: true, MinCount: 2},
		{Type: models.EvidenceTypeGitHub, Required: true},
		{Type: models.EvidenceTypeAssessment, Required: false},
	}
	sequence := []models.EvidenceType{
		models.EvidenceTypeOther,
		models.EvidenceTypeProject,
		models.EvidenceTypeGitHub,
		models.EvidenceTypeProject,
		models.EvidenceTypeAssessment,
		models.EvidenceTypeGitHub,
	}

	var submitted []models.EvidenceType
	previous := CalculateEvidenceCompletion(nil, reqs)
	for _, next := range sequence {
		submitted = append(submitted, next)
		current := CalculateEvidenceCompletion(evidenceOf(submitted...), reqs)
		assert.GreaterOrEqual(t, current, previous, "completion dropped after adding %s", next)
		previous = current
	}
	assert.Equal(t, 100, previous)
}

func TestIsSkillEligible(t *testing.T) {
	assert.True(t, IsSkillEligible(models.MintableSkill{Eligible: true}))
	assert.False(t, IsSkillEligible(models.MintableSkill{Eligible: false}))
}
