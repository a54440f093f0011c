package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
)

// UnverifiedMilestonesReason explains why a flagged skill was downgraded to ineligible.
const UnverifiedMilestonesReason = "One or more milestones are awaiting verification"

// SkillRepository reads mintable skills from PostgreSQL.
type SkillRepository struct {
	db *sqlx.DB
}

// NewSkillRepository constructs the repository.
func NewSkillRepository(db *sqlx.DB) *SkillRepository {
	return &SkillRepository{db: db}
}

type skillRow struct {
	ID                  string         `db:"id"`
	OwnerID             string         `db:"owner_id"`
	Name                string         `db:"name"`
	Category            string         `db:"category"`
	Level               int            `db:"level"`
	Description         string         `db:"description"`
	Milestones          []byte         `db:"milestones"`
	RequiredEvidence    []byte         `db:"required_evidence"`
	EstimatedValue      float64        `db:"estimated_value"`
	Eligible            bool           `db:"eligible"`
	IneligibilityReason sql.NullString `db:"ineligibility_reason"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

// ListMintableSkills returns the owner's skills. A skill stays eligible only when its
// stored flag is set and every milestone is verified.
func (r *SkillRepository) ListMintableSkills(ctx context.Context, ownerID string) ([]models.MintableSkill, error) {
	const query = `SELECT id, owner_id, name, category, level, description, milestones, required_evidence,
       estimated_value, eligible, ineligibility_reason, updated_at
FROM mintable_skills WHERE owner_id = $1 ORDER BY level DESC, name ASC`
	var rows []skillRow
	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("list mintable skills: %w", err)
	}

	skills := make([]models.MintableSkill, 0, len(rows))
	for _, row := range rows {
		skill, err := row.toModel()
		if err != nil {
			return nil, err
		}
		skills = append(skills, skill)
	}
	return skills, nil
}

// Upsert inserts or replaces a skill owned by ownerID.
func (r *SkillRepository) Upsert(ctx context.Context, ownerID string, skill models.MintableSkill) error {
	milestones, err := json.Marshal(nonNilMilestones(skill.Milestones))
	if err != nil {
		return fmt.Errorf("encode milestones: %w", err)
	}
	requirements, err := json.Marshal(nonNilRequirements(skill.RequiredEvidence))
	if err != nil {
		return fmt.Errorf("encode required evidence: %w", err)
	}
	row := skillRow{
		ID:               skill.ID,
		OwnerID:          ownerID,
		Name:             skill.Name,
		Category:         string(skill.Category),
		Level:            skill.Level,
		Description:      skill.Description,
		Milestones:       milestones,
		RequiredEvidence: requirements,
		EstimatedValue:   skill.EstimatedValue,
		Eligible:         skill.Eligible,
		UpdatedAt:        time.Now().UTC(),
	}
	if skill.IneligibilityReason != nil {
		row.IneligibilityReason = sql.NullString{String: *skill.IneligibilityReason, Valid: true}
	}

	const query = `INSERT INTO mintable_skills (id, owner_id, name, category, level, description, milestones,
    required_evidence, estimated_value, eligible, ineligibility_reason, updated_at)
VALUES (:id, :owner_id, :name, :category, :level, :description, :milestones, :required_evidence,
    :estimated_value, :eligible, :ineligibility_reason, :updated_at)
ON CONFLICT (id)
DO UPDATE SET owner_id = EXCLUDED.owner_id, name = EXCLUDED.name, category = EXCLUDED.category,
              level = EXCLUDED.level, description = EXCLUDED.description, milestones = EXCLUDED.milestones,
              required_evidence = EXCLUDED.required_evidence, estimated_value = EXCLUDED.estimated_value,
              eligible = EXCLUDED.eligible, ineligibility_reason = EXCLUDED.ineligibility_reason,
              updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("upsert mintable skill: %w", err)
	}
	return nil
}

func (row skillRow) toModel() (models.MintableSkill, error) {
	skill := models.MintableSkill{
		ID:             row.ID,
		Name:           row.Name,
		Category:       models.SkillCategory(row.Category),
		Level:          row.Level,
		Description:    row.Description,
		EstimatedValue: row.EstimatedValue,
		Eligible:       row.Eligible,
	}
	if len(row.Milestones) > 0 {
		if err := json.Unmarshal(row.Milestones, &skill.Milestones); err != nil {
			return models.MintableSkill{}, fmt.Errorf("decode milestones for skill %s: %w", row.ID, err)
		}
	}
	if len(row.RequiredEvidence) > 0 {
		if err := json.Unmarshal(row.RequiredEvidence, &skill.RequiredEvidence); err != nil {
			return models.MintableSkill{}, fmt.Errorf("decode required evidence for skill %s: %w", row.ID, err)
		}
	}
	if row.IneligibilityReason.Valid {
		reason := row.IneligibilityReason.String
		skill.IneligibilityReason = &reason
	}
	if skill.Eligible && !skill.MilestonesVerified() {
		reason := UnverifiedMilestonesReason
		skill.Eligible = false
		skill.IneligibilityReason = &reason
	}
	return skill, nil
}

func nonNilMilestones(v []models.Milestone) []models.Milestone {
	if v == nil {
		return []models.Milestone{}
	}
	return v
}

func nonNilRequirements(v []models.EvidenceRequirement) []models.EvidenceRequirement {
	if v == nil {
		return []models.EvidenceRequirement{}
	}
	return v
}
