package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
)

func newSkillRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

var skillColumns = []string{
	"id", "owner_id", "name", "category", "level", "description", "milestones", "required_evidence",
	"estimated_value", "eligible", "ineligibility_reason", "updated_at",
}

func TestSkillRepositoryListMintableSkills(t *testing.T) {
	db, mock, cleanup := newSkillRepoMock(t)
	defer cleanup()

	repo := NewSkillRepository(db)
	rows := sqlmock.NewRows(skillColumns).
		AddRow("skill-react", "user-1", "React.js", "frontend", 92, "Components",
			[]byte(`[{"id":"m1","title":"Hooks","verified":true}]`),
			[]byte(`[{"type":"project","required":true,"description":"A project"}]`),
			250.0, true, nil, time.Now()).
		AddRow("skill-sol", "user-1", "Solidity", "blockchain", 64, "Contracts",
			[]byte(`[{"id":"m2","title":"Audit","verified":false}]`),
			[]byte(`[]`),
			120.0, true, nil, time.Now())
	mock.ExpectQuery("SELECT id, owner_id, name").
		WithArgs("user-1").
		WillReturnRows(rows)

	skills, err := repo.ListMintableSkills(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, skills, 2)

	assert.True(t, skills[0].Eligible)
	assert.Equal(t, models.SkillCategoryFrontend, skills[0].Category)
	require.Len(t, skills[0].RequiredEvidence, 1)
	assert.Equal(t, models.EvidenceTypeProject, skills[0].RequiredEvidence[0].Type)

	assert.False(t, skills[1].Eligible)
	require.NotNil(t, skills[1].IneligibilityReason)
	assert.Equal(t, UnverifiedMilestonesReason, *skills[1].IneligibilityReason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSkillRepositoryListKeepsStoredReason(t *testing.T) {
	db, mock, cleanup := newSkillRepoMock(t)
	defer cleanup()

	repo := NewSkillRepository(db)
	rows := sqlmock.NewRows(skillColumns).
		AddRow("skill-go", "user-1", "Go", "backend", 40, "", []byte(`[]`), []byte(`[]`),
			0.0, false, "Level too low", time.Now())
	mock.ExpectQuery("SELECT id, owner_id, name").WithArgs("user-1").WillReturnRows(rows)

	skills, err := repo.ListMintableSkills(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, skills, 1)
	require.NotNil(t, skills[0].IneligibilityReason)
	assert.Equal(t, "Level too low", *skills[0].IneligibilityReason)
}

func TestSkillRepositoryListRejectsCorruptJSON(t *testing.T) {
	db, mock, cleanup := newSkillRepoMock(t)
	defer cleanup()

	repo := NewSkillRepository(db)
	rows := sqlmock.NewRows(skillColumns).
		AddRow("skill-x", "user-1", "X", "data", 10, "", []byte(`{not json`), []byte(`[]`),
			0.0, true, nil, time.Now())
	mock.ExpectQuery("SELECT id, owner_id, name").WithArgs("user-1").WillReturnRows(rows)

	_, err := repo.ListMintableSkills(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skill-x")
}

func TestSkillRepositoryListPropagatesQueryError(t *testing.T) {
	db, mock, cleanup := newSkillRepoMock(t)
	defer cleanup()

	repo := NewSkillRepository(db)
	mock.ExpectQuery("SELECT id, owner_id, name").WithArgs("user-1").WillReturnError(errors.New("connection reset"))

	_, err := repo.ListMintableSkills(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list mintable skills")
}

func TestSkillRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newSkillRepoMock(t)
	defer cleanup()

	repo := NewSkillRepository(db)
	mock.ExpectExec("INSERT INTO mintable_skills").
		WithArgs("skill-react", "user-1", "React.js", "frontend", 92, "Components",
			[]byte(`[]`), sqlmock.AnyArg(), 250.0, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	skill := models.MintableSkill{
		ID:             "skill-react",
		Name:           "React.js",
		Category:       models.SkillCategoryFrontend,
		Level:          92,
		Description:    "Components",
		EstimatedValue: 250,
		Eligible:       true,
		RequiredEvidence: []models.EvidenceRequirement{
			{Type: models.EvidenceTypeProject, Required: true},
		},
	}
	require.NoError(t, repo.Upsert(context.Background(), "user-1", skill))
	require.NoError(t, mock.ExpectationsWereMet())
}
