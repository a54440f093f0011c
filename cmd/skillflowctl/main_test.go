package main

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
	"github.com/azizur-rahaman/skillflow-sub002/internal/service"
)

func TestRunDemoMintsEveryEligibleSkill(t *testing.T) {
	for _, skillID := range []string{"skill-react", "skill-node", "skill-dataviz"} {
		t.Run(skillID, func(t *testing.T) {
			var (
				mu     sync.Mutex
				stages []models.MintingStatus
			)
			deps := service.WorkflowDeps{
				Delayer: service.NoopDelayer{},
				Signer:  service.NewCredentialSigner("demo-secret", "SkillFlow Academy"),
				Observer: func(ctx context.Context, tx models.MintingTransaction) {
					mu.Lock()
					defer mu.Unlock()
					if len(stages) == 0 || stages[len(stages)-1] != tx.Status {
						stages = append(stages, tx.Status)
					}
				},
			}

			result, err := runDemo(context.Background(), "learner-1", skillID, demoWorkflowConfig(), deps)
			require.NoError(t, err)
			require.True(t, result.Success)
			require.NotNil(t, result.Credential)
			assert.NotEmpty(t, result.Credential.Proof)
			assert.Equal(t, []models.MintingStatus{
				models.MintingStatusPreparing,
				models.MintingStatusUploadingMetadata,
				models.MintingStatusWaitingApproval,
				models.MintingStatusMinting,
				models.MintingStatusConfirming,
				models.MintingStatusSuccess,
			}, stages)
		})
	}
}

func TestRunDemoRejectsIneligibleSkill(t *testing.T) {
	_, err := runDemo(context.Background(), "learner-1", "skill-solidity", demoWorkflowConfig(), service.WorkflowDeps{Delayer: service.NoopDelayer{}})
	require.Error(t, err)
}

func TestRunDemoUnknownSkill(t *testing.T) {
	_, err := runDemo(context.Background(), "learner-1", "skill-cobol", demoWorkflowConfig(), service.WorkflowDeps{Delayer: service.NoopDelayer{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skill-cobol")
}
