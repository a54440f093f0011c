package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
)

func TestCredentialSignerRoundTrip(t *testing.T) {
	signer := NewCredentialSigner("proof-secret", "SkillFlow Academy")
	require.NotNil(t, signer)

	cred := models.MintedCredential{
		ID:              "cred-1",
		TokenID:         "4821",
		ContractAddress: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		Network:         "polygon-amoy",
		SkillName:       "React.js",
		SkillLevel:      92,
		Category:        models.SkillCategoryFrontend,
		OwnerID:         "learner-1",
		TransactionHash: "0xfeed",
		IssuedAt:        time.Now().Add(-time.Minute),
	}
	proof, err := signer.Sign(cred)
	require.NoError(t, err)

	claims, err := signer.Verify(proof)
	require.NoError(t, err)
	require.Equal(t, "4821", claims.TokenID)
	require.Equal(t, "React.js", claims.SkillName)
	require.Equal(t, "learner-1", claims.Subject)
	require.Equal(t, "cred-1", claims.ID)

	other := NewCredentialSigner("another-secret", "SkillFlow Academy")
	_, err = other.Verify(proof)
	require.Error(t, err)

	otherIssuer := NewCredentialSigner("proof-secret", "Someone Else")
	_, err = otherIssuer.Verify(proof)
	require.Error(t, err)
}

func TestCredentialSignerRequiresSecretAndToken(t *testing.T) {
	require.Nil(t, NewCredentialSigner("  ", "SkillFlow Academy"))

	signer := NewCredentialSigner("proof-secret", "SkillFlow Academy")
	_, err := signer.Sign(models.MintedCredential{})
	require.Error(t, err)
}
