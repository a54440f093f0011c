package service

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
	appErrors "github.com/azizur-rahaman/skillflow-sub002/pkg/errors"
)

// CredentialSigner issues and checks HS256 proofs for minted credentials.
type CredentialSigner struct {
	secret []byte
	issuer string
}

// NewCredentialSigner constructs a signer. It returns nil when no secret is configured.
func NewCredentialSigner(secret, issuer string) *CredentialSigner {
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	return &CredentialSigner{secret: []byte(secret), issuer: issuer}
}

// Sign implements CredentialProofSigner.
func (s *CredentialSigner) Sign(cred models.MintedCredential) (string, error) {
	if cred.TokenID == "" {
		return "", fmt.Errorf("credential token id required")
	}
	issuedAt := cred.IssuedAt.UTC()
	claims := &models.CredentialProofClaims{
		TokenID:         cred.TokenID,
		ContractAddress: cred.ContractAddress,
		Network:         cred.Network,
		SkillName:       cred.SkillName,
		SkillLevel:      cred.SkillLevel,
		Category:        cred.Category,
		TransactionHash: cred.TransactionHash,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        cred.ID,
			Issuer:    s.issuer,
			Subject:   cred.OwnerID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses a proof and returns its claims.
func (s *CredentialSigner) Verify(proof string) (*models.CredentialProofClaims, error) {
	token, err := jwt.ParseWithClaims(proof, &models.CredentialProofClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid credential proof")
	}

	claims, ok := token.Claims.(*models.CredentialProofClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid credential proof claims")
	}
	return claims, nil
}
