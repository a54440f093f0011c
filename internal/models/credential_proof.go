package models

import "github.com/golang-jwt/jwt/v5"

// CredentialProofClaims is the signed payload attached to a minted credential.
type CredentialProofClaims struct {
	TokenID         string        `json:"token_id"`
	ContractAddress string        `json:"contract_address"`
	Network         string        `json:"network"`
	SkillName       string        `json:"skill_name"`
	SkillLevel      int           `json:"skill_level"`
	Category        SkillCategory `json:"category"`
	TransactionHash string        `json:"tx_hash"`
	jwt.RegisteredClaims
}
