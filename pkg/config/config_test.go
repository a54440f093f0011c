package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, EnvDevelopment, cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, SkillSourceSimulated, cfg.Skills.Source)
	require.Equal(t, "ERC-721", cfg.Minting.TokenStandard)
	require.Equal(t, 3*time.Second, cfg.Minting.ConfirmDelay)
	require.Equal(t, int64(10*1024*1024), cfg.Evidence.MaxFileSizeBytes)
	require.Equal(t, DefaultWalletAddress, cfg.Minting.WalletAddress)
	require.Equal(t, DefaultContractAddress, cfg.Minting.ContractAddress)
	require.Equal(t, time.Second, cfg.Skills.LoadDelay)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MINT_NETWORK", "ethereum-sepolia")
	t.Setenv("MINT_APPROVAL_DELAY", "250ms")
	t.Setenv("SKILL_SOURCE", "POSTGRES")
	t.Setenv("SKILLS_LOAD_DELAY", "0s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "ethereum-sepolia", cfg.Minting.Network)
	require.Equal(t, 250*time.Millisecond, cfg.Minting.ApprovalDelay)
	require.Equal(t, SkillSourcePostgres, cfg.Skills.Source)
	require.Equal(t, time.Duration(0), cfg.Skills.LoadDelay)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestParseDurationFallback(t *testing.T) {
	require.Equal(t, time.Minute, parseDuration("", time.Minute))
	require.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	require.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}
