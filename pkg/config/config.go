package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Skill catalog sources.
const (
	SkillSourceSimulated = "simulated"
	SkillSourcePostgres  = "postgres"
)

// Simulated chain identity used when nothing else is configured.
const (
	DefaultWalletAddress   = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	DefaultContractAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	DefaultTokenStandard   = "ERC-721"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	CORS         CORSConfig
	Log          LogConfig
	Minting      MintingConfig
	Evidence     EvidenceConfig
	Sessions     SessionConfig
	Skills       SkillsConfig
	Verification VerificationConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MintingConfig describes the credential contract and the simulated stage latencies.
type MintingConfig struct {
	Network          string
	WalletAddress    string
	ContractAddress  string
	TokenStandard    string
	Issuer           string
	IssuerURL        string
	ImageBaseURL     string
	IPFSGateway      string
	ProofSecret      string
	PreparationDelay time.Duration
	ApprovalDelay    time.Duration
	ConfirmDelay     time.Duration
}

// EvidenceConfig controls evidence upload storage & validation.
type EvidenceConfig struct {
	StorageDir       string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
	UploadDelay      time.Duration
	VerifyDelay      time.Duration
}

// SessionConfig governs idle expiry of minting sessions.
type SessionConfig struct {
	IdleTTL         time.Duration
	CleanupInterval time.Duration
}

// SkillsConfig selects the mintable skill catalog and its cache behaviour.
type SkillsConfig struct {
	Source       string
	CacheEnabled bool
	CacheTTL     time.Duration
	LoadDelay    time.Duration
}

// VerificationConfig sizes the asynchronous evidence verification queue.
type VerificationConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Minting = MintingConfig{
		Network:          v.GetString("MINT_NETWORK"),
		WalletAddress:    v.GetString("MINT_WALLET_ADDRESS"),
		ContractAddress:  v.GetString("MINT_CONTRACT_ADDRESS"),
		TokenStandard:    v.GetString("MINT_TOKEN_STANDARD"),
		Issuer:           v.GetString("MINT_ISSUER"),
		IssuerURL:        v.GetString("MINT_ISSUER_URL"),
		ImageBaseURL:     v.GetString("MINT_IMAGE_BASE_URL"),
		IPFSGateway:      v.GetString("MINT_IPFS_GATEWAY"),
		ProofSecret:      v.GetString("MINT_PROOF_SECRET"),
		PreparationDelay: parseDuration(v.GetString("MINT_PREPARATION_DELAY"), time.Second),
		ApprovalDelay:    parseDuration(v.GetString("MINT_APPROVAL_DELAY"), 2*time.Second),
		ConfirmDelay:     parseDuration(v.GetString("MINT_CONFIRM_DELAY"), 3*time.Second),
	}

	maxEvidenceSize := v.GetInt64("EVIDENCE_MAX_FILE_SIZE")
	if maxEvidenceSize <= 0 {
		maxEvidenceSize = 10 * 1024 * 1024
	}
	cfg.Evidence = EvidenceConfig{
		StorageDir:       v.GetString("EVIDENCE_STORAGE_DIR"),
		SignedURLSecret:  v.GetString("EVIDENCE_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("EVIDENCE_SIGNED_URL_TTL"), 30*time.Minute),
		MaxFileSizeBytes: maxEvidenceSize,
		AllowedMIMEs:     splitAndTrim(v.GetString("EVIDENCE_ALLOWED_MIME_TYPES")),
		UploadDelay:      parseDuration(v.GetString("EVIDENCE_UPLOAD_DELAY"), time.Second),
		VerifyDelay:      parseDuration(v.GetString("EVIDENCE_VERIFY_DELAY"), 2*time.Second),
	}

	cfg.Sessions = SessionConfig{
		IdleTTL:         parseDuration(v.GetString("SESSION_IDLE_TTL"), time.Hour),
		CleanupInterval: parseDuration(v.GetString("SESSION_CLEANUP_INTERVAL"), 5*time.Minute),
	}

	cfg.Skills = SkillsConfig{
		Source:       strings.ToLower(v.GetString("SKILL_SOURCE")),
		CacheEnabled: v.GetBool("ENABLE_SKILL_CACHE"),
		CacheTTL:     parseDuration(v.GetString("SKILL_CACHE_TTL"), 10*time.Minute),
		LoadDelay:    parseDuration(v.GetString("SKILLS_LOAD_DELAY"), time.Second),
	}

	cfg.Verification = VerificationConfig{
		WorkerConcurrency: v.GetInt("VERIFY_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("VERIFY_WORKER_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "skillflow")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MINT_NETWORK", "polygon-amoy")
	v.SetDefault("MINT_WALLET_ADDRESS", DefaultWalletAddress)
	v.SetDefault("MINT_CONTRACT_ADDRESS", DefaultContractAddress)
	v.SetDefault("MINT_TOKEN_STANDARD", DefaultTokenStandard)
	v.SetDefault("MINT_ISSUER", "SkillFlow Academy")
	v.SetDefault("MINT_ISSUER_URL", "https://skillflow.app")
	v.SetDefault("MINT_IMAGE_BASE_URL", "https://skillflow.app/badges")
	v.SetDefault("MINT_IPFS_GATEWAY", "https://ipfs.io/ipfs")
	v.SetDefault("MINT_PROOF_SECRET", "dev_proof_secret")
	v.SetDefault("MINT_PREPARATION_DELAY", "1s")
	v.SetDefault("MINT_APPROVAL_DELAY", "2s")
	v.SetDefault("MINT_CONFIRM_DELAY", "3s")

	v.SetDefault("EVIDENCE_STORAGE_DIR", "./evidence")
	v.SetDefault("EVIDENCE_SIGNED_URL_SECRET", "dev_evidence_secret")
	v.SetDefault("EVIDENCE_SIGNED_URL_TTL", "30m")
	v.SetDefault("EVIDENCE_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("EVIDENCE_ALLOWED_MIME_TYPES", "application/pdf,image/png,image/jpeg,application/zip,text/plain")
	v.SetDefault("EVIDENCE_UPLOAD_DELAY", "1s")
	v.SetDefault("EVIDENCE_VERIFY_DELAY", "2s")

	v.SetDefault("SESSION_IDLE_TTL", "1h")
	v.SetDefault("SESSION_CLEANUP_INTERVAL", "5m")

	v.SetDefault("SKILL_SOURCE", SkillSourceSimulated)
	v.SetDefault("ENABLE_SKILL_CACHE", false)
	v.SetDefault("SKILL_CACHE_TTL", "10m")
	v.SetDefault("SKILLS_LOAD_DELAY", "1s")

	v.SetDefault("VERIFY_WORKER_CONCURRENCY", 2)
	v.SetDefault("VERIFY_WORKER_RETRIES", 1)
}

// viper reports a missing explicit config file as a plain fs error.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
