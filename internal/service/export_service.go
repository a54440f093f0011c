package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
	appErrors "github.com/azizur-rahaman/skillflow-sub002/pkg/errors"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/export"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Generate(ownerID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (ownerID, relPath string, expiresAt time.Time, err error)
}

type certificateRenderer interface {
	Render(cert export.Certificate) ([]byte, error)
}

type transactionHistoryReader interface {
	ListByOwner(ctx context.Context, filter models.MintTransactionFilter) ([]models.MintingTransaction, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportService renders credential certificates and history exports and hands out signed links to them.
type ExportService struct {
	storage fileStorage
	signer  downloadSigner
	pdf     certificateRenderer
	history transactionHistoryReader
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService. history may be nil when no database is configured.
func NewExportService(storage fileStorage, signer downloadSigner, history transactionHistoryReader, cfg ExportConfig, logger *zap.Logger, pdf certificateRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if pdf == nil {
		pdf = export.NewCertificateRenderer()
	}
	return &ExportService{
		storage: storage,
		signer:  signer,
		pdf:     pdf,
		history: history,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// IssueCertificate renders the PDF certificate of a minted credential.
func (s *ExportService) IssueCertificate(ctx context.Context, cred models.MintedCredential, tx models.MintingTransaction) (*models.DownloadLink, error) {
	cert := export.Certificate{
		Title:           cred.Name,
		SkillName:       cred.SkillName,
		SkillLevel:      cred.SkillLevel,
		Category:        string(cred.Category),
		Recipient:       cred.OwnerID,
		Issuer:          cred.Issuer.Name,
		IssuedAt:        cred.IssuedAt,
		Network:         cred.Network,
		TokenID:         cred.TokenID,
		ContractAddress: cred.ContractAddress,
		TransactionHash: cred.TransactionHash,
	}
	if tx.IPFSURL != nil {
		cert.MetadataURL = *tx.IPFSURL
	}
	for _, attr := range cred.Metadata.Attributes {
		if attr.DisplayType == "date" {
			continue
		}
		cert.Attributes = append(cert.Attributes, [2]string{attr.TraitType, fmt.Sprint(attr.Value)})
	}

	payload, err := s.pdf.Render(cert)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("credential_%s_%s.pdf", sanitizeFilename(strings.ToLower(cred.SkillName)), cred.TokenID)
	return s.store(cred.OwnerID, path.Join("certificates", sanitizeFilename(cred.OwnerID), name), name, payload)
}

// ExportHistory renders the owner's mint transactions as CSV.
func (s *ExportService) ExportHistory(ctx context.Context, ownerID string) (*models.DownloadLink, error) {
	if s.history == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "transaction history is not available")
	}
	txs, err := s.history.ListByOwner(ctx, models.MintTransactionFilter{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: []string{"Transaction ID", "Skill", "Status", "Network", "IPFS Hash", "Transaction Hash", "Token ID", "Block", "Error", "Created At", "Updated At"}}
	for _, tx := range txs {
		block := ""
		if tx.BlockNumber != nil {
			block = strconv.FormatUint(*tx.BlockNumber, 10)
		}
		dataset.AppendRow(
			tx.ID,
			tx.Metadata.SkillName,
			string(tx.Status),
			tx.Network,
			deref(tx.IPFSHash),
			deref(tx.TransactionHash),
			deref(tx.TokenID),
			block,
			deref(tx.Error),
			tx.CreatedAt.UTC().Format(time.RFC3339),
			tx.UpdatedAt.UTC().Format(time.RFC3339),
		)
	}
	payload, err := export.RenderCSV(dataset)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("mint_history_%s.csv", s.now().UTC().Format("20060102_150405"))
	return s.store(ownerID, path.Join("exports", sanitizeFilename(ownerID), name), name, payload)
}

// Open resolves a download token to the stored file and its display name.
func (s *ExportService) Open(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	switch {
	case errors.Is(err, storage.ErrTokenExpired):
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "download link expired")
	case err != nil:
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "file no longer available")
		}
		return nil, "", err
	}
	return file, path.Base(relPath), nil
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) store(ownerID, relPath, name string, payload []byte) (*models.DownloadLink, error) {
	saved, err := s.storage.Save(relPath, payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(ownerID, saved)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export stored", zap.String("owner_id", ownerID), zap.String("path", saved))
	return &models.DownloadLink{
		FileName:  name,
		URL:       downloadURL(s.cfg.APIPrefix, token),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func downloadURL(apiPrefix, token string) string {
	prefix := strings.TrimRight(apiPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/minting/downloads/%s", prefix, token)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
