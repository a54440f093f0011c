package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
	appErrors "github.com/azizur-rahaman/skillflow-sub002/pkg/errors"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/storage"
)

// StorageEvidenceUploader keeps evidence attachments on disk and links them with a signed URL.
// Items without an attachment pass through after the wrapped uploader.
type StorageEvidenceUploader struct {
	next      EvidenceUploader
	storage   fileStorage
	signer    downloadSigner
	allowed   map[string]struct{}
	maxBytes  int64
	apiPrefix string
	logger    *zap.Logger
}

// NewStorageEvidenceUploader constructs an uploader. An empty allowed list accepts every MIME type.
func NewStorageEvidenceUploader(next EvidenceUploader, storage fileStorage, signer downloadSigner, allowedMIMEs []string, maxBytes int64, apiPrefix string, logger *zap.Logger) *StorageEvidenceUploader {
	if next == nil {
		next = NewSimulatedEvidenceUploader(nil, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]struct{}, len(allowedMIMEs))
	for _, m := range allowedMIMEs {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			allowed[m] = struct{}{}
		}
	}
	return &StorageEvidenceUploader{
		next:      next,
		storage:   storage,
		signer:    signer,
		allowed:   allowed,
		maxBytes:  maxBytes,
		apiPrefix: apiPrefix,
		logger:    logger,
	}
}

// Upload implements EvidenceUploader.
func (u *StorageEvidenceUploader) Upload(ctx context.Context, ownerID string, item *models.EvidenceSubmission, attachment *models.EvidenceAttachment) error {
	if err := u.next.Upload(ctx, ownerID, item, nil); err != nil {
		return err
	}
	if attachment == nil {
		return nil
	}
	if err := u.validate(attachment); err != nil {
		return err
	}

	name := sanitizeFilename(path.Base(attachment.FileName))
	relPath := path.Join("evidence", sanitizeFilename(ownerID), item.ID, name)
	saved, err := u.storage.Save(relPath, attachment.Data)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("attachment exceeds %d bytes", u.maxBytes))
		}
		return fmt.Errorf("store attachment: %w", err)
	}
	token, _, err := u.signer.Generate(ownerID, saved)
	if err != nil {
		_ = u.storage.Delete(saved)
		return fmt.Errorf("sign attachment url: %w", err)
	}

	item.FileName = &name
	if item.URL == nil {
		url := downloadURL(u.apiPrefix, token)
		item.URL = &url
	}
	u.logger.Debug("evidence attachment stored", zap.String("owner_id", ownerID), zap.String("evidence_id", item.ID), zap.Int("bytes", len(attachment.Data)))
	return nil
}

func (u *StorageEvidenceUploader) validate(attachment *models.EvidenceAttachment) error {
	if len(attachment.Data) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "attachment is empty")
	}
	if strings.TrimSpace(attachment.FileName) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "attachment file name is required")
	}
	if u.maxBytes > 0 && int64(len(attachment.Data)) > u.maxBytes {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("attachment exceeds %d bytes", u.maxBytes))
	}
	if len(u.allowed) == 0 {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(attachment.MimeType)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "attachment content type is invalid")
	}
	if _, ok := u.allowed[strings.ToLower(mediaType)]; !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("attachment type %s is not allowed", mediaType))
	}
	return nil
}
