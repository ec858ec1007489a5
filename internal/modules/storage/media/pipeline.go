package media

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tablecast/signage/internal/models"
	"github.com/tablecast/signage/internal/modules/business"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"github.com/tablecast/signage/internal/pkg/metrics"
	"github.com/tablecast/signage/internal/pkg/objectstore"
	"github.com/tablecast/signage/internal/pkg/pagination"
	"github.com/tablecast/signage/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Options struct {
	SignedURLTTL   time.Duration
	MaxUploadBytes int64
	// PublicBaseURL, when set, is used for publicUrl instead of a signed URL.
	PublicBaseURL string
}

// Pipeline moves media between clients, the bucket and the media_files table.
// An object is written before its row; if the row insert fails the object is
// deleted again so the two do not diverge.
type Pipeline struct {
	db         *gorm.DB
	store      objectstore.Gateway
	businesses *business.Service
	opts       Options
	logger     *zap.Logger
	now        func() time.Time
}

func NewPipeline(db *gorm.DB, store objectstore.Gateway, businesses *business.Service, opts Options, logger *zap.Logger) *Pipeline {
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = objectstore.DefaultSignedURLTTL
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = objectstore.DefaultMaxUploadBytes
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		db:         db,
		store:      store,
		businesses: businesses,
		opts:       opts,
		logger:     logger.Named("media"),
		now:        time.Now,
	}
}

// Upload decodes a client payload and stores it.
func (p *Pipeline) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if strings.TrimSpace(req.File) == "" {
		return nil, apperr.Validation("file is required")
	}
	if strings.TrimSpace(req.FileName) == "" {
		return nil, apperr.Validation("fileName is required")
	}
	if strings.TrimSpace(req.BusinessID) == "" {
		return nil, apperr.Validation("businessId is required")
	}
	body, dataURLType, err := decodePayload(req.File)
	if err != nil {
		return nil, err
	}
	contentType := req.ContentType
	if strings.TrimSpace(contentType) == "" {
		contentType = dataURLType
	}
	if strings.TrimSpace(contentType) == "" {
		return nil, apperr.Validation("contentType is required")
	}

	return p.Store(ctx, Blob{
		Body:        body,
		FileName:    req.FileName,
		ContentType: contentType,
		BusinessID:  req.BusinessID,
		UploaderID:  req.UploaderID,
	})
}

// Store validates blob, writes the object and records its row.
func (p *Pipeline) Store(ctx context.Context, blob Blob) (*UploadResult, error) {
	contentType := objectstore.NormalizeContentType(blob.ContentType)
	if err := objectstore.ValidateUpload(contentType, blob.Body, p.opts.MaxUploadBytes); err != nil {
		metrics.RecordUpload(contentType, "rejected", 0)
		return nil, err
	}

	size := int64(len(blob.Body))
	path := objectstore.ObjectPath(blob.BusinessID, blob.FileName, contentType, p.now())
	log := p.logger.With(zap.String("path", path), zap.String("business_id", blob.BusinessID))

	err := p.store.Upload(ctx, objectstore.UploadInput{Path: path, ContentType: contentType, Body: blob.Body})
	if err != nil {
		metrics.RecordUpload(contentType, "storage_error", 0)
		log.Error("object upload failed", zap.Error(err))
		if _, typed := apperr.As(err); typed {
			return nil, err
		}
		return nil, apperr.Storage("upload to storage failed: "+err.Error(), nil)
	}

	row := models.MediaFileModel{
		FilePath:     path,
		BusinessID:   blob.BusinessID,
		UploadedBy:   blob.UploaderID,
		OriginalName: blob.FileName,
		ContentType:  contentType,
		SizeBytes:    size,
	}
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		metrics.RecordUpload(contentType, "db_error", 0)
		p.compensate(path, log)
		log.Error("media row insert failed", zap.Error(err))
		return nil, apperr.Database("save media record", err)
	}
	metrics.RecordUpload(contentType, "success", size)

	return &UploadResult{
		ID:          row.ID,
		FilePath:    path,
		PublicURL:   p.publicURL(ctx, path, log),
		FileName:    blob.FileName,
		ContentType: contentType,
		SizeBytes:   size,
	}, nil
}

// compensate removes an object whose row could not be written. It runs on a
// fresh context since the request context may already be cancelled.
func (p *Pipeline) compensate(path string, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := p.store.Delete(ctx, path); err != nil {
		metrics.RecordCompensation("failed")
		log.Error("compensating delete failed, object left for reconcile", zap.Error(err))
		return
	}
	metrics.RecordCompensation("success")
	log.Warn("compensating delete removed object")
}

func (p *Pipeline) publicURL(ctx context.Context, path string, log *zap.Logger) string {
	if p.opts.PublicBaseURL != "" {
		return p.opts.PublicBaseURL + "/" + path
	}
	signed, err := p.store.SignedURL(ctx, path, p.opts.SignedURLTTL)
	if err != nil {
		log.Warn("sign fresh upload failed", zap.Error(err))
		return ""
	}
	return signed.URL
}

// SignedURL issues a time-limited read URL for path.
func (p *Pipeline) SignedURL(ctx context.Context, path string) (*objectstore.SignedURL, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, apperr.Validation("path is required")
	}
	signed, err := p.store.SignedURL(ctx, path, p.opts.SignedURLTTL)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.Storage("sign url failed", err)
	}
	return signed, nil
}

// Get loads a row and checks that actor may see it.
func (p *Pipeline) Get(ctx context.Context, actor business.Actor, id string) (*models.MediaFileModel, error) {
	var row models.MediaFileModel
	if err := p.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("media file %s not found", id)
		}
		return nil, apperr.Database("load media file", err)
	}
	if _, err := p.businesses.Authorize(ctx, actor, row.BusinessID); err != nil {
		return nil, err
	}
	return &row, nil
}

// Delete removes the row, then the object. Storage failures are logged and
// swallowed: the row is gone either way and reconcile picks up the leftover.
func (p *Pipeline) Delete(ctx context.Context, actor business.Actor, id string) error {
	row, err := p.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := p.db.WithContext(ctx).Delete(row).Error; err != nil {
		return apperr.Database("delete media record", err)
	}
	if err := p.store.Delete(ctx, row.FilePath); err != nil {
		p.logger.Warn("object delete failed, row already removed",
			zap.String("path", row.FilePath), zap.Error(err))
	}
	return nil
}

// List pages a business's media, newest first.
func (p *Pipeline) List(ctx context.Context, businessID string, q pagination.Query) ([]models.MediaFileModel, response.Pagination, error) {
	items := []models.MediaFileModel{}
	scope := p.db.WithContext(ctx).Model(&models.MediaFileModel{}).
		Where("business_id = ?", businessID).
		Order("created_at DESC")
	page, err := pagination.Paginate(scope, q, &items)
	if err != nil {
		return nil, response.Pagination{}, apperr.Database("list media", err)
	}
	return items, page, nil
}
