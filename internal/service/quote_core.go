package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/quote-service/internal/access"
	"github.com/spec-kit/quote-service/internal/domain"
	"github.com/spec-kit/quote-service/internal/events"
	"github.com/spec-kit/quote-service/internal/repository"
	"github.com/spec-kit/quote-service/internal/storage"
	apperrors "github.com/spec-kit/quote-service/pkg/util/errorutil"
)

// FileUpload is one file received from a client.
type FileUpload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// quoteCore holds what every quote workflow needs: loading and saving the
// row, the audit trail, events and the file store.
type quoteCore struct {
	quotes     repository.QuoteRepository
	history    repository.QuoteHistoryRepository
	files      storage.Store
	policy     storage.UploadPolicy
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func newQuoteCore(quotes repository.QuoteRepository, history repository.QuoteHistoryRepository, files storage.Store,
	policy storage.UploadPolicy, dispatcher events.Dispatcher, logger *zap.Logger) quoteCore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return quoteCore{
		quotes:     quotes,
		history:    history,
		files:      files,
		policy:     policy,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

func (c *quoteCore) load(ctx context.Context, quoteID string) (*domain.Quote, error) {
	quote, err := c.quotes.GetByID(ctx, quoteID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("quote", map[string]any{"quote_id": quoteID})
		}
		return nil, apperrors.MapError(err)
	}
	return quote, nil
}

// loadVisible loads the quote for a caller who must be allowed to view it.
func (c *quoteCore) loadVisible(ctx context.Context, user *domain.User, quoteID string) (*domain.Quote, error) {
	quote, err := c.load(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !access.CanView(quote, user) {
		return nil, errAccessDenied()
	}
	return quote, nil
}

func (c *quoteCore) save(ctx context.Context, quote *domain.Quote) error {
	if err := c.quotes.Update(ctx, quote); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (c *quoteCore) record(ctx context.Context, actor *domain.User, quoteID string, changeType domain.QuoteChangeType, oldValue, newValue map[string]any) {
	if c.history == nil {
		return
	}
	entry := &domain.QuoteHistory{
		QuoteID:    quoteID,
		ChangedBy:  actor.Role,
		ChangeType: changeType,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if actor.ID != "" {
		id := actor.ID
		entry.ChangedByID = &id
	}
	if err := c.history.Create(ctx, entry); err != nil {
		c.logger.Error("record quote history failed",
			zap.String("quote_id", quoteID),
			zap.String("change_type", string(changeType)),
			zap.Error(err))
	}
}

// statusChanged records and announces a status change, if there was one.
func (c *quoteCore) statusChanged(ctx context.Context, actor *domain.User, quote *domain.Quote, oldStatus domain.QuoteStatus) {
	if quote.Status == oldStatus {
		return
	}
	newValue := map[string]any{"status": quote.Status}
	reason := ""
	if quote.RejectReason != nil {
		reason = *quote.RejectReason
		newValue["reason"] = reason
	}
	c.record(ctx, actor, quote.ID, domain.ChangeTypeStatus, map[string]any{"status": oldStatus}, newValue)
	c.publish(ctx, actor, events.EventQuoteStatusChanged, quote, events.QuoteStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: quote.Status,
		Reason:    reason,
	})
}

func (c *quoteCore) publish(ctx context.Context, actor *domain.User, eventType events.EventType, quote *domain.Quote, payload any) {
	if c.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		QuoteID:   quote.ID,
		Actor:     events.Actor{UserID: actor.ID, Role: actor.Role},
		Timestamp: c.now().UTC(),
		Quote:     quote.Clone(),
		Payload:   payload,
	}
	_ = c.dispatcher.Publish(ctx, event)
}

// storeUploads validates and saves every upload. On failure the files saved
// so far are removed again.
func (c *quoteCore) storeUploads(ctx context.Context, actor *domain.User, uploads []FileUpload) ([]domain.QuoteFile, error) {
	if c.files == nil {
		return nil, apperrors.NewInternalError(errors.New("file store not configured"))
	}
	stored := make([]domain.QuoteFile, 0, len(uploads))
	for _, upload := range uploads {
		file, err := c.storeUpload(ctx, actor, upload)
		if err != nil {
			c.discardFiles(ctx, stored)
			return nil, err
		}
		stored = append(stored, file)
	}
	return stored, nil
}

func (c *quoteCore) storeUpload(ctx context.Context, actor *domain.User, upload FileUpload) (domain.QuoteFile, error) {
	name := sanitizeFileName(upload.Name)
	rc, err := upload.Open()
	if err != nil {
		return domain.QuoteFile{}, apperrors.NewValidationError("unreadable upload", map[string]any{"file": name})
	}
	defer rc.Close()

	inspected, err := c.policy.Inspect(upload.Size, rc)
	if err != nil {
		return domain.QuoteFile{}, mapQuoteError(fmt.Errorf("%s: %w", name, err))
	}
	key, size, err := c.files.Save(ctx, name, inspected.Reader)
	if err != nil {
		return domain.QuoteFile{}, apperrors.NewInternalError(err)
	}
	return domain.QuoteFile{
		Filename:     filepath.Base(key),
		OriginalName: name,
		Path:         key,
		Size:         size,
		MimeType:     inspected.MimeType,
		UploadedAt:   c.now().UTC(),
		UploadedBy:   actor.ID,
	}, nil
}

// discardFiles removes stored bytes. Failures are logged only; the quote
// mutation that dropped the files has already committed.
func (c *quoteCore) discardFiles(ctx context.Context, files []domain.QuoteFile) {
	if c.files == nil {
		return
	}
	for _, file := range files {
		if err := c.files.Delete(ctx, file.Path); err != nil && !errors.Is(err, storage.ErrNotFound) {
			c.logger.Warn("delete stored file failed", zap.String("path", file.Path), zap.Error(err))
		}
	}
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}

func generateQuoteNumber() string {
	return "RFQ-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// mapQuoteError converts lifecycle and upload errors into API errors.
func mapQuoteError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrSupplierFilesRequired),
		errors.Is(err, domain.ErrQuoterFilesRequired),
		errors.Is(err, domain.ErrRejectReasonRequired),
		errors.Is(err, domain.ErrFileIndexOutOfRange),
		errors.Is(err, storage.ErrEmptyFile),
		errors.Is(err, storage.ErrFileTooLarge),
		errors.Is(err, storage.ErrTypeNotAllowed):
		return apperrors.NewValidationError(err.Error(), nil)
	case errors.Is(err, domain.ErrSupplierQuoteConfirmed),
		errors.Is(err, domain.ErrFinalQuoteConfirmed):
		return apperrors.NewDuplicateAction(err.Error(), nil)
	case errors.Is(err, domain.ErrAlreadyRejected),
		errors.Is(err, domain.ErrInvalidTransition):
		return apperrors.NewInvalidTransition(err.Error(), nil)
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NewNotFound("file", nil)
	}
	return apperrors.MapError(err)
}

func errAccessDenied() error {
	return apperrors.NewForbidden("access denied")
}

func strPtr(s string) *string {
	return &s
}

func derefString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
