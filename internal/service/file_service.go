package service

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/spec-kit/quote-service/internal/access"
	"github.com/spec-kit/quote-service/internal/domain"
	"github.com/spec-kit/quote-service/internal/events"
	"github.com/spec-kit/quote-service/internal/repository"
	"github.com/spec-kit/quote-service/internal/storage"
	apperrors "github.com/spec-kit/quote-service/pkg/util/errorutil"
)

// FileService manages the three attachment sequences of a quote.
type FileService struct {
	quoteCore
}

// FileDependencies bundles collaborators.
type FileDependencies struct {
	QuoteRepo    repository.QuoteRepository
	HistoryRepo  repository.QuoteHistoryRepository
	FileStore    storage.Store
	UploadPolicy storage.UploadPolicy
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewFileService constructs the service.
func NewFileService(deps FileDependencies) *FileService {
	return &FileService{
		quoteCore: newQuoteCore(deps.QuoteRepo, deps.HistoryRepo, deps.FileStore, deps.UploadPolicy, deps.Dispatcher, deps.Logger),
	}
}

// Upload appends files to the kind's sequence.
func (s *FileService) Upload(ctx context.Context, user *domain.User, quoteID string, kind domain.FileKind, uploads []FileUpload) (*domain.Quote, error) {
	if !kind.Valid() {
		return nil, apperrors.NewValidationError("unknown file kind", map[string]any{"kind": kind})
	}
	if len(uploads) == 0 {
		return nil, apperrors.NewValidationError("no files uploaded", nil)
	}
	quote, err := s.loadVisible(ctx, user, quoteID)
	if err != nil {
		return nil, err
	}
	if !access.CanWriteFiles(quote, user, kind) {
		return nil, errAccessDenied()
	}

	stored, err := s.storeUploads(ctx, user, uploads)
	if err != nil {
		return nil, err
	}
	quote.AppendFiles(kind, stored...)
	if err := s.save(ctx, quote); err != nil {
		s.discardFiles(ctx, stored)
		return nil, err
	}

	s.record(ctx, user, quote.ID, domain.ChangeTypeFileAdded, nil, fileChange(kind, stored))
	s.publish(ctx, user, events.EventQuoteFilesChanged, quote, events.QuoteFilesChangedPayload{Kind: kind, Added: len(stored)})
	return access.Filter(quote, user), nil
}

// Open returns the file metadata and a reader over its contents. The caller
// closes the reader.
func (s *FileService) Open(ctx context.Context, user *domain.User, quoteID string, kind domain.FileKind, index int) (*domain.QuoteFile, io.ReadCloser, error) {
	if !kind.Valid() {
		return nil, nil, apperrors.NewValidationError("unknown file kind", map[string]any{"kind": kind})
	}
	quote, err := s.loadVisible(ctx, user, quoteID)
	if err != nil {
		return nil, nil, err
	}
	if !access.CanReadFiles(quote, user, kind) {
		return nil, nil, errAccessDenied()
	}
	files := quote.Files(kind)
	if index < 0 || index >= len(files) {
		return nil, nil, mapQuoteError(domain.ErrFileIndexOutOfRange)
	}
	file := files[index]
	rc, err := s.files.Open(ctx, file.Path)
	if err != nil {
		return nil, nil, mapQuoteError(err)
	}
	return &file, rc, nil
}

// DeleteFile removes one file. Deleting the file that justified the current
// status rolls the status back.
func (s *FileService) DeleteFile(ctx context.Context, user *domain.User, quoteID string, kind domain.FileKind, index int) (*domain.Quote, error) {
	return s.remove(ctx, user, quoteID, kind, func(q *domain.Quote) ([]domain.QuoteFile, error) {
		removed, err := q.RemoveFile(kind, index)
		if err != nil {
			return nil, err
		}
		return []domain.QuoteFile{removed}, nil
	})
}

// DeleteAll empties the kind's sequence.
func (s *FileService) DeleteAll(ctx context.Context, user *domain.User, quoteID string, kind domain.FileKind) (*domain.Quote, error) {
	return s.remove(ctx, user, quoteID, kind, func(q *domain.Quote) ([]domain.QuoteFile, error) {
		return q.ClearFiles(kind), nil
	})
}

func (s *FileService) remove(ctx context.Context, user *domain.User, quoteID string, kind domain.FileKind,
	apply func(*domain.Quote) ([]domain.QuoteFile, error)) (*domain.Quote, error) {
	if !kind.Valid() {
		return nil, apperrors.NewValidationError("unknown file kind", map[string]any{"kind": kind})
	}
	quote, err := s.loadVisible(ctx, user, quoteID)
	if err != nil {
		return nil, err
	}
	if !access.CanWriteFiles(quote, user, kind) {
		return nil, errAccessDenied()
	}

	oldStatus := quote.Status
	removed, err := apply(quote)
	if err != nil {
		return nil, mapQuoteError(err)
	}
	if err := s.save(ctx, quote); err != nil {
		return nil, err
	}
	s.discardFiles(ctx, removed)

	if len(removed) > 0 {
		s.record(ctx, user, quote.ID, domain.ChangeTypeFileRemoved, fileChange(kind, removed), nil)
		s.publish(ctx, user, events.EventQuoteFilesChanged, quote, events.QuoteFilesChangedPayload{Kind: kind, Removed: len(removed)})
	}
	s.statusChanged(ctx, user, quote, oldStatus)
	return access.Filter(quote, user), nil
}
