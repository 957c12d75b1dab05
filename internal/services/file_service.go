package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "sheetdesk/internal/errors"
	"sheetdesk/internal/models"
	"sheetdesk/internal/sheet"
	"sheetdesk/internal/telemetry"
)

// fileService exposes the dataset store scoped to a single owner.
type fileService struct {
	store  DatasetStore
	parser *sheet.Parser
	stats  *StatsCache
	logger *zap.SugaredLogger
	tracer trace.Tracer
}

// NewFileService creates a new FileServicer. Successful uploads and deletes
// invalidate stats.
func NewFileService(store DatasetStore, parser *sheet.Parser, stats *StatsCache, logger *zap.SugaredLogger) FileServicer {
	return &fileService{
		store:  store,
		parser: parser,
		stats:  stats,
		logger: logger,
		tracer: otel.Tracer("sheetdesk/internal/services/file"),
	}
}

// Upload parses the spreadsheet and stores it as a new dataset owned by
// ownerID. Nothing is stored when parsing fails.
func (s *fileService) Upload(ctx context.Context, ownerID, fileName string, r io.Reader) (*UploadResult, error) {
	ctx, span := s.tracer.Start(ctx, "upload.store")
	defer span.End()

	fileName = filepath.Base(fileName)
	span.SetAttributes(attribute.String("upload.file_name", fileName))

	parsed, err := s.parser.Parse(ctx, r, fileName)
	if err != nil {
		telemetry.UploadsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		s.logger.Infow("rejected upload", "owner_id", ownerID, "file_name", fileName, "error", err)
		return nil, err
	}

	ds, err := s.store.Create(ctx, ownerID, fileName, parsed.Headers, parsed.Rows)
	if err != nil {
		telemetry.UploadsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return nil, err
	}

	s.stats.Invalidate(ctx)
	telemetry.UploadsTotal.WithLabelValues("stored").Inc()
	telemetry.UploadRows.Observe(float64(ds.RowCount))
	span.SetAttributes(
		attribute.String("upload.dataset_id", ds.ID),
		attribute.Int("upload.row_count", ds.RowCount),
	)
	span.SetStatus(codes.Ok, "stored")

	return &UploadResult{
		FileID:   ds.ID,
		FileName: ds.FileName,
		Headers:  []string(ds.Headers),
		RowCount: ds.RowCount,
	}, nil
}

// ListFiles returns the owner's dataset summaries, newest first.
func (s *fileService) ListFiles(ctx context.Context, ownerID string) ([]DatasetSummary, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// GetFile returns the dataset when it exists and belongs to ownerID.
func (s *fileService) GetFile(ctx context.Context, ownerID, id string) (*models.Dataset, error) {
	ds, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ds.OwnerID != ownerID {
		return nil, apperrors.ErrDatasetNotFound
	}
	return ds, nil
}

// DeleteFile removes the dataset when it exists and belongs to ownerID.
func (s *fileService) DeleteFile(ctx context.Context, ownerID, id string) error {
	if _, err := s.GetFile(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.stats.Invalidate(ctx)
	return nil
}

func outcomeLabel(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "error"
}
