package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "sheetdesk/internal/errors"
	"sheetdesk/internal/models"
	"sheetdesk/internal/sheet"
	"sheetdesk/internal/uuid"
)

// summaryColumns are the dataset columns needed for a summary; rows are skipped.
var summaryColumns = []string{"id", "owner_id", "file_name", "headers", "row_count", "upload_date"}

// datasetStore is the gorm-backed DatasetStore.
type datasetStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDatasetStore creates a new DatasetStore.
func NewDatasetStore(db *gorm.DB) DatasetStore {
	return &datasetStore{db: db, now: time.Now}
}

// Create inserts a dataset in a single statement. The row count is derived
// from rows.
func (s *datasetStore) Create(ctx context.Context, ownerID, fileName string, headers []string, rows []sheet.Row) (*models.Dataset, error) {
	if headers == nil {
		headers = []string{}
	}
	if rows == nil {
		rows = []sheet.Row{}
	}

	ds := &models.Dataset{
		OwnerID:    ownerID,
		FileName:   fileName,
		Headers:    datatypes.JSONSlice[string](headers),
		Rows:       datatypes.JSONSlice[map[string]any](rows),
		RowCount:   len(rows),
		UploadDate: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(ds).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return ds, nil
}

// GetByID loads a full dataset, rows included.
func (s *datasetStore) GetByID(ctx context.Context, id string) (*models.Dataset, error) {
	if !uuid.IsValid(id) {
		return nil, apperrors.ErrDatasetNotFound
	}

	var ds models.Dataset
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&ds).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDatasetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &ds, nil
}

// ListByOwner returns the owner's dataset summaries, newest first.
func (s *datasetStore) ListByOwner(ctx context.Context, ownerID string) ([]DatasetSummary, error) {
	if !uuid.IsValid(ownerID) {
		return []DatasetSummary{}, nil
	}

	var datasets []models.Dataset
	err := s.db.WithContext(ctx).
		Select(summaryColumns).
		Where("owner_id = ?", ownerID).
		Order("upload_date DESC, id DESC").
		Find(&datasets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return toSummaries(datasets, false), nil
}

// ListAll returns every dataset summary with owner display fields, newest first.
func (s *datasetStore) ListAll(ctx context.Context) ([]DatasetSummary, error) {
	return s.listWithOwners(ctx, 0)
}

// listWithOwners is ListAll with an optional limit (0 means unlimited).
func (s *datasetStore) listWithOwners(ctx context.Context, limit int) ([]DatasetSummary, error) {
	query := s.db.WithContext(ctx).
		Select(summaryColumns).
		Preload("Owner").
		Order("upload_date DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var datasets []models.Dataset
	if err := query.Find(&datasets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return toSummaries(datasets, true), nil
}

// DeleteByID removes a dataset. Deleting a missing dataset is ErrDatasetNotFound.
func (s *datasetStore) DeleteByID(ctx context.Context, id string) error {
	if !uuid.IsValid(id) {
		return apperrors.ErrDatasetNotFound
	}

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Dataset{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrDatasetNotFound
	}
	return nil
}

func toSummaries(datasets []models.Dataset, withOwner bool) []DatasetSummary {
	out := make([]DatasetSummary, 0, len(datasets))
	for i := range datasets {
		out = append(out, summarize(&datasets[i], withOwner))
	}
	return out
}

func summarize(ds *models.Dataset, withOwner bool) DatasetSummary {
	sum := DatasetSummary{
		ID:          ds.ID,
		FileName:    ds.FileName,
		UploadDate:  ds.UploadDate,
		HeaderCount: len(ds.Headers),
		RowCount:    ds.RowCount,
	}
	if withOwner {
		sum.Owner = models.OwnerOf(ds.Owner)
	}
	return sum
}
