package services

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "sheetdesk/internal/errors"
	"sheetdesk/internal/models"
)

const statsListLength = 5

// statsService aggregates platform statistics, optionally cached in Redis.
type statsService struct {
	db     *gorm.DB
	store  *datasetStore
	cache  *StatsCache
	logger *zap.SugaredLogger
}

// NewStatsService creates a new StatsServicer. A nil cache disables caching.
func NewStatsService(db *gorm.DB, cache *StatsCache, logger *zap.SugaredLogger) StatsServicer {
	return &statsService{
		db:     db,
		store:  &datasetStore{db: db, now: time.Now},
		cache:  cache,
		logger: logger,
	}
}

// ComputeStats returns user and dataset totals, the most recent uploads and
// the most active uploaders. It only reads.
func (s *statsService) ComputeStats(ctx context.Context) (*Stats, error) {
	tracer := otel.Tracer("sheetdesk/internal/services/stats")
	ctx, span := tracer.Start(ctx, "stats.compute")
	span.SetAttributes(attribute.String("stats.cache_key", statsCacheKey))
	defer span.End()

	if cached, ok := s.cache.get(ctx); ok {
		span.SetAttributes(attribute.Bool("stats.cache_hit", true))
		return cached, nil
	}

	stats, err := s.aggregate(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("stats.total_users", stats.TotalUsers),
		attribute.Int64("stats.total_files", stats.TotalFiles),
	)

	s.cache.set(ctx, stats)
	return stats, nil
}

func (s *statsService) aggregate(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	stats := &Stats{}

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := db.Model(&models.Dataset{}).Count(&stats.TotalFiles).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := db.Model(&models.Dataset{}).Select("COALESCE(SUM(row_count), 0)").Scan(&stats.TotalStorage).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	recent, err := s.store.listWithOwners(ctx, statsListLength)
	if err != nil {
		return nil, err
	}
	stats.RecentUploads = recent

	top, err := s.topUploaders(ctx)
	if err != nil {
		return nil, err
	}
	stats.TopUploaders = top

	return stats, nil
}

// uploadRow is the slice of a dataset needed to group by owner.
type uploadRow struct {
	OwnerID    string
	UploadDate time.Time
}

// topUploaders groups datasets by owner and keeps the statsListLength owners
// with the most uploads. Ties keep the order in which owners first appear,
// oldest upload first.
func (s *statsService) topUploaders(ctx context.Context) ([]UploaderActivity, error) {
	var rows []uploadRow
	err := s.db.WithContext(ctx).
		Model(&models.Dataset{}).
		Select("owner_id, upload_date").
		Order("upload_date ASC, id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	type group struct {
		ownerID string
		count   int
		last    time.Time
	}
	var groups []*group
	index := make(map[string]*group)
	for _, r := range rows {
		g, ok := index[r.OwnerID]
		if !ok {
			g = &group{ownerID: r.OwnerID}
			index[r.OwnerID] = g
			groups = append(groups, g)
		}
		g.count++
		if r.UploadDate.After(g.last) {
			g.last = r.UploadDate
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].count > groups[j].count
	})
	if len(groups) > statsListLength {
		groups = groups[:statsListLength]
	}

	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ownerID)
	}
	owners := make(map[string]*models.Owner, len(ids))
	if len(ids) > 0 {
		var users []models.User
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for i := range users {
			owners[users[i].ID] = models.OwnerOf(&users[i])
		}
	}

	out := make([]UploaderActivity, 0, len(groups))
	for _, g := range groups {
		out = append(out, UploaderActivity{
			Owner:       owners[g.ownerID],
			UploadCount: g.count,
			LastUpload:  g.last,
		})
	}
	return out, nil
}
